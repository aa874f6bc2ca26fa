package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFetcherSendsBrowserHeadersAndFollowsRedirects(t *testing.T) {
	var gotUA, gotLang, gotCHUA string
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/product/1", http.StatusFound)
	})
	mux.HandleFunc("/product/1", func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotCHUA = r.Header.Get("sec-ch-ua")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Product</title></head></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	result, err := NewStaticFetcher(2*time.Second).Fetch(context.Background(), srv.URL+"/short")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, srv.URL+"/product/1", result.FinalURL)
	assert.Contains(t, result.HTML, "<title>Product</title>")
	assert.Contains(t, gotUA, "Chrome/132")
	assert.Equal(t, "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7", gotLang)
	assert.Contains(t, gotCHUA, `"Chromium";v="132"`)
}

func TestStaticFetcherDecodesLegacyCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		// "Лампа" in windows-1251
		_, _ = w.Write([]byte("<html><body><h1>\xcb\xe0\xec\xef\xe0</h1></body></html>"))
	}))
	defer srv.Close()

	result, err := NewStaticFetcher(2*time.Second).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Contains(t, result.HTML, "Лампа")
}

func TestStaticFetcherBlockedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<html><title>Доступ ограничен</title></html>`))
	}))
	defer srv.Close()

	result, err := NewStaticFetcher(2*time.Second).Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindBlocked))
	require.NotNil(t, result)
	assert.Equal(t, http.StatusForbidden, result.StatusCode)
}

func TestStaticFetcherNotFoundStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewStaticFetcher(2*time.Second).Fetch(context.Background(), srv.URL)

	assert.True(t, IsKind(err, KindHTTPStatus))
}

func TestStaticFetcherFallsBackToInsecureTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	result, err := NewStaticFetcher(2*time.Second).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "direct-insecure", result.Variant)
}

func TestStaticFetcherUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	result, err := NewStaticFetcher(time.Second).Fetch(context.Background(), addr)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNetwork))
	assert.Contains(t, err.Error(), "direct-insecure")
}

func TestStaticFetcherHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStaticFetcher(time.Second).Fetch(ctx, "http://127.0.0.1:1/")

	assert.True(t, IsKind(err, KindNetwork))
}
