package scraper

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36"

// browserHeaders mimic a desktop Chrome navigation request. Accept-Encoding is
// left to the transport so compressed bodies are decoded transparently.
var browserHeaders = map[string]string{
	"User-Agent":                browserUserAgent,
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
	"Upgrade-Insecure-Requests": "1",
	"sec-ch-ua":                 `"Google Chrome";v="132", "Chromium";v="132", "Not_A Brand";v="24"`,
	"sec-ch-ua-mobile":          "?0",
	"sec-ch-ua-platform":        `"Windows"`,
}

// FetchResult is a fetched page with its body decoded to UTF-8
type FetchResult struct {
	StatusCode int
	FinalURL   string
	HTML       string
	Variant    string
}

type fetchVariant struct {
	name   string
	client *resty.Client
}

// StaticFetcher performs plain HTTP GETs, trying several network setups
// in order: ambient proxy, direct, direct without certificate checks.
type StaticFetcher struct {
	variants []fetchVariant
	detector *BotDetector
}

// NewStaticFetcher creates a fetcher whose every attempt is bounded by timeout
func NewStaticFetcher(timeout time.Duration) *StaticFetcher {
	return &StaticFetcher{
		variants: []fetchVariant{
			{name: "env-proxy", client: newVariantClient(timeout, true, false)},
			{name: "direct", client: newVariantClient(timeout, false, false)},
			{name: "direct-insecure", client: newVariantClient(timeout, false, true)},
		},
		detector: defaultBotDetector,
	}
}

func newVariantClient(timeout time.Duration, useEnvProxy, insecure bool) *resty.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if useEnvProxy {
		transport.Proxy = http.ProxyFromEnvironment
	} else {
		transport.Proxy = nil
	}

	// the bypass wrapper installs its own TLS config on the transport
	roundTripper := cloudflarebp.AddCloudFlareByPass(transport)
	if insecure {
		tlsConfig := &tls.Config{}
		if transport.TLSClientConfig != nil {
			tlsConfig = transport.TLSClientConfig.Clone()
		}
		tlsConfig.InsecureSkipVerify = true
		transport.TLSClientConfig = tlsConfig
	}

	client := resty.New()
	client.SetTransport(roundTripper)
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetHeaders(browserHeaders)
	return client
}

// Fetch GETs targetURL. A 401/403/429 returns the page together with a
// KindBlocked error; other error statuses return KindHTTPStatus; when no
// variant completes the error is KindNetwork.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string) (*FetchResult, error) {
	var attemptErrors []string

	for _, variant := range f.variants {
		if err := ctx.Err(); err != nil {
			attemptErrors = append(attemptErrors, err.Error())
			break
		}

		resp, err := variant.client.R().SetContext(ctx).Get(targetURL)
		if err != nil {
			log.Printf("⚠️ Static fetch via %s failed for %s: %v", variant.name, targetURL, err)
			attemptErrors = append(attemptErrors, fmt.Sprintf("%s: %v", variant.name, err))
			continue
		}

		html, err := decodeBody(resp.Body(), resp.Header().Get("Content-Type"))
		if err != nil {
			return nil, &ExtractionError{Kind: KindParse, Stage: "fetch", URL: targetURL, Err: err}
		}

		result := &FetchResult{
			StatusCode: resp.StatusCode(),
			FinalURL:   finalURL(resp, targetURL),
			HTML:       html,
			Variant:    variant.name,
		}

		if f.detector.IsBlockedStatus(result.StatusCode) {
			return result, &ExtractionError{
				Kind:  KindBlocked,
				Stage: "fetch",
				URL:   targetURL,
				Err:   fmt.Errorf("status %d", result.StatusCode),
			}
		}
		if result.StatusCode >= 400 {
			return result, &ExtractionError{
				Kind:  KindHTTPStatus,
				Stage: "fetch",
				URL:   targetURL,
				Err:   fmt.Errorf("status %d", result.StatusCode),
			}
		}

		log.Printf("✅ Static fetch via %s: %s -> %d", variant.name, targetURL, result.StatusCode)
		return result, nil
	}

	return nil, &ExtractionError{
		Kind:  KindNetwork,
		Stage: "fetch",
		URL:   targetURL,
		Err:   errors.New(strings.Join(attemptErrors, "; ")),
	}
}

func finalURL(resp *resty.Response, fallback string) string {
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		return resp.RawResponse.Request.URL.String()
	}
	return fallback
}

// decodeBody converts the body to UTF-8 using the Content-Type charset or
// the document's own meta declaration.
func decodeBody(body []byte, contentType string) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to detect charset: %w", err)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(decoded), nil
}
