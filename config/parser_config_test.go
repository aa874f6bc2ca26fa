package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParserConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"PARSER_BROWSER_FALLBACK", "PARSER_BROWSER_DOMAINS", "PARSER_BROWSER_TIMEOUT_MS",
		"PARSER_ALLOWED_DOMAINS", "PARSE_CACHE_ENABLED", "PARSE_CACHE_TTL_SECONDS",
		"PARSER_STATIC_TIMEOUT", "PREVIEW_WORKERS",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadParserConfig()

	assert.True(t, cfg.BrowserFallbackEnabled)
	assert.Contains(t, cfg.BrowserFallbackDomains, "ozon.ru")
	assert.Contains(t, cfg.BrowserFallbackDomains, "amazon.ru")
	assert.Equal(t, 45*time.Second, cfg.BrowserNavTimeout)
	assert.Equal(t, 8*time.Second, cfg.StaticFetchTimeout)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.CacheEnabled)
	assert.Nil(t, cfg.AllowedDomains, "domain guard is opt-in")
	assert.Equal(t, 4, cfg.PreviewWorkers)
}

func TestLoadParserConfigOverrides(t *testing.T) {
	t.Setenv("PARSER_BROWSER_FALLBACK", "false")
	t.Setenv("PARSER_BROWSER_DOMAINS", " Shop.Example , ,other.example")
	t.Setenv("PARSER_BROWSER_TIMEOUT_MS", "1500")
	t.Setenv("PARSE_CACHE_TTL_SECONDS", "60")
	t.Setenv("PARSER_ALLOWED_DOMAINS", "*")
	t.Setenv("REDIS_DSN", "")

	cfg := LoadParserConfig()

	assert.False(t, cfg.BrowserFallbackEnabled)
	require.Len(t, cfg.BrowserFallbackDomains, 2)
	assert.Equal(t, []string{"shop.example", "other.example"}, cfg.BrowserFallbackDomains)
	assert.Equal(t, 1500*time.Millisecond, cfg.BrowserNavTimeout)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.AllowedDomains)
	assert.Empty(t, cfg.RedisDSN)
}

func TestLoadParserConfigAllowedDomains(t *testing.T) {
	tests := []struct {
		value string
		want  []string
	}{
		{"", nil},
		{"*", nil},
		{" *  ", nil},
		{"Ozon.ru, shop.test", []string{"ozon.ru", "shop.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("PARSER_ALLOWED_DOMAINS", tt.value)
			assert.Equal(t, tt.want, LoadParserConfig().AllowedDomains)
		})
	}
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_PER_SECOND", "bogus")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg := LoadServerConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, float64(2), cfg.RateLimitPerSecond)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}
