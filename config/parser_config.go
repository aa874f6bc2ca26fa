package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultBrowserDomains are marketplaces known to serve bot walls to plain HTTP clients
const DefaultBrowserDomains = "ozon.ru,wildberries.ru,wb.ru,lamoda.ru,dns-shop.ru,market.yandex.ru,yandex.ru,aliexpress.com,aliexpress.ru,amazon.com,amazon.ru"

// ParserConfig holds product extraction settings
type ParserConfig struct {
	BrowserFallbackEnabled bool
	BrowserFallbackDomains []string
	BrowserNavTimeout      time.Duration
	BrowserBin             string

	StaticFetchTimeout time.Duration

	// AllowedDomains guards network-facing endpoints against SSRF.
	// Nil (PARSER_ALLOWED_DOMAINS unset or "*") means every host is allowed.
	AllowedDomains []string

	CacheEnabled    bool
	CacheTTL        time.Duration
	RedisDSN        string
	MemoryCacheKeys int

	DatabaseURL    string
	PreviewWorkers int
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host               string
	Port               string
	AllowedOrigins     []string
	RateLimitPerSecond float64
}

// LoadParserConfig reads the parser configuration from the environment
func LoadParserConfig() *ParserConfig {
	browserDomains := getEnv("PARSER_BROWSER_DOMAINS", DefaultBrowserDomains)

	cfg := &ParserConfig{
		BrowserFallbackEnabled: getEnvBool("PARSER_BROWSER_FALLBACK", true),
		BrowserFallbackDomains: splitDomains(browserDomains),
		BrowserNavTimeout:      time.Duration(getEnvInt64("PARSER_BROWSER_TIMEOUT_MS", 45000)) * time.Millisecond,
		BrowserBin:             getEnv("PARSER_BROWSER_BIN", ""),
		StaticFetchTimeout:     getEnvDuration("PARSER_STATIC_TIMEOUT", 8*time.Second),
		CacheEnabled:           getEnvBool("PARSE_CACHE_ENABLED", true),
		CacheTTL:               time.Duration(getEnvInt64("PARSE_CACHE_TTL_SECONDS", 86400)) * time.Second,
		RedisDSN:               os.Getenv("REDIS_DSN"),
		MemoryCacheKeys:        int(getEnvInt64("PARSE_CACHE_MEMORY_KEYS", 10000)),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		PreviewWorkers:         int(getEnvInt64("PREVIEW_WORKERS", 4)),
	}

	if _, set := os.LookupEnv("REDIS_DSN"); !set {
		cfg.RedisDSN = "redis://localhost:6379/0"
	}

	if allowed := strings.TrimSpace(os.Getenv("PARSER_ALLOWED_DOMAINS")); allowed != "" && allowed != "*" {
		cfg.AllowedDomains = splitDomains(allowed)
	}

	if cfg.BrowserBin == "" {
		if _, err := os.Stat("/usr/bin/chromium-browser"); err == nil {
			cfg.BrowserBin = "/usr/bin/chromium-browser"
		}
	}
	if cfg.PreviewWorkers < 1 {
		cfg.PreviewWorkers = 1
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	return cfg
}

// LoadServerConfig reads the HTTP server configuration from the environment
func LoadServerConfig() *ServerConfig {
	rate, err := strconv.ParseFloat(getEnv("RATE_LIMIT_PER_SECOND", "2"), 64)
	if err != nil || rate <= 0 {
		rate = 2
	}

	return &ServerConfig{
		Host:               getEnv("HOST", "0.0.0.0"),
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		RateLimitPerSecond: rate,
	}
}

// splitDomains parses a comma-separated hostname list
func splitDomains(value string) []string {
	var domains []string
	for _, d := range splitList(value) {
		domains = append(domains, strings.ToLower(d))
	}
	return domains
}

func splitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
