package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"wishshare/config"
	"wishshare/models"
)

// DefaultTTL is used when neither the caller nor config supply one
const DefaultTTL = 24 * time.Hour

type entry struct {
	models.ProductRecord
	CachedAt int64 `json:"_cached_at"`
}

// ParseCache stores extraction results keyed by canonical URL. Backend
// failures are logged and treated as a miss or a skipped write.
type ParseCache struct {
	store Store
	ttl   time.Duration
	stats *Stats
}

// NewParseCache creates a cache over store. stats may be shared with other
// owners; nil allocates a private one.
func NewParseCache(store Store, ttl time.Duration, stats *Stats) *ParseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if stats == nil {
		stats = &Stats{}
	}
	return &ParseCache{store: store, ttl: ttl, stats: stats}
}

// NewFromConfig picks Redis when a DSN is configured and the in-memory store
// otherwise. It returns nil when caching is disabled.
func NewFromConfig(cfg *config.ParserConfig) (*ParseCache, error) {
	if !cfg.CacheEnabled {
		log.Printf("⚠️ Parse cache disabled")
		return nil, nil
	}

	if cfg.RedisDSN == "" {
		store, err := NewMemoryStore(cfg.MemoryCacheKeys, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		log.Printf("✅ Parse cache using in-memory store (max %d keys)", cfg.MemoryCacheKeys)
		return NewParseCache(store, cfg.CacheTTL, nil), nil
	}

	store, err := NewRedisStore(cfg.RedisDSN)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		log.Printf("⚠️ Redis not reachable (%v), parse cache calls will be skipped while it is down", err)
	} else {
		log.Printf("✅ Parse cache connected to Redis")
	}
	return NewParseCache(store, cfg.CacheTTL, nil), nil
}

// Get returns the cached record for targetURL
func (c *ParseCache) Get(ctx context.Context, targetURL string) (*models.ProductRecord, bool) {
	key := Key(targetURL)
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Printf("⚠️ Cache read failed for %s: %v", targetURL, err)
		c.stats.Miss()
		return nil, false
	}
	if !ok {
		c.stats.Miss()
		return nil, false
	}

	var cached entry
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		log.Printf("⚠️ Dropping unreadable cache entry %s: %v", key, err)
		c.stats.Miss()
		return nil, false
	}
	c.stats.Hit()
	return &cached.ProductRecord, true
}

// Set stores record for ttl, or the cache default when ttl is zero. Empty
// records are never stored. It reports whether the write happened.
func (c *ParseCache) Set(ctx context.Context, targetURL string, record *models.ProductRecord, ttl time.Duration) bool {
	if record.IsEmpty() {
		return false
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(entry{ProductRecord: *record, CachedAt: time.Now().Unix()})
	if err != nil {
		log.Printf("❌ Failed to encode cache entry for %s: %v", targetURL, err)
		return false
	}

	key := Key(targetURL)
	if err := c.store.Set(ctx, key, string(data), ttl); err != nil {
		log.Printf("⚠️ Cache write failed for %s: %v", targetURL, err)
		return false
	}
	log.Printf("✅ Cached %s as %s (ttl %v)", targetURL, key, ttl)
	return true
}

// Delete removes the entry for targetURL
func (c *ParseCache) Delete(ctx context.Context, targetURL string) bool {
	deleted, err := c.store.Delete(ctx, Key(targetURL))
	if err != nil {
		log.Printf("⚠️ Cache delete failed for %s: %v", targetURL, err)
		return false
	}
	return deleted
}

// Clear removes every parse result and returns how many were dropped
func (c *ParseCache) Clear(ctx context.Context) (int, error) {
	n, err := c.store.DeletePrefix(ctx, KeyPrefix)
	if err != nil {
		return 0, err
	}
	log.Printf("🧹 Cleared %d parse cache entries", n)
	return n, nil
}

// DeleteExpired drops expired entries on stores that do not expire them
// on their own.
func (c *ParseCache) DeleteExpired() {
	if s, ok := c.store.(interface{ DeleteExpired() }); ok {
		s.DeleteExpired()
	}
}

// Stats reports counters and backend state
func (c *ParseCache) Stats(ctx context.Context) Report {
	report := Report{
		Enabled:    true,
		Backend:    c.store.Name(),
		Hits:       c.stats.Hits(),
		Misses:     c.stats.Misses(),
		HitRate:    c.stats.HitRate(),
		DefaultTTL: int64(c.ttl.Seconds()),
	}
	if err := c.store.Ping(ctx); err != nil {
		return report
	}
	report.Connected = true
	if n, err := c.store.Count(ctx, KeyPrefix); err == nil {
		report.TotalKeys = n
	}
	return report
}

// Close releases the backend
func (c *ParseCache) Close() error {
	return c.store.Close()
}
