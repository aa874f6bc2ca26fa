package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	expirable "github.com/go-pkgz/expirable-cache"
	"github.com/redis/go-redis/v9"
)

const redisTimeout = 2 * time.Second

// Store is a TTL key-value backend
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Count(ctx context.Context, prefix string) (int, error)
	Ping(ctx context.Context) error
	Name() string
	Close() error
}

// RedisStore keeps entries in Redis. Commands are never retried so an
// unreachable server costs one bounded round trip per call.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store from a redis:// DSN. It does not connect.
func NewRedisStore(dsn string) (*RedisStore, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid redis dsn: %w", err)
	}
	opts.MaxRetries = -1
	opts.DialTimeout = redisTimeout
	opts.ReadTimeout = redisTimeout
	opts.WriteTimeout = redisTimeout
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	return n > 0, err
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.scan(ctx, prefix)
	if err != nil || len(keys) == 0 {
		return 0, err
	}
	n, err := s.client.Del(ctx, keys...).Result()
	return int(n), err
}

func (s *RedisStore) Count(ctx context.Context, prefix string) (int, error) {
	keys, err := s.scan(ctx, prefix)
	return len(keys), err
}

func (s *RedisStore) scan(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore keeps entries in process memory with per-key expiry
type MemoryStore struct {
	entries expirable.Cache
}

// NewMemoryStore creates a store holding at most maxKeys entries
func NewMemoryStore(maxKeys int, ttl time.Duration) (*MemoryStore, error) {
	entries, err := expirable.NewCache(expirable.MaxKeys(maxKeys), expirable.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &MemoryStore{entries: entries}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := s.entries.Get(key)
	if !ok {
		return "", false, nil
	}
	str, ok := value.(string)
	return str, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.entries.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	_, ok := s.entries.Peek(key)
	s.entries.Invalidate(key)
	return ok, nil
}

func (s *MemoryStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	n, _ := s.Count(ctx, prefix)
	s.entries.InvalidateFn(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
	return n, nil
}

func (s *MemoryStore) Count(_ context.Context, prefix string) (int, error) {
	s.entries.DeleteExpired()
	n := 0
	for _, key := range s.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			n++
		}
	}
	return n, nil
}

// DeleteExpired drops entries whose TTL has passed
func (s *MemoryStore) DeleteExpired() {
	s.entries.DeleteExpired()
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Close() error {
	s.entries.Purge()
	return nil
}
