package utils

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// Cache stores opaque bytes with a per-entry TTL. Implementations fail open:
// errors read as misses and failed writes are logged and dropped.
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool)
	SetBytes(ctx context.Context, key string, b []byte, ttl time.Duration)
}

// RedisCache is a Cache shared by every process pointing at the same Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// GetBytes returns cached bytes for a key.
func (r *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			Sugar.Warnf("cache get failed key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

// SetBytes stores bytes, falling back to the default TTL for non-positive values.
func (r *RedisCache) SetBytes(ctx context.Context, key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.client.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// MemoryCache is a process-local Cache backed by go-cache.
type MemoryCache struct {
	store *cache.Cache
}

// NewMemoryCache creates an in-process cache; expired entries are swept every cleanupInterval.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: cache.New(defaultCacheTTL, cleanupInterval)}
}

// GetBytes returns cached bytes for a key.
func (m *MemoryCache) GetBytes(_ context.Context, key string) ([]byte, bool) {
	v, found := m.store.Get(key)
	if !found {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// SetBytes stores bytes, falling back to the default TTL for non-positive values.
func (m *MemoryCache) SetBytes(_ context.Context, key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	m.store.Set(key, b, ttl)
}

// NewCache returns a RedisCache when client is non-nil, otherwise an in-process cache.
func NewCache(client *redis.Client) Cache {
	if client != nil {
		return NewRedisCache(client)
	}
	return NewMemoryCache(5 * time.Minute)
}
