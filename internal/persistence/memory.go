package persistence

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process Cache used when no Redis URL is configured.
type MemoryCache struct {
	cache *cache.Cache
}

// NewMemoryCache creates a cache whose expired entries are swept every cleanup interval.
func NewMemoryCache(cleanup time.Duration) *MemoryCache {
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &MemoryCache{cache: cache.New(cache.NoExpiration, cleanup)}
}

// Set stores a copy of value.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	m.cache.Set(key, slices.Clone(value), ttl)
	return nil
}

// Get returns a copy of the stored value.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	value, found := m.cache.Get(key)
	if !found {
		return nil, ErrNotFound
	}
	return slices.Clone(value.([]byte)), nil
}

// Delete removes keys.
func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.cache.Delete(k)
	}
	return nil
}

// Close empties the cache.
func (m *MemoryCache) Close() error {
	m.cache.Flush()
	return nil
}
