package persistence

import (
	"context"
	"time"
)

// Cache is the key-value store behind a Bridge. Get returns ErrNotFound on a miss.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
