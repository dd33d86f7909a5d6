// Package persistence mirrors session state to a key-value cache.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingIdentity is returned when the bridge has no user or session id
	ErrMissingIdentity = errors.New("missing user or session identity")
	// ErrEmptyPayload is returned for a nil payload
	ErrEmptyPayload = errors.New("refusing to persist empty payload")
	// ErrNotFound is returned by caches on a miss
	ErrNotFound = errors.New("cache key not found")
)

// CacheError represents a failed cache operation
type CacheError struct {
	Op    string
	Key   string
	Cause error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Cause)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}
