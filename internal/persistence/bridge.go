package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// Purpose names one slice of session state.
type Purpose string

// Persisted purposes
const (
	PurposeChoice   Purpose = "choice"
	PurposeHistory  Purpose = "history"
	PurposeFeedback Purpose = "feedback"
	PurposeChat     Purpose = "chat"
)

// DefaultTTL is how long session state is kept.
const DefaultTTL = 24 * time.Hour

const writeTimeout = 5 * time.Second

// Bridge writes session state for one user session to a Cache under
// "cranium:{user}:{session}:{purpose}" keys.
type Bridge struct {
	cache     Cache
	userID    string
	sessionID string
	ttl       time.Duration
	logger    *log.Logger

	mu      sync.Mutex
	seq     map[Purpose]uint64
	written map[Purpose]uint64
	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// NewBridge creates a bridge. A non-positive ttl uses DefaultTTL.
func NewBridge(cache Cache, userID, sessionID string, ttl time.Duration, logger *log.Logger) *Bridge {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Bridge{
		cache:     cache,
		userID:    userID,
		sessionID: sessionID,
		ttl:       ttl,
		logger:    logger,
		seq:       make(map[Purpose]uint64),
		written:   make(map[Purpose]uint64),
	}
}

// Key returns the cache key for purpose.
func (b *Bridge) Key(purpose Purpose) string {
	return fmt.Sprintf("cranium:%s:%s:%s", b.userID, b.sessionID, purpose)
}

// Save encodes and writes payload, returning any failure. An empty payload
// removes the stored key.
func (b *Bridge) Save(ctx context.Context, purpose Purpose, payload any) error {
	data, err := b.encode(payload)
	if err != nil {
		return err
	}
	return b.write(ctx, purpose, data)
}

// Notify writes payload in the background. The payload is encoded before
// Notify returns. Failures are logged and never reported to the caller.
// When several writes for one purpose are in flight, an older one never
// overwrites a newer one. An empty payload removes the stored key.
func (b *Bridge) Notify(purpose Purpose, payload any) {
	data, err := b.encode(payload)
	if err != nil {
		b.logger.Printf("Skipping %s persistence for session %s: %v", purpose, b.sessionID, err)
		return
	}

	b.mu.Lock()
	b.seq[purpose]++
	seq := b.seq[purpose]
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		b.writeMu.Lock()
		defer b.writeMu.Unlock()
		if b.written[purpose] > seq {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := b.write(ctx, purpose, data); err != nil {
			b.logger.Printf("Failed to persist %s for session %s: %v", purpose, b.sessionID, err)
			return
		}
		b.written[purpose] = seq
	}()
}

// Load decodes the stored payload for purpose into into. A miss returns ErrNotFound.
func (b *Bridge) Load(ctx context.Context, purpose Purpose, into any) error {
	if b.userID == "" || b.sessionID == "" {
		return ErrMissingIdentity
	}
	data, err := b.cache.Get(ctx, b.Key(purpose))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to decode %s state: %w", purpose, err)
	}
	return nil
}

// Wait blocks until every Notify write has finished.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

// write stores data, or deletes the key when data is empty.
func (b *Bridge) write(ctx context.Context, purpose Purpose, data []byte) error {
	if data == nil {
		return b.cache.Delete(ctx, b.Key(purpose))
	}
	return b.cache.Set(ctx, b.Key(purpose), data, b.ttl)
}

// encode marshals payload. Empty collections encode to nil data.
func (b *Bridge) encode(payload any) ([]byte, error) {
	if b.userID == "" || b.sessionID == "" {
		return nil, ErrMissingIdentity
	}
	if payload == nil {
		return nil, ErrEmptyPayload
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	if isEmpty(data) {
		return nil, nil
	}
	return data, nil
}

func isEmpty(data []byte) bool {
	switch string(bytes.TrimSpace(data)) {
	case "", "null", "[]", "{}", `""`:
		return true
	}
	return false
}
