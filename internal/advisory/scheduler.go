package advisory

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/jonathan/cranium/internal/types"
)

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 3 * time.Second

// Handler runs one settled evaluation. It is called off the scheduler lock
// in its own goroutine.
type Handler func(ctx context.Context, item types.QueueItem)

// Scheduler debounces qualifying events. Every Enqueue restarts the window;
// when the window elapses without a newer event, the handler runs for the
// last enqueued item only. A generation counter lets a timer that fired
// after being superseded detect it and skip.
type Scheduler struct {
	mu         sync.Mutex
	window     time.Duration
	handler    Handler
	logger     *log.Logger
	timer      *time.Timer
	generation uint64
	pending    *types.QueueItem
	processing map[string]uint64
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. A non-positive window uses DefaultWindow.
func NewScheduler(window time.Duration, handler Handler, logger *log.Logger) *Scheduler {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		window:     window,
		handler:    handler,
		logger:     logger,
		processing: make(map[string]uint64),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Enqueue marks item as processing and restarts the debounce window. An
// earlier pending item that has not fired yet is superseded and leaves the
// processing set.
func (s *Scheduler) Enqueue(item types.QueueItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.generation++
	gen := s.generation

	if s.pending != nil && s.pending.ItemID != item.ItemID {
		s.release(s.pending.ItemID, gen-1)
	}
	s.stopTimer()

	queued := item
	s.pending = &queued
	s.processing[item.ItemID] = gen

	s.wg.Add(1)
	s.timer = time.AfterFunc(s.window, func() { s.fire(gen) })
}

// Cancel drops id from the pending window and the processing set. A call
// already in flight for id still completes.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil && s.pending.ItemID == id {
		s.stopTimer()
		s.pending = nil
		s.generation++
	}
	delete(s.processing, id)
}

// Processing reports whether id awaits an advisory result.
func (s *Scheduler) Processing(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processing[id]
	return ok
}

// ProcessingIDs returns the processing set in sorted order.
func (s *Scheduler) ProcessingIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.processing))
	for id := range s.processing {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Wait blocks until no window is pending and no handler is running.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close stops the pending window and cancels the context passed to
// running handlers.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimer()
	s.pending = nil
	s.generation++
	s.mu.Unlock()

	s.cancel()
}

func (s *Scheduler) fire(gen uint64) {
	defer s.wg.Done()

	s.mu.Lock()
	if gen != s.generation || s.pending == nil || s.closed {
		s.mu.Unlock()
		return
	}
	item := *s.pending
	s.pending = nil
	s.timer = nil
	s.mu.Unlock()

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Printf("Advisory handler panicked for %s: %v", item.ItemID, r)
			}
		}()
		s.handler(s.ctx, item)
	}()

	s.mu.Lock()
	s.release(item.ItemID, gen)
	s.mu.Unlock()
}

// release removes id from the processing set if no newer event claimed it.
// Caller holds s.mu.
func (s *Scheduler) release(id string, gen uint64) {
	if current, ok := s.processing[id]; ok && current <= gen {
		delete(s.processing, id)
	}
}

// stopTimer stops the armed timer. A timer stopped before firing will never
// call fire, so its WaitGroup slot is released here. Caller holds s.mu.
func (s *Scheduler) stopTimer() {
	if s.timer == nil {
		return
	}
	if s.timer.Stop() {
		s.wg.Done()
	}
	s.timer = nil
}
