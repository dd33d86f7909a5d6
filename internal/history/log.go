// Package history keeps the append-only log of placement changes.
package history

import (
	"slices"
	"time"

	"github.com/jonathan/cranium/internal/types"
)

// Log is an append-only sequence of HistoryEntry values in event order.
type Log struct {
	entries []types.HistoryEntry
	now     func() time.Time
}

// New creates an empty log stamped with wall-clock time.
func New() *Log {
	return &Log{now: time.Now}
}

// WithClock replaces the timestamp source.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

// Append stamps and records an entry, returning it.
func (l *Log) Append(e types.HistoryEntry) types.HistoryEntry {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	l.entries = append(l.entries, e)
	return e
}

// Last returns up to n entries, most recent first.
func (l *Log) Last(n int) []types.HistoryEntry {
	if n <= 0 || len(l.entries) == 0 {
		return []types.HistoryEntry{}
	}
	start := max(len(l.entries)-n, 0)
	out := slices.Clone(l.entries[start:])
	slices.Reverse(out)
	return out
}

// All returns every entry in event order.
func (l *Log) All() []types.HistoryEntry {
	return slices.Clone(l.entries)
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Replace swaps in a previously saved log.
func (l *Log) Replace(entries []types.HistoryEntry) {
	l.entries = slices.Clone(entries)
}
