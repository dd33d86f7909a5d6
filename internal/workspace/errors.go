// Package workspace is the resume organization engine. It routes drag and
// edit events to the item and section stores, records history, drives the
// advisory pipeline and mirrors session state through the persistence bridge.
package workspace

import (
	"errors"
	"fmt"
)

var (
	// ErrNotDragging is returned by drag events that arrive without a matching DragStart
	ErrNotDragging = errors.New("no drag in progress for item")
	// ErrAlreadyImported is returned when a profile is imported into a non-empty workspace
	ErrAlreadyImported = errors.New("workspace already holds a profile")
	// ErrNoBridge is returned by Restore when the workspace has no persistence bridge
	ErrNoBridge = errors.New("workspace has no persistence bridge")
)

// ReferenceError reports an event naming an unknown item, container or section
type ReferenceError struct {
	Op string
	ID string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: unknown reference %q", e.Op, e.ID)
}
