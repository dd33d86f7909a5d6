// Package placement holds the canonical placement of items across named containers.
package placement

import "fmt"

// NotFoundError reports a reference to an unknown item or container
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// DuplicateError reports an attempt to place an id that is already placed
type DuplicateError struct {
	ID        string
	Container string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("item %s already placed in %s", e.ID, e.Container)
}
