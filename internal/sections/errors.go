// Package sections manages user-authored custom sections and their items.
package sections

import (
	"errors"
	"fmt"
)

// ErrNoPendingDelete is returned by ConfirmDelete when nothing awaits confirmation
var ErrNoPendingDelete = errors.New("no delete pending confirmation")

// NotFoundError reports a reference to an unknown section or section item
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
