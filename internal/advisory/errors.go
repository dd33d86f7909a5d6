// Package advisory debounces qualifying workspace events and evaluates them
// against the advice collaborator.
package advisory

import (
	"errors"
	"fmt"
)

// ErrAttemptsExhausted is returned when every attempt failed or produced an
// unusable response.
var ErrAttemptsExhausted = errors.New("advisory attempts exhausted")

// ShapeError reports a response that matched neither advice contract.
type ShapeError struct {
	Raw   string
	Cause error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("advice response matched no known shape: %v", e.Cause)
}

func (e *ShapeError) Unwrap() error {
	return e.Cause
}
