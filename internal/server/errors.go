// Package server provides the HTTP API over resume workspaces.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cranium/internal/db"
	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/sections"
	"github.com/jonathan/cranium/internal/workspace"
)

// ErrSessionNotFound indicates no session with the given id belongs to the caller
type ErrSessionNotFound struct {
	SessionID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnavailable indicates a request needs a backend the server was started without
type ErrUnavailable struct {
	Backend string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s is not configured", e.Backend)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrSessionNotFound
		validation *ErrValidation
		fields     validator.ValidationErrors
		reference  *workspace.ReferenceError
		section    *sections.NotFoundError
		profile    *db.ProfileNotFoundError
		missing    *ErrUnavailable
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &reference),
		errors.As(err, &section), errors.As(err, &profile):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &fields):
		return http.StatusBadRequest
	case errors.Is(err, workspace.ErrNotDragging), errors.Is(err, workspace.ErrAlreadyImported),
		errors.Is(err, sections.ErrNoPendingDelete):
		return http.StatusConflict
	case errors.Is(err, persistence.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &missing), errors.Is(err, workspace.ErrNoBridge):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
