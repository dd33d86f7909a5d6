package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cranium/internal/types"
)

// maxBodyBytes bounds request bodies; profiles are the largest payload.
const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type createSessionRequest struct {
	Profile    *types.ProfileSnapshot `json:"profile" validate:"required_without=UserID"`
	UserID     string                 `json:"user_id" validate:"omitempty,uuid"`
	SessionID  string                 `json:"session_id" validate:"omitempty,uuid"`
	TargetRole string                 `json:"target_role" validate:"max=200"`
}

type createSessionResponse struct {
	SessionID string       `json:"session_id"`
	State     sessionState `json:"state"`
}

type targetRoleRequest struct {
	TargetRole string `json:"target_role" validate:"max=200"`
}

type dragRequest struct {
	ItemID string `json:"item_id" validate:"required"`
	OverID string `json:"over_id"`
}

type dragOverRequest struct {
	ItemID string `json:"item_id" validate:"required"`
	OverID string `json:"over_id" validate:"required"`
}

type moveRequest struct {
	ItemID string `json:"item_id" validate:"required"`
	To     string `json:"to" validate:"required"`
	Index  int    `json:"index" validate:"gte=0"`
}

type editRequest struct {
	Patch map[string]any `json:"patch" validate:"required,min=1"`
}

type addSectionRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type sectionItemRequest struct {
	Text string `json:"text" validate:"max=5000"`
}

// decodeJSON reads a JSON body into dst and validates it. An empty body
// decodes as the zero value.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return validateRequest(dst)
}

// validateRequest runs struct validation and reports the first failing field.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		f := fields[0]
		return &ErrValidation{
			Field:   f.Field(),
			Message: fmt.Sprintf("failed %q check", f.Tag()),
		}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}
