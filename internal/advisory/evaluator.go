package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jonathan/cranium/internal/llm"
	"github.com/jonathan/cranium/internal/schemas"
	"github.com/jonathan/cranium/internal/types"
)

// DefaultMaxAttempts bounds collaborator calls per settled window.
const DefaultMaxAttempts = 3

// Advisor is the external advice collaborator. It returns the raw response text.
type Advisor interface {
	Advise(ctx context.Context, req types.AdviceRequest) (string, error)
}

// Retrier is implemented by advisors that can be told why their previous
// response was rejected.
type Retrier interface {
	AdviseAgain(ctx context.Context, req types.AdviceRequest, problem string) (string, error)
}

// AdvisorFunc adapts a function to Advisor.
type AdvisorFunc func(ctx context.Context, req types.AdviceRequest) (string, error)

// Advise calls f.
func (f AdvisorFunc) Advise(ctx context.Context, req types.AdviceRequest) (string, error) {
	return f(ctx, req)
}

// Evaluator calls the advisor and validates its response, retrying on call
// failures and malformed responses up to maxAttempts times.
type Evaluator struct {
	advisor     Advisor
	maxAttempts int
	logger      *log.Logger
}

// NewEvaluator creates an evaluator. A non-positive maxAttempts uses DefaultMaxAttempts.
func NewEvaluator(advisor Advisor, maxAttempts int, logger *log.Logger) *Evaluator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Evaluator{advisor: advisor, maxAttempts: maxAttempts, logger: logger}
}

// Evaluate returns the first valid advice. When every attempt fails the
// error wraps ErrAttemptsExhausted.
func (e *Evaluator) Evaluate(ctx context.Context, req types.AdviceRequest) (types.Advice, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := e.call(ctx, req, lastErr)
		if err != nil {
			e.logger.Printf("Advisory call for %s failed (attempt %d/%d): %v", req.Focus.ItemID, attempt, e.maxAttempts, err)
			lastErr = err
			continue
		}

		advice, err := ParseAdvice(raw)
		if err != nil {
			e.logger.Printf("Advisory response for %s rejected (attempt %d/%d): %v", req.Focus.ItemID, attempt, e.maxAttempts, err)
			lastErr = err
			continue
		}
		return advice, nil
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrAttemptsExhausted, e.maxAttempts, lastErr)
}

func (e *Evaluator) call(ctx context.Context, req types.AdviceRequest, previous error) (string, error) {
	var shapeErr *ShapeError
	if r, ok := e.advisor.(Retrier); ok && errors.As(previous, &shapeErr) {
		return r.AdviseAgain(ctx, req, shapeErr.Cause.Error())
	}
	return e.advisor.Advise(ctx, req)
}

// ParseAdvice validates raw against the suggestion contract, then the
// coaching contract, and decodes the first that matches.
func ParseAdvice(raw string) (types.Advice, error) {
	cleaned := llm.CleanJSONBlock(raw)

	suggestionErr := schemas.Validate(schemas.AdviceSuggestion, cleaned)
	if suggestionErr == nil {
		var s types.Suggestion
		if err := json.Unmarshal([]byte(cleaned), &s); err != nil {
			return nil, &ShapeError{Raw: raw, Cause: err}
		}
		return &s, nil
	}

	coachingErr := schemas.Validate(schemas.AdviceCoaching, cleaned)
	if coachingErr == nil {
		var c types.Coaching
		if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
			return nil, &ShapeError{Raw: raw, Cause: err}
		}
		return &c, nil
	}

	return nil, &ShapeError{Raw: raw, Cause: errors.Join(suggestionErr, coachingErr)}
}
