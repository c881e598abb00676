// Package common holds the errors, logging and retry helpers shared by docmatch packages.
package common

import (
	"context"
	"errors"
	"fmt"
)

var (
	// Input errors.
	ErrInvalidDocument = errors.New("invalid document")
	ErrUnsupportedKind = errors.New("unsupported document kind")
	ErrInvalidRequest  = errors.New("invalid request")

	// Scorer errors.
	ErrScorerUnavailable = errors.New("certainty scorer unavailable")
	ErrCircuitOpen       = errors.New("circuit breaker open")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError carries a message meant for the person running the CLI
// alongside the underlying cause.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.UserMessage
	}
	return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError wraps err with a message for the terminal.
func NewUserError(userMessage string, err error) error {
	return &UserError{UserMessage: userMessage, Err: err}
}

// IsRetryable reports whether a failed scorer call is worth repeating.
// Rate limits and timeouts are; cancellation and an open circuit are not.
// Anything else defers to a wrapped RetryableError.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrRateLimit), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, context.Canceled):
		return false
	}

	var retryable *RetryableError
	return errors.As(err, &retryable) && retryable.Retryable
}
