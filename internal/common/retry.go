package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrRateLimit indicates that the remote rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryOptions configures WithRetry. Zero fields take the values of DefaultRetryOptions.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions returns three attempts with doubling delays from 100ms up to 30s.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
}

func (o RetryOptions) withDefaults() RetryOptions {
	d := DefaultRetryOptions()
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = d.InitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = d.MaxDelay
	}
	if o.Multiplier <= 0 {
		o.Multiplier = d.Multiplier
	}
	return o
}

// backoff returns the wait before the next attempt. A rate-limited call
// always waits the full MaxDelay.
func (o RetryOptions) backoff(current time.Duration, err error) time.Duration {
	if errors.Is(err, ErrRateLimit) {
		return o.MaxDelay
	}
	return min(current, o.MaxDelay)
}

// RetryableError marks whether a failed call may be attempted again.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// WithRetry runs operation until it succeeds, fails permanently, runs out of
// attempts or ctx is done. Only errors accepted by IsRetryable are retried.
func WithRetry(ctx context.Context, operation func() error, opts RetryOptions) error {
	opts = opts.withDefaults()
	next := opts.InitialDelay

	for attempt := 1; ; attempt++ {
		err := operation()
		switch {
		case err == nil:
			return nil
		case !IsRetryable(err):
			return err
		case attempt >= opts.MaxAttempts:
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
		}

		wait := opts.backoff(next, err)
		slog.Warn("Call failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		next = time.Duration(float64(wait) * opts.Multiplier)
	}
}
