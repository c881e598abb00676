package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fastRetry(attempts int) RetryOptions {
	return RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{name: "succeeds first time", failures: 0, attempts: 3, wantCalls: 1},
		{
			name:      "retries retryable errors",
			failures:  2,
			err:       &RetryableError{Err: errBoom, Retryable: true},
			attempts:  3,
			wantCalls: 3,
		},
		{
			name:      "stops on permanent errors",
			failures:  5,
			err:       &RetryableError{Err: errBoom, Retryable: false},
			attempts:  3,
			wantCalls: 1,
			wantErr:   errBoom,
		},
		{
			name:      "gives up after max attempts",
			failures:  5,
			err:       fmt.Errorf("upstream: %w", ErrRateLimit),
			attempts:  2,
			wantCalls: 2,
			wantErr:   ErrMaxRetries,
		},
		{
			name:      "open circuit is not retried",
			failures:  5,
			err:       fmt.Errorf("scoring: %w", ErrCircuitOpen),
			attempts:  3,
			wantCalls: 1,
			wantErr:   ErrCircuitOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			}, fastRetry(tt.attempts))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		cancel()
		return &RetryableError{Err: errBoom, Retryable: true}
	}, RetryOptions{MaxAttempts: 3, InitialDelay: time.Hour})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate limit", err: ErrRateLimit, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "circuit open", err: ErrCircuitOpen, want: false},
		{name: "flagged retryable", err: fmt.Errorf("wrap: %w", &RetryableError{Err: errBoom, Retryable: true}), want: true},
		{name: "flagged permanent", err: &RetryableError{Err: errBoom}, want: false},
		{name: "plain error", err: errBoom, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestUserError(t *testing.T) {
	err := NewUserError("Could not read config", ErrInvalidConfig)
	assert.Equal(t, "Could not read config: invalid configuration", err.Error())
	require.ErrorIs(t, err, ErrInvalidConfig)

	assert.Equal(t, "plain", NewUserError("plain", nil).Error())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "WARNING", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSetupLoggerTo(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, slog.LevelInfo, "json"))

	slog.Debug("hidden")
	LogInfo("Matched candidates", Fields{"primary": "inv-1"})
	LogError(errBoom, "Matching failed", Fields{"trace_id": "t-1"})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"primary":"inv-1"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"trace_id":"t-1"`)

	require.ErrorIs(t, SetupLoggerTo(&buf, slog.LevelInfo, "xml"), ErrInvalidConfig)
}

func TestRetryOptions_Backoff(t *testing.T) {
	opts := RetryOptions{MaxDelay: time.Second}.withDefaults()
	assert.Equal(t, 3, opts.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, opts.InitialDelay)
	assert.Equal(t, time.Second, opts.MaxDelay)

	assert.Equal(t, 400*time.Millisecond, opts.backoff(400*time.Millisecond, errBoom))
	assert.Equal(t, time.Second, opts.backoff(5*time.Second, errBoom))
	assert.Equal(t, time.Second, opts.backoff(time.Millisecond, fmt.Errorf("remote: %w", ErrRateLimit)))
}
