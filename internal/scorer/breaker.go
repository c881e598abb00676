package scorer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/docmatch/internal/common"
)

// BreakerState is the state of a circuit breaker.
type BreakerState string

// Breaker states.
const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half_open"
)

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	ResetTimeout     time.Duration
}

// Breaker stops calls to a failing dependency. After FailureThreshold
// consecutive failures it opens and rejects calls until ResetTimeout has
// passed; it then lets calls through half-open and closes again after
// SuccessThreshold successes. Any failure while half-open reopens it.
type Breaker struct {
	lastFailure time.Time
	now         func() time.Time
	state       BreakerState
	cfg         BreakerConfig
	failures    int
	successes   int
	mu          sync.Mutex
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Breaker{cfg: cfg, state: StateClosed, now: time.Now}
}

// State returns the current state, moving from open to half-open when the
// reset timeout has passed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

func (b *Breaker) advance() {
	if b.state == StateOpen && b.now().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
		slog.Info("Circuit breaker half-open", "after", b.cfg.ResetTimeout)
		b.state = StateHalfOpen
		b.successes = 0
	}
}

// Do runs op unless the breaker is open.
func (b *Breaker) Do(op func() error) error {
	b.mu.Lock()
	b.advance()
	if b.state == StateOpen {
		failures := b.failures
		b.mu.Unlock()
		return fmt.Errorf("%w: %d/%d failures", common.ErrCircuitOpen, failures, b.cfg.FailureThreshold)
	}
	b.mu.Unlock()

	err := op()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			slog.Info("Circuit breaker closed")
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) onFailure() {
	b.failures++
	b.lastFailure = b.now()

	switch {
	case b.state == StateHalfOpen:
		slog.Warn("Circuit breaker reopened after failure while half-open")
		b.state = StateOpen
		b.successes = 0
	case b.state == StateClosed && b.failures >= b.cfg.FailureThreshold:
		slog.Error("Circuit breaker opened", "failures", b.failures)
		b.state = StateOpen
	}
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.lastFailure = time.Time{}
}
