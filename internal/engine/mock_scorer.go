package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/docmatch/internal/model"
)

// MockScorer is a test implementation of the Scorer interface.
// It returns a fixed certainty per candidate id, Default otherwise.
type MockScorer struct {
	Err     error
	ByID    map[string]float64
	calls   []MockScoreCall
	Default float64
	mu      sync.Mutex
}

// MockScoreCall records one scoring request.
type MockScoreCall struct {
	A string
	B string
}

// NewMockScorer creates a mock scorer returning certainty for every pair.
func NewMockScorer(certainty float64) *MockScorer {
	return &MockScorer{Default: certainty, ByID: map[string]float64{}}
}

// Score returns the configured certainty for b, or Err when set.
func (m *MockScorer) Score(ctx context.Context, a, b model.Document) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockScoreCall{A: a.ID, B: b.ID})
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.Err != nil {
		return 0, m.Err
	}
	if v, ok := m.ByID[b.ID]; ok {
		return v, nil
	}
	return m.Default, nil
}

// Calls returns the recorded requests.
func (m *MockScorer) Calls() []MockScoreCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MockScoreCall, len(m.calls))
	copy(out, m.calls)
	return out
}
