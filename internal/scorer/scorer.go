// Package scorer provides certainty scorers for document pairs: a local
// fallback, a remote model client and a router choosing between them per site.
package scorer

import (
	"context"

	"github.com/Veraticus/docmatch/internal/model"
)

// Scorer returns the probability in [0,1] that two documents belong together.
type Scorer interface {
	Score(ctx context.Context, a, b model.Document) (float64, error)
}

// Func adapts a function to the Scorer interface.
type Func func(ctx context.Context, a, b model.Document) (float64, error)

// Score calls f.
func (f Func) Score(ctx context.Context, a, b model.Document) (float64, error) {
	return f(ctx, a, b)
}
