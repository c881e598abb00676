package engine

import (
	"context"

	"github.com/Veraticus/docmatch/internal/model"
)

// Scorer defines the contract for the certainty collaborator.
// Score returns the probability in [0,1] that a and b belong together.
type Scorer interface {
	Score(ctx context.Context, a, b model.Document) (float64, error)
}

// ProgressFunc is called after each candidate has been matched.
type ProgressFunc func(done, total int)
