package scorer

import (
	"context"
	"math"

	"github.com/Veraticus/docmatch/internal/extract"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/Veraticus/docmatch/internal/pairing"
	"github.com/Veraticus/docmatch/internal/similarity"
)

// Fallback certainties.
const (
	// ReferenceMatchCertainty is returned when both documents name the same
	// purchase order. It stays below 1 to allow for extraction errors.
	ReferenceMatchCertainty = 0.95
	// ReferenceConflictCertainty is returned when they name different orders.
	ReferenceConflictCertainty = 0.0
	// MinCertainty is the floor for pairs decided on item overlap alone.
	MinCertainty = 0.15
	// OverlapCeiling caps certainties decided on item overlap alone.
	OverlapCeiling = 0.9
)

// Fallback scores pairs without a model. Order references decide when both
// documents carry one; otherwise the share of paired items does.
type Fallback struct {
	Options pairing.Options
}

// NewFallback creates a fallback scorer using the given pairing options.
func NewFallback(opts pairing.Options) *Fallback {
	return &Fallback{Options: opts}
}

// Score implements Scorer. It never fails.
func (f *Fallback) Score(_ context.Context, a, b model.Document) (float64, error) {
	ea, eb := extract.Extract(a), extract.Extract(b)

	refA := similarity.NormalizeArticle(ea.OrderReference().Value)
	refB := similarity.NormalizeArticle(eb.OrderReference().Value)
	if refA != "" && refB != "" {
		if refA == refB {
			return ReferenceMatchCertainty, nil
		}
		return ReferenceConflictCertainty, nil
	}

	total := max(len(ea.Items), len(eb.Items))
	if total == 0 {
		return MinCertainty, nil
	}

	matched := 0
	for _, p := range pairing.PairItems(ea.Items, eb.Items, f.Options) {
		if p.Matched() {
			matched++
		}
	}
	overlap := float64(matched) / float64(total)
	return math.Max(MinCertainty, OverlapCeiling*overlap), nil
}
