// Package similarity provides the pure comparison functions shared by item
// pairing and deviation detection.
package similarity

import (
	"math"

	"github.com/shopspring/decimal"
)

// epsilon keeps RelDiff finite when both values are zero.
var epsilon = decimal.New(1, -9)

// AbsDiff returns |a-b|.
func AbsDiff(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs()
}

// RelDiff returns |a-b| / max(|a|, |b|, ε). It is symmetric in a and b.
func RelDiff(a, b decimal.Decimal) decimal.Decimal {
	denominator := decimal.Max(a.Abs(), b.Abs(), epsilon)
	return AbsDiff(a, b).Div(denominator)
}

// proximityTolerance treats values this close (relatively) as identical.
const proximityTolerance = 1e-5

// Proximity scores how close two magnitudes are, as the ratio of the smaller
// to the larger. Values of opposite sign score 0.
func Proximity(a, b decimal.Decimal) float64 {
	fa, _ := a.Float64()
	fb, _ := b.Float64()

	absA, absB := math.Abs(fa), math.Abs(fb)
	if absA == 0 && absB == 0 {
		return 1.0
	}
	if math.Abs(fa-fb) <= proximityTolerance*math.Max(absA, absB) {
		return 1.0
	}
	if fa*fb < 0 {
		return 0.0
	}
	return math.Min(absA, absB) / math.Max(absA, absB)
}
