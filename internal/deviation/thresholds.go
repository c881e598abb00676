package deviation

import (
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/shopspring/decimal"
)

// band is one severity step. A difference falls inside it when the absolute
// and relative differences satisfy the bounds, combined with AND or OR.
type band struct {
	abs       decimal.Decimal
	rel       decimal.Decimal
	either    bool
	relStrict bool
}

func (b band) contains(abs, rel decimal.Decimal) bool {
	absOK := abs.LessThanOrEqual(b.abs)
	relOK := rel.LessThanOrEqual(b.rel)
	if b.relStrict {
		relOK = rel.LessThan(b.rel)
	}
	if b.either {
		return absOK || relOK
	}
	return absOK && relOK
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	// anyRel disables the relative bound of an AND band.
	anyRel = decimal.New(1, 18)
	// noAbs disables the absolute bound of an OR band.
	noAbs = decimal.New(-1, 0)
)

// Header amounts. Anything outside medium is high.
var (
	headerAmountNone   = band{abs: dec("0.01"), rel: dec("0.001")}
	headerAmountLow    = band{abs: dec("1"), rel: dec("0.01")}
	headerAmountMedium = band{abs: dec("50"), rel: dec("0.05")}
)

// Item amounts.
var (
	itemAmountNone   = band{abs: dec("0.01"), rel: anyRel}
	itemAmountLow    = band{abs: dec("1"), rel: dec("0.01"), either: true}
	itemAmountMedium = band{abs: dec("10"), rel: dec("0.10"), either: true}
)

// Quantity excess. An excess of half the larger quantity or more is high.
var (
	quantityLow    = band{abs: dec("1"), rel: dec("0.10")}
	quantityMedium = band{abs: dec("10"), rel: dec("0.50"), either: true, relStrict: true}
)

// Unit prices.
var (
	unitPriceNone   = band{abs: dec("0.005"), rel: dec("0.005"), either: true}
	unitPriceLow    = band{abs: noAbs, rel: dec("0.05"), either: true}
	unitPriceMedium = band{abs: noAbs, rel: dec("0.20"), either: true}
)

// Unmatched item line amounts.
var (
	unmatchedNone   = dec("0.01")
	unmatchedLow    = dec("1")
	unmatchedMedium = dec("10")
)

// Description similarity bands.
const (
	DescriptionNoDeviation = 0.98
	DescriptionLow         = 0.75
	DescriptionMedium      = 0.50
)

// ArticleDescriptionSimilarity is the description similarity at which an
// article number mismatch drops to low severity.
const ArticleDescriptionSimilarity = 0.9

// classify walks the bands in ascending severity and returns high when none
// contains the difference.
func classify(abs, rel decimal.Decimal, none, low, medium band) model.Severity {
	switch {
	case none.contains(abs, rel):
		return model.SeverityNone
	case low.contains(abs, rel):
		return model.SeverityLow
	case medium.contains(abs, rel):
		return model.SeverityMedium
	default:
		return model.SeverityHigh
	}
}
