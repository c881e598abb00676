// Package deviation holds the catalog of deviation rules.
//
// Every rule compares the values of two documents and returns nil when there
// is nothing to report. Field names and values on an emitted deviation are
// positional: index 0 belongs to document A, index 1 to document B.
package deviation

import (
	"fmt"
	"strings"

	"github.com/Veraticus/docmatch/internal/extract"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/Veraticus/docmatch/internal/similarity"
	"github.com/shopspring/decimal"
)

// Side identifies one of the two compared documents.
type Side int

// Sides of a match.
const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideA {
		return "A"
	}
	return "B"
}

func percent(rel decimal.Decimal) string {
	return rel.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func numeric(code model.Code, severity model.Severity, message string, a, b extract.Number) *model.Deviation {
	d := model.NewDeviation(code, severity, message, a.Field, b.Field, a.Display(), b.Display())
	return &d
}

// HeaderAmounts compares document totals. A deviation is emitted whenever
// both totals are present, with no-severity when they agree within tolerance.
func HeaderAmounts(a, b extract.Number) *model.Deviation {
	if !a.OK || !b.OK {
		return nil
	}
	abs := similarity.AbsDiff(a.Value, b.Value)
	rel := similarity.RelDiff(a.Value, b.Value)
	severity := classify(abs, rel, headerAmountNone, headerAmountLow, headerAmountMedium)

	msg := fmt.Sprintf("Total amounts differ: %s vs %s (diff %s, %s)",
		a.Display(), b.Display(), abs.String(), percent(rel))
	return numeric(model.CodeAmountsDiffer, severity, msg, a, b)
}

// ItemAmounts compares line amounts of a matched item pair.
func ItemAmounts(a, b extract.Number) *model.Deviation {
	if !a.OK || !b.OK {
		return nil
	}
	abs := similarity.AbsDiff(a.Value, b.Value)
	rel := similarity.RelDiff(a.Value, b.Value)
	severity := classify(abs, rel, itemAmountNone, itemAmountLow, itemAmountMedium)

	msg := fmt.Sprintf("Line amounts differ: %s vs %s (diff %s, %s)",
		a.Display(), b.Display(), abs.String(), percent(rel))
	return numeric(model.CodeAmountsDiffer, severity, msg, a, b)
}

// Quantities compares item quantities. ordered names the side holding the
// ordered quantity; the other side holds the received or invoiced quantity.
// An excess yields QUANTITIES_DIFFER, a shortfall PARTIAL_DELIVERY.
func Quantities(a, b extract.Number, ordered Side) *model.Deviation {
	if !a.OK || !b.OK || a.Value.Equal(b.Value) {
		return nil
	}

	received, expected := a, b
	if ordered == SideA {
		received, expected = b, a
	}

	abs := similarity.AbsDiff(a.Value, b.Value)
	if received.Value.LessThan(expected.Value) {
		msg := fmt.Sprintf("Partial delivery: %s of %s ordered (%s outstanding)",
			received.Display(), expected.Display(), abs.String())
		return numeric(model.CodePartialDelivery, model.SeverityInfo, msg, a, b)
	}

	rel := similarity.RelDiff(a.Value, b.Value)
	severity := model.SeverityHigh
	switch {
	case quantityLow.contains(abs, rel):
		severity = model.SeverityLow
	case quantityMedium.contains(abs, rel):
		severity = model.SeverityMedium
	}
	msg := fmt.Sprintf("Quantity %s exceeds ordered quantity %s by %s (%s)",
		received.Display(), expected.Display(), abs.String(), percent(rel))
	return numeric(model.CodeQuantitiesDiffer, severity, msg, a, b)
}

// UnitPrices compares prices per unit. Equal prices produce no deviation;
// prices within rounding tolerance produce a no-severity deviation.
func UnitPrices(a, b extract.Number) *model.Deviation {
	if !a.OK || !b.OK || a.Value.Equal(b.Value) {
		return nil
	}
	abs := similarity.AbsDiff(a.Value, b.Value)
	rel := similarity.RelDiff(a.Value, b.Value)
	severity := classify(abs, rel, unitPriceNone, unitPriceLow, unitPriceMedium)

	msg := fmt.Sprintf("Prices per unit differ: %s vs %s (diff %s, %s)",
		a.Display(), b.Display(), abs.String(), percent(rel))
	return numeric(model.CodePricesPerUnitDiffer, severity, msg, a, b)
}

// ArticleNumbers compares article numbers after normalization. descriptionSimilarity
// is the similarity of the paired descriptions; similar descriptions lower the severity.
func ArticleNumbers(a, b extract.Text, descriptionSimilarity float64) *model.Deviation {
	if !a.Present() || !b.Present() {
		return nil
	}
	if similarity.NormalizeArticle(a.Value) == similarity.NormalizeArticle(b.Value) {
		return nil
	}

	severity := model.SeverityMedium
	if descriptionSimilarity >= ArticleDescriptionSimilarity {
		severity = model.SeverityLow
	}
	msg := fmt.Sprintf("Article numbers differ: %q vs %q", a.Value, b.Value)
	d := model.NewDeviation(model.CodeArticleNumbersDiffer, severity, msg, a.Field, b.Field, a.Value, b.Value)
	return &d
}

// Descriptions compares item descriptions. Casing or whitespace differences
// and similarities of at least DescriptionNoDeviation produce no deviation.
func Descriptions(a, b extract.Text, cmp similarity.Comparer) *model.Deviation {
	if !a.Present() && !b.Present() {
		return nil
	}

	var severity model.Severity
	var sim float64
	if a.Present() != b.Present() {
		severity = model.SeverityHigh
	} else {
		if similarity.CasingOrWhitespaceOnly(a.Value, b.Value) {
			return nil
		}
		sim = cmp.Text(a.Value, b.Value)
		severity = DescriptionSeverity(sim)
		if severity == model.SeverityNone {
			return nil
		}
	}

	msg := fmt.Sprintf("Descriptions differ: %q vs %q (similarity %.2f)", a.Value, b.Value, sim)
	d := model.NewDeviation(model.CodeDescriptionsDiffer, severity, msg, a.Field, b.Field, a.Value, b.Value)
	return &d
}

// DescriptionSeverity maps a description similarity to a severity.
// SeverityNone means no deviation is reported.
func DescriptionSeverity(sim float64) model.Severity {
	switch {
	case sim >= DescriptionNoDeviation:
		return model.SeverityNone
	case sim >= DescriptionLow:
		return model.SeverityLow
	case sim >= DescriptionMedium:
		return model.SeverityMedium
	default:
		return model.SeverityHigh
	}
}

// Currencies compares currency codes, ignoring case and surrounding spaces.
func Currencies(a, b extract.Text) *model.Deviation {
	if !a.Present() || !b.Present() {
		return nil
	}
	ca, cb := strings.TrimSpace(a.Value), strings.TrimSpace(b.Value)
	if strings.EqualFold(ca, cb) {
		return nil
	}

	msg := fmt.Sprintf("Currencies differ: %s vs %s", ca, cb)
	d := model.NewDeviation(model.CodeCurrenciesDiffer, model.SeverityHigh, msg, a.Field, b.Field, a.Value, b.Value)
	return &d
}

// ItemUnmatched reports an item without counterpart. The severity follows its
// line amount; an item without a known amount is medium.
func ItemUnmatched(item extract.Item, side Side) model.Deviation {
	amount := item.LineAmount()

	severity := model.SeverityMedium
	if amount.OK {
		abs := amount.Value.Abs()
		switch {
		case abs.LessThanOrEqual(unmatchedNone):
			severity = model.SeverityNone
		case abs.LessThanOrEqual(unmatchedLow):
			severity = model.SeverityLow
		case abs.LessThanOrEqual(unmatchedMedium):
			severity = model.SeverityMedium
		default:
			severity = model.SeverityHigh
		}
	}

	shown := amount.Display()
	if shown == "" {
		shown = "unknown"
	}
	msg := fmt.Sprintf("Item %d of document %s (%s) has no counterpart, line amount %s",
		item.Index+1, side, item.Kind, shown)

	fieldNames := [model.DocumentCount]string{}
	values := [model.DocumentCount]string{}
	fieldNames[side] = amount.Field
	values[side] = amount.Display()
	return model.NewDeviation(model.CodeItemUnmatched, severity, msg, fieldNames[0], fieldNames[1], values[0], values[1])
}
