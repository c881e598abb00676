package model

import (
	"fmt"
	"sort"
)

// Code is a standardized deviation code.
type Code string

// Canonical deviation codes.
const (
	CodeAmountsDiffer        Code = "AMOUNTS_DIFFER"
	CodeQuantitiesDiffer     Code = "QUANTITIES_DIFFER"
	CodePartialDelivery      Code = "PARTIAL_DELIVERY"
	CodePricesPerUnitDiffer  Code = "PRICES_PER_UNIT_DIFFER"
	CodeArticleNumbersDiffer Code = "ARTICLE_NUMBERS_DIFFER"
	CodeDescriptionsDiffer   Code = "DESCRIPTIONS_DIFFER"
	CodeCurrenciesDiffer     Code = "CURRENCIES_DIFFER"
	CodeItemUnmatched        Code = "ITEM_UNMATCHED"
)

// LegacyCodes maps each canonical code to the kebab-case form used by older consumers.
var LegacyCodes = map[Code]string{
	CodeAmountsDiffer:        "amounts-differ",
	CodeQuantitiesDiffer:     "quantities-differ",
	CodePartialDelivery:      "partial-delivery",
	CodePricesPerUnitDiffer:  "prices-per-unit-differ",
	CodeArticleNumbersDiffer: "article-numbers-differ",
	CodeDescriptionsDiffer:   "descriptions-differ",
	CodeCurrenciesDiffer:     "currencies-differ",
	CodeItemUnmatched:        "item-unmatched",
}

// historicalCodes are names emitted by earlier report versions.
var historicalCodes = map[string]Code{
	"amount-differs":       CodeAmountsDiffer,
	"total-amounts-differ": CodeAmountsDiffer,
	"quantity-differs":     CodeQuantitiesDiffer,
	"unit-amount-differs":  CodePricesPerUnitDiffer,
	"description-differs":  CodeDescriptionsDiffer,
}

// Legacy returns the kebab-case alias of the code, or the code itself when none is defined.
func (c Code) Legacy() string {
	if alias, ok := LegacyCodes[c]; ok {
		return alias
	}
	return string(c)
}

// ParseCode accepts a canonical code, its legacy alias or a historical name.
func ParseCode(name string) (Code, error) {
	if _, ok := LegacyCodes[Code(name)]; ok {
		return Code(name), nil
	}
	for code, alias := range LegacyCodes {
		if alias == name {
			return code, nil
		}
	}
	if code, ok := historicalCodes[name]; ok {
		return code, nil
	}
	return "", fmt.Errorf("unknown deviation code %q", name)
}

// CodeStyle selects how codes are written on the wire.
type CodeStyle string

// Code styles.
const (
	CodeStyleCanonical CodeStyle = "canonical"
	CodeStyleLegacy    CodeStyle = "legacy"
)

// Valid reports whether the style is known.
func (s CodeStyle) Valid() bool {
	return s == CodeStyleCanonical || s == CodeStyleLegacy
}

// DocumentCount is the number of documents compared in a match.
const DocumentCount = 2

// Deviation is a flagged discrepancy between two compared values.
// FieldNames[i] and Values[i] belong to the i-th document of the match.
type Deviation struct {
	Code       Code     `json:"code"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	FieldNames []string `json:"field_names"`
	Values     []string `json:"values"`
}

// NewDeviation builds a deviation whose field names and values are positional per document.
func NewDeviation(code Code, severity Severity, message string, fieldA, fieldB, valueA, valueB string) Deviation {
	return Deviation{
		Code:       code,
		Severity:   severity,
		Message:    message,
		FieldNames: []string{fieldA, fieldB},
		Values:     []string{valueA, valueB},
	}
}

// WithCodeStyle returns a copy of the deviation using the requested code style.
func (d Deviation) WithCodeStyle(style CodeStyle) Deviation {
	if style == CodeStyleLegacy {
		d.Code = Code(d.Code.Legacy())
	}
	return d
}

// HighestSeverity returns the maximum severity among the deviations.
func HighestSeverity(deviations []Deviation) Severity {
	highest := SeverityNone
	for _, d := range deviations {
		highest = MaxSeverity(highest, d.Severity)
	}
	return highest
}

// HasCode reports whether any deviation carries the code.
func HasCode(deviations []Deviation, code Code) bool {
	for _, d := range deviations {
		if d.Code == code {
			return true
		}
	}
	return false
}

// SortedCodes returns the canonical codes in a stable order.
func SortedCodes() []Code {
	codes := make([]Code, 0, len(LegacyCodes))
	for c := range LegacyCodes {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
