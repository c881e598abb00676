package model

import (
	"errors"
	"sort"
)

// MatchType tells whether an item pair has counterparts on both sides.
type MatchType string

// Match types.
const (
	MatchTypeMatched   MatchType = "matched"
	MatchTypeUnmatched MatchType = "unmatched"
)

// ItemPair links an item of the first document to its counterpart in the second.
// A nil index means the item exists in only one document.
type ItemPair struct {
	ItemIndices            [DocumentCount]*int `json:"item_indices"`
	MatchType              MatchType           `json:"match_type"`
	DeviationSeverity      Severity            `json:"deviation_severity"`
	ItemUnchangedCertainty float64             `json:"item_unchanged_certainty"`
	Deviations             []Deviation         `json:"deviations"`
}

var errBothIndicesNil = errors.New("item pair has no item on either side")

// Validate rejects pairs without any item.
func (p ItemPair) Validate() error {
	if p.ItemIndices[0] == nil && p.ItemIndices[1] == nil {
		return errBothIndicesNil
	}
	return nil
}

// Report constants.
const (
	ReportVersion = "v3"
	ReportKind    = "match-report"
)

// Labels attached to a match report.
const (
	LabelMatched         = "matched"
	LabelNoMatch         = "no-match"
	LabelPartialDelivery = "partial-delivery"
)

// Metric names.
const (
	MetricCertainty          = "certainty"
	MetricDeviationSeverity  = "deviation-severity"
	MetricCandidateDocuments = "candidate-documents"
)

// FutureMatchMetric returns the metric name holding the future match certainty for a kind.
func FutureMatchMetric(kind Kind) string {
	return string(kind) + "-has-future-match-certainty"
}

// Metric is a named value in a report. Value may be nil to signal "unavailable".
type Metric struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// MatchReport describes one matched document pair.
type MatchReport struct {
	Version    string                     `json:"version"`
	ID         string                     `json:"id"`
	Kind       string                     `json:"kind"`
	Site       string                     `json:"site"`
	Documents  [DocumentCount]DocumentRef `json:"documents"`
	Labels     []string                   `json:"labels"`
	Metrics    []Metric                   `json:"metrics"`
	Deviations []Deviation                `json:"deviations"`
	ItemPairs  []ItemPair                 `json:"itempairs"`
}

// Metric returns the named metric.
func (r MatchReport) Metric(name string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// HasLabel reports whether the report carries the label.
func (r MatchReport) HasLabel(label string) bool {
	for _, l := range r.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Certainty returns the certainty metric, or nil when it was unavailable.
func (r MatchReport) Certainty() *float64 {
	m, ok := r.Metric(MetricCertainty)
	if !ok {
		return nil
	}
	if v, ok := m.Value.(float64); ok {
		return &v
	}
	return nil
}

// LabelSet builds a sorted label list without duplicates or empty entries.
func LabelSet(labels ...string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// WithCodeStyle returns a copy of the report whose deviation codes use the style.
func (r MatchReport) WithCodeStyle(style CodeStyle) MatchReport {
	if style != CodeStyleLegacy {
		return r
	}

	out := r
	out.Deviations = restyle(r.Deviations, style)
	out.ItemPairs = make([]ItemPair, len(r.ItemPairs))
	for i, p := range r.ItemPairs {
		p.Deviations = restyle(p.Deviations, style)
		out.ItemPairs[i] = p
	}
	return out
}

func restyle(deviations []Deviation, style CodeStyle) []Deviation {
	out := make([]Deviation, len(deviations))
	for i, d := range deviations {
		out[i] = d.WithCodeStyle(style)
	}
	return out
}
