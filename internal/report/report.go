// Package report assembles match reports from pairing output, deviations and
// an externally supplied certainty.
package report

import (
	"fmt"

	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/google/uuid"
)

// Default certainty thresholds.
const (
	DefaultMatchThreshold   = 0.5
	DefaultNoMatchThreshold = 0.2
)

// Config holds the labeling thresholds.
//
// A certainty at or above MatchThreshold is labeled matched, one below
// NoMatchThreshold no-match. Certainties in between receive AmbiguousLabel,
// which is empty (no label) by default.
type Config struct {
	AmbiguousLabel   string
	CodeStyle        model.CodeStyle
	MatchThreshold   float64
	NoMatchThreshold float64
}

// DefaultConfig returns the default labeling configuration.
func DefaultConfig() Config {
	return Config{
		MatchThreshold:   DefaultMatchThreshold,
		NoMatchThreshold: DefaultNoMatchThreshold,
		CodeStyle:        model.CodeStyleCanonical,
	}
}

// Validate checks the thresholds are inside [0,1] and ordered.
func (c Config) Validate() error {
	if c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("%w: match threshold %v outside [0,1]", common.ErrInvalidConfig, c.MatchThreshold)
	}
	if c.NoMatchThreshold < 0 || c.NoMatchThreshold > 1 {
		return fmt.Errorf("%w: no-match threshold %v outside [0,1]", common.ErrInvalidConfig, c.NoMatchThreshold)
	}
	if c.NoMatchThreshold > c.MatchThreshold {
		return fmt.Errorf("%w: no-match threshold %v above match threshold %v",
			common.ErrInvalidConfig, c.NoMatchThreshold, c.MatchThreshold)
	}
	if c.CodeStyle != "" && !c.CodeStyle.Valid() {
		return fmt.Errorf("%w: unknown code style %q", common.ErrInvalidConfig, c.CodeStyle)
	}
	return nil
}

// IDGenerator produces report ids.
type IDGenerator func() string

// NewID returns a time-ordered report id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "rep-" + uuid.NewString()
	}
	return "rep-" + id.String()
}

// Assembler builds match reports.
type Assembler struct {
	ids IDGenerator
	cfg Config
}

// NewAssembler validates the configuration. A nil generator uses NewID.
func NewAssembler(cfg Config, ids IDGenerator) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.CodeStyle == "" {
		cfg.CodeStyle = model.CodeStyleCanonical
	}
	if ids == nil {
		ids = NewID
	}
	return &Assembler{cfg: cfg, ids: ids}, nil
}

// Config returns the assembler configuration.
func (a *Assembler) Config() Config {
	return a.cfg
}

// Input is everything a report is built from.
// A nil Certainty means the scorer could not provide one.
type Input struct {
	Certainty        *float64
	FutureMatch      map[model.Kind]float64
	A                model.Document
	B                model.Document
	ItemPairs        []model.ItemPair
	HeaderDeviations []model.Deviation
}

// CertaintyLabel returns the label for a certainty, or "" for none.
func (a *Assembler) CertaintyLabel(certainty *float64) string {
	switch {
	case certainty == nil:
		return ""
	case *certainty >= a.cfg.MatchThreshold:
		return model.LabelMatched
	case *certainty < a.cfg.NoMatchThreshold:
		return model.LabelNoMatch
	default:
		return a.cfg.AmbiguousLabel
	}
}

// Assemble builds the report. It performs no I/O.
func (a *Assembler) Assemble(in Input) model.MatchReport {
	headerDeviations := in.HeaderDeviations
	if headerDeviations == nil {
		headerDeviations = []model.Deviation{}
	}
	itemPairs := in.ItemPairs
	if itemPairs == nil {
		itemPairs = []model.ItemPair{}
	}

	severity := model.HighestSeverity(headerDeviations)
	partial := false
	for _, p := range itemPairs {
		severity = model.MaxSeverity(severity, model.HighestSeverity(p.Deviations))
		if model.HasCode(p.Deviations, model.CodePartialDelivery) {
			partial = true
		}
	}

	certaintyLabel := a.CertaintyLabel(in.Certainty)
	labels := []string{certaintyLabel}
	if partial {
		labels = append(labels, model.LabelPartialDelivery)
	}

	var certainty any
	if in.Certainty != nil {
		certainty = *in.Certainty
	}
	metrics := []model.Metric{
		{Name: model.MetricCertainty, Value: certainty},
		{Name: model.MetricDeviationSeverity, Value: severity},
	}
	matched := certaintyLabel == model.LabelMatched
	for _, doc := range []model.Document{in.A, in.B} {
		name := model.FutureMatchMetric(doc.Kind)
		if hasMetric(metrics, name) {
			continue
		}
		value, ok := in.FutureMatch[doc.Kind]
		if !ok {
			value = FutureMatchCertainty(doc, matched)
		}
		metrics = append(metrics, model.Metric{Name: name, Value: value})
	}

	site := in.A.Site
	if site == "" {
		site = in.B.Site
	}

	report := model.MatchReport{
		Version:    model.ReportVersion,
		ID:         a.ids(),
		Kind:       model.ReportKind,
		Site:       site,
		Documents:  [model.DocumentCount]model.DocumentRef{in.A.Ref(), in.B.Ref()},
		Labels:     model.LabelSet(labels...),
		Metrics:    metrics,
		Deviations: headerDeviations,
		ItemPairs:  itemPairs,
	}
	return report.WithCodeStyle(a.cfg.CodeStyle)
}

func hasMetric(metrics []model.Metric, name string) bool {
	for _, m := range metrics {
		if m.Name == name {
			return true
		}
	}
	return false
}
