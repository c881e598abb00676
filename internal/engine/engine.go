// Package engine runs the matching pipeline for document pairs.
//
// A match extracts both documents, pairs their items, runs the deviation
// rules, asks the scorer for a certainty and assembles the report. The
// pipeline holds no state between calls.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/deviation"
	"github.com/Veraticus/docmatch/internal/extract"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/Veraticus/docmatch/internal/pairing"
	"github.com/Veraticus/docmatch/internal/report"
	"github.com/Veraticus/docmatch/internal/similarity"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration options for the matching engine.
type Config struct {
	IDs          report.IDGenerator
	Language     string
	Report       report.Config
	MinPairScore float64
	Workers      int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Report:       report.DefaultConfig(),
		MinPairScore: pairing.DefaultMinScore,
		Language:     similarity.DefaultLanguage,
		Workers:      4,
	}
}

// Engine orchestrates document matching.
type Engine struct {
	scorer    Scorer
	assembler *report.Assembler
	pairing   pairing.Options
	workers   int
}

// New creates an engine. A nil scorer leaves every certainty unavailable.
func New(scorer Scorer, cfg Config) (*Engine, error) {
	if cfg.MinPairScore < 0 || cfg.MinPairScore > 1 {
		return nil, fmt.Errorf("%w: minimum pair score %v outside [0,1]", common.ErrInvalidConfig, cfg.MinPairScore)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("%w: workers must be positive, got %d", common.ErrInvalidConfig, cfg.Workers)
	}

	assembler, err := report.NewAssembler(cfg.Report, cfg.IDs)
	if err != nil {
		return nil, err
	}

	return &Engine{
		scorer:    scorer,
		assembler: assembler,
		pairing: pairing.Options{
			MinScore: cfg.MinPairScore,
			Comparer: similarity.Comparer{Language: cfg.Language},
		},
		workers: cfg.Workers,
	}, nil
}

// Match compares two documents and returns their report. Scorer failures do
// not fail the match: the report then carries no certainty.
func (e *Engine) Match(ctx context.Context, a, b model.Document) (model.MatchReport, error) {
	if err := validatePair(a, b); err != nil {
		return model.MatchReport{}, err
	}

	certainty, err := e.certainty(ctx, a, b)
	if err != nil {
		return model.MatchReport{}, err
	}
	return e.Compare(a, b, certainty), nil
}

// Compare builds the report for two documents with a known certainty,
// without calling the scorer. A nil certainty marks it unavailable.
func (e *Engine) Compare(a, b model.Document, certainty *float64) model.MatchReport {
	ea, eb := extract.Extract(a), extract.Extract(b)
	cmp := e.pairing.Comparer

	pairs := pairing.PairItems(ea.Items, eb.Items, e.pairing)
	itemPairs := deviation.ItemPairs(ea, eb, pairs, cmp)
	headerDeviations := deviation.CollectHeader(ea, eb)

	rep := e.assembler.Assemble(report.Input{
		A:                a,
		B:                b,
		ItemPairs:        itemPairs,
		HeaderDeviations: headerDeviations,
		Certainty:        certainty,
	})

	slog.Debug("Matched documents",
		"a", a.ID,
		"b", b.ID,
		"itempairs", len(itemPairs),
		"labels", rep.Labels)

	return rep
}

func (e *Engine) certainty(ctx context.Context, a, b model.Document) (*float64, error) {
	if e.scorer == nil {
		return nil, nil
	}

	score, err := e.scorer.Score(ctx, a, b)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("Certainty unavailable",
			"a", a.ID,
			"b", b.ID,
			"error", err)
		return nil, nil
	}
	if score < 0 || score > 1 {
		slog.Warn("Discarding certainty outside [0,1]", "a", a.ID, "b", b.ID, "certainty", score)
		return nil, nil
	}
	return &score, nil
}

// MatchCandidates matches primary against every candidate in parallel. Reports
// are ordered by certainty, highest first; reports without certainty come last.
// Every report carries the candidate-documents metric.
func (e *Engine) MatchCandidates(ctx context.Context, primary model.Document, candidates []model.Document, progress ProgressFunc) ([]model.MatchReport, error) {
	if err := primary.Validate(); err != nil {
		return nil, err
	}

	reports := make([]model.MatchReport, len(candidates))
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, candidate := range candidates {
		g.Go(func() error {
			rep, err := e.Match(gctx, primary, candidate)
			if err != nil {
				return fmt.Errorf("candidate %s: %w", candidate.ID, err)
			}
			reports[i] = rep

			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(candidates))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range reports {
		reports[i].Metrics = append(reports[i].Metrics, model.Metric{
			Name:  model.MetricCandidateDocuments,
			Value: len(candidates),
		})
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return rankCertainty(reports[i]) > rankCertainty(reports[j])
	})

	common.LogInfo("Matched candidates", common.Fields{"primary": primary.ID, "candidates": len(candidates)})
	return reports, nil
}

func rankCertainty(r model.MatchReport) float64 {
	if c := r.Certainty(); c != nil {
		return *c
	}
	return -1
}

func validatePair(a, b model.Document) error {
	return errors.Join(a.Validate(), b.Validate())
}
