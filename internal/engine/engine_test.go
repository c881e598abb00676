package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(name, value string) model.Field {
	return model.Field{Name: name, Value: value}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.IDs = func() string { return "rep-fixed" }
	return cfg
}

func newEngine(t *testing.T, scorer Scorer) *Engine {
	t.Helper()
	e, err := New(scorer, testConfig())
	require.NoError(t, err)
	return e
}

func invoiceDoc() model.Document {
	return model.Document{
		ID:   "inv-1",
		Kind: model.KindInvoice,
		Site: "acme",
		Headers: []model.Field{
			f("currency", "EUR"),
			f("incVatAmount", "120.00"),
			f("orderReference", "4500"),
		},
		Items: []model.Item{
			{Fields: []model.Field{
				f("description", "Widget Type A"),
				f("inventoryNumber", "W-100"),
				f("purchaseReceiptDataQuantity", "12"),
				f("purchaseReceiptDataUnitAmount", "10.00"),
				f("debit", "120.00"),
			}},
		},
	}
}

func purchaseOrderDoc(id string) model.Document {
	return model.Document{
		ID:   id,
		Kind: model.KindPurchaseOrder,
		Site: "acme",
		Headers: []model.Field{
			f("currency", "EUR"),
			f("incVatAmount", "200.00"),
			f("orderNumber", "4500"),
		},
		Items: []model.Item{
			{Fields: []model.Field{
				f("lineNumber", "1"),
				f("description", "widget type a"),
				f("inventoryNumber", "W100"),
				f("quantityToInvoice", "20"),
				f("unitAmount", "10.00"),
			}},
		},
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "negative pair score", modify: func(c *Config) { c.MinPairScore = -0.1 }},
		{name: "pair score above one", modify: func(c *Config) { c.MinPairScore = 1.1 }},
		{name: "no workers", modify: func(c *Config) { c.Workers = 0 }},
		{name: "inverted thresholds", modify: func(c *Config) { c.Report.NoMatchThreshold = 0.9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			_, err := New(nil, cfg)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestEngine_Match_PartialDelivery(t *testing.T) {
	e := newEngine(t, NewMockScorer(0.93))

	rep, err := e.Match(context.Background(), invoiceDoc(), purchaseOrderDoc("po-1"))
	require.NoError(t, err)

	assert.Equal(t, "rep-fixed", rep.ID)
	assert.Equal(t, []string{model.LabelMatched, model.LabelPartialDelivery}, rep.Labels)
	require.Len(t, rep.ItemPairs, 1)

	pair := rep.ItemPairs[0]
	assert.Equal(t, model.MatchTypeMatched, pair.MatchType)
	codes := make([]model.Code, 0, len(pair.Deviations))
	for _, d := range pair.Deviations {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []model.Code{model.CodeAmountsDiffer, model.CodePartialDelivery}, codes)
	assert.Equal(t, model.SeverityInfo, pair.Deviations[1].Severity)

	require.Len(t, rep.Deviations, 1)
	assert.Equal(t, model.CodeAmountsDiffer, rep.Deviations[0].Code)
	assert.Equal(t, model.SeverityHigh, rep.Deviations[0].Severity)

	m, ok := rep.Metric(model.MetricDeviationSeverity)
	require.True(t, ok)
	assert.Equal(t, model.SeverityHigh, m.Value)
}

func TestEngine_Match_Deterministic(t *testing.T) {
	e := newEngine(t, NewMockScorer(0.6))

	first, err := e.Match(context.Background(), invoiceDoc(), purchaseOrderDoc("po-1"))
	require.NoError(t, err)
	second, err := e.Match(context.Background(), invoiceDoc(), purchaseOrderDoc("po-1"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_Match_ScorerFailure(t *testing.T) {
	scorer := NewMockScorer(0.9)
	scorer.Err = errors.New("model offline")
	e := newEngine(t, scorer)

	rep, err := e.Match(context.Background(), invoiceDoc(), purchaseOrderDoc("po-1"))
	require.NoError(t, err)

	assert.Nil(t, rep.Certainty())
	assert.False(t, rep.HasLabel(model.LabelMatched))
	assert.False(t, rep.HasLabel(model.LabelNoMatch))
	assert.True(t, rep.HasLabel(model.LabelPartialDelivery))
}

func TestEngine_Match_OutOfRangeCertainty(t *testing.T) {
	e := newEngine(t, NewMockScorer(1.7))

	rep, err := e.Match(context.Background(), invoiceDoc(), purchaseOrderDoc("po-1"))
	require.NoError(t, err)
	assert.Nil(t, rep.Certainty())
}

func TestEngine_Match_InvalidDocument(t *testing.T) {
	e := newEngine(t, nil)

	bad := purchaseOrderDoc("po-1")
	bad.Kind = "credit-note"

	_, err := e.Match(context.Background(), invoiceDoc(), bad)
	assert.ErrorIs(t, err, common.ErrInvalidDocument)
}

func TestEngine_Match_Canceled(t *testing.T) {
	e := newEngine(t, NewMockScorer(0.5))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Match(ctx, invoiceDoc(), purchaseOrderDoc("po-1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Compare_WithoutScorer(t *testing.T) {
	e := newEngine(t, nil)
	certainty := 0.1

	rep := e.Compare(invoiceDoc(), purchaseOrderDoc("po-1"), &certainty)
	assert.Equal(t, []string{model.LabelNoMatch, model.LabelPartialDelivery}, rep.Labels)
}

func TestEngine_MatchCandidates(t *testing.T) {
	scorer := NewMockScorer(0.3)
	scorer.ByID["po-2"] = 0.95
	scorer.ByID["po-3"] = 0.05
	e := newEngine(t, scorer)

	candidates := []model.Document{purchaseOrderDoc("po-1"), purchaseOrderDoc("po-2"), purchaseOrderDoc("po-3")}

	var mu sync.Mutex
	var seen []int
	reports, err := e.MatchCandidates(context.Background(), invoiceDoc(), candidates, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		seen = append(seen, done)
	})
	require.NoError(t, err)

	require.Len(t, reports, 3)
	order := []string{reports[0].Documents[1].ID, reports[1].Documents[1].ID, reports[2].Documents[1].ID}
	assert.Equal(t, []string{"po-2", "po-1", "po-3"}, order)
	assert.True(t, reports[0].HasLabel(model.LabelMatched))
	assert.True(t, reports[2].HasLabel(model.LabelNoMatch))

	for _, rep := range reports {
		m, ok := rep.Metric(model.MetricCandidateDocuments)
		require.True(t, ok)
		assert.Equal(t, 3, m.Value)
	}
	assert.ElementsMatch(t, []int{1, 2, 3}, seen)
	assert.Len(t, scorer.Calls(), 3)
}

func TestEngine_MatchCandidates_Empty(t *testing.T) {
	e := newEngine(t, NewMockScorer(0.5))

	reports, err := e.MatchCandidates(context.Background(), invoiceDoc(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestEngine_MatchCandidates_InvalidCandidate(t *testing.T) {
	e := newEngine(t, NewMockScorer(0.5))

	_, err := e.MatchCandidates(context.Background(), invoiceDoc(), []model.Document{{ID: "", Kind: model.KindPurchaseOrder}}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidDocument)
}
