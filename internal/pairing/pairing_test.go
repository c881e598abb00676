package pairing

import (
	"testing"

	"github.com/Veraticus/docmatch/internal/extract"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(kind model.Kind, index int, kv ...string) extract.Item {
	fields := extract.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return extract.Item{Index: index, Kind: kind, Fields: fields}
}

func items(kind model.Kind, rows ...[]string) []extract.Item {
	out := make([]extract.Item, len(rows))
	for i, kv := range rows {
		out[i] = item(kind, i, kv...)
	}
	return out
}

type indexPair struct {
	a, b int // -1 for nil
}

func indices(pairs []Pair) []indexPair {
	out := make([]indexPair, len(pairs))
	for k, p := range pairs {
		out[k] = indexPair{a: -1, b: -1}
		if p.IndexA != nil {
			out[k].a = *p.IndexA
		}
		if p.IndexB != nil {
			out[k].b = *p.IndexB
		}
	}
	return out
}

func TestSignals_Score(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    float64
	}{
		{name: "nothing available", signals: Signals{}, want: 0},
		{name: "article match only", signals: Signals{HasArticle: true, ArticleMatch: true}, want: 1},
		{name: "article mismatch only", signals: Signals{HasArticle: true}, want: 0},
		{
			name:    "description and proximity",
			signals: Signals{HasDescription: true, Description: 1, HasProximity: true, Proximity: 0.5},
			want:    (WeightDescription + WeightProximity*0.5) / (WeightDescription + WeightProximity),
		},
		{
			name: "all signals",
			signals: Signals{
				HasArticle: true, ArticleMatch: true,
				HasDescription: true, Description: 0.5,
				HasProximity: true, Proximity: 1,
			},
			want: WeightArticle + WeightDescription*0.5 + WeightProximity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.signals.Score(), 1e-9)
		})
	}
}

func TestPairItems(t *testing.T) {
	tests := []struct {
		name string
		a    []extract.Item
		b    []extract.Item
		want []indexPair
	}{
		{
			name: "both empty",
			want: []indexPair{},
		},
		{
			name: "left empty",
			b:    items(model.KindPurchaseOrder, []string{"description", "Bolt"}, []string{"description", "Nut"}),
			want: []indexPair{{-1, 0}, {-1, 1}},
		},
		{
			name: "right empty",
			a:    items(model.KindInvoice, []string{"description", "Bolt"}),
			want: []indexPair{{0, -1}},
		},
		{
			name: "reordered lines pair by article number",
			a: items(model.KindInvoice,
				[]string{"inventoryNumber", "A-1", "description", "Steel bolt"},
				[]string{"inventoryNumber", "B-2", "description", "Copper nut"},
			),
			b: items(model.KindPurchaseOrder,
				[]string{"inventoryNumber", "00B2", "description", "Copper nut"},
				[]string{"inventoryNumber", "a 1", "description", "Steel bolt"},
			),
			want: []indexPair{{0, 1}, {1, 0}},
		},
		{
			name: "unrelated items stay unmatched",
			a:    items(model.KindInvoice, []string{"description", "Steel bolt"}),
			b:    items(model.KindPurchaseOrder, []string{"description", "Office chair"}),
			want: []indexPair{{0, -1}, {-1, 0}},
		},
		{
			name: "extra item on the right",
			a: items(model.KindInvoice,
				[]string{"description", "Steel bolt", "unitAmount", "2"},
			),
			b: items(model.KindPurchaseOrder,
				[]string{"description", "Office chair", "unitAmount", "150"},
				[]string{"description", "Steel bolt", "unitAmount", "2"},
			),
			want: []indexPair{{0, 1}, {-1, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PairItems(tt.a, tt.b, DefaultOptions())
			require.NotNil(t, got)
			assert.Equal(t, tt.want, indices(got))
		})
	}
}

func TestPairItems_TieBreak(t *testing.T) {
	t.Run("identical candidates prefer the nearest position", func(t *testing.T) {
		a := items(model.KindInvoice,
			[]string{"description", "Cable"},
			[]string{"description", "Cable"},
		)
		b := items(model.KindDeliveryReceipt,
			[]string{"description", "Cable"},
			[]string{"description", "Cable"},
		)

		got := PairItems(a, b, DefaultOptions())
		assert.Equal(t, []indexPair{{0, 0}, {1, 1}}, indices(got))
	})

	t.Run("article match wins an equal score", func(t *testing.T) {
		// Both candidates score 1.0 for a[0]; only b[1] carries an article number.
		a := items(model.KindInvoice,
			[]string{"inventoryNumber", "X-9", "description", "Cable"},
		)
		b := items(model.KindPurchaseOrder,
			[]string{"description", "Cable"},
			[]string{"inventoryNumber", "X9", "description", "cable"},
		)

		got := PairItems(a, b, DefaultOptions())
		assert.Equal(t, []indexPair{{0, 1}, {-1, 0}}, indices(got))
	})
}

func TestPairItems_Completeness(t *testing.T) {
	a := items(model.KindInvoice,
		[]string{"description", "Steel bolt M8", "quantity", "100"},
		[]string{"description", "Copper nut", "quantity", "50"},
		[]string{"description", "Washer", "quantity", "10"},
		[]string{"description", "Drill"},
	)
	b := items(model.KindPurchaseOrder,
		[]string{"description", "Washer", "quantity", "10"},
		[]string{"description", "Steel bolt M8", "quantity", "100"},
		[]string{"description", "Copper nut", "quantity", "40"},
	)

	got := PairItems(a, b, DefaultOptions())

	seenA := map[int]int{}
	seenB := map[int]int{}
	for _, p := range got {
		require.False(t, p.IndexA == nil && p.IndexB == nil)
		if p.IndexA != nil {
			seenA[*p.IndexA]++
		}
		if p.IndexB != nil {
			seenB[*p.IndexB]++
		}
		if p.Matched() {
			assert.GreaterOrEqual(t, p.Score, DefaultMinScore)
		} else {
			assert.Zero(t, p.Score)
		}
	}

	assert.Len(t, got, len(a))
	for i := range a {
		assert.Equal(t, 1, seenA[i], "index %d of a", i)
	}
	for j := range b {
		assert.Equal(t, 1, seenB[j], "index %d of b", j)
	}
}

func TestPairItems_MinScore(t *testing.T) {
	a := items(model.KindInvoice, []string{"description", "Widget Type A"})
	b := items(model.KindPurchaseOrder, []string{"description", "Widget Type B"})

	assert.Equal(t, []indexPair{{0, 0}}, indices(PairItems(a, b, Options{MinScore: 0.5})))
	assert.Equal(t, []indexPair{{0, -1}, {-1, 0}}, indices(PairItems(a, b, Options{MinScore: 0.95})))
}
