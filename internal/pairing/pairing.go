// Package pairing aligns the line items of two documents.
//
// Every (i, j) combination gets a composite score built from article number
// equality, description similarity and numeric proximity. Pairs are then
// selected greedily, highest score first, until no remaining combination
// reaches the minimum score. Items left over are reported unmatched.
package pairing

import (
	"math"
	"sort"

	"github.com/Veraticus/docmatch/internal/extract"
	"github.com/Veraticus/docmatch/internal/similarity"
)

// Signal weights of the composite score.
const (
	WeightArticle     = 0.45
	WeightDescription = 0.35
	WeightProximity   = 0.20
)

// DefaultMinScore is the lowest composite score accepted as a match.
const DefaultMinScore = 0.5

// Options control pairing.
type Options struct {
	Comparer similarity.Comparer
	MinScore float64
}

// DefaultOptions returns the default pairing options.
func DefaultOptions() Options {
	return Options{MinScore: DefaultMinScore}
}

// Signals are the individual similarity signals of one candidate pair.
// A Has* flag is false when the signal could not be computed.
type Signals struct {
	Description    float64
	Proximity      float64
	ArticleMatch   bool
	HasArticle     bool
	HasDescription bool
	HasProximity   bool
}

// Score combines the available signals into a weighted mean.
// No available signal scores 0.
func (s Signals) Score() float64 {
	var sum, weight float64
	if s.HasArticle {
		weight += WeightArticle
		if s.ArticleMatch {
			sum += WeightArticle
		}
	}
	if s.HasDescription {
		weight += WeightDescription
		sum += WeightDescription * s.Description
	}
	if s.HasProximity {
		weight += WeightProximity
		sum += WeightProximity * s.Proximity
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

// Pair is one row of the pairing result. Exactly one index is nil for
// unmatched items.
type Pair struct {
	IndexA  *int
	IndexB  *int
	Signals Signals
	Score   float64
}

// Matched reports whether the pair has items on both sides.
func (p Pair) Matched() bool {
	return p.IndexA != nil && p.IndexB != nil
}

// Compare computes the signals for two items.
func Compare(a, b extract.Item, cmp similarity.Comparer) Signals {
	var s Signals

	artA, artB := a.ArticleNumber(), b.ArticleNumber()
	if artA.Present() && artB.Present() {
		s.HasArticle = true
		s.ArticleMatch = similarity.SameArticle(artA.Value, artB.Value)
	}

	descA, descB := a.Description(), b.Description()
	if descA.Present() || descB.Present() {
		s.HasDescription = true
		s.Description = cmp.Text(descA.Value, descB.Value)
	}

	for _, pick := range []func(extract.Item) extract.Number{
		extract.Item.UnitPrice,
		extract.Item.LineAmount,
		extract.Item.Quantity,
	} {
		na, nb := pick(a), pick(b)
		if na.OK && nb.OK {
			s.HasProximity = true
			s.Proximity = similarity.Proximity(na.Value, nb.Value)
			break
		}
	}

	return s
}

type candidate struct {
	signals Signals
	score   float64
	i, j    int
}

// less orders candidates best first: score, exact article match,
// description similarity, positional proximity, then indices.
func (c candidate) less(o candidate) bool {
	if c.score != o.score {
		return c.score > o.score
	}
	if c.signals.ArticleMatch != o.signals.ArticleMatch {
		return c.signals.ArticleMatch
	}
	if c.signals.Description != o.signals.Description {
		return c.signals.Description > o.signals.Description
	}
	if dc, do := distance(c.i, c.j), distance(o.i, o.j); dc != do {
		return dc < do
	}
	if c.i != o.i {
		return c.i < o.i
	}
	return c.j < o.j
}

func distance(i, j int) int {
	return int(math.Abs(float64(i - j)))
}

// PairItems aligns items of document A with items of document B.
//
// The result holds, for every item of A in order, its match or an unmatched
// row, followed by the unmatched items of B in order. Every index of a and b
// appears in exactly one pair.
func PairItems(a, b []extract.Item, opts Options) []Pair {
	candidates := make([]candidate, 0, len(a)*len(b))
	for i := range a {
		for j := range b {
			signals := Compare(a[i], b[j], opts.Comparer)
			score := signals.Score()
			if score <= 0 || score < opts.MinScore {
				continue
			}
			candidates = append(candidates, candidate{i: i, j: j, signals: signals, score: score})
		}
	}
	sort.Slice(candidates, func(x, y int) bool {
		return candidates[x].less(candidates[y])
	})

	matchA := make([]*candidate, len(a))
	usedB := make([]bool, len(b))
	for k := range candidates {
		c := &candidates[k]
		if matchA[c.i] != nil || usedB[c.j] {
			continue
		}
		matchA[c.i] = c
		usedB[c.j] = true
	}

	pairs := make([]Pair, 0, max(len(a), len(b)))
	for i := range a {
		if c := matchA[i]; c != nil {
			pairs = append(pairs, Pair{
				IndexA:  index(c.i),
				IndexB:  index(c.j),
				Signals: c.signals,
				Score:   c.score,
			})
			continue
		}
		pairs = append(pairs, Pair{IndexA: index(i)})
	}
	for j := range b {
		if !usedB[j] {
			pairs = append(pairs, Pair{IndexB: index(j)})
		}
	}
	return pairs
}

func index(i int) *int {
	return &i
}
