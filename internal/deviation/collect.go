package deviation

import (
	"github.com/Veraticus/docmatch/internal/extract"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/Veraticus/docmatch/internal/pairing"
	"github.com/Veraticus/docmatch/internal/similarity"
)

func appendNonNil(out []model.Deviation, found ...*model.Deviation) []model.Deviation {
	for _, d := range found {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// CollectHeader runs the document level rules.
func CollectHeader(a, b extract.Extracted) []model.Deviation {
	return appendNonNil(make([]model.Deviation, 0, 2),
		Currencies(a.Currency(), b.Currency()),
		HeaderAmounts(a.TotalAmount(), b.TotalAmount()),
	)
}

// OrderedSide returns the side holding ordered quantities: the purchase order
// when exactly one side is one, otherwise B.
func OrderedSide(a, b model.Kind) Side {
	if a == model.KindPurchaseOrder && b != model.KindPurchaseOrder {
		return SideA
	}
	return SideB
}

// CollectItem runs the item level rules on a matched pair.
func CollectItem(a, b extract.Item, cmp similarity.Comparer) []model.Deviation {
	descA, descB := a.Description(), b.Description()
	descSim := cmp.Text(descA.Value, descB.Value)

	return appendNonNil(make([]model.Deviation, 0, 5),
		ItemAmounts(a.LineAmount(), b.LineAmount()),
		Quantities(a.Quantity(), b.Quantity(), OrderedSide(a.Kind, b.Kind)),
		UnitPrices(a.UnitPrice(), b.UnitPrice()),
		ArticleNumbers(a.ArticleNumber(), b.ArticleNumber(), descSim),
		Descriptions(descA, descB, cmp),
	)
}

// ItemPairs turns pairing output into report item pairs, running the item
// rules on matched pairs and ITEM_UNMATCHED on the rest.
func ItemPairs(a, b extract.Extracted, pairs []pairing.Pair, cmp similarity.Comparer) []model.ItemPair {
	out := make([]model.ItemPair, 0, len(pairs))
	for _, p := range pairs {
		ip := model.ItemPair{
			ItemIndices: [model.DocumentCount]*int{p.IndexA, p.IndexB},
		}

		switch {
		case p.Matched():
			ip.MatchType = model.MatchTypeMatched
			ip.ItemUnchangedCertainty = p.Score
			ip.Deviations = CollectItem(a.Items[*p.IndexA], b.Items[*p.IndexB], cmp)
		case p.IndexA != nil:
			ip.MatchType = model.MatchTypeUnmatched
			ip.Deviations = []model.Deviation{ItemUnmatched(a.Items[*p.IndexA], SideA)}
		case p.IndexB != nil:
			ip.MatchType = model.MatchTypeUnmatched
			ip.Deviations = []model.Deviation{ItemUnmatched(b.Items[*p.IndexB], SideB)}
		default:
			continue
		}

		ip.DeviationSeverity = model.HighestSeverity(ip.Deviations)
		out = append(out, ip)
	}
	return out
}
