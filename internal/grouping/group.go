package grouping

import (
	"sort"

	"github.com/Veraticus/docmatch/internal/extract"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/Veraticus/docmatch/internal/similarity"
)

// LineRef identifies one purchase order line.
type LineRef struct {
	PurchaseOrder string `json:"purchase_order"`
	Line          string `json:"line"`
}

// ThreeWayGroup is a three-way cluster. Every input document belongs to
// exactly one group. PurchaseOrders lists every purchase order referenced by
// the group's invoices and deliveries, whether or not it is a member.
type ThreeWayGroup struct {
	Documents      []model.DocumentRef `json:"documents"`
	PurchaseOrders []string            `json:"purchase_orders"`
	SharedLines    []LineRef           `json:"shared_lines"`
}

// Contains reports whether the group holds the document.
func (g ThreeWayGroup) Contains(id string) bool {
	for _, ref := range g.Documents {
		if ref.ID == id {
			return true
		}
	}
	return false
}

// Flatten returns the documents of all groups in group order.
func Flatten(groups []ThreeWayGroup, byID map[string]model.Document) []model.Document {
	var docs []model.Document
	for _, g := range groups {
		for _, ref := range g.Documents {
			if d, ok := byID[ref.ID]; ok {
				docs = append(docs, d)
			}
		}
	}
	return docs
}

// unionFind is a disjoint-set forest over document positions.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}

// normalize drops documents with a duplicate id, keeping the first, and sorts by id.
func normalize(documents []model.Document) []model.Document {
	seen := make(map[string]struct{}, len(documents))
	docs := make([]model.Document, 0, len(documents))
	for _, d := range documents {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		docs = append(docs, d)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

type purchaseOrder struct {
	index  int
	id     string
	number string
	lines  []poLine
}

// Group clusters documents that reference common purchase order lines.
//
// Invoices and delivery receipts sharing a line of the same purchase order are
// merged, transitively. Each referenced purchase order joins the group that
// covers most of its lines. Documents without links form singleton groups.
// The result does not depend on input order.
func Group(documents []model.Document) []ThreeWayGroup {
	docs := normalize(documents)
	extracted := make([]extract.Extracted, len(docs))
	var pos []purchaseOrder
	for i, d := range docs {
		extracted[i] = extract.Extract(d)
		if d.Kind == model.KindPurchaseOrder {
			pos = append(pos, purchaseOrder{
				index:  i,
				id:     d.ID,
				number: similarity.NormalizeArticle(extracted[i].OrderReference().Value),
				lines:  linesOf(extracted[i]),
			})
		}
	}

	uf := newUnionFind(len(docs))
	refs := make([]map[LineRef]struct{}, len(docs))
	byLine := make(map[LineRef][]int)
	for i, d := range docs {
		if d.Kind == model.KindPurchaseOrder {
			continue
		}
		refs[i] = make(map[LineRef]struct{})
		reference := similarity.NormalizeArticle(extracted[i].OrderReference().Value)
		for _, po := range pos {
			if reference != "" && reference != po.number {
				continue
			}
			for key := range referencedLines(extracted[i], po.lines) {
				ref := LineRef{PurchaseOrder: po.id, Line: key}
				refs[i][ref] = struct{}{}
				byLine[ref] = append(byLine[ref], i)
			}
		}
	}
	for _, members := range byLine {
		for _, m := range members[1:] {
			uf.union(members[0], m)
		}
	}

	// Documents are sorted by id, so the first index seen per root is the
	// group's smallest id.
	smallest := make(map[int]int)
	for i := range docs {
		root := uf.find(i)
		if _, ok := smallest[root]; !ok {
			smallest[root] = i
		}
	}

	for _, po := range pos {
		covered := make(map[int]map[string]struct{})
		for i := range docs {
			for ref := range refs[i] {
				if ref.PurchaseOrder != po.id {
					continue
				}
				root := uf.find(i)
				if covered[root] == nil {
					covered[root] = make(map[string]struct{})
				}
				covered[root][ref.Line] = struct{}{}
			}
		}

		best := -1
		for root, lines := range covered {
			if best == -1 ||
				len(lines) > len(covered[best]) ||
				(len(lines) == len(covered[best]) && smallest[root] < smallest[best]) {
				best = root
			}
		}
		if best != -1 {
			uf.union(best, po.index)
		}
	}

	return collect(docs, uf, refs, byLine)
}

func collect(docs []model.Document, uf *unionFind, refs []map[LineRef]struct{}, byLine map[LineRef][]int) []ThreeWayGroup {
	order := make([]int, 0)
	members := make(map[int][]int)
	for i := range docs {
		root := uf.find(i)
		if _, ok := members[root]; !ok {
			order = append(order, root)
		}
		members[root] = append(members[root], i)
	}

	groups := make([]ThreeWayGroup, 0, len(order))
	for _, root := range order {
		g := ThreeWayGroup{
			Documents:      make([]model.DocumentRef, 0, len(members[root])),
			PurchaseOrders: []string{},
			SharedLines:    []LineRef{},
		}
		anchors := make(map[string]struct{})
		lines := make(map[LineRef]struct{})
		for _, i := range members[root] {
			g.Documents = append(g.Documents, docs[i].Ref())
			for ref := range refs[i] {
				anchors[ref.PurchaseOrder] = struct{}{}
				if len(byLine[ref]) > 1 {
					lines[ref] = struct{}{}
				}
			}
		}

		for id := range anchors {
			g.PurchaseOrders = append(g.PurchaseOrders, id)
		}
		sort.Strings(g.PurchaseOrders)

		for ref := range lines {
			g.SharedLines = append(g.SharedLines, ref)
		}
		sort.Slice(g.SharedLines, func(i, j int) bool {
			a, b := g.SharedLines[i], g.SharedLines[j]
			if a.PurchaseOrder != b.PurchaseOrder {
				return a.PurchaseOrder < b.PurchaseOrder
			}
			return lessKey(a.Line, b.Line)
		})

		groups = append(groups, g)
	}
	return groups
}
