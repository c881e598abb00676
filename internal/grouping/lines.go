package grouping

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/docmatch/internal/extract"
	"github.com/Veraticus/docmatch/internal/similarity"
)

// poLine is one purchase order line with the keys items resolve against.
type poLine struct {
	key         string
	article     string
	description string
}

func linesOf(po extract.Extracted) []poLine {
	lines := make([]poLine, len(po.Items))
	for i, item := range po.Items {
		lines[i] = poLine{
			key:         strconv.Itoa(item.Position()),
			article:     similarity.NormalizeArticle(item.ArticleNumber().Value),
			description: similarity.NormalizeText(item.Description().Value),
		}
	}
	return lines
}

// lineKey canonicalizes a line reference so "02" and "2" agree.
func lineKey(ref string) string {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		return strconv.Itoa(n)
	}
	return ref
}

// resolve returns the keys of the PO lines an item refers to. The first
// strategy producing a match wins: explicit line reference, article number,
// description, then the item's own line position.
func resolve(item extract.Item, lines []poLine) []string {
	ref := item.POLineReference()
	if ref.Present() {
		want := lineKey(ref.Value)
		if keys := matching(lines, func(l poLine) bool { return l.key == want }); len(keys) > 0 {
			return keys
		}
	}

	article := similarity.NormalizeArticle(item.ArticleNumber().Value)
	if article != "" {
		if keys := matching(lines, func(l poLine) bool { return l.article == article }); len(keys) > 0 {
			return keys
		}
	}

	description := similarity.NormalizeText(item.Description().Value)
	if description != "" {
		if keys := matching(lines, func(l poLine) bool { return l.description == description }); len(keys) > 0 {
			return keys
		}
	}

	position := strconv.Itoa(item.Position())
	return matching(lines, func(l poLine) bool { return l.key == position })
}

func matching(lines []poLine, ok func(poLine) bool) []string {
	var keys []string
	for _, l := range lines {
		if ok(l) {
			keys = append(keys, l.key)
		}
	}
	return keys
}

// referencedLines returns the set of PO line keys referenced by a document's items.
func referencedLines(doc extract.Extracted, lines []poLine) map[string]struct{} {
	refs := make(map[string]struct{})
	for _, item := range doc.Items {
		for _, key := range resolve(item, lines) {
			refs[key] = struct{}{}
		}
	}
	return refs
}

// lessKey orders line keys numerically when both are numbers.
func lessKey(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

func sortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
}
