package similarity

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Weights of the two text signals. They sum to 1.
const (
	TokenWeight  = 0.5
	BigramWeight = 0.5
)

// DefaultLanguage is the stemming language used by Text.
const DefaultLanguage = "english"

var folder = cases.Fold()

// NormalizeText applies NFKC, Unicode case folding and whitespace collapsing.
func NormalizeText(s string) string {
	folded := folder.String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(folded), " ")
}

// CompactText is NormalizeText without any whitespace. Two strings with equal
// compact forms differ only in casing or whitespace.
func CompactText(s string) string {
	return strings.ReplaceAll(NormalizeText(s), " ", "")
}

// CasingOrWhitespaceOnly reports whether a and b differ at most in casing or whitespace.
func CasingOrWhitespaceOnly(a, b string) bool {
	return CompactText(a) == CompactText(b)
}

// Comparer scores text similarity. The zero value stems in DefaultLanguage.
type Comparer struct {
	Language string
}

// Text scores a and b with the default comparer.
func Text(a, b string) float64 {
	return Comparer{}.Text(a, b)
}

// Text returns a similarity in [0,1]. Texts equal after normalization score 1,
// texts without shared tokens or character pairs score 0.
func (c Comparer) Text(a, b string) float64 {
	ca, cb := CompactText(a), CompactText(b)
	switch {
	case ca == "" && cb == "":
		return 1.0
	case ca == "" || cb == "":
		return 0.0
	case ca == cb:
		return 1.0
	}

	tokens := jaccard(c.stems(a), c.stems(b))
	bigrams := dice(bigramCounts(ca), bigramCounts(cb))
	return TokenWeight*tokens + BigramWeight*bigrams
}

func (c Comparer) language() string {
	if c.Language == "" {
		return DefaultLanguage
	}
	return c.Language
}

// stems splits normalized text on anything that is not a letter or digit and
// stems every token.
func (c Comparer) stems(s string) map[string]struct{} {
	words := strings.FieldsFunc(NormalizeText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := make(map[string]struct{}, len(words))
	lang := c.language()
	for _, w := range words {
		stemmed, err := snowball.Stem(w, lang, false)
		if err != nil || stemmed == "" {
			stemmed = w
		}
		out[stemmed] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func bigramCounts(s string) map[string]int {
	runes := []rune(s)
	grams := make(map[string]int)
	if len(runes) < 2 {
		if len(runes) == 1 {
			grams[string(runes)] = 1
		}
		return grams
	}
	for i := 0; i < len(runes)-1; i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

// dice is the Sørensen–Dice coefficient over bigram multisets.
func dice(a, b map[string]int) float64 {
	total := 0
	for _, n := range a {
		total += n
	}
	for _, n := range b {
		total += n
	}
	if total == 0 {
		return 0.0
	}

	shared := 0
	for gram, n := range a {
		if m, ok := b[gram]; ok {
			shared += min(n, m)
		}
	}
	return 2 * float64(shared) / float64(total)
}
