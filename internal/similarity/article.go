package similarity

import (
	"strings"
	"unicode"
)

// NormalizeArticle canonicalizes an article or inventory number: separators
// are dropped, letters folded to upper case and leading zeros stripped, so
// "ABC-123", "abc 123" and "00ABC123" all become "ABC123".
func NormalizeArticle(s string) string {
	var b strings.Builder
	for _, r := range NormalizeText(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return strings.TrimLeft(b.String(), "0")
}

// SameArticle reports whether both numbers are present and normalize identically.
func SameArticle(a, b string) bool {
	na, nb := NormalizeArticle(a), NormalizeArticle(b)
	return na != "" && na == nb
}
