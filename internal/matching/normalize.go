package matching

import (
	"strings"
	"unicode"
)

// sizeSynonyms maps size descriptors to a canonical form so "mini pouch"
// and "small pouch" compare as equal.
var sizeSynonyms = map[string]string{
	"small":     "small",
	"mini":      "small",
	"tiny":      "small",
	"compact":   "small",
	"little":    "small",
	"large":     "large",
	"big":       "large",
	"huge":      "large",
	"oversized": "large",
	"giant":     "large",
	"medium":    "medium",
	"med":       "medium",
	"regular":   "medium",
	"standard":  "medium",
}

// NormalizeText lowercases, strips punctuation, collapses runs of
// whitespace, and canonicalizes size synonyms. The result is stable under
// repeated application.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			// Punctuation separates words rather than joining them.
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		if canonical, ok := sizeSynonyms[w]; ok {
			words[i] = canonical
		}
	}
	return strings.Join(words, " ")
}

// NormalizeWords returns the normalized form of s split into words.
func NormalizeWords(s string) []string {
	n := NormalizeText(s)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// CanonicalSize maps a size descriptor to its canonical form, or returns
// the normalized input unchanged when no synonym applies.
func CanonicalSize(s string) string {
	n := NormalizeText(s)
	if canonical, ok := sizeSynonyms[n]; ok {
		return canonical
	}
	return n
}
