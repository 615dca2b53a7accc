package absa

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// SimilarityRatio is the longest-matching-blocks ratio of the lower-cased
// strings, compared character by character. Identical strings score 1.
func SimilarityRatio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(splitRunes(a), splitRunes(b))
	return m.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
