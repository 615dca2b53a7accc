package absa

import (
	"strings"
	"unicode/utf8"

	"github.com/spacesedan/aspectflow/internal/models"
)

const (
	minAspectChars = 4
	maxAspectChars = 35

	shortMaxNonAspectRatio = 0.6
	maxNonAspectRatio      = 0.5
)

type rewrite struct {
	match string
	to    string
}

// canonicalRewrites collapse known compounds. Order matters: the first match
// replaces the whole phrase.
var canonicalRewrites = []rewrite{
	{"amoled display", "display"},
	{"battery life", "battery"},
	{"fitness tracking", "fitness"},
	{"notification syncing", "notifications"},
	{"build quality", "build"},
}

// IsValidAspect decides whether a generator candidate names a product aspect.
// Short reviews get looser rules so the little signal they carry survives.
func (l *Lexicon) IsValidAspect(phrase string, category models.LengthCategory) bool {
	lower := strings.TrimSpace(strings.ToLower(phrase))
	words := strings.Fields(lower)

	if n := utf8.RuneCountInString(lower); n < minAspectChars || n > maxAspectChars {
		return false
	}

	short := category == models.LengthShort
	anchored := l.ContainsCoreTerm(lower)
	if !anchored {
		if !short {
			return false
		}
		if l.countNonAspect(words) == len(words) {
			return false
		}
	}

	if len(words) == 1 {
		if short {
			return !l.IsNonAspect(words[0])
		}
		return l.IsCoreTerm(words[0])
	}

	nonAspect := l.countNonAspect(words)
	if nonAspect == len(words) {
		return false
	}

	maxRatio := maxNonAspectRatio
	if short {
		maxRatio = shortMaxNonAspectRatio
	}
	if float64(nonAspect)/float64(len(words)) > maxRatio {
		return false
	}

	if !short && (l.IsNonAspect(words[0]) || l.IsNonAspect(words[len(words)-1])) {
		return false
	}

	return true
}

// CleanAspect strips non-aspect words from both edges until none remain there,
// then collapses known compounds to their canonical short form.
func (l *Lexicon) CleanAspect(phrase string) string {
	words := strings.Fields(phrase)
	for len(words) > 0 && l.IsNonAspect(words[0]) {
		words = words[1:]
	}
	for len(words) > 0 && l.IsNonAspect(words[len(words)-1]) {
		words = words[:len(words)-1]
	}

	cleaned := strings.Join(words, " ")
	lower := strings.ToLower(cleaned)
	for _, r := range canonicalRewrites {
		if strings.Contains(lower, r.match) {
			return r.to
		}
	}
	return cleaned
}

// FilterCandidates validates and cleans raw candidates in generator order.
// Candidates that clean down to fewer than four characters are dropped.
func (l *Lexicon) FilterCandidates(candidates []models.Candidate, category models.LengthCategory) []models.Aspect {
	aspects := make([]models.Aspect, 0, len(candidates))
	for _, c := range candidates {
		if !l.IsValidAspect(c.Phrase, category) {
			continue
		}
		cleaned := l.CleanAspect(c.Phrase)
		if utf8.RuneCountInString(cleaned) < minAspectChars {
			continue
		}
		aspects = append(aspects, models.Aspect{
			Keyword:        cleaned,
			RelevanceScore: round(c.Score, 3),
		})
	}
	return aspects
}

func (l *Lexicon) countNonAspect(words []string) int {
	n := 0
	for _, w := range words {
		if l.IsNonAspect(w) {
			n++
		}
	}
	return n
}
