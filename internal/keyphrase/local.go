package keyphrase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/models"
)

// LocalGenerator proposes n-gram keyphrases without any model. Phrases never
// cross a sentence or clause boundary and never start or end on a stopword.
// Scores are relative to the best phrase of the same call.
type LocalGenerator struct {
	stopwords map[string]struct{}
}

func NewLocalGenerator() *LocalGenerator {
	stop := make(map[string]struct{}, len(englishStopwords))
	for _, w := range englishStopwords {
		stop[w] = struct{}{}
	}
	return &LocalGenerator{stopwords: stop}
}

type scoredPhrase struct {
	phrase string
	words  []string
	score  float64
}

func (g *LocalGenerator) GenerateCandidates(ctx context.Context, text string, params absa.GenerationParams) ([]models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", absa.ErrGenerationFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, absa.ErrEmptyText
	}

	minN, maxN := max(params.NgramMin, 1), max(params.NgramMax, 1)
	if minN > maxN {
		minN, maxN = maxN, minN
	}

	segments := g.segments(text)

	// word frequency over content words
	freq := make(map[string]int)
	for _, seg := range segments {
		for _, w := range seg {
			if !g.isStopword(w) {
				freq[w]++
			}
		}
	}

	counts := make(map[string]int)
	ngramWords := make(map[string][]string)
	var order []string
	for _, seg := range segments {
		for n := minN; n <= maxN; n++ {
			for i := 0; i+n <= len(seg); i++ {
				gram := seg[i : i+n]
				if !g.usable(gram) {
					continue
				}
				phrase := strings.Join(gram, " ")
				if _, seen := counts[phrase]; !seen {
					order = append(order, phrase)
					ngramWords[phrase] = gram
				}
				counts[phrase]++
			}
		}
	}
	if len(order) == 0 {
		return nil, nil
	}

	pool := make([]scoredPhrase, 0, len(order))
	for _, phrase := range order {
		words := ngramWords[phrase]
		var wordScore float64
		for _, w := range words {
			wordScore += float64(freq[w])
		}
		pool = append(pool, scoredPhrase{
			phrase: phrase,
			words:  words,
			score:  float64(counts[phrase]) * wordScore / float64(len(words)),
		})
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })
	best := pool[0].score
	for i := range pool {
		pool[i].score /= best
	}
	if params.CandidatePoolSize > 0 && len(pool) > params.CandidatePoolSize {
		pool = pool[:params.CandidatePoolSize]
	}

	topN := params.TopN
	if topN <= 0 || topN > len(pool) {
		topN = len(pool)
	}

	var picked []scoredPhrase
	if params.UseMMR {
		picked = mmr(pool, topN, params.Diversity)
	} else {
		picked = pool[:topN]
	}

	candidates := make([]models.Candidate, 0, len(picked))
	for _, p := range picked {
		candidates = append(candidates, models.Candidate{Phrase: p.phrase, Score: p.score})
	}
	return candidates, nil
}

// mmr greedily picks phrases that are relevant but overlap little with the
// ones already picked.
func mmr(pool []scoredPhrase, topN int, diversity float64) []scoredPhrase {
	picked := []scoredPhrase{pool[0]}
	used := map[int]bool{0: true}

	for len(picked) < topN {
		bestIdx, bestVal := -1, 0.0
		for i, cand := range pool {
			if used[i] {
				continue
			}
			var maxSim float64
			for _, p := range picked {
				maxSim = max(maxSim, overlap(cand.words, p.words))
			}
			val := (1-diversity)*cand.score - diversity*maxSim
			if bestIdx < 0 || val > bestVal {
				bestIdx, bestVal = i, val
			}
		}
		if bestIdx < 0 {
			break
		}
		used[bestIdx] = true
		picked = append(picked, pool[bestIdx])
	}
	return picked
}

// overlap is the Jaccard similarity of two word lists.
func overlap(a, b []string) float64 {
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, w := range b {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := set[w]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func (g *LocalGenerator) isStopword(w string) bool {
	_, ok := g.stopwords[w]
	return ok
}

func (g *LocalGenerator) usable(gram []string) bool {
	if g.isStopword(gram[0]) || g.isStopword(gram[len(gram)-1]) {
		return false
	}
	for _, w := range gram {
		if len([]rune(w)) < 2 || isNumber(w) {
			return false
		}
	}
	return true
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// segments lower-cases text and splits it into word runs at punctuation.
func (g *LocalGenerator) segments(text string) [][]string {
	var (
		segs    [][]string
		current []string
		word    strings.Builder
	)
	endWord := func() {
		if w := strings.Trim(word.String(), "'-"); w != "" {
			current = append(current, w)
		}
		word.Reset()
	}
	endSegment := func() {
		endWord()
		if len(current) > 0 {
			segs = append(segs, current)
			current = nil
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			word.WriteRune(r)
		case r == '-' && word.Len() > 0:
			word.WriteRune(r)
		case unicode.IsSpace(r):
			endWord()
		default:
			endSegment()
		}
	}
	endSegment()
	return segs
}
