package absa

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spacesedan/aspectflow/internal/models"
)

const similarityThreshold = 0.7

// DeduplicateAspects merges near-duplicate aspects, preferring shorter, more
// general keywords and higher relevance. Candidates are sorted once (best
// relevance first, shorter first on ties) and then compared in a single pass
// against the kept list as it stands. A candidate stops at the first kept
// item it conflicts with, so results depend on that order.
func DeduplicateAspects(aspects []models.Aspect) []models.Aspect {
	if len(aspects) == 0 {
		return nil
	}

	sorted := make([]models.Aspect, len(aspects))
	copy(sorted, aspects)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RelevanceScore != sorted[j].RelevanceScore {
			return sorted[i].RelevanceScore > sorted[j].RelevanceScore
		}
		return utf8.RuneCountInString(sorted[i].Keyword) < utf8.RuneCountInString(sorted[j].Keyword)
	})

	kept := make([]models.Aspect, 0, len(sorted))
	for _, candidate := range sorted {
		keyword := strings.ToLower(candidate.Keyword)
		if containsKeyword(kept, keyword) {
			continue
		}

		duplicate := false
		for i, existing := range kept {
			existingKeyword := strings.ToLower(existing.Keyword)
			candidateLen := utf8.RuneCountInString(keyword)
			existingLen := utf8.RuneCountInString(existingKeyword)

			if strings.Contains(existingKeyword, keyword) || strings.Contains(keyword, existingKeyword) {
				if candidateLen < existingLen {
					kept = append(kept[:i], kept[i+1:]...)
				} else {
					duplicate = true
				}
				break
			}

			if SimilarityRatio(keyword, existingKeyword) > similarityThreshold {
				wins := candidate.RelevanceScore > existing.RelevanceScore ||
					(candidate.RelevanceScore == existing.RelevanceScore && candidateLen < existingLen)
				if wins {
					kept = append(kept[:i], kept[i+1:]...)
				} else {
					duplicate = true
				}
				break
			}

			if sameWordSet(keyword, existingKeyword) {
				duplicate = true
				break
			}
		}

		if !duplicate {
			kept = append(kept, candidate)
		}
	}

	return kept
}

func containsKeyword(aspects []models.Aspect, lowerKeyword string) bool {
	for _, a := range aspects {
		if strings.ToLower(a.Keyword) == lowerKeyword {
			return true
		}
	}
	return false
}

func sameWordSet(a, b string) bool {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) != len(wb) {
		return false
	}
	for w := range wa {
		if _, ok := wb[w]; !ok {
			return false
		}
	}
	return true
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
