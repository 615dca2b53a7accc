package absa

import (
	"strings"

	"github.com/spacesedan/aspectflow/internal/models"
)

const (
	shortReviewWords  = 30
	mediumReviewWords = 100
)

// ClassifyLength buckets text by whitespace-separated word count.
func ClassifyLength(text string) models.LengthCategory {
	words := len(strings.Fields(text))
	switch {
	case words < shortReviewWords:
		return models.LengthShort
	case words < mediumReviewWords:
		return models.LengthMedium
	default:
		return models.LengthLong
	}
}

// GenerationParams is everything a candidate generator is told about a call.
type GenerationParams struct {
	NgramMin          int
	NgramMax          int
	TopN              int
	UseMMR            bool
	Diversity         float64
	CandidatePoolSize int
}

// ParamsFor derives the generator parameters for a review of the given
// length when topN aspects are wanted back.
func ParamsFor(category models.LengthCategory, topN int, useMMR bool) GenerationParams {
	p := GenerationParams{NgramMin: 1, NgramMax: 2, UseMMR: useMMR}
	switch category {
	case models.LengthShort:
		p.TopN = min(topN*3, 20)
		p.Diversity = 0.5
		p.CandidatePoolSize = 30
	case models.LengthMedium:
		p.TopN = min(topN*4, 30)
		p.Diversity = 0.6
		p.CandidatePoolSize = 50
	default:
		p.TopN = min(topN*4, 40)
		p.Diversity = 0.7
		p.CandidatePoolSize = 100
	}
	return p
}

// FinalCount is how many aspects survive for a review of the given length.
// Short reviews only keep half of what was asked for.
func FinalCount(category models.LengthCategory, topN int) int {
	if category == models.LengthShort {
		return topN / 2
	}
	return topN
}
