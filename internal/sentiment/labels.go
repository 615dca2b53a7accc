package sentiment

import (
	"strings"

	"github.com/spacesedan/aspectflow/internal/models"
)

// MapLabel normalizes a classifier label onto the three-way sentiment.
// Model-indexed labels follow the cardiffnlp ordering. Anything unrecognized
// is neutral.
func MapLabel(raw string) models.Sentiment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "label_0", "negative", "neg":
		return models.SentimentNegative
	case "label_2", "positive", "pos":
		return models.SentimentPositive
	default:
		return models.SentimentNeutral
	}
}
