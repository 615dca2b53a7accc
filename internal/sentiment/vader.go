package sentiment

import (
	"context"
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/models"
)

const vaderPolarityThreshold = 0.20

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders review markdown and keeps only its text.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(RemoveLinks(input)), blackfriday.WithNoExtensions())
	plain := tagPattern.ReplaceAllString(string(output), " ")
	return strings.Join(strings.Fields(html.UnescapeString(plain)), " ")
}

// VaderClassifier is the lexicon-based fallback classifier. It needs no model
// server and works offline.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// ClassifySentiment labels text by its compound polarity. Confidence is the
// compound magnitude for polar labels and its complement for neutral.
func (v *VaderClassifier) ClassifySentiment(ctx context.Context, text string) (models.SentimentPrediction, error) {
	if err := ctx.Err(); err != nil {
		return models.SentimentPrediction{}, err
	}

	plain := ConvertMarkdownToText(text)
	if plain == "" {
		return models.SentimentPrediction{}, absa.ErrEmptyText
	}

	score := v.analyzer.PolarityScores(plain).Compound
	label, confidence := labelFromCompound(score)
	return models.SentimentPrediction{Label: label, Confidence: confidence}, nil
}

func (v *VaderClassifier) ClassifySentiments(ctx context.Context, texts []string) ([]models.SentimentPrediction, error) {
	out := make([]models.SentimentPrediction, 0, len(texts))
	for _, t := range texts {
		p, err := v.ClassifySentiment(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func labelFromCompound(score float64) (models.Sentiment, float64) {
	switch {
	case score >= vaderPolarityThreshold:
		return models.SentimentPositive, math.Abs(score)
	case score <= -vaderPolarityThreshold:
		return models.SentimentNegative, math.Abs(score)
	default:
		return models.SentimentNeutral, 1 - math.Abs(score)
	}
}
