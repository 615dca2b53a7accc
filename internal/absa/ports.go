package absa

import (
	"context"

	"github.com/spacesedan/aspectflow/internal/models"
)

// CandidateGenerator proposes scored keyphrases for a text.
type CandidateGenerator interface {
	GenerateCandidates(ctx context.Context, text string, params GenerationParams) ([]models.Candidate, error)
}

// SentimentClassifier labels a short span of text.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (models.SentimentPrediction, error)
}

// BatchSentimentClassifier is implemented by classifiers that can score many
// spans in one round trip.
type BatchSentimentClassifier interface {
	SentimentClassifier
	ClassifySentiments(ctx context.Context, texts []string) ([]models.SentimentPrediction, error)
}

// ResultCache stores finished review results keyed by an opaque key.
type ResultCache interface {
	GetResult(ctx context.Context, key string) (models.ReviewResult, bool)
	SetResult(ctx context.Context, key string, result models.ReviewResult)
}

type GeneratorFunc func(ctx context.Context, text string, params GenerationParams) ([]models.Candidate, error)

func (f GeneratorFunc) GenerateCandidates(ctx context.Context, text string, params GenerationParams) ([]models.Candidate, error) {
	return f(ctx, text, params)
}

type ClassifierFunc func(ctx context.Context, text string) (models.SentimentPrediction, error)

func (f ClassifierFunc) ClassifySentiment(ctx context.Context, text string) (models.SentimentPrediction, error) {
	return f(ctx, text)
}
