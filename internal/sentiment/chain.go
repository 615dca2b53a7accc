package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/models"
)

// NamedClassifier tags a classifier for logging.
type NamedClassifier struct {
	Name       string
	Classifier absa.SentimentClassifier
}

// Chain tries classifiers in order and returns the first answer. It only
// fails when every classifier does.
type Chain struct {
	classifiers []NamedClassifier
}

func NewChain(classifiers ...NamedClassifier) *Chain {
	return &Chain{classifiers: classifiers}
}

func (c *Chain) ClassifySentiment(ctx context.Context, text string) (models.SentimentPrediction, error) {
	var errs []error
	for _, nc := range c.classifiers {
		prediction, err := nc.Classifier.ClassifySentiment(ctx, text)
		if err == nil {
			return prediction, nil
		}
		if ctx.Err() != nil {
			return models.SentimentPrediction{}, ctx.Err()
		}
		slog.Debug("[SentimentChain] Classifier failed, trying next",
			slog.String("classifier", nc.Name),
			slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("%s: %w", nc.Name, err))
	}
	if len(errs) == 0 {
		return models.SentimentPrediction{}, errors.New("[SentimentChain] no classifiers configured")
	}
	return models.SentimentPrediction{}, errors.Join(errs...)
}
