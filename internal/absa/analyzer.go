package absa

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/aspectflow/internal/models"
)

const (
	DefaultTopN            = 8
	DefaultBatchReviewTopN = 5
	defaultConfidence      = 0.5
)

type Analyzer struct {
	lexicon         *Lexicon
	generator       CandidateGenerator
	classifier      SentimentClassifier
	cache           ResultCache
	callTimeout     time.Duration
	workers         int
	batchReviewTopN int
	useMMR          bool
}

type Option func(*Analyzer)

func WithLexicon(l *Lexicon) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.lexicon = l
		}
	}
}

func WithResultCache(c ResultCache) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithCallTimeout bounds every generator and classifier call. A call that
// times out is handled like any other failure of that collaborator.
func WithCallTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.callTimeout = d }
}

func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithBatchReviewTopN sets how many aspects each review may contribute in
// batch mode.
func WithBatchReviewTopN(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.batchReviewTopN = n
		}
	}
}

func WithMMR(useMMR bool) Option {
	return func(a *Analyzer) { a.useMMR = useMMR }
}

func NewAnalyzer(generator CandidateGenerator, classifier SentimentClassifier, opts ...Option) *Analyzer {
	a := &Analyzer{
		lexicon:         DefaultLexicon(),
		generator:       generator,
		classifier:      classifier,
		workers:         1,
		batchReviewTopN: DefaultBatchReviewTopN,
		useMMR:          true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Lexicon() *Lexicon {
	return a.lexicon
}

// ExtractAspects runs the generator with length-adaptive parameters and
// returns the validated, cleaned and deduplicated aspects. Generator failures
// yield an empty slice.
func (a *Analyzer) ExtractAspects(ctx context.Context, text string, topN int, useMMR bool) (aspects []models.Aspect) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("[ReviewAnalyzer] Aspect extraction panicked, returning no aspects",
				slog.Any("panic", r))
			aspects = []models.Aspect{}
		}
	}()

	category := ClassifyLength(text)
	params := ParamsFor(category, topN, useMMR)

	callCtx, cancel := a.callContext(ctx)
	candidates, err := a.generator.GenerateCandidates(callCtx, text, params)
	cancel()
	if err != nil {
		slog.Warn("[ReviewAnalyzer] Candidate generation failed",
			slog.String("length_category", string(category)),
			slog.String("error", err.Error()))
		return []models.Aspect{}
	}

	filtered := a.lexicon.FilterCandidates(candidates, category)
	deduplicated := DeduplicateAspects(filtered)

	n := min(FinalCount(category, topN), len(deduplicated))
	slog.Debug("[ReviewAnalyzer] Aspects extracted",
		slog.String("length_category", string(category)),
		slog.Int("candidates", len(candidates)),
		slog.Int("valid", len(filtered)),
		slog.Int("kept", n))

	return append([]models.Aspect{}, deduplicated[:n]...)
}

// AnalyzeReview scores the review as a whole and every aspect found in it.
// Classifier failures never fail the review: the overall label falls back to
// neutral and an aspect that cannot be scored is left out.
func (a *Analyzer) AnalyzeReview(ctx context.Context, text string, topN int) models.ReviewResult {
	key := CacheKey(text, topN)
	if a.cache != nil {
		if cached, ok := a.cache.GetResult(ctx, key); ok {
			return cached
		}
	}

	result := models.ReviewResult{
		OverallSentiment:  models.SentimentNeutral,
		OverallConfidence: defaultConfidence,
		Aspects:           []models.AspectSentiment{},
	}

	overall, err := a.classify(ctx, text)
	if err != nil {
		slog.Warn("[ReviewAnalyzer] Overall sentiment failed, defaulting to neutral",
			slog.String("error", err.Error()))
	} else {
		result.OverallSentiment = overall.Label
		result.OverallConfidence = round(overall.Confidence, 3)
	}

	for _, aspect := range a.ExtractAspects(ctx, text, topN, a.useMMR) {
		prediction, err := a.classify(ctx, SentimentContext(text, aspect.Keyword))
		if err != nil {
			slog.Warn("[ReviewAnalyzer] Aspect sentiment failed, dropping aspect",
				slog.String("aspect", aspect.Keyword),
				slog.String("error", err.Error()))
			continue
		}

		result.Aspects = append(result.Aspects, models.AspectSentiment{
			Aspect:         aspect.Keyword,
			Sentiment:      prediction.Label,
			Confidence:     round(prediction.Confidence, 3),
			TextSpan:       ExtractAspectPhrase(text, aspect.Keyword),
			RelevanceScore: aspect.RelevanceScore,
		})
	}
	result.TotalAspectsFound = len(result.Aspects)

	if a.cache != nil {
		a.cache.SetResult(ctx, key, result)
	}
	return result
}

func (a *Analyzer) classify(ctx context.Context, text string) (models.SentimentPrediction, error) {
	callCtx, cancel := a.callContext(ctx)
	defer cancel()

	prediction, err := a.classifier.ClassifySentiment(callCtx, text)
	if err != nil {
		return models.SentimentPrediction{}, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}
	return prediction, nil
}

func (a *Analyzer) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.callTimeout > 0 {
		return context.WithTimeout(ctx, a.callTimeout)
	}
	return context.WithCancel(ctx)
}

// CacheKey identifies a review analysis by its text and requested aspect count.
func CacheKey(text string, topN int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", topN, text)))
	return hex.EncodeToString(hash[:])
}
