package absa

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/aspectflow/internal/models"
)

const (
	maxSampleTexts    = 5
	maxSampleReviews  = 3
	minSignificantHit = 2
)

// aspectAccumulator folds review results into per-aspect aggregates while
// remembering the order in which aspects were first seen.
type aspectAccumulator struct {
	order    []string
	byAspect map[string]*models.AspectAggregate
	overall  models.SentimentCounts
	analyzed int
}

func newAspectAccumulator() *aspectAccumulator {
	return &aspectAccumulator{byAspect: make(map[string]*models.AspectAggregate)}
}

func (acc *aspectAccumulator) add(result models.ReviewResult) {
	acc.analyzed++
	incrementCount(&acc.overall, result.OverallSentiment, 1)

	for _, as := range result.Aspects {
		agg, ok := acc.byAspect[as.Aspect]
		if !ok {
			agg = &models.AspectAggregate{}
			acc.byAspect[as.Aspect] = agg
			acc.order = append(acc.order, as.Aspect)
		}
		agg.Sentiments = append(agg.Sentiments, as.Sentiment)
		agg.Confidences = append(agg.Confidences, as.Confidence)
		agg.RelevanceScores = append(agg.RelevanceScores, as.RelevanceScore)
		agg.Mentions++
		if len(agg.SampleTexts) < maxSampleTexts {
			agg.SampleTexts = append(agg.SampleTexts, as.TextSpan)
		}
	}
}

// merge appends other, which must cover reviews that come after everything
// already in acc.
func (acc *aspectAccumulator) merge(other *aspectAccumulator) {
	acc.analyzed += other.analyzed
	acc.overall.Positive += other.overall.Positive
	acc.overall.Neutral += other.overall.Neutral
	acc.overall.Negative += other.overall.Negative

	for _, aspect := range other.order {
		src := other.byAspect[aspect]
		dst, ok := acc.byAspect[aspect]
		if !ok {
			dst = &models.AspectAggregate{}
			acc.byAspect[aspect] = dst
			acc.order = append(acc.order, aspect)
		}
		dst.Sentiments = append(dst.Sentiments, src.Sentiments...)
		dst.Confidences = append(dst.Confidences, src.Confidences...)
		dst.RelevanceScores = append(dst.RelevanceScores, src.RelevanceScores...)
		dst.Mentions += src.Mentions
		for _, sample := range src.SampleTexts {
			if len(dst.SampleTexts) >= maxSampleTexts {
				break
			}
			dst.SampleTexts = append(dst.SampleTexts, sample)
		}
	}
}

// AnalyzeBatch analyzes every non-blank review and summarizes the aspects
// that enough reviews talk about.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reviews []string, label string, topN int) models.BulkSummary {
	start := time.Now()
	slog.Info("[Aggregator] Analyzing reviews",
		slog.String("label", label),
		slog.Int("reviews", len(reviews)),
		slog.Int("workers", a.workers))

	preview := a.ExtractAspects(ctx, strings.Join(reviews, " "), topN*2, a.useMMR)

	acc := a.accumulate(ctx, reviews)
	summary := summarize(label, len(reviews), acc)
	summary.PreviewAspects = preview

	slog.Info("[Aggregator] Analysis complete",
		slog.String("label", label),
		slog.Int("aspects_found", summary.AspectsFound),
		slog.Duration("elapsed", time.Since(start)))
	return summary
}

// accumulate splits reviews into contiguous chunks, one per worker, and merges
// the partial aggregates back in chunk order so the outcome is identical to a
// sequential scan.
func (a *Analyzer) accumulate(ctx context.Context, reviews []string) *aspectAccumulator {
	workers := min(a.workers, len(reviews))
	if workers <= 1 {
		acc := newAspectAccumulator()
		a.analyzeChunk(ctx, reviews, 0, acc)
		return acc
	}

	chunkSize := (len(reviews) + workers - 1) / workers
	partials := make([]*aspectAccumulator, 0, workers)
	var wg sync.WaitGroup
	for offset := 0; offset < len(reviews); offset += chunkSize {
		end := min(offset+chunkSize, len(reviews))
		partial := newAspectAccumulator()
		partials = append(partials, partial)

		wg.Add(1)
		go func(chunk []string, offset int, partial *aspectAccumulator) {
			defer wg.Done()
			a.analyzeChunk(ctx, chunk, offset, partial)
		}(reviews[offset:end], offset, partial)
	}
	wg.Wait()

	acc := newAspectAccumulator()
	for _, partial := range partials {
		acc.merge(partial)
	}
	return acc
}

func (a *Analyzer) analyzeChunk(ctx context.Context, reviews []string, offset int, acc *aspectAccumulator) {
	for i, review := range reviews {
		if strings.TrimSpace(review) == "" {
			continue
		}
		if idx := offset + i; idx > 0 && idx%50 == 0 {
			slog.Debug("[Aggregator] Progress", slog.Int("review", idx))
		}
		acc.add(a.AnalyzeReview(ctx, review, a.batchReviewTopN))
	}
}

// AggregateResults builds a summary from results that were already computed,
// in review order. reviewCount is the size of the original batch, blanks
// included.
func AggregateResults(label string, reviewCount int, results []models.ReviewResult) models.BulkSummary {
	acc := newAspectAccumulator()
	for _, r := range results {
		acc.add(r)
	}
	return summarize(label, reviewCount, acc)
}

// MinMentions is the significance floor: 5% of the batch, at least two.
func MinMentions(reviewCount int) int {
	return max(minSignificantHit, (reviewCount+19)/20)
}

func summarize(label string, reviewCount int, acc *aspectAccumulator) models.BulkSummary {
	floor := MinMentions(reviewCount)

	aspects := make([]models.AspectSummary, 0, len(acc.order))
	for _, aspect := range acc.order {
		agg := acc.byAspect[aspect]
		if agg.Mentions < floor {
			continue
		}
		aspects = append(aspects, summarizeAspect(aspect, agg, reviewCount))
	}

	return models.BulkSummary{
		Label:             label,
		TotalReviews:      acc.analyzed,
		AspectsFound:      len(aspects),
		OverallSentiment:  acc.overall,
		OverallPercentage: percentages(acc.overall, reviewCount),
		Aspects:           aspects,
		KeyInsights:       GenerateInsights(aspects, acc.overall, reviewCount),
	}
}

func summarizeAspect(aspect string, agg *models.AspectAggregate, reviewCount int) models.AspectSummary {
	var counts models.SentimentCounts
	for _, s := range agg.Sentiments {
		incrementCount(&counts, s, 1)
	}

	samples := agg.SampleTexts
	if len(samples) > maxSampleReviews {
		samples = samples[:maxSampleReviews]
	}

	return models.AspectSummary{
		Aspect:                aspect,
		SentimentDistribution: counts,
		Percentages:           percentages(counts, agg.Mentions),
		AvgConfidence:         round(mean(agg.Confidences), 2),
		AvgRelevance:          round(mean(agg.RelevanceScores), 2),
		Mentions:              agg.Mentions,
		PercentageMentioned:   percentOf(agg.Mentions, reviewCount),
		SampleReviews:         append([]string{}, samples...),
	}
}

// SentimentStats counts overall labels across results.
func SentimentStats(results []models.ReviewResult) models.SentimentStats {
	var stats models.SentimentStats
	for _, r := range results {
		incrementCount(&stats.SentimentCounts, r.OverallSentiment, 1)
		stats.Total++
	}
	return stats
}

func incrementCount(c *models.SentimentCounts, s models.Sentiment, n int) {
	switch s {
	case models.SentimentPositive:
		c.Positive += n
	case models.SentimentNegative:
		c.Negative += n
	default:
		c.Neutral += n
	}
}

func percentages(c models.SentimentCounts, total int) models.SentimentPercentages {
	return models.SentimentPercentages{
		Positive: percentOf(c.Positive, total),
		Neutral:  percentOf(c.Neutral, total),
		Negative: percentOf(c.Negative, total),
	}
}

func percentOf(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(n)/float64(total)*100, 1)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
