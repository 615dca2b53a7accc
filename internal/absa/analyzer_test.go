package absa_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/models"
)

// keywordClassifier labels text by the first sentiment word it contains.
var keywordClassifier = absa.ClassifierFunc(func(_ context.Context, text string) (models.SentimentPrediction, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "love"):
		return models.SentimentPrediction{Label: models.SentimentPositive, Confidence: 0.9}, nil
	case strings.Contains(lower, "hate"):
		return models.SentimentPrediction{Label: models.SentimentNegative, Confidence: 0.8}, nil
	default:
		return models.SentimentPrediction{Label: models.SentimentNeutral, Confidence: 0.6}, nil
	}
})

func staticGenerator(candidates ...models.Candidate) absa.GeneratorFunc {
	return func(context.Context, string, absa.GenerationParams) ([]models.Candidate, error) {
		return candidates, nil
	}
}

type memoryCache struct {
	mu      sync.Mutex
	results map[string]models.ReviewResult
}

func newMemoryCache() *memoryCache {
	return &memoryCache{results: make(map[string]models.ReviewResult)}
}

func (c *memoryCache) GetResult(_ context.Context, key string) (models.ReviewResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[key]
	return r, ok
}

func (c *memoryCache) SetResult(_ context.Context, key string, result models.ReviewResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = result
}

var _ = Describe("Analyzer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("ExtractAspects", func() {
		It("passes length-adaptive parameters to the generator", func() {
			var got absa.GenerationParams
			gen := absa.GeneratorFunc(func(_ context.Context, _ string, p absa.GenerationParams) ([]models.Candidate, error) {
				got = p
				return nil, nil
			})
			analyzer := absa.NewAnalyzer(gen, keywordClassifier, absa.WithMMR(false))

			Expect(analyzer.ExtractAspects(ctx, words(40), 8, false)).To(BeEmpty())
			Expect(got).To(Equal(absa.GenerationParams{
				NgramMin: 1, NgramMax: 2, TopN: 30, UseMMR: false, Diversity: 0.6, CandidatePoolSize: 50,
			}))
		})

		It("halves the aspect count for short reviews", func() {
			analyzer := absa.NewAnalyzer(staticGenerator(
				models.Candidate{Phrase: "battery", Score: 0.9},
				models.Candidate{Phrase: "screen", Score: 0.8},
				models.Candidate{Phrase: "strap", Score: 0.7},
				models.Candidate{Phrase: "price", Score: 0.6},
			), keywordClassifier)

			aspects := analyzer.ExtractAspects(ctx, "Nice watch with great battery and bright screen", 4, true)
			Expect(keywords(aspects)).To(Equal([]string{"battery", "screen"}))
		})

		It("returns no aspects when the generator fails", func() {
			gen := absa.GeneratorFunc(func(context.Context, string, absa.GenerationParams) ([]models.Candidate, error) {
				return nil, errors.New("model unavailable")
			})
			aspects := absa.NewAnalyzer(gen, keywordClassifier).ExtractAspects(ctx, "battery", 8, true)
			Expect(aspects).NotTo(BeNil())
			Expect(aspects).To(BeEmpty())
		})

		It("returns no aspects when the generator panics", func() {
			gen := absa.GeneratorFunc(func(context.Context, string, absa.GenerationParams) ([]models.Candidate, error) {
				panic("boom")
			})
			Expect(absa.NewAnalyzer(gen, keywordClassifier).ExtractAspects(ctx, "battery", 8, true)).To(BeEmpty())
		})

		It("treats a generator that exceeds the call timeout as failed", func() {
			gen := absa.GeneratorFunc(func(ctx context.Context, _ string, _ absa.GenerationParams) ([]models.Candidate, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})
			analyzer := absa.NewAnalyzer(gen, keywordClassifier, absa.WithCallTimeout(20*time.Millisecond))
			Expect(analyzer.ExtractAspects(ctx, "battery", 8, true)).To(BeEmpty())
		})

		It("uses a custom lexicon", func() {
			lex, err := absa.NewLexicon([]string{"nice"}, []string{"lens"})
			Expect(err).NotTo(HaveOccurred())
			analyzer := absa.NewAnalyzer(staticGenerator(
				models.Candidate{Phrase: "lens flare", Score: 0.9},
				models.Candidate{Phrase: "battery", Score: 0.8},
			), keywordClassifier, absa.WithLexicon(lex))

			Expect(keywords(analyzer.ExtractAspects(ctx, words(40), 8, true))).To(Equal([]string{"lens flare"}))
		})
	})

	Describe("AnalyzeReview", func() {
		It("scores the review and each aspect", func() {
			analyzer := absa.NewAnalyzer(staticGenerator(
				models.Candidate{Phrase: "battery life", Score: 0.81234},
			), keywordClassifier)

			result := analyzer.AnalyzeReview(ctx, "I love the battery life on this watch", 8)
			Expect(result.OverallSentiment).To(Equal(models.SentimentPositive))
			Expect(result.OverallConfidence).To(Equal(0.9))
			Expect(result.TotalAspectsFound).To(Equal(1))
			Expect(result.Aspects).To(Equal([]models.AspectSentiment{{
				Aspect:         "battery",
				Sentiment:      models.SentimentPositive,
				Confidence:     0.9,
				TextSpan:       "I love the battery life on this",
				RelevanceScore: 0.812,
			}}))
		})

		It("defaults the overall label when the classifier fails", func() {
			cls := absa.ClassifierFunc(func(context.Context, string) (models.SentimentPrediction, error) {
				return models.SentimentPrediction{}, errors.New("unavailable")
			})
			analyzer := absa.NewAnalyzer(staticGenerator(models.Candidate{Phrase: "battery", Score: 0.9}), cls)

			result := analyzer.AnalyzeReview(ctx, "The battery is fine", 8)
			Expect(result.OverallSentiment).To(Equal(models.SentimentNeutral))
			Expect(result.OverallConfidence).To(Equal(0.5))
			Expect(result.Aspects).To(BeEmpty())
			Expect(result.TotalAspectsFound).To(BeZero())
		})

		It("drops only the aspects whose classification fails", func() {
			text := "The screen is too dim. I love it overall."
			cls := absa.ClassifierFunc(func(ctx context.Context, span string) (models.SentimentPrediction, error) {
				if span != text {
					return models.SentimentPrediction{}, errors.New("span rejected")
				}
				return keywordClassifier(ctx, span)
			})
			analyzer := absa.NewAnalyzer(staticGenerator(models.Candidate{Phrase: "screen", Score: 0.7}), cls)

			result := analyzer.AnalyzeReview(ctx, text, 8)
			Expect(result.OverallSentiment).To(Equal(models.SentimentPositive))
			Expect(result.Aspects).To(BeEmpty())
		})

		It("still scores the review when generation fails", func() {
			gen := absa.GeneratorFunc(func(context.Context, string, absa.GenerationParams) ([]models.Candidate, error) {
				return nil, errors.New("model unavailable")
			})
			result := absa.NewAnalyzer(gen, keywordClassifier).AnalyzeReview(ctx, "I hate it", 8)
			Expect(result.OverallSentiment).To(Equal(models.SentimentNegative))
			Expect(result.Aspects).To(BeEmpty())
		})

		It("serves repeated reviews from the result cache", func() {
			var calls atomic.Int32
			gen := absa.GeneratorFunc(func(context.Context, string, absa.GenerationParams) ([]models.Candidate, error) {
				calls.Add(1)
				return []models.Candidate{{Phrase: "battery", Score: 0.9}}, nil
			})
			analyzer := absa.NewAnalyzer(gen, keywordClassifier, absa.WithResultCache(newMemoryCache()))

			first := analyzer.AnalyzeReview(ctx, "I love the battery", 8)
			second := analyzer.AnalyzeReview(ctx, "I love the battery", 8)
			Expect(second).To(Equal(first))
			Expect(calls.Load()).To(Equal(int32(1)))

			analyzer.AnalyzeReview(ctx, "I love the battery", 4)
			Expect(calls.Load()).To(Equal(int32(2)))
		})
	})

	It("derives distinct cache keys from text and count", func() {
		Expect(absa.CacheKey("a", 8)).To(Equal(absa.CacheKey("a", 8)))
		Expect(absa.CacheKey("a", 8)).NotTo(Equal(absa.CacheKey("a", 5)))
		Expect(absa.CacheKey("a", 8)).To(HaveLen(64))
	})
})
