package db_test

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spacesedan/aspectflow/internal/db"
	"github.com/spacesedan/aspectflow/internal/models"
)

type fakeDynamo struct {
	BatchWriteItemFn func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error)
	PutItemFn        func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	GetItemFn        func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	ScanFn           func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	return f.BatchWriteItemFn(in)
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.PutItemFn(in)
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.GetItemFn(in)
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return f.ScanFn(in)
}

func analyzedReview(id string, sentiment models.Sentiment) models.AnalyzedReview {
	return models.AnalyzedReview{
		ReviewRequest: models.ReviewRequest{
			ReviewID:  id,
			ProductID: "watch-1",
			Text:      "I love the battery",
			Metadata:  models.ReviewMetadata{Author: "sam", Timestamp: time.Unix(1700000000, 0).UTC()},
		},
		ReviewResult: models.ReviewResult{
			OverallSentiment:  sentiment,
			OverallConfidence: 0.9,
			Aspects: []models.AspectSentiment{{
				Aspect: "battery", Sentiment: sentiment, Confidence: 0.9, TextSpan: "I love the battery", RelevanceScore: 0.8,
			}},
			TotalAspectsFound: 1,
		},
		AnalyzedAt: time.Unix(1700000100, 0).UTC(),
	}
}

var _ = Describe("Store", func() {
	var (
		ctx  context.Context
		fake *fakeDynamo
		st   *db.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = &fakeDynamo{}
		st = db.NewStore(fake)
		st.SetRetryBackoff(time.Millisecond)
	})

	Describe("StoreAnalyzedReviews", func() {
		It("writes in batches of 25", func() {
			var sizes []int
			fake.BatchWriteItemFn = func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
				sizes = append(sizes, len(in.RequestItems[db.ANALYZED_REVIEWS_TABLE_NAME]))
				return &dynamodb.BatchWriteItemOutput{}, nil
			}

			reviews := make([]models.AnalyzedReview, 30)
			for i := range reviews {
				reviews[i] = analyzedReview(fmt.Sprintf("r%d", i), models.SentimentPositive)
			}
			Expect(st.StoreAnalyzedReviews(ctx, reviews)).To(Succeed())
			Expect(sizes).To(Equal([]int{25, 5}))
		})

		It("retries unprocessed items", func() {
			calls := 0
			fake.BatchWriteItemFn = func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
				calls++
				if calls == 1 {
					pending := in.RequestItems[db.ANALYZED_REVIEWS_TABLE_NAME][:1]
					return &dynamodb.BatchWriteItemOutput{
						UnprocessedItems: map[string][]types.WriteRequest{db.ANALYZED_REVIEWS_TABLE_NAME: pending},
					}, nil
				}
				Expect(in.RequestItems[db.ANALYZED_REVIEWS_TABLE_NAME]).To(HaveLen(1))
				return &dynamodb.BatchWriteItemOutput{}, nil
			}

			Expect(st.StoreAnalyzedReviews(ctx, []models.AnalyzedReview{
				analyzedReview("a", models.SentimentPositive),
				analyzedReview("b", models.SentimentNegative),
			})).To(Succeed())
			Expect(calls).To(Equal(2))
		})

		It("fails when items stay unprocessed", func() {
			fake.BatchWriteItemFn = func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
				return &dynamodb.BatchWriteItemOutput{UnprocessedItems: in.RequestItems}, nil
			}
			err := st.StoreAnalyzedReviews(ctx, []models.AnalyzedReview{analyzedReview("a", models.SentimentPositive)})
			Expect(err).To(MatchError(ContainSubstring("not written after retries")))
		})
	})

	Describe("bulk summaries", func() {
		var stored map[string]types.AttributeValue

		BeforeEach(func() {
			stored = nil
			fake.PutItemFn = func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
				Expect(*in.TableName).To(Equal(db.BULK_SUMMARIES_TABLE_NAME))
				stored = in.Item
				return &dynamodb.PutItemOutput{}, nil
			}
			fake.GetItemFn = func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
				key := in.Key["batch_id"].(*types.AttributeValueMemberS).Value
				if stored == nil || stored["batch_id"].(*types.AttributeValueMemberS).Value != key {
					return &dynamodb.GetItemOutput{}, nil
				}
				return &dynamodb.GetItemOutput{Item: stored}, nil
			}
		})

		It("reads back what it stored", func() {
			batch := models.AnalyzedBatch{
				BatchID: "b-1",
				Summary: models.BulkSummary{
					Label:             "Watch",
					TotalReviews:      2,
					AspectsFound:      1,
					OverallSentiment:  models.SentimentCounts{Positive: 1, Negative: 1},
					OverallPercentage: models.SentimentPercentages{Positive: 50, Negative: 50},
					Aspects: []models.AspectSummary{{
						Aspect:                "battery",
						SentimentDistribution: models.SentimentCounts{Positive: 1, Negative: 1},
						Percentages:           models.SentimentPercentages{Positive: 50, Negative: 50},
						AvgConfidence:         0.85,
						AvgRelevance:          0.8,
						Mentions:              2,
						PercentageMentioned:   100,
						SampleReviews:         []string{"I love the battery"},
					}},
					KeyInsights:    []string{"Most discussed: Battery (mentioned in 100.0% of reviews)"},
					PreviewAspects: []models.Aspect{{Keyword: "battery", RelevanceScore: 0.8}},
				},
				AnalyzedAt: time.Unix(1700000000, 0).UTC(),
			}

			Expect(st.StoreBulkSummary(ctx, batch)).To(Succeed())
			got, found, err := st.GetBulkSummary(ctx, "b-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(got).To(Equal(batch))
			Expect(stored).To(HaveKey("ttl"))
		})

		It("reports a missing summary", func() {
			_, found, err := st.GetBulkSummary(ctx, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	It("computes sentiment stats for a product", func() {
		var items []map[string]types.AttributeValue
		fake.BatchWriteItemFn = func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
			for _, wr := range in.RequestItems[db.ANALYZED_REVIEWS_TABLE_NAME] {
				items = append(items, wr.PutRequest.Item)
			}
			return &dynamodb.BatchWriteItemOutput{}, nil
		}
		fake.ScanFn = func(in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
			Expect(*in.FilterExpression).To(Equal("product_id = :p"))
			return &dynamodb.ScanOutput{Items: items}, nil
		}

		Expect(st.StoreAnalyzedReviews(ctx, []models.AnalyzedReview{
			analyzedReview("a", models.SentimentPositive),
			analyzedReview("b", models.SentimentPositive),
			analyzedReview("c", models.SentimentNegative),
		})).To(Succeed())

		reviews, err := st.GetProductReviews(ctx, "watch-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(reviews).To(HaveLen(3))
		Expect(reviews[0]).To(Equal(analyzedReview("a", models.SentimentPositive)))

		stats, err := st.ProductSentimentStats(ctx, "watch-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Total).To(Equal(3))
		Expect(stats.Positive).To(Equal(2))
		Expect(stats.Negative).To(Equal(1))
	})
})
