package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/clients"
	"github.com/spacesedan/aspectflow/internal/models"
)

const (
	ANALYZED_REVIEWS_TABLE_NAME = "AnalyzedReviews"
	BULK_SUMMARIES_TABLE_NAME   = "BulkSummaries"

	maxBatchSize     = 25
	maxWriteRetries  = 3
	reviewRetention  = 30 * 24 * time.Hour
	summaryRetention = 7 * 24 * time.Hour
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type Store struct {
	client       DynamoDBAPI
	retryBackoff time.Duration
	now          func() time.Time
}

func NewStore(client DynamoDBAPI) *Store {
	return &Store{client: client, retryBackoff: 500 * time.Millisecond, now: time.Now}
}

func InitDynamoDB() (*Store, error) {
	client, err := clients.GetDynamoDBClient()
	if err != nil {
		return nil, err
	}
	return NewStore(client), nil
}

type reviewItem struct {
	ReviewID   string              `dynamodbav:"review_id"`
	ProductID  string              `dynamodbav:"product_id,omitempty"`
	Text       string              `dynamodbav:"text"`
	Author     string              `dynamodbav:"author,omitempty"`
	Source     string              `dynamodbav:"source,omitempty"`
	ReviewedAt int64               `dynamodbav:"reviewed_at,omitempty"`
	Result     models.ReviewResult `dynamodbav:"result"`
	AnalyzedAt int64               `dynamodbav:"analyzed_at"`
	ExpiresAt  int64               `dynamodbav:"ttl"`
}

type summaryItem struct {
	BatchID    string             `dynamodbav:"batch_id"`
	Summary    models.BulkSummary `dynamodbav:"summary"`
	AnalyzedAt int64              `dynamodbav:"analyzed_at"`
	ExpiresAt  int64              `dynamodbav:"ttl"`
}

func (s *Store) reviewToItem(r models.AnalyzedReview) (map[string]types.AttributeValue, error) {
	item := reviewItem{
		ReviewID:   r.ReviewID,
		ProductID:  r.ProductID,
		Text:       r.Text,
		Author:     r.Metadata.Author,
		Source:     r.Metadata.Source,
		Result:     r.ReviewResult,
		AnalyzedAt: r.AnalyzedAt.Unix(),
		ExpiresAt:  s.now().Add(reviewRetention).Unix(),
	}
	if !r.Metadata.Timestamp.IsZero() {
		item.ReviewedAt = r.Metadata.Timestamp.Unix()
	}
	return attributevalue.MarshalMap(item)
}

// DecodeAnalyzedReview turns a stored AnalyzedReviews item back into a review.
func DecodeAnalyzedReview(av map[string]types.AttributeValue) (models.AnalyzedReview, error) {
	var item reviewItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return models.AnalyzedReview{}, err
	}

	r := models.AnalyzedReview{
		ReviewRequest: models.ReviewRequest{
			ReviewID:  item.ReviewID,
			ProductID: item.ProductID,
			Text:      item.Text,
			Metadata:  models.ReviewMetadata{Author: item.Author, Source: item.Source},
		},
		ReviewResult: item.Result,
		AnalyzedAt:   time.Unix(item.AnalyzedAt, 0).UTC(),
	}
	if item.ReviewedAt != 0 {
		r.Metadata.Timestamp = time.Unix(item.ReviewedAt, 0).UTC()
	}
	return r, nil
}

// StoreAnalyzedReviews writes reviews in batches of 25, retrying items
// DynamoDB reports as unprocessed.
func (s *Store) StoreAnalyzedReviews(ctx context.Context, reviews []models.AnalyzedReview) error {
	for i := 0; i < len(reviews); i += maxBatchSize {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}

		end := min(i+maxBatchSize, len(reviews))
		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, review := range reviews[i:end] {
			item, err := s.reviewToItem(review)
			if err != nil {
				return fmt.Errorf("[DynamoDB] Failed to marshal review %s: %w", review.ReviewID, err)
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.batchWrite(ctx, ANALYZED_REVIEWS_TABLE_NAME, writeRequests); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Successfully stored analyzed reviews", slog.Int("count", len(reviews)))
	return nil
}

func (s *Store) batchWrite(ctx context.Context, table string, writeRequests []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{table: writeRequests},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write %s: %w", table, err)
	}

	retryCount := 0
	backoff := s.retryBackoff
	for len(out.UnprocessedItems) > 0 && retryCount < maxWriteRetries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed items...",
			slog.Int("retry_attempt", retryCount+1),
			slog.Int("remaining_items", len(out.UnprocessedItems[table])))

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to retry batch write: %w", err)
		}
		retryCount++
	}

	if remaining := len(out.UnprocessedItems[table]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d items in %s were not written after retries", remaining, table)
	}
	return nil
}

func (s *Store) StoreBulkSummary(ctx context.Context, batch models.AnalyzedBatch) error {
	item, err := attributevalue.MarshalMap(summaryItem{
		BatchID:    batch.BatchID,
		Summary:    batch.Summary,
		AnalyzedAt: batch.AnalyzedAt.Unix(),
		ExpiresAt:  s.now().Add(summaryRetention).Unix(),
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to marshal summary %s: %w", batch.BatchID, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(BULK_SUMMARIES_TABLE_NAME),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("[DynamoDB] Failed to store summary %s: %w", batch.BatchID, err)
	}

	slog.Info("[DynamoDB] Stored bulk summary",
		slog.String("batch_id", batch.BatchID),
		slog.Int("aspects", batch.Summary.AspectsFound))
	return nil
}

// GetBulkSummary returns the stored summary for batchID; found is false when
// there is none.
func (s *Store) GetBulkSummary(ctx context.Context, batchID string) (batch models.AnalyzedBatch, found bool, err error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(BULK_SUMMARIES_TABLE_NAME),
		Key: map[string]types.AttributeValue{
			"batch_id": &types.AttributeValueMemberS{Value: batchID},
		},
	})
	if err != nil {
		return batch, false, fmt.Errorf("[DynamoDB] Failed to get summary %s: %w", batchID, err)
	}
	if len(out.Item) == 0 {
		return batch, false, nil
	}

	var item summaryItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return batch, false, fmt.Errorf("[DynamoDB] Failed to unmarshal summary %s: %w", batchID, err)
	}
	return models.AnalyzedBatch{
		BatchID:    item.BatchID,
		Summary:    item.Summary,
		AnalyzedAt: time.Unix(item.AnalyzedAt, 0).UTC(),
	}, true, nil
}

// GetProductReviews scans for every stored review of a product.
func (s *Store) GetProductReviews(ctx context.Context, productID string) ([]models.AnalyzedReview, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(ANALYZED_REVIEWS_TABLE_NAME),
		FilterExpression: aws.String("product_id = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: productID},
		},
	}

	var reviews []models.AnalyzedReview
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for reviews failed: %w", err)
		}
		for _, av := range out.Items {
			review, err := DecodeAnalyzedReview(av)
			if err != nil {
				return nil, fmt.Errorf("[DynamoDB] Unable to unmarshal review: %w", err)
			}
			reviews = append(reviews, review)
		}
	}

	slog.Info("[DynamoDB] Successfully retrieved reviews",
		slog.String("product_id", productID),
		slog.Int("count", len(reviews)))
	return reviews, nil
}

// ProductSentimentStats counts overall sentiment across a product's stored
// reviews.
func (s *Store) ProductSentimentStats(ctx context.Context, productID string) (models.SentimentStats, error) {
	reviews, err := s.GetProductReviews(ctx, productID)
	if err != nil {
		return models.SentimentStats{}, err
	}
	results := make([]models.ReviewResult, 0, len(reviews))
	for _, r := range reviews {
		results = append(results, r.ReviewResult)
	}
	return absa.SentimentStats(results), nil
}
