package consumers

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/aspectflow/internal/clients/kafka_client"
	"github.com/spacesedan/aspectflow/internal/models"
)

type Publisher func(ctx context.Context, topic string, records ...kafka_client.Record) error

type Committer interface {
	Commit(msg *kafka.Message) error
}

// ProcessedTracker remembers review IDs that were already analyzed.
type ProcessedTracker interface {
	IsProcessed(ctx context.Context, reviewID string) bool
	MarkProcessed(ctx context.Context, reviewIDs ...string) error
}

type ReviewStore interface {
	StoreAnalyzedReviews(ctx context.Context, reviews []models.AnalyzedReview) error
}

type SummaryStore interface {
	StoreBulkSummary(ctx context.Context, batch models.AnalyzedBatch) error
}

const publishAttempts = 3
