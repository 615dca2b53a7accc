package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/aspectflow/internal/clients/kafka_client"
	"github.com/spacesedan/aspectflow/internal/models"
	"github.com/spacesedan/aspectflow/internal/utils"
)

// ResultsConsumer persists analyzed reviews in DynamoDB-sized batches.
type ResultsConsumer struct {
	store    ReviewStore
	buffer   *utils.BatchBuffer[models.AnalyzedReview]
	messages *utils.MessageTracker
}

func NewResultsConsumer(store ReviewStore) *ResultsConsumer {
	return &ResultsConsumer{
		store:    store,
		buffer:   utils.NewBatchBuffer[models.AnalyzedReview](),
		messages: utils.NewMessageTracker(),
	}
}

func (rc *ResultsConsumer) Run(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool) {
	// Shutdown flushes and commits must outlive ctx.
	flushCtx := context.WithoutCancel(ctx)
	committer := kafka_client.NewCommitHandler(flushCtx, consumer)
	flush := func() {
		if err := rc.Flush(flushCtx, committer); err != nil {
			slog.Error("[ResultsConsumer] Flush failed", slog.String("error", err.Error()))
		}
	}

	consumeLoop(ctx, consumer, "ResultsConsumer", health, func(msg *kafka.Message) {
		var review models.AnalyzedReview
		if err := utils.DeserializeFromJSON(msg.Value, &review); err != nil {
			utils.HandleConsumerError(err)
			return
		}
		if rc.Enqueue(review, msg) >= utils.DYNAMODB_BATCH_SIZE {
			flush()
		}
	}, flush)
}

func (rc *ResultsConsumer) Enqueue(review models.AnalyzedReview, msg *kafka.Message) int {
	if msg != nil {
		rc.messages.Track(review.ReviewID, msg)
	}
	rc.buffer.Add(review)
	return rc.buffer.Size()
}

// Flush stores the buffered reviews and commits their messages. A failed
// batch goes back into the buffer with its messages still tracked.
func (rc *ResultsConsumer) Flush(ctx context.Context, committer Committer) error {
	batch := rc.buffer.GetAndClear()
	if len(batch) == 0 {
		return nil
	}

	var insertErr error
	for i := 0; i < 3; i++ {
		insertErr = rc.store.StoreAnalyzedReviews(ctx, batch)
		if insertErr == nil {
			break
		}
		slog.Warn("[ResultsConsumer] Failed to write results to DB",
			slog.String("error", insertErr.Error()),
			slog.Int("attempt", i+1))
	}
	if insertErr != nil {
		// Later offsets on the same partitions stay uncommitted until these land.
		rc.buffer.Requeue(batch)
		return fmt.Errorf("[ResultsConsumer] requeued %d reviews: %w", len(batch), insertErr)
	}

	commitReleased(rc.messages, committer, batch, func(r models.AnalyzedReview) string { return r.ReviewID })
	return nil
}
