package consumers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/clients/kafka_client"
	"github.com/spacesedan/aspectflow/internal/models"
	"github.com/spacesedan/aspectflow/internal/utils"
)

const (
	batchRetryBackoff    = time.Second
	batchMaxRetryBackoff = 30 * time.Second
)

var errMissingBatchID = errors.New("batch request has no id")

// BatchConsumer turns batch requests into bulk summaries, one message at a
// time.
type BatchConsumer struct {
	analyzer *absa.Analyzer
	topN     int
	publish  Publisher
	now      func() time.Time
	backoff  time.Duration
}

func NewBatchConsumer(analyzer *absa.Analyzer, topN int, publish Publisher) *BatchConsumer {
	if topN <= 0 {
		topN = absa.DefaultTopN
	}
	return &BatchConsumer{analyzer: analyzer, topN: topN, publish: publish, now: time.Now, backoff: batchRetryBackoff}
}

func (bc *BatchConsumer) Run(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool) {
	committer := kafka_client.NewCommitHandler(context.WithoutCancel(ctx), consumer)

	consumeLoop(ctx, consumer, "BatchConsumer", health, func(msg *kafka.Message) {
		if err := bc.Process(ctx, msg, committer); err != nil {
			slog.Warn("[BatchConsumer] Stopped before the batch was published", slog.String("error", err.Error()))
		}
	}, func() {})
}

// Process handles one batch message and commits it. A batch that fails to
// publish is retried with backoff until it succeeds or ctx ends, so no later
// offset is committed past it. Malformed requests are committed and skipped.
func (bc *BatchConsumer) Process(ctx context.Context, msg *kafka.Message, committer Committer) error {
	var req models.BatchRequest
	if err := utils.DeserializeFromJSON(msg.Value, &req); err != nil {
		utils.HandleConsumerError(err)
		bc.commit(committer, msg)
		return nil
	}
	if req.BatchID == "" {
		req.BatchID = string(msg.Key)
	}

	wait := bc.backoff
	for {
		err := bc.Handle(ctx, req)
		if err == nil {
			bc.commit(committer, msg)
			return nil
		}
		if errors.Is(err, errMissingBatchID) {
			slog.Error("[BatchConsumer] Skipping batch", slog.String("error", err.Error()))
			bc.commit(committer, msg)
			return nil
		}

		slog.Error("[BatchConsumer] Failed to handle batch, retrying",
			slog.String("batch_id", req.BatchID),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return fmt.Errorf("[BatchConsumer] batch %s left uncommitted: %w", req.BatchID, ctx.Err())
		case <-time.After(wait):
		}
		wait = min(wait*2, batchMaxRetryBackoff)
	}
}

func (bc *BatchConsumer) commit(committer Committer, msg *kafka.Message) {
	if committer == nil {
		return
	}
	if err := committer.Commit(msg); err != nil {
		slog.Warn("[BatchConsumer] Failed to commit offset", slog.String("error", err.Error()))
	}
}

func (bc *BatchConsumer) Summarize(ctx context.Context, req models.BatchRequest) models.AnalyzedBatch {
	topN := req.TopN
	if topN <= 0 {
		topN = bc.topN
	}
	return models.AnalyzedBatch{
		BatchID:    req.BatchID,
		Summary:    bc.analyzer.AnalyzeBatch(ctx, req.Reviews, req.Label, topN),
		AnalyzedAt: bc.now().UTC(),
	}
}

// Handle summarizes req and publishes the summary.
func (bc *BatchConsumer) Handle(ctx context.Context, req models.BatchRequest) error {
	if req.BatchID == "" {
		return fmt.Errorf("[BatchConsumer] %w", errMissingBatchID)
	}
	batch := bc.Summarize(ctx, req)
	return publishWithRetry(ctx, bc.publish, kafka_client.KAFKA_TOPIC_BATCH_SUMMARIES,
		[]kafka_client.Record{{Key: batch.BatchID, Value: batch}})
}
