package consumers

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/aspectflow/internal/clients/kafka_client"
	"github.com/spacesedan/aspectflow/internal/models"
	"github.com/spacesedan/aspectflow/internal/utils"
)

// SummaryConsumer persists bulk summaries as they are published.
type SummaryConsumer struct {
	store SummaryStore
}

func NewSummaryConsumer(store SummaryStore) *SummaryConsumer {
	return &SummaryConsumer{store: store}
}

func (sc *SummaryConsumer) Run(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool) {
	committer := kafka_client.NewCommitHandler(ctx, consumer)

	consumeLoop(ctx, consumer, "SummaryConsumer", health, func(msg *kafka.Message) {
		if err := sc.Handle(ctx, msg.Value); err != nil {
			return
		}
		if err := committer.Commit(msg); err != nil {
			slog.Warn("[SummaryConsumer] Failed to commit offset", slog.String("error", err.Error()))
		}
	}, func() {})
}

// Handle decodes and stores one summary message.
func (sc *SummaryConsumer) Handle(ctx context.Context, payload []byte) error {
	var batch models.AnalyzedBatch
	if err := utils.DeserializeFromJSON(payload, &batch); err != nil {
		return err
	}
	if err := sc.store.StoreBulkSummary(ctx, batch); err != nil {
		slog.Error("[SummaryConsumer] Failed to store summary",
			slog.String("batch_id", batch.BatchID),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}
