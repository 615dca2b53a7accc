package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/clients/kafka_client"
	"github.com/spacesedan/aspectflow/internal/models"
	"github.com/spacesedan/aspectflow/internal/utils"
)

// ReviewConsumer analyzes single review requests in small batches and
// publishes the results for storage.
type ReviewConsumer struct {
	analyzer *absa.Analyzer
	topN     int
	publish  Publisher
	tracker  ProcessedTracker
	now      func() time.Time

	buffer   *utils.BatchBuffer[models.ReviewRequest]
	messages *utils.MessageTracker
}

// NewReviewConsumer builds a consumer. tracker may be nil, in which case
// redelivered reviews are analyzed again.
func NewReviewConsumer(analyzer *absa.Analyzer, topN int, publish Publisher, tracker ProcessedTracker) *ReviewConsumer {
	if topN <= 0 {
		topN = absa.DefaultTopN
	}
	return &ReviewConsumer{
		analyzer: analyzer,
		topN:     topN,
		publish:  publish,
		tracker:  tracker,
		now:      time.Now,
		buffer:   utils.NewBatchBuffer[models.ReviewRequest](),
		messages: utils.NewMessageTracker(),
	}
}

func (rc *ReviewConsumer) Run(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool) {
	// Shutdown flushes and commits must outlive ctx.
	flushCtx := context.WithoutCancel(ctx)
	committer := kafka_client.NewCommitHandler(flushCtx, consumer)
	flush := func() {
		if err := rc.Flush(flushCtx, committer); err != nil {
			slog.Error("[ReviewConsumer] Flush failed", slog.String("error", err.Error()))
		}
	}

	consumeLoop(ctx, consumer, "ReviewConsumer", health, func(msg *kafka.Message) {
		var req models.ReviewRequest
		if err := utils.DeserializeFromJSON(msg.Value, &req); err != nil {
			utils.HandleConsumerError(err)
			return
		}
		if req.ReviewID == "" {
			req.ReviewID = string(msg.Key)
		}
		if rc.Enqueue(req, msg) >= utils.BATCH_SIZE {
			flush()
		}
	}, flush)
}

// Enqueue buffers a request and remembers its message for the commit. It
// returns the buffer size.
func (rc *ReviewConsumer) Enqueue(req models.ReviewRequest, msg *kafka.Message) int {
	if msg != nil {
		rc.messages.Track(req.ReviewID, msg)
	}
	rc.buffer.Add(req)
	return rc.buffer.Size()
}

// AnalyzeRequests analyzes each request in order. Blank and already
// processed reviews are skipped.
func (rc *ReviewConsumer) AnalyzeRequests(ctx context.Context, requests []models.ReviewRequest) []models.AnalyzedReview {
	analyzed := make([]models.AnalyzedReview, 0, len(requests))
	for _, req := range requests {
		if strings.TrimSpace(req.Text) == "" {
			slog.Warn("[ReviewConsumer] Skipping empty review", slog.String("review_id", req.ReviewID))
			continue
		}
		if rc.tracker != nil && rc.tracker.IsProcessed(ctx, req.ReviewID) {
			slog.Debug("[ReviewConsumer] Skipping processed review", slog.String("review_id", req.ReviewID))
			continue
		}

		topN := req.TopN
		if topN <= 0 {
			topN = rc.topN
		}
		analyzed = append(analyzed, models.AnalyzedReview{
			ReviewRequest: req,
			ReviewResult:  rc.analyzer.AnalyzeReview(ctx, req.Text, topN),
			AnalyzedAt:    rc.now().UTC(),
		})
	}
	return analyzed
}

// Flush analyzes everything buffered, publishes the results and commits the
// source messages. When publishing fails nothing is committed and the batch
// is requeued for the next flush.
func (rc *ReviewConsumer) Flush(ctx context.Context, committer Committer) error {
	batch := rc.buffer.GetAndClear()
	if len(batch) == 0 {
		return nil
	}
	start := time.Now()

	analyzed := rc.AnalyzeRequests(ctx, batch)
	records := make([]kafka_client.Record, 0, len(analyzed))
	ids := make([]string, 0, len(analyzed))
	for _, a := range analyzed {
		records = append(records, kafka_client.Record{Key: a.ReviewID, Value: a})
		ids = append(ids, a.ReviewID)
	}

	if err := publishWithRetry(ctx, rc.publish, kafka_client.KAFKA_TOPIC_REVIEW_RESULTS, records); err != nil {
		rc.buffer.Requeue(batch)
		return fmt.Errorf("[ReviewConsumer] requeued %d requests: %w", len(batch), err)
	}

	if rc.tracker != nil && len(ids) > 0 {
		if err := rc.tracker.MarkProcessed(ctx, ids...); err != nil {
			slog.Warn("[ReviewConsumer] Failed to mark reviews processed", slog.String("error", err.Error()))
		}
	}

	commitReleased(rc.messages, committer, batch, func(r models.ReviewRequest) string { return r.ReviewID })

	slog.Info("[ReviewConsumer] Batch analyzed",
		slog.Int("received", len(batch)),
		slog.Int("analyzed", len(analyzed)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func publishWithRetry(ctx context.Context, publish Publisher, topic string, records []kafka_client.Record) error {
	if len(records) == 0 {
		return nil
	}
	var err error
	for i := 0; i < publishAttempts; i++ {
		if err = publish(ctx, topic, records...); err == nil {
			return nil
		}
		slog.Warn("[Consumers] Publishing failed",
			slog.String("topic", topic),
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		if i == publishAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("[Consumers] publishing to %s failed after %d attempts: %w", topic, publishAttempts, err)
}

func commitReleased[T any](messages *utils.MessageTracker, committer Committer, items []T, id func(T) string) {
	for _, item := range items {
		msg, found := messages.Release(id(item))
		if !found || committer == nil {
			continue
		}
		if err := committer.Commit(msg); err != nil {
			slog.Warn("[Consumers] Failed to commit offset", slog.String("error", err.Error()))
		}
	}
}
