package streams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"

	"github.com/spacesedan/aspectflow/internal/db"
	"github.com/spacesedan/aspectflow/internal/models"
)

const (
	DEFAULT_POLL_INTERVAL = 500 * time.Millisecond
	DEFAULT_RETRY_BACKOFF = 200 * time.Millisecond

	maxRetryBackoff = 5 * time.Second
	maxReadAttempts = 6
)

// StreamAPI is the subset of the DynamoDB Streams client the tailer uses.
type StreamAPI interface {
	ListStreams(ctx context.Context, params *dynamodbstreams.ListStreamsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.ListStreamsOutput, error)
	DescribeStream(ctx context.Context, params *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, params *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, params *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error)
}

// ReviewTailer follows newly inserted analyzed reviews on the table stream.
type ReviewTailer struct {
	client       StreamAPI
	table        string
	pollInterval time.Duration
	retryBackoff time.Duration
	iteratorType types.ShardIteratorType
}

func NewReviewTailer(client StreamAPI) *ReviewTailer {
	return &ReviewTailer{
		client:       client,
		table:        db.ANALYZED_REVIEWS_TABLE_NAME,
		pollInterval: DEFAULT_POLL_INTERVAL,
		retryBackoff: DEFAULT_RETRY_BACKOFF,
		iteratorType: types.ShardIteratorTypeLatest,
	}
}

// FromStart makes the tailer replay every record still held by the stream.
func (t *ReviewTailer) FromStart() *ReviewTailer {
	t.iteratorType = types.ShardIteratorTypeTrimHorizon
	return t
}

// Run calls handle for each inserted review until ctx ends or every shard is
// closed with no successor. Shards are read concurrently, so handle must be
// safe for concurrent use. Whenever a shard closes the stream is described
// again and its children are read from their first record.
func (t *ReviewTailer) Run(ctx context.Context, handle func(models.AnalyzedReview)) error {
	streams, err := t.client.ListStreams(ctx, &dynamodbstreams.ListStreamsInput{
		TableName: aws.String(t.table),
	})
	if err != nil {
		return fmt.Errorf("[ReviewStream] failed to list streams: %w", err)
	}
	if len(streams.Streams) == 0 {
		return fmt.Errorf("[ReviewStream] table %s has no stream enabled", t.table)
	}
	streamArn := streams.Streams[0].StreamArn

	var (
		started  = make(map[string]bool)
		finished = make(map[string]bool)
		closed   = make(chan string)
		active   = 0
		first    = true
	)
	drain := func() {
		for ; active > 0; active-- {
			<-closed
		}
	}

	for {
		if ctx.Err() != nil {
			drain()
			return nil
		}

		shards, err := t.describeShards(ctx, streamArn)
		if err != nil {
			if active == 0 {
				return err
			}
			slog.Warn("[ReviewStream] Failed to refresh shards", slog.String("error", err.Error()))
		}

		// Starting from the latest record, history held in closed shards is skipped.
		if first && t.iteratorType == types.ShardIteratorTypeLatest {
			for _, shard := range shards {
				if shard.SequenceNumberRange != nil && shard.SequenceNumberRange.EndingSequenceNumber != nil {
					id := aws.ToString(shard.ShardId)
					started[id] = true
					finished[id] = true
				}
			}
		}

		listed := make(map[string]bool, len(shards))
		for _, shard := range shards {
			listed[aws.ToString(shard.ShardId)] = true
		}
		for _, shard := range shards {
			id := aws.ToString(shard.ShardId)
			parent := aws.ToString(shard.ParentShardId)
			if started[id] || (parent != "" && listed[parent] && !finished[parent]) {
				continue
			}

			iteratorType := types.ShardIteratorTypeTrimHorizon
			if first {
				iteratorType = t.iteratorType
			}
			started[id] = true
			active++
			go func() {
				t.tailShard(ctx, streamArn, id, iteratorType, handle)
				closed <- id
			}()
		}
		first = false

		if active == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			drain()
			return nil
		case id := <-closed:
			active--
			finished[id] = true
		}
	}
}

func (t *ReviewTailer) describeShards(ctx context.Context, streamArn *string) ([]types.Shard, error) {
	var (
		shards []types.Shard
		start  *string
	)
	for {
		out, err := t.client.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
			StreamArn:             streamArn,
			ExclusiveStartShardId: start,
		})
		if err != nil {
			return nil, fmt.Errorf("[ReviewStream] failed to describe stream: %w", err)
		}
		if out.StreamDescription == nil {
			return shards, nil
		}
		shards = append(shards, out.StreamDescription.Shards...)
		start = out.StreamDescription.LastEvaluatedShardId
		if start == nil {
			return shards, nil
		}
	}
}

// tailShard reads one shard until it closes, ctx ends or reads keep failing.
// Failed reads are retried with backoff and an expired iterator resumes after
// the last record seen.
func (t *ReviewTailer) tailShard(ctx context.Context, streamArn *string, shardID string,
	iteratorType types.ShardIteratorType, handle func(models.AnalyzedReview)) {
	var (
		iterator *string
		lastSeq  string
		failures int
	)
	for {
		if iterator == nil {
			var err error
			iterator, err = t.shardIterator(ctx, streamArn, shardID, iteratorType, lastSeq)
			if err != nil {
				if !t.retry(ctx, shardID, &failures, err) {
					return
				}
				continue
			}
			if iterator == nil {
				return
			}
		}

		recordsOutput, err := t.client.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
			ShardIterator: iterator,
		})
		if err != nil {
			var expired *types.ExpiredIteratorException
			if errors.As(err, &expired) {
				iterator = nil
			}
			if !t.retry(ctx, shardID, &failures, err) {
				return
			}
			continue
		}
		failures = 0

		for _, record := range recordsOutput.Records {
			if record.Dynamodb != nil && record.Dynamodb.SequenceNumber != nil {
				lastSeq = *record.Dynamodb.SequenceNumber
			}
			if record.EventName != types.OperationTypeInsert || record.Dynamodb == nil {
				continue
			}
			review, err := decodeReview(record.Dynamodb.NewImage)
			if err != nil {
				slog.Warn("[ReviewStream] Failed to decode review",
					slog.String("event_id", aws.ToString(record.EventID)),
					slog.String("error", err.Error()))
				continue
			}
			handle(review)
		}

		if recordsOutput.NextShardIterator == nil {
			slog.Info("[ReviewStream] Shard closed", slog.String("shard_id", shardID))
			return
		}
		iterator = recordsOutput.NextShardIterator
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.pollInterval):
		}
	}
}

func (t *ReviewTailer) shardIterator(ctx context.Context, streamArn *string, shardID string,
	iteratorType types.ShardIteratorType, afterSeq string) (*string, error) {
	input := &dynamodbstreams.GetShardIteratorInput{
		StreamArn:         streamArn,
		ShardId:           aws.String(shardID),
		ShardIteratorType: iteratorType,
	}
	if afterSeq != "" {
		input.ShardIteratorType = types.ShardIteratorTypeAfterSequenceNumber
		input.SequenceNumber = aws.String(afterSeq)
	}
	out, err := t.client.GetShardIterator(ctx, input)
	if err != nil {
		return nil, err
	}
	return out.ShardIterator, nil
}

// retry counts a failed call and waits before the next one. It returns false
// once the shard should be abandoned.
func (t *ReviewTailer) retry(ctx context.Context, shardID string, failures *int, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	*failures++
	if *failures >= maxReadAttempts {
		slog.Error("[ReviewStream] Giving up on shard",
			slog.String("shard_id", shardID),
			slog.Int("attempts", *failures),
			slog.String("error", err.Error()))
		return false
	}

	wait := min(t.retryBackoff<<(*failures-1), maxRetryBackoff)
	slog.Warn("[ReviewStream] Shard read failed, retrying",
		slog.String("shard_id", shardID),
		slog.Duration("backoff", wait),
		slog.String("error", err.Error()))
	select {
	case <-ctx.Done():
		return false
	case <-time.After(wait):
		return true
	}
}

func decodeReview(image map[string]types.AttributeValue) (models.AnalyzedReview, error) {
	if image == nil {
		return models.AnalyzedReview{}, fmt.Errorf("record has no new image")
	}
	item, err := ConvertStreamImage(image)
	if err != nil {
		return models.AnalyzedReview{}, err
	}
	return db.DecodeAnalyzedReview(item)
}
