package consumers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/aspectflow/internal/clients/kafka_client"
	"github.com/spacesedan/aspectflow/internal/utils"
)

const healthPollInterval = time.Second

type ConsumerWrapper struct {
	fn     func(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool)
	health []*atomic.Bool
}

func WrapConsumer(fn func(ctx context.Context, consumer *kafka.Consumer, health ...*atomic.Bool), health ...*atomic.Bool) ConsumerWrapper {
	return ConsumerWrapper{
		fn:     fn,
		health: health,
	}
}

func (cw ConsumerWrapper) WithHealthCheck(health *atomic.Bool) ConsumerWrapper {
	cw.health = append(cw.health, health)
	return cw
}

func (cw ConsumerWrapper) Handler() kafka_client.ConsumerFunc {
	return func(ctx context.Context, consumer *kafka.Consumer) {
		cw.fn(ctx, consumer, cw.health...)
	}
}

func allHealthy(health []*atomic.Bool) bool {
	for _, h := range health {
		if h != nil && !h.Load() {
			return false
		}
	}
	return true
}

// WaitForHealthy blocks until every flag is set. It returns false if ctx
// ends first.
func WaitForHealthy(ctx context.Context, interval time.Duration, health ...*atomic.Bool) bool {
	if allHealthy(health) {
		return true
	}
	slog.Warn("[ConsumerWrapper] Dependencies unhealthy, pausing consumption")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if allHealthy(health) {
				slog.Info("[ConsumerWrapper] Dependencies healthy, resuming consumption")
				return true
			}
		}
	}
}

// consumeLoop reads messages until ctx ends. onMessage handles each message
// and flush runs on every tick, whenever the topic goes quiet and once more
// on shutdown.
func consumeLoop(ctx context.Context, consumer *kafka.Consumer, name string, health []*atomic.Bool,
	onMessage func(*kafka.Message), flush func()) {
	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)

	ticker := time.NewTicker(utils.BATCH_TIMEOUT)
	defer ticker.Stop()

	slog.Info("["+name+"] Listening for messages...")
	for {
		select {
		case <-ctx.Done():
			slog.Warn("[" + name + "] Stopping consumer...")
			flush()
			return
		case <-ticker.C:
			flush()
		default:
			if !WaitForHealthy(ctx, healthPollInterval, health...) {
				continue
			}

			msg, err := iterator.Next()
			if errors.Is(err, kafka_client.ErrNoMessage) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				utils.HandleConsumerError(err)
				continue
			}
			onMessage(msg)
		}
	}
}
