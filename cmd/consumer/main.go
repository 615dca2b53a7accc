package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spacesedan/aspectflow/config"
	"github.com/spacesedan/aspectflow/internal/app"
	"github.com/spacesedan/aspectflow/internal/clients/kafka_client"
	"github.com/spacesedan/aspectflow/internal/consumers"
	"github.com/spacesedan/aspectflow/internal/db"
	"github.com/spacesedan/aspectflow/internal/logging"
	"github.com/spacesedan/aspectflow/internal/monitoring"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	cfg := kafka_client.GetKafkaConfig()
	appCfg := config.GetAppConfig()

	switch cfg.Topic {
	case kafka_client.KAFKA_TOPIC_REVIEW_REQUESTS, kafka_client.KAFKA_TOPIC_BATCH_REQUESTS:
		for {
			err := kafka_client.InitKafkaProducer(cfg)
			if err == nil {
				break
			}

			slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
		defer kafka_client.CloseKafkaProducer()

		pipeline, err := app.Build(appCfg)
		if err != nil {
			slog.Error("[Main] Failed to build analyzer", slog.String("error", err.Error()))
			return
		}
		defer pipeline.Close()

		var health []*atomic.Bool
		if pipeline.Inference != nil {
			inferenceHealthy := &atomic.Bool{}
			inferenceHealthy.Store(true)
			go monitoring.MonitorInferenceHealth(ctx, pipeline.Inference, inferenceHealthy, appCfg.HealthInterval)
			health = append(health, inferenceHealthy)
		}

		var tracker consumers.ProcessedTracker
		if pipeline.Cache != nil {
			tracker = pipeline.Cache
		}

		reviews := consumers.NewReviewConsumer(pipeline.Analyzer, appCfg.TopN, kafka_client.PublishToKafka, tracker)
		batches := consumers.NewBatchConsumer(pipeline.Analyzer, appCfg.BatchTopN, kafka_client.PublishToKafka)
		kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_REVIEW_REQUESTS,
			consumers.WrapConsumer(reviews.Run, health...).Handler())
		kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_BATCH_REQUESTS,
			consumers.WrapConsumer(batches.Run, health...).Handler())

	default:
		store, err := db.InitDynamoDB()
		if err != nil {
			slog.Error("[Main] Failed to initialize DynamoDB", slog.String("error", err.Error()))
			return
		}
		kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_REVIEW_RESULTS,
			consumers.WrapConsumer(consumers.NewResultsConsumer(store).Run).Handler())
		kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_BATCH_SUMMARIES,
			consumers.WrapConsumer(consumers.NewSummaryConsumer(store).Run).Handler())
	}

	if err := kafka_client.StartConsumer(ctx, cfg); err != nil {
		slog.Error("[Main] Failed to start consumer",
			slog.String("error", err.Error()))
	}
}
