package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spacesedan/aspectflow/config"
	"github.com/spacesedan/aspectflow/internal/clients/kafka_client"
	"github.com/spacesedan/aspectflow/internal/logging"
	"github.com/spacesedan/aspectflow/internal/models"
	"github.com/spacesedan/aspectflow/internal/utils"
)

func main() {
	file := flag.String("file", "", "file with one review per line")
	productID := flag.String("product", "", "product the reviews belong to")
	source := flag.String("source", "file", "source recorded in review metadata")
	batch := flag.Bool("batch", false, "publish one batch request instead of single reviews")
	label := flag.String("label", "Product", "product name for batch insights")
	flag.Parse()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reviews, err := readLines(*file)
	if err != nil {
		slog.Error("[Producer] Failed to read reviews", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg := kafka_client.GetKafkaConfig()
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

	if *batch {
		req := models.BatchRequest{BatchID: reviewID(*productID, strings.Join(reviews, "\n")), Label: *label, Reviews: reviews}
		if err := kafka_client.PublishToKafka(ctx, kafka_client.KAFKA_TOPIC_BATCH_REQUESTS,
			kafka_client.Record{Key: req.BatchID, Value: req}); err != nil {
			slog.Error("[Producer] Failed to publish batch", slog.String("error", err.Error()))
			return
		}
		slog.Info("[Producer] Published batch request",
			slog.String("batch_id", req.BatchID),
			slog.Int("reviews", len(reviews)))
		return
	}

	buffer := utils.NewBatchBuffer[kafka_client.Record]()
	publish := func() {
		records := buffer.GetAndClear()
		if len(records) == 0 {
			return
		}
		if err := kafka_client.PublishToKafka(ctx, kafka_client.KAFKA_TOPIC_REVIEW_REQUESTS, records...); err != nil {
			slog.Error("[Producer] Failed to publish reviews", slog.String("error", err.Error()))
		}
	}

	now := time.Now().UTC()
	for _, text := range reviews {
		req := models.ReviewRequest{
			ReviewID:  reviewID(*productID, text),
			ProductID: *productID,
			Text:      text,
			Metadata:  models.ReviewMetadata{Timestamp: now, Source: *source},
		}
		buffer.Add(kafka_client.Record{Key: req.ReviewID, Value: req})
		if buffer.Size() >= utils.BATCH_SIZE {
			publish()
		}
	}
	publish()
	slog.Info("[Producer] Published review requests", slog.Int("count", len(reviews)))
}

// reviewID derives a stable id so republishing a file does not duplicate
// reviews downstream.
func reviewID(productID, text string) string {
	hash := sha256.Sum256([]byte(productID + ":" + text))
	return hex.EncodeToString(hash[:])
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
