package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/aspectflow/config"
	"github.com/spacesedan/aspectflow/internal/clients"
	"github.com/spacesedan/aspectflow/internal/logging"
	"github.com/spacesedan/aspectflow/internal/models"
	"github.com/spacesedan/aspectflow/internal/streams"
)

func main() {
	replay := flag.Bool("replay", false, "start from the oldest record still in the stream")
	interval := flag.Duration("report", time.Minute, "how often to log product sentiment")
	flag.Parse()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := clients.GetDynamoDBStreamClient()
	if err != nil {
		slog.Error("[StreamHandler] Failed to create stream client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tailer := streams.NewReviewTailer(client)
	if *replay {
		tailer.FromStart()
	}

	tally := streams.NewProductTally()
	go report(ctx, tally, *interval)

	err = tailer.Run(ctx, func(review models.AnalyzedReview) {
		tally.Add(review)
		slog.Debug("[StreamHandler] Review received",
			slog.String("review_id", review.ReviewID),
			slog.String("product_id", review.ProductID),
			slog.String("sentiment", string(review.OverallSentiment)))
	})
	if err != nil {
		slog.Error("[StreamHandler] Stream tailing failed", slog.String("error", err.Error()))
	}
	logTally(tally)
}

func report(ctx context.Context, tally *streams.ProductTally, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logTally(tally)
		}
	}
}

func logTally(tally *streams.ProductTally) {
	for _, product := range tally.Products() {
		s := tally.Stats(product)
		slog.Info("[StreamHandler] Product sentiment",
			slog.String("product_id", product),
			slog.Int("total", s.Total),
			slog.Int("positive", s.Positive),
			slog.Int("neutral", s.Neutral),
			slog.Int("negative", s.Negative))
	}
}
