package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spacesedan/aspectflow/config"
	"github.com/spacesedan/aspectflow/internal/app"
	"github.com/spacesedan/aspectflow/internal/logging"
	"github.com/spacesedan/aspectflow/internal/models"
	"github.com/spacesedan/aspectflow/internal/sentiment"
)

func main() {
	text := flag.String("text", "", "review text to analyze")
	file := flag.String("file", "", "file with one review per line (- for stdin)")
	batch := flag.Bool("batch", false, "summarize every review in -file as one product")
	label := flag.String("label", "Product", "product name used in batch insights")
	topN := flag.Int("top-n", 0, "aspects to keep (defaults to ABSA_TOP_N or ABSA_BATCH_TOP_N)")
	markdown := flag.Bool("markdown", false, "strip markdown and links before analysis")
	flag.Parse()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reviews, err := readReviews(*text, *file)
	if err != nil {
		slog.Error("[Analyze] Failed to read reviews", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *markdown {
		for i, r := range reviews {
			reviews[i] = sentiment.ConvertMarkdownToText(r)
		}
	}

	cfg := config.GetAppConfig()
	pipeline, err := app.Build(cfg)
	if err != nil {
		slog.Error("[Analyze] Failed to build analyzer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pipeline.Close()

	var out any
	if *batch {
		n := *topN
		if n <= 0 {
			n = cfg.BatchTopN
		}
		out = pipeline.Analyzer.AnalyzeBatch(ctx, reviews, *label, n)
	} else {
		n := *topN
		if n <= 0 {
			n = cfg.TopN
		}
		results := make([]models.ReviewResult, 0, len(reviews))
		for _, r := range reviews {
			results = append(results, pipeline.Analyzer.AnalyzeReview(ctx, r, n))
		}
		if len(results) == 1 {
			out = results[0]
		} else {
			out = results
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		slog.Error("[Analyze] Failed to write output", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func readReviews(text, file string) ([]string, error) {
	if text != "" {
		return []string{text}, nil
	}
	if file == "" {
		return nil, fmt.Errorf("either -text or -file is required")
	}

	var r io.Reader = os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var reviews []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			reviews = append(reviews, line)
		}
	}
	return reviews, scanner.Err()
}
