package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/models"
)

type textClassificationPipeline interface {
	RunPipeline(inputs []string) (*pipelines.TextClassificationOutput, error)
}

// HugotClassifier runs an exported sentiment model in-process through ONNX
// Runtime.
type HugotClassifier struct {
	session  *hugot.Session
	pipeline textClassificationPipeline
	mu       sync.Mutex
}

func NewHugotClassifier(modelPath string) (*HugotClassifier, error) {
	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("[HugotClassifier] failed to initialize session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "absaSentimentPipeline",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("[HugotClassifier] failed to initialize pipeline: %w", err)
	}

	slog.Info("[HugotClassifier] Pipeline ready", slog.String("model_path", modelPath))
	return &HugotClassifier{session: session, pipeline: pipeline}, nil
}

func newHugotClassifierWithPipeline(p textClassificationPipeline) *HugotClassifier {
	return &HugotClassifier{pipeline: p}
}

func (h *HugotClassifier) ClassifySentiment(ctx context.Context, text string) (models.SentimentPrediction, error) {
	predictions, err := h.ClassifySentiments(ctx, []string{text})
	if err != nil {
		return models.SentimentPrediction{}, err
	}
	return predictions[0], nil
}

func (h *HugotClassifier) ClassifySentiments(ctx context.Context, texts []string) ([]models.SentimentPrediction, error) {
	if len(texts) == 0 {
		return nil, absa.ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ORT sessions are not safe for concurrent runs.
	h.mu.Lock()
	output, err := h.pipeline.RunPipeline(texts)
	h.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("[HugotClassifier] pipeline run failed: %w", err)
	}
	if output == nil || len(output.ClassificationOutputs) != len(texts) {
		return nil, fmt.Errorf("[HugotClassifier] expected %d outputs", len(texts))
	}

	predictions := make([]models.SentimentPrediction, 0, len(texts))
	for i, outputs := range output.ClassificationOutputs {
		if len(outputs) == 0 {
			return nil, fmt.Errorf("[HugotClassifier] empty output for input %d", i)
		}
		best := outputs[0]
		for _, o := range outputs[1:] {
			if o.Score > best.Score {
				best = o
			}
		}
		predictions = append(predictions, models.SentimentPrediction{
			Label:      MapLabel(best.Label),
			Confidence: float64(best.Score),
		})
	}
	return predictions, nil
}

func (h *HugotClassifier) Close() error {
	if h.session == nil {
		return nil
	}
	return h.session.Destroy()
}
