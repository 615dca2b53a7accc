package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/models"
	"github.com/spacesedan/aspectflow/internal/sentiment"
)

var (
	huggingFaceInstance *HuggingFaceClient
	huggingFaceOnce     sync.Once
)

// HuggingFaceConfig describes the hosted KeyBERT and sentiment services.
// When ClientID is set, requests carry an OAuth2 client-credentials token.
type HuggingFaceConfig struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	TokenURL       string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// HuggingFaceClient talks to the remote inference services. It implements
// both the candidate generator and the batch sentiment classifier ports.
type HuggingFaceClient struct {
	Client         *http.Client
	baseURL        string
	maxRetries     int
	initialBackoff time.Duration
}

func GetHuggingFaceClient() *HuggingFaceClient {
	var timeout time.Duration
	env := os.Getenv("APP_ENV")
	if env == "production" {
		timeout = 10 * time.Second
	} else {
		timeout = 60 * time.Second
	}
	huggingFaceOnce.Do(func() {
		baseURL := os.Getenv("INFERENCE_BASE_URL")
		if baseURL == "" {
			baseURL = DEFAULT_INFERENCE_BASE_URL
		}
		slog.Info("[HuggingFaceClient] Initializing Client",
			slog.Duration("timeout", timeout),
			slog.String("base_url", baseURL),
			slog.String("env", env))
		huggingFaceInstance = NewHuggingFaceClient(HuggingFaceConfig{
			BaseURL:      baseURL,
			ClientID:     os.Getenv("INFERENCE_CLIENT_ID"),
			ClientSecret: os.Getenv("INFERENCE_CLIENT_SECRET"),
			TokenURL:     os.Getenv("INFERENCE_TOKEN_URL"),
			Timeout:      timeout,
		})
	})
	return huggingFaceInstance
}

func NewHuggingFaceClient(cfg HuggingFaceConfig) *HuggingFaceClient {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = MAX_RETRIES
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = INITIAL_BACKOFF
	}

	httpClient := &http.Client{}
	if cfg.ClientID != "" {
		credentials := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		httpClient = credentials.Client(context.Background())
	}
	httpClient.Timeout = cfg.Timeout

	return &HuggingFaceClient{
		Client:         httpClient,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
	}
}

// DoWithRetry sends the request built by newReq, retrying transport errors
// and 5xx responses with exponential backoff. newReq is called once per
// attempt so request bodies are never reused.
func (h *HuggingFaceClient) DoWithRetry(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := h.initialBackoff

	for attempt := 0; attempt < h.maxRetries; attempt++ {
		req, buildErr := newReq()
		if buildErr != nil {
			return nil, buildErr
		}

		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		msg := errMsg(err, resp)
		if resp != nil {
			resp.Body.Close()
			if err == nil {
				err = fmt.Errorf("status code %d", resp.StatusCode)
			}
			resp = nil
		}

		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", msg))

		if attempt == h.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, MAX_BACKOFF)
	}

	return resp, err
}

func (h *HuggingFaceClient) GenerateCandidates(ctx context.Context, text string, params absa.GenerationParams) ([]models.Candidate, error) {
	req := models.KeyphraseRequest{
		Text:              text,
		NgramRange:        [2]int{params.NgramMin, params.NgramMax},
		StopWords:         "english",
		TopN:              params.TopN,
		UseMMR:            params.UseMMR,
		UseMaxSum:         !params.UseMMR,
		CandidatePoolSize: params.CandidatePoolSize,
	}
	if params.UseMMR {
		req.Diversity = params.Diversity
	}

	var result models.KeyphraseResponse
	start := time.Now()
	if err := h.postJSON(ctx, KEYPHRASE_ENDPOINT, req, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", absa.ErrGenerationFailed, err)
	}

	slog.Debug("[HuggingFaceClient] Keyphrase request successful",
		slog.Int("candidates", len(result.Keywords)),
		slog.Duration("elapsed", time.Since(start)))
	return result.Keywords, nil
}

func (h *HuggingFaceClient) ClassifySentiment(ctx context.Context, text string) (models.SentimentPrediction, error) {
	if strings.TrimSpace(text) == "" {
		return models.SentimentPrediction{}, absa.ErrEmptyText
	}

	var result models.SentimentAnalysisResponse
	if err := h.postJSON(ctx, SENTIMENT_ENDPOINT, models.SentimentAnalysisRequest{Text: text}, &result); err != nil {
		return models.SentimentPrediction{}, fmt.Errorf("%w: %w", absa.ErrClassificationFailed, err)
	}
	return toPrediction(result), nil
}

func (h *HuggingFaceClient) ClassifySentiments(ctx context.Context, texts []string) ([]models.SentimentPrediction, error) {
	if len(texts) == 0 {
		return nil, absa.ErrEmptyText
	}

	var result models.SentimentAnalysisBatchResponse
	slog.Info("[HuggingFaceClient] Requesting batch sentiment analysis", slog.Int("texts", len(texts)))
	start := time.Now()

	if err := h.postJSON(ctx, BATCH_SENTIMENT_ENDPOINT, models.SentimentAnalysisBatchRequest{Reviews: texts}, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", absa.ErrClassificationFailed, err)
	}
	if len(result.Predictions) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d predictions, got %d",
			absa.ErrClassificationFailed, len(texts), len(result.Predictions))
	}

	predictions := make([]models.SentimentPrediction, 0, len(result.Predictions))
	for _, p := range result.Predictions {
		predictions = append(predictions, toPrediction(p))
	}

	slog.Info("[HuggingFaceClient] Batch sentiment analysis successful",
		slog.Duration("elapsed", time.Since(start)))
	return predictions, nil
}

// HealthCheck reports whether the inference service answers its health endpoint.
func (h *HuggingFaceClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+HEALTH_ENDPOINT, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := h.Client.Do(req)
	if err != nil {
		slog.Debug("[HuggingFaceClient] Health check failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var health models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	return health.Status == "healthy" || health.Status == "ok"
}

func toPrediction(r models.SentimentAnalysisResponse) models.SentimentPrediction {
	return models.SentimentPrediction{
		Label:      sentiment.MapLabel(r.Sentiment),
		Confidence: r.Confidence,
	}
}

// helper function for posting data to the inference services
func (h *HuggingFaceClient) postJSON(ctx context.Context, endpoint string, input interface{}, output interface{}) error {
	url := h.baseURL + endpoint
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("[HuggingFaceClient] failed to marshal input: %w", err)
	}

	resp, err := h.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("[HuggingFaceClient] failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		return req, nil
	})
	if err != nil {
		slog.Warn("[HuggingFaceClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("[HuggingFaceClient] request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("[HuggingFaceClient] failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("[HuggingFaceClient] %s returned status %d", endpoint, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Warn("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))
		return fmt.Errorf("[HuggingFaceClient] failed to unmarshal response: %w", err)
	}

	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
