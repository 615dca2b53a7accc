package clients

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	openAIRequestTimeout = 60 * time.Second // Timeout for individual OpenAI API requests
	DEFAULT_OPENAI_MODEL = openai.ChatModelGPT4oMini
)

var (
	openAIClientInstance *OpenAIClient
	openAIOnce           sync.Once
)

type OpenAIClient struct {
	Client *openai.Client
	Model  openai.ChatModel
}

// GetOpenAIClient returns the shared client, or nil when OPENAI_API_KEY is
// not configured.
func GetOpenAIClient() *OpenAIClient {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		slog.Error("[OpenAIClient] Missing OPENAI_API_KEY in environment variables")
		return nil
	}
	openAIOnce.Do(func() {
		model := openai.ChatModel(os.Getenv("OPENAI_MODEL"))
		if model == "" {
			model = DEFAULT_OPENAI_MODEL
		}
		openAIClientInstance = NewOpenAIClient(model,
			option.WithAPIKey(apiKey),
			option.WithHTTPClient(&http.Client{Timeout: openAIRequestTimeout}))
		slog.Info("[OpenAIClient] OpenAI client initialized with custom HTTP timeout",
			slog.Duration("timeout", openAIRequestTimeout),
			slog.String("model", string(model)))
	})
	return openAIClientInstance
}

func NewOpenAIClient(model openai.ChatModel, opts ...option.RequestOption) *OpenAIClient {
	return &OpenAIClient{
		Client: openai.NewClient(opts...),
		Model:  model,
	}
}
