package keyphrase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"

	"github.com/spacesedan/aspectflow/internal/absa"
	"github.com/spacesedan/aspectflow/internal/clients"
	"github.com/spacesedan/aspectflow/internal/models"
)

const openAIRetryAttempts = 3

const systemPrompt = `
You extract product aspects from customer reviews.

Respond only with a valid JSON object. Do not include any additional text or commentary.

Rules:
- Each keyphrase is a noun phrase copied from the review, between %d and %d words long.
- Prefer concrete product attributes (battery, screen, customer service) over opinions.
- Return at most %d keyphrases, ordered by relevance.
- score is the relevance of the phrase to the review, between 0 and 1.

Expected JSON response format:
{
  "keyphrases": [
    {"phrase": "battery life", "score": 0.82}
  ]
}
`

// OpenAIGenerator asks a chat model for keyphrases. Diversity is left to the
// model, so UseMMR and Diversity are ignored.
type OpenAIGenerator struct {
	client *clients.OpenAIClient
}

func NewOpenAIGenerator(client *clients.OpenAIClient) *OpenAIGenerator {
	return &OpenAIGenerator{client: client}
}

func (g *OpenAIGenerator) GenerateCandidates(ctx context.Context, text string, params absa.GenerationParams) ([]models.Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, absa.ErrEmptyText
	}
	if g.client == nil {
		return nil, fmt.Errorf("%w: [OpenAIGenerator] client is not configured", absa.ErrGenerationFailed)
	}

	var (
		resp *openai.ChatCompletion
		err  error
	)
	request := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(systemPrompt, max(params.NgramMin, 1), max(params.NgramMax, 1), params.TopN)),
			openai.UserMessage(text),
		}),
		Model:       openai.F(g.client.Model),
		Temperature: openai.Float(0),
	}

	for i := 0; i < openAIRetryAttempts; i++ {
		start := time.Now()
		resp, err = g.client.Client.Chat.Completions.New(ctx, request)
		if err == nil && len(resp.Choices) > 0 {
			break
		}
		if err == nil {
			err = fmt.Errorf("response has no choices")
		}
		slog.Warn("[OpenAIGenerator] Failed to get a response from OpenAI, retrying...",
			slog.String("error", err.Error()),
			slog.Int("attempt", i+1),
			slog.Duration("elapsed", time.Since(start)))
		if ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: [OpenAIGenerator] %w", absa.ErrGenerationFailed, err)
	}

	content := resp.Choices[0].Message.Content
	cleaned := cleanOpenAIResponse(content)

	var parsed models.OpenAIKeyphraseResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		slog.Warn("[OpenAIGenerator] Failed to unmarshal keyphrases",
			slog.String("error", err.Error()),
			slog.String("finish_reason", string(resp.Choices[0].FinishReason)))
		return nil, fmt.Errorf("%w: [OpenAIGenerator] malformed response: %w", absa.ErrGenerationFailed, err)
	}

	candidates := make([]models.Candidate, 0, len(parsed.Keyphrases))
	for _, k := range parsed.Keyphrases {
		phrase := strings.TrimSpace(k.Phrase)
		if phrase == "" {
			continue
		}
		candidates = append(candidates, models.Candidate{Phrase: phrase, Score: min(max(k.Score, 0), 1)})
		if params.TopN > 0 && len(candidates) == params.TopN {
			break
		}
	}
	return candidates, nil
}

// cleanOpenAIResponse strips markdown fences around a JSON object. It returns
// "" when what is left is not an object.
func cleanOpenAIResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	cleaned = strings.TrimSpace(cleaned)

	if !(strings.HasPrefix(cleaned, "{") && strings.HasSuffix(cleaned, "}")) {
		snippet := response
		if len(snippet) > 100 {
			snippet = snippet[:100] + "..."
		}
		slog.Warn("[OpenAIGenerator] Response is not a JSON object after cleaning",
			slog.String("response_snippet", snippet))
		return ""
	}
	return cleaned
}
