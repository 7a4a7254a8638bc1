// Package llm extracts structured invoice data from OCR text with a single
// chat-completion call. It is a thin collaborator around the OpenAI API:
// the page texts go in with a fixed JSON-schema system prompt, the response
// is parsed straight into the canonical invoice record.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"invex/internal/logger"
	"invex/pkg/models"
)

// DefaultModel is used when OPENAI_MODEL is not configured.
const DefaultModel = "gpt-4o-mini"

// Extractor performs LLM-based invoice extraction.
type Extractor struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// Usage records token consumption and timing for one extraction, written
// to usage.json beside the invoice output.
type Usage struct {
	Model            string  `json:"model"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Retried          bool    `json:"retried"`
	ElapsedSec       float64 `json:"elapsed_sec"`
}

// NewExtractor creates an extractor from the environment. OPENAI_API_KEY is
// required; OPENAI_MODEL and OPENAI_BASE_URL are optional.
func NewExtractor() (*Extractor, error) {
	const op = "NewExtractor"

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%s: OPENAI_API_KEY environment variable is required", op)
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = DefaultModel
	}

	return NewExtractorWithClient(openai.NewClientWithConfig(config), model), nil
}

// NewExtractorWithClient creates an extractor with an explicit client
// (for testing).
func NewExtractorWithClient(client *openai.Client, model string) *Extractor {
	return &Extractor{
		client: client,
		model:  model,
		log:    logger.WithComponent("llm-extractor"),
	}
}

// Extract sends the page texts to the model and parses the JSON reply into
// an invoice record. A completion that comes back shorter than the prompt
// is re-requested once before being accepted; truncated replies from
// degraded model responses usually recover on the second attempt.
func (e *Extractor) Extract(ctx context.Context, pages []string) (*models.InvoiceRecord, *Usage, error) {
	const op = "Extract"
	startTime := time.Now()

	combined := combinePages(pages)

	e.log.Info().
		Str("model", e.model).
		Int("pages", len(pages)).
		Int("text_length", len(combined)).
		Msg("Starting LLM invoice extraction")

	resp, err := e.complete(ctx, combined)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: completion failed: %w", op, err)
	}

	usage := &Usage{
		Model:            e.model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	if usage.CompletionTokens > 0 && usage.CompletionTokens < usage.PromptTokens {
		e.log.Warn().
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Msg("Completion shorter than prompt, retrying once")

		resp, err = e.complete(ctx, combined)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: retry completion failed: %w", op, err)
		}
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
		usage.TotalTokens = resp.Usage.TotalTokens
		usage.Retried = true
	}

	if len(resp.Choices) == 0 {
		return nil, nil, fmt.Errorf("%s: model returned no choices", op)
	}

	var record models.InvoiceRecord
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &record); err != nil {
		return nil, nil, fmt.Errorf("%s: model returned invalid JSON: %w", op, err)
	}

	usage.ElapsedSec = math.Round(time.Since(startTime).Seconds()*100) / 100

	e.log.Info().
		Int("items", len(record.Items)).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Float64("elapsed_sec", usage.ElapsedSec).
		Msg("LLM extraction completed")

	return &record, usage, nil
}

func (e *Extractor) complete(ctx context.Context, text string) (openai.ChatCompletionResponse, error) {
	return e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
}

// combinePages joins page texts with page markers so the model can reason
// about page boundaries.
func combinePages(pages []string) string {
	var b strings.Builder
	for i, text := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "=== Page %d ===\n%s", i+1, text)
	}
	return b.String()
}
