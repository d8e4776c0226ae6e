// Package openai implements analysis.Completer for any service that speaks
// the OpenAI chat completions API, using github.com/openai/openai-go.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/phrazzld/clarity-api/internal/analysis"
	"github.com/phrazzld/clarity-api/internal/config"
)

// ProviderName identifies this adapter in configuration and logs.
const ProviderName = "openai"

// Completer sends prompts as a single user message to a chat completions endpoint.
type Completer struct {
	logger      *slog.Logger
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

var _ analysis.Completer = (*Completer)(nil)

// NewCompleter creates a Completer from the LLM configuration. The client
// never retries; a failed analysis is retried by the user.
func NewCompleter(logger *slog.Logger, cfg config.LLMConfig, httpClient *http.Client) (*Completer, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", analysis.ErrInvalidConfig)
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", analysis.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", analysis.ErrInvalidConfig)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(0),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Completer{
		logger:      logger.With(slog.String("provider", ProviderName), slog.String("model", cfg.ModelName)),
		client:      openai.NewClient(opts...),
		model:       cfg.ModelName,
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxTokens),
	}, nil
}

// Complete implements analysis.Completer.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(c.maxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", analysis.ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", fmt.Errorf("%w: response filtered", analysis.ErrContentBlocked)
	}

	c.logger.DebugContext(ctx, "chat completion successful",
		slog.String("finish_reason", choice.FinishReason),
		slog.Int("reply_length", len(choice.Message.Content)))
	return choice.Message.Content, nil
}

// mapError converts an openai client error into an analysis error.
func mapError(ctx context.Context, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &analysis.StatusError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return analysis.ClassifyTransportError(ctx, err)
}
