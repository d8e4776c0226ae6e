package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/clarity-api/internal/analysis"
	"github.com/phrazzld/clarity-api/internal/config"
	"google.golang.org/genai"
)

// ProviderName identifies this adapter in configuration and logs.
const ProviderName = "gemini"

// Completer sends prompts to a Gemini model.
type Completer struct {
	logger *slog.Logger
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

var _ analysis.Completer = (*Completer)(nil)

// NewCompleter creates a Completer from the LLM configuration.
//
// Parameters:
//   - ctx: Context for client construction
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model name and sampling settings
//   - httpClient: Optional HTTP client; nil uses the genai default
//
// Returns:
//   - A properly initialized Completer or an error wrapping analysis.ErrInvalidConfig
func NewCompleter(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
	httpClient *http.Client,
) (*Completer, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", analysis.ErrInvalidConfig)
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", analysis.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", analysis.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.GeminiBaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.GeminiBaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", analysis.ErrInvalidConfig, err)
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(cfg.Temperature)),
		ResponseMIMEType: "application/json",
	}
	if cfg.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(cfg.MaxTokens)
	}

	return &Completer{
		logger: logger.With(slog.String("provider", ProviderName), slog.String("model", cfg.ModelName)),
		client: client,
		model:  cfg.ModelName,
		config: genConfig,
	}, nil
}

// Complete implements analysis.Completer.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
	if err != nil {
		return "", mapError(ctx, err)
	}

	if resp == nil {
		return "", fmt.Errorf("%w: nil response", analysis.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", analysis.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no content generated", analysis.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response blocked", analysis.ErrContentBlocked)
	}

	text := resp.Text()
	c.logger.DebugContext(ctx, "Gemini API call successful",
		slog.String("finish_reason", string(resp.Candidates[0].FinishReason)),
		slog.Int("reply_length", len(text)))
	return text, nil
}

// mapError converts a genai client error into an analysis error.
func mapError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &analysis.StatusError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	return analysis.ClassifyTransportError(ctx, err)
}
