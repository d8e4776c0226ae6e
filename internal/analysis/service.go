package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/clarity-api/internal/domain"
)

// Service implements Gateway on top of a Completer. It renders the prompt,
// sends it once and parses the reply. There is no retry; a retry is a new
// call by the user.
type Service struct {
	completer Completer
	prompts   *PromptBuilder
	logger    *slog.Logger
	provider  string
}

var _ Gateway = (*Service)(nil)

// NewService wires a Completer into a Gateway.
//
// Parameters:
//   - completer: The provider client that returns raw reply text
//   - prompts: The prompt builder
//   - provider: Provider name, used in logs only
//   - logger: A structured logger
//
// Returns:
//   - The service, or ErrInvalidConfig if a dependency is missing
func NewService(completer Completer, prompts *PromptBuilder, provider string, logger *slog.Logger) (*Service, error) {
	if completer == nil {
		return nil, fmt.Errorf("%w: completer cannot be nil", ErrInvalidConfig)
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompt builder cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}
	return &Service{
		completer: completer,
		prompts:   prompts,
		logger:    logger.With(slog.String("provider", provider)),
		provider:  provider,
	}, nil
}

// Separate implements Gateway.
func (s *Service) Separate(ctx context.Context, emotions []string, event, need string) (*domain.Separation, error) {
	prompt, err := s.prompts.Build(emotions, event, need)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "sending separation request",
		slog.Int("emotion_count", len(emotions)),
		slog.Int("prompt_length", len(prompt)))

	started := time.Now()
	reply, err := s.completer.Complete(ctx, prompt)
	elapsed := time.Since(started)
	if err != nil {
		err = ClassifyTransportError(ctx, err)
		s.logger.WarnContext(ctx, "separation request failed",
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))
		return nil, err
	}

	sep, err := ParseSeparation(reply)
	if err != nil {
		s.logger.WarnContext(ctx, "separation reply rejected",
			slog.Duration("elapsed", elapsed),
			slog.Int("reply_length", len(reply)),
			slog.Any("error", err))
		return nil, err
	}

	s.logger.InfoContext(ctx, "separation analysis completed",
		slog.Duration("elapsed", elapsed),
		slog.Int("uncontrollable", len(sep.Uncontrollable)),
		slog.Int("controllable", len(sep.Controllable)),
		slog.Int("actions", len(sep.Actions)))
	return sep, nil
}
