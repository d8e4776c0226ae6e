package analysis

import (
	"context"
	"strings"

	"github.com/phrazzld/clarity-api/internal/domain"
)

// Gateway splits a situation into what the user can and cannot control.
// This interface is the boundary between the session core and whichever
// text-generation service performs the analysis.
type Gateway interface {
	// Separate analyses the user's emotions, triggering event and need.
	//
	// Parameters:
	//   - ctx: Context for cancellation and the request deadline
	//   - emotions: Selected emotion labels, custom emotion last
	//   - event: Description of what happened
	//   - need: The need the user identified
	//
	// Returns:
	//   - The separation result, fully populated
	//   - An error wrapping ErrAnalysis on any failure; no partial data is returned
	Separate(ctx context.Context, emotions []string, event, need string) (*domain.Separation, error)
}

// Completer sends one prompt to a text-generation service and returns the
// raw reply text. Adapters in internal/platform implement it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// validateInputs rejects requests that cannot produce a meaningful analysis.
func validateInputs(emotions []string, event, need string) error {
	if len(emotions) == 0 || strings.TrimSpace(event) == "" || strings.TrimSpace(need) == "" {
		return ErrEmptyInput
	}
	return nil
}
