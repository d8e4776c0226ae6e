package analysis

import (
	"context"
	"errors"
	"fmt"
)

// ErrAnalysis is the root of every failure of a separation request. The
// session stays at the need stage and the user may retry.
var ErrAnalysis = errors.New("separation analysis failed")

// Failure kinds, all wrapping ErrAnalysis.
var (
	// ErrTransport is returned when the service could not be reached.
	ErrTransport = fmt.Errorf("%w: analysis service unreachable", ErrAnalysis)

	// ErrBadStatus is returned when the service answered with a non-success status.
	ErrBadStatus = fmt.Errorf("%w: analysis service returned an error status", ErrAnalysis)

	// ErrTimeout is returned when the request exceeded its deadline.
	ErrTimeout = fmt.Errorf("%w: analysis timed out", ErrAnalysis)

	// ErrContentBlocked is returned when the service refused the content.
	ErrContentBlocked = fmt.Errorf("%w: content blocked by safety filters", ErrAnalysis)

	// ErrInvalidResponse is returned when the reply holds no parsable document.
	ErrInvalidResponse = fmt.Errorf("%w: invalid response from language model", ErrAnalysis)

	// ErrIncompleteResponse is returned when the document lacks required fields.
	ErrIncompleteResponse = fmt.Errorf("%w: response is missing required fields", ErrAnalysis)
)

var (
	// ErrInvalidConfig is returned when a gateway is constructed with bad settings.
	ErrInvalidConfig = errors.New("invalid analysis gateway configuration")

	// ErrEmptyInput is returned when emotions, event or need is missing.
	ErrEmptyInput = errors.New("analysis input cannot be empty")
)

// StatusError records the status code returned by the analysis service.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("analysis service returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrBadStatus and ErrAnalysis.
func (e *StatusError) Unwrap() error {
	return ErrBadStatus
}

// ClassifyTransportError maps a failed call that carries no service status to
// ErrTimeout or ErrTransport. Errors that already wrap ErrAnalysis pass through.
func ClassifyTransportError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAnalysis) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
