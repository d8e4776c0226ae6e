// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of every gate or input failure. Callers recover
// from it locally: the session is left unchanged and the user is re-prompted.
var ErrValidation = errors.New("validation failed")

// Validation errors raised by SessionState operations.
var (
	// ErrNoEmotion is returned when leaving the naming stage with neither a
	// catalog emotion nor a custom one.
	ErrNoEmotion = fmt.Errorf("%w: select an emotion or describe your own", ErrValidation)

	// ErrUnknownEmotion is returned when a label is not in the emotion catalog.
	ErrUnknownEmotion = fmt.Errorf("%w: emotion is not in the catalog", ErrValidation)

	// ErrEmotionLimit is returned when a fourth emotion is selected.
	ErrEmotionLimit = fmt.Errorf("%w: at most %d emotions can be selected", ErrValidation, MaxEmotions)

	// ErrCustomEmotionTooLong is returned when the custom label exceeds its length cap.
	ErrCustomEmotionTooLong = fmt.Errorf(
		"%w: custom emotion is limited to %d characters",
		ErrValidation,
		MaxCustomEmotionLength,
	)

	// ErrEmptyEvent is returned when leaving the event stage with a blank description.
	ErrEmptyEvent = fmt.Errorf("%w: event description cannot be empty", ErrValidation)

	// ErrEmptyNeed is returned when analysis is requested without a need.
	ErrEmptyNeed = fmt.Errorf("%w: need cannot be empty", ErrValidation)

	// ErrAnalysisRequired is returned when leaving the need stage before a
	// separation analysis has succeeded.
	ErrAnalysisRequired = fmt.Errorf("%w: separation analysis has not completed", ErrValidation)

	// ErrInvalidTransition is returned for a transition the stage table does not allow.
	ErrInvalidTransition = fmt.Errorf("%w: transition not allowed from this stage", ErrValidation)

	// ErrWrongStage is returned when a field is edited outside the stage that owns it.
	ErrWrongStage = fmt.Errorf("%w: field cannot be edited at this stage", ErrValidation)

	// ErrSessionSaved is returned for any mutation after the session was saved.
	ErrSessionSaved = fmt.Errorf("%w: session has already been saved", ErrValidation)

	// ErrSeparationRecorded is returned when separation results are applied twice.
	ErrSeparationRecorded = fmt.Errorf("%w: separation results are already recorded", ErrValidation)
)

// ErrInvalidRecord is returned when a persisted record fails validation.
var ErrInvalidRecord = errors.New("invalid session record")

// IsValidationError reports whether err is a recoverable validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
