package session

import "errors"

var (
	// ErrAnalysisInProgress is returned when an analysis is requested while
	// another one for the same session is still pending.
	ErrAnalysisInProgress = errors.New("analysis already in progress")

	// ErrStaleAnalysis is returned when an analysis result arrives after the
	// session it was requested for was reset. The result is discarded.
	ErrStaleAnalysis = errors.New("analysis result discarded: session was reset")

	// ErrSaveInProgress is returned when a session is edited while its record
	// is being written.
	ErrSaveInProgress = errors.New("session save in progress")

	// ErrInvalidConfig is returned by constructors given unusable dependencies.
	ErrInvalidConfig = errors.New("invalid session configuration")
)
