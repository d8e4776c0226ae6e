package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/clarity-api/internal/analysis"
	"github.com/phrazzld/clarity-api/internal/api/shared"
	"github.com/phrazzld/clarity-api/internal/domain"
	"github.com/phrazzld/clarity-api/internal/service/auth"
	"github.com/phrazzld/clarity-api/internal/session"
	"github.com/phrazzld/clarity-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, session.ErrAnalysisInProgress),
		errors.Is(err, session.ErrStaleAnalysis),
		errors.Is(err, session.ErrSaveInProgress):
		return http.StatusConflict

	// Gate and input failures
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, analysis.ErrEmptyInput):
		return http.StatusUnprocessableEntity

	// Analysis service failures
	case errors.Is(err, analysis.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, analysis.ErrAnalysis):
		return http.StatusBadGateway

	// Bad request errors
	case errors.Is(err, store.ErrInvalidKey):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid username or password"

	case errors.Is(err, store.ErrUsernameExists):
		return "Username already exists"
	case errors.Is(err, session.ErrAnalysisInProgress):
		return "An analysis is already in progress"
	case errors.Is(err, session.ErrStaleAnalysis):
		return "The session was reset before the analysis finished"
	case errors.Is(err, session.ErrSaveInProgress):
		return "The session is being saved"

	// Validation messages are written for the user and carry no internals.
	case errors.Is(err, domain.ErrValidation):
		return strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	case errors.Is(err, analysis.ErrEmptyInput):
		return "Emotions, event and need are required for analysis"

	case errors.Is(err, analysis.ErrTimeout):
		return "The analysis service timed out, please try again"
	case errors.Is(err, analysis.ErrContentBlocked):
		return "The analysis service declined this content"
	case errors.Is(err, analysis.ErrInvalidResponse),
		errors.Is(err, analysis.ErrIncompleteResponse):
		return "The analysis service returned an unusable result, please try again"
	case errors.Is(err, analysis.ErrAnalysis):
		return "The analysis service is unavailable, please try again"

	case errors.Is(err, store.ErrInvalidKey):
		return "Invalid record identifier"
	case errors.Is(err, store.ErrRecordNotFound):
		return "Record not found"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"
	case store.IsStoreError(err):
		return "Storage error"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and safe message for err, logging
// the redacted details.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}

// SanitizeValidationError turns a request validation failure into a short
// message naming the first offending field.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()
	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'LoginRequest.Username' Error:Field validation for 'Username' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				if len(fieldParts) >= 5 {
					return "Invalid " + field + ": " + getValidationTagMessage(fieldParts[3])
				}
				return "Invalid " + field
			}
		}
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gt":
		return "must be positive"
	default:
		return "validation failed"
	}
}
