package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrInvalidCredentials is returned by Authenticate for an unknown
	// username or a wrong password. The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidConfig is returned by constructors given unusable settings.
	ErrInvalidConfig = errors.New("invalid auth configuration")
)
