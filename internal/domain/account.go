package domain

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Account validation errors.
var (
	ErrUsernameTooShort = errors.New("username must be at least 2 characters long")
	ErrUsernameInvalid  = errors.New("username cannot contain ':' or whitespace")
	ErrPasswordTooShort = errors.New("password must be at least 4 characters long")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword    = errors.New("hashed password cannot be empty")
)

const (
	// MinUsernameLength is the shortest accepted username, in characters.
	MinUsernameLength = 2
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 4
	// maxPasswordBytes is bcrypt's input limit.
	maxPasswordBytes = 72
)

// Account is a registered user. Only the username is visible to the session
// core; it namespaces every stored record.
type Account struct {
	Username       string    `json:"username"`
	HashedPassword string    `json:"passwordHash"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ValidateUsername checks that username can be used as a key namespace.
func ValidateUsername(username string) error {
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return ErrUsernameTooShort
	}
	if strings.ContainsRune(username, ':') || strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Validate checks a stored account.
func (a *Account) Validate() error {
	if err := ValidateUsername(a.Username); err != nil {
		return err
	}
	if a.HashedPassword == "" {
		return ErrEmptyPassword
	}
	return nil
}
