package store

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	sessionNamespace = "emotion"
	accountNamespace = "user"
)

// SessionPrefix returns the prefix shared by every history record of username.
func SessionPrefix(username string) string {
	return sessionNamespace + ":" + username + ":"
}

// SessionKey returns the key of the record saved by username at timestamp
// (Unix milliseconds).
func SessionKey(username string, timestamp int64) string {
	return SessionPrefix(username) + strconv.FormatInt(timestamp, 10)
}

// AccountKey returns the key of the account document for username.
func AccountKey(username string) string {
	return accountNamespace + ":" + username
}

// ParseSessionKey extracts the username and timestamp from a record key.
func ParseSessionKey(key string) (username string, timestamp int64, err error) {
	rest, ok := strings.CutPrefix(key, sessionNamespace+":")
	if !ok {
		return "", 0, fmt.Errorf("%w: %q is not a session key", ErrInvalidKey, key)
	}
	idx := strings.LastIndex(rest, ":")
	if idx <= 0 {
		return "", 0, fmt.Errorf("%w: %q is not a session key", ErrInvalidKey, key)
	}
	timestamp, err = strconv.ParseInt(rest[idx+1:], 10, 64)
	if err != nil || timestamp <= 0 {
		return "", 0, fmt.Errorf("%w: %q has no valid timestamp", ErrInvalidKey, key)
	}
	return rest[:idx], timestamp, nil
}

// EntityForKey names the entity stored at key, for error reporting.
func EntityForKey(key string) string {
	if strings.HasPrefix(key, accountNamespace+":") {
		return "account"
	}
	return "record"
}

// NotFoundFor returns the entity-specific not-found error for key.
func NotFoundFor(key string) error {
	if EntityForKey(key) == "account" {
		return ErrAccountNotFound
	}
	return ErrRecordNotFound
}
