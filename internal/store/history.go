package store

import (
	"context"
)

// HistoryStore is a key-value store namespaced by username. Values are
// opaque serialized documents; keys follow the scheme built by SessionKey
// and AccountKey.
//
// Implementations must be safe for concurrent use.
type HistoryStore interface {
	// List returns every key starting with prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Get returns the value stored at key, or an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// KVStore is a HistoryStore that can also insert a key only if it is absent.
// Account registration relies on it to reject duplicate usernames atomically.
type KVStore interface {
	HistoryStore

	// Create stores value at key, failing with an error wrapping ErrDuplicate
	// when the key already exists.
	Create(ctx context.Context, key string, value []byte) error
}
