// Package memory provides an in-process store.KVStore. Contents are lost
// when the process exits; it backs local development and tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/phrazzld/clarity-api/internal/store"
)

// Store is a map-backed store.KVStore safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ store.KVStore = (*Store)(nil)

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// List implements store.HistoryStore.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewStoreError("record", "list", "context done", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Get implements store.HistoryStore.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewStoreError(store.EntityForKey(key), "get", "context done", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, store.NotFoundFor(key)
	}
	return clone(v), nil
}

// Set implements store.HistoryStore.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return store.NewStoreError(store.EntityForKey(key), "set", "context done", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = clone(value)
	return nil
}

// Create implements store.KVStore.
func (s *Store) Create(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return store.NewStoreError(store.EntityForKey(key), "create", "context done", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return store.ErrDuplicate
	}
	s.data[key] = clone(value)
	return nil
}

// Delete implements store.HistoryStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return store.NewStoreError(store.EntityForKey(key), "delete", "context done", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
