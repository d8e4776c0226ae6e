package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/clarity-api/internal/platform/memory"
)

// MockHistoryStore implements store.KVStore for testing. Calls fall through
// to an in-memory store unless the matching Fn field is set, so a test can
// fail one operation while the rest behave normally.
type MockHistoryStore struct {
	*memory.Store

	ListFn   func(ctx context.Context, prefix string) ([]string, error)
	GetFn    func(ctx context.Context, key string) ([]byte, error)
	SetFn    func(ctx context.Context, key string, value []byte) error
	DeleteFn func(ctx context.Context, key string) error
	CreateFn func(ctx context.Context, key string, value []byte) error

	mu    sync.Mutex
	calls map[string]int
}

// NewMockHistoryStore creates a mock backed by an empty in-memory store.
func NewMockHistoryStore() *MockHistoryStore {
	return &MockHistoryStore{
		Store: memory.NewStore(),
		calls: make(map[string]int),
	}
}

func (m *MockHistoryStore) track(op string) {
	m.mu.Lock()
	m.calls[op]++
	m.mu.Unlock()
}

// Calls returns how many times op ("list", "get", "set", "delete",
// "create") was invoked.
func (m *MockHistoryStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// List implements store.HistoryStore.
func (m *MockHistoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.track("list")
	if m.ListFn != nil {
		return m.ListFn(ctx, prefix)
	}
	return m.Store.List(ctx, prefix)
}

// Get implements store.HistoryStore.
func (m *MockHistoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.track("get")
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return m.Store.Get(ctx, key)
}

// Set implements store.HistoryStore.
func (m *MockHistoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.track("set")
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value)
	}
	return m.Store.Set(ctx, key, value)
}

// Delete implements store.HistoryStore.
func (m *MockHistoryStore) Delete(ctx context.Context, key string) error {
	m.track("delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return m.Store.Delete(ctx, key)
}

// Create implements store.KVStore.
func (m *MockHistoryStore) Create(ctx context.Context, key string, value []byte) error {
	m.track("create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, key, value)
	}
	return m.Store.Create(ctx, key, value)
}
