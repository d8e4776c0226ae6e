// Package storetest holds a behavioural test suite shared by every
// store.KVStore implementation.
package storetest

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/phrazzld/clarity-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s against the store.KVStore contract. s must start empty.
func Run(t *testing.T, s store.KVStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, store.SessionKey("nobody", 1))
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, err, store.ErrRecordNotFound)

		_, err = s.Get(ctx, store.AccountKey("nobody"))
		assert.ErrorIs(t, err, store.ErrAccountNotFound)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		key := store.SessionKey("alice", 100)
		require.NoError(t, s.Set(ctx, key, []byte(`{"v":1}`)))

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"v":1}`, string(got))

		require.NoError(t, s.Set(ctx, key, []byte(`{"v":2}`)))
		got, err = s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"v":2}`, string(got))
	})

	t.Run("list by prefix", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, store.SessionKey("alice", 200), []byte(`{}`)))
		require.NoError(t, s.Set(ctx, store.SessionKey("alice2", 300), []byte(`{}`)))
		require.NoError(t, s.Set(ctx, store.AccountKey("alice"), []byte(`{}`)))

		keys, err := s.List(ctx, store.SessionPrefix("alice"))
		require.NoError(t, err)
		sort.Strings(keys)
		assert.Equal(t, []string{store.SessionKey("alice", 100), store.SessionKey("alice", 200)}, keys)

		keys, err = s.List(ctx, store.SessionPrefix("carol"))
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("prefix with wildcard characters", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, store.SessionKey("a_b", 1), []byte(`{}`)))
		require.NoError(t, s.Set(ctx, store.SessionKey("axb", 1), []byte(`{}`)))
		require.NoError(t, s.Set(ctx, store.SessionKey("a%b", 1), []byte(`{}`)))

		keys, err := s.List(ctx, store.SessionPrefix("a_b"))
		require.NoError(t, err)
		assert.Equal(t, []string{store.SessionKey("a_b", 1)}, keys)

		keys, err = s.List(ctx, store.SessionPrefix("a%b"))
		require.NoError(t, err)
		assert.Equal(t, []string{store.SessionKey("a%b", 1)}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		key := store.SessionKey("dave", 1)
		require.NoError(t, s.Set(ctx, key, []byte(`{}`)))
		require.NoError(t, s.Delete(ctx, key))

		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, store.ErrNotFound)

		// deleting again is a no-op
		require.NoError(t, s.Delete(ctx, key))
	})

	t.Run("create", func(t *testing.T) {
		key := store.AccountKey("erin")
		require.NoError(t, s.Create(ctx, key, []byte(`{"n":1}`)))

		err := s.Create(ctx, key, []byte(`{"n":2}`))
		assert.ErrorIs(t, err, store.ErrDuplicate)

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"n":1}`, string(got))
	})

	t.Run("concurrent create admits one", func(t *testing.T) {
		key := store.AccountKey("frank")
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.Create(ctx, key, []byte(`{}`)); err == nil {
					mu.Lock()
					success++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, success)
	})

	t.Run("values are copied", func(t *testing.T) {
		key := store.SessionKey("gina", 1)
		value := []byte(`{"a":1}`)
		require.NoError(t, s.Set(ctx, key, value))
		value[2] = 'b'

		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(got))
	})
}
