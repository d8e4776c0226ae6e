// Package sqlite implements store.KVStore on an embedded SQLite database
// using the pure-Go modernc.org/sqlite driver, so the server runs with
// durable history and no external database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/clarity-api/internal/store"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const (
	listQuery   = `SELECT key FROM kv_records WHERE key LIKE ? ESCAPE '\' ORDER BY key`
	getQuery    = `SELECT value FROM kv_records WHERE key = ?`
	upsertQuery = `INSERT INTO kv_records (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	insertQuery = `INSERT INTO kv_records (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`
	deleteQuery = `DELETE FROM kv_records WHERE key = ?`
)

// Open opens (creating if needed) the database file at path. SQLite allows a
// single writer, so the pool is limited to one connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

// KVStore implements store.KVStore using a SQLite table.
type KVStore struct {
	db store.DBTX
}

var _ store.KVStore = (*KVStore)(nil)

// NewKVStore creates a store over db. The caller owns the connection.
func NewKVStore(db store.DBTX) *KVStore {
	return &KVStore{db: db}
}

// List implements store.HistoryStore.
func (s *KVStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listQuery, likePrefix(prefix))
	if err != nil {
		return nil, store.NewStoreError("record", "list", "failed to query keys", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, store.NewStoreError("record", "list", "failed to scan key", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("record", "list", "failed to iterate keys", err)
	}
	return keys, nil
}

// Get implements store.HistoryStore.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFoundFor(key)
	}
	if err != nil {
		return nil, store.NewStoreError(store.EntityForKey(key), "get", "failed to read value", err)
	}
	return []byte(value), nil
}

// Set implements store.HistoryStore.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	if _, err := s.db.ExecContext(ctx, upsertQuery, key, string(value)); err != nil {
		return store.NewStoreError(store.EntityForKey(key), "set", "failed to write value", err)
	}
	return nil
}

// Create implements store.KVStore.
func (s *KVStore) Create(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	res, err := s.db.ExecContext(ctx, insertQuery, key, string(value))
	if err != nil {
		return store.NewStoreError(store.EntityForKey(key), "create", "failed to insert value", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.NewStoreError(store.EntityForKey(key), "create", "failed to read rows affected", err)
	}
	if n == 0 {
		return store.ErrDuplicate
	}
	return nil
}

// Delete implements store.HistoryStore.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteQuery, key); err != nil {
		return store.NewStoreError(store.EntityForKey(key), "delete", "failed to delete value", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
