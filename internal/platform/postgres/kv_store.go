package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/clarity-api/internal/store"
)

// DriverName is the database/sql driver used for PostgreSQL.
const DriverName = "pgx"

const (
	listQuery   = `SELECT key FROM kv_records WHERE key LIKE $1 ESCAPE '\' ORDER BY key`
	getQuery    = `SELECT value FROM kv_records WHERE key = $1`
	upsertQuery = `INSERT INTO kv_records (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP`
	insertQuery = `INSERT INTO kv_records (key, value) VALUES ($1, $2)`
	deleteQuery = `DELETE FROM kv_records WHERE key = $1`
)

// KVStore implements store.KVStore using a PostgreSQL table.
type KVStore struct {
	db store.DBTX
}

var _ store.KVStore = (*KVStore)(nil)

// NewKVStore creates a store over db. The caller owns the connection.
func NewKVStore(db store.DBTX) *KVStore {
	return &KVStore{db: db}
}

// Open connects to the database at url and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// List implements store.HistoryStore.
func (s *KVStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listQuery, LikePrefix(prefix))
	if err != nil {
		return nil, store.NewStoreError("record", "list", "failed to query keys", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, store.NewStoreError("record", "list", "failed to scan key", MapError(err))
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("record", "list", "failed to iterate keys", MapError(err))
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
		return nil, store.NewStoreError(store.EntityForKey(key), "get", "failed to read value", MapError(err))
	}
	return []byte(value), nil
}

// Set implements store.HistoryStore.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	if _, err := s.db.ExecContext(ctx, upsertQuery, key, string(value)); err != nil {
		return store.NewStoreError(store.EntityForKey(key), "set", "failed to write value", MapError(err))
	}
	return nil
}

// Create implements store.KVStore.
func (s *KVStore) Create(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	if _, err := s.db.ExecContext(ctx, insertQuery, key, string(value)); err != nil {
		if IsUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return store.NewStoreError(store.EntityForKey(key), "create", "failed to insert value", MapError(err))
	}
	return nil
}

// Delete implements store.HistoryStore.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteQuery, key); err != nil {
		return store.NewStoreError(store.EntityForKey(key), "delete", "failed to delete value", MapError(err))
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePrefix returns a LIKE pattern matching keys that start with prefix.
// Wildcard characters in prefix match literally under ESCAPE '\'.
func LikePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
