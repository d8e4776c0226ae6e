package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/clarity-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "no rows", err: sql.ErrNoRows, wantErr: store.ErrNotFound},
		{name: "unique", err: &pgconn.PgError{Code: uniqueViolationCode}, wantErr: store.ErrDuplicate},
		{name: "not null", err: &pgconn.PgError{Code: notNullViolationCode, ColumnName: "key"}, wantErr: store.ErrInvalidKey},
		{name: "missing table", err: &pgconn.PgError{Code: undefinedTableCode}, wantErr: ErrSchemaMissing},
		{
			name:    "wrapped unique",
			err:     fmt.Errorf("exec: %w", &pgconn.PgError{Code: uniqueViolationCode}),
			wantErr: store.ErrDuplicate,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, MapError(tc.err), tc.wantErr)
		})
	}

	assert.NoError(t, MapError(nil))

	other := errors.New("connection reset")
	assert.Same(t, other, MapError(other))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: notNullViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("x")))
}

func TestLikePrefix(t *testing.T) {
	assert.Equal(t, `emotion:alice:%`, LikePrefix("emotion:alice:"))
	assert.Equal(t, `emotion:a\_b:%`, LikePrefix("emotion:a_b:"))
	assert.Equal(t, `emotion:a\%b:%`, LikePrefix("emotion:a%b:"))
	assert.Equal(t, `a\\b%`, LikePrefix(`a\b`))
}
