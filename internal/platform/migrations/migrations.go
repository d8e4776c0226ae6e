// Package migrations owns the relational schema behind the SQL history
// stores and applies it with goose. The same migration files serve Postgres
// and SQLite.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedded embed.FS

// Dialect selects the SQL flavour goose should use.
type Dialect = goose.Dialect

// Supported dialects.
const (
	Postgres = goose.DialectPostgres
	SQLite   = goose.DialectSQLite3
)

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger by forwarding messages to slog at info level.
func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements goose.Logger. Unlike the standard Fatalf it does not
// exit; the error is returned to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// NewProvider returns a goose provider over the embedded migrations.
func NewProvider(db *sql.DB, dialect Dialect, logger *slog.Logger) (*goose.Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsys, err := fs.Sub(embedded, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys,
		goose.WithLogger(&slogGooseLogger{logger: logger.With(slog.String("component", "migrations"))}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// Up applies all pending migrations.
func Up(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) error {
	provider, err := NewProvider(db, dialect, logger)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		if logger != nil {
			logger.InfoContext(ctx, "applied migration",
				slog.String("path", r.Source.Path),
				slog.Int64("version", r.Source.Version),
				slog.Duration("duration", r.Duration))
		}
	}
	return nil
}

// Version returns the current schema version.
func Version(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) (int64, error) {
	provider, err := NewProvider(db, dialect, logger)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}
