package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/clarity-api/internal/config"
	"github.com/phrazzld/clarity-api/internal/platform/migrations"
	"github.com/phrazzld/clarity-api/internal/platform/postgres"
	"github.com/phrazzld/clarity-api/internal/platform/sqlite"
)

// handleMigrations executes a migration command against the configured SQL
// backend. The memory backend has no schema.
func handleMigrations(ctx context.Context, cfg *config.Config, migrateCmd string, logger *slog.Logger) error {
	db, dialect, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("backend %q has no migrations", cfg.Database.Backend)
	}
	defer func() { _ = db.Close() }()

	switch migrateCmd {
	case "up":
		logger.Info("Executing migrations", "backend", cfg.Database.Backend)
		return migrations.Up(ctx, db, dialect, logger)
	case "version":
		version, err := migrations.Version(ctx, db, dialect, logger)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		logger.Info("Current schema version", "backend", cfg.Database.Backend, "version", version)
		return nil
	default:
		return fmt.Errorf("unknown migration command %q", migrateCmd)
	}
}

// openDatabase opens the SQL database behind cfg. It returns a nil *sql.DB
// for the memory backend.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, migrations.Dialect, error) {
	switch cfg.Backend {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, "", err
		}
		return db, migrations.Postgres, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, "", err
		}
		return db, migrations.SQLite, nil
	default:
		return nil, "", nil
	}
}
