// Package main implements the entry point for the Clarity API server, which
// guides users through naming an emotion, describing what happened, and
// separating what they can control from what they cannot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/clarity-api/internal/config"
	"github.com/phrazzld/clarity-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Run a migration command (up, version) and exit")
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before configuration")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *envFile, *migrateCmd); err != nil {
		log.Fatalf("clarity-api: %v", err)
	}
}

// run loads configuration, then either executes a migration command or
// serves HTTP until ctx is canceled.
func run(ctx context.Context, envFile, migrateCmd string) error {
	cfg, appLogger, err := initializeApp(envFile)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		return handleMigrations(ctx, cfg, migrateCmd, appLogger)
	}

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// initializeApp loads the dotenv file when present, then configuration and
// logging.
func initializeApp(envFile string) (*config.Config, *slog.Logger, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"store_backend", cfg.Database.Backend,
		"llm_provider", cfg.LLM.Provider)

	return cfg, l, nil
}

// loadEnvFile applies path to the environment. Variables already set win
// and a missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
