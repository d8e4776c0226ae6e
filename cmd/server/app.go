package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/clarity-api/internal/analysis"
	"github.com/phrazzld/clarity-api/internal/config"
	"github.com/phrazzld/clarity-api/internal/platform/gemini"
	"github.com/phrazzld/clarity-api/internal/platform/memory"
	"github.com/phrazzld/clarity-api/internal/platform/migrations"
	"github.com/phrazzld/clarity-api/internal/platform/openai"
	"github.com/phrazzld/clarity-api/internal/platform/postgres"
	"github.com/phrazzld/clarity-api/internal/platform/sqlite"
	"github.com/phrazzld/clarity-api/internal/service/auth"
	"github.com/phrazzld/clarity-api/internal/session"
	"github.com/phrazzld/clarity-api/internal/store"
)

const cannedProvider = "canned"

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil for the memory backend
	db    *sql.DB
	store store.KVStore

	jwtService auth.JWTService
	directory  *auth.Directory
	gateway    analysis.Gateway
	sessions   *session.Manager
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.db, app.store, err = openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	logger.Info("History store ready", "backend", cfg.Database.Backend)

	if err := app.initServices(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

func (app *application) initServices(ctx context.Context) error {
	cfg := app.config
	logger := app.logger

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BCryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	app.directory, err = auth.NewDirectory(app.store, hasher, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize account directory: %w", err)
	}

	app.gateway, err = newGateway(ctx, cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize analysis gateway: %w", err)
	}
	logger.Info("Analysis gateway initialized",
		"provider", cfg.LLM.Provider,
		"timeout_seconds", cfg.LLM.TimeoutSeconds)

	app.sessions, err = session.NewManager(app.gateway, app.store, session.OptionsFromConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}
	return nil
}

// openStore opens the configured backend, applying migrations to SQL
// databases.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, store.KVStore, error) {
	db, dialect, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return nil, memory.NewStore(), nil
	}

	if err := migrations.Up(ctx, db, dialect, logger); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	if dialect == migrations.Postgres {
		return db, postgres.NewKVStore(db), nil
	}
	return db, sqlite.NewKVStore(db), nil
}

// newGateway builds the analysis service for the configured provider.
func newGateway(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (analysis.Gateway, error) {
	prompts, err := analysis.NewPromptBuilder(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	componentLogger := logger.With("component", "llm_completer")

	var completer analysis.Completer
	switch cfg.Provider {
	case gemini.ProviderName:
		completer, err = gemini.NewCompleter(ctx, componentLogger, cfg, nil)
	case openai.ProviderName:
		completer, err = openai.NewCompleter(componentLogger, cfg, nil)
	case cannedProvider:
		completer, err = analysis.NewCannedCompleter(nil)
	default:
		err = fmt.Errorf("%w: unknown provider %q", analysis.ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return analysis.NewService(completer, prompts, cfg.Provider, logger)
}

// Run serves HTTP until ctx is canceled, then shuts down and releases
// resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
		app.db = nil
	}
	app.logger.Info("Application shutdown completed")
}
