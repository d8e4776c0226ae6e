package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/clarity-api/internal/analysis"
	"github.com/phrazzld/clarity-api/internal/store"
)

// Manager hands out one Controller per username. Controllers are created on
// first use and load their history from the store before being returned.
// They share one timestamp source, so saved records never collide across
// users.
type Manager struct {
	gateway analysis.Gateway
	store   store.HistoryStore
	opts    Options
	logger  *slog.Logger
	stamps  *timestampSource

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewManager creates a Manager sharing gateway and historyStore across users.
func NewManager(
	gateway analysis.Gateway,
	historyStore store.HistoryStore,
	opts Options,
	logger *slog.Logger,
) (*Manager, error) {
	if gateway == nil {
		return nil, fmt.Errorf("%w: gateway cannot be nil", ErrInvalidConfig)
	}
	if historyStore == nil {
		return nil, fmt.Errorf("%w: history store cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}
	opts = opts.withDefaults()
	return &Manager{
		gateway:     gateway,
		store:       historyStore,
		opts:        opts,
		stamps:      newTimestampSource(opts.Clock),
		logger:      logger.With(slog.String("component", "session_manager")),
		controllers: make(map[string]*Controller),
	}, nil
}

// Controller returns the controller for username, creating it and loading
// its history if needed. A failed history load is returned and retried on
// the next call.
func (m *Manager) Controller(ctx context.Context, username string) (*Controller, error) {
	m.mu.Lock()
	c, ok := m.controllers[username]
	if !ok {
		var err error
		c, err = newController(username, m.gateway, m.store, m.opts, m.stamps, m.logger)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		m.controllers[username] = c
		m.logger.Debug("session controller created", slog.String("username", username))
	}
	m.mu.Unlock()

	if err := c.ensureHistory(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of live controllers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.controllers)
}
