package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/clarity-api/internal/analysis"
	"github.com/phrazzld/clarity-api/internal/domain"
	"github.com/phrazzld/clarity-api/internal/domain/objectivity"
	"github.com/phrazzld/clarity-api/internal/redact"
	"github.com/phrazzld/clarity-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// Controller is the single authority over one user's session. It enforces
// the stage gates, mediates the analysis call and keeps a newest-first cache
// of saved records in step with the history store.
//
// Lock order: ioMu before mu. mu is never held across the analysis call or
// a store operation.
type Controller struct {
	username string
	gateway  analysis.Gateway
	store    store.HistoryStore
	logger   *slog.Logger
	opts     Options
	stamps   *timestampSource

	// ioMu serializes history writes, deletes and loads so the cache never
	// misses a concurrent change.
	ioMu sync.Mutex

	mu            sync.Mutex
	state         *domain.SessionState
	history       []domain.Record
	historyLoaded bool
	inflight      uuid.UUID
	// saving is set while Save writes the record; edits are refused meanwhile
	saving        bool
}

// NewController creates a controller for username with a fresh session.
// Its record timestamps are unique within the controller; controllers
// obtained from a Manager share one timestamp source.
func NewController(
	username string,
	gateway analysis.Gateway,
	historyStore store.HistoryStore,
	opts Options,
	logger *slog.Logger,
) (*Controller, error) {
	opts = opts.withDefaults()
	return newController(username, gateway, historyStore, opts, newTimestampSource(opts.Clock), logger)
}

func newController(
	username string,
	gateway analysis.Gateway,
	historyStore store.HistoryStore,
	opts Options,
	stamps *timestampSource,
	logger *slog.Logger,
) (*Controller, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: gateway cannot be nil", ErrInvalidConfig)
	}
	if historyStore == nil {
		return nil, fmt.Errorf("%w: history store cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}

	return &Controller{
		username: username,
		gateway:  gateway,
		store:    historyStore,
		logger:   logger.With(slog.String("username", username)),
		opts:     opts.withDefaults(),
		stamps:   stamps,
		state:    domain.NewSessionState(),
	}, nil
}

// Username returns the owner of this controller.
func (c *Controller) Username() string {
	return c.username
}

// Snapshot returns a copy of the live session.
func (c *Controller) Snapshot() *domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Busy reports whether an analysis call is pending.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != uuid.Nil
}

// mutate applies fn to the live state under the lock.
func (c *Controller) mutate(fn func(s *domain.SessionState) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saving {
		return ErrSaveInProgress
	}
	return fn(c.state)
}

// SelectEmotion toggles a catalog emotion.
func (c *Controller) SelectEmotion(label string) error {
	return c.mutate(func(s *domain.SessionState) error { return s.ToggleEmotion(label) })
}

// SetCustomEmotion sets the free-text emotion.
func (c *Controller) SetCustomEmotion(text string) error {
	return c.mutate(func(s *domain.SessionState) error { return s.SetCustomEmotion(text) })
}

// SetEvent stores the event description and returns the objectivity hint,
// or "" when the text reads as an observation.
func (c *Controller) SetEvent(text string) (string, error) {
	if err := c.mutate(func(s *domain.SessionState) error { return s.SetEvent(text) }); err != nil {
		return "", err
	}
	return objectivity.Warning(text), nil
}

// SetNeed sets the identified need.
func (c *Controller) SetNeed(text string) error {
	return c.mutate(func(s *domain.SessionState) error { return s.SetNeed(text) })
}

// SetMinAction sets the smallest next step.
func (c *Controller) SetMinAction(text string) error {
	return c.mutate(func(s *domain.SessionState) error { return s.SetMinAction(text) })
}

// Advance attempts the forward transition from the current stage.
func (c *Controller) Advance() error {
	return c.mutate(func(s *domain.SessionState) error {
		if s.Stage == domain.StageNeed && c.inflight != uuid.Nil {
			return ErrAnalysisInProgress
		}
		return s.Advance()
	})
}

// Retreat moves back one stage where allowed.
func (c *Controller) Retreat() error {
	return c.mutate(func(s *domain.SessionState) error {
		if s.Stage == domain.StageNeed && c.inflight != uuid.Nil {
			return ErrAnalysisInProgress
		}
		return s.Retreat()
	})
}

// RunAnalysis sends the session's emotions, event and need to the gateway.
// On success the results are recorded and the session moves to the
// separation stage. On failure the session is left as it was.
func (c *Controller) RunAnalysis(ctx context.Context) (*domain.SessionState, error) {
	c.mu.Lock()
	if c.inflight != uuid.Nil {
		c.mu.Unlock()
		return nil, ErrAnalysisInProgress
	}
	if err := c.checkAnalysisReady(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	token := uuid.New()
	c.inflight = token
	sessionID := c.state.ID
	emotions, event, need := c.state.AnalysisInputs()
	c.mu.Unlock()

	log := c.logger.With(
		slog.String("session_id", sessionID.String()),
		slog.String("request_id", token.String()),
	)
	log.Info("analysis started",
		slog.Int("emotion_count", len(emotions)),
		slog.String("event", redact.Text(event)),
		slog.String("need", redact.Text(need)))

	callCtx, cancel := context.WithTimeout(ctx, c.opts.AnalysisTimeout)
	sep, err := c.gateway.Separate(callCtx, emotions, event, need)
	if err != nil {
		err = analysis.ClassifyTransportError(callCtx, err)
	}
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight != token || c.state.ID != sessionID {
		if c.inflight == token {
			c.inflight = uuid.Nil
		}
		log.Info("analysis result discarded", slog.Bool("failed", err != nil))
		return nil, ErrStaleAnalysis
	}
	c.inflight = uuid.Nil

	if err != nil {
		log.Warn("analysis failed", slog.String("error", redact.Error(err)))
		return nil, err
	}
	if sep == nil {
		log.Warn("analysis returned no result")
		return nil, fmt.Errorf("%w: empty result", analysis.ErrInvalidResponse)
	}
	if err := c.state.ApplySeparation(sep); err != nil {
		return nil, err
	}

	log.Info("analysis applied",
		slog.Int("uncontrollable", len(sep.Uncontrollable)),
		slog.Int("controllable", len(sep.Controllable)),
		slog.Int("actions", len(sep.Actions)))
	return c.state.Clone(), nil
}

// checkAnalysisReady requires c.mu.
func (c *Controller) checkAnalysisReady() error {
	s := c.state
	if s.Saved() {
		return domain.ErrSessionSaved
	}
	if s.Stage != domain.StageNeed {
		return domain.ErrWrongStage
	}
	if strings.TrimSpace(s.Need) == "" {
		return domain.ErrEmptyNeed
	}
	if s.HasSeparation() {
		return domain.ErrSeparationRecorded
	}
	return nil
}

// Save persists the session as a history record and freezes it. The record
// timestamp is the current time in milliseconds, bumped past every timestamp
// already assigned or loaded so records never collide. Nothing changes in
// memory unless the store write succeeds. When reset is true a fresh session
// replaces the saved one.
//
// The lock is released during the store write; edits are refused with
// ErrSaveInProgress until it completes, so the persisted copy always matches
// the frozen state.
func (c *Controller) Save(ctx context.Context, reset bool) (domain.Record, error) {
	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	c.mu.Lock()
	s := c.state
	if s.Saved() {
		c.mu.Unlock()
		return domain.Record{}, domain.ErrSessionSaved
	}
	if s.Stage != domain.StageActionPlan {
		c.mu.Unlock()
		return domain.Record{}, domain.ErrWrongStage
	}
	rec := s.Record.Clone()
	rec.Timestamp = c.stamps.next()
	if err := rec.Validate(); err != nil {
		c.mu.Unlock()
		return domain.Record{}, err
	}
	c.saving = true
	c.mu.Unlock()

	err := c.writeRecord(ctx, rec)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	if err != nil {
		return domain.Record{}, err
	}

	// a reset during the write already replaced the session
	if c.state == s {
		if err := s.MarkSaved(rec.Timestamp); err != nil {
			return domain.Record{}, err
		}
		if reset {
			c.resetLocked()
		}
	}
	c.history = append([]domain.Record{rec.Clone()}, c.history...)
	c.logger.Info("record saved", slog.Int64("timestamp", rec.Timestamp), slog.Bool("reset", reset))
	return rec, nil
}

func (c *Controller) writeRecord(ctx context.Context, rec domain.Record) error {
	data, err := domain.EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := c.store.Set(ctx, store.SessionKey(c.username, rec.Timestamp), data); err != nil {
		c.logger.Error("failed to save record",
			slog.Int64("timestamp", rec.Timestamp),
			slog.String("error", redact.Error(err)))
		return asStoreError(err, "set", "failed to save record")
	}
	return nil
}

// Reset discards the live session and starts a fresh one at the naming
// stage. A pending analysis result will be discarded when it arrives.
func (c *Controller) Reset() *domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	return c.state.Clone()
}

func (c *Controller) resetLocked() {
	if c.inflight != uuid.Nil {
		c.logger.Debug("reset with analysis pending", slog.String("request_id", c.inflight.String()))
	}
	c.state = domain.NewSessionState()
	c.inflight = uuid.Nil
}

// DeleteHistoryRecord removes the record saved at timestamp, first from the
// store and then from the cache. On store failure the cached record stays.
func (c *Controller) DeleteHistoryRecord(ctx context.Context, timestamp int64) error {
	if timestamp <= 0 {
		return fmt.Errorf("%w: invalid timestamp %d", store.ErrInvalidKey, timestamp)
	}

	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	if err := c.store.Delete(ctx, store.SessionKey(c.username, timestamp)); err != nil {
		c.logger.Error("failed to delete record",
			slog.Int64("timestamp", timestamp),
			slog.String("error", redact.Error(err)))
		return asStoreError(err, "delete", "failed to delete record")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.history {
		if c.history[i].Timestamp == timestamp {
			c.history = append(c.history[:i:i], c.history[i+1:]...)
			break
		}
	}
	c.logger.Info("record deleted", slog.Int64("timestamp", timestamp))
	return nil
}

// History returns the cached records, newest first.
func (c *Controller) History() []domain.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Record, len(c.history))
	for i := range c.history {
		out[i] = c.history[i].Clone()
	}
	return out
}

// HistoryLoaded reports whether the cache has been filled from the store.
func (c *Controller) HistoryLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.historyLoaded
}

// LoadHistory replaces the cache with the records in the store.
func (c *Controller) LoadHistory(ctx context.Context) ([]domain.Record, error) {
	c.ioMu.Lock()
	defer c.ioMu.Unlock()
	if err := c.loadHistoryLocked(ctx); err != nil {
		return nil, err
	}
	return c.History(), nil
}

// ensureHistory loads the cache once.
func (c *Controller) ensureHistory(ctx context.Context) error {
	c.ioMu.Lock()
	defer c.ioMu.Unlock()
	if c.HistoryLoaded() {
		return nil
	}
	return c.loadHistoryLocked(ctx)
}

// loadHistoryLocked requires c.ioMu. Records that vanish between List and Get
// or fail to decode are skipped.
func (c *Controller) loadHistoryLocked(ctx context.Context) error {
	prefix := store.SessionPrefix(c.username)
	keys, err := c.store.List(ctx, prefix)
	if err != nil {
		c.logger.Error("failed to list history", slog.String("error", redact.Error(err)))
		return asStoreError(err, "list", "failed to list history")
	}

	records := make([]*domain.Record, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.HistoryLoadConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			rec, err := c.fetchRecord(gctx, key)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	loaded := make([]domain.Record, 0, len(records))
	var last int64
	for _, rec := range records {
		if rec == nil {
			continue
		}
		loaded = append(loaded, *rec)
		last = max(last, rec.Timestamp)
	}
	sort.Slice(loaded, func(i, j int) bool {
		return loaded[i].Timestamp > loaded[j].Timestamp
	})

	c.stamps.observe(last)

	c.mu.Lock()
	c.history = loaded
	c.historyLoaded = true
	c.mu.Unlock()

	c.logger.Debug("history loaded",
		slog.Int("keys", len(keys)),
		slog.Int("records", len(loaded)))
	return nil
}

// fetchRecord returns nil, nil for a record that should be skipped.
func (c *Controller) fetchRecord(ctx context.Context, key string) (*domain.Record, error) {
	username, ts, err := store.ParseSessionKey(key)
	if err != nil || username != c.username {
		c.logger.Warn("skipping foreign key in history", slog.String("key", key))
		return nil, nil
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if store.IsNotFoundError(err) {
			c.logger.Debug("record vanished during load", slog.Int64("timestamp", ts))
			return nil, nil
		}
		return nil, asStoreError(err, "get", "failed to read record")
	}

	rec, err := domain.DecodeRecord(data)
	if err != nil {
		c.logger.Warn("skipping malformed record",
			slog.Int64("timestamp", ts),
			slog.String("error", err.Error()))
		return nil, nil
	}
	// the key is the record identity
	rec.Timestamp = ts
	return rec, nil
}

func asStoreError(err error, op, msg string) error {
	if store.IsStoreError(err) {
		return err
	}
	return store.NewStoreError("record", op, msg, err)
}
