package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/clarity-api/internal/api/shared"
	"github.com/phrazzld/clarity-api/internal/domain"
	"github.com/phrazzld/clarity-api/internal/platform/logger"
	"github.com/phrazzld/clarity-api/internal/session"
	"github.com/phrazzld/clarity-api/internal/store"
)

// SessionProvider returns the session controller of a user.
type SessionProvider interface {
	Controller(ctx context.Context, username string) (*session.Controller, error)
}

// SessionHandler exposes the session workflow and history of the
// authenticated user.
type SessionHandler struct {
	sessions SessionProvider
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionProvider, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}
	return &SessionHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_handler")),
	}
}

// controller resolves the caller's controller, writing an error response
// when that fails.
func (h *SessionHandler) controller(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	username, ok := shared.GetUsername(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context()).Warn("username not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	c, err := h.sessions.Controller(r.Context(), username)
	if err != nil {
		HandleAPIError(w, r, err)
		return nil, false
	}
	return c, true
}

func respondSession(w http.ResponseWriter, r *http.Request, c *session.Controller) {
	shared.RespondWithJSON(w, r, http.StatusOK, newSessionResponse(c.Snapshot(), c.Busy()))
}

// mutateText handles the endpoints that set one free-text field.
func (h *SessionHandler) mutateText(set func(c *session.Controller, text string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := h.controller(w, r)
		if !ok {
			return
		}
		var req TextRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		if err := set(c, req.Text); err != nil {
			HandleAPIError(w, r, err)
			return
		}
		respondSession(w, r, c)
	}
}

// GetSession handles GET /api/session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	respondSession(w, r, c)
}

// SelectEmotion handles POST /api/session/emotions. Selecting a selected
// emotion deselects it.
func (h *SessionHandler) SelectEmotion(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req EmotionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := c.SelectEmotion(req.Label); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	respondSession(w, r, c)
}

// SetCustomEmotion handles PUT /api/session/custom-emotion.
func (h *SessionHandler) SetCustomEmotion(w http.ResponseWriter, r *http.Request) {
	h.mutateText((*session.Controller).SetCustomEmotion)(w, r)
}

// SetNeed handles PUT /api/session/need.
func (h *SessionHandler) SetNeed(w http.ResponseWriter, r *http.Request) {
	h.mutateText((*session.Controller).SetNeed)(w, r)
}

// SetMinAction handles PUT /api/session/min-action.
func (h *SessionHandler) SetMinAction(w http.ResponseWriter, r *http.Request) {
	h.mutateText((*session.Controller).SetMinAction)(w, r)
}

// SetEvent handles PUT /api/session/event. The response carries the
// objectivity hint when the description reads as interpretation.
func (h *SessionHandler) SetEvent(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req TextRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	warning, err := c.SetEvent(req.Text)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, EventResponse{
		Session: newSessionResponse(c.Snapshot(), c.Busy()),
		Warning: warning,
	})
}

// Advance handles POST /api/session/advance.
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.Advance(); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	respondSession(w, r, c)
}

// Retreat handles POST /api/session/retreat.
func (h *SessionHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.Retreat(); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	respondSession(w, r, c)
}

// RunAnalysis handles POST /api/session/analysis. The request blocks until
// the analysis finishes or fails.
func (h *SessionHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	state, err := c.RunAnalysis(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newSessionResponse(state, c.Busy()))
}

// Save handles POST /api/session/save. The body is optional.
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	// the body is optional; an empty one means no reset
	var req SaveRequest
	if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	rec, err := c.Save(r.Context(), req.Reset)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, SaveResponse{
		Record:  rec,
		Session: newSessionResponse(c.Snapshot(), c.Busy()),
	})
}

// Reset handles POST /api/session/reset.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	state := c.Reset()
	shared.RespondWithJSON(w, r, http.StatusOK, newSessionResponse(state, false))
}

// GetHistory handles GET /api/history.
func (h *SessionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	respondHistory(w, r, c.History())
}

// DeleteHistoryRecord handles DELETE /api/history/{timestamp}.
func (h *SessionHandler) DeleteHistoryRecord(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}

	raw := chi.URLParam(r, "timestamp")
	timestamp, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || timestamp <= 0 {
		HandleAPIError(w, r, fmt.Errorf("%w: %q", store.ErrInvalidKey, raw))
		return
	}

	if err := c.DeleteHistoryRecord(r.Context(), timestamp); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	respondHistory(w, r, c.History())
}

func respondHistory(w http.ResponseWriter, r *http.Request, records []domain.Record) {
	if records == nil {
		records = []domain.Record{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, HistoryResponse{Records: records})
}
