package api

import (
	"time"

	"github.com/phrazzld/clarity-api/internal/domain"
)

// RegisterRequest defines the payload for the account registration endpoint.
// Username and password rules are enforced by the account directory.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	Username string `json:"username"`
	// AccessToken is the JWT used for API authorization
	AccessToken string `json:"token"`
	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// CatalogResponse lists the selectable emotions and suggested needs.
type CatalogResponse struct {
	Emotions               []domain.Emotion `json:"emotions"`
	Needs                  []string         `json:"needs"`
	MaxEmotions            int              `json:"max_emotions"`
	MaxCustomEmotionLength int              `json:"max_custom_emotion_length"`
}

// EmotionRequest toggles one catalog emotion.
type EmotionRequest struct {
	Label string `json:"label" validate:"required"`
}

// TextRequest sets a free-text field. An empty text clears the field.
type TextRequest struct {
	Text string `json:"text"`
}

// SaveRequest saves the session, optionally starting a fresh one.
type SaveRequest struct {
	Reset bool `json:"reset"`
}

// SessionResponse is the client view of the live session.
type SessionResponse struct {
	ID        string `json:"id"`
	Stage     int    `json:"stage"`
	StageName string `json:"stage_name"`
	domain.Record
	Saved bool `json:"saved"`
	// Busy is true while an analysis request is pending.
	Busy bool `json:"busy"`
}

// EventResponse is returned when the event description is set.
type EventResponse struct {
	Session SessionResponse `json:"session"`
	// Warning holds the objectivity hint, empty when none applies.
	Warning string `json:"warning"`
}

// SaveResponse is returned after a successful save.
type SaveResponse struct {
	Record  domain.Record   `json:"record"`
	Session SessionResponse `json:"session"`
}

// HistoryResponse lists saved records, newest first.
type HistoryResponse struct {
	Records []domain.Record `json:"records"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

func newSessionResponse(s *domain.SessionState, busy bool) SessionResponse {
	rec := s.Record.Clone()
	if rec.Emotions == nil {
		rec.Emotions = []string{}
	}
	if rec.Uncontrollable == nil {
		rec.Uncontrollable = []string{}
	}
	if rec.Controllable == nil {
		rec.Controllable = []string{}
	}
	if rec.Actions == nil {
		rec.Actions = []domain.ActionItem{}
	}
	return SessionResponse{
		ID:        s.ID.String(),
		Stage:     int(s.Stage),
		StageName: s.Stage.String(),
		Record:    rec,
		Saved:     s.Saved(),
		Busy:      busy,
	}
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
