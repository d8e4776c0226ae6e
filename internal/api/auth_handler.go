package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/clarity-api/internal/api/shared"
	"github.com/phrazzld/clarity-api/internal/config"
	"github.com/phrazzld/clarity-api/internal/domain"
	"github.com/phrazzld/clarity-api/internal/platform/logger"
	"github.com/phrazzld/clarity-api/internal/service/auth"
)

// AccountDirectory registers and authenticates accounts.
type AccountDirectory interface {
	Register(ctx context.Context, username, password string) (*domain.Account, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Account, error)
}

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	directory     AccountDirectory
	jwtService    auth.JWTService
	tokenLifetime time.Duration
	timeFunc      func() time.Time
	logger        *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	directory AccountDirectory,
	jwtService auth.JWTService,
	authConfig *config.AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}
	return &AuthHandler{
		directory:     directory,
		jwtService:    jwtService,
		tokenLifetime: time.Duration(authConfig.TokenLifetimeMinutes) * time.Minute,
		timeFunc:      time.Now,
		logger:        logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.directory.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, account.Username)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.directory.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		// failed logins are worth watching for guessing attempts
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err,
			shared.WithElevatedLogLevel())
		return
	}
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusOK, account.Username)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, username string) {
	log := logger.FromContextOrDefault(r.Context())

	token, err := h.jwtService.GenerateToken(r.Context(), username)
	if err != nil {
		log.Error("failed to generate token", "error", err, "username", username)
		shared.RespondWithError(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, status, AuthResponse{
		Username:    username,
		AccessToken: token,
		ExpiresAt:   formatExpiry(h.timeFunc().Add(h.tokenLifetime)),
	})
}

// decodeAndValidate parses the JSON body into v and validates it, writing a
// 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}
