package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/clarity-api/internal/api/shared"
	"github.com/phrazzld/clarity-api/internal/platform/logger"
	"github.com/phrazzld/clarity-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
)

type stubJWTService struct {
	claims *auth.Claims
	err    error
}

func (s *stubJWTService) GenerateToken(context.Context, string) (string, error) {
	return "token", nil
}

func (s *stubJWTService) ValidateToken(context.Context, string) (*auth.Claims, error) {
	return s.claims, s.err
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		svc        *stubJWTService
		wantStatus int
		wantUser   string
	}{
		{
			name:       "valid token",
			header:     "Bearer good",
			svc:        &stubJWTService{claims: &auth.Claims{Username: "lin"}},
			wantStatus: http.StatusOK,
			wantUser:   "lin",
		},
		{name: "missing header", header: "", svc: &stubJWTService{}, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", svc: &stubJWTService{}, wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", svc: &stubJWTService{}, wantStatus: http.StatusUnauthorized},
		{
			name:       "expired",
			header:     "Bearer old",
			svc:        &stubJWTService{err: auth.ErrExpiredToken},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid",
			header:     "Bearer bad",
			svc:        &stubJWTService{err: auth.ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unexpected failure",
			header:     "Bearer x",
			svc:        &stubJWTService{err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = GetUsername(r)
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			NewAuthMiddleware(tc.svc).Authenticate(next).ServeHTTP(w, r)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantUser, gotUser)
		})
	}
}

func TestTraceMiddleware(t *testing.T) {
	log, buf := logger.NewTestLogger()
	var traceID string
	var hasLogger bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		hasLogger = logger.FromContext(r.Context()) != nil
	})

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	NewTraceMiddleware(log)(next).ServeHTTP(httptest.NewRecorder(), r)

	assert.Len(t, traceID, shared.TraceIDLength*2)
	assert.True(t, hasLogger)
	assert.Contains(t, buf.String(), traceID)
}
