package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecharge/livecharge/internal/api/middleware"
	"github.com/livecharge/livecharge/internal/api/models"
	"github.com/livecharge/livecharge/internal/auth"
)

type validatorFunc func(token string) (string, error)

func (f validatorFunc) ValidateSession(token string) (string, error) { return f(token) }

func TestSession_Rejections(t *testing.T) {
	expired := createTestAuthService(t, func() time.Time { return time.Now().Add(-24 * time.Hour) })
	stale, err := expired.Login(auth.LoginRequest{Username: "admin", Password: "password"})
	require.NoError(t, err)

	tests := []struct {
		name          string
		header        string
		wantError     string
		wantDetail    string
		wantValidated bool
	}{
		{"missing header", "", "invalid_request", "missing or malformed authorization header", false},
		{"no scheme", "token123", "invalid_request", "missing or malformed authorization header", false},
		{"basic auth", "Basic dXNlcjpwYXNz", "invalid_request", "missing or malformed authorization header", false},
		{"scheme glued to token", "bearertoken123", "invalid_request", "missing or malformed authorization header", false},
		{"empty bearer", "Bearer ", "invalid_request", "missing or malformed authorization header", false},
		{"bare scheme", "Bearer", "invalid_request", "missing or malformed authorization header", false},
		{"garbage token", "Bearer invalid.jwt.token", "invalid_token", "invalid session token", true},
		{"expired token", "Bearer " + stale.Token, "invalid_token", "session token has expired", true},
	}

	handler := middleware.RequestID(middleware.Session(createTestAuthService(t, time.Now))(okHandler()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/session", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, `Bearer realm="livecharge", error="`+tt.wantError+`"`, rec.Header().Get("WWW-Authenticate"))

			var p models.Problem
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
			assert.Equal(t, models.ProblemTypeUnauthorized, p.Type)
			assert.Equal(t, tt.wantDetail, p.Detail)
			assert.Equal(t, "/api/session", p.Instance)
			assert.Equal(t, rec.Header().Get(middleware.RequestIDHeader), p.TraceID)
		})
	}
}

func TestSession_UnknownValidatorError(t *testing.T) {
	validator := validatorFunc(func(string) (string, error) { return "", errors.New("keyring offline") })
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/session", http.NoBody)
	req.Header.Set("Authorization", "Bearer abc")

	middleware.Session(validator)(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication failed")
	assert.NotContains(t, rec.Body.String(), "keyring")
}

func TestSession_ValidTokenAnySchemeCase(t *testing.T) {
	authService := createTestAuthService(t, time.Now)
	session, err := authService.Login(auth.LoginRequest{Username: "admin", Password: "password"})
	require.NoError(t, err)

	var captured string
	handler := middleware.Session(authService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetUsername(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		t.Run(scheme, func(t *testing.T) {
			captured = ""
			req := httptest.NewRequest(http.MethodGet, "/api/session", http.NoBody)
			req.Header.Set("Authorization", scheme+" "+session.Token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
			assert.Equal(t, "admin", captured)
		})
	}
}

func TestUsernameContext(t *testing.T) {
	assert.Empty(t, middleware.GetUsername(context.Background()))
	assert.Equal(t, "ravi", middleware.GetUsername(middleware.WithUsername(context.Background(), "ravi")))
}

func createTestAuthService(t *testing.T, now func() time.Time) *auth.Service {
	t.Helper()

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "livecharge",
		Audience:   "livecharge-web",
		Now:        now,
	})

	return auth.NewService(auth.ServiceConfig{JWTService: jwtService})
}
