package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/livecharge/livecharge/internal/api/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_AllowsAnyOriginByDefault(t *testing.T) {
	handler := middleware.CORS(middleware.CORSConfig{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/stations", http.NoBody)
	req.Header.Set("Origin", "https://map.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	handler := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: []string{"https://livecharge.app"},
	})(okHandler())

	tests := []struct {
		origin string
		want   string
	}{
		{"https://livecharge.app", "https://livecharge.app"},
		{"https://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stations", http.NoBody)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := middleware.CORS(middleware.CORSConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/stations/st-1/reviews/rv-1/vote", http.NoBody)
	req.Header.Set("Origin", "https://map.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		middleware.ParseOrigins(" https://a.example, ,https://b.example "))
	assert.Nil(t, middleware.ParseOrigins(""))
}
