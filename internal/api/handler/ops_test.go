package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecharge/livecharge/internal/api/models"
)

func TestReadinessCheck_RunsProbesConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(2)
	rendezvous := func(ctx context.Context) error {
		started.Done()
		done := make(chan struct{})
		go func() { started.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h := NewOpsHandler("1.2.0", "2026-10-01",
		ReadinessCheck{Name: "store", Check: rendezvous},
		ReadinessCheck{Name: "relay", Check: rendezvous},
	)
	h.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/ready", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Readiness
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, models.HealthStatusOK, got.Status)
	assert.True(t, got.Time.Equal(h.now()))

	require.Len(t, got.Subsystems, 3)
	assert.Equal(t, "build", got.Subsystems[0].Name)
	require.NotNil(t, got.Subsystems[0].Detail)
	assert.Equal(t, "1.2.0 (2026-10-01)", *got.Subsystems[0].Detail)
	assert.Equal(t, "store", got.Subsystems[1].Name)
	assert.Equal(t, "relay", got.Subsystems[2].Name)
}

func TestReadinessCheck_FailureKeepsOrder(t *testing.T) {
	h := NewOpsHandler("dev", "unknown",
		ReadinessCheck{Name: "store", Check: func(context.Context) error { return errors.New("no reachable servers") }},
		ReadinessCheck{Name: "breaker", Check: func(context.Context) error { return nil }},
	)

	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/ready", http.NoBody))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var got models.Readiness
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, models.HealthStatusFail, got.Status)
	require.Len(t, got.Subsystems, 3)
	assert.Equal(t, models.HealthStatusFail, got.Subsystems[1].Status)
	require.NotNil(t, got.Subsystems[1].Detail)
	assert.Equal(t, "no reachable servers", *got.Subsystems[1].Detail)
	assert.Equal(t, models.HealthStatusOK, got.Subsystems[2].Status)
	assert.Nil(t, got.Subsystems[2].Detail)
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	NewOpsHandler("dev", "unknown").HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
