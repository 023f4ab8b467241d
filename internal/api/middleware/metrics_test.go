package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/livecharge/livecharge/internal/api/middleware"
)

func newMeteredRouter(t *testing.T) (*chi.Mux, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := middleware.NewMetrics(middleware.WithMeterProvider(mp))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Middleware())
	return r, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewMetrics_GlobalProvider(t *testing.T) {
	m, err := middleware.NewMetrics()
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	r, reader := newMeteredRouter(t)
	r.Get("/api/stations/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"st-1"}`))
	})

	for _, id := range []string{"st-1", "st-2", "st-3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stations/"+id, http.NoBody))
	}

	metrics := collect(t, reader)
	total, ok := metrics["http.server.request.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1, "one series per route, not per station id")

	dp := total.DataPoints[0]
	assert.Equal(t, int64(3), dp.Value)
	route, _ := dp.Attributes.Value(attribute.Key("http.route"))
	assert.Equal(t, "/api/stations/{id}", route.AsString())
	status, _ := dp.Attributes.Value(attribute.Key("http.status_code"))
	assert.Equal(t, "200", status.AsString())

	size, ok := metrics["http.server.response.size"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Equal(t, int64(39), size.DataPoints[0].Sum)
}

func TestMetrics_FlagsErrors(t *testing.T) {
	r, reader := newMeteredRouter(t)
	r.Post("/api/stations/{stationId}/reviews/{reviewId}/vote", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/stations/a/reviews/b/vote", http.NoBody))

	total := collect(t, reader)["http.server.request.total"].Data.(metricdata.Sum[int64])
	require.Len(t, total.DataPoints, 1)
	flag, _ := total.DataPoints[0].Attributes.Value(attribute.Key("error"))
	assert.True(t, flag.AsBool())
	status, _ := total.DataPoints[0].Attributes.Value(attribute.Key("http.status_code"))
	assert.Equal(t, "503", status.AsString())
}

func TestMetrics_InFlightReturnsToZero(t *testing.T) {
	r, reader := newMeteredRouter(t)
	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))

	inFlight := collect(t, reader)["http.server.requests_in_flight"].Data.(metricdata.Sum[int64])
	require.Len(t, inFlight.DataPoints, 1)
	assert.Equal(t, int64(0), inFlight.DataPoints[0].Value)
}
