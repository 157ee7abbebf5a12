package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambientdeck/ambientdeck/internal/metrics"
	"github.com/ambientdeck/ambientdeck/internal/observability"
)

func recordTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = original })

	return collector
}

// deckRouter mounts a few deck-shaped routes behind RequestMetrics.
func deckRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestMetrics)
	r.Get("/api/v1/boards/{boardID}/pins", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	r.Post("/api/v1/deck/next", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/api/v1/boards", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	r.Post("/api/v1/uploads", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "decode failed", http.StatusInternalServerError)
	})
	return r
}

func onlyMetric(t *testing.T, collector *telemetrytesting.FakeCollector, name string) telemetrytesting.RecordedMetric {
	t.Helper()
	recorded := collector.GetMetricsByName(name)
	require.Len(t, recorded, 1, name)
	return recorded[0]
}

func TestRequestMetricsLabelsRoutePattern(t *testing.T) {
	collector := recordTelemetry(t)

	rec := httptest.NewRecorder()
	deckRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boards/b42/pins", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	requests := onlyMetric(t, collector, metrics.RequestsTotalName)
	assert.Equal(t, map[string]string{
		"method":   http.MethodGet,
		"endpoint": "/api/v1/boards/{boardID}/pins",
		"status":   "200",
	}, requests.Tags)

	assert.Equal(t, 1, collector.CountMetricsByName(metrics.RequestDurationName))
	assert.Zero(t, collector.CountMetricsByName(metrics.HTTPErrorsTotalName))

	size := onlyMetric(t, collector, metrics.ResponseSizeName)
	assert.Equal(t, float64(len(`{"items":[]}`)), size.Value)
}

func TestRequestMetricsDefaultsStatusWhenHandlerOnlyWrites(t *testing.T) {
	collector := recordTelemetry(t)

	handler := RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("slide"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/version", nil))

	requests := onlyMetric(t, collector, metrics.RequestsTotalName)
	assert.Equal(t, "200", requests.Tags["status"])
	assert.Equal(t, "/version", requests.Tags["endpoint"])
}

func TestRequestMetricsClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		status    string
		errorType string
	}{
		{"rate limited board list", http.MethodGet, "/api/v1/boards", "429", "client_error"},
		{"failed upload", http.MethodPost, "/api/v1/uploads", "500", "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := recordTelemetry(t)

			deckRouter().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			failure := onlyMetric(t, collector, metrics.HTTPErrorsTotalName)
			assert.Equal(t, tt.status, failure.Tags["status"])
			assert.Equal(t, tt.errorType, failure.Tags["error_type"])
			assert.Equal(t, tt.path, failure.Tags["endpoint"])
		})
	}
}

func TestRequestMetricsRequestSize(t *testing.T) {
	collector := recordTelemetry(t)

	body := strings.Repeat("x", 512)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deck/next", strings.NewReader(body))
	req.Header.Set("Content-Length", "512")
	deckRouter().ServeHTTP(httptest.NewRecorder(), req)

	size := onlyMetric(t, collector, metrics.RequestSizeName)
	assert.Equal(t, float64(512), size.Value)
	assert.Equal(t, "204", onlyMetric(t, collector, metrics.RequestsTotalName).Tags["status"])
}

func TestRequestMetricsWithoutTelemetry(t *testing.T) {
	originalTelemetry := observability.TelemetrySystem
	originalLogger := observability.ServerLogger
	observability.TelemetrySystem = nil
	observability.ServerLogger = nil
	t.Cleanup(func() {
		observability.TelemetrySystem = originalTelemetry
		observability.ServerLogger = originalLogger
	})

	rec := httptest.NewRecorder()
	deckRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/deck/next", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestMetricsKeepsRequestID(t *testing.T) {
	collector := recordTelemetry(t)

	handler := RequestID(RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "deck-req-1", GetRequestID(r.Context()))
	})))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req.Header.Set("X-Request-ID", "deck-req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "deck-req-1", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "/health/*", onlyMetric(t, collector, metrics.RequestsTotalName).Tags["endpoint"])
}

func TestGetEndpointPatternBuckets(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/health", "/health/*"},
		{"/health/startup", "/health/*"},
		{"/version", "/version"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/deck/goto/3", "/api/v1/*"},
		{"/wp-admin", "/unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, getEndpointPattern(httptest.NewRequest(http.MethodGet, tt.path, nil)))
		})
	}
}
