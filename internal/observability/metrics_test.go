package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `diary_http_requests_total{code="418",route="/test"} 1`)
	assert.Contains(t, body, `diary_http_request_duration_seconds_bucket{route="/test"`)
}

func TestDiaryRecorder(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveDiaryOperation("create", "ok")
	metrics.ObserveDiaryOperation("create", "ok")
	metrics.ObserveDiaryOperation("movement", "validation")
	metrics.ObserveAllocation(3 * time.Millisecond)

	body := scrape(t, metrics)
	assert.Contains(t, body, `diary_operations_total{op="create",outcome="ok"} 2`)
	assert.Contains(t, body, `diary_operations_total{op="movement",outcome="validation"} 1`)
	assert.Contains(t, body, "diary_allocation_duration_seconds_count 1")
}

func TestNilMetricsAreInert(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveDiaryOperation("create", "ok")
	metrics.ObserveAllocation(time.Second)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, metrics.Middleware(next))

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
