package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diarydesk/diarydesk/internal/observability"
	"github.com/diarydesk/diarydesk/internal/rbac"
	"github.com/diarydesk/diarydesk/internal/shared"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := rbac.NewService(rbac.Policy{
		Roles: map[string][]string{"registrar": {shared.PermDiaryEdit, shared.PermDiaryExportPDF}},
		Users: map[string][]string{"alice": {"registrar"}},
	})
	return NewRouter(RouterParams{
		Logger:             logger,
		Config:             &Config{AuthUserHeader: "X-Remote-User"},
		RBACMiddleware:     rbac.Middleware{Service: resolver, Logger: logger},
		PermissionsHandler: rbac.NewPermissionsHandler(logger, resolver),
		Metrics:            observability.NewMetrics(),
	})
}

func TestHealthzSetsSecureHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestPrincipalHeaderReachesHandlers(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me/permissions", nil)
	req.Header.Set("X-Remote-User", " alice ")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User        string   `json:"user"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.User)
	assert.ElementsMatch(t, []string{shared.PermDiaryEdit, shared.PermDiaryExportPDF}, resp.Permissions)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me/permissions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	router := testRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `diary_http_requests_total{code="200",route="/healthz"}`)
}
