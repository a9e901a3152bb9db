package report

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLPostsMultipartForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "true", r.FormValue("landscape"))
		assert.Equal(t, "0.4", r.FormValue("marginTop"))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		assert.Equal(t, "index.html", header.Filename)
		body, _ := io.ReadAll(file)
		assert.Equal(t, "<html>ok</html>", string(body))
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	pdf, err := NewClient(srv.URL+"/", time.Second).RenderHTML(context.Background(), "<html>ok</html>", PageOptions{Landscape: true, Margin: 0.4})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(pdf))
}

func TestRenderHTMLReportsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).RenderHTML(context.Background(), "<html/>", PageOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "chromium crashed")
}

func TestHandlerPing(t *testing.T) {
	var unhealthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if unhealthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	router := chi.NewRouter()
	NewHandler(NewClient(srv.URL, time.Second), slog.New(slog.NewTextHandler(io.Discard, nil))).MountRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pdf-engine/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	unhealthy.Store(true)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pdf-engine/ping", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
