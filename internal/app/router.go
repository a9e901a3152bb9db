package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	diaryhttp "github.com/diarydesk/diarydesk/internal/diary/http"
	"github.com/diarydesk/diarydesk/internal/observability"
	"github.com/diarydesk/diarydesk/internal/offices"
	"github.com/diarydesk/diarydesk/internal/rbac"
	reportshttp "github.com/diarydesk/diarydesk/internal/reports/http"
	"github.com/diarydesk/diarydesk/jobs"
	"github.com/diarydesk/diarydesk/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	RBACMiddleware rbac.Middleware

	DiaryHandler       *diaryhttp.Handler
	OfficesHandler     *offices.Handler
	ReportsHandler     *reportshttp.Handler
	PDFEngineHandler   *report.Handler
	JobHandler         *jobs.Handler
	PermissionsHandler *rbac.PermissionsHandler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the diary defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.DiaryHandler != nil {
			params.DiaryHandler.MountRoutes(r, params.RBACMiddleware)
		}
		if params.OfficesHandler != nil {
			params.OfficesHandler.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(r, params.RBACMiddleware)
		}
		if params.PDFEngineHandler != nil {
			params.PDFEngineHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			params.JobHandler.MountRoutes(r)
		}
		if params.PermissionsHandler != nil {
			params.PermissionsHandler.MountRoutes(r)
		}
	})

	return r
}
