// Package reportshttp exposes the register, exports and dashboard over HTTP.
package reportshttp

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/diarydesk/diarydesk/internal/rbac"
	"github.com/diarydesk/diarydesk/internal/shared"
)

// MountRoutes registers report routes. Downloads are rate limited per client.
func (h *Handler) MountRoutes(r chi.Router, rbacMW rbac.Middleware) {
	r.Get("/reports", h.handleYears)
	r.Get("/reports/{year}", h.handleYearReport)
	r.Get("/dashboard/{year}", h.handleDashboard)

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Get("/reports/{year}/csv", h.handleCSV)
	})

	r.Group(func(r chi.Router) {
		r.Use(rbacMW.RequireAll(shared.PermDiaryExportPDF))
		r.Use(httprate.LimitByIP(10, time.Minute))
		r.Get("/reports/{year}/pdf", h.handlePDF)
	})
}
