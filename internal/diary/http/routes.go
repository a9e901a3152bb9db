// Package diaryhttp exposes the diary registry over a JSON API.
package diaryhttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/diarydesk/diarydesk/internal/rbac"
	"github.com/diarydesk/diarydesk/internal/shared"
)

// MountRoutes registers diary routes.
func (h *Handler) MountRoutes(r chi.Router, rbacMW rbac.Middleware) {
	r.Route("/diaries", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Get("/movements/defaults", h.handleMovementDefaults)
			r.Post("/movements", h.handleAddMovement)

			r.With(rbacMW.RequireAll(shared.PermDiaryEdit)).Put("/", h.handleEdit)
			r.With(rbacMW.RequireAll(shared.PermDiaryDelete)).Delete("/", h.handleDelete)
		})
	})
}
