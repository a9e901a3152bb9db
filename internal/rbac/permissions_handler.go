package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diarydesk/diarydesk/internal/platform/httpx"
	"github.com/diarydesk/diarydesk/internal/shared"
)

// PermissionsHandler exposes the caller's effective permissions so clients
// can hide actions the user cannot perform.
type PermissionsHandler struct {
	logger  *slog.Logger
	service PermissionResolver
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service PermissionResolver) *PermissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PermissionsHandler{logger: logger, service: service}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/me/permissions", h.myPermissions)
}

func (h *PermissionsHandler) myPermissions(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	perms, err := h.service.EffectivePermissions(r.Context(), principal.Username)
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":        principal.Username,
		"permissions": perms,
	})
}
