package offices

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diarydesk/diarydesk/internal/platform/httpx"
)

// DirectoryService is the read contract used by the handler.
type DirectoryService interface {
	Directory(ctx context.Context, query string) ([]string, error)
}

// Handler serves the office directory.
type Handler struct {
	logger  *slog.Logger
	service DirectoryService
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service DirectoryService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers office routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/offices", h.listOffices)
}

func (h *Handler) listOffices(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.Directory(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list offices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"offices": names})
}
