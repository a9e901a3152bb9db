package reportshttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/diarydesk/diarydesk/internal/platform/httpx"
	"github.com/diarydesk/diarydesk/internal/reports"
	"github.com/diarydesk/diarydesk/internal/reports/export"
	"github.com/diarydesk/diarydesk/internal/shared"
)

// ReportService defines the read contract for report data.
type ReportService interface {
	PDFRows(ctx context.Context, year int) ([][]string, error)
	CSVRows(ctx context.Context, year int) ([][]string, error)
	YearReport(ctx context.Context, year int) (reports.YearReport, error)
	Years(ctx context.Context) ([]reports.YearSummary, error)
	Dashboard(ctx context.Context, year int) (reports.Dashboard, error)
}

// PDFRenderer turns register rows into a PDF document.
type PDFRenderer interface {
	RenderRegister(ctx context.Context, year int, rows [][]string) ([]byte, error)
}

// Handler serves report pages and downloads.
type Handler struct {
	logger  *slog.Logger
	service ReportService
	pdf     PDFRenderer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ReportService, pdf PDFRenderer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pdf: pdf}
}

func (h *Handler) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years(r.Context())
	if err != nil {
		h.fail(w, r, "list report years", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"years": years})
}

func (h *Handler) handleYearReport(w http.ResponseWriter, r *http.Request) {
	year, ok := parseYear(w, r)
	if !ok {
		return
	}
	rep, err := h.service.YearReport(r.Context(), year)
	if err != nil {
		h.fail(w, r, "year report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	year, ok := parseYear(w, r)
	if !ok {
		return
	}
	rows, err := h.service.CSVRows(r.Context(), year)
	if err != nil {
		h.fail(w, r, "csv rows", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.CSVFilename(year)))
	if err := export.WriteRegisterCSV(w, rows); err != nil {
		h.logger.ErrorContext(r.Context(), "write csv", slog.Int("year", year), slog.Any("error", err))
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	year, ok := parseYear(w, r)
	if !ok {
		return
	}
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Unavailable", "pdf rendering is not configured")
		return
	}
	rows, err := h.service.PDFRows(r.Context(), year)
	if err != nil {
		h.fail(w, r, "pdf rows", err)
		return
	}
	pdf, err := h.pdf.RenderRegister(r.Context(), year, rows)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render pdf", slog.Int("year", year), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "PDF Render Failed", "")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.PDFFilename(year)))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = bytes.NewReader(pdf).WriteTo(w)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, ok := parseYear(w, r)
	if !ok {
		return
	}
	dash, err := h.service.Dashboard(r.Context(), year)
	if err != nil {
		h.fail(w, r, "dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func parseYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year <= 0 || year > 9999 {
		httpx.RespondError(w, shared.NewValidationError("year", "must be a four digit year"))
		return 0, false
	}
	return year, true
}
