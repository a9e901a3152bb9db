package diaryhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diarydesk/diarydesk/internal/diary"
	"github.com/diarydesk/diarydesk/internal/platform/httpx"
	"github.com/diarydesk/diarydesk/internal/shared"
)

const dateLayout = "2006-01-02"

// DiaryService defines the business contract used by the handlers.
type DiaryService interface {
	Create(ctx context.Context, in diary.DiaryInput, creator string) (diary.Diary, error)
	AddMovement(ctx context.Context, diaryID int64, in diary.MovementInput, creator string) (diary.Movement, error)
	MovementDefaults(ctx context.Context, diaryID int64) (diary.MovementDefaults, error)
	Edit(ctx context.Context, diaryID int64, in diary.DiaryInput, editor string) (diary.Diary, error)
	Delete(ctx context.Context, diaryID int64) error
	Get(ctx context.Context, diaryID int64) (diary.Detail, error)
	List(ctx context.Context, filters diary.ListFilters) (diary.ListResult, shared.Pagination, error)
}

// Handler serves the diary API.
type Handler struct {
	logger  *slog.Logger
	service DiaryService
	loc     *time.Location
}

// NewHandler builds Handler instance. loc interprets submitted dates and
// naive movement timestamps.
func NewHandler(logger *slog.Logger, service DiaryService, loc *time.Location) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{logger: logger, service: service, loc: loc}
}

type diaryRequest struct {
	Year            *int   `json:"year"`
	DiaryDate       string `json:"diary_date"`
	ReceivedFrom    string `json:"received_from"`
	ReceivedDiaryNo string `json:"received_diary_no"`
	Kind            string `json:"file_letter"`
	FolderCount     *int   `json:"no_of_folders"`
	Subject         string `json:"subject"`
	Remarks         string `json:"remarks"`
	MarkedTo        string `json:"marked_to"`
}

func (req diaryRequest) toInput(loc *time.Location) (diary.DiaryInput, error) {
	in := diary.DiaryInput{
		Year:            req.Year,
		ReceivedFrom:    req.ReceivedFrom,
		ReceivedDiaryNo: req.ReceivedDiaryNo,
		Kind:            diary.Kind(req.Kind),
		FolderCount:     req.FolderCount,
		Subject:         req.Subject,
		Remarks:         req.Remarks,
		MarkedTo:        req.MarkedTo,
	}
	if raw := strings.TrimSpace(req.DiaryDate); raw != "" {
		d, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return in, shared.NewValidationError("diary_date", "Enter a valid date (YYYY-MM-DD).")
		}
		in.DiaryDate = &d
	}
	return in, nil
}

type movementRequest struct {
	FromOffice     string `json:"from_office"`
	ToOffice       string `json:"to_office"`
	ActionType     string `json:"action_type"`
	ActionDatetime string `json:"action_datetime"`
	Remarks        string `json:"remarks"`
}

var datetimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

func (req movementRequest) toInput(loc *time.Location) (diary.MovementInput, error) {
	in := diary.MovementInput{
		FromOffice: req.FromOffice,
		ToOffice:   req.ToOffice,
		ActionType: diary.ActionType(req.ActionType),
		Remarks:    req.Remarks,
	}
	raw := strings.TrimSpace(req.ActionDatetime)
	if raw == "" {
		return in, nil
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			in.ActionDatetime = &t
			return in, nil
		}
	}
	return in, shared.NewValidationError("action_datetime", "Enter a valid date/time.")
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	filters := diary.ListFilters{
		Query:  q.Get("q"),
		Year:   q.Get("year"),
		Status: q.Get("status"),
		Page:   page,
	}
	res, pagination, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.fail(w, r, "list diaries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"diaries":    res.Diaries,
		"pagination": pagination,
		"statuses":   diary.Statuses(),
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req diaryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := req.toInput(h.loc)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.IdempotencyKey = r.Header.Get("Idempotency-Key")

	d, err := h.service.Create(r.Context(), in, actor(r))
	if err != nil {
		h.fail(w, r, "create diary", err)
		return
	}
	w.Header().Set("Location", "/api/diaries/"+strconv.FormatInt(d.ID, 10))
	httpx.JSON(w, http.StatusCreated, map[string]any{"diary": d, "diary_no": d.DiaryNo()})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get diary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req diaryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := req.toInput(h.loc)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.Edit(r.Context(), id, in, actor(r))
	if err != nil {
		h.fail(w, r, "edit diary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"diary": d, "diary_no": d.DiaryNo()})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete diary", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMovementDefaults(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	defaults, err := h.service.MovementDefaults(r.Context(), id)
	if err != nil {
		h.fail(w, r, "movement defaults", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"defaults":     defaults,
		"action_types": diary.ActionTypes(),
	})
}

func (h *Handler) handleAddMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := req.toInput(h.loc)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.AddMovement(r.Context(), id, in, actor(r))
	if err != nil {
		h.fail(w, r, "add movement", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"movement": m})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if isClientError(err) {
		h.logger.InfoContext(r.Context(), op, slog.Any("error", err))
	} else {
		h.logger.ErrorContext(r.Context(), op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, diary.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func actor(r *http.Request) string {
	if p, ok := shared.PrincipalFromContext(r.Context()); ok {
		return p.Username
	}
	return ""
}

func isClientError(err error) bool {
	return errors.Is(err, shared.ErrValidation) ||
		errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrConflict) ||
		errors.Is(err, shared.ErrIdempotencyConflict)
}
