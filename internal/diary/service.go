package diary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/diarydesk/diarydesk/internal/shared"
)

const initialMovementRemarks = "Initial diary created"

// DefaultOffice is used when no sender is known.
const DefaultOffice = "Registry"

// Store is the persistence contract of the service.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetDiary(ctx context.Context, id int64) (Diary, error)
	DeleteDiary(ctx context.Context, id int64) error
	ListMovements(ctx context.Context, diaryID int64) ([]Movement, error)
	LastMovement(ctx context.Context, diaryID int64) (*Movement, error)
	ListDiaries(ctx context.Context, filters ListFilters) ([]Diary, int, error)
}

// OfficeRegistry records office names referenced by diaries.
type OfficeRegistry interface {
	Ensure(ctx context.Context, names ...string) error
}

// ChangeNotifier is told after every committed diary write.
type ChangeNotifier interface {
	DiaryChanged(ctx context.Context, year int)
}

// Recorder receives operation outcomes for metrics.
type Recorder interface {
	ObserveDiaryOperation(op, outcome string)
	ObserveAllocation(d time.Duration)
}

// Options configures the service.
type Options struct {
	Location      *time.Location
	DefaultOffice string
	PageSize      int
	Offices       OfficeRegistry
	Notifier      ChangeNotifier
	Recorder      Recorder
	Logger        *slog.Logger
}

// Service implements the diary lifecycle.
type Service struct {
	store         Store
	loc           *time.Location
	defaultOffice string
	pageSize      int
	offices       OfficeRegistry
	notifier      ChangeNotifier
	recorder      Recorder
	logger        *slog.Logger
	projector     Projector
	now           func() time.Time
}

// NewService constructs a diary service.
func NewService(store Store, opts Options) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	office := opts.DefaultOffice
	if office == "" {
		office = DefaultOffice
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = shared.DefaultPerPage
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:         store,
		loc:           loc,
		defaultOffice: office,
		pageSize:      pageSize,
		offices:       opts.Offices,
		notifier:      opts.Notifier,
		recorder:      opts.Recorder,
		logger:        logger,
		projector:     NewProjector(loc),
		now:           time.Now,
	}
}

// Projector returns the history projector bound to the service time zone.
func (s *Service) Projector() Projector {
	return s.projector
}

func (s *Service) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Create registers a diary, allocates its number and appends the initial movement.
func (s *Service) Create(ctx context.Context, in DiaryInput, creator string) (Diary, error) {
	in, folders, err := normalizeDiaryInput(in)
	if err != nil {
		s.observe("create", "invalid")
		return Diary{}, err
	}
	key, err := shared.NormalizeIdempotencyKey(in.IdempotencyKey)
	if err != nil {
		s.observe("create", "invalid")
		return Diary{}, err
	}

	today := s.today()
	year := today.Year()
	if in.Year != nil {
		year = *in.Year
	}
	diaryDate := today
	if in.DiaryDate != nil {
		diaryDate = dateOnly(*in.DiaryDate)
	}

	origin := in.ReceivedFrom
	if origin == "" {
		origin = s.defaultOffice
	}

	record := Diary{
		Year:            year,
		DiaryDate:       diaryDate,
		ReceivedFrom:    in.ReceivedFrom,
		ReceivedDiaryNo: in.ReceivedDiaryNo,
		Kind:            in.Kind,
		FolderCount:     folders,
		Subject:         in.Subject,
		Remarks:         in.Remarks,
		MarkedTo:        in.MarkedTo,
		Status:          StatusPending,
		CreatedBy:       creator,
	}

	started := s.now()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if key != "" {
			if err := tx.ClaimIdempotencyKey(ctx, key); err != nil {
				return err
			}
		}
		seq, err := tx.NextSequence(ctx, year)
		if err != nil {
			return err
		}
		record.Sequence = seq
		inserted, err := tx.InsertDiary(ctx, record)
		if err != nil {
			return err
		}
		record = inserted

		if _, err := tx.InsertMovement(ctx, Movement{
			DiaryID:        record.ID,
			Year:           record.Year,
			Sequence:       record.Sequence,
			FromOffice:     origin,
			ToOffice:       origin,
			ActionType:     ActionCreated,
			ActionDatetime: s.now(),
			Remarks:        initialMovementRemarks,
			CreatedBy:      creator,
		}); err != nil {
			return err
		}

		if err := tx.UpdateSnapshot(ctx, record.ID, record.MarkedTo, today, StatusCreated); err != nil {
			return err
		}
		record.Status = StatusCreated
		record.MarkedDate = &today
		return nil
	})
	if err != nil {
		s.observe("create", outcomeOf(err))
		return Diary{}, err
	}
	if s.recorder != nil {
		s.recorder.ObserveAllocation(s.now().Sub(started))
	}
	s.observe("create", "ok")

	s.afterWrite(ctx, record.Year, record.ReceivedFrom, record.MarkedTo)
	s.logger.InfoContext(ctx, "diary created",
		slog.Int64("diary_id", record.ID),
		slog.String("diary_no", record.DiaryNo()),
		slog.String("created_by", creator))
	return record, nil
}

// AddMovement appends an event and synchronizes the diary snapshot.
func (s *Service) AddMovement(ctx context.Context, diaryID int64, in MovementInput, creator string) (Movement, error) {
	in, err := normalizeMovementInput(in)
	if err != nil {
		s.observe("movement", "invalid")
		return Movement{}, err
	}
	at := s.now()
	if in.ActionDatetime != nil {
		at = *in.ActionDatetime
	}

	var (
		saved  Movement
		record Diary
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.LockDiary(ctx, diaryID)
		if err != nil {
			return err
		}
		record = d
		from := in.FromOffice
		if from == "" {
			last, err := tx.LastMovement(ctx, d.ID)
			if err != nil {
				return err
			}
			from = s.fallbackOrigin(d, last)
		}
		saved, err = tx.InsertMovement(ctx, Movement{
			DiaryID:        d.ID,
			Year:           d.Year,
			Sequence:       d.Sequence,
			FromOffice:     from,
			ToOffice:       in.ToOffice,
			ActionType:     in.ActionType,
			ActionDatetime: at,
			Remarks:        in.Remarks,
			CreatedBy:      creator,
		})
		if err != nil {
			return err
		}
		return tx.UpdateSnapshot(ctx, d.ID, saved.ToOffice, s.today(), saved.ActionType.Status())
	})
	if err != nil {
		s.observe("movement", outcomeOf(err))
		return Movement{}, err
	}
	s.observe("movement", "ok")

	s.afterWrite(ctx, record.Year, saved.FromOffice, saved.ToOffice)
	s.logger.InfoContext(ctx, "diary movement added",
		slog.Int64("diary_id", diaryID),
		slog.String("action", string(saved.ActionType)),
		slog.String("to_office", saved.ToOffice))
	return saved, nil
}

// MovementDefaults returns the prefilled values for a new movement.
func (s *Service) MovementDefaults(ctx context.Context, diaryID int64) (MovementDefaults, error) {
	d, err := s.store.GetDiary(ctx, diaryID)
	if err != nil {
		return MovementDefaults{}, err
	}
	last, err := s.store.LastMovement(ctx, diaryID)
	if err != nil {
		return MovementDefaults{}, err
	}
	return MovementDefaults{
		FromOffice:     s.fallbackOrigin(d, last),
		ActionType:     ActionMarked,
		ActionDatetime: s.now().In(s.loc).Truncate(time.Minute),
	}, nil
}

// Edit replaces the descriptive fields of a diary. Year and sequence never change.
func (s *Service) Edit(ctx context.Context, diaryID int64, in DiaryInput, editor string) (Diary, error) {
	in, folders, err := normalizeDiaryInput(in)
	if err != nil {
		s.observe("edit", "invalid")
		return Diary{}, err
	}

	var record Diary
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.LockDiary(ctx, diaryID)
		if err != nil {
			return err
		}
		if in.DiaryDate != nil {
			d.DiaryDate = dateOnly(*in.DiaryDate)
		}
		d.ReceivedFrom = in.ReceivedFrom
		d.ReceivedDiaryNo = in.ReceivedDiaryNo
		d.Kind = in.Kind
		d.FolderCount = folders
		d.Subject = in.Subject
		d.Remarks = in.Remarks
		d.MarkedTo = in.MarkedTo
		record = d
		return tx.UpdateDiary(ctx, d)
	})
	if err != nil {
		s.observe("edit", outcomeOf(err))
		return Diary{}, err
	}
	s.observe("edit", "ok")

	s.afterWrite(ctx, record.Year, record.ReceivedFrom, record.MarkedTo)
	s.logger.InfoContext(ctx, "diary edited",
		slog.Int64("diary_id", diaryID),
		slog.String("edited_by", editor))
	return record, nil
}

// Delete removes a diary and its ledger.
func (s *Service) Delete(ctx context.Context, diaryID int64) error {
	d, err := s.store.GetDiary(ctx, diaryID)
	if err != nil {
		s.observe("delete", outcomeOf(err))
		return err
	}
	if err := s.store.DeleteDiary(ctx, diaryID); err != nil {
		s.observe("delete", outcomeOf(err))
		return err
	}
	s.observe("delete", "ok")
	if s.notifier != nil {
		s.notifier.DiaryChanged(ctx, d.Year)
	}
	s.logger.InfoContext(ctx, "diary deleted", slog.Int64("diary_id", diaryID), slog.String("diary_no", d.DiaryNo()))
	return nil
}

// Get returns a diary with its ordered ledger and history projections.
func (s *Service) Get(ctx context.Context, diaryID int64) (Detail, error) {
	d, err := s.store.GetDiary(ctx, diaryID)
	if err != nil {
		return Detail{}, err
	}
	movements, err := s.store.ListMovements(ctx, diaryID)
	if err != nil {
		return Detail{}, err
	}
	if movements == nil {
		movements = []Movement{}
	}
	return Detail{
		Diary:         d,
		DiaryNo:       d.DiaryNo(),
		Movements:     movements,
		HistoryHTML:   string(s.projector.HTML(movements)),
		HistoryPlain:  s.projector.Plain(movements),
		FolderDisplay: FolderDisplay(d.Kind, d.FolderCount),
	}, nil
}

// List returns one page of diaries matching filters.
func (s *Service) List(ctx context.Context, filters ListFilters) (ListResult, shared.Pagination, error) {
	if filters.PerPage <= 0 {
		filters.PerPage = s.pageSize
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	diaries, total, err := s.store.ListDiaries(ctx, filters)
	if err != nil {
		return ListResult{}, shared.Pagination{}, err
	}
	if diaries == nil {
		diaries = []Diary{}
	}
	return ListResult{Diaries: diaries, Total: total}, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

func (s *Service) fallbackOrigin(d Diary, last *Movement) string {
	if last != nil && last.ToOffice != "" {
		return last.ToOffice
	}
	if d.ReceivedFrom != "" {
		return d.ReceivedFrom
	}
	return s.defaultOffice
}

// afterWrite runs the post-commit side effects. Failures are logged only,
// the write itself has already been committed.
func (s *Service) afterWrite(ctx context.Context, year int, offices ...string) {
	if s.offices != nil {
		if err := s.offices.Ensure(ctx, offices...); err != nil {
			s.logger.WarnContext(ctx, "office registry update failed", slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		s.notifier.DiaryChanged(ctx, year)
	}
}

func (s *Service) observe(op, outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveDiaryOperation(op, outcome)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return "invalid"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrIdempotencyConflict):
		return "conflict"
	default:
		return "error"
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ErrInvalidID is returned for non-positive identifiers.
var ErrInvalidID = fmt.Errorf("%w: invalid diary id", shared.ErrValidation)
