// Package reports builds the register, export and dashboard views of the diary registry.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/diarydesk/diarydesk/internal/diary"
)

// DiaryReader loads diaries and their ledgers.
type DiaryReader interface {
	ListForYear(ctx context.Context, year int, descending bool) ([]diary.Diary, error)
	MovementsFor(ctx context.Context, diaryIDs []int64) (map[int64][]diary.Movement, error)
}

// StatsReader runs aggregate queries.
type StatsReader interface {
	StatusCounts(ctx context.Context, year int) ([]StatusCount, error)
	MonthCounts(ctx context.Context, year int) ([]MonthCount, error)
	YearSummaries(ctx context.Context) ([]YearSummary, error)
}

// Service builds report rows from the diary store.
type Service struct {
	diaries   DiaryReader
	stats     StatsReader
	cache     *Cache
	projector diary.Projector
	logger    *slog.Logger
	group     singleflight.Group
}

// NewService constructs the report service.
func NewService(diaries DiaryReader, stats StatsReader, cache *Cache, projector diary.Projector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		diaries:   diaries,
		stats:     stats,
		cache:     cache,
		projector: projector,
		logger:    logger,
	}
}

type ledgerView struct {
	diary     diary.Diary
	movements []diary.Movement
}

func (s *Service) load(ctx context.Context, year int, descending bool) ([]ledgerView, error) {
	list, err := s.diaries.ListForYear(ctx, year, descending)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(list))
	for i, d := range list {
		ids[i] = d.ID
	}
	ledgers, err := s.diaries.MovementsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ledgerView, 0, len(list))
	for _, d := range list {
		if d.Sequence <= 0 {
			continue
		}
		out = append(out, ledgerView{diary: d, movements: ledgers[d.ID]})
	}
	return out, nil
}

// PDFRows returns the header row followed by one row per diary of year in
// ascending sequence order.
func (s *Service) PDFRows(ctx context.Context, year int) ([][]string, error) {
	views, err := s.load(ctx, year, false)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(views)+1)
	rows = append(rows, append([]string(nil), PDFHeader...))
	for _, v := range views {
		d := v.diary
		rows = append(rows, []string{
			strconv.Itoa(d.Sequence),
			d.DiaryDate.Format(dateLayout),
			d.ReceivedDiaryNo,
			d.ReceivedFrom,
			string(d.Kind),
			diary.FolderDisplay(d.Kind, d.FolderCount),
			d.Subject,
			s.projector.Dedup(v.movements),
		})
	}
	return rows, nil
}

// CSVRows returns the header row followed by one row per diary of year in
// descending sequence order.
func (s *Service) CSVRows(ctx context.Context, year int) ([][]string, error) {
	views, err := s.load(ctx, year, true)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(views)+1)
	rows = append(rows, append([]string(nil), CSVHeader...))
	for _, v := range views {
		d := v.diary
		rows = append(rows, []string{
			d.ShortDiaryNo(),
			d.DiaryDate.Format(dateLayout),
			d.ReceivedDiaryNo,
			d.ReceivedFrom,
			string(d.Kind),
			diary.FolderDisplay(d.Kind, d.FolderCount),
			d.Subject,
			d.Remarks,
			string(d.Status),
			s.projector.CSV(v.movements),
		})
	}
	return rows, nil
}

// YearReport returns the register page of year.
func (s *Service) YearReport(ctx context.Context, year int) (YearReport, error) {
	views, err := s.load(ctx, year, false)
	if err != nil {
		return YearReport{}, err
	}
	rows := make([]YearRow, 0, len(views))
	for _, v := range views {
		d := v.diary
		rows = append(rows, YearRow{
			ID:              d.ID,
			DiaryNo:         d.DiaryNo(),
			Sequence:        d.Sequence,
			DiaryDate:       d.DiaryDate,
			ReceivedDiaryNo: d.ReceivedDiaryNo,
			ReceivedFrom:    d.ReceivedFrom,
			Kind:            string(d.Kind),
			Folders:         diary.FolderDisplay(d.Kind, d.FolderCount),
			Subject:         d.Subject,
			MarkedTo:        d.MarkedTo,
			Status:          string(d.Status),
			HistoryHTML:     string(s.projector.HTML(v.movements)),
		})
	}
	return YearReport{Year: year, Rows: rows}, nil
}

// Years lists every year with registered diaries, newest first.
func (s *Service) Years(ctx context.Context) ([]YearSummary, error) {
	out, err := s.stats.YearSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []YearSummary{}
	}
	return out, nil
}

// Dashboard returns the cached aggregates of year. Concurrent cache misses
// for the same key share a single build.
func (s *Service) Dashboard(ctx context.Context, year int) (Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, "diary", "dashboard", strconv.Itoa(year))
	if err != nil {
		s.logger.WarnContext(ctx, "dashboard cache key", slog.Any("error", err))
		return s.buildDashboard(ctx, year)
	}
	res, err, _ := s.group.Do(key, func() (any, error) {
		var out Dashboard
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return s.buildDashboard(ctx, year)
		})
		return out, err
	})
	if err != nil {
		return Dashboard{}, fmt.Errorf("reports: dashboard %d: %w", year, err)
	}
	return res.(Dashboard), nil
}

func (s *Service) buildDashboard(ctx context.Context, year int) (Dashboard, error) {
	started := time.Now()
	byStatus, err := s.stats.StatusCounts(ctx, year)
	if err != nil {
		return Dashboard{}, err
	}
	byMonth, err := s.stats.MonthCounts(ctx, year)
	if err != nil {
		return Dashboard{}, err
	}
	summaries, err := s.stats.YearSummaries(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	months := make([]MonthCount, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	for _, mc := range byMonth {
		if mc.Month >= 1 && mc.Month <= 12 {
			months[mc.Month-1].Count = mc.Count
		}
	}
	total := 0
	for _, sc := range byStatus {
		total += sc.Count
	}
	years := make([]int, 0, len(summaries))
	for _, ys := range summaries {
		years = append(years, ys.Year)
	}
	if byStatus == nil {
		byStatus = []StatusCount{}
	}
	s.logger.DebugContext(ctx, "dashboard built", slog.Int("year", year), slog.Duration("took", time.Since(started)))
	return Dashboard{Year: year, Total: total, ByStatus: byStatus, ByMonth: months, Years: years}, nil
}
