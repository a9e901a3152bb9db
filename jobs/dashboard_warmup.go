package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/diarydesk/diarydesk/internal/jobs"
	"github.com/diarydesk/diarydesk/internal/reports"
)

// DashboardBuilder builds and caches one year's dashboard.
type DashboardBuilder interface {
	Dashboard(ctx context.Context, year int) (reports.Dashboard, error)
}

// DashboardWarmupJob pre-populates the dashboard cache.
type DashboardWarmupJob struct {
	Reports  DashboardBuilder
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(builder DashboardBuilder, loc *time.Location, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardWarmupJob{
		Reports:  builder,
		Location: loc,
		Logger:   logger,
		Metrics:  metrics,
		clock:    time.Now,
	}
}

// Handle processes TaskDashboardWarmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(TaskDashboardWarmup)
	logger := loggerOrDefault(j.Logger)
	warmed := 0
	for _, year := range j.years(payload) {
		// Each year gets its own deadline.
		yearCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		_, err := j.Reports.Dashboard(yearCtx, year)
		cancel()
		if err != nil {
			logger.Error("warm dashboard", slog.Int("year", year), slog.Any("error", err))
			j.Metrics.AddWarmedDashboards(warmed)
			return tracker.End(err)
		}
		warmed++
	}
	j.Metrics.AddWarmedDashboards(warmed)
	logger.Info("warmed dashboards", slog.Int("years", warmed))
	return tracker.End(nil)
}

func (j *DashboardWarmupJob) years(p DashboardWarmupPayload) []int {
	if p.Year > 0 {
		return []int{p.Year}
	}
	current := j.clock().In(j.Location).Year()
	back := p.YearsBack
	if back < 0 {
		back = 0
	}
	years := make([]int, 0, back+1)
	for y := current; y >= current-back; y-- {
		years = append(years, y)
	}
	return years
}
