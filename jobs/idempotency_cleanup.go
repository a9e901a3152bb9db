package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/diarydesk/diarydesk/internal/jobs"
	"github.com/diarydesk/diarydesk/internal/shared"
)

// DefaultKeyRetention is how long processed idempotency keys are kept.
const DefaultKeyRetention = 24 * time.Hour

// IdempotencyCleanupJob deletes idempotency keys past their retention.
type IdempotencyCleanupJob struct {
	Store   *shared.IdempotencyStore
	DB      shared.Execer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, db shared.Execer, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, DB: db, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.DB == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	retention := payload.Retention()

	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	removed, err := j.Store.Cleanup(ctx, j.DB, retention)
	if err != nil {
		loggerOrDefault(j.Logger).Error("purge idempotency keys", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddPurgedKeys(removed)
	loggerOrDefault(j.Logger).Info("purged idempotency keys",
		slog.Int64("removed", removed),
		slog.Duration("retention", retention))
	return tracker.End(nil)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
