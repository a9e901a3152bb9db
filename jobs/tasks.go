package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "diary:idempotency:cleanup"
	// TaskDashboardWarmup rebuilds cached dashboards.
	TaskDashboardWarmup = "reports:dashboard:warmup"
)

// IdempotencyCleanupPayload configures one cleanup run.
type IdempotencyCleanupPayload struct {
	RetentionSeconds int64 `json:"retention_seconds"`
}

// Retention returns the configured retention, or DefaultKeyRetention when unset.
func (p IdempotencyCleanupPayload) Retention() time.Duration {
	if p.RetentionSeconds <= 0 {
		return DefaultKeyRetention
	}
	return time.Duration(p.RetentionSeconds) * time.Second
}

// DashboardWarmupPayload selects the years to rebuild. A zero Year means the
// current year plus YearsBack earlier ones.
type DashboardWarmupPayload struct {
	Year      int `json:"year,omitempty"`
	YearsBack int `json:"years_back,omitempty"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionSeconds: int64(retention / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// NewDashboardWarmupTask constructs the warmup task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
