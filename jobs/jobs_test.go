package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/diarydesk/diarydesk/internal/jobs"
	"github.com/diarydesk/diarydesk/internal/reports"
	"github.com/diarydesk/diarydesk/internal/shared"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIdempotencyCleanupDeletesExpiredKeys(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	mock.ExpectExec("DELETE FROM idempotency_keys").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	job := NewIdempotencyCleanupJob(shared.NewIdempotencyStore(), mock, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyCleanupKeepsSubHourRetention(t *testing.T) {
	task, err := NewIdempotencyCleanupTask(30 * time.Minute)
	require.NoError(t, err)

	var payload IdempotencyCleanupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(1800), payload.RetentionSeconds)
	assert.Equal(t, 30*time.Minute, payload.Retention())
	assert.Equal(t, DefaultKeyRetention, IdempotencyCleanupPayload{}.Retention())
}

func TestIdempotencyCleanupPropagatesErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	mock.ExpectExec("DELETE FROM idempotency_keys").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	job := NewIdempotencyCleanupJob(shared.NewIdempotencyStore(), mock, quietLogger(), nil)
	err = job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIdempotencyCleanupSkipsMalformedPayload(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	job := NewIdempotencyCleanupJob(shared.NewIdempotencyStore(), mock, quietLogger(), nil)
	err = job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeBuilder struct {
	years []int
	err   error
}

func (f *fakeBuilder) Dashboard(_ context.Context, year int) (reports.Dashboard, error) {
	f.years = append(f.years, year)
	return reports.Dashboard{Year: year}, f.err
}

func TestDashboardWarmupYears(t *testing.T) {
	builder := &fakeBuilder{}
	job := NewDashboardWarmupJob(builder, time.UTC, quietLogger(), nil)
	job.clock = func() time.Time { return time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC) }

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{YearsBack: 2})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []int{2026, 2025, 2024}, builder.years)

	builder.years = nil
	task, err = NewDashboardWarmupTask(DashboardWarmupPayload{Year: 2019})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []int{2019}, builder.years)
}

func TestDashboardWarmupUsesLocationForCurrentYear(t *testing.T) {
	builder := &fakeBuilder{}
	job := NewDashboardWarmupJob(builder, time.FixedZone("PKT", 5*60*60), quietLogger(), nil)
	job.clock = func() time.Time { return time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, nil)))
	assert.Equal(t, []int{2026}, builder.years)
}

func TestDashboardWarmupStopsOnError(t *testing.T) {
	builder := &fakeBuilder{err: errors.New("redis down")}
	job := NewDashboardWarmupJob(builder, time.UTC, quietLogger(), nil)
	job.clock = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{YearsBack: 3})
	require.NoError(t, err)
	assert.Error(t, job.Handle(context.Background(), task))
	assert.Equal(t, []int{2026}, builder.years)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, f.err
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestClientEnqueuesWarmupForChangedYear(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := &Client{client: enq, logger: quietLogger()}

	client.DiaryChanged(context.Background(), 2026)

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskDashboardWarmup, enq.tasks[0].Type())
	var payload DashboardWarmupPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, 2026, payload.Year)
}

func TestClientTreatsDuplicateAsSuccess(t *testing.T) {
	client := &Client{client: &fakeEnqueuer{err: asynq.ErrDuplicateTask}}
	assert.NoError(t, client.EnqueueDashboardWarmup(context.Background(), 2026))

	client = &Client{client: &fakeEnqueuer{err: errors.New("redis down")}}
	assert.Error(t, client.EnqueueDashboardWarmup(context.Background(), 2026))
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func TestJobsHealth(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		code      int
		body      string
	}{
		{name: "no inspector", inspector: nil, code: http.StatusOK, body: `{"queue":"default","pending":0}`},
		{name: "queue info", inspector: fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4}}, code: http.StatusOK, body: `{"queue":"default","pending":4}`},
		{name: "redis down", inspector: fakeInspector{err: errors.New("dial tcp")}, code: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tc.inspector, quietLogger()).MountRoutes(r)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			assert.Equal(t, tc.code, rec.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, rec.Body.String())
			}
		})
	}
}
