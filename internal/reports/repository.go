package reports

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository struct {
	db pgxscan.Querier
}

// NewRepository constructs a repository.
func NewRepository(db pgxscan.Querier) *Repository {
	return &Repository{db: db}
}

// StatusCounts groups the diaries of year by snapshot status.
func (r *Repository) StatusCounts(ctx context.Context, year int) ([]StatusCount, error) {
	var out []StatusCount
	err := pgxscan.Select(ctx, r.db, &out,
		`SELECT status, COUNT(*)::int AS count FROM diaries WHERE year = $1 AND sequence > 0 GROUP BY status ORDER BY status`,
		year)
	if err != nil {
		return nil, fmt.Errorf("reports: status counts: %w", err)
	}
	return out, nil
}

// MonthCounts groups the diaries of year by month of diary date.
func (r *Repository) MonthCounts(ctx context.Context, year int) ([]MonthCount, error) {
	var out []MonthCount
	err := pgxscan.Select(ctx, r.db, &out,
		`SELECT EXTRACT(MONTH FROM diary_date)::int AS month, COUNT(*)::int AS count
		FROM diaries WHERE year = $1 AND sequence > 0
		GROUP BY 1 ORDER BY 1`,
		year)
	if err != nil {
		return nil, fmt.Errorf("reports: month counts: %w", err)
	}
	return out, nil
}

// YearSummaries lists every year with data, newest first.
func (r *Repository) YearSummaries(ctx context.Context) ([]YearSummary, error) {
	var out []YearSummary
	err := pgxscan.Select(ctx, r.db, &out,
		`SELECT year, COUNT(*)::int AS count FROM diaries WHERE sequence > 0 GROUP BY year ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("reports: year summaries: %w", err)
	}
	return out, nil
}
