package offices

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository persists office names.
type Repository struct {
	db Querier
}

// NewRepository constructs a repository.
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// Insert registers names, ignoring ones that already exist.
func (r *Repository) Insert(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	insert := psql.Insert("offices").Columns("name")
	for _, name := range names {
		insert = insert.Values(name)
	}
	query, args, err := insert.Suffix("ON CONFLICT (name) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("offices: build insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("offices: insert: %w", err)
	}
	return nil
}

// Names returns every registered office name.
func (r *Repository) Names(ctx context.Context) ([]string, error) {
	var names []string
	if err := pgxscan.Select(ctx, r.db, &names, `SELECT name FROM offices`); err != nil {
		return nil, fmt.Errorf("offices: list: %w", err)
	}
	return names, nil
}
