package diary

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/diarydesk/diarydesk/internal/platform/db"
	"github.com/diarydesk/diarydesk/internal/shared"
)

// allocatorNamespace is the first key of the per-year advisory lock.
const allocatorNamespace int32 = 0x44495259

const idempotencyModule = "diary.create"

const diaryColumns = `id, year, sequence, diary_date, received_from, received_diary_no, file_letter,
	no_of_folders, subject, remarks, marked_to, marked_date, status, created_by, created_at`

const movementColumns = `id, diary_id, year, sequence, from_office, to_office, action_type,
	action_datetime, remarks, created_by, created_on`

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Querier is the query surface shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can also open transactions.
type DB interface {
	Querier
	db.Beginner
}

// TxRepository exposes the write operations that must share a transaction.
type TxRepository interface {
	NextSequence(ctx context.Context, year int) (int, error)
	InsertDiary(ctx context.Context, d Diary) (Diary, error)
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
	LockDiary(ctx context.Context, id int64) (Diary, error)
	LastMovement(ctx context.Context, diaryID int64) (*Movement, error)
	UpdateSnapshot(ctx context.Context, id int64, markedTo string, markedDate time.Time, status Status) error
	UpdateDiary(ctx context.Context, d Diary) error
	ClaimIdempotencyKey(ctx context.Context, key string) error
}

// Repository provides PostgreSQL backed persistence for diaries and movements.
type Repository struct {
	db          DB
	idempotency *shared.IdempotencyStore
}

// NewRepository constructs a repository.
func NewRepository(conn DB) *Repository {
	return &Repository{db: conn, idempotency: shared.NewIdempotencyStore()}
}

type txRepo struct {
	tx          pgx.Tx
	idempotency *shared.IdempotencyStore
}

// WithTx runs fn inside a READ COMMITTED transaction. The allocator lock is
// taken inside fn, so every statement after it must see rows committed while
// the caller waited.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithReadCommittedTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, idempotency: r.idempotency})
	})
}

// NextSequence serializes allocation for year and returns the next free number.
// The advisory lock is released when the surrounding transaction ends.
func (t *txRepo) NextSequence(ctx context.Context, year int) (int, error) {
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, allocatorNamespace, int32(year)); err != nil {
		return 0, fmt.Errorf("diary: lock year %d: %w", year, err)
	}
	var next int
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(MAX(sequence), 0) + 1 FROM diaries WHERE year = $1`, year).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("diary: next sequence: %w", err)
	}
	return next, nil
}

func (t *txRepo) InsertDiary(ctx context.Context, d Diary) (Diary, error) {
	const query = `INSERT INTO diaries (year, sequence, diary_date, received_from, received_diary_no, file_letter,
		no_of_folders, subject, remarks, marked_to, marked_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`
	err := t.tx.QueryRow(ctx, query,
		d.Year, d.Sequence, d.DiaryDate, d.ReceivedFrom, d.ReceivedDiaryNo, string(d.Kind),
		d.FolderCount, d.Subject, d.Remarks, d.MarkedTo, d.MarkedDate, string(d.Status), d.CreatedBy,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Diary{}, fmt.Errorf("%w: diary %s already allocated", shared.ErrConflict, d.DiaryNo())
		}
		return Diary{}, fmt.Errorf("diary: insert: %w", err)
	}
	return d, nil
}

func (t *txRepo) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	const query = `INSERT INTO diary_movements (diary_id, year, sequence, from_office, to_office, action_type,
		action_datetime, remarks, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_on`
	err := t.tx.QueryRow(ctx, query,
		m.DiaryID, m.Year, m.Sequence, m.FromOffice, m.ToOffice, string(m.ActionType),
		m.ActionDatetime, m.Remarks, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedOn)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Movement{}, fmt.Errorf("%w: diary %d", shared.ErrNotFound, m.DiaryID)
		}
		return Movement{}, fmt.Errorf("diary: insert movement: %w", err)
	}
	return m, nil
}

// LockDiary loads a diary and holds its row lock until commit.
func (t *txRepo) LockDiary(ctx context.Context, id int64) (Diary, error) {
	return getDiary(ctx, t.tx, `SELECT `+diaryColumns+` FROM diaries WHERE id = $1 FOR UPDATE`, id)
}

func (t *txRepo) LastMovement(ctx context.Context, diaryID int64) (*Movement, error) {
	return lastMovement(ctx, t.tx, diaryID)
}

func (t *txRepo) UpdateSnapshot(ctx context.Context, id int64, markedTo string, markedDate time.Time, status Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE diaries SET marked_to = $1, marked_date = $2, status = $3 WHERE id = $4`,
		markedTo, markedDate, string(status), id)
	if err != nil {
		return fmt.Errorf("diary: update snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: diary %d", shared.ErrNotFound, id)
	}
	return nil
}

func (t *txRepo) UpdateDiary(ctx context.Context, d Diary) error {
	query, args, err := psql.Update("diaries").
		Set("diary_date", d.DiaryDate).
		Set("received_from", d.ReceivedFrom).
		Set("received_diary_no", d.ReceivedDiaryNo).
		Set("file_letter", string(d.Kind)).
		Set("no_of_folders", d.FolderCount).
		Set("subject", d.Subject).
		Set("remarks", d.Remarks).
		Set("marked_to", d.MarkedTo).
		Where(squirrel.Eq{"id": d.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("diary: build update: %w", err)
	}
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("diary: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: diary %d", shared.ErrNotFound, d.ID)
	}
	return nil
}

func (t *txRepo) ClaimIdempotencyKey(ctx context.Context, key string) error {
	return t.idempotency.CheckAndInsert(ctx, t.tx, key, idempotencyModule)
}

// GetDiary fetches one diary.
func (r *Repository) GetDiary(ctx context.Context, id int64) (Diary, error) {
	return getDiary(ctx, r.db, `SELECT `+diaryColumns+` FROM diaries WHERE id = $1`, id)
}

// DeleteDiary removes a diary. Movements cascade.
func (r *Repository) DeleteDiary(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM diaries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("diary: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: diary %d", shared.ErrNotFound, id)
	}
	return nil
}

// ListMovements returns the ledger of a diary in display order.
func (r *Repository) ListMovements(ctx context.Context, diaryID int64) ([]Movement, error) {
	var out []Movement
	err := pgxscan.Select(ctx, r.db, &out,
		`SELECT `+movementColumns+` FROM diary_movements WHERE diary_id = $1 ORDER BY action_datetime ASC, id ASC`,
		diaryID)
	if err != nil {
		return nil, fmt.Errorf("diary: list movements: %w", err)
	}
	return out, nil
}

// LastMovement returns the latest event of a diary, or nil when it has none.
func (r *Repository) LastMovement(ctx context.Context, diaryID int64) (*Movement, error) {
	return lastMovement(ctx, r.db, diaryID)
}

func lastMovement(ctx context.Context, q pgxscan.Querier, diaryID int64) (*Movement, error) {
	var m Movement
	err := pgxscan.Get(ctx, q, &m,
		`SELECT `+movementColumns+` FROM diary_movements WHERE diary_id = $1 ORDER BY action_datetime DESC, id DESC LIMIT 1`,
		diaryID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("diary: last movement: %w", err)
	}
	return &m, nil
}

// MovementsFor loads the ledgers of many diaries keyed by diary id.
func (r *Repository) MovementsFor(ctx context.Context, diaryIDs []int64) (map[int64][]Movement, error) {
	out := make(map[int64][]Movement, len(diaryIDs))
	if len(diaryIDs) == 0 {
		return out, nil
	}
	var rows []Movement
	err := pgxscan.Select(ctx, r.db, &rows,
		`SELECT `+movementColumns+` FROM diary_movements WHERE diary_id = ANY($1) ORDER BY diary_id, action_datetime ASC, id ASC`,
		diaryIDs)
	if err != nil {
		return nil, fmt.Errorf("diary: movements for: %w", err)
	}
	for _, m := range rows {
		out[m.DiaryID] = append(out[m.DiaryID], m)
	}
	return out, nil
}

// ListForYear returns numbered diaries of year ordered by sequence.
func (r *Repository) ListForYear(ctx context.Context, year int, descending bool) ([]Diary, error) {
	order := "sequence ASC"
	if descending {
		order = "sequence DESC"
	}
	query, args, err := psql.Select(diaryColumns).
		From("diaries").
		Where(squirrel.Eq{"year": year}).
		Where(squirrel.Gt{"sequence": 0}).
		OrderBy(order).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("diary: build year query: %w", err)
	}
	var out []Diary
	if err := pgxscan.Select(ctx, r.db, &out, query, args...); err != nil {
		return nil, fmt.Errorf("diary: list year %d: %w", year, err)
	}
	return out, nil
}

// ListDiaries returns one page of diaries plus the total match count.
func (r *Repository) ListDiaries(ctx context.Context, filters ListFilters) ([]Diary, int, error) {
	where := listConditions(filters)

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("diaries").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("diary: build count: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("diary: count: %w", err)
	}

	page := shared.NewPagination(filters.Page, filters.PerPage, total)
	query, args, err := psql.Select(diaryColumns).
		From("diaries").
		Where(where).
		OrderBy("year DESC", "sequence ASC").
		Limit(uint64(page.PerPage)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("diary: build list: %w", err)
	}
	var out []Diary
	if err := pgxscan.Select(ctx, r.db, &out, query, args...); err != nil {
		return nil, 0, fmt.Errorf("diary: list: %w", err)
	}
	return out, total, nil
}

func listConditions(filters ListFilters) squirrel.And {
	where := squirrel.And{}
	if y := strings.TrimSpace(filters.Year); isDigits(y) {
		if year, err := strconv.Atoi(y); err == nil {
			where = append(where, squirrel.Eq{"year": year})
		}
	}
	if s := strings.TrimSpace(filters.Status); s != "" {
		where = append(where, squirrel.Eq{"status": s})
	}
	term := classifySearch(filters.Query)
	switch term.tier {
	case searchDiaryNo:
		where = append(where, squirrel.Eq{"year": term.year, "sequence": term.sequence})
	case searchSequence:
		where = append(where, squirrel.Eq{"sequence": term.sequence})
	case searchText:
		pattern := "%" + escapeLike(term.text) + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"subject": pattern},
			squirrel.ILike{"received_from": pattern},
			squirrel.ILike{"received_diary_no": pattern},
			squirrel.ILike{"file_letter": pattern},
			squirrel.ILike{"marked_to": pattern},
			squirrel.ILike{"remarks": pattern},
		})
	}
	return where
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func getDiary(ctx context.Context, q pgxscan.Querier, query string, id int64) (Diary, error) {
	var d Diary
	if err := pgxscan.Get(ctx, q, &d, query, id); err != nil {
		if pgxscan.NotFound(err) || errors.Is(err, pgx.ErrNoRows) {
			return Diary{}, fmt.Errorf("%w: diary %d", shared.ErrNotFound, id)
		}
		return Diary{}, fmt.Errorf("diary: get %d: %w", id, err)
	}
	return d, nil
}
