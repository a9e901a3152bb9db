package diary

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/diarydesk/diarydesk/internal/shared"
)

// mockRepository is an in-memory Store. WithTx holds a single mutex for the
// whole transaction and restores the previous state when fn fails.
type mockRepository struct {
	mu        sync.Mutex
	diaries   map[int64]Diary
	movements []Movement
	keys      map[string]bool
	nextID    int64
	clock     func() time.Time

	failInsertMovement error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		diaries: make(map[int64]Diary),
		keys:    make(map[string]bool),
		clock:   time.Now,
	}
}

type mockTx struct {
	repo *mockRepository
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	savedDiaries := make(map[int64]Diary, len(m.diaries))
	for k, v := range m.diaries {
		savedDiaries[k] = v
	}
	savedMovements := append([]Movement(nil), m.movements...)
	savedKeys := make(map[string]bool, len(m.keys))
	for k, v := range m.keys {
		savedKeys[k] = v
	}
	savedID := m.nextID

	if err := fn(ctx, &mockTx{repo: m}); err != nil {
		m.diaries = savedDiaries
		m.movements = savedMovements
		m.keys = savedKeys
		m.nextID = savedID
		return err
	}
	return nil
}

func (t *mockTx) NextSequence(_ context.Context, year int) (int, error) {
	next := 1
	for _, d := range t.repo.diaries {
		if d.Year == year && d.Sequence >= next {
			next = d.Sequence + 1
		}
	}
	return next, nil
}

func (t *mockTx) InsertDiary(_ context.Context, d Diary) (Diary, error) {
	for _, existing := range t.repo.diaries {
		if existing.Year == d.Year && existing.Sequence == d.Sequence {
			return Diary{}, fmt.Errorf("%w: diary %s already allocated", shared.ErrConflict, d.DiaryNo())
		}
	}
	t.repo.nextID++
	d.ID = t.repo.nextID
	d.CreatedAt = t.repo.clock()
	t.repo.diaries[d.ID] = d
	return d, nil
}

func (t *mockTx) InsertMovement(_ context.Context, m Movement) (Movement, error) {
	if t.repo.failInsertMovement != nil {
		return Movement{}, t.repo.failInsertMovement
	}
	if _, ok := t.repo.diaries[m.DiaryID]; !ok {
		return Movement{}, fmt.Errorf("%w: diary %d", shared.ErrNotFound, m.DiaryID)
	}
	t.repo.nextID++
	m.ID = t.repo.nextID
	m.CreatedOn = t.repo.clock()
	t.repo.movements = append(t.repo.movements, m)
	return m, nil
}

func (t *mockTx) LockDiary(_ context.Context, id int64) (Diary, error) {
	d, ok := t.repo.diaries[id]
	if !ok {
		return Diary{}, fmt.Errorf("%w: diary %d", shared.ErrNotFound, id)
	}
	return d, nil
}

func (t *mockTx) LastMovement(_ context.Context, diaryID int64) (*Movement, error) {
	ledger := t.repo.ledger(diaryID)
	if len(ledger) == 0 {
		return nil, nil
	}
	last := ledger[len(ledger)-1]
	return &last, nil
}

func (t *mockTx) UpdateSnapshot(_ context.Context, id int64, markedTo string, markedDate time.Time, status Status) error {
	d, ok := t.repo.diaries[id]
	if !ok {
		return fmt.Errorf("%w: diary %d", shared.ErrNotFound, id)
	}
	d.MarkedTo = markedTo
	d.MarkedDate = &markedDate
	d.Status = status
	t.repo.diaries[id] = d
	return nil
}

func (t *mockTx) UpdateDiary(_ context.Context, d Diary) error {
	if _, ok := t.repo.diaries[d.ID]; !ok {
		return fmt.Errorf("%w: diary %d", shared.ErrNotFound, d.ID)
	}
	t.repo.diaries[d.ID] = d
	return nil
}

func (t *mockTx) ClaimIdempotencyKey(_ context.Context, key string) error {
	if t.repo.keys[key] {
		return fmt.Errorf("%w: %s", shared.ErrIdempotencyConflict, key)
	}
	t.repo.keys[key] = true
	return nil
}

func (m *mockRepository) GetDiary(_ context.Context, id int64) (Diary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.diaries[id]
	if !ok {
		return Diary{}, fmt.Errorf("%w: diary %d", shared.ErrNotFound, id)
	}
	return d, nil
}

func (m *mockRepository) DeleteDiary(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.diaries[id]; !ok {
		return fmt.Errorf("%w: diary %d", shared.ErrNotFound, id)
	}
	delete(m.diaries, id)
	kept := m.movements[:0]
	for _, mv := range m.movements {
		if mv.DiaryID != id {
			kept = append(kept, mv)
		}
	}
	m.movements = kept
	return nil
}

func (m *mockRepository) ListMovements(_ context.Context, diaryID int64) ([]Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger(diaryID), nil
}

func (m *mockRepository) LastMovement(_ context.Context, diaryID int64) (*Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ledger := m.ledger(diaryID)
	if len(ledger) == 0 {
		return nil, nil
	}
	last := ledger[len(ledger)-1]
	return &last, nil
}

func (m *mockRepository) ledger(diaryID int64) []Movement {
	var out []Movement
	for _, mv := range m.movements {
		if mv.DiaryID == diaryID {
			out = append(out, mv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ActionDatetime.Equal(out[j].ActionDatetime) {
			return out[i].ActionDatetime.Before(out[j].ActionDatetime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *mockRepository) ListDiaries(_ context.Context, filters ListFilters) ([]Diary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Diary
	for _, d := range m.diaries {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Year != all[j].Year {
			return all[i].Year > all[j].Year
		}
		return all[i].Sequence < all[j].Sequence
	})
	page := shared.NewPagination(filters.Page, filters.PerPage, len(all))
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

type mockOffices struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (o *mockOffices) Ensure(_ context.Context, names ...string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, n := range names {
		if n != "" {
			o.names = append(o.names, n)
		}
	}
	return o.err
}

type mockNotifier struct {
	mu    sync.Mutex
	years []int
}

func (n *mockNotifier) DiaryChanged(_ context.Context, year int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.years = append(n.years, year)
}
