package offices

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu        sync.Mutex
	names     []string
	inserted  [][]string
	listCalls int
	insertErr error
}

func (m *mockStore) Insert(_ context.Context, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, names)
	for _, n := range names {
		exists := false
		for _, have := range m.names {
			if have == n {
				exists = true
			}
		}
		if !exists {
			m.names = append(m.names, n)
		}
	}
	return nil
}

func (m *mockStore) Names(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return append([]string(nil), m.names...), nil
}

func TestEnsureTrimsAndSkipsBlanks(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, time.Minute, "en")

	require.NoError(t, svc.Ensure(context.Background(), "  Finance ", "", "   ", "Finance", "DG"))
	require.Len(t, store.inserted, 1)
	assert.Equal(t, []string{"DG", "Finance"}, store.inserted[0])

	require.NoError(t, svc.Ensure(context.Background(), "", " "))
	assert.Len(t, store.inserted, 1, "nothing to insert")
}

func TestEnsureInsertsInStableOrder(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, time.Minute, "en")

	require.NoError(t, svc.Ensure(context.Background(), "Legal", "Accounts", "DG"))
	require.NoError(t, svc.Ensure(context.Background(), "DG", "Legal", "Accounts"))
	require.Len(t, store.inserted, 2)
	assert.Equal(t, []string{"Accounts", "DG", "Legal"}, store.inserted[0])
	assert.Equal(t, store.inserted[0], store.inserted[1])
}

func TestEnsurePropagatesStoreError(t *testing.T) {
	store := &mockStore{insertErr: errors.New("down")}
	svc := NewService(store, time.Minute, "en")
	assert.Error(t, svc.Ensure(context.Background(), "Finance"))
}

func TestDirectorySortsAndFilters(t *testing.T) {
	store := &mockStore{names: []string{"registry", "Accounts", "DG Office", "budget cell"}}
	svc := NewService(store, time.Minute, "en")

	all, err := svc.Directory(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Accounts", "budget cell", "DG Office", "registry"}, all)

	filtered, err := svc.Directory(context.Background(), "  OFF ")
	require.NoError(t, err)
	assert.Equal(t, []string{"DG Office"}, filtered)
}

func TestDirectoryIsCachedUntilEnsure(t *testing.T) {
	store := &mockStore{names: []string{"A"}}
	svc := NewService(store, time.Minute, "en")
	ctx := context.Background()

	_, err := svc.Directory(ctx, "")
	require.NoError(t, err)
	_, err = svc.Directory(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls)

	require.NoError(t, svc.Ensure(ctx, "B"))
	names, err := svc.Directory(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)
	assert.Equal(t, 2, store.listCalls)
}

func TestNewServiceFallsBackOnBadLanguage(t *testing.T) {
	svc := NewService(&mockStore{}, 0, "not a tag!!")
	require.NotNil(t, svc.collate)
	assert.Equal(t, time.Minute, svc.ttl)
}
