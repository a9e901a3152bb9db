// Package offices keeps the directory of office names referenced by diaries.
package offices

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const directoryKey = "directory"

// Store is the persistence contract of the service.
type Store interface {
	Insert(ctx context.Context, names []string) error
	Names(ctx context.Context) ([]string, error)
}

// Service registers offices and serves the sorted directory.
type Service struct {
	store   Store
	cache   *cache.Cache
	ttl     time.Duration
	mu      sync.Mutex
	collate *collate.Collator
}

// NewService constructs the service. lang selects the collation used for
// sorting, e.g. "en" or "ur".
func NewService(store Store, ttl time.Duration, lang string) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return &Service{
		store:   store,
		cache:   cache.New(ttl, 2*ttl),
		ttl:     ttl,
		collate: collate.New(tag, collate.IgnoreCase),
	}
}

// Ensure registers the given names in sorted order. Blank names are skipped;
// names that already exist are not an error.
func (s *Service) Ensure(ctx context.Context, names ...string) error {
	seen := make(map[string]struct{}, len(names))
	clean := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		clean = append(clean, name)
	}
	if len(clean) == 0 {
		return nil
	}
	// Concurrent upserts must take index locks in the same order.
	slices.Sort(clean)
	if err := s.store.Insert(ctx, clean); err != nil {
		return err
	}
	s.cache.Delete(directoryKey)
	return nil
}

// Directory lists office names, optionally filtered by a case-insensitive
// substring, in collation order.
func (s *Service) Directory(ctx context.Context, query string) ([]string, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, len(all))
	for _, name := range all {
		if query == "" || strings.Contains(strings.ToLower(name), query) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (s *Service) all(ctx context.Context) ([]string, error) {
	if cached, ok := s.cache.Get(directoryKey); ok {
		return cached.([]string), nil
	}
	names, err := s.store.Names(ctx)
	if err != nil {
		return nil, err
	}
	// Collator buffers are not safe for concurrent use.
	s.mu.Lock()
	s.collate.SortStrings(names)
	s.mu.Unlock()
	s.cache.Set(directoryKey, names, s.ttl)
	return names, nil
}
