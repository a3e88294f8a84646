package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps datasets in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]Dataset
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{datasets: make(map[string]Dataset), now: time.Now}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return nil, notFound(id)
	}
	return &ds, nil
}

func (s *MemoryStore) Save(ctx context.Context, ds *Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.datasets[ds.ID]; ok && ds.CreatedAt.IsZero() {
		ds.CreatedAt = prev.CreatedAt
	}
	stamp(ds, s.now())
	s.datasets[ds.ID] = *ds
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return notFound(id)
	}
	delete(s.datasets, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}
	sortByUpdated(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

func sortByUpdated(ds []Dataset) {
	sort.Slice(ds, func(i, j int) bool {
		if !ds[i].UpdatedAt.Equal(ds[j].UpdatedAt) {
			return ds[i].UpdatedAt.After(ds[j].UpdatedAt)
		}
		return ds[i].ID < ds[j].ID
	})
}
