package storage

import (
	"context"
	"sync"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// MemoryStore is an in-process identifier set, used by tests and dry runs.
type MemoryStore struct {
	mu  sync.Mutex
	ids domain.IDSet
}

var _ ports.IDSetStore = (*MemoryStore)(nil)

// NewMemoryStore seeds the store with ids.
func NewMemoryStore(ids ...string) *MemoryStore {
	return &MemoryStore{ids: domain.NewIDSet(ids...)}
}

// Load returns a copy of the current set.
func (m *MemoryStore) Load(ctx context.Context) (domain.IDSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids.Clone(), nil
}

// Update applies fn to a copy and commits it only when fn succeeds.
func (m *MemoryStore) Update(ctx context.Context, fn func(ids domain.IDSet) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.ids.Clone()
	if err := fn(next); err != nil {
		return err
	}
	m.ids = next
	return nil
}

// Reset empties the set.
func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = domain.NewIDSet()
	return nil
}
