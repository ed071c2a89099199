package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Snapshot // keyed by id
	now  func() time.Time
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.Snapshot),
		now:  time.Now,
	}
}

// copySnapshot copies s including its holdings map.
func copySnapshot(s *domain.Snapshot) *domain.Snapshot {
	out := *s
	out.Holdings = domain.CopyHoldings(s.Holdings)
	return &out
}

// Create validates and stores snap under a new id.
func (s *SnapshotStore) Create(_ context.Context, snap *domain.Snapshot) (*domain.Snapshot, error) {
	if snap == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	now := s.now().UTC()
	stored := copySnapshot(snap)
	stored.ID = uuid.NewString()
	if stored.Timestamp.IsZero() {
		stored.Timestamp = now
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[stored.ID] = stored
	return copySnapshot(stored), nil
}

// List returns snapshots matching filter, newest timestamp first.
func (s *SnapshotStore) List(_ context.Context, filter domain.SnapshotFilter) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Snapshot, 0)
	for _, snap := range s.data {
		if filter.Matches(snap) {
			result = append(result, copySnapshot(snap))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
func (s *SnapshotStore) GetByID(_ context.Context, id string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(snap), nil
}

// Update applies u to the stored snapshot.
func (s *SnapshotStore) Update(_ context.Context, id string, u *domain.SnapshotUpdate) (*domain.Snapshot, error) {
	if u == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	updated := copySnapshot(snap)
	u.Apply(updated)
	updated.UpdatedAt = s.now().UTC()
	s.data[id] = updated

	return copySnapshot(updated), nil
}

// Delete removes a snapshot. Returns ErrNotFound if not exists.
func (s *SnapshotStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)
