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

// RewardStore is an in-memory implementation of storage.RewardStore.
type RewardStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Reward // keyed by id
	now  func() time.Time
}

// NewRewardStore creates a new in-memory reward store.
func NewRewardStore() *RewardStore {
	return &RewardStore{
		data: make(map[string]*domain.Reward),
		now:  time.Now,
	}
}

// Create validates and stores r under a new id.
func (s *RewardStore) Create(_ context.Context, r *domain.Reward) (*domain.Reward, error) {
	if r == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	now := s.now().UTC()
	rewardCopy := *r
	rewardCopy.ID = uuid.NewString()
	if rewardCopy.Timestamp.IsZero() {
		rewardCopy.Timestamp = now
	}
	rewardCopy.CreatedAt = now
	rewardCopy.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[rewardCopy.ID] = &rewardCopy

	// Return a copy
	out := rewardCopy
	return &out, nil
}

// List returns rewards matching filter, newest timestamp first.
func (s *RewardStore) List(_ context.Context, filter domain.RewardFilter) ([]*domain.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Reward, 0)
	for _, r := range s.data {
		if filter.Matches(r) {
			rewardCopy := *r
			result = append(result, &rewardCopy)
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

// GetByID retrieves a reward by its ID. Returns ErrNotFound if not exists.
func (s *RewardStore) GetByID(_ context.Context, id string) (*domain.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	rewardCopy := *r
	return &rewardCopy, nil
}

// Update applies u to the stored reward.
func (s *RewardStore) Update(_ context.Context, id string, u *domain.RewardUpdate) (*domain.Reward, error) {
	if u == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	updated := *r
	u.Apply(&updated)
	updated.UpdatedAt = s.now().UTC()
	s.data[id] = &updated

	out := updated
	return &out, nil
}

// Delete removes a reward. Returns ErrNotFound if not exists.
func (s *RewardStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// Verify interface compliance at compile time.
var _ storage.RewardStore = (*RewardStore)(nil)
