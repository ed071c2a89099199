package memory

import (
	"context"
	"sort"
	"sync"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

// DeploymentStore is an in-memory implementation of storage.DeploymentStore.
type DeploymentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DeploymentReceipt // keyed by mint address
}

// NewDeploymentStore creates a new in-memory deployment store.
func NewDeploymentStore() *DeploymentStore {
	return &DeploymentStore{
		data: make(map[string]*domain.DeploymentReceipt),
	}
}

// Insert adds a receipt. Returns ErrDuplicateKey if the mint exists.
func (s *DeploymentStore) Insert(_ context.Context, r *domain.DeploymentReceipt) error {
	if r == nil || r.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.MintAddress]; exists {
		return storage.ErrDuplicateKey
	}

	receiptCopy := *r
	s.data[r.MintAddress] = &receiptCopy
	return nil
}

// GetByMint retrieves a receipt. Returns ErrNotFound if not exists.
func (s *DeploymentStore) GetByMint(_ context.Context, mint string) (*domain.DeploymentReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	receiptCopy := *r
	return &receiptCopy, nil
}

// List returns all receipts, most recent deployment first.
func (s *DeploymentStore) List(_ context.Context) ([]*domain.DeploymentReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.DeploymentReceipt, 0, len(s.data))
	for _, r := range s.data {
		receiptCopy := *r
		result = append(result, &receiptCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].DeployedAt.Equal(result[j].DeployedAt) {
			return result[i].DeployedAt.After(result[j].DeployedAt)
		}
		return result[i].MintAddress < result[j].MintAddress
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.DeploymentStore = (*DeploymentStore)(nil)
