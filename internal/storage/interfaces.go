package storage

import (
	"context"

	"solana-taxed-token/internal/domain"
)

// RewardStore provides access to rewards storage.
type RewardStore interface {
	// Create validates and stores r, assigning ID, CreatedAt and UpdatedAt.
	// A zero Timestamp defaults to the creation time. Returns ErrInvalidInput
	// wrapping the validation error.
	Create(ctx context.Context, r *domain.Reward) (*domain.Reward, error)

	// List returns rewards matching filter, newest timestamp first.
	List(ctx context.Context, filter domain.RewardFilter) ([]*domain.Reward, error)

	// GetByID retrieves a reward. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Reward, error)

	// Update applies a partial update and returns the updated reward.
	// Returns ErrNotFound if not exists.
	Update(ctx context.Context, id string, u *domain.RewardUpdate) (*domain.Reward, error)

	// Delete removes a reward. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error
}

// SnapshotStore provides access to holdings snapshots storage.
type SnapshotStore interface {
	// Create validates and stores s, assigning ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, s *domain.Snapshot) (*domain.Snapshot, error)

	// List returns snapshots matching filter, newest timestamp first.
	List(ctx context.Context, filter domain.SnapshotFilter) ([]*domain.Snapshot, error)

	// GetByID retrieves a snapshot. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Snapshot, error)

	// Update applies a partial update and returns the updated snapshot.
	Update(ctx context.Context, id string, u *domain.SnapshotUpdate) (*domain.Snapshot, error)

	// Delete removes a snapshot. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error
}

// DeploymentStore records deployment receipts, keyed by mint address.
type DeploymentStore interface {
	// Insert adds a receipt. Returns ErrDuplicateKey if the mint exists.
	Insert(ctx context.Context, r *domain.DeploymentReceipt) error

	// GetByMint retrieves a receipt. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.DeploymentReceipt, error)

	// List returns all receipts, most recent deployment first.
	List(ctx context.Context) ([]*domain.DeploymentReceipt, error)
}
