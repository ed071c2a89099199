package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

func TestDeploymentStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDeploymentStore(pool)
	ctx := context.Background()

	receipt := &domain.DeploymentReceipt{
		MintAddress:            "Mint111",
		WalletAddress:          "Wallet111",
		TransferFeeBasisPoints: 500,
		MaximumFee:             1_000_000_000_000_000_000,
		TokenName:              "Infinite Money Glitch",
		TokenSymbol:            "IMG",
		TokenURI:               "https://example.com/img.json",
		Decimals:               10,
		TotalSupply:            10_000_000_000_000_000_000, // exceeds int64
		Placement:              "embedded",
		MetadataAddress:        "Mint111",
		TokenAccount:           "Ata111",
		MintSignature:          "sig1",
		SupplySignature:        "sig2",
		DeployedAt:             time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.Insert(ctx, receipt))
	assert.ErrorIs(t, store.Insert(ctx, receipt), storage.ErrDuplicateKey)

	got, err := store.GetByMint(ctx, "Mint111")
	require.NoError(t, err)
	assert.Equal(t, receipt, got)

	_, err = store.GetByMint(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDeploymentStore_InvalidFee(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDeploymentStore(pool)

	err := store.Insert(context.Background(), &domain.DeploymentReceipt{
		MintAddress:            "Mint222",
		TransferFeeBasisPoints: 20000,
		DeployedAt:             time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
