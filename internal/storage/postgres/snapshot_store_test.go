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

func TestSnapshotStore_CreateAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.Snapshot{
		Wallet:   "Wallet111",
		Holdings: map[string]float64{"IMG": 1000, "SOL": 1.5},
	})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"IMG": 1000, "SOL": 1.5}, got.Holdings)
	assert.Equal(t, "Wallet111", got.Wallet)
	assert.NotZero(t, got.Timestamp)
}

func TestSnapshotStore_EmptyHoldings(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)

	created, err := store.Create(context.Background(), &domain.Snapshot{Wallet: "w", Holdings: map[string]float64{}})
	require.NoError(t, err)
	assert.NotNil(t, created.Holdings)
	assert.Empty(t, created.Holdings)
}

func TestSnapshotStore_ListAndUpdate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a, err := store.Create(ctx, &domain.Snapshot{Wallet: "w1", Timestamp: base, Holdings: map[string]float64{"IMG": 1}})
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Snapshot{Wallet: "w2", Timestamp: base, Holdings: map[string]float64{"IMG": 2}})
	require.NoError(t, err)

	w1, err := store.List(ctx, domain.SnapshotFilter{Wallet: "w1"})
	require.NoError(t, err)
	require.Len(t, w1, 1)

	all, err := store.List(ctx, domain.SnapshotFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// timestamp only: holdings untouched
	later := base.Add(time.Hour)
	updated, err := store.Update(ctx, a.ID, &domain.SnapshotUpdate{Timestamp: &later})
	require.NoError(t, err)
	assert.True(t, later.Equal(updated.Timestamp))
	assert.Equal(t, map[string]float64{"IMG": 1}, updated.Holdings)

	// holdings replaced wholesale
	updated, err = store.Update(ctx, a.ID, &domain.SnapshotUpdate{Holdings: map[string]float64{"BONK": 5}})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"BONK": 5}, updated.Holdings)
}

func TestSnapshotStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.Update(ctx, "missing", &domain.SnapshotUpdate{Wallet: ptr("w")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), storage.ErrNotFound)
}
