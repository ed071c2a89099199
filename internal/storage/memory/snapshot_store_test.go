package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

func TestSnapshotStore_CreateAndGet(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	holdings := map[string]float64{"IMG": 1000, "SOL": 1.5}
	created, err := store.Create(ctx, &domain.Snapshot{Wallet: "w1", Holdings: holdings})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Caller's map must not alias stored holdings
	holdings["IMG"] = 0

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Holdings["IMG"] != 1000 {
		t.Errorf("holdings aliased: got %v", got.Holdings["IMG"])
	}

	got.Holdings["SOL"] = 0
	again, _ := store.GetByID(ctx, created.ID)
	if again.Holdings["SOL"] != 1.5 {
		t.Errorf("store mutated through returned map: %v", again.Holdings["SOL"])
	}
}

func TestSnapshotStore_CreateInvalid(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, &domain.Snapshot{Wallet: "w1"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("missing holdings: expected ErrInvalidInput, got %v", err)
	}
	if _, err := store.Create(ctx, &domain.Snapshot{Holdings: map[string]float64{}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("missing wallet: expected ErrInvalidInput, got %v", err)
	}
}

func TestSnapshotStore_ListUpdateDelete(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a, _ := store.Create(ctx, &domain.Snapshot{Wallet: "w1", Timestamp: base, Holdings: map[string]float64{"IMG": 1}})
	_, _ = store.Create(ctx, &domain.Snapshot{Wallet: "w1", Timestamp: base.Add(time.Hour), Holdings: map[string]float64{"IMG": 2}})
	_, _ = store.Create(ctx, &domain.Snapshot{Wallet: "w2", Timestamp: base, Holdings: map[string]float64{"IMG": 3}})

	w1, err := store.List(ctx, domain.SnapshotFilter{Wallet: "w1"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(w1) != 2 || w1[0].Holdings["IMG"] != 2 {
		t.Errorf("unexpected w1 snapshots: %+v", w1)
	}

	updated, err := store.Update(ctx, a.ID, &domain.SnapshotUpdate{Holdings: map[string]float64{"IMG": 10, "BONK": 5}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(updated.Holdings) != 2 || updated.Wallet != "w1" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Update(ctx, a.ID, &domain.SnapshotUpdate{}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, _ := store.List(ctx, domain.SnapshotFilter{})
	if len(all) != 2 {
		t.Errorf("expected 2 snapshots after delete, got %d", len(all))
	}
}
