package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

func TestRewardStore_CreateAndGet(t *testing.T) {
	store := NewRewardStore()
	ctx := context.Background()

	created, err := store.Create(ctx, &domain.Reward{
		Type:   domain.RewardTypeStaking,
		Amount: 12.5,
		Wallet: "wallet1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Timestamp.IsZero() || created.CreatedAt.IsZero() {
		t.Error("expected timestamp and createdAt defaults")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Amount != 12.5 || got.Wallet != "wallet1" {
		t.Errorf("unexpected reward: %+v", got)
	}

	// Mutating the returned copy must not affect the store
	got.Amount = 99
	again, _ := store.GetByID(ctx, created.ID)
	if again.Amount != 12.5 {
		t.Errorf("store mutated through returned pointer: %v", again.Amount)
	}
}

func TestRewardStore_CreateInvalid(t *testing.T) {
	store := NewRewardStore()
	ctx := context.Background()

	cases := []*domain.Reward{
		nil,
		{Amount: 1, Wallet: "w"},
		{Type: "BONUS", Amount: 1, Wallet: "w"},
		{Type: domain.RewardTypeOther, Amount: 1},
	}
	for i, r := range cases {
		if _, err := store.Create(ctx, r); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestRewardStore_ListFilters(t *testing.T) {
	store := NewRewardStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	seed := []domain.Reward{
		{Type: domain.RewardTypeStaking, Amount: 1, Wallet: "w1", Timestamp: base},
		{Type: domain.RewardTypeTrading, Amount: 2, Wallet: "w1", Timestamp: base.Add(time.Hour)},
		{Type: domain.RewardTypeStaking, Amount: 3, Wallet: "w2", Timestamp: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		if _, err := store.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := store.List(ctx, domain.RewardFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rewards, got %d", len(all))
	}
	if all[0].Amount != 3 || all[2].Amount != 1 {
		t.Errorf("expected newest first, got %v, %v", all[0].Amount, all[2].Amount)
	}

	w1, _ := store.List(ctx, domain.RewardFilter{Wallet: "w1"})
	if len(w1) != 2 {
		t.Errorf("expected 2 rewards for w1, got %d", len(w1))
	}

	staking, _ := store.List(ctx, domain.RewardFilter{Wallet: "w1", Type: domain.RewardTypeStaking})
	if len(staking) != 1 || staking[0].Amount != 1 {
		t.Errorf("unexpected staking rewards for w1: %+v", staking)
	}

	none, _ := store.List(ctx, domain.RewardFilter{Wallet: "nobody"})
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}
}

func TestRewardStore_Update(t *testing.T) {
	store := NewRewardStore()
	ctx := context.Background()

	created, _ := store.Create(ctx, &domain.Reward{Type: domain.RewardTypeStaking, Amount: 1, Wallet: "w1"})

	amount := 7.0
	typ := domain.RewardTypeTrading
	updated, err := store.Update(ctx, created.ID, &domain.RewardUpdate{Amount: &amount, Type: &typ})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Amount != 7 || updated.Type != domain.RewardTypeTrading || updated.Wallet != "w1" {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Error("UpdatedAt moved backwards")
	}

	bad := domain.RewardType("NOPE")
	if _, err := store.Update(ctx, created.ID, &domain.RewardUpdate{Type: &bad}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := store.Update(ctx, "missing", &domain.RewardUpdate{Amount: &amount}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRewardStore_Delete(t *testing.T) {
	store := NewRewardStore()
	ctx := context.Background()

	created, _ := store.Create(ctx, &domain.Reward{Type: domain.RewardTypeOther, Amount: 1, Wallet: "w1"})

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRewardStore_Concurrent(t *testing.T) {
	store := NewRewardStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Create(ctx, &domain.Reward{
				Type:   domain.RewardTypeTrading,
				Amount: float64(i),
				Wallet: fmt.Sprintf("w%d", i%5),
			})
			if err != nil {
				t.Errorf("Create failed: %v", err)
			}
			_, _ = store.List(ctx, domain.RewardFilter{Wallet: "w0"})
		}(i)
	}
	wg.Wait()

	all, _ := store.List(ctx, domain.RewardFilter{})
	if len(all) != 50 {
		t.Errorf("expected 50 rewards, got %d", len(all))
	}
}
