package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

func TestDeploymentStore(t *testing.T) {
	store := NewDeploymentStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	first := &domain.DeploymentReceipt{MintAddress: "mint1", TokenSymbol: "IMG", DeployedAt: base}
	second := &domain.DeploymentReceipt{MintAddress: "mint2", TokenSymbol: "IMG", DeployedAt: base.Add(time.Minute)}

	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, second); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, first); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if err := store.Insert(ctx, &domain.DeploymentReceipt{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	got, err := store.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if got.TokenSymbol != "IMG" {
		t.Errorf("unexpected receipt: %+v", got)
	}
	if _, err := store.GetByMint(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, _ := store.List(ctx)
	if len(list) != 2 || list[0].MintAddress != "mint2" {
		t.Errorf("expected most recent first, got %+v", list)
	}
}
