package backend

import (
	"context"
	"errors"
	"testing"

	"solana-taxed-token/internal/config"
	"solana-taxed-token/internal/domain"
)

func TestOpen_Memory(t *testing.T) {
	b, err := Open(context.Background(), config.DatabaseConfig{Backend: config.BackendMemory})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()

	if err := b.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}

	r, err := b.Rewards.Create(context.Background(), &domain.Reward{Type: domain.RewardTypeOther, Wallet: "w"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.ID == "" {
		t.Error("expected id")
	}
	if b.Snapshots == nil || b.Deployments == nil {
		t.Error("expected all stores")
	}
}

func TestOpen_Invalid(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Backend: config.BackendPostgres})
	if !errors.Is(err, config.ErrMissing) {
		t.Errorf("expected ErrMissing, got %v", err)
	}

	if _, err := Open(context.Background(), config.DatabaseConfig{Backend: "sqlite"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
