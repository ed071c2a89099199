// Package backend opens the configured storage backend and exposes its stores.
package backend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-taxed-token/internal/config"
	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/storage"
	"solana-taxed-token/internal/storage/memory"
	"solana-taxed-token/internal/storage/migrations"
	"solana-taxed-token/internal/storage/mongo"
	"solana-taxed-token/internal/storage/postgres"
)

// Backend holds the stores of one storage backend.
type Backend struct {
	Name        string
	Rewards     storage.RewardStore
	Snapshots   storage.SnapshotStore
	Deployments storage.DeploymentStore

	ping  func(ctx context.Context) error
	close func()
}

// Open connects to the backend named by cfg.Backend. Postgres schemas are
// migrated and Mongo indexes created before returning.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendMemory:
		return &Backend{
			Name:        config.BackendMemory,
			Rewards:     memory.NewRewardStore(),
			Snapshots:   memory.NewSnapshotStore(),
			Deployments: memory.NewDeploymentStore(),
		}, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN, postgres.PoolOptions{
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
		})
		if err != nil {
			return nil, err
		}
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info("postgres ready", zap.Strings("applied_migrations", applied))

		return &Backend{
			Name:        config.BackendPostgres,
			Rewards:     postgres.NewRewardStore(pool),
			Snapshots:   postgres.NewSnapshotStore(pool),
			Deployments: postgres.NewDeploymentStore(pool),
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil

	case config.BackendMongo:
		db, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
		logger.Info("mongo ready", zap.String("database", cfg.Mongo.Database))

		return &Backend{
			Name:        config.BackendMongo,
			Rewards:     mongo.NewRewardStore(db),
			Snapshots:   mongo.NewSnapshotStore(db),
			Deployments: mongo.NewDeploymentStore(db),
			ping:        db.Ping,
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = db.Close(ctx)
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown database backend %q", cfg.Backend)
}

// Ping checks the backend is reachable. Memory always is.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}
