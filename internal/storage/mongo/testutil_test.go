package mongo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// setupTestDB starts a MongoDB container and returns a connected DB using a
// fresh database. Skipped with -short since it needs a Docker daemon.
func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("mongo container tests skipped in short mode")
	}

	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err, "failed to start mongo container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get connection string")

	db, err := Connect(ctx, uri, "taxed_token_"+uuid.NewString()[:8])
	require.NoError(t, err, "failed to connect")
	require.NoError(t, db.EnsureIndexes(ctx))

	cleanup := func() {
		_ = db.Close(ctx)
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return db, cleanup
}

// ptr is a helper to create pointers to values.
func ptr[T any](v T) *T {
	return &v
}
