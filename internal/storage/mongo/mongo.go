// Package mongo implements the reward and snapshot stores on MongoDB.
// Documents use the camelCase field names of the original Node service, so
// existing rewards and snapshots collections are readable as is.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"solana-taxed-token/internal/observability"
)

// Collection names.
const (
	RewardsCollection   = "rewards"
	SnapshotsCollection = "snapshots"
)

// DB wraps a connected client and its database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client for uri, verifies it with a ping and selects database.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	if database == "" {
		return nil, fmt.Errorf("mongo database name is required")
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &DB{client: client, db: client.Database(database)}, nil
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the wallet indexes. Safe to call on every start.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	for _, coll := range []string{RewardsCollection, SnapshotsCollection} {
		_, err := d.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "wallet", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("create %s wallet index: %w", coll, err)
		}
	}
	return nil
}

// objectID parses a hex id. Malformed ids cannot exist, so they are reported
// as not found.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// observe records query duration and failures. Not-found is not a failure.
func observe(operation string, start time.Time, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = nil
	}
	observability.RecordDBQuery("mongo", operation, time.Since(start).Seconds(), err)
}
