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

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

type snapshotDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Wallet    string             `bson:"wallet"`
	Timestamp time.Time          `bson:"timestamp"`
	Holdings  map[string]float64 `bson:"holdings"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *snapshotDoc) toDomain() *domain.Snapshot {
	holdings := d.Holdings
	if holdings == nil {
		holdings = map[string]float64{}
	}
	return &domain.Snapshot{
		ID:        d.ID.Hex(),
		Wallet:    d.Wallet,
		Timestamp: d.Timestamp.UTC(),
		Holdings:  holdings,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// SnapshotStore implements storage.SnapshotStore on a MongoDB collection.
type SnapshotStore struct {
	coll *mongo.Collection
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{coll: db.db.Collection(SnapshotsCollection)}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Create validates and inserts snap.
func (s *SnapshotStore) Create(ctx context.Context, snap *domain.Snapshot) (out *domain.Snapshot, err error) {
	defer func(start time.Time) { observe("insert_snapshot", start, err) }(time.Now())

	if snap == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := snapshotDoc{
		ID:        primitive.NewObjectID(),
		Wallet:    snap.Wallet,
		Timestamp: snap.Timestamp.UTC().Truncate(time.Millisecond),
		Holdings:  domain.CopyHoldings(snap.Holdings),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if snap.Timestamp.IsZero() {
		doc.Timestamp = now
	}

	if _, err = s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns snapshots matching filter, newest timestamp first.
func (s *SnapshotStore) List(ctx context.Context, filter domain.SnapshotFilter) (out []*domain.Snapshot, err error) {
	defer func(start time.Time) { observe("list_snapshots", start, err) }(time.Now())

	q := bson.M{}
	if filter.Wallet != "" {
		q["wallet"] = filter.Wallet
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer cur.Close(ctx)

	var docs []snapshotDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}

	out = make([]*domain.Snapshot, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// GetByID retrieves a snapshot. Returns ErrNotFound if not exists.
func (s *SnapshotStore) GetByID(ctx context.Context, id string) (out *domain.Snapshot, err error) {
	defer func(start time.Time) { observe("get_snapshot", start, err) }(time.Now())

	oid, ok := objectID(id)
	if !ok {
		return nil, storage.ErrNotFound
	}

	var doc snapshotDoc
	if err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot by id: %w", err)
	}
	return doc.toDomain(), nil
}

// Update applies u with $set and returns the updated document.
func (s *SnapshotStore) Update(ctx context.Context, id string, u *domain.SnapshotUpdate) (out *domain.Snapshot, err error) {
	defer func(start time.Time) { observe("update_snapshot", start, err) }(time.Now())

	if u == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	oid, ok := objectID(id)
	if !ok {
		return nil, storage.ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Wallet != nil {
		set["wallet"] = *u.Wallet
	}
	if u.Timestamp != nil {
		set["timestamp"] = u.Timestamp.UTC()
	}
	if u.Holdings != nil {
		set["holdings"] = u.Holdings
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc snapshotDoc
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("update snapshot: %w", err)
	}
	return doc.toDomain(), nil
}

// Delete removes a snapshot. Returns ErrNotFound if not exists.
func (s *SnapshotStore) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("delete_snapshot", start, err) }(time.Now())

	oid, ok := objectID(id)
	if !ok {
		return storage.ErrNotFound
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
