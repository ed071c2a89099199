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

type rewardDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Type      string             `bson:"type"`
	Amount    float64            `bson:"amount"`
	Timestamp time.Time          `bson:"timestamp"`
	Wallet    string             `bson:"wallet"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *rewardDoc) toDomain() *domain.Reward {
	return &domain.Reward{
		ID:        d.ID.Hex(),
		Type:      domain.RewardType(d.Type),
		Amount:    d.Amount,
		Timestamp: d.Timestamp.UTC(),
		Wallet:    d.Wallet,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// RewardStore implements storage.RewardStore on a MongoDB collection.
type RewardStore struct {
	coll *mongo.Collection
}

// NewRewardStore creates a new RewardStore.
func NewRewardStore(db *DB) *RewardStore {
	return &RewardStore{coll: db.db.Collection(RewardsCollection)}
}

// Compile-time interface check.
var _ storage.RewardStore = (*RewardStore)(nil)

// Create validates and inserts r.
func (s *RewardStore) Create(ctx context.Context, r *domain.Reward) (out *domain.Reward, err error) {
	defer func(start time.Time) { observe("insert_reward", start, err) }(time.Now())

	if r == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	// BSON dates carry millisecond precision
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := rewardDoc{
		ID:        primitive.NewObjectID(),
		Type:      string(r.Type),
		Amount:    r.Amount,
		Timestamp: r.Timestamp.UTC().Truncate(time.Millisecond),
		Wallet:    r.Wallet,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if r.Timestamp.IsZero() {
		doc.Timestamp = now
	}

	if _, err = s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns rewards matching filter, newest timestamp first.
func (s *RewardStore) List(ctx context.Context, filter domain.RewardFilter) (out []*domain.Reward, err error) {
	defer func(start time.Time) { observe("list_rewards", start, err) }(time.Now())

	q := bson.M{}
	if filter.Wallet != "" {
		q["wallet"] = filter.Wallet
	}
	if filter.Type != "" {
		q["type"] = string(filter.Type)
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer cur.Close(ctx)

	out = make([]*domain.Reward, 0)
	for cur.Next(ctx) {
		var doc rewardDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode reward: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate rewards: %w", err)
	}
	return out, nil
}

// GetByID retrieves a reward. Returns ErrNotFound if not exists.
func (s *RewardStore) GetByID(ctx context.Context, id string) (out *domain.Reward, err error) {
	defer func(start time.Time) { observe("get_reward", start, err) }(time.Now())

	oid, ok := objectID(id)
	if !ok {
		return nil, storage.ErrNotFound
	}

	var doc rewardDoc
	if err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get reward by id: %w", err)
	}
	return doc.toDomain(), nil
}

// Update applies u with $set and returns the updated document.
func (s *RewardStore) Update(ctx context.Context, id string, u *domain.RewardUpdate) (out *domain.Reward, err error) {
	defer func(start time.Time) { observe("update_reward", start, err) }(time.Now())

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
	if u.Type != nil {
		set["type"] = string(*u.Type)
	}
	if u.Amount != nil {
		set["amount"] = *u.Amount
	}
	if u.Timestamp != nil {
		set["timestamp"] = u.Timestamp.UTC()
	}
	if u.Wallet != nil {
		set["wallet"] = *u.Wallet
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc rewardDoc
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return doc.toDomain(), nil
}

// Delete removes a reward. Returns ErrNotFound if not exists.
func (s *RewardStore) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("delete_reward", start, err) }(time.Now())

	oid, ok := objectID(id)
	if !ok {
		return storage.ErrNotFound
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
