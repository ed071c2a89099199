package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

// DeploymentsCollection holds deployment receipts keyed by mint address.
const DeploymentsCollection = "deployments"

// BSON has no unsigned 64-bit type, so u64 amounts are stored as decimal
// strings.
type deploymentDoc struct {
	MintAddress            string    `bson:"_id"`
	WalletAddress          string    `bson:"walletAddress"`
	TransferFeeBasisPoints int32     `bson:"transferFeeBasisPoints"`
	MaximumFee             string    `bson:"maximumFee"`
	TokenName              string    `bson:"tokenName"`
	TokenSymbol            string    `bson:"tokenSymbol"`
	TokenURI               string    `bson:"tokenUri"`
	Decimals               int32     `bson:"decimals"`
	TotalSupply            string    `bson:"totalSupply"`
	Placement              string    `bson:"placement"`
	MetadataAddress        string    `bson:"metadataAddress"`
	TokenAccount           string    `bson:"tokenAccount"`
	MintSignature          string    `bson:"mintSignature"`
	SupplySignature        string    `bson:"supplySignature"`
	DeployedAt             time.Time `bson:"deployedAt"`
}

func newDeploymentDoc(r *domain.DeploymentReceipt) deploymentDoc {
	return deploymentDoc{
		MintAddress:            r.MintAddress,
		WalletAddress:          r.WalletAddress,
		TransferFeeBasisPoints: int32(r.TransferFeeBasisPoints),
		MaximumFee:             strconv.FormatUint(r.MaximumFee, 10),
		TokenName:              r.TokenName,
		TokenSymbol:            r.TokenSymbol,
		TokenURI:               r.TokenURI,
		Decimals:               int32(r.Decimals),
		TotalSupply:            strconv.FormatUint(r.TotalSupply, 10),
		Placement:              r.Placement,
		MetadataAddress:        r.MetadataAddress,
		TokenAccount:           r.TokenAccount,
		MintSignature:          r.MintSignature,
		SupplySignature:        r.SupplySignature,
		DeployedAt:             r.DeployedAt.UTC().Truncate(time.Millisecond),
	}
}

func (d *deploymentDoc) toDomain() (*domain.DeploymentReceipt, error) {
	maxFee, err := strconv.ParseUint(d.MaximumFee, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse maximum fee: %w", err)
	}
	supply, err := strconv.ParseUint(d.TotalSupply, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse total supply: %w", err)
	}
	return &domain.DeploymentReceipt{
		MintAddress:            d.MintAddress,
		WalletAddress:          d.WalletAddress,
		TransferFeeBasisPoints: uint16(d.TransferFeeBasisPoints),
		MaximumFee:             maxFee,
		TokenName:              d.TokenName,
		TokenSymbol:            d.TokenSymbol,
		TokenURI:               d.TokenURI,
		Decimals:               uint8(d.Decimals),
		TotalSupply:            supply,
		Placement:              d.Placement,
		MetadataAddress:        d.MetadataAddress,
		TokenAccount:           d.TokenAccount,
		MintSignature:          d.MintSignature,
		SupplySignature:        d.SupplySignature,
		DeployedAt:             d.DeployedAt.UTC(),
	}, nil
}

// DeploymentStore implements storage.DeploymentStore on a MongoDB collection.
type DeploymentStore struct {
	coll *mongo.Collection
}

// NewDeploymentStore creates a new DeploymentStore.
func NewDeploymentStore(db *DB) *DeploymentStore {
	return &DeploymentStore{coll: db.db.Collection(DeploymentsCollection)}
}

// Compile-time interface check.
var _ storage.DeploymentStore = (*DeploymentStore)(nil)

// Insert adds a receipt. Returns ErrDuplicateKey if the mint exists.
func (s *DeploymentStore) Insert(ctx context.Context, r *domain.DeploymentReceipt) (err error) {
	defer func(start time.Time) { observe("insert_deployment", start, err) }(time.Now())

	if r == nil || r.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	if _, err = s.coll.InsertOne(ctx, newDeploymentDoc(r)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert deployment: %w", err)
	}
	return nil
}

// GetByMint retrieves a receipt. Returns ErrNotFound if not exists.
func (s *DeploymentStore) GetByMint(ctx context.Context, mint string) (out *domain.DeploymentReceipt, err error) {
	defer func(start time.Time) { observe("get_deployment", start, err) }(time.Now())

	var doc deploymentDoc
	if err = s.coll.FindOne(ctx, bson.M{"_id": mint}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get deployment: %w", err)
	}
	return doc.toDomain()
}

// List returns all receipts, most recent deployment first.
func (s *DeploymentStore) List(ctx context.Context) (out []*domain.DeploymentReceipt, err error) {
	defer func(start time.Time) { observe("list_deployments", start, err) }(time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "deployedAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer cur.Close(ctx)

	var docs []deploymentDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode deployments: %w", err)
	}

	out = make([]*domain.DeploymentReceipt, 0, len(docs))
	for i := range docs {
		r, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
