package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

// DeploymentStore implements storage.DeploymentStore using PostgreSQL.
type DeploymentStore struct {
	pool *Pool
}

// NewDeploymentStore creates a new DeploymentStore.
func NewDeploymentStore(pool *Pool) *DeploymentStore {
	return &DeploymentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DeploymentStore = (*DeploymentStore)(nil)

// u64 columns are NUMERIC(20,0) and travel as text.
const deploymentColumns = `
	mint_address, wallet_address, transfer_fee_basis_points, maximum_fee::TEXT,
	token_name, token_symbol, token_uri, decimals, total_supply::TEXT, placement,
	metadata_address, token_account, mint_signature, supply_signature, deployed_at
`

// Insert adds a receipt. Returns ErrDuplicateKey if the mint exists.
func (s *DeploymentStore) Insert(ctx context.Context, r *domain.DeploymentReceipt) (err error) {
	defer func(start time.Time) { observe("insert_deployment", start, err) }(time.Now())

	if r == nil || r.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO deployments (
			mint_address, wallet_address, transfer_fee_basis_points, maximum_fee,
			token_name, token_symbol, token_uri, decimals, total_supply, placement,
			metadata_address, token_account, mint_signature, supply_signature, deployed_at
		) VALUES ($1, $2, $3, $4::NUMERIC, $5, $6, $7, $8, $9::NUMERIC, $10, $11, $12, $13, $14, $15)
	`

	_, err = s.pool.Exec(ctx, query,
		r.MintAddress,
		r.WalletAddress,
		int32(r.TransferFeeBasisPoints),
		strconv.FormatUint(r.MaximumFee, 10),
		r.TokenName,
		r.TokenSymbol,
		r.TokenURI,
		int16(r.Decimals),
		strconv.FormatUint(r.TotalSupply, 10),
		r.Placement,
		r.MetadataAddress,
		r.TokenAccount,
		r.MintSignature,
		r.SupplySignature,
		r.DeployedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
		}
		return fmt.Errorf("insert deployment: %w", err)
	}
	return nil
}

// GetByMint retrieves a receipt. Returns ErrNotFound if not exists.
func (s *DeploymentStore) GetByMint(ctx context.Context, mint string) (out *domain.DeploymentReceipt, err error) {
	defer func(start time.Time) { observe("get_deployment", start, err) }(time.Now())

	query := `SELECT ` + deploymentColumns + ` FROM deployments WHERE mint_address = $1`

	out, err = scanDeployment(s.pool.QueryRow(ctx, query, mint))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get deployment by mint: %w", err)
	}
	return out, nil
}

// List returns all receipts, most recent deployment first.
func (s *DeploymentStore) List(ctx context.Context) (out []*domain.DeploymentReceipt, err error) {
	defer func(start time.Time) { observe("list_deployments", start, err) }(time.Now())

	query := `SELECT ` + deploymentColumns + ` FROM deployments ORDER BY deployed_at DESC, mint_address ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	out = make([]*domain.DeploymentReceipt, 0)
	for rows.Next() {
		r, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deployment row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployment rows: %w", err)
	}
	return out, nil
}

// scanDeployment scans a single row into a DeploymentReceipt.
func scanDeployment(row pgx.Row) (*domain.DeploymentReceipt, error) {
	var r domain.DeploymentReceipt
	var feeBps int32
	var decimals int16
	var maxFee, supply string

	err := row.Scan(
		&r.MintAddress,
		&r.WalletAddress,
		&feeBps,
		&maxFee,
		&r.TokenName,
		&r.TokenSymbol,
		&r.TokenURI,
		&decimals,
		&supply,
		&r.Placement,
		&r.MetadataAddress,
		&r.TokenAccount,
		&r.MintSignature,
		&r.SupplySignature,
		&r.DeployedAt,
	)
	if err != nil {
		return nil, err
	}

	if r.MaximumFee, err = strconv.ParseUint(maxFee, 10, 64); err != nil {
		return nil, fmt.Errorf("parse maximum_fee %q: %w", maxFee, err)
	}
	if r.TotalSupply, err = strconv.ParseUint(supply, 10, 64); err != nil {
		return nil, fmt.Errorf("parse total_supply %q: %w", supply, err)
	}
	r.TransferFeeBasisPoints = uint16(feeBps)
	r.Decimals = uint8(decimals)
	r.DeployedAt = r.DeployedAt.UTC()
	return &r, nil
}
