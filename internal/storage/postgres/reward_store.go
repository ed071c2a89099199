package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

// RewardStore implements storage.RewardStore using PostgreSQL.
type RewardStore struct {
	pool *Pool
}

// NewRewardStore creates a new RewardStore.
func NewRewardStore(pool *Pool) *RewardStore {
	return &RewardStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RewardStore = (*RewardStore)(nil)

const rewardColumns = `id, type, amount, timestamp, wallet, created_at, updated_at`

// Create validates and stores r under a new id.
func (s *RewardStore) Create(ctx context.Context, r *domain.Reward) (out *domain.Reward, err error) {
	defer func(start time.Time) { observe("insert_reward", start, err) }(time.Now())

	if r == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	ts := r.Timestamp
	if ts.IsZero() {
		ts = now
	}

	query := `
		INSERT INTO rewards (id, type, amount, timestamp, wallet, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + rewardColumns

	row := s.pool.QueryRow(ctx, query,
		uuid.NewString(),
		string(r.Type),
		r.Amount,
		ts,
		r.Wallet,
		now,
	)
	out, err = scanReward(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		if isCheckViolation(err) {
			return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	return out, nil
}

// List returns rewards matching filter, newest timestamp first.
func (s *RewardStore) List(ctx context.Context, filter domain.RewardFilter) (out []*domain.Reward, err error) {
	defer func(start time.Time) { observe("list_rewards", start, err) }(time.Now())

	var conds []string
	var args []interface{}
	if filter.Wallet != "" {
		args = append(args, filter.Wallet)
		conds = append(conds, fmt.Sprintf("wallet = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}

	query := `SELECT ` + rewardColumns + ` FROM rewards`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY timestamp DESC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	return scanRewards(rows)
}

// GetByID retrieves a reward by its ID. Returns ErrNotFound if not exists.
func (s *RewardStore) GetByID(ctx context.Context, id string) (out *domain.Reward, err error) {
	defer func(start time.Time) { observe("get_reward", start, err) }(time.Now())

	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE id = $1`

	out, err = scanReward(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get reward by id: %w", err)
	}
	return out, nil
}

// Update applies u to the stored reward; unset fields keep their value.
func (s *RewardStore) Update(ctx context.Context, id string, u *domain.RewardUpdate) (out *domain.Reward, err error) {
	defer func(start time.Time) { observe("update_reward", start, err) }(time.Now())

	if u == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	var typ *string
	if u.Type != nil {
		v := string(*u.Type)
		typ = &v
	}

	query := `
		UPDATE rewards SET
			type = COALESCE($2, type),
			amount = COALESCE($3, amount),
			timestamp = COALESCE($4, timestamp),
			wallet = COALESCE($5, wallet),
			updated_at = $6
		WHERE id = $1
		RETURNING ` + rewardColumns

	row := s.pool.QueryRow(ctx, query, id, typ, u.Amount, u.Timestamp, u.Wallet, time.Now().UTC())
	out, err = scanReward(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return out, nil
}

// Delete removes a reward. Returns ErrNotFound if not exists.
func (s *RewardStore) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("delete_reward", start, err) }(time.Now())

	tag, err := s.pool.Exec(ctx, `DELETE FROM rewards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanReward scans a single row into a Reward.
func scanReward(row pgx.Row) (*domain.Reward, error) {
	var r domain.Reward
	var typeStr string

	err := row.Scan(
		&r.ID,
		&typeStr,
		&r.Amount,
		&r.Timestamp,
		&r.Wallet,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Type = domain.RewardType(typeStr)
	r.Timestamp = r.Timestamp.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

// scanRewards scans multiple rows into a slice of Reward.
func scanRewards(rows pgx.Rows) ([]*domain.Reward, error) {
	rewards := make([]*domain.Reward, 0)

	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward row: %w", err)
		}
		rewards = append(rewards, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward rows: %w", err)
	}

	return rewards, nil
}
