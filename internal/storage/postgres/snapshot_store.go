package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Holdings are stored as JSONB.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `id, wallet, timestamp, holdings, created_at, updated_at`

// Create validates and stores snap under a new id.
func (s *SnapshotStore) Create(ctx context.Context, snap *domain.Snapshot) (out *domain.Snapshot, err error) {
	defer func(start time.Time) { observe("insert_snapshot", start, err) }(time.Now())

	if snap == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	holdings, err := json.Marshal(snap.Holdings)
	if err != nil {
		return nil, fmt.Errorf("%w: holdings: %v", storage.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = now
	}

	query := `
		INSERT INTO snapshots (id, wallet, timestamp, holdings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING ` + snapshotColumns

	out, err = scanSnapshot(s.pool.QueryRow(ctx, query, uuid.NewString(), snap.Wallet, ts, holdings, now))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return out, nil
}

// List returns snapshots matching filter, newest timestamp first.
func (s *SnapshotStore) List(ctx context.Context, filter domain.SnapshotFilter) (out []*domain.Snapshot, err error) {
	defer func(start time.Time) { observe("list_snapshots", start, err) }(time.Now())

	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE ($1 = '' OR wallet = $1)
		ORDER BY timestamp DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, filter.Wallet)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out = make([]*domain.Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return out, nil
}

// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
func (s *SnapshotStore) GetByID(ctx context.Context, id string) (out *domain.Snapshot, err error) {
	defer func(start time.Time) { observe("get_snapshot", start, err) }(time.Now())

	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE id = $1`

	out, err = scanSnapshot(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot by id: %w", err)
	}
	return out, nil
}

// Update applies u to the stored snapshot; holdings are replaced when set.
func (s *SnapshotStore) Update(ctx context.Context, id string, u *domain.SnapshotUpdate) (out *domain.Snapshot, err error) {
	defer func(start time.Time) { observe("update_snapshot", start, err) }(time.Now())

	if u == nil {
		return nil, storage.ErrInvalidInput
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	// nil interface encodes as NULL, leaving the column unchanged
	var holdings interface{}
	if u.Holdings != nil {
		data, err := json.Marshal(u.Holdings)
		if err != nil {
			return nil, fmt.Errorf("%w: holdings: %v", storage.ErrInvalidInput, err)
		}
		holdings = data
	}

	query := `
		UPDATE snapshots SET
			wallet = COALESCE($2, wallet),
			timestamp = COALESCE($3, timestamp),
			holdings = COALESCE($4::jsonb, holdings),
			updated_at = $5
		WHERE id = $1
		RETURNING ` + snapshotColumns

	out, err = scanSnapshot(s.pool.QueryRow(ctx, query, id, u.Wallet, u.Timestamp, holdings, time.Now().UTC()))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("update snapshot: %w", err)
	}
	return out, nil
}

// Delete removes a snapshot. Returns ErrNotFound if not exists.
func (s *SnapshotStore) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("delete_snapshot", start, err) }(time.Now())

	tag, err := s.pool.Exec(ctx, `DELETE FROM snapshots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanSnapshot scans a single row into a Snapshot.
func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	var holdings []byte

	err := row.Scan(
		&snap.ID,
		&snap.Wallet,
		&snap.Timestamp,
		&holdings,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(holdings, &snap.Holdings); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}
	snap.Timestamp = snap.Timestamp.UTC()
	snap.CreatedAt = snap.CreatedAt.UTC()
	snap.UpdatedAt = snap.UpdatedAt.UTC()
	return &snap, nil
}
