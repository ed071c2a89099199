package domain

import (
	"fmt"
	"time"
)

// Snapshot records a wallet's token holdings at a point in time.
// Holdings maps a token identifier (mint address or symbol) to a quantity.
type Snapshot struct {
	ID        string             `json:"id" bson:"-"`
	Wallet    string             `json:"wallet" bson:"wallet"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
	Holdings  map[string]float64 `json:"holdings" bson:"holdings"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Validate checks required fields.
func (s *Snapshot) Validate() error {
	if s.Wallet == "" {
		return fmt.Errorf("%w: wallet", ErrMissingField)
	}
	if s.Holdings == nil {
		return fmt.Errorf("%w: holdings", ErrMissingField)
	}
	return nil
}

// SnapshotFilter selects snapshots; an empty Wallet matches everything.
type SnapshotFilter struct {
	Wallet string
}

// Matches reports whether s passes the filter.
func (f SnapshotFilter) Matches(s *Snapshot) bool {
	return f.Wallet == "" || s.Wallet == f.Wallet
}

// SnapshotUpdate is a partial update; nil fields are left unchanged.
// Holdings replaces the whole map when set.
type SnapshotUpdate struct {
	Wallet    *string            `json:"wallet"`
	Timestamp *time.Time         `json:"timestamp"`
	Holdings  map[string]float64 `json:"holdings"`
}

// Validate checks the fields that are set.
func (u *SnapshotUpdate) Validate() error {
	if u.Wallet != nil && *u.Wallet == "" {
		return fmt.Errorf("%w: wallet", ErrMissingField)
	}
	return nil
}

// Apply copies the set fields onto s.
func (u *SnapshotUpdate) Apply(s *Snapshot) {
	if u.Wallet != nil {
		s.Wallet = *u.Wallet
	}
	if u.Timestamp != nil {
		s.Timestamp = *u.Timestamp
	}
	if u.Holdings != nil {
		s.Holdings = CopyHoldings(u.Holdings)
	}
}

// CopyHoldings returns a shallow copy of h.
func CopyHoldings(h map[string]float64) map[string]float64 {
	if h == nil {
		return nil
	}
	out := make(map[string]float64, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
