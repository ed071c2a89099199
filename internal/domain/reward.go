package domain

import (
	"errors"
	"fmt"
	"time"
)

// RewardType classifies a reward record.
type RewardType string

const (
	RewardTypeStaking RewardType = "STAKING"
	RewardTypeTrading RewardType = "TRADING"
	RewardTypeOther   RewardType = "OTHER"
)

// Valid reports whether t is a known reward type.
func (t RewardType) Valid() bool {
	switch t {
	case RewardTypeStaking, RewardTypeTrading, RewardTypeOther:
		return true
	}
	return false
}

// Reward is a reward credited to a wallet.
type Reward struct {
	ID        string     `json:"id" bson:"-"`
	Type      RewardType `json:"type" bson:"type"`
	Amount    float64    `json:"amount" bson:"amount"`
	Timestamp time.Time  `json:"timestamp" bson:"timestamp"`
	Wallet    string     `json:"wallet" bson:"wallet"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Validation errors shared by Reward and Snapshot.
var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field value")
)

// Validate checks required fields. A zero Timestamp is allowed; stores
// default it to the creation time.
func (r *Reward) Validate() error {
	if r.Type == "" {
		return fmt.Errorf("%w: type", ErrMissingField)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: type %q is not one of STAKING, TRADING, OTHER", ErrInvalidField, r.Type)
	}
	if r.Wallet == "" {
		return fmt.Errorf("%w: wallet", ErrMissingField)
	}
	return nil
}

// RewardFilter selects rewards; empty fields match everything.
type RewardFilter struct {
	Wallet string
	Type   RewardType
}

// Matches reports whether r passes the filter.
func (f RewardFilter) Matches(r *Reward) bool {
	if f.Wallet != "" && r.Wallet != f.Wallet {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	return true
}

// RewardUpdate is a partial update; nil fields are left unchanged.
type RewardUpdate struct {
	Type      *RewardType `json:"type"`
	Amount    *float64    `json:"amount"`
	Timestamp *time.Time  `json:"timestamp"`
	Wallet    *string     `json:"wallet"`
}

// Validate checks the fields that are set.
func (u *RewardUpdate) Validate() error {
	if u.Type != nil && !u.Type.Valid() {
		return fmt.Errorf("%w: type %q is not one of STAKING, TRADING, OTHER", ErrInvalidField, *u.Type)
	}
	if u.Wallet != nil && *u.Wallet == "" {
		return fmt.Errorf("%w: wallet", ErrMissingField)
	}
	return nil
}

// Apply copies the set fields onto r.
func (u *RewardUpdate) Apply(r *Reward) {
	if u.Type != nil {
		r.Type = *u.Type
	}
	if u.Amount != nil {
		r.Amount = *u.Amount
	}
	if u.Timestamp != nil {
		r.Timestamp = *u.Timestamp
	}
	if u.Wallet != nil {
		r.Wallet = *u.Wallet
	}
}
