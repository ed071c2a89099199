package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReward_Validate(t *testing.T) {
	tests := []struct {
		name    string
		reward  Reward
		wantErr error
	}{
		{"valid", Reward{Type: RewardTypeStaking, Amount: 10, Wallet: "w1"}, nil},
		{"missing type", Reward{Amount: 10, Wallet: "w1"}, ErrMissingField},
		{"unknown type", Reward{Type: "AIRDROP", Wallet: "w1"}, ErrInvalidField},
		{"missing wallet", Reward{Type: RewardTypeOther}, ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reward.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRewardFilter_Matches(t *testing.T) {
	r := &Reward{Type: RewardTypeTrading, Wallet: "w1"}

	assert.True(t, RewardFilter{}.Matches(r))
	assert.True(t, RewardFilter{Wallet: "w1"}.Matches(r))
	assert.True(t, RewardFilter{Wallet: "w1", Type: RewardTypeTrading}.Matches(r))
	assert.False(t, RewardFilter{Wallet: "w2"}.Matches(r))
	assert.False(t, RewardFilter{Type: RewardTypeStaking}.Matches(r))
}

func TestRewardUpdate_Apply(t *testing.T) {
	r := &Reward{Type: RewardTypeStaking, Amount: 1, Wallet: "w1"}
	amount := 2.5
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	u := RewardUpdate{Amount: &amount, Timestamp: &ts}
	assert.NoError(t, u.Validate())
	u.Apply(r)

	assert.Equal(t, 2.5, r.Amount)
	assert.Equal(t, ts, r.Timestamp)
	assert.Equal(t, RewardTypeStaking, r.Type)
	assert.Equal(t, "w1", r.Wallet)

	bad := RewardType("BOGUS")
	assert.ErrorIs(t, (&RewardUpdate{Type: &bad}).Validate(), ErrInvalidField)
}

func TestSnapshot_ValidateAndUpdate(t *testing.T) {
	assert.ErrorIs(t, (&Snapshot{Wallet: "w1"}).Validate(), ErrMissingField)
	assert.ErrorIs(t, (&Snapshot{Holdings: map[string]float64{}}).Validate(), ErrMissingField)

	s := &Snapshot{Wallet: "w1", Holdings: map[string]float64{"IMG": 1}}
	assert.NoError(t, s.Validate())

	holdings := map[string]float64{"IMG": 5, "SOL": 0.5}
	u := SnapshotUpdate{Holdings: holdings}
	u.Apply(s)
	holdings["IMG"] = 99

	assert.Equal(t, 5.0, s.Holdings["IMG"], "update must copy holdings")
	assert.Equal(t, "w1", s.Wallet)
	assert.True(t, SnapshotFilter{Wallet: "w1"}.Matches(s))
	assert.False(t, SnapshotFilter{Wallet: "w2"}.Matches(s))
}
