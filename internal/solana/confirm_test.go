package solana

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// statusSequence returns successive statuses on each call.
type statusSequence struct {
	RPCClient
	calls    atomic.Int32
	statuses []*SignatureStatus
}

func (s *statusSequence) GetSignatureStatuses(_ context.Context, _ []string) ([]*SignatureStatus, error) {
	i := int(s.calls.Add(1)) - 1
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	return []*SignatureStatus{s.statuses[i]}, nil
}

func TestPollConfirmer_Confirmed(t *testing.T) {
	rpc := &statusSequence{statuses: []*SignatureStatus{
		nil,
		{ConfirmationStatus: CommitmentProcessed},
		{ConfirmationStatus: CommitmentConfirmed},
	}}

	err := NewPollConfirmer(rpc, time.Millisecond).Confirm(context.Background(), "sig", CommitmentConfirmed)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if rpc.calls.Load() != 3 {
		t.Errorf("expected 3 polls, got %d", rpc.calls.Load())
	}
}

func TestPollConfirmer_Failed(t *testing.T) {
	rpc := &statusSequence{statuses: []*SignatureStatus{
		{ConfirmationStatus: CommitmentConfirmed, Err: map[string]interface{}{"InstructionError": []interface{}{2, "InvalidAccountData"}}},
	}}

	err := NewPollConfirmer(rpc, time.Millisecond).Confirm(context.Background(), "sig", CommitmentConfirmed)
	if !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}
}

func TestPollConfirmer_Timeout(t *testing.T) {
	rpc := &statusSequence{statuses: []*SignatureStatus{nil}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewPollConfirmer(rpc, 5*time.Millisecond).Confirm(ctx, "sig", CommitmentConfirmed)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type fakeWS struct {
	notif *SignatureNotification
}

func (f *fakeWS) SubscribeSignature(_ context.Context, sig string, _ Commitment) (<-chan SignatureNotification, error) {
	ch := make(chan SignatureNotification, 1)
	if f.notif != nil {
		n := *f.notif
		n.Signature = sig
		ch <- n
		close(ch)
	}
	return ch, nil
}

func (f *fakeWS) Close() error { return nil }

func TestWSConfirmer(t *testing.T) {
	ok := NewWSConfirmer(&fakeWS{notif: &SignatureNotification{Slot: 5}})
	if err := ok.Confirm(context.Background(), "sig", CommitmentConfirmed); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	failed := NewWSConfirmer(&fakeWS{notif: &SignatureNotification{Err: "custom program error: 0x1"}})
	if err := failed.Confirm(context.Background(), "sig", CommitmentConfirmed); !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	pending := NewWSConfirmer(&fakeWS{})
	if err := pending.Confirm(ctx, "sig", CommitmentConfirmed); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
