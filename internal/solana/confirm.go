package solana

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Confirmation errors.
var (
	// ErrTransactionFailed is returned when a landed transaction carries an error.
	ErrTransactionFailed = errors.New("transaction failed")
)

// Confirmer blocks until a signature reaches the requested commitment.
type Confirmer interface {
	Confirm(ctx context.Context, signature string, commitment Commitment) error
}

// PollConfirmer confirms by polling getSignatureStatuses.
type PollConfirmer struct {
	rpc      RPCClient
	interval time.Duration
}

// NewPollConfirmer creates a polling confirmer.
func NewPollConfirmer(rpc RPCClient, interval time.Duration) *PollConfirmer {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &PollConfirmer{rpc: rpc, interval: interval}
}

// Confirm polls until the status satisfies commitment, the transaction
// fails, or ctx is done.
func (p *PollConfirmer) Confirm(ctx context.Context, signature string, commitment Commitment) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err != nil {
			return fmt.Errorf("get signature status: %w", err)
		}
		if len(statuses) > 0 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return fmt.Errorf("%w: %s: %v", ErrTransactionFailed, signature, st.Err)
			}
			if st.ConfirmationStatus.Satisfies(commitment) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WSConfirmer confirms through a signatureSubscribe notification.
type WSConfirmer struct {
	ws WSClient
}

// NewWSConfirmer creates a WebSocket-backed confirmer.
func NewWSConfirmer(ws WSClient) *WSConfirmer {
	return &WSConfirmer{ws: ws}
}

// Confirm waits for the single signature notification.
func (w *WSConfirmer) Confirm(ctx context.Context, signature string, commitment Commitment) error {
	ch, err := w.ws.SubscribeSignature(ctx, signature, commitment)
	if err != nil {
		return fmt.Errorf("subscribe signature: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case notif, ok := <-ch:
		if !ok {
			return fmt.Errorf("signature subscription closed before notification")
		}
		if notif.Err != nil {
			return fmt.Errorf("%w: %s: %v", ErrTransactionFailed, signature, notif.Err)
		}
		return nil
	}
}
