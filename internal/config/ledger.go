package config

import (
	"context"
	"fmt"

	"solana-taxed-token/internal/provision"
	"solana-taxed-token/internal/solana"
)

// Client builds the JSON-RPC client for the configured endpoint.
func (c *SolanaConfig) Client() *solana.HTTPClient {
	opts := []solana.ClientOption{solana.WithCommitment(c.commitment())}
	if c.RequestTimeout > 0 {
		opts = append(opts, solana.WithTimeout(c.RequestTimeout))
	}
	if c.MaxRetries > 0 {
		opts = append(opts, solana.WithMaxRetries(c.MaxRetries))
	}
	return solana.NewHTTPClient(c.RPCURL, opts...)
}

// Confirmer dials the WebSocket endpoint when one is configured. Without one
// it returns a nil confirmer, which makes submitters poll.
func (c *SolanaConfig) Confirmer(ctx context.Context) (solana.Confirmer, func(), error) {
	if c.WSURL == "" {
		return nil, func() {}, nil
	}
	ws, err := solana.NewWSClient(ctx, c.WSURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("connect websocket: %w", err)
	}
	return solana.NewWSConfirmer(ws), func() { _ = ws.Close() }, nil
}

// SubmitterOptions returns the submitter settings for this endpoint.
func (c *SolanaConfig) SubmitterOptions(confirmer solana.Confirmer) provision.SubmitterOptions {
	return provision.SubmitterOptions{
		Confirmer:      confirmer,
		Commitment:     c.commitment(),
		ConfirmTimeout: c.ConfirmTimeout,
	}
}

func (c *SolanaConfig) commitment() solana.Commitment {
	if c.Commitment == "" {
		return solana.CommitmentConfirmed
	}
	return solana.Commitment(c.Commitment)
}
