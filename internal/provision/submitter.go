package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/observability"
	"solana-taxed-token/internal/solana"
)

// DefaultConfirmTimeout bounds the wait for a confirmation.
const DefaultConfirmTimeout = 90 * time.Second

// Submitter signs, sends and confirms transactions. It never retries: a
// ledger rejection is returned as is.
type Submitter struct {
	rpc        solana.RPCClient
	confirmer  solana.Confirmer
	commitment solana.Commitment
	timeout    time.Duration
}

// SubmitterOptions configures a Submitter.
type SubmitterOptions struct {
	// Confirmer defaults to polling getSignatureStatuses.
	Confirmer solana.Confirmer
	// Commitment defaults to confirmed.
	Commitment solana.Commitment
	// ConfirmTimeout defaults to DefaultConfirmTimeout.
	ConfirmTimeout time.Duration
}

// NewSubmitter creates a Submitter.
func NewSubmitter(rpc solana.RPCClient, opts SubmitterOptions) *Submitter {
	s := &Submitter{
		rpc:        rpc,
		confirmer:  opts.Confirmer,
		commitment: opts.Commitment,
		timeout:    opts.ConfirmTimeout,
	}
	if s.confirmer == nil {
		s.confirmer = solana.NewPollConfirmer(rpc, 0)
	}
	if s.commitment == "" {
		s.commitment = solana.CommitmentConfirmed
	}
	if s.timeout <= 0 {
		s.timeout = DefaultConfirmTimeout
	}
	return s
}

// Submit builds one transaction paid by payer, signs it with payer and the
// extra signers, sends it and waits for confirmation. kind labels logs and
// metrics.
func (s *Submitter) Submit(ctx context.Context, kind string, payer types.Account, signers []types.Account, instrs []types.Instruction) (string, error) {
	sig, err := s.submit(ctx, kind, payer, signers, instrs)
	observability.RecordTransaction(kind, err)
	return sig, err
}

func (s *Submitter) submit(ctx context.Context, kind string, payer types.Account, signers []types.Account, instrs []types.Instruction) (string, error) {
	blockhash, err := s.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: append([]types.Account{payer}, signers...),
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        payer.PublicKey,
			RecentBlockhash: blockhash.Blockhash,
			Instructions:    instrs,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("build %s transaction: %w", kind, err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize %s transaction: %w", kind, err)
	}

	sig, err := s.rpc.SendTransaction(ctx, raw)
	if err != nil {
		var rpcErr *solana.RPCError
		if errors.As(err, &rpcErr) {
			for _, line := range rpcErr.Logs() {
				logger.Debug("program log", zap.String("kind", kind), zap.String("line", line))
			}
		}
		return "", fmt.Errorf("send %s transaction: %w", kind, err)
	}
	logger.Info("transaction sent",
		zap.String("kind", kind),
		zap.String("signature", sig),
		zap.Int("instructions", len(instrs)),
	)

	confirmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.confirmer.Confirm(confirmCtx, sig, s.commitment); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return sig, fmt.Errorf("%w: %s transaction %s not %s after %s", ErrConfirmationTimeout, kind, sig, s.commitment, s.timeout)
		}
		return sig, fmt.Errorf("confirm %s transaction: %w", kind, err)
	}

	logger.Info("transaction confirmed",
		zap.String("kind", kind),
		zap.String("signature", sig),
		zap.String("commitment", string(s.commitment)),
	)
	return sig, nil
}
