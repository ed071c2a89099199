package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/solana"
	"solana-taxed-token/internal/token2022"
)

// DefaultAirdropLamports is one SOL.
const DefaultAirdropLamports = solana.LamportsPerSOL

// UIAmount converts base units to a decimal amount with the given precision.
func UIAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// Balance is a native SOL balance.
type Balance struct {
	Address  string
	Lamports uint64
	SOL      decimal.Decimal
}

// TokenBalance is a Token-2022 holding of one mint.
type TokenBalance struct {
	Mint         string
	TokenAccount string
	Decimals     uint8
	Amount       uint64
	UIAmount     decimal.Decimal
	Supply       uint64
	UISupply     decimal.Decimal
	// Exists is false when the owner has no associated token account yet.
	Exists bool
	// FeeBasisPoints is the transfer fee currently configured on the mint.
	FeeBasisPoints uint16
}

// Service reads balances and requests airdrops.
type Service struct {
	rpc       solana.RPCClient
	confirmer solana.Confirmer
}

// NewService creates a Service. A nil confirmer polls signature statuses.
func NewService(rpc solana.RPCClient, confirmer solana.Confirmer) *Service {
	if confirmer == nil {
		confirmer = solana.NewPollConfirmer(rpc, 0)
	}
	return &Service{rpc: rpc, confirmer: confirmer}
}

// Balance returns the SOL balance of address.
func (s *Service) Balance(ctx context.Context, address common.PublicKey) (*Balance, error) {
	lamports, err := s.rpc.GetBalance(ctx, address.ToBase58())
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &Balance{
		Address:  address.ToBase58(),
		Lamports: lamports,
		SOL:      UIAmount(lamports, 9),
	}, nil
}

// Airdrop requests lamports for address and waits for confirmation. Only
// faucet-enabled clusters (devnet, testnet, local validators) accept it.
func (s *Service) Airdrop(ctx context.Context, address common.PublicKey, lamports uint64) (string, error) {
	if lamports == 0 {
		lamports = DefaultAirdropLamports
	}

	sig, err := s.rpc.RequestAirdrop(ctx, address.ToBase58(), lamports)
	if err != nil {
		return "", fmt.Errorf("request airdrop: %w", err)
	}
	logger.Info("airdrop requested",
		zap.String("address", address.ToBase58()),
		zap.Uint64("lamports", lamports),
		zap.String("signature", sig),
	)

	if err := s.confirmer.Confirm(ctx, sig, solana.CommitmentConfirmed); err != nil {
		return sig, fmt.Errorf("confirm airdrop: %w", err)
	}
	return sig, nil
}

// TokenBalances returns owner's balance for each mint, with decimals and
// supply read from the mint account.
func (s *Service) TokenBalances(ctx context.Context, owner common.PublicKey, mints []common.PublicKey) ([]*TokenBalance, error) {
	out := make([]*TokenBalance, 0, len(mints))
	for _, mint := range mints {
		bal, err := s.tokenBalance(ctx, owner, mint)
		if err != nil {
			return nil, err
		}
		out = append(out, bal)
	}
	return out, nil
}

func (s *Service) tokenBalance(ctx context.Context, owner, mint common.PublicKey) (*TokenBalance, error) {
	info, err := s.rpc.GetAccountInfo(ctx, mint.ToBase58())
	if err != nil {
		return nil, fmt.Errorf("get mint %s: %w", mint.ToBase58(), err)
	}
	if info == nil {
		return nil, fmt.Errorf("mint %s: account not found", mint.ToBase58())
	}
	if info.Owner != token2022.ProgramID.ToBase58() {
		return nil, fmt.Errorf("mint %s: owned by %s, not the Token-2022 program", mint.ToBase58(), info.Owner)
	}

	m, err := token2022.DecodeMint(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode mint %s: %w", mint.ToBase58(), err)
	}

	ata, _, err := token2022.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive token account: %w", err)
	}

	bal := &TokenBalance{
		Mint:         mint.ToBase58(),
		TokenAccount: ata.ToBase58(),
		Decimals:     m.Decimals,
		Supply:       m.Supply,
		UISupply:     UIAmount(m.Supply, m.Decimals),
		UIAmount:     decimal.Zero,
	}
	if m.TransferFeeConfig != nil {
		bal.FeeBasisPoints = m.TransferFeeConfig.Newer.BasisPoints
	}

	acct, err := s.rpc.GetAccountInfo(ctx, ata.ToBase58())
	if err != nil {
		return nil, fmt.Errorf("get token account: %w", err)
	}
	if acct == nil {
		return bal, nil
	}

	amt, err := s.rpc.GetTokenAccountBalance(ctx, ata.ToBase58())
	if err != nil {
		return nil, fmt.Errorf("get token account balance: %w", err)
	}
	amount, err := solana.ParseAmount(amt.Amount)
	if err != nil {
		return nil, err
	}

	bal.Exists = true
	bal.Amount = amount
	bal.UIAmount = UIAmount(amount, m.Decimals)
	return bal, nil
}
