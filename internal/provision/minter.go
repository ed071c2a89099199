package provision

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/solana"
	"solana-taxed-token/internal/token2022"
)

// SupplyResult describes a supply mint.
type SupplyResult struct {
	TokenAccount common.PublicKey
	Amount       uint64
	CreatedATA   bool
	Signature    string
}

// Minter mints the fixed supply into the owner's associated token account.
type Minter struct {
	rpc       solana.RPCClient
	submitter *Submitter
}

// NewMinter creates a Minter.
func NewMinter(rpc solana.RPCClient, submitter *Submitter) *Minter {
	return &Minter{rpc: rpc, submitter: submitter}
}

// BuildSupplyInstructions returns the instructions minting amount to owner's
// associated token account, creating that account only when it is absent.
func (m *Minter) BuildSupplyInstructions(ctx context.Context, payer, owner, mint common.PublicKey, amount uint64) ([]types.Instruction, common.PublicKey, bool, error) {
	ata, _, err := token2022.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, common.PublicKey{}, false, fmt.Errorf("derive token account: %w", err)
	}

	info, err := m.rpc.GetAccountInfo(ctx, ata.ToBase58())
	if err != nil {
		return nil, common.PublicKey{}, false, fmt.Errorf("get token account: %w", err)
	}

	var instrs []types.Instruction
	create := info == nil
	if create {
		instrs = append(instrs, token2022.CreateAssociatedTokenAccount(token2022.CreateAssociatedTokenAccountParam{
			Funder:                 payer,
			Owner:                  owner,
			Mint:                   mint,
			AssociatedTokenAccount: ata,
		}))
	}
	instrs = append(instrs, token2022.MintTo(token2022.MintToParam{
		Mint:      mint,
		To:        ata,
		Authority: payer,
		Amount:    amount,
	}))
	return instrs, ata, create, nil
}

// MintSupply mints BaseSupply × 10^decimals to the mint authority's own
// associated token account in a single transaction.
func (m *Minter) MintSupply(ctx context.Context, authority types.Account, mint common.PublicKey, decimals uint8) (*SupplyResult, error) {
	amount, err := TotalSupply(decimals)
	if err != nil {
		return nil, err
	}

	instrs, ata, created, err := m.BuildSupplyInstructions(ctx, authority.PublicKey, authority.PublicKey, mint, amount)
	if err != nil {
		return nil, err
	}
	logger.Info("minting supply",
		zap.String("mint", mint.ToBase58()),
		zap.String("token_account", ata.ToBase58()),
		zap.Uint64("amount", amount),
		zap.Bool("create_account", created),
	)

	sig, err := m.submitter.Submit(ctx, "supply", authority, nil, instrs)
	if err != nil {
		return nil, err
	}

	return &SupplyResult{
		TokenAccount: ata,
		Amount:       amount,
		CreatedATA:   created,
		Signature:    sig,
	}, nil
}
