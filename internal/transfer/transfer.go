// Package transfer sends a Token-2022 transfer-checked-with-fee and reports
// the fee withheld by the mint's transfer-fee extension.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/provision"
	"solana-taxed-token/internal/solana"
	"solana-taxed-token/internal/token2022"
	"solana-taxed-token/internal/wallet"
)

// Transfer errors.
var (
	ErrNoTransferFee      = errors.New("mint has no transfer fee extension")
	ErrInsufficientTokens = errors.New("insufficient token balance")
	ErrZeroAmount         = errors.New("transfer amount must be positive")
	ErrAmountOverflow     = errors.New("transfer amount overflows u64")
	ErrSelfTransfer       = errors.New("recipient is the sender")
)

// BaseUnits converts a whole-token amount to base units.
func BaseUnits(whole uint64, decimals uint8) (uint64, error) {
	amount := whole
	for i := uint8(0); i < decimals; i++ {
		hi, lo := bits.Mul64(amount, 10)
		if hi != 0 {
			return 0, fmt.Errorf("%w: %d tokens at %d decimals", ErrAmountOverflow, whole, decimals)
		}
		amount = lo
	}
	return amount, nil
}

// Request describes one taxed transfer.
type Request struct {
	Mint      common.PublicKey
	Recipient common.PublicKey
	// Amount in base units.
	Amount uint64
}

// Result reports what the transfer did. Received is measured on the
// recipient's token account and equals Net when the ledger applied the
// expected fee.
type Result struct {
	Signature          string
	Source             common.PublicKey
	Destination        common.PublicKey
	CreatedDestination bool
	Decimals           uint8
	Amount             uint64
	Fee                uint64
	Net                uint64
	Received           uint64
}

// Runner executes taxed transfers.
type Runner struct {
	rpc       solana.RPCClient
	submitter *provision.Submitter
}

// NewRunner creates a Runner.
func NewRunner(rpc solana.RPCClient, submitter *provision.Submitter) *Runner {
	return &Runner{rpc: rpc, submitter: submitter}
}

// Run transfers req.Amount from sender's associated token account to the
// recipient's, creating the recipient account when absent. The fee passed
// to the program is computed locally, so a mismatch with the mint's
// configuration fails the transaction.
func (r *Runner) Run(ctx context.Context, sender types.Account, req Request) (*Result, error) {
	if req.Amount == 0 {
		return nil, ErrZeroAmount
	}
	// Source and destination would be one account, so no credit is measurable.
	if req.Recipient == sender.PublicKey {
		return nil, ErrSelfTransfer
	}

	mint, err := r.loadMint(ctx, req.Mint)
	if err != nil {
		return nil, err
	}
	// Older and Newer match until a fee update is scheduled, which this
	// system never does.
	schedule := mint.TransferFeeConfig.Newer
	fee := token2022.CalculateFee(req.Amount, schedule.BasisPoints, schedule.MaximumFee)

	source, _, err := token2022.FindAssociatedTokenAddress(sender.PublicKey, req.Mint)
	if err != nil {
		return nil, fmt.Errorf("derive source token account: %w", err)
	}
	dest, _, err := token2022.FindAssociatedTokenAddress(req.Recipient, req.Mint)
	if err != nil {
		return nil, fmt.Errorf("derive destination token account: %w", err)
	}

	have, found, err := r.tokenBalance(ctx, source)
	if err != nil {
		return nil, err
	}
	if !found || have < req.Amount {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientTokens, have, req.Amount)
	}

	before, destExists, err := r.tokenBalance(ctx, dest)
	if err != nil {
		return nil, err
	}

	var instrs []types.Instruction
	if !destExists {
		instrs = append(instrs, token2022.CreateAssociatedTokenAccount(token2022.CreateAssociatedTokenAccountParam{
			Funder:                 sender.PublicKey,
			Owner:                  req.Recipient,
			Mint:                   req.Mint,
			AssociatedTokenAccount: dest,
		}))
	}
	instrs = append(instrs, token2022.TransferCheckedWithFee(token2022.TransferCheckedWithFeeParam{
		From:      source,
		Mint:      req.Mint,
		To:        dest,
		Authority: sender.PublicKey,
		Amount:    req.Amount,
		Decimals:  mint.Decimals,
		Fee:       fee,
	}))

	logger.Info("sending taxed transfer",
		zap.String("mint", req.Mint.ToBase58()),
		zap.String("recipient", req.Recipient.ToBase58()),
		zap.String("amount", wallet.UIAmount(req.Amount, mint.Decimals).String()),
		zap.String("expected_fee", wallet.UIAmount(fee, mint.Decimals).String()),
		zap.Uint16("fee_basis_points", schedule.BasisPoints),
		zap.Bool("create_destination", !destExists),
	)

	sig, err := r.submitter.Submit(ctx, "transfer", sender, nil, instrs)
	if err != nil {
		return nil, err
	}

	after, _, err := r.tokenBalance(ctx, dest)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Signature:          sig,
		Source:             source,
		Destination:        dest,
		CreatedDestination: !destExists,
		Decimals:           mint.Decimals,
		Amount:             req.Amount,
		Fee:                fee,
		Net:                req.Amount - fee,
	}
	if after >= before {
		res.Received = after - before
	}
	if res.Received != res.Net {
		logger.Warn("recipient credit differs from expected net amount",
			zap.Uint64("expected", res.Net),
			zap.Uint64("received", res.Received),
		)
	}
	return res, nil
}

// Decimals reads the decimals of a transfer-fee mint.
func (r *Runner) Decimals(ctx context.Context, mint common.PublicKey) (uint8, error) {
	m, err := r.loadMint(ctx, mint)
	if err != nil {
		return 0, err
	}
	return m.Decimals, nil
}

func (r *Runner) loadMint(ctx context.Context, address common.PublicKey) (*token2022.Mint, error) {
	info, err := r.rpc.GetAccountInfo(ctx, address.ToBase58())
	if err != nil {
		return nil, fmt.Errorf("get mint: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("mint %s: account not found", address.ToBase58())
	}

	m, err := token2022.DecodeMint(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode mint: %w", err)
	}
	if m.TransferFeeConfig == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTransferFee, address.ToBase58())
	}
	return m, nil
}

// tokenBalance returns the base-unit balance of a token account and whether
// the account exists.
func (r *Runner) tokenBalance(ctx context.Context, account common.PublicKey) (uint64, bool, error) {
	info, err := r.rpc.GetAccountInfo(ctx, account.ToBase58())
	if err != nil {
		return 0, false, fmt.Errorf("get token account: %w", err)
	}
	if info == nil {
		return 0, false, nil
	}

	bal, err := r.rpc.GetTokenAccountBalance(ctx, account.ToBase58())
	if err != nil {
		return 0, true, fmt.Errorf("get token account balance: %w", err)
	}
	amount, err := solana.ParseAmount(bal.Amount)
	if err != nil {
		return 0, true, err
	}
	return amount, true, nil
}
