package transfer

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-taxed-token/internal/provision"
	"solana-taxed-token/internal/solana"
	"solana-taxed-token/internal/solana/stub"
	"solana-taxed-token/internal/token2022"
)

type fixture struct {
	rpc    *stub.RPCClient
	sender types.Account
	mint   common.PublicKey
	source common.PublicKey
}

func newFixture(t *testing.T, bps uint16, maxFee uint64, held uint64) *fixture {
	t.Helper()

	f := &fixture{
		rpc:    stub.NewRPCClient(),
		sender: types.NewAccount(),
		mint:   types.NewAccount().PublicKey,
	}

	m := &token2022.Mint{
		MintAuthority: &f.sender.PublicKey,
		Supply:        held,
		Decimals:      6,
		IsInitialized: true,
		TransferFeeConfig: &token2022.TransferFeeConfig{
			ConfigAuthority:           f.sender.PublicKey,
			WithdrawWithheldAuthority: f.sender.PublicKey,
			Older:                     token2022.TransferFee{BasisPoints: bps, MaximumFee: maxFee},
			Newer:                     token2022.TransferFee{BasisPoints: bps, MaximumFee: maxFee},
		},
	}
	f.rpc.SetAccount(f.mint.ToBase58(), &solana.AccountInfo{Owner: token2022.ProgramID.ToBase58(), Data: m.Encode()})

	var err error
	f.source, _, err = token2022.FindAssociatedTokenAddress(f.sender.PublicKey, f.mint)
	require.NoError(t, err)
	f.rpc.SetAccount(f.source.ToBase58(), &solana.AccountInfo{Owner: token2022.ProgramID.ToBase58()})
	f.rpc.SetTokenBalance(f.source.ToBase58(), held, 6)
	return f
}

// applyTransfers credits the destination of every transfer-with-fee
// instruction with amount minus fee, the way the ledger would.
func (f *fixture) applyTransfers(t *testing.T) {
	f.rpc.OnSend = func(raw []byte) {
		tx, err := types.TransactionDeserialize(raw)
		if err != nil {
			t.Errorf("deserialize: %v", err)
			return
		}
		for _, ix := range tx.Message.Instructions {
			if len(ix.Data) != 19 || ix.Data[0] != token2022.InstructionTransferFeeExtension {
				continue
			}
			amount := binary.LittleEndian.Uint64(ix.Data[2:10])
			fee := binary.LittleEndian.Uint64(ix.Data[11:19])
			dest := tx.Message.Accounts[ix.Accounts[2]]
			f.rpc.SetAccount(dest.ToBase58(), &solana.AccountInfo{Owner: token2022.ProgramID.ToBase58()})
			f.rpc.SetTokenBalance(dest.ToBase58(), amount-fee, ix.Data[10])
		}
	}
}

func (f *fixture) runner() *Runner {
	return NewRunner(f.rpc, provision.NewSubmitter(f.rpc, provision.SubmitterOptions{}))
}

func TestRun_FivePercent(t *testing.T) {
	f := newFixture(t, 500, 1<<50, 1_000_000_000_000_000)
	f.applyTransfers(t)
	recipient := types.NewAccount().PublicKey

	res, err := f.runner().Run(context.Background(), f.sender, Request{
		Mint:      f.mint,
		Recipient: recipient,
		Amount:    100_000_000,
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(100_000_000), res.Amount)
	assert.Equal(t, uint64(5_000_000), res.Fee)
	assert.Equal(t, uint64(95_000_000), res.Net)
	assert.Equal(t, uint64(95_000_000), res.Received)
	assert.True(t, res.CreatedDestination)
	assert.Equal(t, uint8(6), res.Decimals)
	assert.NotEmpty(t, res.Signature)

	tx, err := types.TransactionDeserialize(f.rpc.Sent[0])
	require.NoError(t, err)
	require.Len(t, tx.Message.Instructions, 2, "create destination + transfer")

	transferIx := tx.Message.Instructions[1]
	assert.Equal(t, token2022.InstructionTransferFeeExtension, transferIx.Data[0])
	assert.Equal(t, token2022.TransferFeeTransferCheckedWithFee, transferIx.Data[1])
	assert.Equal(t, uint64(5_000_000), binary.LittleEndian.Uint64(transferIx.Data[11:19]))
}

func TestRun_ExistingDestination(t *testing.T) {
	f := newFixture(t, 500, 1<<50, 1_000_000_000)
	recipient := types.NewAccount().PublicKey

	dest, _, err := token2022.FindAssociatedTokenAddress(recipient, f.mint)
	require.NoError(t, err)
	f.rpc.SetAccount(dest.ToBase58(), &solana.AccountInfo{Owner: token2022.ProgramID.ToBase58()})
	f.rpc.SetTokenBalance(dest.ToBase58(), 10, 6)
	f.rpc.OnSend = func([]byte) { f.rpc.SetTokenBalance(dest.ToBase58(), 10+950, 6) }

	res, err := f.runner().Run(context.Background(), f.sender, Request{Mint: f.mint, Recipient: recipient, Amount: 1000})
	require.NoError(t, err)

	assert.False(t, res.CreatedDestination)
	assert.Equal(t, uint64(50), res.Fee)
	assert.Equal(t, uint64(950), res.Received)

	tx, err := types.TransactionDeserialize(f.rpc.Sent[0])
	require.NoError(t, err)
	assert.Len(t, tx.Message.Instructions, 1)
}

func TestRun_MaximumFeeCap(t *testing.T) {
	f := newFixture(t, 500, 1_000, 1_000_000_000)
	f.applyTransfers(t)

	res, err := f.runner().Run(context.Background(), f.sender, Request{
		Mint:      f.mint,
		Recipient: types.NewAccount().PublicKey,
		Amount:    100_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), res.Fee)
	assert.Equal(t, uint64(99_999_000), res.Received)
}

func TestRun_Rejections(t *testing.T) {
	f := newFixture(t, 500, 1<<50, 10)
	r := f.runner()
	ctx := context.Background()
	recipient := types.NewAccount().PublicKey

	_, err := r.Run(ctx, f.sender, Request{Mint: f.mint, Recipient: recipient})
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = r.Run(ctx, f.sender, Request{Mint: f.mint, Recipient: recipient, Amount: 11})
	assert.ErrorIs(t, err, ErrInsufficientTokens)

	_, err = r.Run(ctx, types.NewAccount(), Request{Mint: f.mint, Recipient: recipient, Amount: 1})
	assert.ErrorIs(t, err, ErrInsufficientTokens, "sender without a token account")

	plain := types.NewAccount().PublicKey
	f.rpc.SetAccount(plain.ToBase58(), &solana.AccountInfo{
		Owner: token2022.ProgramID.ToBase58(),
		Data:  (&token2022.Mint{Decimals: 6, IsInitialized: true}).Encode(),
	})
	_, err = r.Run(ctx, f.sender, Request{Mint: plain, Recipient: recipient, Amount: 1})
	assert.ErrorIs(t, err, ErrNoTransferFee)

	assert.Zero(t, f.rpc.SentCount())
}

func TestRun_LedgerRejection(t *testing.T) {
	f := newFixture(t, 500, 1<<50, 1_000_000_000)
	f.rpc.SendErr = &solana.RPCError{Code: -32002, Message: "Transaction simulation failed"}

	_, err := f.runner().Run(context.Background(), f.sender, Request{
		Mint:      f.mint,
		Recipient: types.NewAccount().PublicKey,
		Amount:    1000,
	})
	var rpcErr *solana.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32002, rpcErr.Code)
}

func TestRun_SelfTransfer(t *testing.T) {
	f := newFixture(t, 500, 1<<50, 1_000_000_000)
	f.applyTransfers(t)

	_, err := f.runner().Run(context.Background(), f.sender, Request{
		Mint:      f.mint,
		Recipient: f.sender.PublicKey,
		Amount:    100_000_000,
	})
	assert.ErrorIs(t, err, ErrSelfTransfer)
	assert.Zero(t, f.rpc.SentCount())
	assert.Zero(t, f.rpc.Calls(""))
}

func TestBaseUnits(t *testing.T) {
	got, err := BaseUnits(100, 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), got)

	got, err = BaseUnits(7, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got)

	_, err = BaseUnits(100, 19)
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestRunner_Decimals(t *testing.T) {
	f := newFixture(t, 500, 1<<50, 10)

	decimals, err := f.runner().Decimals(context.Background(), f.mint)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)

	_, err = f.runner().Decimals(context.Background(), types.NewAccount().PublicKey)
	assert.Error(t, err)
}
