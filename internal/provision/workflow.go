package provision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/observability"
	"solana-taxed-token/internal/solana"
	"solana-taxed-token/internal/token2022"
)

// State is a provisioning workflow state.
type State string

// Workflow states, in order.
const (
	StateUnstarted         State = "UNSTARTED"
	StateMintAccountSized  State = "MINT_ACCOUNT_SIZED"
	StateInstructionsBuilt State = "INSTRUCTIONS_BUILT"
	StateMintTxConfirmed   State = "MINT_TX_CONFIRMED"
	StateSupplyMinted      State = "SUPPLY_MINTED"
)

var stateOrder = map[State]int{
	StateUnstarted:         0,
	StateMintAccountSized:  1,
	StateInstructionsBuilt: 2,
	StateMintTxConfirmed:   3,
	StateSupplyMinted:      4,
}

// Options for creating a Workflow.
type Options struct {
	RPC solana.RPCClient

	// Submitter options: confirmer, commitment and confirmation timeout.
	Submit SubmitterOptions

	// NewAccount generates the mint and metadata keypairs. Defaults to
	// types.NewAccount.
	NewAccount func() types.Account

	// Now defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of a successful run.
type Result struct {
	Mint     types.Account
	Metadata common.PublicKey
	Sizing   *Sizing
	Supply   *SupplyResult
	Receipt  *domain.DeploymentReceipt
}

// Workflow provisions one taxed token. A Workflow value runs once.
type Workflow struct {
	rpc        solana.RPCClient
	submitter  *Submitter
	minter     *Minter
	newAccount func() types.Account
	now        func() time.Time

	mu    sync.Mutex
	state State
	used  bool
}

// New creates a Workflow.
func New(opts Options) *Workflow {
	submitter := NewSubmitter(opts.RPC, opts.Submit)
	w := &Workflow{
		rpc:        opts.RPC,
		submitter:  submitter,
		minter:     NewMinter(opts.RPC, submitter),
		newAccount: opts.NewAccount,
		now:        opts.Now,
		state:      StateUnstarted,
	}
	if w.newAccount == nil {
		w.newAccount = types.NewAccount
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// advance moves to next, which must be the immediate successor.
func (w *Workflow) advance(next State) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	cur, ok := stateOrder[w.state]
	want, known := stateOrder[next]
	if !ok || !known || want != cur+1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.state, next)
	}
	w.state = next
	observability.RecordWorkflowState(string(next))
	logger.Debug("workflow state", zap.String("state", string(next)))
	return nil
}

func (w *Workflow) fail(err error) error {
	return fmt.Errorf("provision failed in state %s: %w", w.State(), err)
}

// Run deploys a mint for p paid by deployer and mints its full supply to the
// deployer. On failure the workflow stays in its last reached state and the
// error names it.
func (w *Workflow) Run(ctx context.Context, deployer *types.Account, p Params) (result *Result, err error) {
	w.mu.Lock()
	if w.used {
		w.mu.Unlock()
		return nil, ErrWorkflowUsed
	}
	w.used = true
	w.mu.Unlock()

	start := w.now()
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		observability.RecordWorkflowRun(status, w.now().Sub(start).Seconds())
	}()

	if deployer == nil || len(deployer.PrivateKey) == 0 {
		return nil, w.fail(ErrMissingDeployer)
	}
	if err := p.Validate(); err != nil {
		return nil, w.fail(err)
	}
	p.Placement = p.placement()

	mint := w.newAccount()
	metadata := mint.PublicKey
	signers := []types.Account{mint}
	if p.Placement == PlacementSeparate {
		metadataAccount := w.newAccount()
		metadata = metadataAccount.PublicKey
		signers = append(signers, metadataAccount)
	}
	logger.Info("provisioning token",
		zap.String("name", p.Name),
		zap.String("symbol", p.Symbol),
		zap.String("mint", mint.PublicKey.ToBase58()),
		zap.String("payer", deployer.PublicKey.ToBase58()),
		zap.String("placement", string(p.Placement)),
		zap.Uint16("fee_basis_points", p.FeeBasisPoints),
	)

	// Account Sizer
	meta := &token2022.TokenMetadata{
		UpdateAuthority: deployer.PublicKey,
		Mint:            mint.PublicKey,
		Name:            p.Name,
		Symbol:          p.Symbol,
		URI:             p.URI,
		Additional:      p.AdditionalFields,
	}
	sizing, err := SizeAccounts(ctx, w.rpc, p.Placement, meta)
	if err != nil {
		return nil, w.fail(err)
	}
	if err := w.advance(StateMintAccountSized); err != nil {
		return nil, w.fail(err)
	}

	balance, err := w.rpc.GetBalance(ctx, deployer.PublicKey.ToBase58())
	if err != nil {
		return nil, w.fail(fmt.Errorf("get payer balance: %w", err))
	}
	if balance < sizing.TotalLamports() {
		return nil, w.fail(fmt.Errorf("%w: payer %s has %d lamports, rent needs %d",
			ErrInsufficientFunds, deployer.PublicKey.ToBase58(), balance, sizing.TotalLamports()))
	}

	// Instruction Builder
	instrs, err := BuildMintInstructions(&p, sizing, Accounts{
		Payer:    deployer.PublicKey,
		Mint:     mint.PublicKey,
		Metadata: metadata,
	})
	if err != nil {
		return nil, w.fail(err)
	}
	if err := w.advance(StateInstructionsBuilt); err != nil {
		return nil, w.fail(err)
	}

	// Transaction Submitter
	mintSig, err := w.submitter.Submit(ctx, "mint", *deployer, signers, instrs)
	if err != nil {
		return nil, w.fail(err)
	}
	if err := w.advance(StateMintTxConfirmed); err != nil {
		return nil, w.fail(err)
	}

	// Supply Minter
	supply, err := w.minter.MintSupply(ctx, *deployer, mint.PublicKey, p.Decimals)
	if err != nil {
		return nil, w.fail(err)
	}
	if err := w.advance(StateSupplyMinted); err != nil {
		return nil, w.fail(err)
	}

	receipt := &domain.DeploymentReceipt{
		MintAddress:            mint.PublicKey.ToBase58(),
		WalletAddress:          deployer.PublicKey.ToBase58(),
		TransferFeeBasisPoints: p.FeeBasisPoints,
		MaximumFee:             p.MaxFee,
		TokenName:              p.Name,
		TokenSymbol:            p.Symbol,
		TokenURI:               p.URI,
		Decimals:               p.Decimals,
		TotalSupply:            supply.Amount,
		Placement:              string(p.Placement),
		MetadataAddress:        metadata.ToBase58(),
		TokenAccount:           supply.TokenAccount.ToBase58(),
		MintSignature:          mintSig,
		SupplySignature:        supply.Signature,
		DeployedAt:             w.now().UTC(),
	}
	logger.Info("token provisioned",
		zap.String("mint", receipt.MintAddress),
		zap.String("mint_signature", mintSig),
		zap.String("supply_signature", supply.Signature),
	)

	return &Result{
		Mint:     mint,
		Metadata: metadata,
		Sizing:   sizing,
		Supply:   supply,
		Receipt:  receipt,
	}, nil
}
