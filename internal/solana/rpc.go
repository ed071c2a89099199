package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface used by the provisioning,
// transfer and wallet workflows.
type RPCClient interface {
	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for an account of dataLen bytes.
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)

	// GetLatestBlockhash returns a recent blockhash for message construction.
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)

	// SendTransaction submits a signed, serialized transaction. It is never retried.
	SendTransaction(ctx context.Context, rawTx []byte) (string, error)

	// GetSignatureStatuses returns one status per signature; nil entries are unknown signatures.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetAccountInfo returns account state, or nil if the account does not exist.
	GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error)

	// GetTokenAccountBalance returns the balance of a token account.
	GetTokenAccountBalance(ctx context.Context, address string) (*TokenAmount, error)

	// RequestAirdrop requests lamports from a faucet-enabled cluster.
	RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error)
}
