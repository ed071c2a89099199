package stub

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/mr-tron/base58"

	"solana-taxed-token/internal/solana"
)

// DefaultBlockhash is a well-formed blockhash returned by the stub ledger.
const DefaultBlockhash = "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"

// RPCClient implements solana.RPCClient for testing. It counts every call so
// tests can assert that no network traffic happened.
type RPCClient struct {
	mu sync.Mutex

	Balances      map[string]uint64
	Accounts      map[string]*solana.AccountInfo
	TokenBalances map[string]*solana.TokenAmount

	// Rent computes the rent-exempt minimum; defaults to the mainnet formula.
	Rent func(dataLen uint64) uint64

	// SendErr, when set, is returned by SendTransaction.
	SendErr error
	// TxErr, when set, is reported as the status error of sent transactions.
	TxErr interface{}
	// OnSend is invoked with every accepted transaction.
	OnSend func(raw []byte)

	Sent   [][]byte
	landed map[string]bool
	calls  map[string]int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:      make(map[string]uint64),
		Accounts:      make(map[string]*solana.AccountInfo),
		TokenBalances: make(map[string]*solana.TokenAmount),
		Rent:          DefaultRent,
		landed:        make(map[string]bool),
		calls:         make(map[string]int),
	}
}

// Compile-time interface check.
var _ solana.RPCClient = (*RPCClient)(nil)

// DefaultRent is (128 + len) * 3480 * 2 lamports.
func DefaultRent(dataLen uint64) uint64 {
	return (128 + dataLen) * 3480 * 2
}

func (c *RPCClient) record(method string) {
	c.calls[method]++
}

// Calls returns the number of calls made to method, or to any method when
// method is empty.
func (c *RPCClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if method != "" {
		return c.calls[method]
	}
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

// SentCount returns the number of accepted transactions.
func (c *RPCClient) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

// SetAccount registers an account at address.
func (c *RPCClient) SetAccount(address string, info *solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[address] = info
}

// SetTokenBalance sets the base-unit balance of a token account.
func (c *RPCClient) SetTokenBalance(address string, amount uint64, decimals uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TokenBalances[address] = &solana.TokenAmount{
		Amount:   strconv.FormatUint(amount, 10),
		Decimals: decimals,
	}
}

// GetBalance returns the stubbed balance.
func (c *RPCClient) GetBalance(_ context.Context, address string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getBalance")
	return c.Balances[address], nil
}

// GetMinimumBalanceForRentExemption applies the Rent function.
func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, dataLen uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getMinimumBalanceForRentExemption")
	return c.Rent(dataLen), nil
}

// GetLatestBlockhash returns DefaultBlockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getLatestBlockhash")
	return &solana.Blockhash{Blockhash: DefaultBlockhash, LastValidBlockHeight: 1000}, nil
}

// SendTransaction records the transaction and returns its first signature.
func (c *RPCClient) SendTransaction(_ context.Context, rawTx []byte) (string, error) {
	c.mu.Lock()
	c.record("sendTransaction")
	if c.SendErr != nil {
		err := c.SendErr
		c.mu.Unlock()
		return "", err
	}
	sig, err := FirstSignature(rawTx)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	c.Sent = append(c.Sent, rawTx)
	c.landed[sig] = true
	onSend := c.OnSend
	c.mu.Unlock()

	if onSend != nil {
		onSend(rawTx)
	}
	return sig, nil
}

// GetSignatureStatuses reports sent transactions as confirmed.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getSignatureStatuses")

	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		if !c.landed[sig] {
			continue
		}
		statuses[i] = &solana.SignatureStatus{
			Slot:               1,
			Err:                c.TxErr,
			ConfirmationStatus: solana.CommitmentConfirmed,
		}
	}
	return statuses, nil
}

// GetAccountInfo returns the registered account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, address string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getAccountInfo")

	info, ok := c.Accounts[address]
	if !ok {
		return nil, nil
	}
	infoCopy := *info
	return &infoCopy, nil
}

// GetTokenAccountBalance returns the stubbed token balance.
func (c *RPCClient) GetTokenAccountBalance(_ context.Context, address string) (*solana.TokenAmount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getTokenAccountBalance")

	bal, ok := c.TokenBalances[address]
	if !ok {
		return nil, &solana.RPCError{Code: -32602, Message: "Invalid param: could not find account"}
	}
	balCopy := *bal
	return &balCopy, nil
}

// RequestAirdrop credits the balance immediately.
func (c *RPCClient) RequestAirdrop(_ context.Context, address string, lamports uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("requestAirdrop")

	c.Balances[address] += lamports
	sig := fmt.Sprintf("airdrop-%s-%d", address, c.calls["requestAirdrop"])
	c.landed[sig] = true
	return sig, nil
}

// FirstSignature extracts the fee payer signature from a serialized
// transaction (compact-u16 count followed by 64-byte signatures).
func FirstSignature(rawTx []byte) (string, error) {
	if len(rawTx) < 65 || rawTx[0] == 0 || rawTx[0]&0x80 != 0 {
		return "", fmt.Errorf("malformed transaction: %d bytes", len(rawTx))
	}
	return base58.Encode(rawTx[1:65]), nil
}
