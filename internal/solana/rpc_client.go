package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"solana-taxed-token/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	commitment  Commitment
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for read calls.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithCommitment sets the commitment used for reads and preflight.
func WithCommitment(commitment Commitment) ClientOption {
	return func(c *HTTPClient) {
		c.commitment = commitment
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		commitment:  CommitmentConfirmed,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ RPCClient = (*HTTPClient)(nil)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error returned by the ledger. Program failures
// surface here verbatim, including simulation logs when present.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	msg := fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
	if logs := e.Logs(); len(logs) > 0 {
		msg += "\n" + strings.Join(logs, "\n")
	}
	return msg
}

// Logs returns program logs attached to a failed preflight simulation.
func (e *RPCError) Logs() []string {
	if len(e.Data) == 0 {
		return nil
	}
	var data struct {
		Logs []string `json:"logs"`
	}
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil
	}
	return data.Logs
}

// retryableError marks a transport failure that may succeed on retry.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// call performs a read-only JSON-RPC call with exponential backoff.
// RPC errors are returned immediately.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := c.encode(method, params)
	if err != nil {
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.MaxInterval = c.maxDelay
	b.Multiplier = c.backoffMult
	b.MaxElapsedTime = 0

	var policy backoff.BackOff = backoff.WithContext(b, ctx)
	if c.maxRetries >= 0 {
		policy = backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
	}

	err = backoff.Retry(func() error {
		err := c.do(ctx, method, body, result)
		var retryable *retryableError
		if err != nil && !errors.As(err, &retryable) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if err != nil {
		var retryable *retryableError
		if errors.As(err, &retryable) {
			return fmt.Errorf("max retries exceeded: %w", retryable.err)
		}
		return err
	}
	return nil
}

// callOnce performs a JSON-RPC call without retries.
func (c *HTTPClient) callOnce(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := c.encode(method, params)
	if err != nil {
		return err
	}
	err = c.do(ctx, method, body, result)
	var retryable *retryableError
	if errors.As(err, &retryable) {
		return retryable.err
	}
	return err
}

func (c *HTTPClient) encode(method string, params []interface{}) ([]byte, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return body, nil
}

// do performs a single HTTP round-trip.
func (c *HTTPClient) do(ctx context.Context, method string, body []byte, result interface{}) error {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &retryableError{fmt.Errorf("http request: %w", err)}
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return &retryableError{fmt.Errorf("read response: %w", err)}
	}

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		return &retryableError{fmt.Errorf("rate limited (429)")}
	}

	if resp.StatusCode != http.StatusOK {
		return &retryableError{fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return &retryableError{fmt.Errorf("unmarshal response: %w", err)}
	}

	if rpcResp.Error != nil {
		observability.RecordRPCError(method)
		return rpcResp.Error
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return nil
}

func (c *HTTPClient) commitmentConfig() map[string]interface{} {
	return map[string]interface{}{"commitment": string(c.commitment)}
}

// GetBalance returns the lamport balance of an account.
func (c *HTTPClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []interface{}{address, c.commitmentConfig()}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for dataLen bytes.
func (c *HTTPClient) GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error) {
	var result uint64
	if err := c.call(ctx, "getMinimumBalanceForRentExemption", []interface{}{dataLen, c.commitmentConfig()}, &result); err != nil {
		return 0, err
	}
	return result, nil
}

// GetLatestBlockhash returns a recent blockhash.
func (c *HTTPClient) GetLatestBlockhash(ctx context.Context) (*Blockhash, error) {
	var result struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", []interface{}{c.commitmentConfig()}, &result); err != nil {
		return nil, err
	}
	if result.Value.Blockhash == "" {
		return nil, fmt.Errorf("empty blockhash in response")
	}
	return &Blockhash{
		Blockhash:            result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// SendTransaction submits a serialized transaction with preflight checks.
// Submission is not retried: a duplicate send of a landed transaction is
// indistinguishable from a new failure.
func (c *HTTPClient) SendTransaction(ctx context.Context, rawTx []byte) (string, error) {
	params := []interface{}{
		base64.StdEncoding.EncodeToString(rawTx),
		map[string]interface{}{
			"encoding":            "base64",
			"skipPreflight":       false,
			"preflightCommitment": string(c.commitment),
		},
	}

	var signature string
	if err := c.callOnce(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// GetSignatureStatuses returns statuses aligned with signatures.
func (c *HTTPClient) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	params := []interface{}{
		signatures,
		map[string]interface{}{"searchTransactionHistory": false},
	}

	var result struct {
		Value []*getSignatureStatusResult `json:"value"`
	}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(result.Value))
	for i, r := range result.Value {
		if r == nil {
			continue
		}
		statuses[i] = &SignatureStatus{
			Slot:               r.Slot,
			Confirmations:      r.Confirmations,
			Err:                r.Err,
			ConfirmationStatus: Commitment(r.ConfirmationStatus),
		}
	}
	return statuses, nil
}

type getSignatureStatusResult struct {
	Slot               int64       `json:"slot"`
	Confirmations      *int64      `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// GetAccountInfo returns account state, or nil if the account does not exist.
func (c *HTTPClient) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	params := []interface{}{
		address,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": string(c.commitment),
		},
	}

	var result struct {
		Value *getAccountInfoValue `json:"value"`
	}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}

	if result.Value == nil {
		// Account not found
		return nil, nil
	}

	info := &AccountInfo{
		Lamports:   result.Value.Lamports,
		Owner:      result.Value.Owner,
		Executable: result.Value.Executable,
	}
	if len(result.Value.Data) > 0 && result.Value.Data[0] != "" {
		data, err := base64.StdEncoding.DecodeString(result.Value.Data[0])
		if err != nil {
			return nil, fmt.Errorf("decode account data: %w", err)
		}
		info.Data = data
	}
	return info, nil
}

// getAccountInfoValue is the raw RPC value for getAccountInfo.
type getAccountInfoValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [payload, encoding]
	Executable bool     `json:"executable"`
}

// GetTokenAccountBalance returns the balance of a token account.
func (c *HTTPClient) GetTokenAccountBalance(ctx context.Context, address string) (*TokenAmount, error) {
	var result struct {
		Value struct {
			Amount         string `json:"amount"`
			Decimals       uint8  `json:"decimals"`
			UIAmountString string `json:"uiAmountString"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountBalance", []interface{}{address, c.commitmentConfig()}, &result); err != nil {
		return nil, err
	}
	return &TokenAmount{
		Amount:         result.Value.Amount,
		Decimals:       result.Value.Decimals,
		UIAmountString: result.Value.UIAmountString,
	}, nil
}

// RequestAirdrop requests lamports on a faucet-enabled cluster.
func (c *HTTPClient) RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error) {
	var signature string
	if err := c.callOnce(ctx, "requestAirdrop", []interface{}{address, lamports, c.commitmentConfig()}, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// ParseAmount parses a base-unit amount string as returned by token RPCs.
func ParseAmount(amount string) (uint64, error) {
	v, err := strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token amount %q: %w", amount, err)
	}
	return v, nil
}
