// internal/infra/solana/rpc_client.go
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Solana Devnet RPC endpoint (default)
const DevnetEndpoint = "https://api.devnet.solana.com"

// ErrAccountNotFound is returned when the RPC node has no account at the address.
var ErrAccountNotFound = errors.New("solana rpc: account not found")

// JSONRPCClient is a simple HTTP JSON-RPC client for the read side.
// Transactions are sent through blocto's client.Client.
type JSONRPCClient struct {
	Endpoint   string
	Commitment string
	HTTP       *http.Client
}

// NewJSONRPCClient creates a Solana JSON-RPC client. Empty endpoint means devnet.
func NewJSONRPCClient(endpoint string) *JSONRPCClient {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = DevnetEndpoint
	}
	return &JSONRPCClient{
		Endpoint:   ep,
		Commitment: "confirmed",
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (c *JSONRPCClient) call(ctx context.Context, method string, params any, out any) error {
	if c == nil || c.Endpoint == "" || c.HTTP == nil {
		return fmt.Errorf("solana rpc: client not configured")
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("solana rpc: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("solana rpc: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("solana rpc: http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("solana rpc: %s http status=%d", method, resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("solana rpc: decode response: %w", err)
	}
	if rr.Error != nil {
		msg := strings.ToLower(rr.Error.Message)
		if strings.Contains(msg, "could not find account") || strings.Contains(msg, "account does not exist") {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, rr.Error.Message)
		}
		return fmt.Errorf("solana rpc: %s error code=%d message=%s", method, rr.Error.Code, rr.Error.Message)
	}

	if out != nil {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return fmt.Errorf("solana rpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *JSONRPCClient) commitment() map[string]any {
	cm := c.Commitment
	if cm == "" {
		cm = "confirmed"
	}
	return map[string]any{"commitment": cm}
}

// ------------------------------------------------------------
// result shapes
// ------------------------------------------------------------

type uiTokenAmount struct {
	Amount   string `json:"amount"` // string integer
	Decimals int    `json:"decimals"`
}

func (a uiTokenAmount) value() (uint64, error) {
	s := strings.TrimSpace(a.Amount)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("solana rpc: bad token amount %q: %w", a.Amount, err)
	}
	return n, nil
}

// TokenAccount is the parsed view of an SPL token account.
type TokenAccount struct {
	Address string
	Mint    string
	Owner   string
	Amount  uint64
}

// LargestAccount is one entry of getTokenLargestAccounts.
type LargestAccount struct {
	Address string
	Amount  uint64
}

// GetTokenLargestAccounts returns the token accounts holding the most of mint.
// An NFT has exactly one account with amount 1.
func (c *JSONRPCClient) GetTokenLargestAccounts(ctx context.Context, mint string) ([]LargestAccount, error) {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return nil, fmt.Errorf("solana rpc: mint is empty")
	}

	var res struct {
		Value []struct {
			Address string `json:"address"`
			uiTokenAmount
		} `json:"value"`
	}
	if err := c.call(ctx, "getTokenLargestAccounts", []any{mint, c.commitment()}, &res); err != nil {
		return nil, err
	}

	out := make([]LargestAccount, 0, len(res.Value))
	for _, v := range res.Value {
		n, err := v.value()
		if err != nil {
			return nil, err
		}
		out = append(out, LargestAccount{Address: v.Address, Amount: n})
	}
	return out, nil
}

// GetTokenAccount reads a token account with jsonParsed encoding.
func (c *JSONRPCClient) GetTokenAccount(ctx context.Context, address string) (TokenAccount, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return TokenAccount{}, fmt.Errorf("solana rpc: address is empty")
	}

	cfg := c.commitment()
	cfg["encoding"] = "jsonParsed"

	var res struct {
		Value *struct {
			Data struct {
				Program string `json:"program"`
				Parsed  struct {
					Info struct {
						Mint        string        `json:"mint"`
						Owner       string        `json:"owner"`
						TokenAmount uiTokenAmount `json:"tokenAmount"`
					} `json:"info"`
					Type string `json:"type"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getAccountInfo", []any{address, cfg}, &res); err != nil {
		return TokenAccount{}, err
	}
	if res.Value == nil {
		return TokenAccount{}, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if res.Value.Data.Parsed.Type != "account" {
		return TokenAccount{}, fmt.Errorf("solana rpc: %s is not a token account (program=%q type=%q)",
			address, res.Value.Data.Program, res.Value.Data.Parsed.Type)
	}

	info := res.Value.Data.Parsed.Info
	n, err := info.TokenAmount.value()
	if err != nil {
		return TokenAccount{}, err
	}
	return TokenAccount{Address: address, Mint: info.Mint, Owner: info.Owner, Amount: n}, nil
}

// AccountExists reports whether any account lives at address.
func (c *JSONRPCClient) AccountExists(ctx context.Context, address string) (bool, error) {
	cfg := c.commitment()
	cfg["encoding"] = "base64"

	var res struct {
		Value json.RawMessage `json:"value"`
	}
	err := c.call(ctx, "getAccountInfo", []any{strings.TrimSpace(address), cfg}, &res)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	v := bytes.TrimSpace(res.Value)
	return len(v) > 0 && !bytes.Equal(v, []byte("null")), nil
}

// GetTokenAccountBalance returns the raw amount held by a token account.
// A missing account yields ErrAccountNotFound.
func (c *JSONRPCClient) GetTokenAccountBalance(ctx context.Context, address string) (uint64, error) {
	var res struct {
		Value uiTokenAmount `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountBalance", []any{strings.TrimSpace(address), c.commitment()}, &res); err != nil {
		return 0, err
	}
	return res.Value.value()
}
