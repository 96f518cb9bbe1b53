package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcHandler func(params []json.RawMessage) (any, *rpcError)

// newRPCServer answers JSON-RPC calls by method name.
func newRPCServer(t *testing.T, handlers map[string]rpcHandler) *JSONRPCClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		h, ok := handlers[req.Method]
		if !ok {
			t.Errorf("unexpected rpc method %s", req.Method)
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		result, rerr := h(req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": 1}
		if rerr != nil {
			resp["error"] = rerr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return NewJSONRPCClient(srv.URL)
}

func firstParam(t *testing.T, params []json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(params[0], &s))
	return s
}

func parsedTokenAccount(mint, owner, amount string) map[string]any {
	return map[string]any{
		"value": map[string]any{
			"data": map[string]any{
				"program": "spl-token",
				"parsed": map[string]any{
					"type": "account",
					"info": map[string]any{
						"mint":        mint,
						"owner":       owner,
						"tokenAmount": map[string]any{"amount": amount, "decimals": 0},
					},
				},
			},
		},
	}
}

func TestGetTokenLargestAccounts(t *testing.T) {
	c := newRPCServer(t, map[string]rpcHandler{
		"getTokenLargestAccounts": func(params []json.RawMessage) (any, *rpcError) {
			assert.Equal(t, "MintA", firstParam(t, params))
			return map[string]any{"value": []any{
				map[string]any{"address": "AcctA", "amount": "1", "decimals": 0},
				map[string]any{"address": "AcctB", "amount": "0", "decimals": 0},
			}}, nil
		},
	})

	got, err := c.GetTokenLargestAccounts(context.Background(), "MintA")
	require.NoError(t, err)
	assert.Equal(t, []LargestAccount{{Address: "AcctA", Amount: 1}, {Address: "AcctB", Amount: 0}}, got)
}

func TestGetTokenAccount(t *testing.T) {
	c := newRPCServer(t, map[string]rpcHandler{
		"getAccountInfo": func(params []json.RawMessage) (any, *rpcError) {
			if firstParam(t, params) == "Missing" {
				return map[string]any{"value": nil}, nil
			}
			return parsedTokenAccount("MintA", "Alice", "1"), nil
		},
	})

	acct, err := c.GetTokenAccount(context.Background(), "AcctA")
	require.NoError(t, err)
	assert.Equal(t, TokenAccount{Address: "AcctA", Mint: "MintA", Owner: "Alice", Amount: 1}, acct)

	_, err = c.GetTokenAccount(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountExists(t *testing.T) {
	c := newRPCServer(t, map[string]rpcHandler{
		"getAccountInfo": func(params []json.RawMessage) (any, *rpcError) {
			if firstParam(t, params) == "Missing" {
				return map[string]any{"value": nil}, nil
			}
			return map[string]any{"value": map[string]any{"lamports": 2039280}}, nil
		},
	})

	ok, err := c.AccountExists(context.Background(), "AcctA")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AccountExists(context.Background(), "Missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetTokenAccountBalanceNotFound(t *testing.T) {
	c := newRPCServer(t, map[string]rpcHandler{
		"getTokenAccountBalance": func(params []json.RawMessage) (any, *rpcError) {
			if firstParam(t, params) == "Missing" {
				return nil, &rpcError{Code: -32602, Message: "Invalid param: could not find account"}
			}
			return map[string]any{"value": map[string]any{"amount": "1700", "decimals": 0}}, nil
		},
	})

	n, err := c.GetTokenAccountBalance(context.Background(), "AcctA")
	require.NoError(t, err)
	assert.Equal(t, uint64(1700), n)

	_, err = c.GetTokenAccountBalance(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRPCErrorAndHTTPStatus(t *testing.T) {
	c := newRPCServer(t, map[string]rpcHandler{
		"getTokenAccountBalance": func([]json.RawMessage) (any, *rpcError) {
			return nil, &rpcError{Code: -32005, Message: "node is behind"}
		},
	})
	_, err := c.GetTokenAccountBalance(context.Background(), "AcctA")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccountNotFound)
	assert.Contains(t, err.Error(), "node is behind")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	_, err = NewJSONRPCClient(srv.URL).GetTokenAccountBalance(context.Background(), "AcctA")
	assert.ErrorContains(t, err, "http status=429")
}
