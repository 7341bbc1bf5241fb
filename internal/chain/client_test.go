package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketScope/internal/model"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestServer(t *testing.T, handle func(req rpcRequest) interface{}) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req),
		})
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), srv.URL, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestGetAccount(t *testing.T) {
	payload := []byte("serum-bytes")
	var gotCfg map[string]interface{}
	client := newTestServer(t, func(req rpcRequest) interface{} {
		assert.Equal(t, "getAccountInfo", req.Method)
		assert.Len(t, req.Params, 2)
		assert.NoError(t, json.Unmarshal(req.Params[1], &gotCfg))
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1234},
			"value": map[string]interface{}{
				"data":     []string{base64.StdEncoding.EncodeToString(payload), "base64"},
				"owner":    "prog",
				"lamports": 1,
			},
		}
	})

	slot, data, err := client.GetAccount(context.Background(), "addr", AccountOptions{MinSlot: 1200, Commitment: CommitmentConfirmed})
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), slot)
	assert.Equal(t, payload, data)
	assert.Equal(t, float64(1200), gotCfg["minContextSlot"])
	assert.Equal(t, "base64", gotCfg["encoding"])
}

func TestGetAccountMissing(t *testing.T) {
	client := newTestServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 5},
			"value":   nil,
		}
	})

	_, _, err := client.GetAccount(context.Background(), "addr", AccountOptions{})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestScanAccounts(t *testing.T) {
	var filters []map[string]interface{}
	client := newTestServer(t, func(req rpcRequest) interface{} {
		assert.Equal(t, "getProgramAccounts", req.Method)
		var cfg struct {
			Filters []map[string]interface{} `json:"filters"`
		}
		assert.NoError(t, json.Unmarshal(req.Params[1], &cfg))
		filters = cfg.Filters
		return []map[string]interface{}{
			{"pubkey": "m1", "account": map[string]interface{}{"data": []string{base64.StdEncoding.EncodeToString([]byte{1, 2}), "base64"}}},
			{"pubkey": "m2", "account": map[string]interface{}{"data": []string{base64.StdEncoding.EncodeToString([]byte{3}), "base64"}}},
		}
	})

	accounts, err := client.ScanAccounts(context.Background(), "prog", []model.AccountFilter{{Offset: 85, Bytes: "quote"}}, 388)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "m1", accounts[0].Pubkey)
	assert.Equal(t, []byte{1, 2}, accounts[0].Data)

	require.Len(t, filters, 2)
	assert.Equal(t, float64(388), filters[0]["dataSize"])
	assert.Equal(t, map[string]interface{}{"offset": float64(85), "bytes": "quote"}, filters[1]["memcmp"])
}

func TestGetTransaction(t *testing.T) {
	client := newTestServer(t, func(req rpcRequest) interface{} {
		switch req.Method {
		case "getSignaturesForAddress":
			return []map[string]interface{}{{"signature": "sig1", "slot": 9}, {"signature": "sig2", "slot": 8}}
		case "getTransaction":
			var sig string
			assert.NoError(t, json.Unmarshal(req.Params[0], &sig))
			if sig == "sig2" {
				return nil
			}
			return map[string]interface{}{
				"slot": 9,
				"transaction": map[string]interface{}{
					"message": map[string]interface{}{
						"accountKeys":  []string{"a", "b", "prog"},
						"instructions": []map[string]interface{}{{"programIdIndex": 2, "accounts": []int{0, 1}, "data": "x"}},
					},
				},
			}
		}
		return nil
	})

	sigs, err := client.GetRecentSignatures(context.Background(), "owner", 10, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, []string{"sig1", "sig2"}, sigs)

	tx, err := client.GetTransaction(context.Background(), "sig1", CommitmentConfirmed)
	require.NoError(t, err)
	require.NotNil(t, tx.Message)
	assert.Equal(t, "prog", tx.Message.ProgramID(tx.Message.Instructions[0]))
	assert.Equal(t, []string{"a", "b"}, tx.Message.InstructionAccounts(tx.Message.Instructions[0]))

	tx, err = client.GetTransaction(context.Background(), "sig2", CommitmentConfirmed)
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestGetTransactionLoadedAddresses(t *testing.T) {
	client := newTestServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"slot": 9,
			"transaction": map[string]interface{}{
				"message": map[string]interface{}{
					"accountKeys":  []string{"payer", "prog"},
					"instructions": []map[string]interface{}{{"programIdIndex": 1, "accounts": []int{0, 2, 4, 3}, "data": "x"}},
				},
			},
			"meta": map[string]interface{}{
				"loadedAddresses": map[string]interface{}{
					"writable": []string{"w1", "w2"},
					"readonly": []string{"r1"},
				},
			},
		}
	})

	tx, err := client.GetTransaction(context.Background(), "sig1", CommitmentConfirmed)
	require.NoError(t, err)
	require.NotNil(t, tx.Message)
	assert.Equal(t, []string{"payer", "prog", "w1", "w2", "r1"}, tx.Message.AccountKeys)
	assert.Equal(t, []string{"payer", "w1", "r1", "w2"}, tx.Message.InstructionAccounts(tx.Message.Instructions[0]))
}

func TestRemoteErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetRecentSignatures(context.Background(), "owner", 1, CommitmentConfirmed)
	assert.True(t, errors.Is(err, model.ErrRemote))
}

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{" 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", "", "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"}, got)

	_, err = ParseAddresses([]string{"not-base58-0OIl"})
	assert.Error(t, err)
}
