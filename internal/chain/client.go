package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"marketScope/internal/model"
)

// Commitment is a ledger confirmation level.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// AccountOptions controls getAccountInfo.
type AccountOptions struct {
	MinSlot    uint64
	Commitment Commitment
}

// Client talks JSON-RPC 2.0 to a Solana node. Every call is bounded by the
// configured call timeout; a timeout is reported like any other remote error.
type Client struct {
	rpcClient   *rpc.Client
	callTimeout time.Duration
}

// NewClient dials the RPC URL.
func NewClient(ctx context.Context, rpcURL string, callTimeout time.Duration) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{rpcClient: rpcClient, callTimeout: callTimeout}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}
	if err := c.rpcClient.CallContext(ctx, result, method, args...); err != nil {
		return fmt.Errorf("%s: %w: %w", method, model.ErrRemote, err)
	}
	return nil
}

type encodedData []string

func (d encodedData) decode() ([]byte, error) {
	if len(d) == 0 {
		return nil, nil
	}
	if len(d) > 1 && d[1] != "base64" {
		return nil, fmt.Errorf("%w: unexpected account encoding %q", model.ErrDecode, d[1])
	}
	data, err := base64.StdEncoding.DecodeString(d[0])
	if err != nil {
		return nil, fmt.Errorf("%w: account data: %w", model.ErrDecode, err)
	}
	return data, nil
}

type accountValue struct {
	Data     encodedData `json:"data"`
	Owner    string      `json:"owner"`
	Lamports uint64      `json:"lamports"`
}

type filterJSON struct {
	DataSize uint64      `json:"dataSize,omitempty"`
	Memcmp   *memcmpJSON `json:"memcmp,omitempty"`
}

type memcmpJSON struct {
	Offset uint64 `json:"offset"`
	Bytes  string `json:"bytes"`
}

// ScanAccounts returns every account owned by programID matching the memcmp
// filters and, when non-zero, the exact record size.
func (c *Client) ScanAccounts(ctx context.Context, programID string, filters []model.AccountFilter, recordSize uint64) ([]model.RawAccount, error) {
	jsonFilters := make([]filterJSON, 0, len(filters)+1)
	if recordSize > 0 {
		jsonFilters = append(jsonFilters, filterJSON{DataSize: recordSize})
	}
	for _, f := range filters {
		jsonFilters = append(jsonFilters, filterJSON{Memcmp: &memcmpJSON{Offset: f.Offset, Bytes: f.Bytes}})
	}

	var result []struct {
		Pubkey  string       `json:"pubkey"`
		Account accountValue `json:"account"`
	}
	err := c.call(ctx, &result, "getProgramAccounts", programID, map[string]interface{}{
		"encoding":   "base64",
		"commitment": CommitmentConfirmed,
		"filters":    jsonFilters,
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]model.RawAccount, 0, len(result))
	for _, item := range result {
		data, err := item.Account.Data.decode()
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", item.Pubkey, err)
		}
		accounts = append(accounts, model.RawAccount{Pubkey: item.Pubkey, Data: data})
	}
	return accounts, nil
}

// GetAccount returns the account data and the slot it was observed at. The
// node refuses to answer from a slot below opts.MinSlot.
func (c *Client) GetAccount(ctx context.Context, address string, opts AccountOptions) (uint64, []byte, error) {
	cfg := map[string]interface{}{"encoding": "base64"}
	if opts.Commitment != "" {
		cfg["commitment"] = opts.Commitment
	}
	if opts.MinSlot > 0 {
		cfg["minContextSlot"] = opts.MinSlot
	}

	var result struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value *accountValue `json:"value"`
	}
	if err := c.call(ctx, &result, "getAccountInfo", address, cfg); err != nil {
		return 0, nil, err
	}
	if result.Value == nil {
		return result.Context.Slot, nil, fmt.Errorf("account %s: %w", address, model.ErrNotFound)
	}
	data, err := result.Value.Data.decode()
	if err != nil {
		return 0, nil, fmt.Errorf("account %s: %w", address, err)
	}
	return result.Context.Slot, data, nil
}

// GetRecentSignatures returns up to limit signatures involving address, newest first.
func (c *Client) GetRecentSignatures(ctx context.Context, address string, limit int, commitment Commitment) ([]string, error) {
	var result []struct {
		Signature string      `json:"signature"`
		Slot      uint64      `json:"slot"`
		Err       interface{} `json:"err"`
	}
	err := c.call(ctx, &result, "getSignaturesForAddress", address, map[string]interface{}{
		"limit":      limit,
		"commitment": commitment,
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(result))
	for _, item := range result {
		out = append(out, item.Signature)
	}
	return out, nil
}

// GetTransaction returns the transaction, or nil when the node has none.
func (c *Client) GetTransaction(ctx context.Context, signature string, commitment Commitment) (*model.Transaction, error) {
	var result *struct {
		Slot        uint64 `json:"slot"`
		Transaction *struct {
			Message *struct {
				AccountKeys  []string `json:"accountKeys"`
				Instructions []struct {
					ProgramIDIndex int    `json:"programIdIndex"`
					Accounts       []int  `json:"accounts"`
					Data           string `json:"data"`
				} `json:"instructions"`
			} `json:"message"`
		} `json:"transaction"`
		Meta *struct {
			LoadedAddresses *struct {
				Writable []string `json:"writable"`
				Readonly []string `json:"readonly"`
			} `json:"loadedAddresses"`
		} `json:"meta"`
	}
	err := c.call(ctx, &result, "getTransaction", signature, map[string]interface{}{
		"encoding":                       "json",
		"commitment":                     commitment,
		"maxSupportedTransactionVersion": 0,
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	tx := &model.Transaction{Signature: signature, Slot: result.Slot}
	if result.Transaction == nil || result.Transaction.Message == nil {
		return tx, nil
	}
	// v0 transactions index past the static keys into the lookup-table
	// addresses, writable first.
	keys := result.Transaction.Message.AccountKeys
	if result.Meta != nil && result.Meta.LoadedAddresses != nil {
		loaded := result.Meta.LoadedAddresses
		keys = append(append(keys[:len(keys):len(keys)], loaded.Writable...), loaded.Readonly...)
	}
	msg := &model.Message{AccountKeys: keys}
	for _, ix := range result.Transaction.Message.Instructions {
		msg.Instructions = append(msg.Instructions, model.Instruction{
			ProgramIDIndex: ix.ProgramIDIndex,
			Accounts:       ix.Accounts,
			Data:           ix.Data,
		})
	}
	tx.Message = msg
	return tx, nil
}
