package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketScope/internal/chain"
	"marketScope/internal/model"
	"marketScope/internal/price"
	"marketScope/internal/tokens"
)

type venueMap map[string]model.Venue

func (m venueMap) Venue(address string) (model.Venue, bool) {
	v, ok := m[address]
	return v, ok
}

type account struct {
	slot uint64
	data []byte
}

type fakeSource struct {
	mu       sync.Mutex
	accounts map[string]account
	minSlots map[string][]uint64
	calls    atomic.Int64
}

func (f *fakeSource) GetAccount(_ context.Context, address string, opts chain.AccountOptions) (uint64, []byte, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.minSlots == nil {
		f.minSlots = make(map[string][]uint64)
	}
	f.minSlots[address] = append(f.minSlots[address], opts.MinSlot)
	acc, ok := f.accounts[address]
	if !ok {
		return 0, nil, fmt.Errorf("%s: %w", address, model.ErrNotFound)
	}
	return acc.slot, acc.data, nil
}

func levels(prices ...string) []byte {
	book := model.OrderBook{}
	for _, p := range prices {
		book.Levels = append(book.Levels, model.Level{Price: decimal.RequireFromString(p), Size: decimal.NewFromInt(1), Orders: 1})
	}
	raw, _ := json.Marshal(book)
	return raw
}

func decodeJSONBook(data []byte, v model.Venue, side model.Side) (model.OrderBook, error) {
	var book model.OrderBook
	if err := json.Unmarshal(data, &book); err != nil {
		return book, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	book.Venue = v.Address
	book.Side = side
	return book, nil
}

func decodeJSONEvents(data []byte, v model.Venue) (model.EventQueue, error) {
	var q model.EventQueue
	if err := json.Unmarshal(data, &q); err != nil {
		return q, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	q.Venue = v.Address
	return q, nil
}

func newTestService(t *testing.T, venues venueMap, src *fakeSource, prices PriceSink) *Service {
	t.Helper()
	return NewService(Config{
		BookTTL:      time.Hour,
		EventTTL:     time.Hour,
		Commitment:   chain.CommitmentConfirmed,
		DecodeBook:   decodeJSONBook,
		DecodeEvents: decodeJSONEvents,
	}, venues, src, prices, nil)
}

func TestOrderBookFeedsOracle(t *testing.T) {
	venues := venueMap{
		"solusdc": {Address: "solusdc", BaseMint: tokens.WrappedSOL, QuoteMint: tokens.USDC, Bids: "b1", Asks: "a1", EventQueue: "e1"},
	}
	src := &fakeSource{accounts: map[string]account{
		"b1": {slot: 10, data: levels("99", "98")},
		"a1": {slot: 11, data: levels("101", "102")},
	}}
	oracle := price.NewOracle(price.DefaultPegged)
	svc := newTestService(t, venues, src, oracle)

	book, ok := svc.OrderBook(context.Background(), "solusdc")
	require.True(t, ok)
	assert.Equal(t, uint64(10), book.BidSlot)
	assert.Equal(t, uint64(11), book.AskSlot)
	assert.Equal(t, model.SideAsk, book.Asks.Side)

	mid, ok := book.Mid()
	require.True(t, ok)
	assert.Equal(t, "100", mid.String())
	assert.Equal(t, "100", oracle.ReferencePrice(tokens.WrappedSOL).String())

	// fresh snapshots are served without remote calls
	calls := src.calls.Load()
	_, ok = svc.OrderBook(context.Background(), "solusdc")
	require.True(t, ok)
	assert.Equal(t, calls, src.calls.Load())
}

func TestOrderBookUnpeggedQuoteDoesNotObserve(t *testing.T) {
	venues := venueMap{
		"raysol": {Address: "raysol", BaseMint: tokens.RAY, QuoteMint: tokens.WrappedSOL, Bids: "b1", Asks: "a1"},
	}
	src := &fakeSource{accounts: map[string]account{
		"b1": {slot: 1, data: levels("0.01")},
		"a1": {slot: 1, data: levels("0.03")},
	}}
	oracle := price.NewOracle(price.DefaultPegged)
	svc := newTestService(t, venues, src, oracle)

	_, ok := svc.OrderBook(context.Background(), "raysol")
	require.True(t, ok)
	assert.True(t, oracle.ReferencePrice(tokens.RAY).IsZero())
}

func TestOrderBookMissing(t *testing.T) {
	venues := venueMap{
		"v": {Address: "v", Bids: "b1", Asks: "a1"},
	}
	src := &fakeSource{accounts: map[string]account{
		"b1": {slot: 1, data: levels("1")},
	}}
	svc := newTestService(t, venues, src, nil)

	_, ok := svc.OrderBook(context.Background(), "v")
	assert.False(t, ok)
	_, ok = svc.OrderBook(context.Background(), "unknown")
	assert.False(t, ok)

	_, ok = svc.Bids(context.Background(), "v")
	assert.True(t, ok)
}

func TestFillsAndWarm(t *testing.T) {
	q := model.EventQueue{SeqNum: 7, Fills: []model.Fill{{Side: model.SideBid, Maker: true, Price: decimal.NewFromInt(5), Quantity: decimal.NewFromInt(2)}}}
	raw, err := json.Marshal(q)
	require.NoError(t, err)

	venues := venueMap{
		"v1": {Address: "v1", Bids: "b1", Asks: "a1", EventQueue: "e1"},
		"v2": {Address: "v2", Bids: "b2", Asks: "a2", EventQueue: "e2"},
	}
	src := &fakeSource{accounts: map[string]account{
		"b1": {slot: 3, data: levels("1")},
		"a1": {slot: 3, data: levels("2")},
		"e1": {slot: 4, data: raw},
	}}
	svc := newTestService(t, venues, src, nil)

	assert.Equal(t, 1, svc.Warm(context.Background(), []string{"v1", "v2"}))

	snap, ok := svc.Fills(context.Background(), "v1")
	require.True(t, ok)
	assert.Equal(t, uint64(4), snap.Slot)
	assert.Equal(t, uint64(7), snap.Payload.SeqNum)
	require.Len(t, snap.Payload.Fills, 1)
	assert.Equal(t, "v1", snap.Payload.Venue)

	bids, asks, events := svc.Stats()
	assert.Equal(t, 1, bids)
	assert.Equal(t, 1, asks)
	assert.Equal(t, 1, events)

	src.mu.Lock()
	assert.Equal(t, []uint64{0}, src.minSlots["b1"])
	src.mu.Unlock()
}
