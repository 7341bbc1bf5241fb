package serum

import (
	"fmt"
	"sort"

	"marketScope/internal/model"
)

const (
	nodeLeaf uint32 = 2
)

// DecodeOrderBook decodes a bids or asks slab. Lot sizes and decimals are
// copied from the owning venue so the book can be read on its own.
func DecodeOrderBook(data []byte, v model.Venue, side model.Side) (model.OrderBook, error) {
	flags, buf, err := body(data, slabHeaderSize)
	if err != nil {
		return model.OrderBook{}, err
	}
	want := flagBids
	if side == model.SideAsk {
		want = flagAsks
	}
	if flags&want == 0 {
		return model.OrderBook{}, fmt.Errorf("%w: slab is not %s side (flags %#x)", model.ErrDecode, side, flags)
	}

	hdr := &reader{buf: buf}
	bumpIndex := hdr.u64()
	capacity := uint64((len(buf) - slabHeaderSize) / slabNodeSize)
	if bumpIndex > capacity {
		return model.OrderBook{}, fmt.Errorf("%w: slab bump index %d exceeds capacity %d", model.ErrDecode, bumpIndex, capacity)
	}

	book := model.OrderBook{
		Venue:         v.Address,
		Side:          side,
		BaseDecimals:  v.BaseDecimals,
		QuoteDecimals: v.QuoteDecimals,
		BaseLotSize:   v.BaseLotSize,
		QuoteLotSize:  v.QuoteLotSize,
	}

	for i := uint64(0); i < bumpIndex; i++ {
		start := slabHeaderSize + int(i)*slabNodeSize
		r := &reader{buf: buf[start : start+slabNodeSize]}
		if r.u32() != nodeLeaf {
			continue
		}
		var o model.Order
		o.OwnerSlot = r.u8()
		o.FeeTier = r.u8()
		r.skip(2)
		_, o.PriceLots = r.u128()
		o.OpenOrders = r.pubkey()
		o.QuantityLots = r.u64()
		o.ClientOrderID = r.u64()
		book.Orders = append(book.Orders, o)
	}

	sort.SliceStable(book.Orders, func(i, j int) bool {
		if side == model.SideBid {
			return book.Orders[i].PriceLots > book.Orders[j].PriceLots
		}
		return book.Orders[i].PriceLots < book.Orders[j].PriceLots
	})
	book.Levels = aggregateLevels(book.Orders, v)

	return book, nil
}

func aggregateLevels(orders []model.Order, v model.Venue) []model.Level {
	levels := make([]model.Level, 0)
	var lastPrice uint64
	var lots uint64
	var count int
	flush := func() {
		if count == 0 {
			return
		}
		levels = append(levels, model.Level{
			Price:  PriceFromLots(lastPrice, v),
			Size:   SizeFromLots(lots, v),
			Orders: count,
		})
	}
	for _, o := range orders {
		if count > 0 && o.PriceLots != lastPrice {
			flush()
			lots, count = 0, 0
		}
		lastPrice = o.PriceLots
		lots += o.QuantityLots
		count++
	}
	flush()
	return levels
}
