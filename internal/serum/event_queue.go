package serum

import (
	"fmt"

	"github.com/shopspring/decimal"

	"marketScope/internal/model"
)

// Event flag bits.
const (
	eventFill  uint8 = 1 << 0
	eventOut   uint8 = 1 << 1
	eventBid   uint8 = 1 << 2
	eventMaker uint8 = 1 << 3
)

// DecodeEventQueue decodes the fill events of a venue's event queue ring
// buffer, oldest first. Out events are skipped.
func DecodeEventQueue(data []byte, v model.Venue) (model.EventQueue, error) {
	flags, buf, err := body(data, eventHeaderSize)
	if err != nil {
		return model.EventQueue{}, err
	}
	if flags&flagEventQueue == 0 {
		return model.EventQueue{}, fmt.Errorf("%w: not an event queue (flags %#x)", model.ErrDecode, flags)
	}

	hdr := &reader{buf: buf}
	head := hdr.u64()
	count := hdr.u64()
	seqNum := hdr.u64()

	capacity := uint64((len(buf) - eventHeaderSize) / eventSize)
	if capacity == 0 || count > capacity || head >= capacity {
		return model.EventQueue{}, fmt.Errorf("%w: event queue head %d count %d capacity %d", model.ErrDecode, head, count, capacity)
	}

	q := model.EventQueue{Venue: v.Address, SeqNum: seqNum}
	for i := uint64(0); i < count; i++ {
		slot := (head + i) % capacity
		start := eventHeaderSize + int(slot)*eventSize
		fill, ok := decodeFill(&reader{buf: buf[start : start+eventSize]}, v)
		if !ok {
			continue
		}
		q.Fills = append(q.Fills, fill)
	}
	return q, nil
}

func decodeFill(r *reader, v model.Venue) (model.Fill, bool) {
	flags := r.u8()
	if flags&eventFill == 0 || flags&eventOut != 0 {
		return model.Fill{}, false
	}
	f := model.Fill{
		Maker:     flags&eventMaker != 0,
		OwnerSlot: r.u8(),
		FeeTier:   r.u8(),
	}
	r.skip(5)
	released := native(r.u64())
	paid := native(r.u64())
	fee := native(r.u64())
	f.OrderID = u128String(r.u128())
	f.OpenOrders = r.pubkey()
	f.ClientOrderID = r.u64()

	baseMult := pow10(v.BaseDecimals)
	quoteMult := pow10(v.QuoteDecimals)

	var priceBeforeFees, baseNative decimal.Decimal
	if flags&eventBid != 0 {
		f.Side = model.SideBid
		if f.Maker {
			priceBeforeFees = paid.Add(fee)
		} else {
			priceBeforeFees = paid.Sub(fee)
		}
		baseNative = released
	} else {
		f.Side = model.SideAsk
		if f.Maker {
			priceBeforeFees = released.Sub(fee)
		} else {
			priceBeforeFees = released.Add(fee)
		}
		baseNative = paid
	}

	f.Quantity = baseNative.Div(baseMult)
	if !baseNative.IsZero() {
		f.Price = priceBeforeFees.Mul(baseMult).Div(quoteMult.Mul(baseNative))
	}
	return f, true
}
