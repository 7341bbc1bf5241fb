package serum

import (
	"fmt"

	"marketScope/internal/model"
)

// MarketFilters returns the scan filters selecting markets quoted in quoteMint.
func MarketFilters(quoteMint string) []model.AccountFilter {
	return []model.AccountFilter{{Offset: QuoteMintOffset, Bytes: quoteMint}}
}

// DecodeMarket decodes a market account. Decimals are left zero; callers
// patch them from token metadata.
func DecodeMarket(data []byte) (model.Venue, error) {
	if len(data) != MarketAccountSize {
		return model.Venue{}, fmt.Errorf("%w: market length %d != %d", model.ErrDecode, len(data), MarketAccountSize)
	}
	flags, buf, err := body(data, MarketAccountSize-len(headPadding)-flagsSize-len(tailPadding))
	if err != nil {
		return model.Venue{}, err
	}
	if flags&flagMarket == 0 {
		return model.Venue{}, fmt.Errorf("%w: not a market account (flags %#x)", model.ErrDecode, flags)
	}

	r := &reader{buf: buf}
	var v model.Venue
	v.Address = r.pubkey()
	r.skip(8) // vault signer nonce
	v.BaseMint = r.pubkey()
	v.QuoteMint = r.pubkey()
	v.BaseVault = r.pubkey()
	v.BaseDepositsTotal = r.u64()
	r.skip(8) // base fees accrued
	v.QuoteVault = r.pubkey()
	v.QuoteDepositsTotal = r.u64()
	v.QuoteFeesAccrued = r.u64()
	r.skip(8) // quote dust threshold
	r.skip(pubkeySize) // request queue
	v.EventQueue = r.pubkey()
	v.Bids = r.pubkey()
	v.Asks = r.pubkey()
	v.BaseLotSize = r.u64()
	v.QuoteLotSize = r.u64()
	v.FeeRateBps = r.u64()

	return v, nil
}

// Burned reports whether a decoded venue carries the empty address sentinel.
func Burned(v model.Venue) bool {
	return v.Address == ZeroAddress || v.BaseMint == ZeroAddress || v.QuoteMint == ZeroAddress ||
		v.Address == "" || v.BaseMint == "" || v.QuoteMint == ""
}
