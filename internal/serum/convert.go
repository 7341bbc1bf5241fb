package serum

import (
	"github.com/shopspring/decimal"

	"marketScope/internal/model"
)

func pow10(exp uint8) decimal.Decimal {
	return decimal.New(1, int32(exp))
}

// PriceFromLots converts a lot-denominated price into quote units per base unit.
func PriceFromLots(lots uint64, v model.Venue) decimal.Decimal {
	if v.BaseLotSize == 0 {
		return decimal.Zero
	}
	num := native(lots).
		Mul(native(v.QuoteLotSize)).
		Mul(pow10(v.BaseDecimals))
	den := native(v.BaseLotSize).Mul(pow10(v.QuoteDecimals))
	return num.Div(den)
}

// SizeFromLots converts base lots into base units.
func SizeFromLots(lots uint64, v model.Venue) decimal.Decimal {
	return native(lots).
		Mul(native(v.BaseLotSize)).
		Div(pow10(v.BaseDecimals))
}

func native(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(bigU64(n), 0)
}
