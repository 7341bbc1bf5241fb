package model

import "github.com/shopspring/decimal"

// Side is an order-book side.
type Side uint8

const (
	SideBid Side = iota
	SideAsk
)

func (s Side) String() string {
	if s == SideAsk {
		return "ask"
	}
	return "bid"
}

// Level is one aggregated price level in UI units.
type Level struct {
	Price  decimal.Decimal `json:"price"`
	Size   decimal.Decimal `json:"size"`
	Orders int             `json:"orders"`
}

// Order is a resting order as stored in a slab leaf.
type Order struct {
	PriceLots     uint64 `json:"price_lots"`
	QuantityLots  uint64 `json:"quantity_lots"`
	OpenOrders    string `json:"open_orders"`
	OwnerSlot     uint8  `json:"owner_slot"`
	FeeTier       uint8  `json:"fee_tier"`
	ClientOrderID uint64 `json:"client_order_id"`
}

// OrderBook is one side of a venue's book, sorted best price first.
type OrderBook struct {
	Venue         string  `json:"venue"`
	Side          Side    `json:"side"`
	BaseDecimals  uint8   `json:"base_decimals"`
	QuoteDecimals uint8   `json:"quote_decimals"`
	BaseLotSize   uint64  `json:"base_lot_size"`
	QuoteLotSize  uint64  `json:"quote_lot_size"`
	Orders        []Order `json:"orders"`
	Levels        []Level `json:"levels"`
}

// Best returns the top level, if any.
func (b OrderBook) Best() (Level, bool) {
	if len(b.Levels) == 0 {
		return Level{}, false
	}
	return b.Levels[0], true
}
