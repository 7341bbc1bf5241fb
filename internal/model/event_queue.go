package model

import "github.com/shopspring/decimal"

// Fill is a decoded fill event from a venue's event queue.
type Fill struct {
	Side          Side            `json:"side"`
	Maker         bool            `json:"maker"`
	OpenOrders    string          `json:"open_orders"`
	OwnerSlot     uint8           `json:"owner_slot"`
	FeeTier       uint8           `json:"fee_tier"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	OrderID       string          `json:"order_id"`
	ClientOrderID uint64          `json:"client_order_id"`
}

// EventQueue is the ordered fill stream of a venue, oldest first.
type EventQueue struct {
	Venue  string `json:"venue"`
	SeqNum uint64 `json:"seq_num"`
	Fills  []Fill `json:"fills"`
}
