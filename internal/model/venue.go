package model

// Venue is a decoded order-book market account.
type Venue struct {
	Address            string `json:"address"`
	BaseMint           string `json:"base_mint"`
	QuoteMint          string `json:"quote_mint"`
	BaseVault          string `json:"base_vault"`
	QuoteVault         string `json:"quote_vault"`
	BaseDecimals       uint8  `json:"base_decimals"`
	QuoteDecimals      uint8  `json:"quote_decimals"`
	BaseLotSize        uint64 `json:"base_lot_size"`
	QuoteLotSize       uint64 `json:"quote_lot_size"`
	Bids               string `json:"bids"`
	Asks               string `json:"asks"`
	EventQueue         string `json:"event_queue"`
	BaseDepositsTotal  uint64 `json:"base_deposits_total"`
	QuoteDepositsTotal uint64 `json:"quote_deposits_total"`
	QuoteFeesAccrued   uint64 `json:"quote_fees_accrued"`
	FeeRateBps         uint64 `json:"fee_rate_bps"`
}

// RawAccount is an undecoded account returned by a program scan.
type RawAccount struct {
	Pubkey string
	Data   []byte
}

// AccountFilter is a memcmp filter for program account scans. Bytes is base58.
type AccountFilter struct {
	Offset uint64
	Bytes  string
}
