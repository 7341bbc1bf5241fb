// Package price serves reference prices for quote mints.
package price

import (
	"sync"

	"github.com/shopspring/decimal"

	"marketScope/internal/tokens"
)

// DefaultPegged are mints assumed to trade at 1.0.
var DefaultPegged = []string{tokens.USDC, tokens.USDT, tokens.USDCet, tokens.SOUSDT, tokens.UXD}

// Oracle returns pegged prices for stable mints and the last observed price
// for everything else. It never calls out.
type Oracle struct {
	pegged map[string]struct{}

	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewOracle(pegged []string) *Oracle {
	o := &Oracle{
		pegged: make(map[string]struct{}, len(pegged)),
		prices: make(map[string]decimal.Decimal),
	}
	for _, mint := range pegged {
		o.pegged[mint] = struct{}{}
	}
	return o
}

// Pegged reports whether mint is on the peg allow-list.
func (o *Oracle) Pegged(mint string) bool {
	_, ok := o.pegged[mint]
	return ok
}

// ReferencePrice returns 1 for pegged mints, otherwise the last observed
// price or zero.
func (o *Oracle) ReferencePrice(mint string) decimal.Decimal {
	if o.Pegged(mint) {
		return decimal.NewFromInt(1)
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if p, ok := o.prices[mint]; ok {
		return p
	}
	return decimal.Zero
}

// Observe records a derived price for mint. Pegged mints and non-positive
// prices are ignored.
func (o *Oracle) Observe(mint string, p decimal.Decimal) {
	if o.Pegged(mint) || !p.IsPositive() {
		return
	}
	o.mu.Lock()
	o.prices[mint] = p
	o.mu.Unlock()
}
