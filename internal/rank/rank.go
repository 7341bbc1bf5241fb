// Package rank orders mints by how many venues list them and picks the most
// active venue or token.
package rank

import (
	"sort"

	"marketScope/internal/model"
	"marketScope/internal/tokens"
)

// Unranked is returned for mints absent from the index.
const Unranked = 9999999

// topTokens resolve straight to their canonical mint.
var topTokens = map[string]string{
	"SOL":  tokens.WrappedSOL,
	"USDC": tokens.USDC,
	"USDT": tokens.USDT,
}

// VenueSource is the read side of the venue registry.
type VenueSource interface {
	Index() *model.VenueIndex
}

// SymbolSource resolves token symbols to mints.
type SymbolSource interface {
	MintsBySymbol(symbol string) []string
}

// Engine computes rankings from the live venue index.
type Engine struct {
	venues     VenueSource
	symbols    SymbolSource
	stablecoin string
}

func NewEngine(venues VenueSource, symbols SymbolSource) *Engine {
	return &Engine{venues: venues, symbols: symbols, stablecoin: tokens.USDC}
}

// Rank returns 1 plus the number of distinct mints listed on strictly more
// venues than mint. Mints with equal counts share a rank.
func (e *Engine) Rank(mint string) int {
	counts := e.venues.Index().BaseMintCounts()
	own, ok := counts[mint]
	if !ok || own == 0 {
		return Unranked
	}
	rank := 1
	for _, n := range counts {
		if n > own {
			rank++
		}
	}
	return rank
}

// Entry is one row of a ranking table.
type Entry struct {
	Mint       string `json:"mint"`
	VenueCount int    `json:"venue_count"`
	Rank       int    `json:"rank"`
}

// Top returns the n best ranked mints, best first; n <= 0 returns all.
func (e *Engine) Top(n int) []Entry {
	counts := e.venues.Index().BaseMintCounts()
	entries := make([]Entry, 0, len(counts))
	for mint, c := range counts {
		entries = append(entries, Entry{Mint: mint, VenueCount: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].VenueCount != entries[j].VenueCount {
			return entries[i].VenueCount > entries[j].VenueCount
		}
		return entries[i].Mint < entries[j].Mint
	})
	for i := range entries {
		if i > 0 && entries[i].VenueCount == entries[i-1].VenueCount {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// MostActiveVenue picks the deepest venue for baseMint by base deposits.
// With quoteMint set it returns the deepest venue quoted in it. Otherwise a
// stablecoin quoted venue in second place is promoted over a first place
// venue quoted in anything else.
func (e *Engine) MostActiveVenue(baseMint, quoteMint string) (model.Venue, bool) {
	candidates := e.venues.Index().ByBaseMint(baseMint)
	if len(candidates) == 0 {
		return model.Venue{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].BaseDepositsTotal > candidates[j].BaseDepositsTotal
	})

	if quoteMint != "" {
		for _, v := range candidates {
			if v.QuoteMint == quoteMint {
				return v, true
			}
		}
		return model.Venue{}, false
	}

	if len(candidates) > 1 && candidates[0].QuoteMint != e.stablecoin && candidates[1].QuoteMint == e.stablecoin {
		return candidates[1], true
	}
	return candidates[0], true
}

// MostActiveTokenBySymbol returns the mint for symbol whose most active venue
// has accrued the most quote fees.
func (e *Engine) MostActiveTokenBySymbol(symbol string) (string, bool) {
	if mint, ok := topTokens[symbol]; ok {
		return mint, true
	}
	if e.symbols == nil {
		return "", false
	}

	var best model.Venue
	found := false
	for _, mint := range e.symbols.MintsBySymbol(symbol) {
		v, ok := e.MostActiveVenue(mint, "")
		if !ok {
			continue
		}
		if !found || v.QuoteFeesAccrued > best.QuoteFeesAccrued {
			best = v
			found = true
		}
	}
	if !found {
		return "", false
	}
	return best.BaseMint, true
}
