package tokens

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Token is the metadata kept per mint.
type Token struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Directory caches token metadata by mint and by symbol.
type Directory struct {
	mu       sync.RWMutex
	byMint   map[string]Token
	bySymbol map[string][]string
}

func NewDirectory(tokens ...Token) *Directory {
	d := &Directory{
		byMint:   make(map[string]Token),
		bySymbol: make(map[string][]string),
	}
	for _, tok := range tokens {
		d.Set(tok)
	}
	return d
}

func (d *Directory) Set(tok Token) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.byMint[tok.Mint]; ok {
		d.bySymbol[symbolKey(prev.Symbol)] = remove(d.bySymbol[symbolKey(prev.Symbol)], tok.Mint)
	}
	d.byMint[tok.Mint] = tok
	if tok.Symbol != "" {
		key := symbolKey(tok.Symbol)
		d.bySymbol[key] = append(d.bySymbol[key], tok.Mint)
	}
}

func (d *Directory) Token(mint string) (Token, bool) {
	d.mu.RLock()
	tok, ok := d.byMint[mint]
	d.mu.RUnlock()
	return tok, ok
}

// Decimals returns the decimals recorded for mint.
func (d *Directory) Decimals(mint string) (uint8, bool) {
	tok, ok := d.Token(mint)
	return tok.Decimals, ok
}

// MintsBySymbol returns every mint registered under symbol, case-insensitively.
func (d *Directory) MintsBySymbol(symbol string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	mints := d.bySymbol[symbolKey(symbol)]
	return append([]string(nil), mints...)
}

// ParseTokens parses entries of the form SYMBOL=MINT:DECIMALS.
func ParseTokens(entries []string) ([]Token, error) {
	out := make([]Token, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		symbol, rest, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid token entry: %s", entry)
		}
		mint, decimalsText, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("token entry missing decimals: %s", entry)
		}
		decimals, err := strconv.ParseUint(strings.TrimSpace(decimalsText), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("token decimals %s: %w", entry, err)
		}
		out = append(out, Token{
			Mint:     strings.TrimSpace(mint),
			Symbol:   strings.TrimSpace(symbol),
			Decimals: uint8(decimals),
		})
	}
	return out, nil
}

func symbolKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func remove(items []string, target string) []string {
	out := items[:0]
	for _, item := range items {
		if item != target {
			out = append(out, item)
		}
	}
	return out
}
