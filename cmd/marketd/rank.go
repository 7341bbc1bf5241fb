package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"marketScope/internal/config"
)

type rankLine struct {
	Rank        int             `json:"rank"`
	Mint        string          `json:"mint"`
	Symbol      string          `json:"symbol,omitempty"`
	VenueCount  int             `json:"venue_count"`
	MostActive  string          `json:"most_active_venue,omitempty"`
	QuoteMint   string          `json:"quote_mint,omitempty"`
	ReferencePx decimal.Decimal `json:"reference_price"`
}

func runRank(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")
	symbol, _ := cmd.Flags().GetString("symbol")
	fromSnapshot, _ := cmd.Flags().GetBool("from-snapshot")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if fromSnapshot {
		n, err := a.restore(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("no stored venues")
		}
	} else if _, err := a.registry.Refresh(ctx); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)

	if symbol != "" {
		mint, ok := a.ranks.MostActiveTokenBySymbol(symbol)
		if !ok {
			return fmt.Errorf("no venue for symbol %s", symbol)
		}
		return enc.Encode(a.line(ctx, mint, a.ranks.Rank(mint), len(a.registry.VenuesByMint(mint))))
	}

	for _, entry := range a.ranks.Top(top) {
		if err := enc.Encode(a.line(ctx, entry.Mint, entry.Rank, entry.VenueCount)); err != nil {
			return err
		}
	}
	return nil
}

// line describes a ranked mint. The most active venue's book is read so the
// oracle can derive a price for mints quoted in a stablecoin.
func (a *app) line(ctx context.Context, mint string, rank, venues int) rankLine {
	out := rankLine{Rank: rank, Mint: mint, VenueCount: venues}
	if tok, ok := a.tokens.Token(mint); ok {
		out.Symbol = tok.Symbol
	}
	if v, ok := a.ranks.MostActiveVenue(mint, ""); ok {
		out.MostActive = v.Address
		out.QuoteMint = v.QuoteMint
		a.markets.OrderBook(ctx, v.Address)
	}
	out.ReferencePx = a.oracle.ReferencePrice(mint)
	return out
}
