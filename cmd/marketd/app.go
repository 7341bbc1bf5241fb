package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"marketScope/internal/chain"
	"marketScope/internal/config"
	"marketScope/internal/market"
	"marketScope/internal/model"
	"marketScope/internal/price"
	"marketScope/internal/rank"
	"marketScope/internal/registry"
	"marketScope/internal/storage"
	"marketScope/internal/storage/postgres"
	"marketScope/internal/tokens"
)

// app holds the components shared by the commands.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	chain    *chain.Client
	store    *postgres.Store
	snapshot *storage.JsonlStorage
	tokens   *tokens.Directory
	registry *registry.Registry
	oracle   *price.Oracle
	markets  *market.Service
	ranks    *rank.Engine
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	extra, err := tokens.ParseTokens(cfg.Tokens)
	if err != nil {
		return nil, fmt.Errorf("parse tokens: %w", err)
	}
	dir := tokens.NewDirectory(append(tokens.Defaults(), extra...)...)

	watchlist, err := chain.ParseAddresses(cfg.Watchlist)
	if err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}
	quoteMints, err := chain.ParseAddresses(cfg.QuoteMints)
	if err != nil {
		return nil, fmt.Errorf("parse quote mints: %w", err)
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.CallTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, chain: chainClient, tokens: dir}

	var sinks storage.Multi
	if cfg.Out != "" {
		a.snapshot = storage.NewJsonlStorage(cfg.Out)
		sinks = append(sinks, a.snapshot)
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.store = store
		if err := store.Migrate(ctx); err != nil {
			a.close()
			return nil, err
		}
		sinks = append(sinks, store)
	}

	a.registry = registry.New(registry.Config{
		ProgramID:    cfg.DEXProgram,
		QuoteMints:   quoteMints,
		Watchlist:    watchlist,
		Jitter:       cfg.ScanJitter,
		Concurrency:  cfg.ScanConcurrency,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, dir, sinks, logger.Named("registry"))

	a.oracle = price.NewOracle(price.DefaultPegged)
	a.markets = market.NewService(market.Config{
		BookTTL:    cfg.BookTTL,
		EventTTL:   cfg.EventTTL,
		Commitment: chain.CommitmentConfirmed,
	}, a.registry, chainClient, a.oracle, logger.Named("market"))
	a.ranks = rank.NewEngine(a.registry, dir)

	return a, nil
}

// restore seeds the registry from Postgres if configured, else from the
// JSONL snapshot.
func (a *app) restore(ctx context.Context) (int, error) {
	var (
		venues []model.Venue
		err    error
	)
	switch {
	case a.store != nil:
		venues, err = a.store.LoadVenues(ctx)
	case a.snapshot != nil:
		venues, err = a.snapshot.LoadVenues(ctx)
	}
	if err != nil {
		return 0, err
	}
	if len(venues) == 0 {
		return 0, nil
	}
	if err := a.registry.Restore(venues); err != nil {
		return 0, err
	}
	return len(venues), nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	a.chain.Close()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
