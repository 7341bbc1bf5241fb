package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketScope/internal/config"
	"marketScope/internal/registry"
	"marketScope/internal/scheduler"
	"marketScope/internal/storage"
)

const refreshStateName = "registry"

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

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

	if n, err := a.restore(ctx); err != nil {
		logger.Warn("warm start failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("warm start", zap.Int("venues", n), zap.String("generation", a.registry.Generation()))
	}

	var state storage.StateStore = &storage.FileStateStore{Path: cfg.StateFile}
	if a.store != nil {
		state = &storage.DBStateStore{Store: a.store, Name: refreshStateName}
	}
	if ts, ok, err := state.Load(ctx); err != nil {
		logger.Warn("load refresh state failed", zap.Error(err))
	} else if ok {
		logger.Info("last refresh", zap.Duration("age", time.Since(time.Unix(int64(ts), 0)).Round(time.Second)))
	}

	hooks := []scheduler.HookFunc{
		func(ctx context.Context, res registry.RefreshResult) {
			if !res.Swapped {
				return
			}
			if err := state.Save(ctx, uint64(time.Now().Unix())); err != nil {
				logger.Warn("save refresh state failed", zap.Error(err))
			}
		},
		func(ctx context.Context, res registry.RefreshResult) {
			warmTop(ctx, a, cfg.WarmTop)
		},
	}

	sched := scheduler.New(scheduler.Config{Interval: cfg.RefreshInterval}, a.registry, logger.Named("scheduler"), hooks...)

	logger.Info("marketd start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("dex_program", cfg.DEXProgram),
		zap.Int("quote_mints", len(cfg.QuoteMints)),
		zap.Int("watchlist", len(cfg.Watchlist)),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.Duration("book_ttl", cfg.BookTTL),
		zap.Duration("event_ttl", cfg.EventTTL),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	if err := sched.Start(ctx); err != nil {
		return err
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			logger.Info("marketd stopping")
			return sched.Stop(stopCtx)
		case <-hup:
			if !sched.Trigger() {
				logger.Info("refresh already running")
			}
		}
	}
}

// warmTop loads books for the most active venue of each top ranked mint and
// logs the resulting reference prices.
func warmTop(ctx context.Context, a *app, n int) {
	if n <= 0 {
		return
	}
	var venues []string
	for _, entry := range a.ranks.Top(n) {
		if v, ok := a.ranks.MostActiveVenue(entry.Mint, ""); ok {
			venues = append(venues, v.Address)
		}
	}
	ready := a.markets.Warm(ctx, venues)
	bids, asks, events := a.markets.Stats()
	a.logger.Info("market caches warmed",
		zap.Int("venues", len(venues)),
		zap.Int("ready", ready),
		zap.Int("bids", bids),
		zap.Int("asks", asks),
		zap.Int("events", events),
	)
}
