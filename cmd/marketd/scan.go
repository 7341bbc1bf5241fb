package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketScope/internal/config"
)

func runScan(cmd *cobra.Command, _ []string) error {
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

	if cfg.Out == "" && cfg.PGDSN == "" {
		return fmt.Errorf("out path or pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	logger.Info("scan start",
		zap.String("rpc", cfg.RPCURL),
		zap.Int("quote_mints", len(cfg.QuoteMints)),
		zap.Int("watchlist", len(cfg.Watchlist)),
		zap.Duration("scan_jitter", cfg.ScanJitter),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	res, err := a.registry.Refresh(ctx)
	if err != nil {
		return err
	}
	if !res.Swapped {
		return fmt.Errorf("scan failed: %d of %d units failed", res.Failed, res.Units)
	}

	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(res)
}
