package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketScope/internal/chain"
	"marketScope/internal/config"
	"marketScope/internal/provenance"
	"marketScope/internal/storage/postgres"
)

func runResolve(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadResolve(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	for name, addr := range map[string]string{"venue": cfg.Venue, "sub-account": cfg.SubAccount, "owner": cfg.Owner} {
		if !chain.IsAddress(addr) {
			return fmt.Errorf("%s must be a base58 address", name)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.CallTimeout)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var (
		recorder provenance.Recorder
		store    *postgres.Store
	)
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		recorder = store
	}

	resolver := provenance.NewResolver(provenance.Config{
		SignatureLimit: cfg.SignatureLimit,
		Commitment:     chain.CommitmentConfirmed,
		Workers:        cfg.ProvenanceWorkers,
	}, chainClient, recorder, logger)
	if store != nil {
		known, err := store.LoadProvenance(ctx)
		if err != nil {
			logger.Warn("load provenance failed", zap.Error(err))
		} else {
			resolver.Restore(known)
		}
	}

	logger.Info("resolve start",
		zap.String("venue", cfg.Venue),
		zap.String("sub_account", cfg.SubAccount),
		zap.String("owner", cfg.Owner),
		zap.Float64("price", cfg.Price),
		zap.Float64("quantity", cfg.Quantity),
	)

	deadline := time.NewTimer(cfg.PollTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		res := resolver.Resolve(cfg.Venue, cfg.SubAccount, cfg.Owner, cfg.Price, cfg.Quantity)
		if res.Resolved() {
			resolver.Wait()
			return json.NewEncoder(os.Stdout).Encode(struct {
				State     string `json:"state"`
				Signature string `json:"signature,omitempty"`
			}{res.State.String(), res.Signature})
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("provenance unresolved after %s", cfg.PollTimeout)
		case <-ticker.C:
		}
	}
}
