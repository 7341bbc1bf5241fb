package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "marketd",
		Short:        "Serum market data cache",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Keep the venue registry and market caches refreshed",
		RunE:  runDaemon,
	}
	addLedgerFlags(runCmd)
	addRegistryFlags(runCmd)
	runCmd.Flags().Duration("refresh-interval", 5*time.Minute, "venue registry refresh interval")
	runCmd.Flags().Duration("book-ttl", 1500*time.Millisecond, "order book refresh threshold")
	runCmd.Flags().Duration("event-ttl", 3*time.Second, "event queue refresh threshold")
	runCmd.Flags().Int("warm-top", 20, "warm books for the most active venue of the top N ranked mints after each refresh")
	runCmd.Flags().String("state-file", "./data/refresh_state.json", "refresh state file, used without pg-dsn")
	root.AddCommand(runCmd)

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Refresh the venue registry once and write the snapshot",
		RunE:  runScan,
	}
	addLedgerFlags(scanCmd)
	addRegistryFlags(scanCmd)
	root.AddCommand(scanCmd)

	rankCmd := &cobra.Command{
		Use:   "rank",
		Short: "Print mint rankings and most active venues",
		RunE:  runRank,
	}
	addLedgerFlags(rankCmd)
	addRegistryFlags(rankCmd)
	rankCmd.Flags().Int("top", 20, "number of ranked mints to print")
	rankCmd.Flags().String("symbol", "", "resolve the most active token for a symbol")
	rankCmd.Flags().Bool("from-snapshot", false, "rank the stored snapshot instead of scanning")
	root.AddCommand(rankCmd)

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Find the aggregator transaction that settled an order",
		RunE:  runResolve,
	}
	addLedgerFlags(resolveCmd)
	resolveCmd.Flags().String("venue", "", "venue address")
	resolveCmd.Flags().String("sub-account", "", "open orders account")
	resolveCmd.Flags().String("owner", "", "owner wallet")
	resolveCmd.Flags().String("price", "", "order price")
	resolveCmd.Flags().String("quantity", "", "order quantity")
	resolveCmd.Flags().Int("signature-limit", 10, "recent signatures inspected")
	resolveCmd.Flags().Int("provenance-workers", 8, "concurrent provenance lookups")
	resolveCmd.Flags().Duration("poll-interval", time.Second, "result poll interval")
	resolveCmd.Flags().Duration("poll-timeout", time.Minute, "give up after this long")
	root.AddCommand(resolveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLedgerFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Solana RPC URL")
	cmd.Flags().Duration("call-timeout", 10*time.Second, "timeout per RPC call")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN (optional)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func addRegistryFlags(cmd *cobra.Command) {
	cmd.Flags().String("dex-program", "", "DEX program id (default serum v3)")
	cmd.Flags().StringSlice("quote-mints", nil, "quote mints to scan (comma-separated)")
	cmd.Flags().StringSlice("watchlist", nil, "venue addresses to track (comma-separated)")
	cmd.Flags().StringSlice("tokens", nil, "extra token metadata SYMBOL=MINT:DECIMALS (comma-separated)")
	cmd.Flags().Duration("scan-jitter", 12*time.Second, "max random delay before each scan")
	cmd.Flags().Int("scan-concurrency", 0, "concurrent scans, 0 means all")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts per scan")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("out", "./data/venues.jsonl", "venue snapshot JSONL path")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
