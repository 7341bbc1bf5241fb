package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketScope/internal/serum"
	"marketScope/internal/tokens"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, serum.ProgramIDV3, cfg.DEXProgram)
	assert.Equal(t, tokens.DefaultQuoteMints, cfg.QuoteMints)
	assert.Equal(t, 12*time.Second, cfg.ScanJitter)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.BookTTL)
	assert.Equal(t, 3*time.Second, cfg.EventTTL)
	assert.Equal(t, 10, cfg.SignatureLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Watchlist)
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("MARKETD_RPC", "http://env:8899")
	t.Setenv("MARKETD_WATCHLIST", " a1 , ,b2")
	t.Setenv("MARKETD_BOOK_TTL", "2s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.Int("max-retries", 3, "")
	require.NoError(t, flags.Parse([]string{"--rpc", "http://flag:8899", "--max-retries", "7"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "http://flag:8899", cfg.RPCURL)
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, []string{"a1", "b2"}, cfg.Watchlist)
	assert.Equal(t, 2*time.Second, cfg.BookTTL)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rpc: http://file:8899
quote-mints:
  - EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
tokens:
  - FOO=4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R:6
price: "1.25"
venue: v1
`), 0o644))

	cfg, err := LoadResolve(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "http://file:8899", cfg.RPCURL)
	assert.Equal(t, []string{tokens.USDC}, cfg.QuoteMints)
	assert.Len(t, cfg.Tokens, 1)
	assert.Equal(t, "v1", cfg.Venue)
	assert.Equal(t, 1.25, cfg.Price)
	assert.Equal(t, time.Second, cfg.PollInterval)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadResolveRejectsNonFinite(t *testing.T) {
	for _, tc := range []struct {
		key, value string
	}{
		{"price", "NaN"},
		{"price", "+Inf"},
		{"quantity", "-inf"},
		{"quantity", "abc"},
	} {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv("MARKETD_"+strings.ToUpper(tc.key), tc.value)
			_, err := LoadResolve("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}
