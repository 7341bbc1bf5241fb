package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"marketScope/internal/serum"
	"marketScope/internal/tokens"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	CallTimeout       time.Duration
	DEXProgram        string
	QuoteMints        []string
	Watchlist         []string
	ScanJitter        time.Duration
	ScanConcurrency   int
	MaxRetries        int
	RetryBackoff      time.Duration
	RefreshInterval   time.Duration
	BookTTL           time.Duration
	EventTTL          time.Duration
	WarmTop           int
	ProvenanceWorkers int
	SignatureLimit    int
	Tokens            []string
	Out               string
	StateFile         string
	PGDSN             string
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKETD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("call-timeout", 10*time.Second)
	v.SetDefault("dex-program", serum.ProgramIDV3)
	v.SetDefault("quote-mints", tokens.DefaultQuoteMints)
	v.SetDefault("scan-jitter", 12*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("refresh-interval", 5*time.Minute)
	v.SetDefault("book-ttl", 1500*time.Millisecond)
	v.SetDefault("event-ttl", 3*time.Second)
	v.SetDefault("warm-top", 20)
	v.SetDefault("provenance-workers", 8)
	v.SetDefault("signature-limit", 10)
	v.SetDefault("out", "./data/venues.jsonl")
	v.SetDefault("state-file", "./data/refresh_state.json")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		RPCURL:            v.GetString("rpc"),
		CallTimeout:       v.GetDuration("call-timeout"),
		DEXProgram:        v.GetString("dex-program"),
		QuoteMints:        getStringSlice(v, "quote-mints"),
		Watchlist:         getStringSlice(v, "watchlist"),
		ScanJitter:        v.GetDuration("scan-jitter"),
		ScanConcurrency:   v.GetInt("scan-concurrency"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		RefreshInterval:   v.GetDuration("refresh-interval"),
		BookTTL:           v.GetDuration("book-ttl"),
		EventTTL:          v.GetDuration("event-ttl"),
		WarmTop:           v.GetInt("warm-top"),
		ProvenanceWorkers: v.GetInt("provenance-workers"),
		SignatureLimit:    v.GetInt("signature-limit"),
		Tokens:            getStringSlice(v, "tokens"),
		Out:               v.GetString("out"),
		StateFile:         v.GetString("state-file"),
		PGDSN:             v.GetString("pg-dsn"),
		LogLevel:          v.GetString("log-level"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
