package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// ResolveConfig holds configuration for the resolve command.
type ResolveConfig struct {
	Config
	Venue        string
	SubAccount   string
	Owner        string
	Price        float64
	Quantity     float64
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// LoadResolve merges config file, environment variables, and flags into ResolveConfig.
func LoadResolve(cfgFile string, flags *pflag.FlagSet) (ResolveConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ResolveConfig{}, err
	}
	v.SetDefault("poll-interval", time.Second)
	v.SetDefault("poll-timeout", time.Minute)

	price, err := parseAmount(v.GetString("price"))
	if err != nil {
		return ResolveConfig{}, fmt.Errorf("price: %w", err)
	}
	quantity, err := parseAmount(v.GetString("quantity"))
	if err != nil {
		return ResolveConfig{}, fmt.Errorf("quantity: %w", err)
	}

	return ResolveConfig{
		Config:       fromViper(v),
		Venue:        v.GetString("venue"),
		SubAccount:   v.GetString("sub-account"),
		Owner:        v.GetString("owner"),
		Price:        price,
		Quantity:     quantity,
		PollInterval: v.GetDuration("poll-interval"),
		PollTimeout:  v.GetDuration("poll-timeout"),
	}, nil
}

func parseAmount(input string) (float64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", input)
	}
	return v, nil
}
