// Package registry maintains the live venue index. Venues are discovered by
// scanning the DEX program per quote mint and by reading a curated watchlist;
// each refresh builds a complete new generation and swaps it in atomically.
package registry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"marketScope/internal/chain"
	"marketScope/internal/model"
	"marketScope/internal/serum"
)

// Source is the part of the ledger client the registry needs.
type Source interface {
	ScanAccounts(ctx context.Context, programID string, filters []model.AccountFilter, recordSize uint64) ([]model.RawAccount, error)
	GetAccount(ctx context.Context, address string, opts chain.AccountOptions) (uint64, []byte, error)
}

// TokenDecimals supplies mint decimals.
type TokenDecimals interface {
	Decimals(mint string) (uint8, bool)
}

// Sink receives the venue list after every swap.
type Sink interface {
	PutVenueBatch(ctx context.Context, venues []model.Venue) error
}

// DecodeFunc decodes one market account.
type DecodeFunc func(data []byte) (model.Venue, error)

// Config controls venue discovery.
type Config struct {
	ProgramID    string
	QuoteMints   []string
	Watchlist    []string
	Jitter       time.Duration
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
	Decode       DecodeFunc
}

// RefreshResult summarizes one refresh.
type RefreshResult struct {
	Generation string        `json:"generation"`
	Venues     int           `json:"venues"`
	Units      int           `json:"units"`
	Failed     int           `json:"failed"`
	Rejected   int           `json:"rejected"`
	Swapped    bool          `json:"swapped"`
	Duration   time.Duration `json:"duration"`
}

// Registry owns the venue index.
type Registry struct {
	cfg    Config
	source Source
	tokens TokenDecimals
	sink   Sink
	logger *zap.Logger

	index     atomic.Pointer[model.VenueIndex]
	refreshMu sync.Mutex
}

type unit struct {
	kind   string
	target string
}

type unitResult struct {
	venues   []model.Venue
	rejected int
	err      error
}

func New(cfg Config, source Source, tokens TokenDecimals, sink Sink, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProgramID == "" {
		cfg.ProgramID = serum.ProgramIDV3
	}
	if cfg.Decode == nil {
		cfg.Decode = serum.DecodeMarket
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = len(cfg.QuoteMints) + len(cfg.Watchlist)
	}
	r := &Registry{
		cfg:    cfg,
		source: source,
		tokens: tokens,
		sink:   sink,
		logger: logger,
	}
	r.index.Store(model.NewVenueIndex(nil, time.Time{}))
	return r
}

// Refresh rebuilds the index. Concurrent calls queue behind each other.
// Failed units are logged and left out; the swap waits for every unit. If
// every unit failed the previous generation stays live.
func (r *Registry) Refresh(ctx context.Context) (RefreshResult, error) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	start := time.Now()
	units := r.units()
	results := make([]unitResult, len(units))

	r.logger.Info("venue refresh start",
		zap.Int("quote_mints", len(r.cfg.QuoteMints)),
		zap.Int("watchlist", len(r.cfg.Watchlist)),
		zap.Duration("jitter", r.cfg.Jitter),
	)

	var g errgroup.Group
	if r.cfg.Concurrency > 0 {
		g.SetLimit(r.cfg.Concurrency)
	}
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			results[i] = r.runUnit(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	res := RefreshResult{Units: len(units)}
	var venues []model.Venue
	for i, ur := range results {
		res.Rejected += ur.rejected
		if ur.err != nil {
			res.Failed++
			r.logger.Warn("venue unit failed", zap.String("kind", units[i].kind), zap.String("target", units[i].target), zap.Error(ur.err))
			continue
		}
		venues = append(venues, ur.venues...)
	}
	res.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if len(units) > 0 && res.Failed == len(units) {
		r.logger.Error("every venue unit failed, keeping previous index", zap.Int("units", len(units)))
		return res, nil
	}

	idx := model.NewVenueIndex(venues, time.Now().UTC())
	r.index.Store(idx)
	res.Swapped = true
	res.Generation = idx.Generation.String()
	res.Venues = idx.Len()

	r.logger.Info("venue refresh complete",
		zap.String("generation", res.Generation),
		zap.Int("venues", res.Venues),
		zap.Int("failed", res.Failed),
		zap.Int("rejected", res.Rejected),
		zap.Duration("duration", res.Duration),
	)

	if r.sink != nil {
		if err := r.sink.PutVenueBatch(ctx, idx.All()); err != nil {
			r.logger.Warn("venue sink failed", zap.Error(err))
		}
	}
	return res, nil
}

func (r *Registry) units() []unit {
	units := make([]unit, 0, len(r.cfg.QuoteMints)+len(r.cfg.Watchlist))
	for _, mint := range r.cfg.QuoteMints {
		units = append(units, unit{kind: "scan", target: mint})
	}
	for _, addr := range r.cfg.Watchlist {
		units = append(units, unit{kind: "watch", target: addr})
	}
	return units
}

func (r *Registry) runUnit(ctx context.Context, u unit) unitResult {
	if r.cfg.Jitter > 0 {
		delay := time.Duration(rand.Int63n(int64(r.cfg.Jitter)))
		r.logger.Debug("venue unit delayed", zap.String("target", u.target), zap.Duration("delay", delay))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return unitResult{err: ctx.Err()}
		case <-timer.C:
		}
	}

	var raws []model.RawAccount
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		raws, err = r.fetchUnit(ctx, u)
		return err
	})
	if err != nil {
		return unitResult{err: err}
	}

	var res unitResult
	for _, raw := range raws {
		v, err := r.cfg.Decode(raw.Data)
		if err != nil {
			res.rejected++
			r.logger.Warn("decode venue", zap.String("account", raw.Pubkey), zap.Error(err))
			continue
		}
		if serum.Burned(v) {
			res.rejected++
			r.logger.Debug("reject burned venue", zap.String("account", raw.Pubkey))
			continue
		}
		res.venues = append(res.venues, r.patchDecimals(v))
	}
	r.logger.Debug("venue unit complete", zap.String("kind", u.kind), zap.String("target", u.target), zap.Int("venues", len(res.venues)))
	return res
}

func (r *Registry) fetchUnit(ctx context.Context, u unit) ([]model.RawAccount, error) {
	switch u.kind {
	case "scan":
		return r.source.ScanAccounts(ctx, r.cfg.ProgramID, serum.MarketFilters(u.target), serum.MarketAccountSize)
	case "watch":
		_, data, err := r.source.GetAccount(ctx, u.target, chain.AccountOptions{Commitment: chain.CommitmentConfirmed})
		if err != nil {
			return nil, err
		}
		return []model.RawAccount{{Pubkey: u.target, Data: data}}, nil
	default:
		return nil, fmt.Errorf("unknown unit kind %q", u.kind)
	}
}

func (r *Registry) patchDecimals(v model.Venue) model.Venue {
	if r.tokens == nil {
		return v
	}
	if d, ok := r.tokens.Decimals(v.BaseMint); ok {
		v.BaseDecimals = d
	} else {
		r.logger.Debug("base decimals unknown", zap.String("mint", v.BaseMint))
	}
	if d, ok := r.tokens.Decimals(v.QuoteMint); ok {
		v.QuoteDecimals = d
	} else {
		r.logger.Debug("quote decimals unknown", zap.String("mint", v.QuoteMint))
	}
	return v
}

// Index returns the live generation. Callers that need several consistent
// reads should hold on to one generation.
func (r *Registry) Index() *model.VenueIndex {
	return r.index.Load()
}

// VenuesByMint returns venues whose base mint is mint.
func (r *Registry) VenuesByMint(mint string) []model.Venue {
	return r.Index().ByBaseMint(mint)
}

// VenuesByQuoteMint returns venues whose quote mint is mint.
func (r *Registry) VenuesByQuoteMint(mint string) []model.Venue {
	return r.Index().ByQuoteMint(mint)
}

// Venue looks a venue up by address.
func (r *Registry) Venue(address string) (model.Venue, bool) {
	return r.Index().Venue(address)
}

// Venues returns every live venue.
func (r *Registry) Venues() []model.Venue {
	return r.Index().All()
}

// VenueCounts returns the number of live venues per base mint.
func (r *Registry) VenueCounts() map[string]int {
	return r.Index().BaseMintCounts()
}

// Generation returns the id of the live generation, or "" before the first
// successful refresh.
func (r *Registry) Generation() string {
	idx := r.Index()
	if idx == nil || idx.BuiltAt.IsZero() {
		return ""
	}
	return idx.Generation.String()
}

// Restore seeds the index from previously persisted venues, for warm starts.
func (r *Registry) Restore(venues []model.Venue) error {
	if len(venues) == 0 {
		return errors.New("no venues to restore")
	}
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	r.index.Store(model.NewVenueIndex(venues, time.Now().UTC()))
	return nil
}
