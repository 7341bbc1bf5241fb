// Package provenance correlates an order fingerprint with the aggregator
// transaction that settled it. Lookups run in the background; callers poll.
package provenance

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"marketScope/internal/chain"
	"marketScope/internal/model"
	"marketScope/internal/serum"
)

const (
	// JupiterProgramV3 is the swap aggregator program.
	JupiterProgramV3 = "JUP3c2Uh3WA4Ng34tw6kPd2G4C5BB21Xo36Je1s32Ph"

	jupiterUSDCWallet = "H5sizxhR6ssXrX2YNDoYaUv93PU34VzyRaVaUHuo5eFk"
	jupiterUSDTWallet = "FVKG6bkrQ4rksme6GT1FN7PgvZf9cNmupyWfN5kJj8Fx"
	jupiterWSOLWallet = "61CjGbapEVoyCC51x5tPZGZHCYsgtPSSssCatHEEUWeG"
)

// DefaultSettlementWallets are the aggregator's settlement token accounts.
var DefaultSettlementWallets = []string{jupiterUSDCWallet, jupiterUSDTWallet, jupiterWSOLWallet}

// Source is the transaction history part of the ledger client.
type Source interface {
	GetRecentSignatures(ctx context.Context, address string, limit int, commitment chain.Commitment) ([]string, error)
	GetTransaction(ctx context.Context, signature string, commitment chain.Commitment) (*model.Transaction, error)
}

// Recorder persists resolved outcomes.
type Recorder interface {
	RecordProvenance(ctx context.Context, fp model.Fingerprint, result model.ProvenanceResult) error
}

// Config controls the resolver.
type Config struct {
	AggregatorProgram string
	SettlementWallets []string
	VenueProgram      string
	SignatureLimit    int
	Commitment        chain.Commitment
	Workers           int
}

// Resolver memoizes provenance lookups. At most one task runs per
// fingerprint; a resolved fingerprint never changes.
type Resolver struct {
	cfg      Config
	source   Source
	recorder Recorder
	logger   *zap.Logger

	wallets map[string]struct{}
	sem     *semaphore.Weighted
	wg      sync.WaitGroup

	mu      sync.Mutex
	results map[model.Fingerprint]model.ProvenanceResult
	pending map[model.Fingerprint]struct{}
}

func NewResolver(cfg Config, source Source, recorder Recorder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AggregatorProgram == "" {
		cfg.AggregatorProgram = JupiterProgramV3
	}
	if len(cfg.SettlementWallets) == 0 {
		cfg.SettlementWallets = DefaultSettlementWallets
	}
	if cfg.VenueProgram == "" {
		cfg.VenueProgram = serum.ProgramIDV3
	}
	if cfg.SignatureLimit <= 0 {
		cfg.SignatureLimit = 10
	}
	if cfg.Commitment == "" {
		cfg.Commitment = chain.CommitmentConfirmed
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	wallets := make(map[string]struct{}, len(cfg.SettlementWallets))
	for _, w := range cfg.SettlementWallets {
		wallets[w] = struct{}{}
	}
	return &Resolver{
		cfg:      cfg,
		source:   source,
		recorder: recorder,
		logger:   logger,
		wallets:  wallets,
		sem:      semaphore.NewWeighted(int64(cfg.Workers)),
		results:  make(map[model.Fingerprint]model.ProvenanceResult),
		pending:  make(map[model.Fingerprint]struct{}),
	}
}

// Resolve returns the known result for the fingerprint, starting a lookup if
// none has run yet. It never blocks on the ledger; an unfinished lookup
// reports ProvenanceUnknown and the caller asks again later.
//
// A non-finite price or quantity cannot key a lookup and resolves to
// ProvenanceEmpty without touching the ledger.
func (r *Resolver) Resolve(venue, subAccount, owner string, price, quantity float64) model.ProvenanceResult {
	fp := model.Fingerprint{Venue: venue, SubAccount: subAccount, Owner: owner, Price: price, Quantity: quantity}
	if !fp.Valid() {
		r.logger.Debug("reject non-finite fingerprint", zap.Stringer("fingerprint", fp))
		return model.EmptyProvenance()
	}

	r.mu.Lock()
	if res, ok := r.results[fp]; ok {
		r.mu.Unlock()
		return res
	}
	if _, ok := r.pending[fp]; ok {
		r.mu.Unlock()
		return model.UnknownProvenance()
	}
	r.pending[fp] = struct{}{}
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(fp)
	return model.UnknownProvenance()
}

// Pending returns the number of unfinished lookups.
func (r *Resolver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Wait blocks until every started lookup has finished.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// Restore seeds previously persisted outcomes. Unresolved and non-finite
// entries are ignored.
func (r *Resolver) Restore(results map[model.Fingerprint]model.ProvenanceResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for fp, res := range results {
		if !res.Resolved() || !fp.Valid() {
			continue
		}
		if _, ok := r.results[fp]; !ok {
			r.results[fp] = res
		}
	}
}

func (r *Resolver) run(fp model.Fingerprint) {
	defer r.wg.Done()
	ctx := context.Background()
	logger := r.logger.With(zap.Stringer("fingerprint", fp))

	// Acquire only fails on a cancelled context.
	_ = r.sem.Acquire(ctx, 1)
	res, err := r.search(ctx, fp, logger)
	r.sem.Release(1)
	if err != nil {
		logger.Warn("provenance lookup failed", zap.Error(err))
		r.finish(ctx, fp, nil, logger)
		return
	}
	r.finish(ctx, fp, &res, logger)
}

// finish clears the pending mark and, for a completed search, memoizes the
// result. A search that hit any remote failure leaves the fingerprint
// unresolved so the next Resolve retries.
func (r *Resolver) finish(ctx context.Context, fp model.Fingerprint, res *model.ProvenanceResult, logger *zap.Logger) {
	r.mu.Lock()
	delete(r.pending, fp)
	if res != nil {
		r.results[fp] = *res
	}
	r.mu.Unlock()

	if res == nil {
		return
	}
	logger.Debug("provenance resolved", zap.Stringer("state", res.State), zap.String("signature", res.Signature))
	if r.recorder != nil {
		if err := r.recorder.RecordProvenance(ctx, fp, *res); err != nil {
			logger.Warn("record provenance failed", zap.Error(err))
		}
	}
}

func (r *Resolver) search(ctx context.Context, fp model.Fingerprint, logger *zap.Logger) (model.ProvenanceResult, error) {
	sigs, err := r.source.GetRecentSignatures(ctx, fp.Owner, r.cfg.SignatureLimit, r.cfg.Commitment)
	if err != nil {
		return model.ProvenanceResult{}, err
	}

	for _, sig := range sigs {
		tx, err := r.source.GetTransaction(ctx, sig, r.cfg.Commitment)
		if err != nil {
			return model.ProvenanceResult{}, fmt.Errorf("transaction %s: %w", sig, err)
		}
		if tx == nil || tx.Message == nil {
			logger.Debug("transaction without message, stop scanning", zap.String("signature", sig))
			break
		}
		if r.matches(tx.Message, fp) {
			return model.PresentProvenance(sig), nil
		}
	}
	return model.EmptyProvenance(), nil
}

func (r *Resolver) matches(msg *model.Message, fp model.Fingerprint) bool {
	for _, ix := range msg.Instructions {
		if msg.ProgramID(ix) != r.cfg.AggregatorProgram {
			continue
		}
		var venueProgram, subAccount, wallet, venue bool
		for _, key := range msg.InstructionAccounts(ix) {
			switch {
			case key == r.cfg.VenueProgram:
				venueProgram = true
			case key == fp.SubAccount:
				subAccount = true
			case key == fp.Venue:
				venue = true
			}
			if _, ok := r.wallets[key]; ok {
				wallet = true
			}
		}
		if venueProgram && subAccount && wallet && venue {
			return true
		}
	}
	return false
}
