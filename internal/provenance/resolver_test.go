package provenance

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketScope/internal/chain"
	"marketScope/internal/model"
	"marketScope/internal/serum"
)

const (
	venue = "venue111"
	sub   = "openorders111"
	owner = "owner111"
)

type fakeSource struct {
	sigs    []string
	sigErr  error
	txs     map[string]*model.Transaction
	gate    chan struct{}
	txCalls atomic.Int64

	mu     sync.Mutex
	limits []int
}

func (f *fakeSource) GetRecentSignatures(_ context.Context, address string, limit int, commitment chain.Commitment) ([]string, error) {
	f.mu.Lock()
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if f.sigErr != nil {
		return nil, f.sigErr
	}
	return f.sigs, nil
}

func (f *fakeSource) GetTransaction(_ context.Context, signature string, commitment chain.Commitment) (*model.Transaction, error) {
	f.txCalls.Add(1)
	tx, ok := f.txs[signature]
	if !ok {
		return nil, model.ErrRemote
	}
	return tx, nil
}

type memRecorder struct {
	mu      sync.Mutex
	results map[model.Fingerprint]model.ProvenanceResult
}

func (m *memRecorder) RecordProvenance(_ context.Context, fp model.Fingerprint, res model.ProvenanceResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results == nil {
		m.results = make(map[model.Fingerprint]model.ProvenanceResult)
	}
	m.results[fp] = res
	return nil
}

func aggregatorTx(sig string, accounts ...string) *model.Transaction {
	keys := append([]string{JupiterProgramV3}, accounts...)
	idx := make([]int, len(accounts))
	for i := range accounts {
		idx[i] = i + 1
	}
	return &model.Transaction{
		Signature: sig,
		Message: &model.Message{
			AccountKeys:  keys,
			Instructions: []model.Instruction{{ProgramIDIndex: 0, Accounts: idx}},
		},
	}
}

func TestResolveDeduplicatesInFlight(t *testing.T) {
	src := &fakeSource{
		sigs: []string{"s1"},
		txs:  map[string]*model.Transaction{"s1": aggregatorTx("s1", "unrelated")},
		gate: make(chan struct{}),
	}
	r := NewResolver(Config{}, src, nil, nil)

	first := r.Resolve(venue, sub, owner, 1.5, 10)
	second := r.Resolve(venue, sub, owner, 1.5, 10)
	assert.Equal(t, model.ProvenanceUnknown, first.State)
	assert.Equal(t, model.ProvenanceUnknown, second.State)
	assert.Equal(t, 1, r.Pending())

	close(src.gate)
	r.Wait()

	assert.Equal(t, int64(1), src.txCalls.Load())
	assert.Equal(t, []int{10}, src.limits)
	assert.Equal(t, 0, r.Pending())

	res := r.Resolve(venue, sub, owner, 1.5, 10)
	assert.Equal(t, model.EmptyProvenance(), res)
	assert.True(t, res.Resolved())
	assert.Equal(t, int64(1), src.txCalls.Load())
}

func TestResolvePresent(t *testing.T) {
	src := &fakeSource{
		sigs: []string{"miss", "hit"},
		txs: map[string]*model.Transaction{
			"miss": aggregatorTx("miss", serum.ProgramIDV3, sub, venue),
			"hit":  aggregatorTx("hit", serum.ProgramIDV3, sub, jupiterUSDCWallet, venue),
		},
	}
	rec := &memRecorder{}
	r := NewResolver(Config{}, src, rec, nil)

	require.False(t, r.Resolve(venue, sub, owner, 2, 3).Resolved())
	r.Wait()

	res := r.Resolve(venue, sub, owner, 2, 3)
	assert.Equal(t, model.PresentProvenance("hit"), res)

	fp := model.Fingerprint{Venue: venue, SubAccount: sub, Owner: owner, Price: 2, Quantity: 3}
	rec.mu.Lock()
	assert.Equal(t, res, rec.results[fp])
	rec.mu.Unlock()

	// a different fingerprint is a separate lookup
	assert.False(t, r.Resolve(venue, sub, owner, 2, 4).Resolved())
	r.Wait()
}

func TestResolveStopsAtMissingMessage(t *testing.T) {
	src := &fakeSource{
		sigs: []string{"s1", "s2"},
		txs: map[string]*model.Transaction{
			"s1": {Signature: "s1"},
			"s2": aggregatorTx("s2", serum.ProgramIDV3, sub, jupiterWSOLWallet, venue),
		},
	}
	r := NewResolver(Config{}, src, nil, nil)

	r.Resolve(venue, sub, owner, 1, 1)
	r.Wait()

	assert.Equal(t, model.EmptyProvenance(), r.Resolve(venue, sub, owner, 1, 1))
	assert.Equal(t, int64(1), src.txCalls.Load())
}

func TestResolveIgnoresOtherPrograms(t *testing.T) {
	tx := aggregatorTx("s1", serum.ProgramIDV3, sub, jupiterUSDTWallet, venue)
	tx.Message.AccountKeys[0] = serum.ProgramIDV3
	src := &fakeSource{
		sigs: []string{"s1"},
		txs:  map[string]*model.Transaction{"s1": tx},
	}
	r := NewResolver(Config{}, src, nil, nil)

	r.Resolve(venue, sub, owner, 1, 1)
	r.Wait()
	assert.Equal(t, model.EmptyProvenance(), r.Resolve(venue, sub, owner, 1, 1))
}

func TestResolveSignatureFailureRetries(t *testing.T) {
	src := &fakeSource{sigErr: errors.New("boom")}
	r := NewResolver(Config{SignatureLimit: 5}, src, nil, nil)

	r.Resolve(venue, sub, owner, 1, 1)
	r.Wait()
	assert.False(t, r.Resolve(venue, sub, owner, 1, 1).Resolved())
	r.Wait()

	assert.Equal(t, []int{5, 5}, src.limits)
}

func TestRestore(t *testing.T) {
	r := NewResolver(Config{}, &fakeSource{}, nil, nil)
	fp := model.Fingerprint{Venue: venue, SubAccount: sub, Owner: owner, Price: 1, Quantity: 1}
	r.Restore(map[model.Fingerprint]model.ProvenanceResult{fp: model.PresentProvenance("sig")})

	assert.Equal(t, model.PresentProvenance("sig"), r.Resolve(venue, sub, owner, 1, 1))
	assert.Equal(t, 0, r.Pending())
}

func TestResolveTransactionFailureRetries(t *testing.T) {
	src := &fakeSource{
		sigs: []string{"broken", "hit"},
		txs: map[string]*model.Transaction{
			"hit": aggregatorTx("hit", serum.ProgramIDV3, sub, jupiterUSDCWallet, venue),
		},
	}
	rec := &memRecorder{}
	r := NewResolver(Config{}, src, rec, nil)

	r.Resolve(venue, sub, owner, 1, 1)
	r.Wait()
	assert.Equal(t, int64(1), src.txCalls.Load())

	// the failed transaction aborts the search without memoizing Empty
	res := r.Resolve(venue, sub, owner, 1, 1)
	assert.False(t, res.Resolved())
	r.Wait()
	assert.Equal(t, int64(2), src.txCalls.Load())

	rec.mu.Lock()
	assert.Empty(t, rec.results)
	rec.mu.Unlock()

	src.txs["broken"] = &model.Transaction{Signature: "broken"}
	r.Resolve(venue, sub, owner, 1, 1)
	r.Wait()
	assert.Equal(t, model.EmptyProvenance(), r.Resolve(venue, sub, owner, 1, 1))
}

func TestResolveRejectsNonFinite(t *testing.T) {
	src := &fakeSource{sigs: []string{"s1"}}
	r := NewResolver(Config{}, src, nil, nil)

	for _, tc := range []struct {
		price, quantity float64
	}{
		{math.NaN(), 1},
		{1, math.NaN()},
		{math.Inf(1), 1},
		{1, math.Inf(-1)},
	} {
		for i := 0; i < 3; i++ {
			assert.Equal(t, model.EmptyProvenance(), r.Resolve(venue, sub, owner, tc.price, tc.quantity))
			assert.Equal(t, 0, r.Pending())
		}
	}
	r.Wait()

	assert.Empty(t, src.limits)
	assert.Equal(t, int64(0), src.txCalls.Load())

	fp := model.Fingerprint{Venue: venue, SubAccount: sub, Owner: owner, Price: math.NaN(), Quantity: 1}
	r.Restore(map[model.Fingerprint]model.ProvenanceResult{fp: model.PresentProvenance("sig")})
	assert.Equal(t, model.EmptyProvenance(), r.Resolve(venue, sub, owner, math.NaN(), 1))
}
