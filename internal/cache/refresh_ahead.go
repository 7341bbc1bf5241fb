// Package cache implements a keyed stale-while-revalidate cache whose
// snapshots are ordered by ledger slot.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the raw bytes for key. The remote source must not answer
// from a slot below minSlot.
type FetchFunc[K ~string] func(ctx context.Context, key K, minSlot uint64) (slot uint64, raw []byte, err error)

// DecodeFunc turns raw bytes into a payload.
type DecodeFunc[K ~string, P any] func(key K, raw []byte) (P, error)

// Snapshot is an accepted payload and the slot it was observed at.
type Snapshot[P any] struct {
	Payload   P
	Slot      uint64
	FetchedAt time.Time
}

// Config controls a RefreshAhead cache.
type Config struct {
	Name string
	// TTL is the age after which a read triggers a background refresh.
	TTL time.Duration
	// Timeout bounds one refresh; zero leaves it to the fetch function.
	Timeout time.Duration
	Now     func() time.Time
}

// RefreshAhead serves cached snapshots immediately and refreshes them in the
// background once they are older than the TTL. Per key, accepted slots never
// decrease: a response older than the last accepted slot is dropped.
type RefreshAhead[K ~string, P any] struct {
	cfg    Config
	fetch  FetchFunc[K]
	decode DecodeFunc[K, P]
	logger *zap.Logger

	mu        sync.RWMutex
	snapshots map[K]Snapshot[P]
	cursors   map[K]uint64

	inflight singleflight.Group
}

func New[K ~string, P any](cfg Config, fetch FetchFunc[K], decode DecodeFunc[K, P], logger *zap.Logger) *RefreshAhead[K, P] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RefreshAhead[K, P]{
		cfg:       cfg,
		fetch:     fetch,
		decode:    decode,
		logger:    logger.With(zap.String("cache", cfg.Name)),
		snapshots: make(map[K]Snapshot[P]),
		cursors:   make(map[K]uint64),
	}
}

// Get returns the snapshot for key. With nothing cached it waits for the
// load; ok is false if that load failed or ctx ended first. A stale snapshot is
// returned as is while a single background refresh runs.
func (c *RefreshAhead[K, P]) Get(ctx context.Context, key K) (Snapshot[P], bool) {
	snap, ok := c.Peek(key)
	if !ok {
		select {
		case <-c.load(key):
			return c.Peek(key)
		case <-ctx.Done():
			return Snapshot[P]{}, false
		}
	}

	if c.cfg.Now().Sub(snap.FetchedAt) > c.cfg.TTL {
		c.load(key)
	}
	return snap, true
}

// load joins or starts the single refresh for key. The refresh runs detached
// from any caller so one cancelled waiter does not fail the others.
func (c *RefreshAhead[K, P]) load(key K) <-chan singleflight.Result {
	return c.inflight.DoChan(string(key), func() (interface{}, error) {
		ctx := context.Background()
		if c.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
		}
		c.refresh(ctx, key)
		return nil, nil
	})
}

// Peek returns the cached snapshot without fetching.
func (c *RefreshAhead[K, P]) Peek(key K) (Snapshot[P], bool) {
	c.mu.RLock()
	snap, ok := c.snapshots[key]
	c.mu.RUnlock()
	return snap, ok
}

// Cursor returns the last accepted slot for key.
func (c *RefreshAhead[K, P]) Cursor(key K) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursors[key]
}

// Invalidate drops the snapshot for key so the next Get loads synchronously.
// The cursor is kept; slots still may not go backwards.
func (c *RefreshAhead[K, P]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.snapshots, key)
	c.mu.Unlock()
}

// Len returns the number of cached keys.
func (c *RefreshAhead[K, P]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshots)
}

func (c *RefreshAhead[K, P]) refresh(ctx context.Context, key K) {
	minSlot := c.Cursor(key)

	slot, raw, err := c.fetch(ctx, key, minSlot)
	if err != nil {
		c.logger.Warn("fetch failed, keeping last snapshot", zap.String("key", string(key)), zap.Uint64("min_slot", minSlot), zap.Error(err))
		return
	}
	if slot < minSlot {
		c.logger.Debug("discard stale slot", zap.String("key", string(key)), zap.Uint64("slot", slot), zap.Uint64("cursor", minSlot))
		return
	}

	payload, err := c.decode(key, raw)
	if err != nil {
		c.logger.Warn("decode failed, keeping last snapshot", zap.String("key", string(key)), zap.Uint64("slot", slot), zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.cursors[key]; ok && slot < cur {
		return
	}
	c.snapshots[key] = Snapshot[P]{Payload: payload, Slot: slot, FetchedAt: c.cfg.Now()}
	c.cursors[key] = slot
}
