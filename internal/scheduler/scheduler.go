// Package scheduler drives periodic venue registry refreshes.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"marketScope/internal/registry"
)

// Refresher rebuilds the venue index.
type Refresher interface {
	Refresh(ctx context.Context) (registry.RefreshResult, error)
}

// HookFunc runs after every completed refresh.
type HookFunc func(ctx context.Context, res registry.RefreshResult)

// Config holds scheduler configuration.
type Config struct {
	Interval time.Duration // default 5m
}

// Scheduler refreshes once at start, then on every tick. A trigger that
// arrives while a refresh is running is skipped.
type Scheduler struct {
	cfg       Config
	refresher Refresher
	hooks     []HookFunc
	logger    *zap.Logger

	busy    atomic.Bool
	skipped atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, refresher Refresher, logger *zap.Logger, hooks ...HookFunc) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Scheduler{cfg: cfg, refresher: refresher, hooks: hooks, logger: logger}
}

// Start performs the initial refresh synchronously and then starts the
// ticker loop. The loop runs until Stop or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.refresh(s.ctx); err != nil {
		s.cancel()
		return err
	}

	s.wg.Add(1)
	go s.run()

	s.logger.Info("scheduler started", zap.Duration("interval", s.cfg.Interval))
	return nil
}

// Stop cancels the loop and waits for it, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped", zap.Int64("skipped_ticks", s.skipped.Load()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger requests an out-of-band refresh. It returns false if a refresh is
// already running.
func (s *Scheduler) Trigger() bool {
	if s.ctx == nil {
		return false
	}
	if s.busy.Load() {
		s.skipped.Add(1)
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.refresh(s.ctx)
	}()
	return true
}

// Skipped returns how many triggers were dropped because a refresh was running.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.refresh(s.ctx); err != nil && s.ctx.Err() == nil {
				s.logger.Warn("scheduled refresh failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) (registry.RefreshResult, error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.Debug("refresh still running, skip")
		return registry.RefreshResult{}, nil
	}
	defer s.busy.Store(false)

	res, err := s.refresher.Refresh(ctx)
	if err != nil {
		return res, err
	}
	for _, hook := range s.hooks {
		hook(ctx, res)
	}
	return res, nil
}
