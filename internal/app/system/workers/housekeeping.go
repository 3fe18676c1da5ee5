package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// FeedEvictor closes feeds idle for longer than idle.
type FeedEvictor interface {
	EvictIdle(idle time.Duration) int
}

// Sweeper drops rate limiter buckets idle for longer than idle.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// StateCleaner removes expired OAuth states.
type StateCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Housekeeping is a background worker that evicts idle feeds, sweeps rate
// limiter buckets and removes expired OAuth states. Any dependency may be
// nil.
type Housekeeping struct {
	feeds    FeedEvictor
	limiter  Sweeper
	states   StateCleaner
	log      *zap.Logger
	interval time.Duration
	idle     time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHousekeeping creates the worker.
//
// Parameters:
//   - interval: how often to run (e.g., 1 minute)
//   - idle: how long a feed or limiter bucket may sit unused (e.g., 15 minutes)
func NewHousekeeping(feeds FeedEvictor, limiter Sweeper, states StateCleaner, logger *zap.Logger, interval, idle time.Duration) *Housekeeping {
	return &Housekeeping{
		feeds:    feeds,
		limiter:  limiter,
		states:   states,
		log:      logger,
		interval: interval,
		idle:     idle,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Housekeeping) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("housekeeping worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("idle", w.idle))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *Housekeeping) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("housekeeping worker stopped")
}

func (w *Housekeeping) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs one pass.
func (w *Housekeeping) RunOnce() {
	if w.feeds != nil {
		if n := w.feeds.EvictIdle(w.idle); n > 0 {
			w.log.Info("evicted idle feeds", zap.Int("count", n))
		}
	}
	if w.limiter != nil {
		if n := w.limiter.Sweep(w.idle); n > 0 {
			w.log.Debug("swept rate limiter buckets", zap.Int("count", n))
		}
	}
	if w.states != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
		defer cancel()
		n, err := w.states.CleanupExpired(ctx)
		if err != nil {
			w.log.Error("failed to remove expired oauth states", zap.Error(err))
			return
		}
		if n > 0 {
			w.log.Info("removed expired oauth states", zap.Int64("count", n))
		}
	}
}
