package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/rzbill/serialflo/pkg/log"
)

// Reclaimable acknowledges pending entries idle for at least idle.
type Reclaimable interface {
	ReclaimExpired(ctx context.Context, idle time.Duration) (int64, error)
}

// ReclaimerConfig configures a Reclaimer.
type ReclaimerConfig struct {
	Enabled  bool
	Idle     time.Duration // default 5m
	Interval time.Duration // default 1m
}

// Reclaimer periodically clears stale pending entries. Work for a key lives
// in its list, so a stale entry is acknowledged rather than redelivered.
type Reclaimer struct {
	target   Reclaimable
	idle     time.Duration
	interval time.Duration
	enabled  bool
	logger   log.Logger
	metrics  *Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReclaimer creates a reclaimer over target.
func NewReclaimer(target Reclaimable, cfg ReclaimerConfig, logger log.Logger, m *Metrics) *Reclaimer {
	if cfg.Idle <= 0 {
		cfg.Idle = 5 * time.Minute
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	return &Reclaimer{
		target:   target,
		idle:     cfg.Idle,
		interval: cfg.Interval,
		enabled:  cfg.Enabled,
		logger:   logger.With(log.Component("reclaimer")),
		metrics:  m,
	}
}

// Start launches the periodic sweep. A disabled reclaimer stays idle.
func (r *Reclaimer) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled || r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.run(ctx)
}

// Stop ends the sweep loop and waits for it.
func (r *Reclaimer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.cancel = nil
}

func (r *Reclaimer) run(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reclaimer started", log.Dur("interval", r.interval), log.Dur("idle", r.idle))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reclaimer stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("reclaim sweep failed", log.Err(err))
			}
		}
	}
}

// Sweep runs one reclaim pass.
func (r *Reclaimer) Sweep(ctx context.Context) (int64, error) {
	n, err := r.target.ReclaimExpired(ctx, r.idle)
	r.metrics.reclaim(n)
	if n > 0 {
		r.logger.Info("reclaimed idle pending entries", log.Int64("count", n))
	}
	return n, err
}
