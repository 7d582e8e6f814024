package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rzbill/serialflo/internal/stream"
	"github.com/rzbill/serialflo/pkg/log"
)

// PoolConfig configures a worker pool.
type PoolConfig struct {
	Enabled   bool
	Consumers int
	// Prefix is prepended to generated consumer names.
	Prefix string
	// Filter is an optional CEL expression; see Filter.
	Filter string
}

// Pool runs a fixed set of workers against one group.
type Pool struct {
	cfg     PoolConfig
	log     GroupLog
	handler Handler
	filter  Filter
	logger  log.Logger
	metrics *Metrics

	mu      sync.Mutex
	workers []*Worker
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPool validates cfg and compiles its filter.
func NewPool(gl GroupLog, h Handler, cfg PoolConfig, logger log.Logger, m *Metrics) (*Pool, error) {
	if cfg.Consumers <= 0 {
		cfg.Consumers = 1
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "consumer"
	}
	f, err := NewFilter(cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: filter: %v", stream.ErrInvalidArgument, err)
	}
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	return &Pool{
		cfg:     cfg,
		log:     gl,
		handler: h,
		filter:  f,
		logger:  logger.With(log.Component("consumer")),
		metrics: m,
	}, nil
}

// Start ensures the group exists and launches the workers.
func (p *Pool) Start(ctx context.Context) error {
	if !p.cfg.Enabled {
		return stream.ErrGroupDisabled
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("consumer pool already started")
	}
	if err := p.log.EnsureGroup(ctx); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.workers = p.workers[:0]
	for i := 0; i < p.cfg.Consumers; i++ {
		w := newWorker(p.cfg.Prefix+"-"+uuid.NewString(), p.log, p.handler, p.filter, p.logger, p.metrics)
		p.workers = append(p.workers, w)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			if err := w.Run(runCtx); err != nil {
				p.logger.Error("worker exited", log.Str("consumer", w.ID()), log.Err(err))
			}
		}()
	}
	p.logger.Info("consumer pool started", log.Int("consumers", p.cfg.Consumers))
	return nil
}

// Stop cancels the workers and waits for in-flight entries to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	p.wg.Wait()
	p.logger.Info("consumer pool stopped")
}

// IDs returns the consumer names of the running workers.
func (p *Pool) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.workers))
	for _, w := range p.workers {
		ids = append(ids, w.ID())
	}
	return ids
}
