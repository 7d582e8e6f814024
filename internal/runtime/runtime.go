package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	cfgpkg "github.com/rzbill/serialflo/internal/config"
	"github.com/rzbill/serialflo/internal/consumer"
	"github.com/rzbill/serialflo/internal/drain"
	"github.com/rzbill/serialflo/internal/serial"
	redisstore "github.com/rzbill/serialflo/internal/storage/redis"
	"github.com/rzbill/serialflo/internal/stream"
	"github.com/rzbill/serialflo/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger log.Logger
	// Registry receives every collector. A fresh registry is created when nil.
	Registry *prometheus.Registry
	// Client replaces the client built from Config.Redis.
	Client redis.UniversalClient
	// Elements processes per-key list elements. Defaults to a handler that logs them.
	Elements drain.ElementHandler
	// Entries processes entries published without a message type.
	Entries drain.EntryHandler
}

// Runtime wires the store, the stream services and the consumer pool for one process.
type Runtime struct {
	config   cfgpkg.Config
	logger   log.Logger
	registry *prometheus.Registry

	store     *redisstore.Store
	log       *stream.Service
	publisher *stream.StreamPublisher
	serial    *serial.Controller
	executor  *drain.Executor
	pool      *consumer.Pool
	reclaimer *consumer.Reclaimer
}

// Open connects to Redis and builds all components without starting consumers.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	msgType, err := stream.ParseMessageType(cfg.Serial.Type)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	redisstore.RedirectDriverLog(logger)

	storeMetrics := redisstore.NewPromMetrics(reg)
	var store *redisstore.Store
	if opts.Client != nil {
		store = redisstore.New(opts.Client, storeMetrics)
		if err := store.Ping(ctx); err != nil {
			return nil, err
		}
	} else {
		store, err = redisstore.Open(ctx, redisstore.Options{
			Addrs:       cfg.Redis.Addrs,
			Username:    cfg.Redis.Username,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout(),
			Metrics:     storeMetrics,
		})
		if err != nil {
			return nil, err
		}
	}

	rt := &Runtime{config: cfg, logger: logger, registry: reg, store: store}
	rt.log = stream.NewService(store, stream.GroupConfig{
		Group:       cfg.Group.Name,
		Enabled:     cfg.Group.Enabled,
		ReadTimeout: cfg.Group.ReadTimeout(),
		DefaultTTL:  cfg.Group.DefaultTTL(),
	}, logger.With(log.Component("stream")))
	rt.publisher = stream.NewStreamPublisher(store, cfg.Group.Name, cfg.Group.MaxLen)
	rt.serial = serial.NewController(store, rt.publisher, serial.Config{
		Type: msgType,
		TTL:  cfg.Group.DefaultTTL(),
	}, logger)

	elements := opts.Elements
	if elements == nil {
		elements = logElements{logger: logger.With(log.Component("elements"))}
	}
	elements = drain.NewRetryHandler(elements, drain.RetryPolicy{
		MaxTries:        cfg.Retry.MaxTries,
		InitialInterval: cfg.Retry.Initial(),
		MaxInterval:     cfg.Retry.Max(),
	}, logger.With(log.Component("retry")))
	drainOpts := []drain.Option{drain.WithLogger(logger), drain.WithMetrics(drain.NewMetrics(reg))}
	if opts.Entries != nil {
		drainOpts = append(drainOpts, drain.WithEntryHandler(opts.Entries))
	}
	rt.executor = drain.NewExecutor(store, elements, drain.Config{QueueTTL: cfg.Serial.QueueTTL()}, drainOpts...)

	consumerMetrics := consumer.NewMetrics(reg)
	rt.pool, err = consumer.NewPool(rt.log, rt.executor, consumer.PoolConfig{
		Enabled:   cfg.Group.Enabled,
		Consumers: cfg.Group.Consumers,
		Prefix:    cfg.Group.ConsumerPrefix,
		Filter:    cfg.Group.Filter,
	}, logger, consumerMetrics)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	rt.reclaimer = consumer.NewReclaimer(rt.log, consumer.ReclaimerConfig{
		Enabled:  cfg.Group.Enabled,
		Idle:     cfg.Group.ReclaimIdle(),
		Interval: cfg.Group.ReclaimInterval(),
	}, logger, consumerMetrics)
	return rt, nil
}

// Start launches the consumer pool and reclaimer. A disabled group only
// serves producers and admin calls.
func (r *Runtime) Start(ctx context.Context) error {
	err := r.pool.Start(ctx)
	if errors.Is(err, stream.ErrGroupDisabled) {
		r.logger.Warn("consumer group disabled, not consuming", log.Str("group", r.config.Group.Name))
		return nil
	}
	if err != nil {
		return err
	}
	r.reclaimer.Start(ctx)
	return nil
}

// Close stops consumers and closes the store.
func (r *Runtime) Close() error {
	if r.pool != nil {
		r.pool.Stop()
	}
	if r.reclaimer != nil {
		r.reclaimer.Stop()
	}
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// CheckHealth pings the store.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("store not open")
	}
	return r.store.Ping(ctx)
}

// Log returns the Log Service for the configured group.
func (r *Runtime) Log() *stream.Service { return r.log }

// Serial returns the trigger controller.
func (r *Runtime) Serial() *serial.Controller { return r.serial }

// Executor returns the drain executor.
func (r *Runtime) Executor() *drain.Executor { return r.executor }

// Pool returns the consumer pool.
func (r *Runtime) Pool() *consumer.Pool { return r.pool }

// Registry returns the metrics registry.
func (r *Runtime) Registry() *prometheus.Registry { return r.registry }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

type logElements struct{ logger log.Logger }

func (h logElements) HandleElement(_ context.Context, key, element string) error {
	h.logger.Info("element", log.Str("key", key), log.Str("element", element))
	return nil
}
