package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the Redis store wrapper.
type Options struct {
	// Addrs lists server addresses. More than one selects a cluster client.
	Addrs    []string
	Username string
	Password string
	DB       int
	PoolSize int
	// DialTimeout also bounds the initial ping (default 3s).
	DialTimeout time.Duration
	// Metrics observes command latencies and outcomes. Optional.
	Metrics MetricsHook
}

// MetricsHook is a minimal hook surface for store observations.
type MetricsHook interface {
	ObserveCommand(label string, elapsed time.Duration, err error)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveCommand(string, time.Duration, error) {}

// Runner executes labelled commands against the store. Store implements it;
// services depend on the interface.
type Runner interface {
	Run(ctx context.Context, label string, fn func(redis.Cmdable) error) error
	Pipelined(ctx context.Context, label string, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Conn(ctx context.Context) (*Conn, error)
}

// Store wraps a go-redis client.
type Store struct {
	client  redis.UniversalClient
	metrics MetricsHook
}

// Open builds a client from opts and verifies connectivity.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if len(opts.Addrs) == 0 {
		return nil, errors.New("redisstore: Options.Addrs is required")
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 3 * time.Second
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       opts.Addrs,
		Username:    opts.Username,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		DialTimeout: opts.DialTimeout,
	})
	pctx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, &TechnicalError{Op: "ping", Err: err}
	}
	return New(client, opts.Metrics), nil
}

// New wraps an existing client.
func New(client redis.UniversalClient, metrics MetricsHook) *Store {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Store{client: client, metrics: metrics}
}

// Client exposes the underlying client (internal use only).
func (s *Store) Client() redis.UniversalClient { return s.client }

// Close closes the client and its pool.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.Run(ctx, "ping", func(c redis.Cmdable) error { return c.Ping(ctx).Err() })
}

// Run executes fn against the shared pool, classifying its error.
func (s *Store) Run(ctx context.Context, label string, fn func(redis.Cmdable) error) error {
	return run(s.metrics, label, func() error { return fn(s.client) })
}

// Pipelined sends the commands queued by fn in one round trip.
func (s *Store) Pipelined(ctx context.Context, label string, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	var cmds []redis.Cmder
	err := run(s.metrics, label, func() error {
		var err error
		cmds, err = s.client.Pipelined(ctx, fn)
		return err
	})
	return cmds, err
}

// Conn pins one pooled connection. Cluster clients have no single
// connection to pin; they get a pass-through Conn over the client.
func (s *Store) Conn(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c, ok := s.client.(*redis.Client); ok {
		cn := c.Conn()
		return &Conn{cmd: cn, release: cn.Close, metrics: s.metrics}, nil
	}
	return &Conn{cmd: s.client, release: func() error { return nil }, metrics: s.metrics}, nil
}

// Conn is a scoped connection held for a sequence of commands.
type Conn struct {
	cmd     redis.Cmdable
	release func() error
	metrics MetricsHook
	closed  bool
}

// Run executes fn on the pinned connection.
func (c *Conn) Run(ctx context.Context, label string, fn func(redis.Cmdable) error) error {
	if c.closed {
		return &TechnicalError{Op: label, Err: errors.New("connection closed")}
	}
	return run(c.metrics, label, func() error { return fn(c.cmd) })
}

// Close returns the connection to the pool. Safe to call twice.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.release()
}

func run(m MetricsHook, label string, fn func() error) error {
	start := time.Now()
	err := fn()
	m.ObserveCommand(label, time.Since(start), err)
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return err
	}
	return &TechnicalError{Op: label, Err: err}
}
