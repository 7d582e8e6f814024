package drain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	redisstore "github.com/rzbill/serialflo/internal/storage/redis"
	"github.com/rzbill/serialflo/internal/stream"
	"github.com/rzbill/serialflo/pkg/log"
)

const defaultQueueTTL = 5 * time.Minute

// Config holds executor settings.
type Config struct {
	// QueueTTL is the minimum remaining lifetime of the list and its token
	// after every iteration. Longer TTLs are never shortened.
	QueueTTL time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithEntryHandler sets the handler for entries without a message type.
func WithEntryHandler(h EntryHandler) Option {
	return func(x *Executor) { x.entries = h }
}

// WithMetrics records drain outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(x *Executor) { x.metrics = m }
}

// WithLogger sets the executor logger.
func WithLogger(l log.Logger) Option {
	return func(x *Executor) { x.logger = l }
}

// Executor dispatches stream entries by message type.
type Executor struct {
	runner   redisstore.Runner
	elements ElementHandler
	entries  EntryHandler
	cfg      Config
	metrics  *Metrics
	logger   log.Logger
}

// NewExecutor returns an executor that passes list elements to elements.
func NewExecutor(runner redisstore.Runner, elements ElementHandler, cfg Config, opts ...Option) *Executor {
	if cfg.QueueTTL <= 0 {
		cfg.QueueTTL = defaultQueueTTL
	}
	x := &Executor{runner: runner, elements: elements, cfg: cfg}
	for _, o := range opts {
		o(x)
	}
	if x.logger == nil {
		x.logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	x.logger = x.logger.With(log.Component("drain"))
	if x.entries == nil {
		x.entries = discardEntries{logger: x.logger}
	}
	return x
}

// Handle processes one delivered entry. A nil error means the entry may be
// acknowledged.
func (x *Executor) Handle(ctx context.Context, e *stream.Entry) error {
	switch t := e.Type(); t {
	case stream.TypeFIFO, stream.TypeLIFO:
		key := e.Message()
		if key == "" {
			return fmt.Errorf("%w: entry %s names no list", stream.ErrInvalidArgument, e.ID)
		}
		_, err := x.Drain(ctx, key, t)
		return err
	case stream.TypeUnspecified:
		return x.handleEntry(ctx, e)
	default:
		return fmt.Errorf("%w: message type %d", stream.ErrInvalidArgument, t)
	}
}

// Drain works through the list at key until it is empty, a newer epoch takes
// over, or ctx ends. Handler failures are logged and counted; store failures
// abort the drain and are returned.
func (x *Executor) Drain(ctx context.Context, key string, t stream.MessageType) (res Result, err error) {
	var src, dst string
	var lremCount int64
	switch t {
	case stream.TypeFIFO:
		// head to tail; the rotated element is then the last occurrence
		src, dst, lremCount = "LEFT", "RIGHT", -1
	case stream.TypeLIFO:
		src, dst, lremCount = "RIGHT", "LEFT", 1
	default:
		return res, fmt.Errorf("%w: drain needs FIFO or LIFO, got %q", stream.ErrInvalidArgument, t.String())
	}

	conn, err := x.runner.Conn(ctx)
	if err != nil {
		return res, err
	}
	defer conn.Close()

	start := time.Now()
	defer func() {
		reason := res.Stopped.String()
		if err != nil && res.Stopped != StopCanceled {
			reason = "error"
		}
		x.metrics.observeDrain(t, reason, time.Since(start))
	}()

	logger := x.logger.With(log.Str("key", key), log.Str("type", t.String()))
	tokenKey := stream.TokenKey(key)
	snapshot, err := x.token(ctx, conn, tokenKey)
	if err != nil {
		return res, err
	}

	for {
		if ctx.Err() != nil {
			res.Stopped = StopCanceled
			return res, ctx.Err()
		}

		// Checked before rotating so a yielded list keeps its order.
		current, err := x.token(ctx, conn, tokenKey)
		if err != nil {
			return res, err
		}
		if snapshot != "" && current != "" && snapshot != current {
			res.Stopped = StopEpochChanged
			logger.Info("newer drain owns key, yielding", log.Int("processed", res.Processed))
			return res, nil
		}

		var element string
		moved := true
		err = conn.Run(ctx, "lmove", func(c redis.Cmdable) error {
			var err error
			element, err = c.LMove(ctx, key, key, src, dst).Result()
			return err
		})
		if errors.Is(err, redis.Nil) {
			moved = false
		} else if err != nil {
			return res, err
		}

		if err := x.refresh(ctx, conn, key, tokenKey); err != nil {
			return res, err
		}

		if !moved {
			res.Stopped = StopEmpty
			logger.Debug("list drained", log.Int("processed", res.Processed), log.Int("failed", res.Failed))
			return res, nil
		}

		herr := x.process(ctx, key, element)
		if herr != nil {
			res.Failed++
			logger.Error("element handler failed",
				log.Str("handler", fmt.Sprintf("%T", x.elements)),
				log.Str("element", element),
				log.Err(herr))
		} else {
			res.Processed++
		}
		x.metrics.observeElement(t, herr == nil)

		// The element was handled; remove it even if ctx ended meanwhile.
		rctx := context.WithoutCancel(ctx)
		if err := conn.Run(rctx, "lrem", func(c redis.Cmdable) error {
			return c.LRem(rctx, key, lremCount, element).Err()
		}); err != nil {
			return res, err
		}
	}
}

// refresh keeps the list and token alive for at least QueueTTL. A longer
// lifetime set at trigger time is left alone.
func (x *Executor) refresh(ctx context.Context, conn *redisstore.Conn, keys ...string) error {
	return conn.Run(ctx, "expire", func(c redis.Cmdable) error {
		for _, k := range keys {
			if err := c.ExpireNX(ctx, k, x.cfg.QueueTTL).Err(); err != nil {
				return err
			}
			if err := c.ExpireGT(ctx, k, x.cfg.QueueTTL).Err(); err != nil {
				return err
			}
		}
		return nil
	})
}

// token returns the current token, or "" when none is set.
func (x *Executor) token(ctx context.Context, conn *redisstore.Conn, tokenKey string) (string, error) {
	var v string
	err := conn.Run(ctx, "get-token", func(c redis.Cmdable) error {
		var err error
		v, err = c.Get(ctx, tokenKey).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (x *Executor) process(ctx context.Context, key, element string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return x.elements.HandleElement(ctx, key, element)
}

func (x *Executor) handleEntry(ctx context.Context, e *stream.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("entry handler panic: %v", r)
		}
	}()
	return x.entries.HandleEntry(ctx, e)
}

type discardEntries struct {
	logger log.Logger
}

func (d discardEntries) HandleEntry(_ context.Context, e *stream.Entry) error {
	d.logger.Warn("no entry handler configured, dropping entry", log.Str("entry", e.ID.String()))
	return nil
}
