package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rzbill/serialflo/internal/stream"
	"github.com/rzbill/serialflo/pkg/log"
)

// GroupLog is the slice of the Log Service a worker needs.
type GroupLog interface {
	EnsureGroup(ctx context.Context) error
	ConsumeOne(ctx context.Context, consumerID string) (*stream.Entry, error)
	Ack(ctx context.Context, entryID string) (int64, error)
}

// Handler processes one entry. A nil error acknowledges it.
type Handler interface {
	Handle(ctx context.Context, e *stream.Entry) error
}

// Worker is one consumer group member.
type Worker struct {
	id      string
	log     GroupLog
	handler Handler
	filter  Filter
	logger  log.Logger
	metrics *Metrics

	now        func() time.Time
	newBackOff func() backoff.BackOff
}

func newWorker(id string, gl GroupLog, h Handler, f Filter, logger log.Logger, m *Metrics) *Worker {
	return &Worker{
		id:      id,
		log:     gl,
		handler: h,
		filter:  f,
		logger:  logger.With(log.Str("consumer", id)),
		metrics: m,
		now:     time.Now,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// ID returns the consumer name used with the group.
func (w *Worker) ID() string { return w.id }

// Run consumes until ctx ends. It returns nil on cancellation and an error
// only when reads can never succeed.
func (w *Worker) Run(ctx context.Context) error {
	bo := w.newBackOff()
	for {
		if ctx.Err() != nil {
			return nil
		}
		e, err := w.log.ConsumeOne(ctx, w.id)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, stream.ErrInvalidArgument) {
				return err
			}
			w.metrics.readError()
			wait := bo.NextBackOff()
			w.logger.Warn("read failed, backing off", log.Dur("wait", wait), log.Err(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()
		if e == nil {
			continue
		}
		w.process(ctx, e)
	}
}

func (w *Worker) process(ctx context.Context, e *stream.Entry) {
	now := w.now()
	logger := w.logger.With(log.Str("entry", e.ID.String()))

	switch {
	case !w.filter.Match(e, now):
		w.metrics.entry("filtered")
		w.ack(ctx, e, logger)
		return
	case e.Expired(now):
		logger.Warn("entry expired before processing, dropping",
			log.Str("message", e.Message()),
			log.Str("ttl", e.TTL().UTC().Format(time.RFC3339Nano)))
		w.metrics.entry("expired")
		w.ack(ctx, e, logger)
		return
	}

	err := w.handler.Handle(ctx, e)
	switch {
	case err == nil:
		w.metrics.entry("handled")
		w.ack(ctx, e, logger)
	case errors.Is(err, stream.ErrInvalidArgument):
		logger.Warn("malformed entry, dropping", log.Err(err))
		w.metrics.entry("invalid")
		w.ack(ctx, e, logger)
	default:
		logger.Error("entry handling failed, leaving pending", log.Err(err))
		w.metrics.entry("failed")
	}
}

func (w *Worker) ack(ctx context.Context, e *stream.Entry, logger log.Logger) {
	// the entry is done; acknowledge it even during shutdown
	if _, err := w.log.Ack(context.WithoutCancel(ctx), e.ID.String()); err != nil {
		logger.Error("ack failed", log.Err(err))
	}
}
