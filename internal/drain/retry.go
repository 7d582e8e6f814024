package drain

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rzbill/serialflo/pkg/log"
)

// RetryPolicy bounds the attempts spent on one element.
type RetryPolicy struct {
	// MaxTries counts the first attempt. Values below 1 mean 1.
	MaxTries        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error { return backoff.Permanent(err) }

// RetryHandler retries a wrapped ElementHandler with exponential backoff.
type RetryHandler struct {
	next   ElementHandler
	policy RetryPolicy
	logger log.Logger
}

// NewRetryHandler wraps next with policy.
func NewRetryHandler(next ElementHandler, policy RetryPolicy, logger log.Logger) *RetryHandler {
	if policy.MaxTries < 1 {
		policy.MaxTries = 1
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = 100 * time.Millisecond
	}
	if policy.MaxInterval < policy.InitialInterval {
		policy.MaxInterval = policy.InitialInterval
	}
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	return &RetryHandler{next: next, policy: policy, logger: logger}
}

func (h *RetryHandler) HandleElement(ctx context.Context, key, element string) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = h.policy.InitialInterval
	eb.MaxInterval = h.policy.MaxInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(h.policy.MaxTries-1)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return h.next.HandleElement(ctx, key, element)
	}, b, func(err error, wait time.Duration) {
		h.logger.Warn("element attempt failed, retrying",
			log.Str("key", key),
			log.Int("attempt", attempt),
			log.Dur("wait", wait),
			log.Err(err))
	})
}
