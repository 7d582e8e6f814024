package serial

import (
	"time"

	"github.com/rzbill/serialflo/internal/stream"
)

type triggerOptions struct {
	ttl     time.Duration
	suffix  string
	msgType stream.MessageType
}

// TriggerOption customises a single Trigger call.
type TriggerOption func(*triggerOptions)

// WithTTL overrides the list and token lifetime for this trigger.
func WithTTL(d time.Duration) TriggerOption {
	return func(o *triggerOptions) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithCorrelationSuffix attaches a correlation id suffix to the published entry.
func WithCorrelationSuffix(s string) TriggerOption {
	return func(o *triggerOptions) { o.suffix = s }
}

// WithType selects FIFO or LIFO draining for the key.
func WithType(t stream.MessageType) TriggerOption {
	return func(o *triggerOptions) {
		if t != stream.TypeUnspecified {
			o.msgType = t
		}
	}
}
