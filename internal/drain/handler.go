package drain

import (
	"context"

	"github.com/rzbill/serialflo/internal/stream"
)

// ElementHandler processes one element taken from a per-key list.
// Implementations should be idempotent: an element can be seen again after a
// crash or a duplicate trigger.
type ElementHandler interface {
	HandleElement(ctx context.Context, key, element string) error
}

// HandlerFunc adapts a function to ElementHandler.
type HandlerFunc func(ctx context.Context, key, element string) error

func (f HandlerFunc) HandleElement(ctx context.Context, key, element string) error {
	return f(ctx, key, element)
}

// EntryHandler processes entries published without a message type.
type EntryHandler interface {
	HandleEntry(ctx context.Context, e *stream.Entry) error
}

// EntryHandlerFunc adapts a function to EntryHandler.
type EntryHandlerFunc func(ctx context.Context, e *stream.Entry) error

func (f EntryHandlerFunc) HandleEntry(ctx context.Context, e *stream.Entry) error {
	return f(ctx, e)
}
