package drain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryHandlerRetriesUntilSuccess(t *testing.T) {
	calls := 0
	h := NewRetryHandler(HandlerFunc(func(context.Context, string, string) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}), RetryPolicy{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}, nil)

	if err := h.HandleElement(context.Background(), "k", "e"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls: %d", calls)
	}
}

func TestRetryHandlerGivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	h := NewRetryHandler(HandlerFunc(func(context.Context, string, string) error {
		calls++
		return boom
	}), RetryPolicy{MaxTries: 2, InitialInterval: time.Millisecond}, nil)

	if err := h.HandleElement(context.Background(), "k", "e"); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: %d", calls)
	}
}

func TestRetryHandlerPermanent(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	h := NewRetryHandler(HandlerFunc(func(context.Context, string, string) error {
		calls++
		return Permanent(boom)
	}), RetryPolicy{MaxTries: 5, InitialInterval: time.Millisecond}, nil)

	if err := h.HandleElement(context.Background(), "k", "e"); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls: %d", calls)
	}
}

func TestRetryHandlerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	h := NewRetryHandler(HandlerFunc(func(context.Context, string, string) error {
		calls++
		cancel()
		return errors.New("transient")
	}), RetryPolicy{MaxTries: 10, InitialInterval: time.Second}, nil)

	if err := h.HandleElement(ctx, "k", "e"); err == nil {
		t.Fatalf("want error")
	}
	if calls != 1 {
		t.Fatalf("calls: %d", calls)
	}
}
