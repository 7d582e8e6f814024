package consumer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rzbill/serialflo/internal/stream"
	"github.com/rzbill/serialflo/pkg/id"
)

func consumeWithoutAck(t *testing.T, e *env, n int) {
	t.Helper()
	ctx := context.Background()
	pub := stream.NewStreamPublisher(e.store, "g", 0)
	for i := 0; i < n; i++ {
		if _, err := pub.Publish(ctx, "m", nil); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	for i := 0; i < n; i++ {
		if en, err := e.svc.ConsumeOne(ctx, "crashed"); err != nil || en == nil {
			t.Fatalf("consume: %v %v", en, err)
		}
	}
}

func TestReclaimerSweep(t *testing.T) {
	e := newEnv(t)
	if err := e.svc.EnsureGroup(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	consumeWithoutAck(t, e, 3)
	time.Sleep(30 * time.Millisecond)

	r := NewReclaimer(e.svc, ReclaimerConfig{Enabled: true, Idle: 20 * time.Millisecond}, nil, nil)
	n, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3 reclaimed, got %d", n)
	}
}

func TestReclaimerRunsPeriodically(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if err := e.svc.EnsureGroup(ctx); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	consumeWithoutAck(t, e, 2)

	r := NewReclaimer(e.svc, ReclaimerConfig{Enabled: true, Idle: 10 * time.Millisecond, Interval: 10 * time.Millisecond}, nil, nil)
	r.Start(ctx)
	defer r.Stop()
	waitFor(t, func() bool {
		p, err := e.svc.Pending(ctx, 10, id.Min, id.Max)
		return err == nil && len(p) == 0
	})
}

type countingReclaim struct{ calls int }

func (c *countingReclaim) ReclaimExpired(context.Context, time.Duration) (int64, error) {
	c.calls++
	return 0, nil
}

func TestReclaimerDisabledStaysIdle(t *testing.T) {
	target := &countingReclaim{}
	r := NewReclaimer(target, ReclaimerConfig{Interval: time.Millisecond}, nil, nil)
	r.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	r.Stop()
	if target.calls != 0 {
		t.Fatalf("disabled reclaimer ran %d sweeps", target.calls)
	}
}

type atomicReclaim struct{ calls atomic.Int64 }

func (a *atomicReclaim) ReclaimExpired(context.Context, time.Duration) (int64, error) {
	a.calls.Add(1)
	return 0, nil
}

func TestReclaimerConcurrentStartStop(t *testing.T) {
	target := &atomicReclaim{}
	r := NewReclaimer(target, ReclaimerConfig{Enabled: true, Interval: time.Millisecond}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); r.Start(context.Background()) }()
		go func() { defer wg.Done(); r.Stop() }()
	}
	wg.Wait()
	r.Start(context.Background())
	waitFor(t, func() bool { return target.calls.Load() > 0 })
	r.Stop()
	r.Stop()
}
