package redisstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testMetrics struct {
	mu     sync.Mutex
	labels []string
	errs   int
}

func (m *testMetrics) ObserveCommand(label string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels = append(m.labels, label)
	if err != nil {
		m.errs++
	}
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis, *testMetrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	metrics := &testMetrics{}
	st, err := Open(context.Background(), Options{Addrs: []string{mr.Addr()}, Metrics: metrics})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st, mr, metrics
}

func TestRunRecordsLabel(t *testing.T) {
	st, _, metrics := newTestStore(t)
	ctx := context.Background()
	if err := st.Run(ctx, "set", func(c redis.Cmdable) error { return c.Set(ctx, "k", "v", 0).Err() }); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got string
	if err := st.Run(ctx, "get", func(c redis.Cmdable) error {
		var err error
		got, err = c.Get(ctx, "k").Result()
		return err
	}); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "v" {
		t.Fatalf("got %q", got)
	}
	if len(metrics.labels) < 2 || metrics.labels[len(metrics.labels)-1] != "get" {
		t.Fatalf("labels: %v", metrics.labels)
	}
}

func TestRunPassesNilThrough(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()
	err := st.Run(ctx, "get", func(c redis.Cmdable) error { return c.Get(ctx, "missing").Err() })
	if !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound should accept redis.Nil")
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		t.Fatalf("redis.Nil must not be wrapped")
	}
}

func TestRunWrapsDriverErrors(t *testing.T) {
	st, mr, _ := newTestStore(t)
	ctx := context.Background()
	mr.Close()
	err := st.Run(ctx, "get", func(c redis.Cmdable) error { return c.Get(ctx, "k").Err() })
	var te *TechnicalError
	if !errors.As(err, &te) {
		t.Fatalf("expected TechnicalError, got %T %v", err, err)
	}
	if te.Op != "get" {
		t.Fatalf("op: %q", te.Op)
	}
}

func TestConnPinsAndCloses(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()
	conn, err := st.Conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	if err := conn.Run(ctx, "rpush", func(c redis.Cmdable) error { return c.RPush(ctx, "l", "a", "b").Err() }); err != nil {
		t.Fatalf("rpush: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := conn.Run(ctx, "llen", func(c redis.Cmdable) error { return c.LLen(ctx, "l").Err() }); err == nil {
		t.Fatalf("expected error on closed conn")
	}
}

func TestPipelined(t *testing.T) {
	st, mr, _ := newTestStore(t)
	ctx := context.Background()
	cmds, err := st.Pipelined(ctx, "seed", func(p redis.Pipeliner) error {
		p.Set(ctx, "a", "1", 0)
		p.Set(ctx, "b", "2", time.Minute)
		return nil
	})
	if err != nil {
		t.Fatalf("pipelined: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("cmds: %d", len(cmds))
	}
	if mr.TTL("b") != time.Minute {
		t.Fatalf("ttl: %v", mr.TTL("b"))
	}
}

func TestIsBusyGroup(t *testing.T) {
	if !IsBusyGroup(errors.New("BUSYGROUP Consumer Group name already exists")) {
		t.Fatalf("expected busy group")
	}
	if IsBusyGroup(nil) || IsBusyGroup(errors.New("ERR")) {
		t.Fatalf("unexpected busy group")
	}
}
