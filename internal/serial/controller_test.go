package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	redisstore "github.com/rzbill/serialflo/internal/storage/redis"
	"github.com/rzbill/serialflo/internal/stream"
)

type fixture struct {
	mr     *miniredis.Miniredis
	client *redis.Client
	store  *redisstore.Store
	ctl    *Controller
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := redisstore.New(client, nil)
	pub := stream.NewStreamPublisher(store, "g", 0)
	return &fixture{mr: mr, client: client, store: store, ctl: NewController(store, pub, cfg, nil)}
}

func (f *fixture) entries(t *testing.T) []redis.XMessage {
	t.Helper()
	msgs, err := f.client.XRange(context.Background(), stream.StreamKey("g"), "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	return msgs
}

func TestTriggerFirstAppendPublishes(t *testing.T) {
	f := newFixture(t, Config{TTL: time.Minute})
	ctx := context.Background()
	f.ctl.now = func() time.Time { return time.UnixMilli(1_000) }
	f.ctl.newToken = func() string { return "tok-1" }

	published, err := f.ctl.Trigger(ctx, "orderA", "a", WithCorrelationSuffix("-c1"))
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if !published {
		t.Fatalf("first append should publish")
	}
	msgs := f.entries(t)
	if len(msgs) != 1 {
		t.Fatalf("want 1 entry, got %d", len(msgs))
	}
	v := msgs[0].Values
	if v[stream.FieldMessage] != "orderA" || v[stream.FieldMessageType] != "FIFO" {
		t.Fatalf("unexpected fields: %v", v)
	}
	if v[stream.FieldTTL] != "61000" {
		t.Fatalf("ttl field: %v", v[stream.FieldTTL])
	}
	if v[stream.FieldCorrelationSuffix] != "-c1" {
		t.Fatalf("suffix: %v", v[stream.FieldCorrelationSuffix])
	}
	if got, _ := f.mr.Get(stream.TokenKey("orderA")); got != "tok-1" {
		t.Fatalf("token: %q", got)
	}
	if ttl := f.mr.TTL(stream.TokenKey("orderA")); ttl != time.Minute {
		t.Fatalf("token ttl: %v", ttl)
	}
	if ttl := f.mr.TTL("orderA"); ttl != time.Minute {
		t.Fatalf("list ttl: %v", ttl)
	}
}

func TestTriggerSubsequentAppendOnlyRefreshes(t *testing.T) {
	f := newFixture(t, Config{TTL: time.Minute})
	ctx := context.Background()

	if _, err := f.ctl.Trigger(ctx, "orderA", "a"); err != nil {
		t.Fatalf("trigger a: %v", err)
	}
	token, _ := f.mr.Get(stream.TokenKey("orderA"))
	f.mr.FastForward(30 * time.Second)

	published, err := f.ctl.Trigger(ctx, "orderA", "b", WithTTL(2*time.Minute))
	if err != nil {
		t.Fatalf("trigger b: %v", err)
	}
	if published {
		t.Fatalf("second append must not publish")
	}
	if n := len(f.entries(t)); n != 1 {
		t.Fatalf("want 1 entry, got %d", n)
	}
	if got, _ := f.mr.Get(stream.TokenKey("orderA")); got != token {
		t.Fatalf("token changed: %q != %q", got, token)
	}
	if ttl := f.mr.TTL(stream.TokenKey("orderA")); ttl != 2*time.Minute {
		t.Fatalf("token ttl not refreshed: %v", ttl)
	}
	// NX leaves the list's existing expiry in place
	if ttl := f.mr.TTL("orderA"); ttl != 30*time.Second {
		t.Fatalf("list ttl: %v", ttl)
	}
	list, _ := f.mr.List("orderA")
	if fmt.Sprint(list) != "[a b]" {
		t.Fatalf("list: %v", list)
	}
}

func TestTriggerNewEpochAfterListDrained(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	n := 0
	f.ctl.newToken = func() string { n++; return fmt.Sprintf("tok-%d", n) }

	if _, err := f.ctl.Trigger(ctx, "k", "a"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	f.mr.Del("k")
	published, err := f.ctl.Trigger(ctx, "k", "b")
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if !published {
		t.Fatalf("append to an empty list starts a new epoch")
	}
	if got, _ := f.mr.Get(stream.TokenKey("k")); got != "tok-2" {
		t.Fatalf("token: %q", got)
	}
	if n := len(f.entries(t)); n != 2 {
		t.Fatalf("want 2 entries, got %d", n)
	}
}

func TestTriggerBlankKeyPublishesPayload(t *testing.T) {
	f := newFixture(t, Config{})
	published, err := f.ctl.Trigger(context.Background(), " ", `{"id":1}`, WithCorrelationSuffix("x"))
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if !published {
		t.Fatalf("blank key always publishes")
	}
	msgs := f.entries(t)
	if len(msgs) != 1 {
		t.Fatalf("want 1 entry, got %d", len(msgs))
	}
	v := msgs[0].Values
	if v[stream.FieldMessage] != `{"id":1}` {
		t.Fatalf("message: %v", v[stream.FieldMessage])
	}
	if _, ok := v[stream.FieldMessageType]; ok {
		t.Fatalf("direct publish carries no message type")
	}
	if v[stream.FieldTTL] == nil || v[stream.FieldCorrelationSuffix] != "x" {
		t.Fatalf("metadata missing: %v", v)
	}
	if keys := f.mr.Keys(); len(keys) != 1 {
		t.Fatalf("only the stream should exist, got %v", keys)
	}
}

func TestTriggerLIFOType(t *testing.T) {
	f := newFixture(t, Config{Type: stream.TypeLIFO})
	if _, err := f.ctl.Trigger(context.Background(), "k", "a"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if got := f.entries(t)[0].Values[stream.FieldMessageType]; got != "LIFO" {
		t.Fatalf("type: %v", got)
	}

	if _, err := f.ctl.Trigger(context.Background(), "k2", "a", WithType(stream.TypeFIFO)); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if got := f.entries(t)[1].Values[stream.FieldMessageType]; got != "FIFO" {
		t.Fatalf("type override: %v", got)
	}
}

func TestTriggerConcurrentAppendsAllLand(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	published := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := f.ctl.Trigger(ctx, "k", fmt.Sprintf("m%d", i))
			if err != nil {
				t.Errorf("trigger: %v", err)
				return
			}
			if ok {
				mu.Lock()
				published++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	list, _ := f.mr.List("k")
	if len(list) != n {
		t.Fatalf("want %d elements, got %d", n, len(list))
	}
	if published != 1 {
		t.Fatalf("exactly one append sees length 1, got %d publishes", published)
	}
}

func TestTriggerJSON(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	if _, err := f.ctl.TriggerJSON(ctx, "k", nil); !errors.Is(err, stream.ErrInvalidArgument) {
		t.Fatalf("nil payload: %v", err)
	}
	if _, err := f.ctl.TriggerJSON(ctx, "k", make(chan int)); !errors.Is(err, stream.ErrInvalidArgument) {
		t.Fatalf("unencodable payload: %v", err)
	}
	if _, err := f.ctl.TriggerJSON(ctx, "k", map[string]int{"n": 1}); err != nil {
		t.Fatalf("trigger json: %v", err)
	}
	list, _ := f.mr.List("k")
	if len(list) != 1 || list[0] != `{"n":1}` {
		t.Fatalf("list: %v", list)
	}
}

func TestTriggerPropagatesStoreFailure(t *testing.T) {
	f := newFixture(t, Config{})
	f.mr.SetError("ERR boom")
	_, err := f.ctl.Trigger(context.Background(), "k", "a")
	var te *redisstore.TechnicalError
	if !errors.As(err, &te) {
		t.Fatalf("want technical error, got %T %v", err, err)
	}
}
