package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rzbill/serialflo/internal/stream"
	"github.com/rzbill/serialflo/pkg/log"
)

type fakeLog struct {
	mu       sync.Mutex
	entries  []*stream.Entry
	readErrs []error
	acked    []string
	reads    int
}

func (f *fakeLog) EnsureGroup(context.Context) error { return nil }

func (f *fakeLog) ConsumeOne(ctx context.Context, consumerID string) (*stream.Entry, error) {
	f.mu.Lock()
	f.reads++
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		f.mu.Unlock()
		return nil, err
	}
	if len(f.entries) > 0 {
		e := f.entries[0]
		f.entries = f.entries[1:]
		f.mu.Unlock()
		return e, nil
	}
	f.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Millisecond):
		return nil, nil
	}
}

func (f *fakeLog) Ack(_ context.Context, entryID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, entryID)
	return 1, nil
}

func (f *fakeLog) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

func (f *fakeLog) drained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries) == 0 && len(f.readErrs) == 0
}

type handlerFunc func(ctx context.Context, e *stream.Entry) error

func (h handlerFunc) Handle(ctx context.Context, e *stream.Entry) error { return h(ctx, e) }

func runWorker(t *testing.T, w *Worker, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	deadline := time.Now().Add(2 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("timed out")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func testLogger() log.Logger { return log.NewLogger(log.WithOutput(log.NullOutput{})) }

func TestWorkerAcksHandledAndSkippedEntries(t *testing.T) {
	now := time.UnixMilli(100_000)
	handled := entry(1, map[string]string{stream.FieldMessage: "a", stream.FieldTTL: "200000"})
	expired := entry(2, map[string]string{stream.FieldMessage: "b", stream.FieldTTL: "50000"})
	filtered := entry(3, map[string]string{stream.FieldMessage: "skip"})
	failing := entry(4, map[string]string{stream.FieldMessage: "fail"})
	invalid := entry(5, map[string]string{stream.FieldMessage: "invalid"})

	gl := &fakeLog{entries: []*stream.Entry{handled, expired, filtered, failing, invalid}}
	var mu sync.Mutex
	var seen []string
	h := handlerFunc(func(_ context.Context, e *stream.Entry) error {
		mu.Lock()
		seen = append(seen, e.Message())
		mu.Unlock()
		switch e.Message() {
		case "fail":
			return errors.New("boom")
		case "invalid":
			return stream.ErrInvalidArgument
		}
		return nil
	})
	f, err := NewFilter(`message != "skip"`)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	w := newWorker("c-1", gl, h, f, testLogger(), nil)
	w.now = func() time.Time { return now }

	runWorker(t, w, func() bool { return gl.drained() && len(gl.ackedIDs()) == 4 })

	acked := gl.ackedIDs()
	want := []string{handled.ID.String(), expired.ID.String(), filtered.ID.String(), invalid.ID.String()}
	if len(acked) != len(want) {
		t.Fatalf("acked %v, want %v", acked, want)
	}
	for i := range want {
		if acked[i] != want[i] {
			t.Fatalf("acked %v, want %v", acked, want)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 || seen[0] != "a" || seen[1] != "fail" || seen[2] != "invalid" {
		t.Fatalf("handler saw %v", seen)
	}
}

func TestWorkerBacksOffOnReadErrors(t *testing.T) {
	gl := &fakeLog{readErrs: []error{errors.New("conn refused"), errors.New("conn refused")}}
	gl.entries = []*stream.Entry{entry(1, map[string]string{stream.FieldMessage: "a"})}
	w := newWorker("c-1", gl, handlerFunc(func(context.Context, *stream.Entry) error { return nil }), Filter{}, testLogger(), nil)
	waits := 0
	w.newBackOff = func() backoff.BackOff {
		return backoff.BackOff(&countingBackOff{n: &waits})
	}
	runWorker(t, w, func() bool { return len(gl.ackedIDs()) == 1 })
	if waits != 2 {
		t.Fatalf("want 2 backoff waits, got %d", waits)
	}
}

func TestWorkerStopsOnInvalidConsumer(t *testing.T) {
	gl := &fakeLog{readErrs: []error{stream.ErrInvalidArgument}}
	w := newWorker("", gl, handlerFunc(func(context.Context, *stream.Entry) error { return nil }), Filter{}, testLogger(), nil)
	if err := w.Run(context.Background()); !errors.Is(err, stream.ErrInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
}

type countingBackOff struct{ n *int }

func (b *countingBackOff) NextBackOff() time.Duration { *b.n++; return time.Millisecond }
func (b *countingBackOff) Reset()                     {}
