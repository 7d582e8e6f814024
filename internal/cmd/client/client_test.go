package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type adminStub struct {
	mu       sync.Mutex
	triggers []map[string]any
	acks     []string
}

func (s *adminStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/trigger", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.triggers = append(s.triggers, body)
		first := len(s.triggers) == 1
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]bool{"published": first})
	})
	mux.HandleFunc("/v1/stream/count", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int64{"count": 7})
	})
	mux.HandleFunc("/v1/stream/pending", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" || r.URL.Query().Get("idle_ms") != "100" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unexpected query " + r.URL.RawQuery})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"entries": []map[string]any{
			{"id": "1-0", "consumer": "c1", "idle_ms": 150, "retry_count": 1},
			{"id": "2-0", "consumer": "c2", "idle_ms": 120, "retry_count": 2},
		}})
	})
	mux.HandleFunc("/v1/stream/reclaim", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			IdleMs int64 `json:"idle_ms"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]int64{"reclaimed": body.IdleMs / 1000})
	})
	mux.HandleFunc("/v1/stream/ack", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ID string `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.ID == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid id"})
			return
		}
		s.mu.Lock()
		s.acks = append(s.acks, body.ID)
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]int64{"acked": 1})
	})
	return mux
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(func() string { return srv.URL })
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestTriggerCommand(t *testing.T) {
	stub := &adminStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	out, err := run(t, srv, "trigger", "--key", "orderA", "--payload", "a", "--type", "LIFO", "--ttl-sec", "60", "--suffix", "-x")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "published: true") {
		t.Fatalf("output: %s", out)
	}
	out, err = run(t, srv, "trigger", "--key", "orderA", "--payload", "b")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "published: false") {
		t.Fatalf("output: %s", out)
	}

	first := stub.triggers[0]
	if first["key"] != "orderA" || first["payload"] != "a" || first["type"] != "LIFO" ||
		first["ttl_sec"] != float64(60) || first["correlation_suffix"] != "-x" {
		t.Fatalf("request body: %v", first)
	}
	if _, ok := stub.triggers[1]["type"]; ok {
		t.Fatalf("empty type should be omitted: %v", stub.triggers[1])
	}
}

func TestTriggerRequiresPayload(t *testing.T) {
	srv := httptest.NewServer((&adminStub{}).handler())
	defer srv.Close()
	if _, err := run(t, srv, "trigger", "--key", "k"); err == nil {
		t.Fatalf("expected error for missing --payload")
	}
}

func TestStreamCommands(t *testing.T) {
	stub := &adminStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	out, err := run(t, srv, "stream", "count")
	if err != nil || strings.TrimSpace(out) != "7" {
		t.Fatalf("count: %q %v", out, err)
	}

	out, err = run(t, srv, "stream", "pending", "--limit", "5", "--idle-ms", "100")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if !strings.Contains(out, `"consumer": "c1"`) || !strings.Contains(out, `"id": "2-0"`) {
		t.Fatalf("pending output: %s", out)
	}

	out, err = run(t, srv, "stream", "reclaim", "--idle-ms", "3000")
	if err != nil || !strings.Contains(out, "reclaimed: 3") {
		t.Fatalf("reclaim: %q %v", out, err)
	}

	out, err = run(t, srv, "stream", "ack", "--id", "1-0")
	if err != nil || !strings.Contains(out, "acked: 1") {
		t.Fatalf("ack: %q %v", out, err)
	}
	if len(stub.acks) != 1 || stub.acks[0] != "1-0" {
		t.Fatalf("acks: %v", stub.acks)
	}
}

func TestServerErrorsSurface(t *testing.T) {
	srv := httptest.NewServer((&adminStub{}).handler())
	defer srv.Close()
	_, err := run(t, srv, "stream", "ack", "--id", "bad")
	if err == nil || !strings.Contains(err.Error(), "Invalid id") {
		t.Fatalf("want server error, got %v", err)
	}
}
