package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPTransport implements AdminTransport over the JSON admin API.
type HTTPTransport struct {
	base   string
	client *http.Client
}

// NewHTTPTransport targets the admin API at base (e.g. http://127.0.0.1:8080).
func NewHTTPTransport(base string) *HTTPTransport {
	return &HTTPTransport{base: strings.TrimRight(base, "/"), client: &http.Client{Timeout: 30 * time.Second}}
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, e.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Trigger calls POST /v1/trigger.
func (t *HTTPTransport) Trigger(ctx context.Context, req TriggerRequest) (bool, error) {
	var out struct {
		Published bool `json:"published"`
	}
	err := t.do(ctx, http.MethodPost, "/v1/trigger", req, &out)
	return out.Published, err
}

// Count calls GET /v1/stream/count.
func (t *HTTPTransport) Count(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	err := t.do(ctx, http.MethodGet, "/v1/stream/count", nil, &out)
	return out.Count, err
}

// Pending calls GET /v1/stream/pending.
func (t *HTTPTransport) Pending(ctx context.Context, req PendingRequest) ([]PendingItem, error) {
	q := url.Values{}
	if req.Limit > 0 {
		q.Set("limit", strconv.FormatInt(req.Limit, 10))
	}
	if req.From != "" {
		q.Set("from", req.From)
	}
	if req.To != "" {
		q.Set("to", req.To)
	}
	if req.IdleMs > 0 {
		q.Set("idle_ms", strconv.FormatInt(req.IdleMs, 10))
	}
	path := "/v1/stream/pending"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		Entries []PendingItem `json:"entries"`
	}
	err := t.do(ctx, http.MethodGet, path, nil, &out)
	return out.Entries, err
}

// Reclaim calls POST /v1/stream/reclaim.
func (t *HTTPTransport) Reclaim(ctx context.Context, idleMs int64) (int64, error) {
	var out struct {
		Reclaimed int64 `json:"reclaimed"`
	}
	err := t.do(ctx, http.MethodPost, "/v1/stream/reclaim", map[string]int64{"idle_ms": idleMs}, &out)
	return out.Reclaimed, err
}

// Ack calls POST /v1/stream/ack.
func (t *HTTPTransport) Ack(ctx context.Context, id string) (int64, error) {
	var out struct {
		Acked int64 `json:"acked"`
	}
	err := t.do(ctx, http.MethodPost, "/v1/stream/ack", map[string]string{"id": id}, &out)
	return out.Acked, err
}
