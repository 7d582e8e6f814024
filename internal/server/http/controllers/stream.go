package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rzbill/serialflo/internal/runtime"
	"github.com/rzbill/serialflo/internal/serial"
	"github.com/rzbill/serialflo/internal/stream"
	"github.com/rzbill/serialflo/pkg/id"
)

// StreamController exposes the Log Service and the serial controller.
type StreamController struct {
	rt *runtime.Runtime
}

// NewStreamController creates a new stream controller.
func NewStreamController(rt *runtime.Runtime) *StreamController {
	return &StreamController{rt: rt}
}

// RegisterRoutes registers stream and trigger routes with the given mux.
func (c *StreamController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/stream/count", c.handleCount)
	mux.HandleFunc("/v1/stream/pending", c.handlePending)
	mux.HandleFunc("/v1/stream/reclaim", c.handleReclaim)
	mux.HandleFunc("/v1/stream/ack", c.handleAck)
	mux.HandleFunc("/v1/trigger", c.handleTrigger)
}

func (c *StreamController) handleCount(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	n, err := c.rt.Log().Count(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, countResp{Count: n})
}

// handlePending lists pending entries. Query: limit, from, to (entry ids or
// -/+), idle_ms.
func (c *StreamController) handlePending(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	from, to := id.Min, id.Max
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = id.Parse(v); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from id")
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = id.Parse(v); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to id")
			return
		}
	}
	idle := time.Duration(parseLimit(q.Get("idle_ms"))) * time.Millisecond
	entries, err := c.rt.Log().PendingIdle(r.Context(), parseLimit(q.Get("limit")), from, to, idle)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := pendingResp{Entries: make([]PendingItem, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, PendingItem{
			ID:         e.ID.String(),
			Consumer:   e.Consumer,
			IdleMs:     e.Idle.Milliseconds(),
			RetryCount: e.RetryCount,
		})
	}
	writeJSON(w, resp)
}

func (c *StreamController) handleReclaim(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req reclaimReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IdleMs < 0 {
		writeError(w, http.StatusBadRequest, "idle_ms must not be negative")
		return
	}
	n, err := c.rt.Log().ReclaimExpired(r.Context(), time.Duration(req.IdleMs)*time.Millisecond)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, reclaimResp{Reclaimed: n})
}

func (c *StreamController) handleAck(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req ackReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID != "" {
		if _, err := id.Parse(req.ID); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid id")
			return
		}
	}
	n, err := c.rt.Log().Ack(r.Context(), req.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, ackResp{Acked: n})
}

func (c *StreamController) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req triggerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	t, err := stream.ParseMessageType(req.Type)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if req.TTLSec < 0 {
		writeServiceError(w, fmt.Errorf("%w: ttl_sec must not be negative", stream.ErrInvalidArgument))
		return
	}
	published, err := c.rt.Serial().Trigger(r.Context(), req.Key, req.Payload,
		serial.WithTTL(time.Duration(req.TTLSec)*time.Second),
		serial.WithCorrelationSuffix(req.CorrelationSuffix),
		serial.WithType(t))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, triggerResp{Published: published})
}
