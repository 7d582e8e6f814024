// Package transports provides pluggable transport implementations for the CLI.
package transports

import "context"

// TriggerRequest mirrors the admin trigger body.
type TriggerRequest struct {
	Key               string `json:"key"`
	Payload           string `json:"payload"`
	TTLSec            int    `json:"ttl_sec,omitempty"`
	CorrelationSuffix string `json:"correlation_suffix,omitempty"`
	Type              string `json:"type,omitempty"`
}

// PendingRequest filters a pending listing.
type PendingRequest struct {
	Limit  int64
	From   string
	To     string
	IdleMs int64
}

// PendingItem is one pending entry.
type PendingItem struct {
	ID         string `json:"id"`
	Consumer   string `json:"consumer"`
	IdleMs     int64  `json:"idle_ms"`
	RetryCount int64  `json:"retry_count"`
}

// AdminTransport abstracts the admin API used by CLI commands.
type AdminTransport interface {
	Trigger(ctx context.Context, req TriggerRequest) (bool, error)
	Count(ctx context.Context) (int64, error)
	Pending(ctx context.Context, req PendingRequest) ([]PendingItem, error)
	Reclaim(ctx context.Context, idleMs int64) (int64, error)
	Ack(ctx context.Context, id string) (int64, error)
}
