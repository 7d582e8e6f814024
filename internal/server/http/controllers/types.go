package controllers

// Request and response bodies for the admin API.

// triggerReq asks the serial controller to append a payload for a key.
type triggerReq struct {
	Key               string `json:"key"`
	Payload           string `json:"payload"`
	TTLSec            int    `json:"ttl_sec"`
	CorrelationSuffix string `json:"correlation_suffix"`
	// Type is FIFO or LIFO; empty uses the configured default.
	Type string `json:"type"`
}

type triggerResp struct {
	Published bool `json:"published"`
}

type ackReq struct {
	ID string `json:"id"`
}

type ackResp struct {
	Acked int64 `json:"acked"`
}

type reclaimReq struct {
	IdleMs int64 `json:"idle_ms"`
}

type reclaimResp struct {
	Reclaimed int64 `json:"reclaimed"`
}

type countResp struct {
	Count int64 `json:"count"`
}

// PendingItem is one entry of a pending listing.
type PendingItem struct {
	ID         string `json:"id"`
	Consumer   string `json:"consumer"`
	IdleMs     int64  `json:"idle_ms"`
	RetryCount int64  `json:"retry_count"`
}

type pendingResp struct {
	Entries []PendingItem `json:"entries"`
}
