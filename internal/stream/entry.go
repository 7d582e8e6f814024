package stream

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rzbill/serialflo/pkg/id"
)

// Entry field names.
const (
	FieldMessage           = "message"
	FieldMessageType       = "messageType"
	FieldTTL               = "ttl"
	FieldCorrelationSuffix = "correlationIdSuffix"
)

// MessageType selects how an entry is handled by the consumer.
type MessageType int

const (
	// TypeUnspecified entries carry their payload in the message field.
	TypeUnspecified MessageType = iota
	// TypeFIFO entries name a per-key list drained head first.
	TypeFIFO
	// TypeLIFO entries name a per-key list drained tail first.
	TypeLIFO
)

func (t MessageType) String() string {
	switch t {
	case TypeFIFO:
		return "FIFO"
	case TypeLIFO:
		return "LIFO"
	default:
		return ""
	}
}

// ParseMessageType parses a messageType field value. Empty means unspecified.
func ParseMessageType(s string) (MessageType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return TypeUnspecified, nil
	case "FIFO":
		return TypeFIFO, nil
	case "LIFO":
		return TypeLIFO, nil
	default:
		return TypeUnspecified, fmt.Errorf("%w: unknown message type %q", ErrInvalidArgument, s)
	}
}

// Entry is one delivered stream entry.
type Entry struct {
	ID     id.ID
	Fields map[string]string
}

// Message returns the message field.
func (e *Entry) Message() string { return e.Fields[FieldMessage] }

// Type returns the parsed message type; unknown values read as unspecified.
func (e *Entry) Type() MessageType {
	t, _ := ParseMessageType(e.Fields[FieldMessageType])
	return t
}

// TTL returns the expiry hint, or the zero time when absent or malformed.
func (e *Entry) TTL() time.Time {
	v := e.Fields[FieldTTL]
	if v == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Expired reports whether the TTL hint is set and before now.
func (e *Entry) Expired(now time.Time) bool {
	ttl := e.TTL()
	return !ttl.IsZero() && ttl.Before(now)
}

// CorrelationSuffix returns the optional correlation id suffix.
func (e *Entry) CorrelationSuffix() string { return e.Fields[FieldCorrelationSuffix] }

// TTLField renders an expiry hint ttl from now.
func TTLField(now time.Time, ttl time.Duration) string {
	return strconv.FormatInt(now.Add(ttl).UnixMilli(), 10)
}

func entryFromValues(rawID string, values map[string]interface{}) (*Entry, error) {
	eid, err := id.Parse(rawID)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(values))
	for k, v := range values {
		switch s := v.(type) {
		case string:
			fields[k] = s
		default:
			fields[k] = fmt.Sprint(v)
		}
	}
	return &Entry{ID: eid, Fields: fields}, nil
}
