package stream

import (
	"errors"
	"testing"
	"time"
)

func TestParseMessageType(t *testing.T) {
	cases := map[string]MessageType{"": TypeUnspecified, "FIFO": TypeFIFO, "lifo": TypeLIFO}
	for in, want := range cases {
		got, err := ParseMessageType(in)
		if err != nil || got != want {
			t.Fatalf("ParseMessageType(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMessageType("RANDOM"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestEntryTTL(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	e := &Entry{Fields: map[string]string{FieldTTL: TTLField(now, time.Minute)}}
	if !e.TTL().Equal(now.Add(time.Minute)) {
		t.Fatalf("ttl: %v", e.TTL())
	}
	if e.Expired(now) {
		t.Fatalf("not expired yet")
	}
	if !e.Expired(now.Add(2 * time.Minute)) {
		t.Fatalf("expected expired")
	}
	bare := &Entry{Fields: map[string]string{FieldTTL: "garbage"}}
	if !bare.TTL().IsZero() || bare.Expired(now) {
		t.Fatalf("malformed ttl must read as absent")
	}
}
