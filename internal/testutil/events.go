// Package testutil builds deterministic event fixtures for tests.
//
// IDs, timestamps, and correlation IDs are fixed sequences so that sort
// keys, digests, and golden snapshots are stable across runs.
package testutil

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/missionlog/internal/event"
)

// FixedCorrelation is the correlation ID all builder events share.
const FixedCorrelation = "00000000-0000-7000-8000-0000000000aa"

// Builder produces events with deterministic IDs and origin times.
// The Nth event gets ID FixedID(N) and origin time base+N seconds, so
// later-built events always sort after earlier ones on every tie-break.
//
// Not safe for concurrent use; tests build their fixtures up front.
type Builder struct {
	origin string
	n      int
	base   time.Time
}

// NewBuilder creates a builder for one origin, numbering events from 1.
func NewBuilder(origin string) *Builder {
	return NewBuilderAt(origin, 0)
}

// NewBuilderAt creates a builder whose first event is numbered start+1.
// Multi-origin tests give each origin a disjoint range (e.g. 0, 100, 200)
// so IDs never collide across builders.
func NewBuilderAt(origin string, start int) *Builder {
	return &Builder{
		origin: origin,
		n:      start,
		base:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// FixedID returns the deterministic UUID for sequence number n.
// The version nibble is 7 so the IDs look like production IDs.
func FixedID(n int) string {
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", n)
}

// Event builds the next event. payload may be empty or a JSON document.
func (b *Builder) Event(t event.Type, aggregate string, clock uint64, payload string) event.Event {
	b.n++
	ev := event.Event{
		ID:            FixedID(b.n),
		Type:          t,
		AggregateRef:  aggregate,
		OriginTime:    b.base.Add(time.Duration(b.n) * time.Second),
		OriginID:      b.origin,
		LogicalClock:  clock,
		CorrelationID: FixedCorrelation,
	}
	if payload != "" {
		ev.Payload = json.RawMessage(payload)
	}
	return ev
}

// ChildOf returns a copy of ev whose causal parent is set to parent's ID.
func ChildOf(ev, parent event.Event) event.Event {
	out := ev.Clone()
	out.CausalParent = parent.ID
	return out
}

// Reversed returns a reversed copy of events, for delivery-order tests.
func Reversed(events []event.Event) []event.Event {
	out := make([]event.Event, len(events))
	for i, ev := range events {
		out[len(events)-1-i] = ev
	}
	return out
}
