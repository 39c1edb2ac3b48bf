// Package order implements the canonical sort key and deduplication pass
// shared by every domain reducer and by the merge engine.
//
// The total order is (logical_clock, origin_time, id): primary key is the
// Lamport clock (causal order), first tie-break is producer wall time
// (best-effort ordering of concurrent events), final tie-break is the
// fixed-width event ID, which guarantees a strict total order even for
// truly simultaneous events.
//
// Both Sort and Dedup are pure: they never modify their input slice and
// allocate no shared state, so they are safe to call concurrently over
// overlapping event sets.
package order

import (
	"slices"
	"time"

	"github.com/roach88/missionlog/internal/event"
)

// Key is the canonical sort key of an event.
type Key struct {
	LogicalClock uint64
	OriginTime   time.Time
	ID           string
}

// KeyOf extracts the canonical sort key from an event.
func KeyOf(ev event.Event) Key {
	return Key{
		LogicalClock: ev.LogicalClock,
		OriginTime:   ev.OriginTime,
		ID:           ev.ID,
	}
}

// Compare orders two keys: logical clock, then origin time, then ID.
// Returns -1, 0, or +1.
func (k Key) Compare(o Key) int {
	if k.LogicalClock != o.LogicalClock {
		if k.LogicalClock < o.LogicalClock {
			return -1
		}
		return 1
	}
	if c := k.OriginTime.Compare(o.OriginTime); c != 0 {
		return c
	}
	return slices.Compare([]byte(k.ID), []byte(o.ID))
}

// Compare orders two events by their canonical sort keys.
func Compare(a, b event.Event) int {
	return KeyOf(a).Compare(KeyOf(b))
}

// Sort returns a new slice holding the events in canonical order.
// The input slice is left untouched.
//
// Because the key includes the unique event ID, the order is strict:
// no two distinct events compare equal (duplicate deliveries of the same
// event compare equal by design and are collapsed by Dedup).
func Sort(events []event.Event) []event.Event {
	out := make([]event.Event, len(events))
	copy(out, events)
	slices.SortStableFunc(out, Compare)
	return out
}

// Dedup removes events whose ID has already been seen, keeping the first
// occurrence. It MUST be applied to a canonically sorted slice - that is
// what makes "first occurrence" deterministic regardless of the physical
// delivery order of duplicates.
//
// Returns a new slice; the input is left untouched.
func Dedup(events []event.Event) []event.Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if _, dup := seen[ev.ID]; dup {
			continue
		}
		seen[ev.ID] = struct{}{}
		out = append(out, ev)
	}
	return out
}
