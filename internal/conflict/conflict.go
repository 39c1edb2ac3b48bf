// Package conflict resolves concurrent writes that share the same logical
// clock position for the same aggregate.
//
// Two events from different origins can legitimately carry the same
// (aggregate_ref, logical_clock) pair - neither producer saw the other's
// write. The canonical sort key already gives such a group a deterministic
// order, but an *arbitrary* one. This package replaces that arbitrary
// intra-group order with domain precedence:
//
//   - Rollback beats forward progress: a corrective event (reviewer sends
//     work back) is applied AFTER any concurrently-submitted forward event,
//     so the rollback's effect survives in final state.
//   - Terminal beats reopen: a terminating event (cancellation) is applied
//     AFTER any concurrent reactivation, so cancellation wins the race.
//
// The rules are table-driven: each domain registers a Table mapping its
// corrective/terminal event types to ClassCorrective. New domains add
// precedence without touching this package.
package conflict

import (
	"slices"
	"strings"

	"github.com/roach88/missionlog/internal/event"
)

// Class is the precedence class of an event type within a concurrent group.
// Higher classes are applied later, making their effect final.
type Class int

const (
	// ClassNormal is ordinary forward progress. Default for unlisted types.
	ClassNormal Class = 0
	// ClassCorrective marks rollback and terminal events, applied after
	// all normal events in the same concurrent group.
	ClassCorrective Class = 1
)

// Table maps event types to precedence classes for one domain.
// Types absent from the table are ClassNormal.
type Table map[event.Type]Class

// ClassOf looks up the precedence class of an event type.
func (t Table) ClassOf(et event.Type) Class {
	return t[et] // zero value is ClassNormal
}

// Merge combines several domain tables into one. Later tables win on
// (unexpected) overlapping types.
func Merge(tables ...Table) Table {
	out := make(Table)
	for _, t := range tables {
		for et, c := range t {
			out[et] = c
		}
	}
	return out
}

// Resolution records how one concurrent group was ordered. Groups with a
// single event never produce a Resolution.
type Resolution struct {
	AggregateRef string   `json:"aggregate_ref"`
	LogicalClock uint64   `json:"logical_clock"`
	EventIDs     []string `json:"event_ids"` // final applied order
	Reordered    bool     `json:"reordered"` // true if precedence changed the canonical order
}

// Resolve reorders events within each concurrent group of a canonically
// sorted slice by (precedence class, id), leaving everything else in place.
// Events of different aggregates keep their canonical positions.
//
// The input must already be sorted and deduplicated. Returns a new slice
// plus one Resolution per multi-event group, ordered deterministically by
// (logical_clock, aggregate_ref).
func Resolve(sorted []event.Event, table Table) ([]event.Event, []Resolution) {
	out := make([]event.Event, len(sorted))
	copy(out, sorted)

	type groupKey struct {
		aggregate string
		clock     uint64
	}
	positions := make(map[groupKey][]int)
	for i, ev := range out {
		k := groupKey{aggregate: ev.AggregateRef, clock: ev.LogicalClock}
		positions[k] = append(positions[k], i)
	}

	var resolutions []Resolution
	for k, idx := range positions {
		if len(idx) < 2 {
			continue
		}

		group := make([]event.Event, len(idx))
		for i, pos := range idx {
			group[i] = out[pos]
		}
		before := idsOf(group)

		// Intra-group precedence order: class, then ID.
		slices.SortStableFunc(group, func(a, b event.Event) int {
			ca, cb := table.ClassOf(a.Type), table.ClassOf(b.Type)
			if ca != cb {
				return int(ca) - int(cb)
			}
			return strings.Compare(a.ID, b.ID)
		})

		// Write the resolved order back into the group's original slots,
		// preserving global positions relative to other aggregates.
		for i, pos := range idx {
			out[pos] = group[i]
		}

		resolutions = append(resolutions, Resolution{
			AggregateRef: k.aggregate,
			LogicalClock: k.clock,
			EventIDs:     idsOf(group),
			Reordered:    !slices.Equal(before, idsOf(group)),
		})
	}

	slices.SortFunc(resolutions, func(a, b Resolution) int {
		if a.LogicalClock != b.LogicalClock {
			if a.LogicalClock < b.LogicalClock {
				return -1
			}
			return 1
		}
		return strings.Compare(a.AggregateRef, b.AggregateRef)
	})

	return out, resolutions
}

func idsOf(events []event.Event) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}
