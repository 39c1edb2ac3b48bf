// Package merge reconciles independently-grown event logs into one
// canonical log.
//
// Producers are offline-first: each appends to its own log, and logs
// diverge the way version-control branches do. Merge combines N such logs
// into a single sequence that is causally consistent, conflict-resolved,
// and free of duplicate deliveries. It performs no semantic interpretation
// of payloads - it only establishes the canonical combined order; domain
// reducers interpret meaning afterward.
//
// Merge is idempotent and referentially transparent: merging an
// already-merged result with itself, or with any subset of its own inputs,
// returns bit-identical output. The Digest field makes that property
// checkable.
//
// Merge NEVER refuses to produce a combined log. Structural problems found
// along the way (a causal parent that is absent or ordered after its
// child) are recorded as anomalies and the offending events are retained.
package merge

import (
	"fmt"

	"github.com/roach88/missionlog/internal/conflict"
	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/order"
)

// Result is the outcome of merging N event logs.
type Result struct {
	// Events is the combined, deduplicated, causally-ordered log.
	Events []event.Event

	// Conflicts traces every concurrent group that required precedence
	// resolution, in deterministic order.
	Conflicts []conflict.Resolution

	// Anomalies records causal-reference problems. Never fatal.
	Anomalies []event.Anomaly

	// Digest is the domain-separated SHA-256 of the canonical merged log.
	// Equal digests mean bit-identical logs.
	Digest string
}

// Merge combines event logs into one canonical Result.
//
// Algorithm: concatenate, canonical sort, dedup (first occurrence under
// the canonical order wins), resolve concurrent groups against the
// precedence table, then validate causal parents.
//
// The inputs are borrowed read-only; the Result owns fresh slices.
// Merging zero logs (or only empty ones) yields an empty Result whose
// digest is the digest of the empty log.
func Merge(table conflict.Table, logs ...[]event.Event) (Result, error) {
	var all []event.Event
	for _, log := range logs {
		all = append(all, log...)
	}

	combined := order.Dedup(order.Sort(all))
	resolved, resolutions := conflict.Resolve(combined, table)

	digest, err := event.LogDigest(resolved)
	if err != nil {
		return Result{}, fmt.Errorf("digest merged log: %w", err)
	}

	return Result{
		Events:    resolved,
		Conflicts: resolutions,
		Anomalies: validateCausalParents(resolved),
		Digest:    digest,
	}, nil
}

// validateCausalParents checks that every event's causal parent (if any)
// appears strictly earlier in the merged order. A missing or late parent
// is a structural anomaly, not a failure - the event is flagged and kept.
func validateCausalParents(events []event.Event) []event.Anomaly {
	position := make(map[string]int, len(events))
	for i, ev := range events {
		position[ev.ID] = i
	}

	var anomalies []event.Anomaly
	for i, ev := range events {
		if ev.CausalParent == "" {
			continue
		}
		parentPos, present := position[ev.CausalParent]
		switch {
		case !present:
			anomalies = append(anomalies, event.NewAnomaly(ev,
				"causal parent %s not present in merged log", ev.CausalParent))
		case parentPos >= i:
			anomalies = append(anomalies, event.NewAnomaly(ev,
				"causal parent %s ordered at position %d, after child at %d",
				ev.CausalParent, parentPos, i))
		}
	}
	return anomalies
}
