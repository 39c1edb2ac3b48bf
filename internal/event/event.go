package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type tags an event with the domain transition it describes.
// Each domain owns a closed registry of recognized types; reducers
// silently skip types outside their registry.
type Type string

// Event is one immutable record in a mission log.
//
// Field semantics:
//   - ID: globally unique UUIDv7 string. Same ID means same event.
//   - Type: selects the domain transition function.
//   - AggregateRef: the entity this event concerns (work item, mission).
//   - Payload: opaque, already-validated domain data. The engine never
//     interprets it; domain reducers do.
//   - OriginTime: producer wall clock. Tie-break only, never causal order.
//   - OriginID: identifier of the producing node or process.
//   - LogicalClock: per-origin Lamport clock value. Never decreases across
//     one origin's own emissions.
//   - CausalParent: optional ID of the event that causally preceded this
//     one. If present it must sort strictly before this event.
//   - CorrelationID: UUIDv7 grouping all events of one execution/run.
//   - Tier: sharing-scope annotation. Purely informational to the engine.
type Event struct {
	ID            string          `json:"id"`
	Type          Type            `json:"type"`
	AggregateRef  string          `json:"aggregate_ref"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	OriginTime    time.Time       `json:"origin_time"`
	OriginID      string          `json:"origin_id"`
	LogicalClock  uint64          `json:"logical_clock"`
	CausalParent  string          `json:"causal_parent,omitempty"`
	CorrelationID string          `json:"correlation_id"`
	Tier          int             `json:"tier"`
}

// FieldError reports a malformed envelope field detected at construction
// time. Field errors are structural (tier 1): they fail fast and never
// enter the reduction pipeline.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("event field %s: %s", e.Field, e.Reason)
}

// Validate checks envelope structure. It does NOT interpret the payload -
// payload field validation belongs to the external schema layer.
//
// Returns the first *FieldError found, or nil for a well-formed envelope.
func (ev Event) Validate() error {
	if err := uuid.Validate(ev.ID); err != nil {
		return &FieldError{Field: "id", Reason: fmt.Sprintf("not a valid UUID: %v", err)}
	}
	if ev.Type == "" {
		return &FieldError{Field: "type", Reason: "must not be empty"}
	}
	if ev.AggregateRef == "" {
		return &FieldError{Field: "aggregate_ref", Reason: "must not be empty"}
	}
	if ev.OriginTime.IsZero() {
		return &FieldError{Field: "origin_time", Reason: "must not be zero"}
	}
	if ev.OriginID == "" {
		return &FieldError{Field: "origin_id", Reason: "must not be empty"}
	}
	if ev.CausalParent != "" {
		if err := uuid.Validate(ev.CausalParent); err != nil {
			return &FieldError{Field: "causal_parent", Reason: fmt.Sprintf("not a valid UUID: %v", err)}
		}
		if ev.CausalParent == ev.ID {
			return &FieldError{Field: "causal_parent", Reason: "must not reference the event itself"}
		}
	}
	if err := uuid.Validate(ev.CorrelationID); err != nil {
		return &FieldError{Field: "correlation_id", Reason: fmt.Sprintf("not a valid UUID: %v", err)}
	}
	if ev.Tier < 0 {
		return &FieldError{Field: "tier", Reason: "must not be negative"}
	}
	if len(ev.Payload) > 0 && !json.Valid(ev.Payload) {
		return &FieldError{Field: "payload", Reason: "not valid JSON"}
	}
	return nil
}

// Clone returns a deep copy of the event. The payload bytes are copied so
// the clone shares no memory with the original. Used where a caller must
// retain an event beyond the borrowed input slice.
func (ev Event) Clone() Event {
	out := ev
	if ev.Payload != nil {
		out.Payload = make(json.RawMessage, len(ev.Payload))
		copy(out.Payload, ev.Payload)
	}
	return out
}
