package event

import "fmt"

// Anomaly is a non-fatal observability record describing a semantically
// questionable event noticed during merge or reduction: an illegal
// transition, an unresolvable causal parent, a duplicate termination.
//
// Anomalies are data, never control flow. They are appended to results and
// surfaced to callers; they do not stop folding. Strict-mode reduction may
// elevate specific anomalies to hard errors, but that decision lives in the
// reducer, not here.
type Anomaly struct {
	EventID   string `json:"event_id"`
	EventType Type   `json:"event_type"`
	Reason    string `json:"reason"`
}

// NewAnomaly records an anomaly against the offending event.
func NewAnomaly(ev Event, format string, args ...any) Anomaly {
	return Anomaly{
		EventID:   ev.ID,
		EventType: ev.Type,
		Reason:    fmt.Sprintf(format, args...),
	}
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s (%s): %s", a.EventID, a.EventType, a.Reason)
}
