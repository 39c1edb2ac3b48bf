// Package status is the work-item status reducer: a lane state machine
// folded over status.* events by the generic reduction pipeline.
//
// Lanes:
//
//	planned -> claimed -> in_progress -> for_review -> done
//	                         ^              |
//	                         |              v
//	                         +---------- rework
//	claimed/in_progress <-> blocked; any non-terminal lane -> canceled
//
// done and canceled are terminal. Guard conditions gate specific
// transitions: entering rework requires a reference to the review that
// triggered it, entering done requires an evidence payload. A force
// override (actor + reason) permits otherwise-illegal transitions,
// including terminal re-entry.
//
// Invalid transitions are integrity violations: rejected in strict mode,
// recorded as anomalies in permissive mode, never silently accepted or
// dropped. A duplicate termination (a second terminal event agreeing with
// the current terminal lane) is only an anomaly in either mode - both
// producers agreed on the outcome.
package status

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/reduce"
)

// Lane is a named status lane of a work item.
type Lane string

const (
	LanePlanned    Lane = "planned"
	LaneClaimed    Lane = "claimed"
	LaneInProgress Lane = "in_progress"
	LaneForReview  Lane = "for_review"
	LaneRework     Lane = "rework"
	LaneBlocked    Lane = "blocked"
	LaneDone       Lane = "done"
	LaneCanceled   Lane = "canceled"
)

// Terminal reports whether a lane admits no further transitions
// (without a force override).
func (l Lane) Terminal() bool {
	return l == LaneDone || l == LaneCanceled
}

// Payload is the interpreted portion of a status event payload. Fields are
// structurally validated by the external schema layer; this reducer only
// enforces guard conditions (which fields must be present for which
// transition).
type Payload struct {
	// Actor identifies who performed the transition.
	Actor string `json:"actor,omitempty"`

	// ReviewRef references the review that sent the item to rework.
	ReviewRef string `json:"review_ref,omitempty"`

	// Evidence is the completion evidence attached when entering done.
	Evidence json.RawMessage `json:"evidence,omitempty"`

	// Force requests an otherwise-illegal transition. Requires Actor and
	// Reason.
	Force  bool   `json:"force,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Step is one applied transition in an item's history.
type Step struct {
	From      Lane       `json:"from"`
	To        Lane       `json:"to"`
	EventID   string     `json:"event_id"`
	EventType event.Type `json:"event_type"`
	Actor     string     `json:"actor,omitempty"`
	Forced    bool       `json:"forced,omitempty"`
}

// Item is the projected state of one work item.
type Item struct {
	Lane     Lane            `json:"lane"`
	Evidence json.RawMessage `json:"evidence,omitempty"`
	History  []Step          `json:"history"`
}

// State is the status projection: the current lane (and history) of every
// work item seen in the window, keyed by aggregate ref.
type State struct {
	Items map[string]Item `json:"items"`
}

// Item returns the projected state of one work item. Unknown items are in
// the planned lane with no history.
func (s State) Item(aggregate string) Item {
	if it, ok := s.Items[aggregate]; ok {
		return it
	}
	return Item{Lane: LanePlanned}
}

// targets maps each event type to the lane it enters and the lanes it may
// legally leave from. The transition table is data, not code: the fold
// consults it exhaustively and everything else is an illegal transition.
var targets = map[event.Type]struct {
	to   Lane
	from []Lane
}{
	TypeClaimed:          {to: LaneClaimed, from: []Lane{LanePlanned}},
	TypeStarted:          {to: LaneInProgress, from: []Lane{LaneClaimed, LaneRework}},
	TypeSubmitted:        {to: LaneForReview, from: []Lane{LaneInProgress}},
	TypeChangesRequested: {to: LaneRework, from: []Lane{LaneForReview}},
	TypeBlocked:          {to: LaneBlocked, from: []Lane{LaneClaimed, LaneInProgress}},
	TypeReopened:         {to: LaneInProgress, from: []Lane{LaneBlocked}},
	TypeCompleted:        {to: LaneDone, from: []Lane{LaneForReview}},
	TypeCanceled: {to: LaneCanceled, from: []Lane{
		LanePlanned, LaneClaimed, LaneInProgress, LaneForReview, LaneRework, LaneBlocked,
	}},
}

// Apply folds one status event into the accumulator. Exported so the
// mission reducer can delegate work-item state here instead of
// re-implementing lane logic.
//
// The accumulator is mutated in place and returned; callers outside a fold
// must not retain it.
func Apply(acc State, ev event.Event) (State, []event.Anomaly, error) {
	var p Payload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return acc, nil, fmt.Errorf("payload does not decode as a status payload: %v", err)
		}
	}

	item := acc.Item(ev.AggregateRef)
	spec, known := targets[ev.Type]
	if !known {
		// Unreachable when driven through the registry filter; kept so
		// Apply is safe as a standalone subroutine.
		return acc, nil, fmt.Errorf("unrecognized status event type %q", ev.Type)
	}

	// Duplicate termination: both producers agreed on the outcome.
	// Anomaly in every mode, never a violation.
	if item.Lane.Terminal() && spec.to == item.Lane {
		return acc, []event.Anomaly{
			event.NewAnomaly(ev, "duplicate termination: item already %s", item.Lane),
		}, nil
	}

	forced := false
	if !legalFrom(item.Lane, spec.from) {
		if !p.Force {
			if item.Lane.Terminal() {
				return acc, nil, fmt.Errorf("terminal re-entry: %s -> %s without force override", item.Lane, spec.to)
			}
			return acc, nil, fmt.Errorf("illegal transition %s -> %s", item.Lane, spec.to)
		}
		if p.Actor == "" || p.Reason == "" {
			return acc, nil, fmt.Errorf("force override requires actor and reason")
		}
		forced = true
	}

	// Guard conditions.
	switch ev.Type {
	case TypeClaimed:
		if p.Actor == "" {
			return acc, nil, fmt.Errorf("claim requires an actor")
		}
	case TypeChangesRequested:
		if p.ReviewRef == "" {
			return acc, nil, fmt.Errorf("changes_requested requires a review_ref")
		}
	case TypeCompleted:
		if len(p.Evidence) == 0 {
			return acc, nil, fmt.Errorf("completion requires evidence")
		}
	}

	next := Item{
		Lane:     spec.to,
		Evidence: item.Evidence,
		History: append(item.History, Step{
			From:      item.Lane,
			To:        spec.to,
			EventID:   ev.ID,
			EventType: ev.Type,
			Actor:     p.Actor,
			Forced:    forced,
		}),
	}
	if ev.Type == TypeCompleted {
		next.Evidence = p.Evidence
	}

	if acc.Items == nil {
		acc.Items = make(map[string]Item)
	}
	acc.Items[ev.AggregateRef] = next
	return acc, nil, nil
}

func legalFrom(current Lane, allowed []Lane) bool {
	for _, l := range allowed {
		if l == current {
			return true
		}
	}
	return false
}

// Spec wires the status domain into the generic pipeline.
func Spec() reduce.Spec[State] {
	return reduce.Spec[State]{
		Domain:     "status",
		Types:      Types(),
		Conflicts:  Conflicts(),
		Init:       func() State { return State{Items: make(map[string]Item)} },
		Transition: Apply,
	}
}

// Reduce rebuilds work-item status state from an event window.
// Pure: any causal-order-preserving permutation of the same events yields
// the same Result.
func Reduce(events []event.Event, mode reduce.Mode) (reduce.Result[State], error) {
	return reduce.Run(events, Spec(), mode)
}
