// Package mission is the mission-lifecycle reducer: lifecycle phase,
// collaboration roster, and per-work-item status, rebuilt from one event
// window.
//
// Composition is explicit at the type level: State embeds the status
// projection, and the mission transition function delegates every status.*
// event to status.Apply as a pure subroutine. Ordering, dedup, and conflict
// resolution run once, in the shared pipeline - this reducer never
// re-implements them.
//
// Roster membership is the only authorization concern in scope: an event
// whose actor is not in the roster is an integrity violation (hard error in
// strict mode, anomaly in permissive mode). A seed roster allows a partial
// event window to pass strict membership checks without replaying history
// from genesis; seed membership is effective only from the start of the
// window, never retroactively.
package mission

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/missionlog/internal/conflict"
	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/reduce"
	"github.com/roach88/missionlog/internal/status"
)

// Phase is a mission lifecycle phase.
type Phase string

const (
	PhaseDraft     Phase = "draft"
	PhaseActive    Phase = "active"
	PhasePaused    Phase = "paused"
	PhaseCompleted Phase = "completed"
	PhaseAborted   Phase = "aborted"
)

// Terminal reports whether the phase admits no further lifecycle events.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAborted
}

// Member is one rostered participant.
type Member struct {
	Role string `json:"role,omitempty"`

	// Seeded marks members supplied by the caller rather than observed as
	// roster.joined events. Seeded membership is effective only from the
	// start of the reduced window.
	Seeded bool `json:"seeded,omitempty"`

	// JoinedBy is the roster.joined event ID, empty for seeded members.
	JoinedBy string `json:"joined_by,omitempty"`
}

// Seed pre-populates reducer state so a partial window can be validated in
// strict mode. Typically loaded from a YAML roster file by the CLI.
type Seed struct {
	Mission string       `yaml:"mission" json:"mission"`
	Roster  []SeedMember `yaml:"roster" json:"roster"`
}

// SeedMember is one pre-known participant.
type SeedMember struct {
	Participant string `yaml:"participant" json:"participant"`
	Role        string `yaml:"role,omitempty" json:"role,omitempty"`
}

// Payload is the interpreted portion of mission.* and roster.* payloads.
type Payload struct {
	Actor       string `json:"actor,omitempty"`
	Participant string `json:"participant,omitempty"`
	Role        string `json:"role,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// State is the mission projection.
type State struct {
	MissionID string            `json:"mission_id,omitempty"`
	Phase     Phase             `json:"phase,omitempty"`
	Roster    map[string]Member `json:"roster"`
	Items     status.State      `json:"items"`
}

// phaseTargets is the lifecycle transition table. mission.created is
// handled separately because it establishes the aggregate.
var phaseTargets = map[event.Type]struct {
	to   Phase
	from []Phase
}{
	TypeActivated: {to: PhaseActive, from: []Phase{PhaseDraft}},
	TypePaused:    {to: PhasePaused, from: []Phase{PhaseActive}},
	TypeResumed:   {to: PhaseActive, from: []Phase{PhasePaused}},
	TypeCompleted: {to: PhaseCompleted, from: []Phase{PhaseActive}},
	TypeAborted:   {to: PhaseAborted, from: []Phase{PhaseDraft, PhaseActive, PhasePaused}},
}

// Reduce rebuilds mission state from an event window. seed may be nil.
func Reduce(events []event.Event, mode reduce.Mode, seed *Seed) (reduce.Result[State], error) {
	return reduce.Run(events, Spec(seed), mode)
}

// Spec wires the mission domain into the generic pipeline. The seed is
// captured read-only by Init; the fold itself threads an explicit
// accumulator and touches no shared state.
func Spec(seed *Seed) reduce.Spec[State] {
	return reduce.Spec[State]{
		Domain:     "mission",
		Types:      Types(),
		Conflicts:  conflict.Merge(status.Conflicts(), Conflicts()),
		Init:       func() State { return initialState(seed) },
		Transition: apply,
	}
}

func initialState(seed *Seed) State {
	s := State{
		Roster: make(map[string]Member),
		Items:  status.State{Items: make(map[string]status.Item)},
	}
	if seed == nil {
		return s
	}
	s.MissionID = seed.Mission
	for _, m := range seed.Roster {
		s.Roster[m.Participant] = Member{Role: m.Role, Seeded: true}
	}
	return s
}

func apply(acc State, ev event.Event) (State, []event.Anomaly, error) {
	if status.Types()[ev.Type] {
		return applyStatus(acc, ev)
	}

	var p Payload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return acc, nil, fmt.Errorf("payload does not decode as a mission payload: %v", err)
		}
	}

	if ev.Type == TypeCreated {
		return applyCreated(acc, ev)
	}

	if acc.Phase == "" {
		return acc, nil, fmt.Errorf("mission %s not created in this window", ev.AggregateRef)
	}
	if ev.AggregateRef != acc.MissionID {
		return acc, []event.Anomaly{event.NewAnomaly(ev,
			"event for mission %s folded into window for mission %s; skipped",
			ev.AggregateRef, acc.MissionID)}, nil
	}

	switch ev.Type {
	case TypeActivated, TypePaused, TypeResumed, TypeCompleted, TypeAborted:
		return applyLifecycle(acc, ev, p)
	case TypeJoined:
		return applyJoined(acc, ev, p)
	case TypeLeft:
		return applyLeft(acc, ev, p)
	default:
		// Unreachable when driven through the registry filter.
		return acc, nil, fmt.Errorf("unrecognized mission event type %q", ev.Type)
	}
}

func applyCreated(acc State, ev event.Event) (State, []event.Anomaly, error) {
	if acc.Phase != "" {
		return acc, []event.Anomaly{
			event.NewAnomaly(ev, "mission %s already created; skipped", acc.MissionID),
		}, nil
	}
	if acc.MissionID != "" && acc.MissionID != ev.AggregateRef {
		// Seed named a different mission than the log creates.
		return acc, nil, fmt.Errorf("window seeded for mission %s but log creates %s",
			acc.MissionID, ev.AggregateRef)
	}
	acc.MissionID = ev.AggregateRef
	acc.Phase = PhaseDraft
	return acc, nil, nil
}

func applyLifecycle(acc State, ev event.Event, p Payload) (State, []event.Anomaly, error) {
	spec := phaseTargets[ev.Type]

	if acc.Phase.Terminal() && spec.to == acc.Phase {
		return acc, []event.Anomaly{
			event.NewAnomaly(ev, "duplicate termination: mission already %s", acc.Phase),
		}, nil
	}
	if !slices.Contains(spec.from, acc.Phase) {
		if acc.Phase.Terminal() {
			return acc, nil, fmt.Errorf("terminal re-entry: mission is %s", acc.Phase)
		}
		return acc, nil, fmt.Errorf("illegal lifecycle transition %s -> %s", acc.Phase, spec.to)
	}
	if err := checkActor(acc, p.Actor); err != nil {
		return acc, nil, err
	}

	if ev.Type == TypeCompleted {
		if open := openItems(acc.Items); len(open) > 0 {
			return acc, nil, fmt.Errorf("mission completed with non-terminal work items: %v", open)
		}
	}

	acc.Phase = spec.to
	return acc, nil, nil
}

func applyJoined(acc State, ev event.Event, p Payload) (State, []event.Anomaly, error) {
	if p.Participant == "" {
		return acc, nil, fmt.Errorf("roster join requires a participant")
	}
	if existing, ok := acc.Roster[p.Participant]; ok {
		reason := "participant %q already in roster"
		if existing.Seeded {
			reason = "participant %q already in roster (seeded)"
		}
		return acc, []event.Anomaly{event.NewAnomaly(ev, reason, p.Participant)}, nil
	}
	acc.Roster[p.Participant] = Member{Role: p.Role, JoinedBy: ev.ID}
	return acc, nil, nil
}

func applyLeft(acc State, ev event.Event, p Payload) (State, []event.Anomaly, error) {
	if p.Participant == "" {
		return acc, nil, fmt.Errorf("roster leave requires a participant")
	}
	if _, ok := acc.Roster[p.Participant]; !ok {
		return acc, nil, fmt.Errorf("participant %q not in mission roster", p.Participant)
	}
	delete(acc.Roster, p.Participant)
	return acc, nil, nil
}

// applyStatus delegates a work-item event to the status reducer's
// transition function, after the roster membership check on its actor.
func applyStatus(acc State, ev event.Event) (State, []event.Anomaly, error) {
	var p status.Payload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return acc, nil, fmt.Errorf("payload does not decode as a status payload: %v", err)
		}
	}
	if err := checkActor(acc, p.Actor); err != nil {
		return acc, nil, err
	}

	items, anoms, err := status.Apply(acc.Items, ev)
	if err != nil {
		return acc, nil, err
	}
	acc.Items = items
	return acc, anoms, nil
}

// checkActor enforces roster membership for actor-bearing events.
// Events without an actor pass: requiring one is a schema-layer concern.
func checkActor(acc State, actor string) error {
	if actor == "" {
		return nil
	}
	if _, ok := acc.Roster[actor]; !ok {
		return fmt.Errorf("participant %q not in mission roster", actor)
	}
	return nil
}

func openItems(items status.State) []string {
	var open []string
	for ref, it := range items.Items {
		if !it.Lane.Terminal() {
			open = append(open, ref)
		}
	}
	slices.Sort(open)
	return open
}
