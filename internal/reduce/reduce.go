package reduce

import (
	"fmt"

	"github.com/roach88/missionlog/internal/conflict"
	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/order"
)

// Mode selects how integrity violations are handled during a fold.
type Mode int

const (
	// Permissive records violations as anomalies and keeps folding.
	Permissive Mode = iota
	// Strict aborts the reduction on the first violation.
	Strict
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Permissive:
		return "permissive"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "strict" or "permissive".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "strict":
		return Strict, nil
	case "permissive":
		return Permissive, nil
	default:
		return Permissive, fmt.Errorf("invalid mode %q: must be \"strict\" or \"permissive\"", s)
	}
}

// Spec describes one state domain to the generic pipeline.
type Spec[S any] struct {
	// Domain names the state domain, for error reporting.
	Domain string

	// Types is the closed registry of recognized event types. Events with
	// other types are filtered out before the fold, silently.
	Types map[event.Type]bool

	// Conflicts is the domain's precedence table for concurrent groups.
	Conflicts conflict.Table

	// Init produces the fold's starting accumulator. A domain offering
	// seeded reduction captures the (read-only) seed in this closure.
	Init func() S

	// Transition folds one event into the accumulator.
	//
	// Non-fatal observations are returned as anomalies. An integrity
	// violation is returned as a non-nil error; the pipeline decides per
	// Mode whether it aborts (strict) or becomes one more anomaly with the
	// accumulator left as it was (permissive). The returned S is ignored
	// when err is non-nil.
	Transition func(acc S, ev event.Event) (S, []event.Anomaly, error)
}

// Result is a frozen reduction outcome. It is rebuilt from scratch on every
// call - the event log, not the Result, is the source of truth.
type Result[S any] struct {
	// State is the domain projection after folding every surviving event.
	State S

	// Anomalies collects every non-fatal observation, in fold order.
	Anomalies []event.Anomaly

	// Processed counts events actually folded (after dedup and filtering).
	Processed int

	// LastEventID is the ID of the final folded event, or "" for an empty
	// reduction.
	LastEventID string
}

// IntegrityError is a strict-mode hard failure. It identifies the offending
// event and the violated constraint so the caller can reject or quarantine
// the input.
type IntegrityError struct {
	Domain    string
	EventID   string
	EventType event.Type
	Reason    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s: event %s (%s): %s",
		e.Domain, e.EventID, e.EventType, e.Reason)
}

// Run executes the generic reduction pipeline over a borrowed event slice.
//
// The input is never modified. Run is pure: same event set in, same Result
// out, for every physical permutation of the input.
func Run[S any](events []event.Event, spec Spec[S], mode Mode) (Result[S], error) {
	canonical := order.Dedup(order.Sort(events))

	recognized := make([]event.Event, 0, len(canonical))
	for _, ev := range canonical {
		if spec.Types[ev.Type] {
			recognized = append(recognized, ev)
		}
	}

	resolved, _ := conflict.Resolve(recognized, spec.Conflicts)

	acc := spec.Init()
	res := Result[S]{}
	for _, ev := range resolved {
		next, anoms, err := spec.Transition(acc, ev)
		if err != nil {
			if mode == Strict {
				return Result[S]{}, &IntegrityError{
					Domain:    spec.Domain,
					EventID:   ev.ID,
					EventType: ev.Type,
					Reason:    err.Error(),
				}
			}
			// Permissive: the violation becomes an anomaly and the
			// accumulator keeps its previous value.
			res.Anomalies = append(res.Anomalies, event.NewAnomaly(ev, "%s", err.Error()))
		} else {
			acc = next
			res.Anomalies = append(res.Anomalies, anoms...)
		}
		res.Processed++
		res.LastEventID = ev.ID
	}

	res.State = acc
	return res, nil
}
