package status

import (
	"github.com/roach88/missionlog/internal/conflict"
	"github.com/roach88/missionlog/internal/event"
)

// Status domain event types. This is a closed set: the reducer filter
// recognizes exactly these tags, and the transition table matches them
// exhaustively. Adding a lane means adding a type here, a row in the
// transition table, and the tests - a compile-time-checked exercise, not a
// runtime lookup failure.
const (
	TypeClaimed          event.Type = "status.claimed"
	TypeStarted          event.Type = "status.started"
	TypeSubmitted        event.Type = "status.submitted"
	TypeChangesRequested event.Type = "status.changes_requested"
	TypeBlocked          event.Type = "status.blocked"
	TypeReopened         event.Type = "status.reopened"
	TypeCompleted        event.Type = "status.completed"
	TypeCanceled         event.Type = "status.canceled"
)

// Types returns the closed registry of status event types.
func Types() map[event.Type]bool {
	return map[event.Type]bool{
		TypeClaimed:          true,
		TypeStarted:          true,
		TypeSubmitted:        true,
		TypeChangesRequested: true,
		TypeBlocked:          true,
		TypeReopened:         true,
		TypeCompleted:        true,
		TypeCanceled:         true,
	}
}

// Conflicts returns the status precedence table.
//
// changes_requested is the rollback event: applied after any concurrent
// forward progress so the reviewer's send-back survives. completed and
// canceled are terminal: applied after any concurrent reactivation so a
// termination always wins the race against a reopen.
func Conflicts() conflict.Table {
	return conflict.Table{
		TypeChangesRequested: conflict.ClassCorrective,
		TypeCompleted:        conflict.ClassCorrective,
		TypeCanceled:         conflict.ClassCorrective,
	}
}
