package mission

import (
	"github.com/roach88/missionlog/internal/conflict"
	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/status"
)

// Mission domain event types: lifecycle plus roster. The mission registry
// also recognizes every status type, because work-item events fold into the
// embedded status projection.
const (
	TypeCreated   event.Type = "mission.created"
	TypeActivated event.Type = "mission.activated"
	TypePaused    event.Type = "mission.paused"
	TypeResumed   event.Type = "mission.resumed"
	TypeCompleted event.Type = "mission.completed"
	TypeAborted   event.Type = "mission.aborted"

	TypeJoined event.Type = "roster.joined"
	TypeLeft   event.Type = "roster.left"
)

// Types returns the closed registry of event types the mission reducer
// recognizes: its own tags plus the delegated status tags.
func Types() map[event.Type]bool {
	types := status.Types()
	for _, t := range []event.Type{
		TypeCreated, TypeActivated, TypePaused, TypeResumed,
		TypeCompleted, TypeAborted, TypeJoined, TypeLeft,
	} {
		types[t] = true
	}
	return types
}

// Conflicts returns the mission-level precedence table. mission.aborted and
// mission.completed are terminal: they are applied after any concurrent
// reactivation (pause/resume) at the same clock position.
func Conflicts() conflict.Table {
	return conflict.Table{
		TypeCompleted: conflict.ClassCorrective,
		TypeAborted:   conflict.ClassCorrective,
	}
}
