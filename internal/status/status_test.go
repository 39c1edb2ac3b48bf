package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/reduce"
	"github.com/roach88/missionlog/internal/testutil"
)

func TestLane_Terminal(t *testing.T) {
	assert.True(t, LaneDone.Terminal())
	assert.True(t, LaneCanceled.Terminal())
	assert.False(t, LanePlanned.Terminal())
	assert.False(t, LaneBlocked.Terminal())
	assert.False(t, LaneRework.Terminal())
}

func TestState_Item_UnknownIsPlanned(t *testing.T) {
	var s State
	item := s.Item("never-seen")
	assert.Equal(t, LanePlanned, item.Lane)
	assert.Empty(t, item.History)
}

func TestReduce_HappyPathLifecycle(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	events := []event.Event{
		b.Event(TypeClaimed, "item-1", 1, `{"actor":"ana"}`),
		b.Event(TypeStarted, "item-1", 2, `{"actor":"ana"}`),
		b.Event(TypeSubmitted, "item-1", 3, `{"actor":"ana"}`),
		b.Event(TypeCompleted, "item-1", 4, `{"actor":"rey","evidence":{"review":"approved"}}`),
	}

	res, err := Reduce(events, reduce.Strict)
	require.NoError(t, err)

	item := res.State.Item("item-1")
	assert.Equal(t, LaneDone, item.Lane)
	assert.JSONEq(t, `{"review":"approved"}`, string(item.Evidence))

	require.Len(t, item.History, 4)
	assert.Equal(t, LanePlanned, item.History[0].From)
	assert.Equal(t, LaneClaimed, item.History[0].To)
	assert.Equal(t, "ana", item.History[0].Actor)
	assert.Equal(t, LaneDone, item.History[3].To)
	assert.Equal(t, "rey", item.History[3].Actor)

	assert.Empty(t, res.Anomalies)
	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, events[3].ID, res.LastEventID)
}

func TestReduce_DeterministicUnderPermutation(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	events := []event.Event{
		b.Event(TypeClaimed, "item-1", 1, `{"actor":"ana"}`),
		b.Event(TypeStarted, "item-1", 2, ""),
		b.Event(TypeBlocked, "item-1", 3, ""),
		b.Event(TypeClaimed, "item-2", 4, `{"actor":"bo"}`),
	}

	forward, err := Reduce(events, reduce.Strict)
	require.NoError(t, err)
	backward, err := Reduce(testutil.Reversed(events), reduce.Strict)
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
}

func TestReduce_TerminationBeatsReopen(t *testing.T) {
	// origin-a reopens a blocked item while origin-b concurrently cancels
	// it at the same clock position. Precedence applies the cancel last,
	// so the race always ends canceled regardless of delivery order.
	setupAndRace := func(first, second event.Event) reduce.Result[State] {
		b := testutil.NewBuilderAt("origin-c", 200)
		events := []event.Event{
			b.Event(TypeClaimed, "item-1", 1, `{"actor":"ana"}`),
			b.Event(TypeBlocked, "item-1", 2, ""),
			first,
			second,
		}
		res, err := Reduce(events, reduce.Strict)
		require.NoError(t, err)
		return res
	}

	a := testutil.NewBuilderAt("origin-a", 0)
	c := testutil.NewBuilderAt("origin-b", 100)
	reopen := a.Event(TypeReopened, "item-1", 5, "")
	cancel := c.Event(TypeCanceled, "item-1", 5, "")

	forward := setupAndRace(reopen, cancel)
	backward := setupAndRace(cancel, reopen)

	assert.Equal(t, LaneCanceled, forward.State.Item("item-1").Lane)
	assert.Equal(t, LaneCanceled, backward.State.Item("item-1").Lane)
	assert.Equal(t, forward, backward)
}

func TestReduce_RollbackBeatsForwardProgress(t *testing.T) {
	// The author submits for review while the reviewer concurrently sends
	// the item back. The rollback is applied after the submit, so the
	// send-back survives: in_progress -> for_review -> rework.
	setupAndRace := func(first, second event.Event) reduce.Result[State] {
		b := testutil.NewBuilderAt("origin-c", 200)
		events := []event.Event{
			b.Event(TypeClaimed, "item-1", 1, `{"actor":"ana"}`),
			b.Event(TypeStarted, "item-1", 2, ""),
			first,
			second,
		}
		res, err := Reduce(events, reduce.Strict)
		require.NoError(t, err)
		return res
	}

	a := testutil.NewBuilderAt("origin-a", 0)
	c := testutil.NewBuilderAt("origin-b", 100)
	submit := a.Event(TypeSubmitted, "item-1", 5, "")
	sendBack := c.Event(TypeChangesRequested, "item-1", 5, `{"review_ref":"rev-7"}`)

	forward := setupAndRace(submit, sendBack)
	backward := setupAndRace(sendBack, submit)

	assert.Equal(t, LaneRework, forward.State.Item("item-1").Lane)
	assert.Equal(t, forward, backward)
}

func TestReduce_ReworkLoop(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	events := []event.Event{
		b.Event(TypeClaimed, "item-1", 1, `{"actor":"ana"}`),
		b.Event(TypeStarted, "item-1", 2, ""),
		b.Event(TypeSubmitted, "item-1", 3, ""),
		b.Event(TypeChangesRequested, "item-1", 4, `{"review_ref":"rev-1"}`),
		b.Event(TypeStarted, "item-1", 5, ""),
		b.Event(TypeSubmitted, "item-1", 6, ""),
		b.Event(TypeCompleted, "item-1", 7, `{"evidence":{"review":"rev-2"}}`),
	}

	res, err := Reduce(events, reduce.Strict)
	require.NoError(t, err)
	assert.Equal(t, LaneDone, res.State.Item("item-1").Lane)
	assert.Empty(t, res.Anomalies)
}

func TestReduce_GuardViolations(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	claim := b.Event(TypeClaimed, "item-1", 1, `{"actor":"ana"}`)
	started := b.Event(TypeStarted, "item-1", 2, "")
	submitted := b.Event(TypeSubmitted, "item-1", 3, "")

	tests := []struct {
		name   string
		prefix []event.Event
		ev     event.Event
		reason string
	}{
		{
			name:   "claim without actor",
			ev:     b.Event(TypeClaimed, "item-2", 1, "{}"),
			reason: "claim requires an actor",
		},
		{
			name:   "changes_requested without review_ref",
			prefix: []event.Event{claim, started, submitted},
			ev:     b.Event(TypeChangesRequested, "item-1", 4, "{}"),
			reason: "changes_requested requires a review_ref",
		},
		{
			name:   "completion without evidence",
			prefix: []event.Event{claim, started, submitted},
			ev:     b.Event(TypeCompleted, "item-1", 4, "{}"),
			reason: "completion requires evidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := append(append([]event.Event{}, tt.prefix...), tt.ev)

			_, err := Reduce(events, reduce.Strict)
			require.Error(t, err)
			var ie *reduce.IntegrityError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.ev.ID, ie.EventID)
			assert.Equal(t, tt.reason, ie.Reason)

			res, err := Reduce(events, reduce.Permissive)
			require.NoError(t, err)
			require.Len(t, res.Anomalies, 1)
			assert.Equal(t, tt.ev.ID, res.Anomalies[0].EventID)
		})
	}
}

func TestReduce_IllegalTransition(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	events := []event.Event{
		b.Event(TypeStarted, "item-1", 1, ""), // planned items cannot start
	}

	_, err := Reduce(events, reduce.Strict)
	var ie *reduce.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "illegal transition planned -> in_progress", ie.Reason)

	res, err := Reduce(events, reduce.Permissive)
	require.NoError(t, err)
	assert.Equal(t, LanePlanned, res.State.Item("item-1").Lane)
	require.Len(t, res.Anomalies, 1)
}

func TestReduce_TerminalReentryWithoutForce(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	events := []event.Event{
		b.Event(TypeCanceled, "item-1", 1, ""),
		b.Event(TypeClaimed, "item-1", 2, `{"actor":"ana"}`),
	}

	_, err := Reduce(events, reduce.Strict)
	var ie *reduce.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, ie.Reason, "terminal re-entry")

	res, err := Reduce(events, reduce.Permissive)
	require.NoError(t, err)
	assert.Equal(t, LaneCanceled, res.State.Item("item-1").Lane)
	require.Len(t, res.Anomalies, 1)
}

func TestReduce_ForceOverride(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	events := []event.Event{
		b.Event(TypeCanceled, "item-1", 1, ""),
		b.Event(TypeClaimed, "item-1", 2, `{"actor":"lead","force":true,"reason":"canceled by mistake"}`),
	}

	res, err := Reduce(events, reduce.Strict)
	require.NoError(t, err)

	item := res.State.Item("item-1")
	assert.Equal(t, LaneClaimed, item.Lane)
	require.Len(t, item.History, 2)
	assert.True(t, item.History[1].Forced)
	assert.Empty(t, res.Anomalies)
}

func TestReduce_ForceRequiresActorAndReason(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	events := []event.Event{
		b.Event(TypeCanceled, "item-1", 1, ""),
		b.Event(TypeClaimed, "item-1", 2, `{"actor":"lead","force":true}`),
	}

	_, err := Reduce(events, reduce.Strict)
	var ie *reduce.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "force override requires actor and reason", ie.Reason)
}

func TestReduce_DuplicateTerminationIsAnomalyInBothModes(t *testing.T) {
	a := testutil.NewBuilderAt("origin-a", 0)
	c := testutil.NewBuilderAt("origin-b", 100)
	events := []event.Event{
		a.Event(TypeCanceled, "item-1", 3, ""),
		c.Event(TypeCanceled, "item-1", 4, ""),
	}

	for _, mode := range []reduce.Mode{reduce.Strict, reduce.Permissive} {
		t.Run(mode.String(), func(t *testing.T) {
			res, err := Reduce(events, mode)
			require.NoError(t, err, "agreeing terminations must never hard-fail")

			assert.Equal(t, LaneCanceled, res.State.Item("item-1").Lane)
			require.Len(t, res.Anomalies, 1)
			assert.Contains(t, res.Anomalies[0].Reason, "duplicate termination")
			assert.Equal(t, 2, res.Processed)
		})
	}
}

func TestReduce_BlockedAndReopened(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	events := []event.Event{
		b.Event(TypeClaimed, "item-1", 1, `{"actor":"ana"}`),
		b.Event(TypeStarted, "item-1", 2, ""),
		b.Event(TypeBlocked, "item-1", 3, ""),
		b.Event(TypeReopened, "item-1", 4, ""),
	}

	res, err := Reduce(events, reduce.Strict)
	require.NoError(t, err)
	assert.Equal(t, LaneInProgress, res.State.Item("item-1").Lane)
}

func TestReduce_IgnoresForeignTypes(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	events := []event.Event{
		b.Event(TypeClaimed, "item-1", 1, `{"actor":"ana"}`),
		b.Event("mission.created", "mission-1", 2, ""),
	}

	res, err := Reduce(events, reduce.Strict)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, LaneClaimed, res.State.Item("item-1").Lane)
	assert.NotContains(t, res.State.Items, "mission-1")
}
