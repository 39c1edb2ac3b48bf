package order

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/missionlog/internal/event"
	"github.com/roach88/missionlog/internal/testutil"
)

func TestKey_Compare_ClockFirst(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	early := b.Event("status.claimed", "item-1", 1, "")
	late := b.Event("status.started", "item-1", 2, "")

	// Builder gives the later event a later origin time and a larger ID,
	// but the clock alone decides here.
	assert.Equal(t, -1, Compare(early, late))
	assert.Equal(t, 1, Compare(late, early))
	assert.Equal(t, 0, Compare(early, early))
}

func TestKey_Compare_OriginTimeBreaksClockTie(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	first := b.Event("status.claimed", "item-1", 5, "")
	second := b.Event("status.started", "item-2", 5, "")

	assert.Equal(t, -1, Compare(first, second), "same clock, earlier origin time wins")
}

func TestKey_Compare_IDBreaksFullTie(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	first := b.Event("status.claimed", "item-1", 5, "")
	second := b.Event("status.started", "item-2", 5, "")
	second.OriginTime = first.OriginTime

	assert.Equal(t, -1, Compare(first, second), "same clock and time, smaller ID wins")
}

func TestSort_DeterministicUnderPermutation(t *testing.T) {
	a := testutil.NewBuilderAt("origin-a", 0)
	b := testutil.NewBuilderAt("origin-b", 100)
	events := []event.Event{
		a.Event("status.claimed", "item-1", 1, ""),
		a.Event("status.started", "item-1", 2, ""),
		b.Event("status.claimed", "item-2", 1, ""),
		b.Event("status.blocked", "item-2", 3, ""),
		a.Event("status.submitted", "item-1", 3, ""),
	}

	reference := Sort(events)

	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 20; n++ {
		shuffled := slices.Clone(events)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		assert.Equal(t, reference, Sort(shuffled))
	}
}

func TestSort_DoesNotModifyInput(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	e1 := b.Event("status.claimed", "item-1", 2, "")
	e2 := b.Event("status.started", "item-1", 1, "")
	input := []event.Event{e1, e2}

	sorted := Sort(input)

	require.Equal(t, []event.Event{e1, e2}, input)
	assert.Equal(t, []event.Event{e2, e1}, sorted)
}

func TestDedup_KeepsFirstOccurrence(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	e1 := b.Event("status.claimed", "item-1", 1, "")
	e2 := b.Event("status.started", "item-1", 2, "")

	deduped := Dedup(Sort([]event.Event{e1, e2, e1, e2, e1}))

	assert.Equal(t, []event.Event{e1, e2}, deduped)
}

func TestDedup_Idempotent(t *testing.T) {
	b := testutil.NewBuilder("origin-a")
	events := []event.Event{
		b.Event("status.claimed", "item-1", 1, ""),
		b.Event("status.started", "item-1", 2, ""),
		b.Event("status.submitted", "item-1", 3, ""),
	}

	once := Dedup(Sort(events))
	doubled := Dedup(Sort(append(slices.Clone(events), events...)))

	assert.Equal(t, once, doubled)
}

func TestDedup_EmptyInput(t *testing.T) {
	assert.Empty(t, Dedup(Sort(nil)))
}
