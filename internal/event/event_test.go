package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() Event {
	return Event{
		ID:            "00000000-0000-7000-8000-000000000001",
		Type:          "status.claimed",
		AggregateRef:  "item-1",
		Payload:       json.RawMessage(`{"actor":"ana"}`),
		OriginTime:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		OriginID:      "origin-a",
		LogicalClock:  1,
		CorrelationID: "00000000-0000-7000-8000-0000000000aa",
		Tier:          0,
	}
}

func TestEvent_Validate_OK(t *testing.T) {
	assert.NoError(t, validEvent().Validate())
}

func TestEvent_Validate_OptionalFieldsAbsent(t *testing.T) {
	ev := validEvent()
	ev.Payload = nil
	ev.CausalParent = ""
	assert.NoError(t, ev.Validate())
}

func TestEvent_Validate_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Event)
		field  string
	}{
		{"invalid id", func(ev *Event) { ev.ID = "not-a-uuid" }, "id"},
		{"empty id", func(ev *Event) { ev.ID = "" }, "id"},
		{"empty type", func(ev *Event) { ev.Type = "" }, "type"},
		{"empty aggregate", func(ev *Event) { ev.AggregateRef = "" }, "aggregate_ref"},
		{"zero origin time", func(ev *Event) { ev.OriginTime = time.Time{} }, "origin_time"},
		{"empty origin id", func(ev *Event) { ev.OriginID = "" }, "origin_id"},
		{"invalid causal parent", func(ev *Event) { ev.CausalParent = "xyz" }, "causal_parent"},
		{"self causal parent", func(ev *Event) { ev.CausalParent = ev.ID }, "causal_parent"},
		{"invalid correlation", func(ev *Event) { ev.CorrelationID = "xyz" }, "correlation_id"},
		{"negative tier", func(ev *Event) { ev.Tier = -1 }, "tier"},
		{"invalid payload", func(ev *Event) { ev.Payload = json.RawMessage(`{`) }, "payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := validEvent()
			tt.mutate(&ev)

			err := ev.Validate()
			require.Error(t, err)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestEvent_Clone_Independent(t *testing.T) {
	ev := validEvent()
	clone := ev.Clone()

	require.Equal(t, ev, clone)

	// Mutating the clone's payload bytes must not touch the original.
	clone.Payload[0] = 'X'
	assert.Equal(t, byte('{'), ev.Payload[0])
}
