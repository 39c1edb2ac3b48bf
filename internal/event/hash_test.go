package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestEvent(n int, payload string) Event {
	ev := Event{
		ID:            "00000000-0000-7000-8000-00000000000" + string(rune('0'+n)),
		Type:          "status.claimed",
		AggregateRef:  "item-1",
		OriginTime:    time.Date(2025, 6, 1, 12, 0, n, 0, time.UTC),
		OriginID:      "origin-a",
		LogicalClock:  uint64(n),
		CorrelationID: "00000000-0000-7000-8000-0000000000aa",
	}
	if payload != "" {
		ev.Payload = json.RawMessage(payload)
	}
	return ev
}

func TestLogDigest_Deterministic(t *testing.T) {
	events := []Event{digestEvent(1, `{"actor":"ana"}`), digestEvent(2, "")}

	d1, err := LogDigest(events)
	require.NoError(t, err)
	d2, err := LogDigest(events)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64) // hex sha256
}

func TestLogDigest_OrderSensitive(t *testing.T) {
	a := digestEvent(1, "")
	b := digestEvent(2, "")

	forward, err := LogDigest([]Event{a, b})
	require.NoError(t, err)
	backward, err := LogDigest([]Event{b, a})
	require.NoError(t, err)

	assert.NotEqual(t, forward, backward)
}

func TestLogDigest_ContentSensitive(t *testing.T) {
	base, err := LogDigest([]Event{digestEvent(1, `{"actor":"ana"}`)})
	require.NoError(t, err)
	changed, err := LogDigest([]Event{digestEvent(1, `{"actor":"bo"}`)})
	require.NoError(t, err)

	assert.NotEqual(t, base, changed)
}

func TestLogDigest_PayloadWhitespaceInsignificant(t *testing.T) {
	// Payloads enter the digest compacted, so producer formatting
	// differences do not change log identity.
	tight, err := LogDigest([]Event{digestEvent(1, `{"actor":"ana"}`)})
	require.NoError(t, err)
	loose, err := LogDigest([]Event{digestEvent(1, `{ "actor": "ana" }`)})
	require.NoError(t, err)

	assert.Equal(t, tight, loose)
}

func TestLogDigest_FloatPayloadAllowed(t *testing.T) {
	// Envelope fields are canonical-JSON strict, but payloads are opaque
	// producer documents and may carry floats.
	_, err := LogDigest([]Event{digestEvent(1, `{"lat":47.6097,"lon":-122.3331}`)})
	assert.NoError(t, err)
}

func TestLogDigest_EmptyLog(t *testing.T) {
	d, err := LogDigest(nil)
	require.NoError(t, err)
	assert.Len(t, d, 64)
}
