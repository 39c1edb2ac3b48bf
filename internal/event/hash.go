package event

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Domain prefix for content-addressed log digests.
// Version suffix enables future algorithm migration.
const domainLog = "missionlog/log/v1"

// LogDigest computes a domain-separated SHA-256 digest over the canonical
// serialization of an event sequence. Two logs containing the same events
// in the same order produce the same digest - this is how merge idempotence
// is verified bit-exactly.
//
// The digest covers envelope fields and the compacted payload bytes.
// Payloads are opaque to the engine, so they enter the digest as their
// producer-written JSON text rather than being re-canonicalized (a payload
// may legally contain floats, which canonical JSON forbids).
func LogDigest(events []Event) (string, error) {
	list := make([]any, len(events))
	for i, ev := range events {
		obj, err := canonicalEnvelope(ev)
		if err != nil {
			return "", fmt.Errorf("event %s: %w", ev.ID, err)
		}
		list[i] = obj
	}

	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal log: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(domainLog))
	h.Write([]byte{0x00}) // null separator prevents domain/data ambiguity
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalEnvelope flattens an event into the map form consumed by
// MarshalCanonical. Optional fields are omitted when unset so that the
// canonical form has no null members.
func canonicalEnvelope(ev Event) (map[string]any, error) {
	obj := map[string]any{
		"id":            ev.ID,
		"type":          string(ev.Type),
		"aggregate_ref": ev.AggregateRef,
		"origin_time":   ev.OriginTime.UTC().Format(time.RFC3339Nano),
		"origin_id":     ev.OriginID,
		"logical_clock": ev.LogicalClock,
		"correlation_id": ev.CorrelationID,
		"tier":          ev.Tier,
	}
	if ev.CausalParent != "" {
		obj["causal_parent"] = ev.CausalParent
	}
	if len(ev.Payload) > 0 {
		var compact bytes.Buffer
		if err := json.Compact(&compact, ev.Payload); err != nil {
			return nil, fmt.Errorf("compact payload: %w", err)
		}
		obj["payload"] = compact.String()
	}
	return obj, nil
}
