// Package event defines the immutable event envelope shared by every
// producer and consumer of a mission log.
//
// ARCHITECTURE:
//
// Events are append-only facts. Once constructed they are never mutated;
// any transformation produces a new Event value. State is always rebuilt
// by replaying events - the log is the single source of truth.
//
// Producers are independent and offline-first: a CLI agent, a hosted
// service, and a human reviewer each append to their own local log with no
// synchronous coordination. Logs are later merged (typically across
// version-control branches) and reduced to identical state by any consumer.
//
// CRITICAL PATTERNS:
//
// CP-1: Logical Identity and Time
// Every event carries a per-origin Lamport clock value. Wall-clock
// timestamps (OriginTime) are recorded but NEVER trusted for ordering;
// they only break ties between causally concurrent events.
//
// CP-2: Fixed-Width Sortable IDs
// Event and correlation IDs are UUIDv7 strings: fixed width, time-ordered,
// lexicographically sortable. Two events with the same ID are the same
// event (idempotent delivery).
//
// CP-3: Canonical JSON
// Anything hashed or golden-compared is serialized with MarshalCanonical:
// UTF-16 code unit key ordering, NFC normalized strings, no HTML escaping,
// no floats, no nulls.
//
// Structural validation (malformed envelope fields) fails fast at
// construction time via Validate. Malformed events never enter the
// reduction pipeline.
package event
