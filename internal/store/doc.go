// Package store is the local append-only event log.
//
// Each producer keeps its own SQLite database: an offline-first outbox of
// the events it has emitted plus any events imported from merged logs. The
// reduction and merge engines never touch this package - they are pure
// functions over in-memory slices - the store exists so the CLI has a
// durable log to append to, export, and reduce.
//
// Appends are idempotent (ON CONFLICT(id) DO NOTHING): replaying an import
// or re-appending a duplicate delivery is a no-op, mirroring the engine's
// dedup semantics at the persistence boundary.
//
// Reads come back in canonical order (logical_clock, origin_time, id) so a
// dumped log is already a valid merge input. Consumers still run the
// in-memory pipeline over what they read; the SQL ordering is a
// convenience, not the contract.
package store
