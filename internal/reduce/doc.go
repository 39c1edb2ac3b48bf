// Package reduce implements the generic fold pipeline shared by every
// state domain.
//
// A reduction is a pure function of the event set: any consumer, handed
// the same events in any physical order, rebuilds the identical state.
// The pipeline is:
//
//	sort (canonical key) -> dedup -> filter to the domain's registered
//	types -> resolve concurrent groups by precedence -> fold the domain
//	transition function -> freeze the result
//
// Event types outside the domain registry are silently skipped - a log
// legitimately interleaves many domains, and foreign events are not
// anomalies.
//
// Two modes govern integrity violations (illegal transition, event from a
// non-rostered participant, terminal re-entry without override):
//
//   - Strict: the violation aborts the reduction with *IntegrityError.
//     For live-traffic ingestion, where silent corruption is worse than
//     rejection.
//   - Permissive: the violation is recorded as an anomaly and folding
//     continues with the previous state. For replaying incomplete or
//     historical windows.
//
// The accumulator is threaded explicitly through the fold. There is no
// global mutable state; the only ambient input a domain may consult is the
// read-only seed captured by its Init closure.
package reduce
