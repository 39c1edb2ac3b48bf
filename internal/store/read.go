package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/missionlog/internal/event"
)

const selectColumns = `
	id, type, aggregate_ref, payload, origin_time, origin_id,
	logical_clock, causal_parent, correlation_id, tier`

// Canonical read order. BINARY collation on the fixed-width id column
// matches the engine's final tie-break exactly; origin_time is stored as
// UTC RFC 3339, so its text order tracks chronological order closely
// enough for a pre-sorted dump. The engine re-sorts regardless.
const canonicalOrder = ` ORDER BY logical_clock ASC, origin_time ASC, id COLLATE BINARY ASC`

// ReadAll returns every event in the local log in canonical order.
// Returns an empty slice (not nil) for an empty log.
func (s *Store) ReadAll(ctx context.Context) ([]event.Event, error) {
	return s.readWhere(ctx, "", nil)
}

// ReadByCorrelation returns all events of one execution/run in canonical
// order, for scoped replay.
func (s *Store) ReadByCorrelation(ctx context.Context, correlationID string) ([]event.Event, error) {
	return s.readWhere(ctx, " WHERE correlation_id = ?", []any{correlationID})
}

// ReadByAggregate returns all events concerning one aggregate in canonical
// order.
func (s *Store) ReadByAggregate(ctx context.Context, aggregateRef string) ([]event.Event, error) {
	return s.readWhere(ctx, " WHERE aggregate_ref = ?", []any{aggregateRef})
}

// MaxClock returns the highest logical clock value present in the log,
// or 0 for an empty log. Used to resume a producer's clock: the producer
// Observes this value before its next Tick.
func (s *Store) MaxClock(ctx context.Context) (uint64, error) {
	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(logical_clock) FROM events`).Scan(&max); err != nil {
		return 0, fmt.Errorf("max clock: %w", err)
	}
	if !max.Valid || max.Int64 < 0 {
		return 0, nil
	}
	return uint64(max.Int64), nil
}

func (s *Store) readWhere(ctx context.Context, where string, args []any) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT`+selectColumns+` FROM events`+where+canonicalOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

func scanEvent(rows *sql.Rows) (event.Event, error) {
	var (
		ev         event.Event
		evType     string
		payload    sql.NullString
		originTime string
		clock      int64
		parent     sql.NullString
	)
	if err := rows.Scan(
		&ev.ID, &evType, &ev.AggregateRef, &payload, &originTime,
		&ev.OriginID, &clock, &parent, &ev.CorrelationID, &ev.Tier,
	); err != nil {
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}

	ev.Type = event.Type(evType)
	if payload.Valid {
		ev.Payload = json.RawMessage(payload.String)
	}
	if parent.Valid {
		ev.CausalParent = parent.String
	}

	t, err := time.Parse(time.RFC3339Nano, originTime)
	if err != nil {
		return event.Event{}, fmt.Errorf("scan event %s: origin_time: %w", ev.ID, err)
	}
	ev.OriginTime = t

	if clock < 0 {
		return event.Event{}, fmt.Errorf("scan event %s: negative logical_clock %d", ev.ID, clock)
	}
	ev.LogicalClock = uint64(clock)

	return ev, nil
}
