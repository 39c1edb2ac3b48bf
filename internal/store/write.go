package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/missionlog/internal/event"
)

// Append inserts an event into the local log. The envelope is validated
// first - malformed events never reach disk.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: appending an event that
// is already present (duplicate delivery, re-imported merge output) is a
// silent no-op. Returns inserted=false in that case.
func (s *Store) Append(ctx context.Context, ev event.Event) (inserted bool, err error) {
	if err := ev.Validate(); err != nil {
		return false, fmt.Errorf("append event: %w", err)
	}

	var payload any
	if len(ev.Payload) > 0 {
		payload = string(ev.Payload)
	}
	var parent any
	if ev.CausalParent != "" {
		parent = ev.CausalParent
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events
		(id, type, aggregate_ref, payload, origin_time, origin_id,
		 logical_clock, causal_parent, correlation_id, tier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		string(ev.Type),
		ev.AggregateRef,
		payload,
		ev.OriginTime.UTC().Format(time.RFC3339Nano),
		ev.OriginID,
		int64(ev.LogicalClock),
		parent,
		ev.CorrelationID,
		ev.Tier,
	)
	if err != nil {
		return false, fmt.Errorf("append event %s: %w", ev.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append event %s: rows affected: %w", ev.ID, err)
	}
	return n > 0, nil
}

// AppendAll appends a batch of events in one transaction, returning how
// many were newly inserted. Used when importing a merged log: events the
// local log already holds are skipped idempotently.
func (s *Store) AppendAll(ctx context.Context, events []event.Event) (inserted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append batch: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(id, type, aggregate_ref, payload, origin_time, origin_id,
		 logical_clock, causal_parent, correlation_id, tier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("append batch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			return 0, fmt.Errorf("append batch: %w", err)
		}

		var payload any
		if len(ev.Payload) > 0 {
			payload = string(ev.Payload)
		}
		var parent any
		if ev.CausalParent != "" {
			parent = ev.CausalParent
		}

		res, err := stmt.ExecContext(ctx,
			ev.ID,
			string(ev.Type),
			ev.AggregateRef,
			payload,
			ev.OriginTime.UTC().Format(time.RFC3339Nano),
			ev.OriginID,
			int64(ev.LogicalClock),
			parent,
			ev.CorrelationID,
			ev.Tier,
		)
		if err != nil {
			return 0, fmt.Errorf("append batch: event %s: %w", ev.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("append batch: event %s: rows affected: %w", ev.ID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append batch: commit: %w", err)
	}
	return inserted, nil
}
