package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/findosh/tradeimport/internal/services/telemetry"
	"github.com/google/uuid"
)

// EventRepository stores telemetry events. It satisfies telemetry.Sink.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Record inserts an event
func (r *EventRepository) Record(ctx context.Context, e telemetry.Event) error {
	query := `
		INSERT INTO import_events (id, kind, broker, row_count, invalid_count, trade_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID.String(),
		string(e.Kind),
		e.Broker,
		e.Rows,
		e.Invalid,
		e.Trades,
		e.DurationMs,
		e.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Recent returns the newest events first
func (r *EventRepository) Recent(ctx context.Context, limit int) ([]telemetry.Event, error) {
	query := `
		SELECT id, kind, broker, row_count, invalid_count, trade_count, duration_ms, created_at
		FROM import_events ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []telemetry.Event
	for rows.Next() {
		e, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// BrokerStats aggregates parse results for one broker
type BrokerStats struct {
	Broker  string `json:"broker"`
	Imports int    `json:"imports"`
	Rows    int    `json:"rows"`
	Invalid int    `json:"invalid"`
	Trades  int    `json:"trades"`
}

// Stats sums parse results per broker since the given time
func (r *EventRepository) Stats(ctx context.Context, since time.Time) ([]BrokerStats, error) {
	query := `
		SELECT broker, COUNT(*), SUM(row_count), SUM(invalid_count), SUM(trade_count)
		FROM import_events
		WHERE kind = ? AND created_at >= ?
		GROUP BY broker ORDER BY broker
	`
	rows, err := r.db.QueryContext(ctx, query, string(telemetry.KindParseResult), since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []BrokerStats
	for rows.Next() {
		var s BrokerStats
		if err := rows.Scan(&s.Broker, &s.Imports, &s.Rows, &s.Invalid, &s.Trades); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func scanEventRow(rows *sql.Rows) (*telemetry.Event, error) {
	var e telemetry.Event
	var id, kind string

	err := rows.Scan(&id, &kind, &e.Broker, &e.Rows, &e.Invalid, &e.Trades, &e.DurationMs, &e.At)
	if err != nil {
		return nil, err
	}

	e.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad event id %q: %w", id, err)
	}
	e.Kind = telemetry.Kind(kind)
	return &e, nil
}
