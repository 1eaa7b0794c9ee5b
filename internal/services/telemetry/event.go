// Package telemetry records fire-and-forget import events
package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Kind names a point in the import pipeline
type Kind string

const (
	KindDetect      Kind = "detect"
	KindParseResult Kind = "parseResult"
	KindSuccess     Kind = "success"
)

// Event is one telemetry record keyed by broker id
type Event struct {
	ID         uuid.UUID `json:"id"`
	Kind       Kind      `json:"kind"`
	Broker     string    `json:"broker"`
	Rows       int       `json:"rows"`
	Invalid    int       `json:"invalid"`
	Trades     int       `json:"trades"`
	DurationMs int64     `json:"durationMs"`
	At         time.Time `json:"at"`
}

// NewEvent stamps an event with an id and the current time
func NewEvent(kind Kind, broker string) Event {
	return Event{
		ID:     uuid.New(),
		Kind:   kind,
		Broker: broker,
		At:     time.Now().UTC(),
	}
}

// WithCounts returns a copy carrying row counts
func (e Event) WithCounts(rows, invalid, trades int, durationMs int64) Event {
	e.Rows = rows
	e.Invalid = invalid
	e.Trades = trades
	e.DurationMs = durationMs
	return e
}
