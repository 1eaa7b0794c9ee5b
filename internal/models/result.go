package models

import (
	"github.com/google/uuid"
)

// UnknownBroker is reported when no adapter recognises a file
const UnknownBroker = "unknown"

// Meta carries per-import counters
type Meta struct {
	Rows       int   `json:"rows"`    // every data row seen
	Invalid    int   `json:"invalid"` // rows skipped, never in Trades
	DurationMs int64 `json:"durationMs"`
}

// ImportResult is produced once per imported file
type ImportResult struct {
	ID     uuid.UUID `json:"id"`
	Broker string    `json:"broker"`
	Trades []Trade   `json:"trades"`
	Meta   Meta      `json:"meta"`

	Headers          []string `json:"headers,omitempty"`
	SuggestedMapping *Mapping `json:"suggestedMapping,omitempty"` // only when Broker is UnknownBroker
}

// NewImportResult creates an empty result for a broker with generated ID
func NewImportResult(broker string) *ImportResult {
	return &ImportResult{
		ID:     uuid.New(),
		Broker: broker,
		Trades: []Trade{},
	}
}

// Detected returns true if a broker adapter handled the file
func (r *ImportResult) Detected() bool {
	return r.Broker != UnknownBroker
}

// Consistent reports whether rows == trades + invalid
func (r *ImportResult) Consistent() bool {
	return r.Meta.Rows == len(r.Trades)+r.Meta.Invalid
}

// Tickers returns the distinct tickers in first-seen order
func (r *ImportResult) Tickers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range r.Trades {
		if !seen[t.Ticker] {
			seen[t.Ticker] = true
			out = append(out, t.Ticker)
		}
	}
	return out
}
