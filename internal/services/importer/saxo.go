package importer

import (
	"fmt"
	"strings"

	"github.com/findosh/tradeimport/internal/models"
)

// SaxoAdapter handles Saxo Bank trade reports
type SaxoAdapter struct {
	columnAdapter
}

// NewSaxoAdapter creates a Saxo adapter
func NewSaxoAdapter() *SaxoAdapter {
	return &SaxoAdapter{columnAdapter{
		id:     "saxo",
		locale: "en-GB",
		signatures: [][]string{
			{"Trade ID", "Trade Date", "Instrument Symbol", "Buy/Sell", "Quantity", "Price"},
			{"Trade Date", "Instrument", "Action", "Quantity", "Price"},
		},
		date:      []string{"Trade Date"},
		ticker:    []string{"Instrument Symbol", "Instrument"},
		action:    []string{"Buy/Sell", "Action"},
		quantity:  []string{"Quantity"},
		price:     []string{"Price"},
		currency:  []string{"Instrument Currency", "Currency"},
		fees:      []string{"Commission"},
		signedQty: true,
	}}
}

// IGAdapter handles IG trade history, both the activity export and the plain
// instrument/action layout. In the activity export only TRADE rows are trades.
type IGAdapter struct {
	columnAdapter
}

// NewIGAdapter creates an IG adapter
func NewIGAdapter() *IGAdapter {
	return &IGAdapter{columnAdapter{
		id:     "ig",
		locale: "en-GB",
		signatures: [][]string{
			{"Date", "Time", "Activity", "Market", "Direction", "Quantity", "Price"},
			{"Date", "Instrument", "Action", "Quantity", "Price"},
		},
		date:      []string{"Date"},
		timeCol:   []string{"Time"},
		ticker:    []string{"Market", "Instrument"},
		action:    []string{"Direction", "Action"},
		quantity:  []string{"Quantity"},
		price:     []string{"Price"},
		currency:  []string{"Currency"},
		fees:      []string{"Commission"},
		signedQty: true,
	}}
}

// ParseRow rejects orders, amendments and cash lines
func (a *IGAdapter) ParseRow(row Row, loc Locale) (models.Trade, error) {
	if row.Col("Activity") >= 0 {
		if activity := row.Get("Activity"); !strings.EqualFold(activity, "TRADE") {
			return models.Trade{}, fmt.Errorf("%w: activity %q", ErrIgnoredAction, activity)
		}
	}
	return a.columnAdapter.ParseRow(row, loc)
}
