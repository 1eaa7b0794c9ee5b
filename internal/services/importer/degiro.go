package importer

import (
	"github.com/findosh/tradeimport/internal/models"
)

// DegiroAdapter handles DEGIRO "Transactions" exports.
// Sells have a negative quantity; the currency sits in the unnamed column after Price.
type DegiroAdapter struct {
	columnAdapter
}

// NewDegiroAdapter creates a DEGIRO adapter
func NewDegiroAdapter() *DegiroAdapter {
	return &DegiroAdapter{columnAdapter{
		id:         "degiro",
		locale:     "nl-NL",
		signatures: [][]string{{"Date", "Time", "Product", "ISIN", "Quantity", "Price"}},
		date:       []string{"Date"},
		timeCol:    []string{"Time"},
		ticker:     []string{"Product"},
		quantity:   []string{"Quantity"},
		price:      []string{"Price"},
		fees:       []string{"Transaction and/or third party fees", "Transaction costs"},
		signedQty:  true,
	}}
}

// ParseRow maps a transaction and reads the price currency by position
func (a *DegiroAdapter) ParseRow(row Row, loc Locale) (models.Trade, error) {
	trade, err := a.columnAdapter.ParseRow(row, loc)
	if err != nil {
		return trade, err
	}
	if i := row.Col("Price"); i >= 0 {
		trade.Currency = NormalizeCurrency(row.At(i + 1))
	}
	return trade, nil
}
