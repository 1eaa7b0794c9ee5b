package importer

import (
	"fmt"

	"github.com/findosh/tradeimport/internal/models"
)

// EToroAdapter handles the eToro account statement "Account Activity" sheet.
// Rows carry a position amount and units; the price is derived from both.
type EToroAdapter struct {
	columnAdapter
}

// NewEToroAdapter creates an eToro adapter
func NewEToroAdapter() *EToroAdapter {
	return &EToroAdapter{columnAdapter{
		id:              "etoro",
		locale:          "en-GB",
		signatures:      [][]string{{"Date", "Type", "Details", "Amount", "Units", "Position ID"}},
		date:            []string{"Date"},
		ticker:          []string{"Details"},
		action:          []string{"Type"},
		quantity:        []string{"Units"},
		price:           []string{"Amount"},
		defaultCurrency: "USD",
		actions: map[string]string{
			"open position":   "BUY",
			"position closed": "SELL",
		},
	}}
}

// ParseRow maps an account activity line; price = amount / units
func (a *EToroAdapter) ParseRow(row Row, loc Locale) (models.Trade, error) {
	typ, err := a.classify(row.Get(a.action...))
	if err != nil {
		return models.Trade{}, err
	}

	units, err := a.number(row, a.quantity, loc)
	if err != nil {
		return models.Trade{}, err
	}
	amount, err := a.number(row, a.price, loc)
	if err != nil {
		return models.Trade{}, err
	}
	units, amount = units.Abs(), amount.Abs()
	if units.IsZero() {
		return models.Trade{}, fmt.Errorf("%w: units", ErrNonPositive)
	}

	date, err := a.tradeDate(row, loc)
	if err != nil {
		return models.Trade{}, err
	}

	details := row.Get(a.ticker...)
	ticker, err := a.resolve(details)
	if err != nil {
		return models.Trade{}, err
	}

	currency := a.defaultCurrency
	if _, quote := defaultSymbols.PairBase(details); IsFiat(quote) {
		currency = quote
	}

	return a.trade(row, date, ticker, typ, units, amount.Div(units), currency, a.feeTotal(row, loc)), nil
}
