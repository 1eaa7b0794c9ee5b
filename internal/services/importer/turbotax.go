package importer

import (
	"fmt"

	"github.com/findosh/tradeimport/internal/models"
	"github.com/shopspring/decimal"
)

// legKey is the synthetic column naming which side of a gain row a leg is
const legKey = "_leg"

// TurboTaxAdapter handles TurboTax crypto gain/loss CSVs.
// Every row is a closed position and expands into a BUY leg and a SELL leg.
type TurboTaxAdapter struct {
	columnAdapter
	purchaseDate, dateSold []string
	costBasis, proceeds    []string
}

// NewTurboTaxAdapter creates a TurboTax adapter
func NewTurboTaxAdapter() *TurboTaxAdapter {
	return &TurboTaxAdapter{
		columnAdapter: columnAdapter{
			id:              "turbotax",
			signatures:      [][]string{{"Currency Name", "Purchase Date", "Cost Basis", "Date Sold", "Proceeds"}},
			ticker:          []string{"Currency Name"},
			quantity:        []string{"Amount", "Quantity"},
			defaultCurrency: "USD",
		},
		purchaseDate: []string{"Purchase Date"},
		dateSold:     []string{"Date Sold"},
		costBasis:    []string{"Cost Basis"},
		proceeds:     []string{"Proceeds"},
	}
}

// Expand splits a gain row into its opening and closing legs
func (a *TurboTaxAdapter) Expand(row Row) []Row {
	return []Row{row.With(legKey, "buy"), row.With(legKey, "sell")}
}

// ParseRow maps one leg. Without a quantity column the quantity is estimated
// from the ratio of cost basis to the average of basis and proceeds.
func (a *TurboTaxAdapter) ParseRow(row Row, loc Locale) (models.Trade, error) {
	basis, err := a.number(row, a.costBasis, loc)
	if err != nil {
		return models.Trade{}, err
	}
	proceeds, err := a.number(row, a.proceeds, loc)
	if err != nil {
		return models.Trade{}, err
	}
	basis, proceeds = basis.Abs(), proceeds.Abs()

	qty, err := a.legQuantity(row, loc, basis, proceeds)
	if err != nil {
		return models.Trade{}, err
	}

	ticker, err := a.resolve(row.Get(a.ticker...))
	if err != nil {
		return models.Trade{}, err
	}

	typ, dateCols, total := models.TradeBuy, a.purchaseDate, basis
	if row.Get(legKey) == "sell" {
		typ, dateCols, total = models.TradeSell, a.dateSold, proceeds
	}

	raw, err := a.required(row, dateCols)
	if err != nil {
		return models.Trade{}, err
	}
	date, err := ParseDate(raw, loc)
	if err != nil {
		return models.Trade{}, err
	}

	return a.trade(row, date, ticker, typ, qty, total.Div(qty), a.defaultCurrency, decimal.Zero), nil
}

func (a *TurboTaxAdapter) legQuantity(row Row, loc Locale, basis, proceeds decimal.Decimal) (decimal.Decimal, error) {
	if row.Get(a.quantity...) != "" {
		qty, err := a.number(row, a.quantity, loc)
		if err != nil {
			return decimal.Zero, err
		}
		if qty.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: amount", ErrNonPositive)
		}
		return qty.Abs(), nil
	}

	one := decimal.NewFromInt(1)
	avg := basis.Add(proceeds).Div(decimal.NewFromInt(2))
	if avg.IsZero() {
		return one, nil
	}
	return decimal.Max(one, basis.Div(avg).Round(0)), nil
}
