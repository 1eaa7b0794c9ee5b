package importer

import (
	"github.com/findosh/tradeimport/internal/models"
)

// IBKRFlexAdapter handles Interactive Brokers flex queries and activity statement trades
type IBKRFlexAdapter struct {
	columnAdapter
	proceeds []string
}

// NewIBKRFlexAdapter creates an Interactive Brokers adapter
func NewIBKRFlexAdapter() *IBKRFlexAdapter {
	return &IBKRFlexAdapter{
		columnAdapter: columnAdapter{
			id: "ibkr_flex",
			signatures: [][]string{
				{"Symbol", "Quantity", "T. Price", "Proceeds"},
				{"Symbol", "Quantity", "T.Price", "Proceeds"},
				{"Symbol", "Quantity", "TradePrice", "Proceeds"},
			},
			date:      []string{"Date/Time", "TradeDate", "Trade Date", "Date", "DateTime"},
			ticker:    []string{"Symbol"},
			action:    []string{"Buy/Sell"},
			quantity:  []string{"Quantity"},
			price:     []string{"T. Price", "T.Price", "TradePrice"},
			currency:  []string{"CurrencyPrimary", "Currency"},
			fees:      []string{"Comm/Fee", "IBCommission", "Commission"},
			signedQty: true,
		},
		proceeds: []string{"Proceeds"},
	}
}

// ParseRow reads the Buy/Sell column when present, otherwise infers the side
// from the quantity sign and then the proceeds sign.
func (a *IBKRFlexAdapter) ParseRow(row Row, loc Locale) (models.Trade, error) {
	qty, err := a.number(row, a.quantity, loc)
	if err != nil {
		return models.Trade{}, err
	}

	var typ models.TradeType
	if label := row.Get(a.action...); label != "" {
		if typ, err = a.classify(label); err != nil {
			return models.Trade{}, err
		}
	} else {
		typ = models.TradeBuy
		switch {
		case qty.IsNegative():
			typ = models.TradeSell
		case row.Get(a.proceeds...) != "":
			proceeds, err := ParseNumber(row.Get(a.proceeds...), loc)
			if err != nil {
				return models.Trade{}, err
			}
			if proceeds.IsPositive() {
				typ = models.TradeSell
			}
		}
	}

	date, err := a.tradeDate(row, loc)
	if err != nil {
		return models.Trade{}, err
	}
	ticker, err := a.resolve(row.Get(a.ticker...))
	if err != nil {
		return models.Trade{}, err
	}
	price, err := a.number(row, a.price, loc)
	if err != nil {
		return models.Trade{}, err
	}

	return a.trade(row, date, ticker, typ, qty.Abs(), price, a.currencyOf(row), a.feeTotal(row, loc)), nil
}
