package importer

import (
	"errors"
	"fmt"

	"github.com/findosh/tradeimport/internal/models"
)

// KoinlyAdapter handles Koinly universal and transaction exports.
// Each row is a swap: fiat sent buys the received asset, anything else sells the sent asset.
type KoinlyAdapter struct {
	columnAdapter
	sentAmount, sentCurrency         []string
	receivedAmount, receivedCurrency []string
	label                            []string
}

// NewKoinlyAdapter creates a Koinly adapter
func NewKoinlyAdapter() *KoinlyAdapter {
	return &KoinlyAdapter{
		columnAdapter: columnAdapter{
			id:         "koinly",
			signatures: [][]string{{"Sent Amount", "Sent Currency", "Received Amount", "Received Currency"}},
			markers:    []string{"Koinly Date"},
			date:       []string{"Date (UTC)", "Koinly Date", "Date"},
			fees:       []string{"Fee Amount"},
		},
		sentAmount:       []string{"Sent Amount"},
		sentCurrency:     []string{"Sent Currency"},
		receivedAmount:   []string{"Received Amount"},
		receivedCurrency: []string{"Received Currency"},
		label:            []string{"Label", "Tag"},
	}
}

// ParseRow turns a two-sided swap into a BUY or SELL. One-sided rows
// (deposits, withdrawals) lack a side and fail as missing fields.
func (a *KoinlyAdapter) ParseRow(row Row, loc Locale) (models.Trade, error) {
	if label := row.Get(a.label...); label != "" {
		if _, err := ClassifyAction(label); errors.Is(err, ErrIgnoredAction) {
			return models.Trade{}, err
		}
	}

	sent, err := a.number(row, a.sentAmount, loc)
	if err != nil {
		return models.Trade{}, err
	}
	sentCcy, err := a.required(row, a.sentCurrency)
	if err != nil {
		return models.Trade{}, err
	}
	received, err := a.number(row, a.receivedAmount, loc)
	if err != nil {
		return models.Trade{}, err
	}
	receivedCcy, err := a.required(row, a.receivedCurrency)
	if err != nil {
		return models.Trade{}, err
	}

	typ := models.TradeSell
	asset, qty, cost, quote := sentCcy, sent.Abs(), received.Abs(), receivedCcy
	if IsFiat(sentCcy) {
		typ = models.TradeBuy
		asset, qty, cost, quote = receivedCcy, received.Abs(), sent.Abs(), sentCcy
	}
	if qty.IsZero() {
		return models.Trade{}, fmt.Errorf("%w: amount", ErrNonPositive)
	}

	date, err := a.tradeDate(row, loc)
	if err != nil {
		return models.Trade{}, err
	}
	ticker, err := a.resolve(asset)
	if err != nil {
		return models.Trade{}, err
	}

	return a.trade(row, date, ticker, typ, qty, cost.Div(qty), NormalizeCurrency(quote), a.feeTotal(row, loc)), nil
}
