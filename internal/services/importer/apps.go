package importer

import (
	"fmt"
	"strings"

	"github.com/findosh/tradeimport/internal/models"
)

// Trading212Adapter handles Trading 212 history exports
type Trading212Adapter struct {
	columnAdapter
}

// NewTrading212Adapter creates a Trading 212 adapter
func NewTrading212Adapter() *Trading212Adapter {
	return &Trading212Adapter{columnAdapter{
		id:         "trading212",
		locale:     "en-GB",
		signatures: [][]string{{"Action", "Time", "Ticker", "No. of shares", "Price / share"}},
		date:       []string{"Time"},
		ticker:     []string{"Ticker"},
		action:     []string{"Action"},
		quantity:   []string{"No. of shares"},
		price:      []string{"Price / share"},
		currency:   []string{"Currency (Price / share)"},
		fees:       []string{"Currency conversion fee", "Stamp duty reserve tax", "Transaction fee"},
		actions: map[string]string{
			"market buy":  "BUY",
			"limit buy":   "BUY",
			"stop buy":    "BUY",
			"market sell": "SELL",
			"limit sell":  "SELL",
			"stop sell":   "SELL",
		},
	}}
}

// FreetradeAdapter handles both Freetrade activity layouts
type FreetradeAdapter struct {
	columnAdapter
}

// NewFreetradeAdapter creates a Freetrade adapter
func NewFreetradeAdapter() *FreetradeAdapter {
	return &FreetradeAdapter{columnAdapter{
		id:     "freetrade",
		locale: "en-GB",
		signatures: [][]string{
			{"Type", "Symbol", "Security", "Quantity", "Price (native)"},
			{"Date", "Stock", "Action", "Quantity", "Price"},
		},
		date:            []string{"Date", "Timestamp"},
		ticker:          []string{"Symbol", "Stock"},
		action:          []string{"Action", "Type"},
		quantity:        []string{"Quantity"},
		price:           []string{"Price (native)", "Price"},
		currency:        []string{"Currency (native)", "Currency"},
		fees:            []string{"Fee (GBP)"},
		defaultCurrency: "GBP",
	}}
}

// RevolutAdapter handles Revolut stock statements
type RevolutAdapter struct {
	columnAdapter
}

// NewRevolutAdapter creates a Revolut adapter
func NewRevolutAdapter() *RevolutAdapter {
	return &RevolutAdapter{columnAdapter{
		id:     "revolut",
		locale: "en-GB",
		signatures: [][]string{
			{"Date", "Ticker", "Type", "Quantity", "Price per share"},
			{"Date", "Stock", "Action", "Quantity", "Price per share"},
		},
		date:     []string{"Date"},
		ticker:   []string{"Ticker", "Stock"},
		action:   []string{"Type", "Action"},
		quantity: []string{"Quantity"},
		price:    []string{"Price per share", "Price"},
		currency: []string{"Currency"},
		fees:     []string{"Commission"},
	}}
}

// RobinhoodAdapter handles Robinhood account activity reports
type RobinhoodAdapter struct {
	columnAdapter
}

// NewRobinhoodAdapter creates a Robinhood adapter
func NewRobinhoodAdapter() *RobinhoodAdapter {
	return &RobinhoodAdapter{columnAdapter{
		id:              "robinhood",
		signatures:      [][]string{{"Activity Date", "Instrument", "Trans Code", "Quantity", "Price"}},
		date:            []string{"Activity Date"},
		ticker:          []string{"Instrument"},
		action:          []string{"Trans Code"},
		quantity:        []string{"Quantity"},
		price:           []string{"Price"},
		defaultCurrency: "USD",
		actions: map[string]string{
			"buy":  "BUY",
			"sell": "SELL",
			"bto":  "BUY",
			"btc":  "BUY",
			"sto":  "SELL",
			"stc":  "SELL",
			"cdiv": "",
			"ach":  "",
			"slip": "",
			"gold": "",
			"int":  "",
		},
	}}
}

// WebullAdapter handles Webull order history
type WebullAdapter struct {
	columnAdapter
}

// NewWebullAdapter creates a Webull adapter
func NewWebullAdapter() *WebullAdapter {
	return &WebullAdapter{columnAdapter{
		id:              "webull",
		signatures:      [][]string{{"Symbol", "Side", "Status", "Filled", "Avg Price", "Filled Time"}},
		date:            []string{"Filled Time"},
		ticker:          []string{"Symbol"},
		action:          []string{"Side"},
		quantity:        []string{"Filled"},
		price:           []string{"Avg Price"},
		defaultCurrency: "USD",
		actions: map[string]string{
			"buy":   "BUY",
			"sell":  "SELL",
			"short": "SELL",
		},
	}}
}

// ParseRow skips cancelled and pending orders
func (a *WebullAdapter) ParseRow(row Row, loc Locale) (models.Trade, error) {
	if status := row.Get("Status"); !strings.EqualFold(status, "Filled") {
		return models.Trade{}, fmt.Errorf("%w: order %s", ErrIgnoredAction, strings.ToLower(status))
	}
	return a.columnAdapter.ParseRow(row, loc)
}
