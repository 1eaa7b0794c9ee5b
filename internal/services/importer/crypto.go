package importer

import (
	"github.com/findosh/tradeimport/internal/models"
)

// CoinbaseAdapter handles Coinbase transaction history
type CoinbaseAdapter struct {
	columnAdapter
}

// NewCoinbaseAdapter creates a Coinbase adapter
func NewCoinbaseAdapter() *CoinbaseAdapter {
	return &CoinbaseAdapter{columnAdapter{
		id: "coinbase",
		signatures: [][]string{
			{"Timestamp", "Transaction Type", "Asset", "Quantity Transacted", "Spot Price at Transaction"},
			{"Timestamp", "Transaction Type", "Asset", "Quantity Transacted", "Price at Transaction"},
		},
		date:      []string{"Timestamp"},
		ticker:    []string{"Asset"},
		action:    []string{"Transaction Type"},
		quantity:  []string{"Quantity Transacted"},
		price:     []string{"Spot Price at Transaction", "Price at Transaction"},
		currency:  []string{"Spot Price Currency", "Price Currency"},
		fees:      []string{"Fees and/or Spread", "Fees"},
		signedQty: true,
	}}
}

// exchangeAdapter reads trades quoted as a market pair such as BTCUSDT
type exchangeAdapter struct {
	columnAdapter
	pair []string
}

// ParseRow splits the pair into the traded asset and its quote currency
func (a *exchangeAdapter) ParseRow(row Row, loc Locale) (models.Trade, error) {
	typ, err := a.classify(row.Get(a.action...))
	if err != nil {
		return models.Trade{}, err
	}

	raw, err := a.required(row, a.quantity)
	if err != nil {
		return models.Trade{}, err
	}
	qty, err := parseQuantity(raw, loc)
	if err != nil {
		return models.Trade{}, err
	}

	pair, err := a.required(row, a.pair)
	if err != nil {
		return models.Trade{}, err
	}
	base, quote := defaultSymbols.PairBase(pair)

	date, err := a.tradeDate(row, loc)
	if err != nil {
		return models.Trade{}, err
	}
	price, err := a.number(row, a.price, loc)
	if err != nil {
		return models.Trade{}, err
	}

	return a.trade(row, date, base, typ, qty, price, NormalizeCurrency(quote), a.feeTotal(row, loc)), nil
}

// KrakenAdapter handles Kraken trades exports (pairs like XXBTZUSD)
type KrakenAdapter struct {
	exchangeAdapter
}

// NewKrakenAdapter creates a Kraken adapter
func NewKrakenAdapter() *KrakenAdapter {
	return &KrakenAdapter{exchangeAdapter{
		columnAdapter: columnAdapter{
			id:         "kraken",
			signatures: [][]string{{"txid", "pair", "time", "type", "price", "vol"}},
			date:       []string{"time"},
			action:     []string{"type"},
			quantity:   []string{"vol"},
			price:      []string{"price"},
			fees:       []string{"fee"},
		},
		pair: []string{"pair"},
	}}
}

// BinanceAdapter handles Binance spot trade history (executed amounts carry a unit suffix)
type BinanceAdapter struct {
	exchangeAdapter
}

// NewBinanceAdapter creates a Binance adapter
func NewBinanceAdapter() *BinanceAdapter {
	return &BinanceAdapter{exchangeAdapter{
		columnAdapter: columnAdapter{
			id:         "binance",
			signatures: [][]string{{"Date(UTC)", "Pair", "Side", "Price", "Executed"}},
			date:       []string{"Date(UTC)"},
			action:     []string{"Side"},
			quantity:   []string{"Executed"},
			price:      []string{"Price"},
			fees:       []string{"Fee"},
		},
		pair: []string{"Pair"},
	}}
}
