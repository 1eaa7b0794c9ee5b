package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/findosh/tradeimport/internal/models"
	"github.com/shopspring/decimal"
)

// columnAdapter maps named columns straight onto trade fields.
// Most brokers need nothing more; the rest embed it and override ParseRow.
type columnAdapter struct {
	id     string
	locale string

	// a header matches when every column of any signature is present
	signatures [][]string
	// a header also matches when any marker column is present
	markers []string

	// column aliases, first non-empty value wins
	date     []string
	timeCol  []string // joined onto date when the broker splits them
	ticker   []string
	action   []string
	quantity []string
	price    []string
	currency []string
	fees     []string // every listed column is summed

	defaultCurrency string

	// lowercased label -> "BUY", "SELL" or "" for ignored; unlisted labels use ClassifyAction
	actions map[string]string

	// quantity sign carries the direction; stored qty is absolute
	signedQty bool

	cleanDate func(string) string
}

// Name returns the broker id
func (a *columnAdapter) Name() string {
	return a.id
}

// DefaultLocale returns the broker's usual export locale
func (a *columnAdapter) DefaultLocale() string {
	if a.locale == "" {
		return DefaultLocale
	}
	return a.locale
}

// Detect checks the header against the adapter's signatures
func (a *columnAdapter) Detect(header []string) bool {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[normalizeHeader(strings.TrimPrefix(h, "\uFEFF"))] = true
	}

	for _, m := range a.markers {
		if present[normalizeHeader(m)] {
			return true
		}
	}

	for _, sig := range a.signatures {
		matched := len(sig) > 0
		for _, col := range sig {
			if !present[normalizeHeader(col)] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// ParseRow maps one row using the configured columns
func (a *columnAdapter) ParseRow(row Row, loc Locale) (models.Trade, error) {
	var (
		typ models.TradeType
		err error
	)
	label := row.Get(a.action...)
	if label != "" || !a.signedQty {
		if typ, err = a.classify(label); err != nil {
			return models.Trade{}, err
		}
	}

	qty, err := a.number(row, a.quantity, loc)
	if err != nil {
		return models.Trade{}, err
	}
	if a.signedQty {
		if typ == "" {
			typ = models.TradeBuy
			if qty.IsNegative() {
				typ = models.TradeSell
			}
		}
		qty = qty.Abs()
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

	return a.trade(row, date, ticker, typ, qty, price, a.currencyOf(row), a.feeTotal(row, loc)), nil
}

// trade assembles the canonical record and stamps source and hash
func (a *columnAdapter) trade(row Row, date time.Time, ticker string, typ models.TradeType,
	qty, price decimal.Decimal, currency string, fees decimal.Decimal) models.Trade {
	return models.Trade{
		Date:     date,
		Ticker:   ticker,
		Type:     typ,
		Qty:      qty,
		Price:    price,
		Currency: currency,
		Fees:     fees,
		Source:   a.id,
		RawHash:  row.Hash(),
	}
}

// required returns the first non-empty value among names
func (a *columnAdapter) required(row Row, names []string) (string, error) {
	v := row.Get(names...)
	if v == "" {
		label := "column"
		if len(names) > 0 {
			label = names[0]
		}
		return "", fmt.Errorf("%w: %s", ErrMissingField, label)
	}
	return v, nil
}

func (a *columnAdapter) number(row Row, names []string, loc Locale) (decimal.Decimal, error) {
	v, err := a.required(row, names)
	if err != nil {
		return decimal.Zero, err
	}
	return ParseNumber(v, loc)
}

func (a *columnAdapter) tradeDate(row Row, loc Locale) (time.Time, error) {
	v, err := a.required(row, a.date)
	if err != nil {
		return time.Time{}, err
	}
	if a.cleanDate != nil {
		v = a.cleanDate(v)
	}
	if len(a.timeCol) > 0 {
		if tv := row.Get(a.timeCol...); tv != "" {
			v = v + " " + tv
		}
	}
	return ParseDate(v, loc)
}

func (a *columnAdapter) classify(label string) (models.TradeType, error) {
	if a.actions != nil {
		if t, ok := a.actions[normalizeHeader(label)]; ok {
			if t == "" {
				return "", fmt.Errorf("%w: %q", ErrIgnoredAction, label)
			}
			return models.TradeType(t), nil
		}
	}
	return ClassifyAction(label)
}

func (a *columnAdapter) resolve(raw string) (string, error) {
	return defaultSymbols.Resolve(raw)
}

func (a *columnAdapter) currencyOf(row Row) string {
	if c := NormalizeCurrency(row.Get(a.currency...)); c != "" {
		return c
	}
	return a.defaultCurrency
}

// feeTotal sums the absolute value of every fee column; blanks count as zero
func (a *columnAdapter) feeTotal(row Row, loc Locale) decimal.Decimal {
	total := decimal.Zero
	for _, name := range a.fees {
		v := row.Get(name)
		if v == "" {
			continue
		}
		if d, err := parseQuantity(v, loc); err == nil {
			total = total.Add(d.Abs())
		}
	}
	return total
}
