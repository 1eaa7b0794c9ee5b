package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/findosh/tradeimport/internal/models"
	"github.com/findosh/tradeimport/internal/services/lots"
	"github.com/shopspring/decimal"
)

// ErrUnknownFormat is returned for an export format with no writer
var ErrUnknownFormat = errors.New("unknown export format")

// Format identifies a tax software CSV layout
type Format string

const (
	FormatTurboTax   Format = "turbotax"
	FormatKoinly     Format = "koinly"
	FormatTaxAct     Format = "taxact"
	FormatHRBlock    Format = "hrblock"
	FormatFreeTaxUSA Format = "freetaxusa"
)

// AllFormats returns every supported format for iteration
func AllFormats() []Format {
	return []Format{FormatTurboTax, FormatKoinly, FormatTaxAct, FormatHRBlock, FormatFreeTaxUSA}
}

// ParseFormat matches a format name case-insensitively
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllFormats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// DisplayName returns human-readable name for the format
func (f Format) DisplayName() string {
	switch f {
	case FormatTurboTax:
		return "TurboTax"
	case FormatKoinly:
		return "Koinly"
	case FormatTaxAct:
		return "TaxAct"
	case FormatHRBlock:
		return "H&R Block"
	case FormatFreeTaxUSA:
		return "FreeTaxUSA"
	default:
		return string(f)
	}
}

// Filename returns the suggested download name
func (f Format) Filename() string {
	return fmt.Sprintf("trades-%s.csv", f)
}

// Write renders trades as CSV in the given format.
// Disposal formats (TurboTax, TaxAct) match sells to buys FIFO and write one
// row per matched lot slice; the others write one row per trade.
func Write(w io.Writer, f Format, trades []models.Trade) (int, error) {
	var (
		header []string
		rows   [][]string
	)
	switch f {
	case FormatTurboTax:
		header, rows = turboTax(lots.MatchTrades(nil, trades))
	case FormatTaxAct:
		header, rows = taxAct(lots.MatchTrades(nil, trades))
	case FormatKoinly:
		header, rows = koinly(trades)
	case FormatHRBlock:
		header, rows = hrBlock(trades)
	case FormatFreeTaxUSA:
		header, rows = freeTaxUSA(trades)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, err
	}
	if err := cw.WriteAll(rows); err != nil {
		return 0, fmt.Errorf("writing %s rows: %w", f, err)
	}
	return len(rows), nil
}

const (
	usDate    = "01/02/2006"
	isoDate   = "2006-01-02"
	koinlyUTC = "2006-01-02 15:04 UTC"
)

func turboTax(matches []lots.Match) ([]string, [][]string) {
	header := []string{"Currency Name", "Purchase Date", "Cost Basis", "Date Sold", "Proceeds", "Amount"}
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{
			m.Ticker,
			m.Acquired.Format(usDate),
			amount(m.Basis, currency(m.Currency)),
			m.Disposed.Format(usDate),
			amount(m.Proceeds, currency(m.Currency)),
			m.Qty.String(),
		})
	}
	return header, rows
}

func taxAct(matches []lots.Match) ([]string, [][]string) {
	header := []string{"Description", "Date Acquired", "Date Sold", "Sales Proceeds", "Cost Basis"}
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{
			fmt.Sprintf("%s %s", m.Qty.String(), m.Ticker),
			m.Acquired.Format(usDate),
			m.Disposed.Format(usDate),
			amount(m.Proceeds, currency(m.Currency)),
			amount(m.Basis, currency(m.Currency)),
		})
	}
	return header, rows
}

func koinly(trades []models.Trade) ([]string, [][]string) {
	header := []string{"Date (UTC)", "Type", "Label", "Sent Amount", "Sent Currency",
		"Received Amount", "Received Currency", "Fee Amount", "Fee Currency", "Description"}
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		quote := currency(t.Currency)
		value := amount(t.Value(), quote)
		var sent, sentCcy, recv, recvCcy string
		if t.IsBuy() {
			sent, sentCcy, recv, recvCcy = value, quote, t.Qty.String(), t.Ticker
		} else {
			sent, sentCcy, recv, recvCcy = t.Qty.String(), t.Ticker, value, quote
		}
		rows = append(rows, []string{
			t.Date.UTC().Format(koinlyUTC),
			strings.ToLower(t.Type.DisplayName()),
			"",
			sent, sentCcy, recv, recvCcy,
			amount(t.Fees, quote), quote,
			t.Source,
		})
	}
	return header, rows
}

func hrBlock(trades []models.Trade) ([]string, [][]string) {
	header := []string{"Date", "Action", "Symbol", "Quantity", "Price", "Commission", "Amount"}
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		quote := currency(t.Currency)
		rows = append(rows, []string{
			t.Date.UTC().Format(isoDate),
			string(t.Type),
			t.Ticker,
			t.Qty.String(),
			amount(t.Price, quote),
			amount(t.Fees, quote),
			amount(cashFlow(t), quote),
		})
	}
	return header, rows
}

func freeTaxUSA(trades []models.Trade) ([]string, [][]string) {
	header := []string{"Date", "Description", "Amount", "Category"}
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		quote := currency(t.Currency)
		category := "Investment Purchase"
		if !t.IsBuy() {
			category = "Investment Sale"
		}
		rows = append(rows, []string{
			t.Date.UTC().Format(isoDate),
			fmt.Sprintf("%s %s %s @ %s", t.Type, t.Qty.String(), t.Ticker, display(t.Price, quote)),
			amount(cashFlow(t), quote),
			category,
		})
	}
	return header, rows
}

// cashFlow is negative for purchases (cost plus fees) and positive for sales
// (proceeds less fees)
func cashFlow(t models.Trade) decimal.Decimal {
	if t.IsBuy() {
		return t.Value().Add(t.Fees).Neg()
	}
	return t.Value().Sub(t.Fees)
}

func currency(code string) string {
	if code == "" {
		return "USD"
	}
	return code
}

// cryptoDigits is used for asset codes outside ISO 4217
const cryptoDigits = 8

// digits returns the minor unit count of an ISO currency
func digits(code string) int32 {
	if c := money.GetCurrency(code); c != nil {
		return int32(c.Fraction)
	}
	return cryptoDigits
}

// amount formats a value with the currency's minor units and no symbol
func amount(v decimal.Decimal, code string) string {
	return v.StringFixed(digits(code))
}

// display formats a value with its currency symbol, e.g. "$180.00".
// Asset codes outside ISO 4217 fall back to "0.5 BTC".
func display(v decimal.Decimal, code string) string {
	c := money.GetCurrency(code)
	if c == nil {
		return fmt.Sprintf("%s %s", v.String(), code)
	}
	minor := v.Shift(int32(c.Fraction)).Round(0).IntPart()
	return money.New(minor, c.Code).Display()
}
