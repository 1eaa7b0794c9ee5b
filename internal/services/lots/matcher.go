package lots

import (
	"fmt"
	"sort"
	"time"

	"github.com/findosh/tradeimport/internal/models"
	"github.com/shopspring/decimal"
)

// Explain lines emitted by ComputeRealizedPL
const (
	ExplainFIFO = "FIFO lots applied"
	ExplainFees = "Fees included: %s"
)

// Lot is an open position available to be consumed by a sell
type Lot struct {
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Timestamp time.Time       `json:"timestamp"`
}

// Sell is a closing event matched against the lot queue
type Sell struct {
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
	Currency  string          `json:"currency,omitempty"`
}

// Result is the realized P&L for a single symbol
type Result struct {
	RealizedBase decimal.Decimal
	FeesBase     decimal.Decimal
	Explain      []string
	Unmatched    decimal.Decimal // sell quantity with no lot left to consume
}

// ComputeRealizedPL matches sells against opens and buys oldest-first.
//
// Every touch of a lot adds that lot's whole fee, so a lot split across two
// sells contributes its fee twice. A sell larger than the remaining queue
// realizes only what it could match; the remainder is reported in Unmatched
// and otherwise ignored.
func ComputeRealizedPL(opens, buys []Lot, sells []Sell) Result {
	realized := decimal.Zero
	fees := decimal.Zero

	unmatched := consume(opens, buys, sells, func(sell Sell, head Lot, consumed decimal.Decimal) {
		realized = realized.Add(sell.Price.Sub(head.Price).Mul(consumed))
		fees = fees.Add(head.Fee)
	})

	return Result{
		RealizedBase: realized,
		FeesBase:     fees,
		Explain:      []string{ExplainFIFO, fmt.Sprintf(ExplainFees, fees.String())},
		Unmatched:    unmatched,
	}
}

// consume runs the FIFO queue and calls fn for every slice taken from a lot.
// The lot passed to fn is the head before it is decremented. Input slices are
// copied, never modified.
func consume(opens, buys []Lot, sells []Sell, fn func(sell Sell, head Lot, consumed decimal.Decimal)) decimal.Decimal {
	queue := make([]Lot, 0, len(opens)+len(buys))
	queue = append(queue, opens...)
	queue = append(queue, buys...)
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Timestamp.Before(queue[j].Timestamp)
	})

	unmatched := decimal.Zero
	for _, sell := range sells {
		remaining := sell.Qty
		for remaining.IsPositive() && len(queue) > 0 {
			head := &queue[0]
			consumed := decimal.Min(remaining, head.Qty)
			fn(sell, *head, consumed)

			head.Qty = head.Qty.Sub(consumed)
			remaining = remaining.Sub(consumed)
			if !head.Qty.IsPositive() {
				queue = queue[1:]
			}
		}
		if remaining.IsPositive() {
			unmatched = unmatched.Add(remaining)
		}
	}
	return unmatched
}

// FromTrades computes realized P&L per ticker. Opening lots are keyed by
// ticker; BUY trades become lots and SELL trades are matched in input order.
// Results are sorted by ticker.
func FromTrades(opens map[string][]Lot, trades []models.Trade) []models.RealizedPL {
	books := group(opens, trades)
	results := make([]models.RealizedPL, 0, len(books))
	for _, b := range books {
		r := ComputeRealizedPL(b.opens, b.buys, b.sells)
		results = append(results, models.RealizedPL{
			Ticker:       b.ticker,
			RealizedBase: r.RealizedBase,
			FeesBase:     r.FeesBase,
			Explain:      r.Explain,
		})
	}
	return results
}

// MatchTrades returns every lot slice closed by a SELL trade, grouped by
// ticker in sorted order.
func MatchTrades(opens map[string][]Lot, trades []models.Trade) []Match {
	var matches []Match
	for _, b := range group(opens, trades) {
		for _, m := range Matches(b.opens, b.buys, b.sells) {
			m.Ticker = b.ticker
			matches = append(matches, m)
		}
	}
	return matches
}

// Matches pairs each consumed slice of a lot with the sell that closed it,
// in the same order ComputeRealizedPL consumes them.
func Matches(opens, buys []Lot, sells []Sell) []Match {
	var matches []Match
	consume(opens, buys, sells, func(sell Sell, head Lot, consumed decimal.Decimal) {
		matches = append(matches, Match{
			Qty:      consumed,
			Acquired: head.Timestamp,
			Disposed: sell.Timestamp,
			Basis:    head.Price.Mul(consumed),
			Proceeds: sell.Price.Mul(consumed),
			Currency: sell.Currency,
		})
	})
	return matches
}

// Match is one lot slice closed by one sell
type Match struct {
	Ticker   string
	Qty      decimal.Decimal
	Acquired time.Time
	Disposed time.Time
	Basis    decimal.Decimal
	Proceeds decimal.Decimal
	Currency string
}

// Gain returns proceeds minus basis
func (m Match) Gain() decimal.Decimal {
	return m.Proceeds.Sub(m.Basis)
}

type book struct {
	ticker string
	opens  []Lot
	buys   []Lot
	sells  []Sell
}

func group(opens map[string][]Lot, trades []models.Trade) []book {
	books := make(map[string]*book)
	get := func(ticker string) *book {
		b, ok := books[ticker]
		if !ok {
			b = &book{ticker: ticker}
			books[ticker] = b
		}
		return b
	}

	for ticker, lots := range opens {
		get(ticker).opens = lots
	}
	for _, t := range trades {
		b := get(t.Ticker)
		if t.IsBuy() {
			b.buys = append(b.buys, Lot{
				Qty:       t.Qty,
				Price:     t.Price,
				Fee:       t.Fees,
				Timestamp: t.Date,
			})
			continue
		}
		b.sells = append(b.sells, Sell{
			Qty:       t.Qty,
			Price:     t.Price,
			Timestamp: t.Date,
			Currency:  t.Currency,
		})
	}

	out := make([]book, 0, len(books))
	for _, b := range books {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ticker < out[j].ticker
	})
	return out
}
