package lots

import (
	"testing"
	"time"

	"github.com/findosh/tradeimport/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func TestComputeRealizedPL(t *testing.T) {
	tests := []struct {
		name      string
		opens     []Lot
		buys      []Lot
		sells     []Sell
		realized  string
		fees      string
		unmatched string
	}{
		{
			name:     "single lot fully sold",
			buys:     []Lot{{Qty: d("10"), Price: d("100"), Timestamp: day(1)}},
			sells:    []Sell{{Qty: d("10"), Price: d("150"), Timestamp: day(2)}},
			realized: "500",
			fees:     "0",
		},
		{
			name: "sell spans two lots",
			buys: []Lot{
				{Qty: d("5"), Price: d("100"), Timestamp: day(1)},
				{Qty: d("5"), Price: d("120"), Timestamp: day(2)},
			},
			sells:    []Sell{{Qty: d("8"), Price: d("150"), Timestamp: day(3)}},
			realized: "340",
			fees:     "0",
		},
		{
			name:     "opens consumed before later buys",
			opens:    []Lot{{Qty: d("2"), Price: d("50"), Timestamp: day(1)}},
			buys:     []Lot{{Qty: d("2"), Price: d("80"), Timestamp: day(5)}},
			sells:    []Sell{{Qty: d("3"), Price: d("100"), Timestamp: day(6)}},
			realized: "120",
			fees:     "0",
		},
		{
			name: "buys sorted by timestamp",
			buys: []Lot{
				{Qty: d("1"), Price: d("200"), Timestamp: day(9)},
				{Qty: d("1"), Price: d("100"), Timestamp: day(1)},
			},
			sells:    []Sell{{Qty: d("1"), Price: d("150"), Timestamp: day(10)}},
			realized: "50",
			fees:     "0",
		},
		{
			name:      "oversell remainder dropped",
			buys:      []Lot{{Qty: d("5"), Price: d("10"), Fee: d("1"), Timestamp: day(1)}},
			sells:     []Sell{{Qty: d("8"), Price: d("12"), Timestamp: day(2)}},
			realized:  "10",
			fees:      "1",
			unmatched: "3",
		},
		{
			name:      "sell with no lots",
			sells:     []Sell{{Qty: d("4"), Price: d("12"), Timestamp: day(2)}},
			realized:  "0",
			fees:      "0",
			unmatched: "4",
		},
		{
			name:     "loss",
			buys:     []Lot{{Qty: d("0.5"), Price: d("40000"), Timestamp: day(1)}},
			sells:    []Sell{{Qty: d("0.5"), Price: d("30000"), Timestamp: day(2)}},
			realized: "-5000",
			fees:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ComputeRealizedPL(tt.opens, tt.buys, tt.sells)
			if !r.RealizedBase.Equal(d(tt.realized)) {
				t.Errorf("Expected realized %s, got %s", tt.realized, r.RealizedBase)
			}
			if !r.FeesBase.Equal(d(tt.fees)) {
				t.Errorf("Expected fees %s, got %s", tt.fees, r.FeesBase)
			}
			unmatched := tt.unmatched
			if unmatched == "" {
				unmatched = "0"
			}
			if !r.Unmatched.Equal(d(unmatched)) {
				t.Errorf("Expected unmatched %s, got %s", unmatched, r.Unmatched)
			}
		})
	}
}

// A lot touched by two sells has its whole fee counted on each touch.
func TestComputeRealizedPL_FeeCountedPerTouch(t *testing.T) {
	buys := []Lot{{Qty: d("10"), Price: d("100"), Fee: d("5"), Timestamp: day(1)}}
	sells := []Sell{
		{Qty: d("4"), Price: d("110"), Timestamp: day(2)},
		{Qty: d("6"), Price: d("120"), Timestamp: day(3)},
	}

	r := ComputeRealizedPL(nil, buys, sells)

	if !r.FeesBase.Equal(d("10")) {
		t.Errorf("Expected fees 10 (5 per touch), got %s", r.FeesBase)
	}
	if !r.RealizedBase.Equal(d("160")) {
		t.Errorf("Expected realized 160, got %s", r.RealizedBase)
	}
}

func TestComputeRealizedPL_Explain(t *testing.T) {
	buys := []Lot{{Qty: d("1"), Price: d("1"), Fee: d("2.5"), Timestamp: day(1)}}
	sells := []Sell{{Qty: d("1"), Price: d("2"), Timestamp: day(2)}}

	r := ComputeRealizedPL(nil, buys, sells)

	want := []string{"FIFO lots applied", "Fees included: 2.5"}
	if diff := cmp.Diff(want, r.Explain); diff != "" {
		t.Errorf("Explain mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeRealizedPL_DoesNotMutateInput(t *testing.T) {
	opens := []Lot{{Qty: d("3"), Price: d("10"), Timestamp: day(2)}}
	buys := []Lot{{Qty: d("3"), Price: d("20"), Timestamp: day(1)}}
	sells := []Sell{{Qty: d("5"), Price: d("30"), Timestamp: day(3)}}

	ComputeRealizedPL(opens, buys, sells)

	if !opens[0].Qty.Equal(d("3")) || !buys[0].Qty.Equal(d("3")) {
		t.Errorf("Expected input lots unchanged, got opens %s buys %s", opens[0].Qty, buys[0].Qty)
	}
	if !opens[0].Timestamp.Equal(day(2)) {
		t.Error("Expected input order unchanged")
	}
}

func testTrades() []models.Trade {
	return []models.Trade{
		{Date: day(1), Ticker: "MSFT", Type: models.TradeBuy, Qty: d("2"), Price: d("300"), Fees: d("1")},
		{Date: day(2), Ticker: "AAPL", Type: models.TradeBuy, Qty: d("10"), Price: d("100")},
		{Date: day(3), Ticker: "AAPL", Type: models.TradeSell, Qty: d("10"), Price: d("150"), Currency: "USD"},
		{Date: day(4), Ticker: "MSFT", Type: models.TradeSell, Qty: d("1"), Price: d("350"), Currency: "USD"},
	}
}

func TestFromTrades(t *testing.T) {
	opens := map[string][]Lot{
		"TSLA": {{Qty: d("1"), Price: d("200"), Timestamp: day(1)}},
	}

	results := FromTrades(opens, testTrades())

	if len(results) != 3 {
		t.Fatalf("Expected 3 tickers, got %d", len(results))
	}

	tests := []struct {
		ticker   string
		realized string
		fees     string
	}{
		{"AAPL", "500", "0"},
		{"MSFT", "50", "1"},
		{"TSLA", "0", "0"},
	}
	for i, tt := range tests {
		r := results[i]
		if r.Ticker != tt.ticker {
			t.Errorf("Result %d: expected ticker %s, got %s", i, tt.ticker, r.Ticker)
		}
		if !r.RealizedBase.Equal(d(tt.realized)) {
			t.Errorf("%s: expected realized %s, got %s", tt.ticker, tt.realized, r.RealizedBase)
		}
		if !r.FeesBase.Equal(d(tt.fees)) {
			t.Errorf("%s: expected fees %s, got %s", tt.ticker, tt.fees, r.FeesBase)
		}
	}
	if !results[1].Net().Equal(d("49")) {
		t.Errorf("Expected MSFT net 49, got %s", results[1].Net())
	}
}

func TestMatchTrades(t *testing.T) {
	matches := MatchTrades(nil, testTrades())

	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}

	aapl := matches[0]
	if aapl.Ticker != "AAPL" || !aapl.Acquired.Equal(day(2)) || !aapl.Disposed.Equal(day(3)) {
		t.Errorf("Unexpected AAPL match: %+v", aapl)
	}
	if !aapl.Basis.Equal(d("1000")) || !aapl.Proceeds.Equal(d("1500")) || !aapl.Gain().Equal(d("500")) {
		t.Errorf("Expected basis 1000, proceeds 1500, got %s and %s", aapl.Basis, aapl.Proceeds)
	}
	if aapl.Currency != "USD" {
		t.Errorf("Expected USD, got %q", aapl.Currency)
	}

	msft := matches[1]
	if msft.Ticker != "MSFT" || !msft.Qty.Equal(d("1")) || !msft.Gain().Equal(d("50")) {
		t.Errorf("Unexpected MSFT match: %+v", msft)
	}
}
