package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func validTrade() Trade {
	return Trade{
		Date:     time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC),
		Ticker:   "AAPL",
		Type:     TradeBuy,
		Qty:      decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(180),
		Currency: "USD",
		Fees:     decimal.Zero,
		Source:   "trading212",
		RawHash:  strings.Repeat("ab", 32),
	}
}

func TestTrade_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Trade)
		wantErr error
	}{
		{"valid", func(*Trade) {}, nil},
		{"missing date", func(tr *Trade) { tr.Date = time.Time{} }, ErrMissingDate},
		{"missing ticker", func(tr *Trade) { tr.Ticker = "" }, ErrMissingTicker},
		{"bad type", func(tr *Trade) { tr.Type = "DIVIDEND" }, ErrBadTradeType},
		{"zero qty", func(tr *Trade) { tr.Qty = decimal.Zero }, ErrNonPositive},
		{"negative price", func(tr *Trade) { tr.Price = decimal.NewFromInt(-1) }, ErrNonPositive},
		{"negative fees", func(tr *Trade) { tr.Fees = decimal.NewFromInt(-2) }, ErrNegativeFees},
		{"short hash", func(tr *Trade) { tr.RawHash = "abc" }, ErrBadRawHash},
		{"uppercase hash", func(tr *Trade) { tr.RawHash = strings.Repeat("AB", 32) }, ErrBadRawHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validTrade()
			tt.mutate(&tr)
			if err := tr.Validate(); err != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTrade_Value(t *testing.T) {
	tr := validTrade()
	expected := decimal.NewFromInt(1800)
	if !tr.Value().Equal(expected) {
		t.Errorf("Expected value %s, got %s", expected, tr.Value())
	}
}

func TestTrade_JSON(t *testing.T) {
	tr := validTrade()
	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	s := string(data)
	for _, want := range []string{`"date":"2024-01-02T14:30:00Z"`, `"type":"BUY"`, `"rawHash":`, `"source":"trading212"`} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected JSON to contain %s, got %s", want, s)
		}
	}
}

func TestTradeType_DisplayName(t *testing.T) {
	tests := []struct {
		tt   TradeType
		want string
	}{
		{TradeBuy, "Buy"},
		{TradeSell, "Sell"},
		{TradeType("OTHER"), "OTHER"},
	}

	for _, tt := range tests {
		if got := tt.tt.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%s): got %s, want %s", tt.tt, got, tt.want)
		}
	}
}

func TestImportResult_Consistent(t *testing.T) {
	r := NewImportResult("trading212")
	if r.ID == uuid.Nil {
		t.Error("Expected result ID to be generated")
	}
	if r.Trades == nil {
		t.Error("Expected trades to be an empty slice, not nil")
	}

	r.Trades = append(r.Trades, validTrade(), validTrade())
	r.Meta = Meta{Rows: 3, Invalid: 1}
	if !r.Consistent() {
		t.Error("Expected rows == trades + invalid")
	}

	r.Meta.Invalid = 0
	if r.Consistent() {
		t.Error("Expected inconsistent meta to be reported")
	}
}

func TestImportResult_Tickers(t *testing.T) {
	r := NewImportResult("ig")
	a, b, c := validTrade(), validTrade(), validTrade()
	b.Ticker = "MSFT"
	r.Trades = []Trade{a, b, c}

	got := r.Tickers()
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Errorf("Expected [AAPL MSFT], got %v", got)
	}
}

func TestMapping_Missing(t *testing.T) {
	m := &Mapping{}
	m.Set(FieldDate, "Trade Date")
	m.Set(FieldTicker, "Symbol")
	m.Set(FieldQuantity, "Qty")

	missing := m.Missing()
	if len(missing) != 2 || missing[0] != FieldAction || missing[1] != FieldPrice {
		t.Errorf("Expected [action price], got %v", missing)
	}
	if m.Complete() {
		t.Error("Expected incomplete mapping")
	}

	m.Set(FieldAction, "Side")
	m.Set(FieldPrice, "Price")
	if !m.Complete() {
		t.Error("Expected complete mapping")
	}
	if m.Get(FieldPrice) != "Price" {
		t.Errorf("Expected price header Price, got %s", m.Get(FieldPrice))
	}
}

func TestRealizedPL_Net(t *testing.T) {
	r := RealizedPL{RealizedBase: decimal.NewFromInt(500), FeesBase: decimal.NewFromInt(12)}
	if !r.Net().Equal(decimal.NewFromInt(488)) {
		t.Errorf("Expected net 488, got %s", r.Net())
	}
}
