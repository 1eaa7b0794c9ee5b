package importer

import (
	"errors"
	"testing"

	"github.com/findosh/tradeimport/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestMapper_Suggest(t *testing.T) {
	m := NewMapper()

	tests := []struct {
		name     string
		headers  []string
		expected models.Mapping
	}{
		{
			name:    "trade blotter",
			headers: []string{"Trade Date", "Instrument", "Buy/Sell", "Shares", "Execution Price"},
			expected: models.Mapping{
				Date:     "Trade Date",
				Ticker:   "Instrument",
				Action:   "Buy/Sell",
				Quantity: "Shares",
				Price:    "Execution Price",
			},
		},
		{
			name:    "optional fields",
			headers: []string{"Timestamp", "Symbol", "Side", "Qty", "Fill Price", "Ccy", "Commission"},
			expected: models.Mapping{
				Date:     "Timestamp",
				Ticker:   "Symbol",
				Action:   "Side",
				Quantity: "Qty",
				Price:    "Fill Price",
				Currency: "Ccy",
				Fees:     "Commission",
			},
		},
		{
			name:     "missing price",
			headers:  []string{"Date", "Symbol", "Quantity"},
			expected: models.Mapping{Date: "Date", Ticker: "Symbol", Quantity: "Quantity"},
		},
		{
			name:     "no matches",
			headers:  []string{"foo", "", "bar"},
			expected: models.Mapping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Suggest(tt.headers)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Mapping mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapper_NoHeaderReused(t *testing.T) {
	m := NewMapper()
	// both price headers match the price synonyms; only the first may be taken
	headers := []string{"Date", "Type", "Price", "Price per share", "Symbol", "Amount"}

	mapping := m.Suggest(headers)

	seen := make(map[string]string)
	for _, field := range mappedFields {
		h := mapping.Get(field)
		if h == "" {
			continue
		}
		if other, dup := seen[h]; dup {
			t.Errorf("Header %q assigned to both %s and %s", h, other, field)
		}
		seen[h] = field
	}
	if mapping.Price != "Price" {
		t.Errorf("Expected the first matching header for price, got %q", mapping.Price)
	}
}

func TestService_ImportMappedText(t *testing.T) {
	svc := NewService(nil)
	text := `Trade Date,Instrument,Buy/Sell,Shares,Execution Price
2024-01-02,AAPL,Buy,10,180.00
2024-01-03,MSFT,Sell,4,410.00
2024-01-04,,Buy,1,1.00
`
	mapping := svc.SuggestMapping([]string{"Trade Date", "Instrument", "Buy/Sell", "Shares", "Execution Price"})

	result, err := svc.ImportMappedText(text, mapping, "")
	if err != nil {
		t.Fatalf("ImportMappedText returned error: %v", err)
	}

	if result.Broker != GenericSource {
		t.Errorf("Expected broker %s, got %s", GenericSource, result.Broker)
	}
	if len(result.Trades) != 2 || result.Meta.Invalid != 1 || result.Meta.Rows != 3 {
		t.Fatalf("Expected 2 trades and 1 invalid of 3 rows, got %d trades, %+v", len(result.Trades), result.Meta)
	}
	sell := result.Trades[1]
	if sell.Source != GenericSource || sell.Type != models.TradeSell || !sell.Price.Equal(decimal.NewFromInt(410)) {
		t.Errorf("Unexpected sell trade: %+v", sell)
	}
}

func TestService_ImportMappedText_Incomplete(t *testing.T) {
	svc := NewService(nil)

	_, err := svc.ImportMappedText("Date,Symbol\n2024-01-02,AAPL\n", models.Mapping{Date: "Date", Ticker: "Symbol"}, "")
	if !errors.Is(err, ErrIncompleteMapping) {
		t.Errorf("Expected ErrIncompleteMapping, got %v", err)
	}
}
