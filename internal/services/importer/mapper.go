package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/findosh/tradeimport/internal/models"
)

// GenericSource is the trade source for imports driven by a confirmed mapping
const GenericSource = "generic"

// fieldSynonyms lists known header labels per canonical field, most specific first
var fieldSynonyms = map[string][]string{
	models.FieldDate: {
		"date", "open date", "opendate", "open time", "opentime", "trade date", "tradedate",
		"execution time", "executiontime", "time", "timestamp", "timestamp (utc)", "fill date",
		"filldate", "order date", "transaction date", "created at", "created_at", "settlement date",
	},
	models.FieldTicker: {
		"ticker", "symbol", "instrument", "security", "description", "product", "asset",
		"asset name", "product name", "ric", "isin", "sedol",
	},
	models.FieldAction: {
		"type", "action", "side", "buy/sell", "transaction type", "direction", "activity",
		"operation", "order type", "order action", "record type", "details",
	},
	models.FieldQuantity: {
		"quantity", "qty", "units", "shares", "filled qty", "filled quantity", "units filled",
		"amount (qty)", "size", "no. of shares", "no of shares", "amount", "filled",
		"quantity transacted", "quantity transacted (asset)", "crypto amount", "asset amount",
		"quantity (asset)",
	},
	models.FieldPrice: {
		"price", "price per share", "price per s", "rate", "openrate", "open rate",
		"execution price", "average price", "avg price", "fill price", "trade price",
		"price (average)", "spot price at transaction", "spot price", "unit price",
	},
	models.FieldCurrency: {
		"currency", "ccy", "currency code", "settlement currency", "cash currency",
		"spot price currency", "quote currency", "counter asset",
	},
	models.FieldFees: {
		"fees", "fee", "commission", "comm/fee", "fees & comm", "transaction fee",
	},
}

// mappedFields is the order fields claim headers in
var mappedFields = []string{
	models.FieldDate, models.FieldTicker, models.FieldAction, models.FieldQuantity,
	models.FieldPrice, models.FieldCurrency, models.FieldFees,
}

// Mapper suggests header-to-field mappings for files no adapter recognises
type Mapper struct {
	synonyms map[string][]string
}

// NewMapper creates a mapper with the built-in synonym lists
func NewMapper() *Mapper {
	return &Mapper{synonyms: fieldSynonyms}
}

// Suggest maps headers to canonical fields. Fields are filled in priority order;
// for each field the synonyms are tried in order and the first unassigned header
// that equals, contains or is contained in the synonym wins. A header is never
// assigned twice. The result is a suggestion for the caller to confirm.
func (m *Mapper) Suggest(headers []string) models.Mapping {
	var mapping models.Mapping
	used := make([]bool, len(headers))

	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, field := range mappedFields {
	synonyms:
		for _, syn := range m.synonyms[field] {
			for i, h := range norm {
				if used[i] || h == "" {
					continue
				}
				if h == syn || strings.Contains(h, syn) || strings.Contains(syn, h) {
					mapping.Set(field, strings.TrimSpace(headers[i]))
					used[i] = true
					break synonyms
				}
			}
		}
	}
	return mapping
}

// SuggestMapping proposes a mapping for the given headers
func (s *Service) SuggestMapping(headers []string) models.Mapping {
	return s.mapper.Suggest(headers)
}

// mappedAdapter builds a column adapter from a confirmed mapping
func mappedAdapter(m models.Mapping) *columnAdapter {
	a := &columnAdapter{
		id:         GenericSource,
		signatures: [][]string{{m.Date, m.Ticker, m.Action, m.Quantity, m.Price}},
		date:       []string{m.Date},
		ticker:     []string{m.Ticker},
		action:     []string{m.Action},
		quantity:   []string{m.Quantity},
		price:      []string{m.Price},
	}
	if m.Currency != "" {
		a.currency = []string{m.Currency}
	}
	if m.Fees != "" {
		a.fees = []string{m.Fees}
	}
	return a
}

// ImportMapped parses a file with a caller-confirmed mapping
func (s *Service) ImportMapped(ctx context.Context, f File, mapping models.Mapping, locale string) (*models.ImportResult, error) {
	if missing := mapping.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteMapping, strings.Join(missing, ", "))
	}
	text, err := Ingest(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.ImportMappedText(text, mapping, locale)
}

// ImportMappedText parses decoded text with a caller-confirmed mapping
func (s *Service) ImportMappedText(text string, mapping models.Mapping, locale string) (*models.ImportResult, error) {
	if missing := mapping.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteMapping, strings.Join(missing, ", "))
	}
	start := time.Now()

	t, err := Tokenize(text)
	if err != nil {
		return nil, err
	}

	a := mappedAdapter(mapping)
	if !a.Detect(t.Header) {
		for i := 0; i < len(t.Rows) && i < headerSearchDepth-1; i++ {
			if a.Detect(t.Rows[i].Values) {
				t = t.Rehead(i)
				break
			}
		}
	}
	if locale == "" {
		locale = a.DefaultLocale()
	}

	result := models.NewImportResult(GenericSource)
	result.Headers = t.Header
	result.Trades, result.Meta.Rows, result.Meta.Invalid = s.parseTable(a, t, ParseLocale(locale))
	result.Meta.DurationMs = time.Since(start).Milliseconds()
	s.report(result)
	return result, nil
}
