package importer

import (
	"fmt"
	"regexp"
	"strings"
)

// SymbolTable resolves instrument names and exchange-specific codes to tickers
type SymbolTable struct {
	byName  map[string]string
	aliases map[string]string
	crypto  map[string]bool
	quotes  []string
}

// SymbolInfo is one builtin instrument
type SymbolInfo struct {
	Ticker string
	Name   string
}

// NewSymbolTable creates a table with built-in names and aliases
func NewSymbolTable() *SymbolTable {
	t := &SymbolTable{
		byName:  make(map[string]string),
		aliases: make(map[string]string),
		crypto:  make(map[string]bool),
	}
	t.loadBuiltinData()
	return t
}

var defaultSymbols = NewSymbolTable()

var (
	exchangeSuffix = regexp.MustCompile(`^([A-Za-z0-9.]+):[A-Za-z0-9]+$`)
	pairPattern    = regexp.MustCompile(`^([A-Za-z0-9]+)[/\-_]([A-Za-z0-9]+)$`)
	symbolPattern  = regexp.MustCompile(`^[A-Z0-9.\-]+$`)
	nonWord        = regexp.MustCompile(`[^A-Z0-9 ]+`)
)

// NormalizeTicker cleans a broker symbol using the default symbol table
func NormalizeTicker(raw string) (string, error) {
	return defaultSymbols.Resolve(raw)
}

// Resolve turns a broker symbol, pair or instrument description into a ticker.
//
//	"AAPL:US"       -> AAPL
//	"BTC/USDT"      -> BTC
//	"XXBTZUSD"      -> BTC (via PairBase)
//	"Bitcoin"       -> BTC
//	"Apple Inc AAPL" -> AAPL
func (t *SymbolTable) Resolve(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, "*")
	if s == "" {
		return "", ErrMissingTicker
	}

	if m := exchangeSuffix.FindStringSubmatch(s); m != nil {
		return t.alias(strings.ToUpper(m[1])), nil
	}

	if m := pairPattern.FindStringSubmatch(s); m != nil && t.isQuote(strings.ToUpper(m[2])) {
		return t.alias(strings.ToUpper(m[1])), nil
	}

	upper := strings.ToUpper(s)
	if ticker, ok := t.byName[nameKey(upper)]; ok {
		return ticker, nil
	}

	if strings.ContainsAny(s, " \t") && !symbolPattern.MatchString(s) {
		// descriptions like "Apple Inc. (AAPL)" carry the symbol last
		parts := strings.Fields(upper)
		last := strings.Trim(parts[len(parts)-1], "()")
		if last == "" {
			return "", fmt.Errorf("%w: %q", ErrMissingTicker, raw)
		}
		return t.alias(last), nil
	}

	return t.alias(upper), nil
}

// PairBase splits an unseparated exchange pair such as "BTCUSDT" or
// "XXBTZUSD" into base ticker and quote currency.
func (t *SymbolTable) PairBase(pair string) (base, quote string) {
	p := strings.ToUpper(strings.TrimSpace(pair))
	if m := pairPattern.FindStringSubmatch(p); m != nil {
		return t.alias(m[1]), t.quote(m[2])
	}
	for _, q := range t.quotes {
		if len(p) > len(q) && strings.HasSuffix(p, q) {
			return t.alias(strings.TrimSuffix(p, q)), t.quote(q)
		}
	}
	return t.alias(p), ""
}

// Lookup returns the ticker registered for an instrument name
func (t *SymbolTable) Lookup(name string) (string, bool) {
	ticker, ok := t.byName[nameKey(strings.ToUpper(name))]
	return ticker, ok
}

// IsCrypto reports whether code is a known crypto asset, including exchange aliases
func (t *SymbolTable) IsCrypto(code string) bool {
	return t.crypto[t.alias(strings.ToUpper(strings.TrimSpace(code)))]
}

func (t *SymbolTable) alias(code string) string {
	if a, ok := t.aliases[code]; ok {
		return a
	}
	return code
}

func (t *SymbolTable) quote(code string) string {
	return t.alias(strings.TrimPrefix(code, "Z"))
}

func (t *SymbolTable) isQuote(code string) bool {
	for _, q := range t.quotes {
		if q == code {
			return true
		}
	}
	return false
}

// nameKey drops punctuation and corporate suffixes so "Apple Inc." matches "APPLE"
func nameKey(upper string) string {
	s := nonWord.ReplaceAllString(upper, " ")
	words := strings.Fields(s)
	out := words[:0]
	for _, w := range words {
		switch w {
		case "INC", "CORP", "CORPORATION", "CO", "PLC", "LTD", "THE", "CLASS", "COM", "ALL", "SESSIONS":
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// loadBuiltinData populates names, exchange aliases and quote assets
func (t *SymbolTable) loadBuiltinData() {
	stocks := []SymbolInfo{
		{"AAPL", "Apple Inc."},
		{"MSFT", "Microsoft Corporation"},
		{"GOOGL", "Alphabet Inc."},
		{"AMZN", "Amazon.com Inc."},
		{"NVDA", "NVIDIA Corporation"},
		{"META", "Meta Platforms Inc."},
		{"TSLA", "Tesla Inc."},
		{"BRK.B", "Berkshire Hathaway Inc."},
		{"JPM", "JPMorgan Chase & Co."},
		{"V", "Visa Inc."},
		{"JNJ", "Johnson & Johnson"},
		{"XOM", "Exxon Mobil Corporation"},
		{"PG", "Procter & Gamble Co."},
		{"MA", "Mastercard Inc."},
		{"NFLX", "Netflix Inc."},
		{"DIS", "The Walt Disney Company"},
		{"VOD", "Vodafone Group"},
		{"LLOY", "Lloyds Banking Group"},
		{"HSBA", "HSBC Holdings"},
	}

	// crypto names used by tax tools (TurboTax "Currency Name")
	crypto := []SymbolInfo{
		{"BTC", "Bitcoin"},
		{"ETH", "Ethereum"},
		{"SOL", "Solana"},
		{"ADA", "Cardano"},
		{"DOT", "Polkadot"},
		{"MATIC", "Polygon"},
		{"AVAX", "Avalanche"},
		{"LINK", "Chainlink"},
		{"UNI", "Uniswap"},
		{"ATOM", "Cosmos"},
		{"ALGO", "Algorand"},
		{"XRP", "Ripple"},
		{"DOGE", "Dogecoin"},
		{"LTC", "Litecoin"},
		{"BCH", "Bitcoin Cash"},
		{"ETC", "Ethereum Classic"},
		{"XLM", "Stellar"},
		{"TRX", "Tron"},
	}

	for _, info := range stocks {
		t.byName[nameKey(strings.ToUpper(info.Name))] = info.Ticker
	}
	for _, info := range crypto {
		t.byName[nameKey(strings.ToUpper(info.Name))] = info.Ticker
		t.crypto[info.Ticker] = true
	}
	for _, code := range []string{"USDT", "USDC", "BUSD", "FDUSD", "DAI", "BNB"} {
		t.crypto[code] = true
	}

	// Kraken-style asset codes
	t.aliases = map[string]string{
		"XBT":  "BTC",
		"XXBT": "BTC",
		"XETH": "ETH",
		"XXRP": "XRP",
		"XLTC": "LTC",
		"XXLM": "XLM",
		"XDG":  "DOGE",
		"XXDG": "DOGE",
		"XETC": "ETC",
	}

	// longest first so "USDT" wins over "USD"
	t.quotes = []string{
		"ZUSD", "ZEUR", "ZGBP", "ZJPY", "ZCAD", "XXBT",
		"USDT", "USDC", "BUSD", "FDUSD",
		"USD", "EUR", "GBP", "JPY", "CAD", "CHF", "AUD", "BTC", "ETH", "BNB", "XBT",
	}
}
