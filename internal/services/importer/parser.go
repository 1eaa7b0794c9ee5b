// Package importer turns broker exports into canonical trades
package importer

import (
	"context"
	"errors"
	"time"

	"github.com/findosh/tradeimport/internal/models"
	"github.com/findosh/tradeimport/internal/services/telemetry"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file is empty")
	ErrIncompleteMapping = errors.New("mapping is missing required fields")
	ErrUnknownBroker     = errors.New("unknown broker")

	// row-level errors; these are counted in meta.invalid, never returned from an import
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidNumber = errors.New("invalid number")
	ErrInvalidDate   = errors.New("invalid date")
	ErrNonPositive   = errors.New("quantity and price must be positive")
	ErrIgnoredAction = errors.New("not a buy or sell")
	ErrUnknownAction = errors.New("unrecognized action")
	ErrMissingTicker = errors.New("missing ticker")
)

// headerSearchDepth bounds how many leading rows may be preamble
const headerSearchDepth = 10

// Adapter parses one broker's export format
type Adapter interface {
	// Name returns the broker id
	Name() string

	// Detect checks if this adapter handles the given header row
	Detect(header []string) bool

	// ParseRow maps one data row to a trade or returns a row error
	ParseRow(row Row, loc Locale) (models.Trade, error)

	// DefaultLocale is used when the caller gives no locale hint
	DefaultLocale() string
}

// Expander is implemented by adapters whose rows hold more than one trade
type Expander interface {
	Expand(row Row) []Row
}

// Emitter receives telemetry; implementations must not block
type Emitter interface {
	Emit(e telemetry.Event)
}

// Service handles detection and import operations
type Service struct {
	adapters []Adapter
	mapper   *Mapper
	events   Emitter
}

// NewService creates an import service with the built-in adapters in priority order.
// events may be nil.
func NewService(events Emitter) *Service {
	return &Service{
		adapters: []Adapter{
			NewTrading212Adapter(),
			NewFreetradeAdapter(),
			NewRevolutAdapter(),
			NewIBKRFlexAdapter(),
			NewEToroAdapter(),
			NewCoinbaseAdapter(),
			NewKrakenAdapter(),
			NewBinanceAdapter(),
			NewKoinlyAdapter(),
			NewTurboTaxAdapter(),
			NewDegiroAdapter(),
			NewSchwabAdapter(),
			NewFidelityAdapter(),
			NewRobinhoodAdapter(),
			NewWebullAdapter(),
			NewSaxoAdapter(),
			NewIGAdapter(),
			NewVanguardAdapter(),
		},
		mapper: NewMapper(),
		events: events,
	}
}

// Adapters returns the registry in detection order
func (s *Service) Adapters() []Adapter {
	out := make([]Adapter, len(s.adapters))
	copy(out, s.adapters)
	return out
}

// Adapter looks up a registered adapter by id
func (s *Service) Adapter(id string) (Adapter, bool) {
	for _, a := range s.adapters {
		if a.Name() == id {
			return a, true
		}
	}
	return nil, false
}

// DetectHeader returns the id of the first adapter accepting header, or "unknown"
func (s *Service) DetectHeader(header []string) string {
	for _, a := range s.adapters {
		if a.Detect(header) {
			return a.Name()
		}
	}
	return models.UnknownBroker
}

// Detect tokenizes text and identifies its broker
func (s *Service) Detect(text string) (string, error) {
	t, err := Tokenize(text)
	if err != nil {
		return "", err
	}
	_, id := s.locate(t)
	return id, nil
}

// Detection describes the located header of a file
type Detection struct {
	Broker     string   `json:"broker"`
	Headers    []string `json:"headers"`
	HeaderLine int      `json:"headerLine"`
	Rows       int      `json:"rows"`
}

// Inspect locates the header and broker without parsing any rows
func (s *Service) Inspect(text string) (*Detection, error) {
	t, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	t, id := s.locate(t)
	return &Detection{
		Broker:     id,
		Headers:    t.Header,
		HeaderLine: t.HeaderLine,
		Rows:       len(t.Rows),
	}, nil
}

// locate finds the header row, skipping preamble lines such as account banners
func (s *Service) locate(t *Table) (*Table, string) {
	if id := s.DetectHeader(t.Header); id != models.UnknownBroker {
		return t, id
	}
	for i := 0; i < len(t.Rows) && i < headerSearchDepth-1; i++ {
		if id := s.DetectHeader(t.Rows[i].Values); id != models.UnknownBroker {
			return t.Rehead(i), id
		}
	}
	return t, models.UnknownBroker
}

// Import reads, detects and parses a file.
// Only unreadable or unsupported files return an error; row problems are counted.
func (s *Service) Import(ctx context.Context, f File, locale string) (*models.ImportResult, error) {
	text, err := Ingest(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.ImportText(text, locale)
}

// ImportText detects and parses already decoded text
func (s *Service) ImportText(text, locale string) (*models.ImportResult, error) {
	start := time.Now()

	t, err := Tokenize(text)
	if err != nil {
		return nil, err
	}

	t, id := s.locate(t)
	s.emit(telemetry.NewEvent(telemetry.KindDetect, id).WithCounts(len(t.Rows), 0, 0, 0))

	if id == models.UnknownBroker {
		result := models.NewImportResult(id)
		mapping := s.mapper.Suggest(t.Header)
		result.Headers = t.Header
		result.SuggestedMapping = &mapping
		result.Meta.Rows = len(t.Rows)
		result.Meta.Invalid = len(t.Rows)
		result.Meta.DurationMs = time.Since(start).Milliseconds()
		s.report(result)
		return result, nil
	}

	adapter, _ := s.Adapter(id)
	if locale == "" {
		locale = adapter.DefaultLocale()
	}

	result := models.NewImportResult(id)
	result.Headers = t.Header
	result.Trades, result.Meta.Rows, result.Meta.Invalid = s.parseTable(adapter, t, ParseLocale(locale))
	result.Meta.DurationMs = time.Since(start).Milliseconds()
	s.report(result)
	return result, nil
}

// parseTable runs an adapter over every row. It never aborts; failures are counted.
func (s *Service) parseTable(a Adapter, t *Table, loc Locale) (trades []models.Trade, rows, invalid int) {
	trades = []models.Trade{}
	walk(a, t, loc, func(_ Row, trade models.Trade, err error) {
		rows++
		if err != nil {
			invalid++
			return
		}
		trades = append(trades, trade)
	})
	return trades, rows, invalid
}

// walk parses each row, or each leg of an expanded row, and reports the outcome
func walk(a Adapter, t *Table, loc Locale, fn func(row Row, trade models.Trade, err error)) {
	expander, expands := a.(Expander)
	for _, row := range t.Rows {
		legs := []Row{row}
		if expands {
			legs = expander.Expand(row)
		}
		for _, leg := range legs {
			trade, err := a.ParseRow(leg, loc)
			if err == nil {
				err = trade.Validate()
			}
			fn(leg, trade, err)
		}
	}
}

func (s *Service) report(result *models.ImportResult) {
	m := result.Meta
	s.emit(telemetry.NewEvent(telemetry.KindParseResult, result.Broker).
		WithCounts(m.Rows, m.Invalid, len(result.Trades), m.DurationMs))
	if len(result.Trades) > 0 {
		s.emit(telemetry.NewEvent(telemetry.KindSuccess, result.Broker).
			WithCounts(m.Rows, m.Invalid, len(result.Trades), m.DurationMs))
	}
}

func (s *Service) emit(e telemetry.Event) {
	if s.events != nil {
		s.events.Emit(e)
	}
}

// Dedupe drops trades whose rawHash was already seen, keeping the first
func Dedupe(trades []models.Trade) []models.Trade {
	seen := make(map[string]bool, len(trades))
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if seen[t.RawHash] {
			continue
		}
		seen[t.RawHash] = true
		out = append(out, t)
	}
	return out
}
