package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/findosh/tradeimport/internal/models"
	"github.com/hashicorp/go-multierror"
)

// LineError ties a row error to its source line
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// MarshalJSON writes the report shape {"line": n, "error": "..."}
func (e *LineError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Line  int    `json:"line"`
		Error string `json:"error"`
	}{e.Line, e.Err.Error()})
}

// ValidationReport summarizes a dry-run import
type ValidationReport struct {
	Broker  string
	Rows    int
	Valid   int
	Skipped int // non-trade rows such as dividends and deposits
	Errors  []*LineError
}

// OK returns true when no row failed validation
func (r *ValidationReport) OK() bool {
	return len(r.Errors) == 0
}

// Err aggregates every line error, or returns nil
func (r *ValidationReport) Err() error {
	var result *multierror.Error
	for _, e := range r.Errors {
		result = multierror.Append(result, e)
	}
	return result.ErrorOrNil()
}

// WriteJSON writes the line errors as a JSON array
func (r *ValidationReport) WriteJSON(w io.Writer) error {
	errs := r.Errors
	if errs == nil {
		errs = []*LineError{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(errs)
}

// Validate checks required-field presence and type conformance of every row.
// Rows with non-trade actions are skipped rather than reported.
func (s *Service) Validate(ctx context.Context, f File, locale string) (*ValidationReport, error) {
	text, err := Ingest(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.ValidateText(text, locale)
}

// ValidateText validates already decoded text
func (s *Service) ValidateText(text, locale string) (*ValidationReport, error) {
	t, err := Tokenize(text)
	if err != nil {
		return nil, err
	}

	t, id := s.locate(t)
	report := &ValidationReport{Broker: id}

	var a Adapter
	if id == models.UnknownBroker {
		mapping := s.mapper.Suggest(t.Header)
		if missing := mapping.Missing(); len(missing) > 0 {
			report.Rows = len(t.Rows)
			report.Errors = []*LineError{{
				Line: t.HeaderLine,
				Err:  fmt.Errorf("%w: no column for %v", ErrIncompleteMapping, missing),
			}}
			return report, nil
		}
		a = mappedAdapter(mapping)
	} else {
		a, _ = s.Adapter(id)
	}
	if locale == "" {
		locale = a.DefaultLocale()
	}

	walk(a, t, ParseLocale(locale), func(row Row, _ models.Trade, err error) {
		report.Rows++
		switch {
		case err == nil:
			report.Valid++
		case errors.Is(err, ErrIgnoredAction):
			report.Skipped++
		default:
			report.Errors = append(report.Errors, &LineError{Line: row.Line, Err: err})
		}
	})
	return report, nil
}
