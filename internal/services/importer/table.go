package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is tokenized delimited text: a header and its data rows.
// All values stay strings; conversion happens in the adapters.
type Table struct {
	Header     []string
	HeaderLine int
	Rows       []Row
	Delimiter  rune

	index map[string]int
}

// Row is one data record of a Table
type Row struct {
	Line   int // 1-based line in the source text
	Values []string

	table *Table
	extra map[string]string
}

// Tokenize parses delimited text. The first non-blank record becomes the header;
// records that are blank or hold only delimiters are dropped.
func Tokenize(text string) (*Table, error) {
	text = strings.TrimPrefix(text, "\uFEFF")
	delim := sniffDelimiter(text)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1 // Allow variable fields
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var (
		records [][]string
		lines   []int
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		if isBlankRecord(rec) {
			continue
		}
		line, _ := r.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}

	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	t := &Table{Delimiter: delim, HeaderLine: lines[0]}
	t.setHeader(records[0])
	for i := 1; i < len(records); i++ {
		t.Rows = append(t.Rows, Row{Line: lines[i], Values: records[i], table: t})
	}
	return t, nil
}

// Rehead returns a table whose header is data row i; earlier rows are discarded.
func (t *Table) Rehead(i int) *Table {
	if i < 0 || i >= len(t.Rows) {
		return t
	}
	nt := &Table{Delimiter: t.Delimiter, HeaderLine: t.Rows[i].Line}
	nt.setHeader(t.Rows[i].Values)
	for _, row := range t.Rows[i+1:] {
		nt.Rows = append(nt.Rows, Row{Line: row.Line, Values: row.Values, table: nt})
	}
	return nt
}

// Has reports whether any of the named columns exists
func (t *Table) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := t.index[normalizeHeader(n)]; ok {
			return true
		}
	}
	return false
}

func (t *Table) setHeader(header []string) {
	t.Header = make([]string, len(header))
	t.index = make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		t.Header[i] = h
		key := normalizeHeader(h)
		if _, dup := t.index[key]; !dup && key != "" {
			t.index[key] = i
		}
	}
}

// Get returns the first non-empty trimmed value among the named columns.
// Column names match case- and whitespace-insensitively.
func (r Row) Get(names ...string) string {
	for _, n := range names {
		if v, ok := r.extra[n]; ok && v != "" {
			return v
		}
		if i := r.Col(n); i >= 0 {
			if v := r.At(i); v != "" {
				return v
			}
		}
	}
	return ""
}

// Col returns the index of a named column, or -1
func (r Row) Col(name string) int {
	if r.table == nil {
		return -1
	}
	if i, ok := r.table.index[normalizeHeader(name)]; ok {
		return i
	}
	return -1
}

// At returns the trimmed value at column i, or "" when out of range
func (r Row) At(i int) string {
	if i < 0 || i >= len(r.Values) {
		return ""
	}
	return strings.TrimSpace(r.Values[i])
}

// With returns a copy of the row carrying an extra synthetic field.
// Synthetic fields take part in the row hash.
func (r Row) With(key, value string) Row {
	extra := make(map[string]string, len(r.extra)+1)
	for k, v := range r.extra {
		extra[k] = v
	}
	extra[key] = value
	r.extra = extra
	return r
}

// Raw returns the row's untouched values keyed by header.
// Blank and repeated headers are keyed by position ("col7").
func (r Row) Raw() map[string]string {
	raw := make(map[string]string, len(r.Values)+len(r.extra))
	var header []string
	if r.table != nil {
		header = r.table.Header
	}
	for i, v := range r.Values {
		key := ""
		if i < len(header) {
			key = header[i]
		}
		if _, dup := raw[key]; key == "" || dup {
			key = fmt.Sprintf("col%d", i+1)
		}
		raw[key] = v
	}
	for k, v := range r.extra {
		raw[k] = v
	}
	return raw
}

// Hash is the row's content-addressed dedup key
func (r Row) Hash() string {
	return HashRow(r.Raw())
}

func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks ',' ';' or tab from the first non-empty line
func sniffDelimiter(text string) rune {
	line := text
	for _, l := range strings.SplitN(text, "\n", 20) {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case !inQuotes && (c == ',' || c == ';' || c == '\t'):
			counts[c]++
		}
	}

	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
