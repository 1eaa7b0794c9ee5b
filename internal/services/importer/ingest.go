package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Container is the outer format of an uploaded file
type Container int

const (
	ContainerUnknown Container = iota
	ContainerText
	ContainerWorkbook
)

const workbookMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	textExtensions     = map[string]bool{".csv": true, ".tsv": true, ".txt": true}
	workbookExtensions = map[string]bool{".xlsx": true, ".xlsm": true}

	textMIMEs = map[string]bool{
		"text/csv":                  true,
		"application/csv":           true,
		"text/plain":                true,
		"text/tab-separated-values": true,
		"application/vnd.ms-excel":  true, // browsers label .csv this way on Windows
	}
	workbookMIMEs = map[string]bool{
		workbookMIME:                                     true,
		"application/vnd.ms-excel.sheet.macroenabled.12": true,
	}

	zipMagic = []byte("PK\x03\x04")
)

// DetectContainer classifies a file by extension, then by declared MIME type
func DetectContainer(name, mimeType string) Container {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case textExtensions[ext]:
		return ContainerText
	case workbookExtensions[ext]:
		return ContainerWorkbook
	case ext == ".xls":
		// legacy binary workbooks are not readable
		return ContainerUnknown
	}

	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	switch {
	case textMIMEs[mediaType]:
		return ContainerText
	case workbookMIMEs[mediaType]:
		return ContainerWorkbook
	}
	return ContainerUnknown
}

// Ingest decodes a file into delimited UTF-8 text with any BOM removed.
// Workbooks are flattened from their first sheet.
func Ingest(ctx context.Context, f File) (string, error) {
	kind := DetectContainer(f.Name(), f.MIME())
	if kind == ContainerUnknown {
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, f.Name(), f.MIME())
	}

	data, err := f.ReadBytes(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	if kind == ContainerWorkbook {
		return workbookToCSV(data)
	}
	return decodeText(data), nil
}

// decodeText treats input as UTF-8, falling back to Windows-1252 for legacy exports
func decodeText(data []byte) string {
	if !utf8.Valid(data) {
		if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
			data = decoded
		}
	}
	return strings.TrimPrefix(string(data), "\uFEFF")
}

func workbookToCSV(data []byte) (string, error) {
	if !bytes.HasPrefix(data, zipMagic) {
		return "", fmt.Errorf("%w: workbook is not an OOXML package", ErrUnsupportedFormat)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrEmptyFile
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.TrimSpace(c)
		}
		if err := w.Write(cells); err != nil {
			return "", fmt.Errorf("failed to serialize sheet: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to serialize sheet: %w", err)
	}

	return strings.TrimPrefix(buf.String(), "\uFEFF"), nil
}
