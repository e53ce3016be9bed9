package topogram

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for spreadsheet formats that cannot be
// read (.ods, .xls). Callers skip such files with a warning.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ReadOptions controls how a topogram source is read.
type ReadOptions struct {
	// Repair runs RepairQuotes over CSV text before parsing.
	Repair bool
	// Limits caps the records kept after parsing. Zero values mean no cap.
	Limits Limits
}

// ParseRows classifies rows using the format Detect picks for them. For
// header files the first non-blank row is the header.
func ParseRows(rows [][]string) *File {
	return ParseRowsAs(rows, Detect(rows))
}

// ParseRowsAs classifies rows with an explicit format. With FormatLegacy
// every non-blank row is a body row.
func ParseRowsAs(rows [][]string, format Format) *File {
	f := &File{Format: format}

	var cls rowClassifier
	switch format {
	case FormatHeader:
		header, body := splitHeader(rows)
		if header == nil {
			return f
		}
		cls = newHeaderClassifier(header, kindAuto)
		rows = body
	case FormatLegacy:
		cls = legacyClassifier{}
	default:
		return &File{Format: FormatEmpty}
	}

	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		cls.classify(row, f)
	}
	return f
}

// splitHeader returns the first non-blank row and the rows after it.
func splitHeader(rows [][]string) ([]string, [][]string) {
	for i, row := range rows {
		if !isBlank(row) {
			return row, rows[i+1:]
		}
	}
	return nil, nil
}

// ReadCSV reads a topogram CSV from r.
func ReadCSV(r io.Reader, opts ReadOptions) (*File, error) {
	if opts.Repair {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		r = strings.NewReader(RepairQuotes(string(data)))
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	f := ParseRows(rows)
	f.Truncate(opts.Limits)
	return f, nil
}

// ReadFile reads a topogram source, choosing the reader by extension.
// Unknown extensions are read as CSV.
func ReadFile(path string, opts ReadOptions) (*File, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := ReadSpreadsheet(path)
		if err != nil {
			return nil, err
		}
		f.Truncate(opts.Limits)
		return f, nil
	case ".ods", ".xls":
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		f, err := ReadJSON(fh)
		if err != nil {
			return nil, err
		}
		f.Truncate(opts.Limits)
		return f, nil
	}
	return ReadCSV(fh, opts)
}
