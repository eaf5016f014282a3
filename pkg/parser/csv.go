package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// CSV parses delimited text. Options.SkipRows leading records are discarded
// before the header row is read.
type CSV struct{}

// Parse implements Parser.
func (CSV) Parse(r io.Reader, opts Options) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	decoded, encoding, err := DetectAndDecode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	// Preamble rows and short rows have their own widths; widths are checked below.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for skipped := 0; skipped < opts.SkipRows; skipped++ {
		if _, err := reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: cannot skip %d rows, file has only %d", ErrNoHeader, opts.SkipRows, skipped)
			}
			return nil, fmt.Errorf("failed to skip row %d: %w", skipped+1, err)
		}
	}

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			if opts.SkipRows > 0 {
				return nil, fmt.Errorf("%w: nothing left after skipping %d rows", ErrNoHeader, opts.SkipRows)
			}
			return nil, fmt.Errorf("%w: no header row found", ErrEmptyFile)
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	headerCount := len(headers)
	var rows [][]string
	var warnings []Warning

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		switch {
		case len(row) < headerCount:
			warnings = append(warnings, Warning{
				Row:     line,
				Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(row), headerCount),
			})
			padded := make([]string, headerCount)
			copy(padded, row)
			row = padded
		case len(row) > headerCount:
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, headerCount, len(row))
		}

		rows = append(rows, row)
	}

	ds := newDataset(headers, rows)
	if encoding != "utf-8" && encoding != "utf-8-bom" {
		warnings = append([]Warning{{Row: 0, Message: "decoded from " + encoding}}, warnings...)
	}
	ds.Warnings = warnings
	return ds, nil
}

// trimSpace trims leading/trailing whitespace and stray BOM characters.
func trimSpace(s string) string {
	start := 0
	end := len(s)

	if len(s) >= 3 && s[:3] == string(bomUTF8) {
		start = 3
	}

	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\r' || s[start] == '\n') {
		start++
	}

	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\r' || s[end-1] == '\n') {
		end--
	}

	return s[start:end]
}
