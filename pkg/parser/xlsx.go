package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSX parses the first sheet of a workbook. The first row is the header.
type XLSX struct{}

// Parse implements Parser. Options are ignored.
func (XLSX) Parse(r io.Reader, _ Options) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptyFile)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no header row", ErrEmptyFile, sheets[0])
	}

	// GetRows drops trailing empty cells, so widths vary; cells beyond the
	// header become unnamed columns.
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	header := make([]string, width)
	copy(header, rows[0])

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		padded := make([]string, width)
		copy(padded, row)
		data = append(data, padded)
	}

	return newDataset(header, data), nil
}
