package report

import (
	"standardizer/pkg/parser"
	"standardizer/pkg/schema"
)

// Table is a preview table. Rows may be truncated; Total is the full row count.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

// Truncated reports whether fewer rows are shown than exist.
func (t Table) Truncated() bool {
	return len(t.Rows) < t.Total
}

// DatasetTable previews the source dataset, showing at most limit rows (0 = all).
func DatasetTable(ds *parser.Dataset, limit int) Table {
	t := Table{Columns: ds.ColumnNames(), Rows: [][]string{}, Total: ds.Len()}
	if ds == nil {
		return t
	}
	t.Rows = head(ds.Rows, limit)
	return t
}

// StandardizedTable previews the standardized layout. Unless materialize is
// set the table has every schema column and no rows.
func StandardizedTable(ds *parser.Dataset, m schema.Mapping, materialize bool, limit int) Table {
	t := Table{Columns: append([]string(nil), schema.Columns...), Rows: [][]string{}}
	if !materialize || ds == nil {
		return t
	}
	records := schema.Standardize(ds, m)
	t.Total = len(records)
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = rec.Values()
	}
	t.Rows = head(rows, limit)
	return t
}

func head(rows [][]string, limit int) [][]string {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
