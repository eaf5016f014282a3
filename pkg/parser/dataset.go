package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// GeometryName is the name given to the geometry column of geospatial inputs.
const GeometryName = "geometry"

// Kind is the inferred scalar type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindGeometry
)

// String returns the kind name shown in previews.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindGeometry:
		return "geometry"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for c := KindString; c <= KindGeometry; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown column kind %q", text)
}

// Column describes one column of a Dataset.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Warning represents a non-fatal issue encountered while parsing.
type Warning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Dataset is the parsed representation of an uploaded file. Rows hold one
// string value per column; for geospatial inputs the geometry column holds the
// WKT text and Geometries holds the decoded geometry of each row.
type Dataset struct {
	Format     string         `json:"format"`
	Columns    []Column       `json:"columns"`
	Rows       [][]string     `json:"rows"`
	Geometries []orb.Geometry `json:"-"`
	Warnings   []Warning      `json:"warnings,omitempty"`

	index map[string]int
}

// newDataset builds a Dataset from a raw header and aligned rows. Header names
// are made unique and column kinds are inferred from the values.
func newDataset(header []string, rows [][]string) *Dataset {
	names := uniqueHeaders(header)
	d := &Dataset{
		Columns: make([]Column, len(names)),
		Rows:    rows,
		index:   make(map[string]int, len(names)),
	}
	for i, name := range names {
		d.Columns[i] = Column{Name: name, Kind: inferKind(rows, i)}
		d.index[name] = i
	}
	return d
}

// newGeoDataset builds a Dataset whose last column is the geometry column.
func newGeoDataset(header []string, rows [][]string, geoms []orb.Geometry) *Dataset {
	full := append(append([]string{}, header...), GeometryName)
	for i := range rows {
		text := ""
		if geoms[i] != nil {
			text = wkt.MarshalString(geoms[i])
		}
		rows[i] = append(rows[i], text)
	}
	d := newDataset(full, rows)
	d.Columns[len(full)-1].Kind = KindGeometry
	d.Geometries = geoms
	return d
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// ColumnNames returns the column names in display order.
func (d *Dataset) ColumnNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.lookup()[name]
	return ok
}

// Value returns the value of the named column in the given row.
func (d *Dataset) Value(row int, name string) (string, bool) {
	if d == nil || row < 0 || row >= len(d.Rows) {
		return "", false
	}
	i, ok := d.lookup()[name]
	if !ok || i >= len(d.Rows[row]) {
		return "", false
	}
	return d.Rows[row][i], true
}

// HasGeometry reports whether the dataset carries a geometry column.
func (d *Dataset) HasGeometry() bool {
	return d.GeometryColumn() != "" && len(d.Geometries) == len(d.Rows)
}

// GeometryColumn returns the name of the geometry column, or "" when there is none.
func (d *Dataset) GeometryColumn() string {
	if d == nil {
		return ""
	}
	for _, c := range d.Columns {
		if c.Kind == KindGeometry {
			return c.Name
		}
	}
	return ""
}

// Geometry returns the decoded geometry of a row, or nil.
func (d *Dataset) Geometry(row int) orb.Geometry {
	if !d.HasGeometry() || row < 0 || row >= len(d.Geometries) {
		return nil
	}
	return d.Geometries[row]
}

// Summary returns the success indicator shown after an upload, e.g. "CSV - 9 records".
func (d *Dataset) Summary() string {
	return fmt.Sprintf("%s - %d records", d.Format, d.Len())
}

// lookup rebuilds the name index for datasets decoded from JSON.
func (d *Dataset) lookup() map[string]int {
	if d.index == nil {
		d.index = make(map[string]int, len(d.Columns))
		for i, c := range d.Columns {
			d.index[c.Name] = i
		}
	}
	return d.index
}

// uniqueHeaders trims header names, names blank headers "Unnamed: <i>" and
// suffixes duplicates with ".1", ".2", ... until every name is distinct.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := trimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		out[i] = name
	}
	counts := make(map[string]int, len(header))
	for _, name := range out {
		seen[name] = true
	}
	taken := make(map[string]bool, len(header))
	for i, name := range out {
		if !taken[name] {
			taken[name] = true
			continue
		}
		for {
			counts[name]++
			candidate := name + "." + strconv.Itoa(counts[name])
			if !taken[candidate] && !seen[candidate] {
				out[i] = candidate
				taken[candidate] = true
				break
			}
		}
	}
	return out
}

// inferKind picks the narrowest kind that every non-empty value in the column satisfies.
func inferKind(rows [][]string, col int) Kind {
	isInt, isFloat, isBool := true, true, true
	nonEmpty := false
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		nonEmpty = true
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			switch strings.ToLower(v) {
			case "true", "false":
			default:
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return KindString
		}
	}
	switch {
	case !nonEmpty:
		return KindString
	case isInt:
		return KindInteger
	case isFloat:
		return KindFloat
	case isBool:
		return KindBoolean
	default:
		return KindString
	}
}
