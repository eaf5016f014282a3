package schema

import (
	"strings"
	"unicode"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"golang.org/x/text/unicode/norm"

	"standardizer/pkg/parser"
)

// SourceKind says where a standardized field takes its value from.
type SourceKind int

const (
	SourceNull SourceKind = iota
	SourceLiteral
	SourceColumn
)

// String returns the source kind name.
func (k SourceKind) String() string {
	switch k {
	case SourceNull:
		return "null"
	case SourceLiteral:
		return "literal"
	case SourceColumn:
		return "column"
	default:
		return "unknown"
	}
}

// Source is the resolved value source of one plot field. Value is the
// literal text or the column name, depending on Kind.
type Source struct {
	Kind  SourceKind `json:"kind"`
	Value string     `json:"value,omitempty"`
}

// Null returns the explicit unset source.
func Null() Source { return Source{Kind: SourceNull} }

// Literal returns a source holding manually entered text.
func Literal(text string) Source { return Source{Kind: SourceLiteral, Value: text} }

// ColumnRef returns a source referencing a dataset column.
func ColumnRef(column string) Source { return Source{Kind: SourceColumn, Value: column} }

// Mapping is the resolved form output used to build standardized records.
type Mapping struct {
	Fields                 map[string]Source `json:"fields"`
	Origin                 string            `json:"origin"`
	SupplierCode           string            `json:"supplierCode"`
	SupplyChain            string            `json:"supplyChain"`
	Certifications         map[string]bool   `json:"certifications"`
	OtherCertificationName string            `json:"otherCertificationName"`
}

// Standardize materializes one Record per dataset row from the mapping.
// Geometry-derived columns are filled from the dataset's geometry column when present.
func Standardize(ds *parser.Dataset, m Mapping) []Record {
	if ds == nil {
		return nil
	}

	var other *string
	if m.Certifications[CertificationOther] {
		other = optional(m.OtherCertificationName)
	}

	records := make([]Record, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		rec := Record{
			SupplierPlotID:           m.resolve(ds, i, FieldPlotID),
			FarmerID:                 m.resolve(ds, i, FieldFarmerID),
			PlotRegion:               m.resolve(ds, i, FieldPlotRegion),
			PlotDistrict:             m.resolve(ds, i, FieldPlotDistrict),
			SupplierCode:             optional(m.SupplierCode),
			PlotSupplyChain:          optional(m.SupplyChain),
			IsGeodataValidated:       m.Certifications["Is Geodata Validated?"],
			IsCafePracticesCertified: m.Certifications["Cafe Practices"],
			IsRFAUTZCertified:        m.Certifications["RFA_UTZ"],
			IsImpactCertified:        m.Certifications["Impact"],
			IsOrganicCertified:       m.Certifications["Organic"],
			Is4CCertified:            m.Certifications["4C"],
			IsFairtradeCertified:     m.Certifications["Fair Trade"],
			OtherCertificationName:   other,
		}
		applyGeometry(&rec, ds.Geometry(i))
		records = append(records, rec)
	}
	return records
}

// resolve returns the value of a plot field for one row. Empty cells are null;
// a manual literal is used as is, even when empty.
func (m Mapping) resolve(ds *parser.Dataset, row int, key string) *string {
	src, ok := m.Fields[key]
	if !ok {
		return nil
	}
	switch src.Kind {
	case SourceLiteral:
		v := src.Value
		return &v
	case SourceColumn:
		v, ok := ds.Value(row, src.Value)
		if !ok {
			return nil
		}
		return optional(strings.TrimSpace(v))
	default:
		return nil
	}
}

// applyGeometry fills the coordinate, point, polygon, WKT and area columns.
func applyGeometry(rec *Record, g orb.Geometry) {
	if g == nil {
		return
	}
	text := wkt.MarshalString(g)
	rec.PlotWKT = &text

	switch t := g.(type) {
	case orb.Point:
		lon, lat := t.Lon(), t.Lat()
		rec.PlotLongitude, rec.PlotLatitude = &lon, &lat
		rec.PlotGPSPoint = &text
	case orb.Polygon, orb.MultiPolygon:
		centroid, _ := planar.CentroidArea(t)
		lon, lat := centroid.Lon(), centroid.Lat()
		rec.PlotLongitude, rec.PlotLatitude = &lon, &lat
		point := wkt.MarshalString(centroid)
		rec.PlotGPSPoint = &point
		rec.PlotGPSPolygon = &text
		ha := geo.Area(t) / 10000
		rec.PlotAreaHa = &ha
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// normalizeHeader lowercases a header string, strips diacritics, and drops
// whitespace, underscores, hyphens, dots and slashes.
func normalizeHeader(header string) string {
	s := stripDiacritics(strings.ToLower(strings.TrimSpace(header)))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.', '/', '#':
			return -1
		}
		return r
	}, s)
}

// stripDiacritics removes diacritical marks (accents) from a string.
// It decomposes the string into NFD form and removes combining marks (unicode.Mn).
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var result strings.Builder
	result.Grow(len(decomposed))

	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}
