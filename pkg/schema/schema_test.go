package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standardizer/pkg/parser"
)

func TestColumns_Layout(t *testing.T) {
	require.Len(t, Columns, 22)
	assert.Equal(t, ColSucafinaPlotID, Columns[0])
	assert.Equal(t, ColPlotFarmerGroup, Columns[21])

	seen := make(map[string]bool)
	for _, c := range Columns {
		assert.False(t, seen[c], "duplicate column %s", c)
		seen[c] = true
	}
	assert.Len(t, Record{}.Values(), len(Columns))
}

func TestFixedLists(t *testing.T) {
	assert.Len(t, Origins, 17)
	assert.Equal(t, "Brazil", Origins[0])
	assert.True(t, IsOrigin("Laos"))
	assert.False(t, IsOrigin("laos"))

	assert.Len(t, Certifications, 8)
	assert.Equal(t, "Other", CertificationLabels()[7])

	for _, c := range Certifications {
		if c.Column != "" {
			assert.Contains(t, Columns, c.Column)
		}
	}
	for _, f := range PlotFields {
		assert.Contains(t, Columns, f.Column)
	}

	f, ok := LookupField(FieldPlotDistrict)
	require.True(t, ok)
	assert.Equal(t, "Plot District", f.Label)
	_, ok = LookupField("nope")
	assert.False(t, ok)
}

func TestSuggestMappings(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    map[string]string
	}{
		{
			name:    "exact",
			headers: []string{"plot_id", "farmer_id", "region", "district", "area_ha"},
			want: map[string]string{
				FieldPlotID: "plot_id", FieldFarmerID: "farmer_id",
				FieldPlotRegion: "region", FieldPlotDistrict: "district",
			},
		},
		{
			name:    "spanish with accents and substrings",
			headers: []string{"Código Parcela", "Nombre Productor", "Municipio", "Departamento"},
			want: map[string]string{
				FieldPlotID: "Código Parcela", FieldFarmerID: "Nombre Productor",
				FieldPlotRegion: "Departamento", FieldPlotDistrict: "Municipio",
			},
		},
		{
			name:    "exact wins over earlier substring",
			headers: []string{"farmer_name", "Farmer ID"},
			want:    map[string]string{FieldFarmerID: "Farmer ID"},
		},
		{
			name:    "typos via edit distance",
			headers: []string{"farmr_id", "distrct"},
			want:    map[string]string{FieldFarmerID: "farmr_id", FieldPlotDistrict: "distrct"},
		},
		{
			name:    "nothing",
			headers: []string{"area_ha", "geometry", ""},
			want:    map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestMappings(tt.headers))
		})
	}
}

func TestHeaderMatcher(t *testing.T) {
	assert.Equal(t, 1.0, newHeaderMatcher("").score(""))

	kitten := newHeaderMatcher("kitten")
	assert.Equal(t, 0, kitten.distance("kitten"))
	assert.Equal(t, 3, kitten.distance("sitting"))
	assert.Equal(t, 6, kitten.distance(""))
	// Rows are reused between candidates.
	assert.Equal(t, 0, kitten.distance("kitten"))

	m := newHeaderMatcher("farmrid")
	assert.InDelta(t, 0.875, m.score("farmerid"), 1e-9)
	field, ok := m.closest(map[string]string{})
	require.True(t, ok)
	assert.Equal(t, FieldFarmerID, field)

	// With farmer ID taken, "farmid" (plot ID) is next at 6/7.
	field, ok = m.closest(map[string]string{FieldFarmerID: "farmer"})
	require.True(t, ok)
	assert.Equal(t, FieldPlotID, field)

	_, ok = newHeaderMatcher("areaha").closest(map[string]string{})
	assert.False(t, ok)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "codigoparcela", normalizeHeader(" Código_Parcela "))
	assert.Equal(t, "plotno", normalizeHeader("Plot No."))
}

func parseCSV(t *testing.T, content string) *parser.Dataset {
	t.Helper()
	ds, err := parser.DefaultRegistry().Parse("in.csv", strings.NewReader(content), parser.Options{})
	require.NoError(t, err)
	return ds
}

func TestStandardize_ResolvesEachSourceKind(t *testing.T) {
	ds := parseCSV(t, "code,farmer,dept\nP1,F1,Huila\nP2,,Cauca\n")
	m := Mapping{
		Fields: map[string]Source{
			FieldPlotID:       ColumnRef("code"),
			FieldFarmerID:     ColumnRef("farmer"),
			FieldPlotRegion:   Literal("Sur"),
			FieldPlotDistrict: Null(),
		},
		SupplierCode:           "SUP-9",
		Certifications:         map[string]bool{"Organic": true, "Other": true},
		OtherCertificationName: "Bird Friendly",
	}

	recs := Standardize(ds, m)
	require.Len(t, recs, 2)

	r := recs[1]
	require.NotNil(t, r.SupplierPlotID)
	assert.Equal(t, "P2", *r.SupplierPlotID)
	assert.Nil(t, r.FarmerID)
	require.NotNil(t, r.PlotRegion)
	assert.Equal(t, "Sur", *r.PlotRegion)
	assert.Nil(t, r.PlotDistrict)
	assert.Equal(t, "SUP-9", *r.SupplierCode)
	assert.Nil(t, r.PlotSupplyChain)
	assert.True(t, r.IsOrganicCertified)
	assert.False(t, r.Is4CCertified)
	assert.Equal(t, "Bird Friendly", *r.OtherCertificationName)
	assert.Nil(t, r.PlotWKT)
	assert.Nil(t, r.SucafinaPlotID)

	vals := r.Values()
	assert.Equal(t, "P2", vals[1])
	assert.Equal(t, "true", vals[16])
}

func TestStandardize_OtherNameOnlyWhenChecked(t *testing.T) {
	ds := parseCSV(t, "a\n1\n")
	recs := Standardize(ds, Mapping{OtherCertificationName: "Bird Friendly"})
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].OtherCertificationName)
}

func TestStandardize_Geometry(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"id":"a"},"geometry":{"type":"Point","coordinates":[36.95,-0.55]}},
{"type":"Feature","properties":{"id":"b"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.01,0],[0.01,0.01],[0,0.01],[0,0]]]}}]}`
	ds, err := parser.DefaultRegistry().Parse("p.geojson", strings.NewReader(doc), parser.Options{})
	require.NoError(t, err)

	recs := Standardize(ds, Mapping{})
	require.Len(t, recs, 2)

	pt := recs[0]
	assert.InDelta(t, 36.95, *pt.PlotLongitude, 1e-9)
	assert.InDelta(t, -0.55, *pt.PlotLatitude, 1e-9)
	assert.Equal(t, *pt.PlotWKT, *pt.PlotGPSPoint)
	assert.Nil(t, pt.PlotGPSPolygon)
	assert.Nil(t, pt.PlotAreaHa)

	poly := recs[1]
	assert.InDelta(t, 0.005, *poly.PlotLongitude, 1e-9)
	assert.InDelta(t, 0.005, *poly.PlotLatitude, 1e-9)
	require.NotNil(t, poly.PlotGPSPolygon)
	assert.True(t, strings.HasPrefix(*poly.PlotGPSPolygon, "POLYGON"))
	// 0.01 degree square at the equator is roughly 1.11 km on a side.
	assert.InDelta(t, 123.9, *poly.PlotAreaHa, 2)
}

func TestStandardize_NilDataset(t *testing.T) {
	assert.Nil(t, Standardize(nil, Mapping{}))
}
