package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	xunicode "golang.org/x/text/encoding/unicode"
)

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRegistry_CSVFixtureWithPreamble(t *testing.T) {
	ds, err := DefaultRegistry().Parse("plots.csv", openFixture(t, "plots.csv"), Options{SkipRows: 1})
	require.NoError(t, err)

	assert.Equal(t, "CSV", ds.Format)
	assert.Equal(t, 9, ds.Len())
	assert.Equal(t, "CSV - 9 records", ds.Summary())
	assert.Equal(t, []string{"plot_id", "farmer_id", "region", "district", "area_ha"}, ds.ColumnNames())
	assert.False(t, ds.HasGeometry())

	v, ok := ds.Value(3, "district")
	require.True(t, ok)
	assert.Equal(t, "Inzá", v)
	assert.Equal(t, KindFloat, ds.Columns[4].Kind)
	assert.Equal(t, KindString, ds.Columns[0].Kind)
}

func TestRegistry_CSVPreambleWithoutSkipFails(t *testing.T) {
	_, err := DefaultRegistry().Parse("plots.csv", openFixture(t, "plots.csv"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 fields, saw 5")
}

func TestCSV_SkipRowsRemovesLeadingRows(t *testing.T) {
	const total = 10
	var b strings.Builder
	b.WriteString("a,b,c\n")
	for i := 0; i < total; i++ {
		fmt.Fprintf(&b, "%d,x%d,y%d\n", i, i, i)
	}
	content := b.String()

	for k := 0; k < total; k++ {
		ds, err := CSV{}.Parse(strings.NewReader(content), Options{SkipRows: k})
		require.NoError(t, err, "skip=%d", k)
		assert.Equal(t, total-k, ds.Len(), "skip=%d", k)
	}
}

func TestCSV_SkipPastEndIsError(t *testing.T) {
	_, err := CSV{}.Parse(strings.NewReader("a,b\n1,2\n"), Options{SkipRows: 2})
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = CSV{}.Parse(strings.NewReader("a,b\n1,2\n"), Options{SkipRows: 5})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestCSV_EmptyAndHeaderOnly(t *testing.T) {
	_, err := CSV{}.Parse(strings.NewReader(""), Options{})
	assert.ErrorIs(t, err, ErrEmptyFile)

	ds, err := CSV{}.Parse(strings.NewReader("plot_id,farmer_id\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, []string{"plot_id", "farmer_id"}, ds.ColumnNames())
}

func TestCSV_ShortRowsArePadded(t *testing.T) {
	ds, err := CSV{}.Parse(strings.NewReader("a,b,c\n1,2\n3,4,5\n"), Options{})
	require.NoError(t, err)
	require.Len(t, ds.Warnings, 1)
	assert.Equal(t, 2, ds.Warnings[0].Row)
	assert.Equal(t, []string{"1", "2", ""}, ds.Rows[0])
}

func TestCSV_DuplicateAndBlankHeaders(t *testing.T) {
	ds, err := CSV{}.Parse(strings.NewReader("id,,id,id.1,id\n1,2,3,4,5\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "Unnamed: 1", "id.2", "id.1", "id.3"}, ds.ColumnNames())
}

func TestCSV_UTF16AndLatin1(t *testing.T) {
	enc := xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM).NewEncoder()
	utf16, err := enc.Bytes([]byte("region\nNariño\n"))
	require.NoError(t, err)

	ds, err := CSV{}.Parse(bytes.NewReader(utf16), Options{})
	require.NoError(t, err)
	v, _ := ds.Value(0, "region")
	assert.Equal(t, "Nariño", v)

	latin1 := []byte("region\nNari\xf1o\n")
	ds, err = CSV{}.Parse(bytes.NewReader(latin1), Options{})
	require.NoError(t, err)
	v, _ = ds.Value(0, "region")
	assert.Equal(t, "Nariño", v)
	require.NotEmpty(t, ds.Warnings)
	assert.Equal(t, "decoded from latin-1", ds.Warnings[0].Message)
}

func TestCSV_BOMStrippedFromHeader(t *testing.T) {
	ds, err := CSV{}.Parse(strings.NewReader("\xEF\xBB\xBFplot_id\nA\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"plot_id"}, ds.ColumnNames())
}

func TestRegistry_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"plot_id", "farmer_id", "area_ha"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"X-1", "F-1", 1.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"X-2", "F-2"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"X-3", "F-3", 2, "note"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	ds, err := DefaultRegistry().Parse("Plots.XLSX", buf, Options{})
	require.NoError(t, err)
	assert.Equal(t, "XLSX - 3 records", ds.Summary())
	assert.Equal(t, []string{"plot_id", "farmer_id", "area_ha", "Unnamed: 3"}, ds.ColumnNames())
	assert.Equal(t, []string{"X-2", "F-2", "", ""}, ds.Rows[1])
	assert.Equal(t, KindFloat, ds.Columns[2].Kind)
}

func TestRegistry_XLSXRejectsGarbage(t *testing.T) {
	_, err := DefaultRegistry().Parse("plots.xlsx", strings.NewReader("not a zip"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse XLSX file")
}

func TestRegistry_GeoJSON(t *testing.T) {
	ds, err := DefaultRegistry().Parse("plots.geojson", openFixture(t, "plots.geojson"), Options{})
	require.NoError(t, err)

	assert.Equal(t, "GEOJSON - 3 records", ds.Summary())
	assert.Equal(t, []string{"id", "plot_id", "farmer", "area_ha", "cooperative", "geometry"}, ds.ColumnNames())
	require.True(t, ds.HasGeometry())
	assert.Equal(t, "geometry", ds.GeometryColumn())
	assert.Equal(t, KindGeometry, ds.Columns[5].Kind)
	assert.Equal(t, KindFloat, ds.Columns[3].Kind)

	_, isPolygon := ds.Geometry(0).(orb.Polygon)
	assert.True(t, isPolygon)
	assert.Equal(t, orb.Point{36.95, -0.55}, ds.Geometry(1))
	assert.Nil(t, ds.Geometry(2))

	assert.Equal(t, []string{"", "K-02", "Otieno", "1.2", "Othaya"}, ds.Rows[1][:5])
	assert.True(t, strings.HasPrefix(ds.Rows[1][5], "POINT"))
	assert.Equal(t, "", ds.Rows[2][5])
	assert.Equal(t, "", ds.Rows[2][2])
}

func TestGeoJSON_SingleFeatureAndBareGeometry(t *testing.T) {
	ds, err := GeoJSON{}.Parse(strings.NewReader(`{"type":"Feature","properties":{"b":1,"a":2},"geometry":{"type":"Point","coordinates":[1,2]}}`), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "geometry"}, ds.ColumnNames())

	ds, err = GeoJSON{}.Parse(strings.NewReader(`{"type":"Point","coordinates":[1,2]}`), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"geometry"}, ds.ColumnNames())
	assert.Equal(t, 1, ds.Len())
}

func TestGeoJSON_Invalid(t *testing.T) {
	_, err := GeoJSON{}.Parse(strings.NewReader(`{"features":[]}`), Options{})
	require.Error(t, err)

	_, err = GeoJSON{}.Parse(strings.NewReader(`   `), Options{})
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = GeoJSON{}.Parse(strings.NewReader(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":[1]}]}`), Options{})
	require.Error(t, err)
}

func TestRegistry_KML(t *testing.T) {
	ds, err := DefaultRegistry().Parse("plots.kml", openFixture(t, "plots.kml"), Options{})
	require.NoError(t, err)

	assert.Equal(t, "KML - 2 records", ds.Summary())
	assert.Equal(t, []string{"Name", "Description", "farmer_id", "kebele", "geometry"}, ds.ColumnNames())
	assert.Equal(t, []string{"ET-01", "Washing station A", "F-9", ""}, ds.Rows[0][:4])
	assert.Equal(t, []string{"ET-02", "", "F-10", "Bensa"}, ds.Rows[1][:4])

	poly, ok := ds.Geometry(0).(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 5)
	assert.Equal(t, orb.Point{38.55, 6.62}, ds.Geometry(1))
}

func TestKML_MultiGeometry(t *testing.T) {
	doc := `<kml><Placemark><name>m</name><MultiGeometry>
<Point><coordinates>1,2</coordinates></Point>
<Point><coordinates>3,4</coordinates></Point>
</MultiGeometry></Placemark>
<Placemark><name>mixed</name><MultiGeometry>
<Point><coordinates>1,2</coordinates></Point>
<LineString><coordinates>1,2 3,4</coordinates></LineString>
</MultiGeometry></Placemark></kml>`
	ds, err := KML{}.Parse(strings.NewReader(doc), Options{})
	require.NoError(t, err)
	assert.Equal(t, orb.MultiPoint{{1, 2}, {3, 4}}, ds.Geometry(0))
	_, isCollection := ds.Geometry(1).(orb.Collection)
	assert.True(t, isCollection)
}

func TestKML_Invalid(t *testing.T) {
	_, err := KML{}.Parse(strings.NewReader(""), Options{})
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = KML{}.Parse(strings.NewReader(`<kml><Placemark><Point><coordinates>x,1</coordinates></Point></Placemark></kml>`), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid longitude")

	_, err = KML{}.Parse(strings.NewReader(`<kml><Placemark>`), Options{})
	require.Error(t, err)
}

func TestKML_DeclaredLatin1Encoding(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<kml><Document><Placemark><name>Nari\xf1o</name>" +
		"<Point><coordinates>-77.28,1.21,0</coordinates></Point></Placemark></Document></kml>"
	ds, err := DefaultRegistry().Parse("plots.kml", strings.NewReader(doc), Options{})
	require.NoError(t, err)

	assert.Equal(t, "KML - 1 records", ds.Summary())
	assert.Equal(t, "Nariño", ds.Rows[0][0])
	assert.Equal(t, orb.Point{-77.28, 1.21}, ds.Geometry(0))
}

func TestKML_RootMustBeKML(t *testing.T) {
	_, err := KML{}.Parse(strings.NewReader(`<html><body><p>not a map</p></body></html>`), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root element is <html>")

	ds, err := KML{}.Parse(strings.NewReader(`<kml xmlns="http://www.opengis.net/kml/2.2"><Document/></kml>`), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
}

func TestRegistry_Dispatch(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []string{".csv", ".geojson", ".kml", ".xlsx"}, reg.Extensions())

	_, _, err := reg.Lookup("plots.shp")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, _, err = reg.Lookup("README")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, ext, err := reg.Lookup("dir.v2/Plots.GeoJSON")
	require.NoError(t, err)
	assert.Equal(t, "geojson", ext)

	_, err = reg.Parse("a.csv", strings.NewReader("a\n1\n"), Options{SkipRows: -1})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestRegistry_RegisterCustomParser(t *testing.T) {
	reg := NewRegistry()
	reg.Register(".TSV", ParserFunc(func(r io.Reader, _ Options) (*Dataset, error) {
		return newDataset([]string{"only"}, [][]string{{"1"}, {"2"}}), nil
	}))

	ds, err := reg.Parse("plots.tsv", strings.NewReader(""), Options{})
	require.NoError(t, err)
	assert.Equal(t, "TSV - 2 records", ds.Summary())
}

func TestInferKind(t *testing.T) {
	rows := [][]string{{"1", "1.5", "true", "x", ""}, {"2", "2", "FALSE", "3", ""}}
	kinds := make([]Kind, 5)
	for i := range kinds {
		kinds[i] = inferKind(rows, i)
	}
	assert.Equal(t, []Kind{KindInteger, KindFloat, KindBoolean, KindString, KindString}, kinds)
	assert.Equal(t, "boolean", KindBoolean.String())
}
