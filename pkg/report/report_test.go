package report

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standardizer/pkg/engine"
	"standardizer/pkg/form"
	"standardizer/pkg/parser"
	"standardizer/pkg/schema"
)

const plotsCSV = "plot_id,farmer_id,region\n" +
	"P-1,F-1,Cauca\n" +
	"P-2,,Huila\n" +
	"P-3,F-3,Nariño\n"

func uploaded(t *testing.T, opts engine.Options) *engine.Session {
	t.Helper()
	s := engine.NewSession(opts)
	require.NoError(t, s.Upload("plots.csv", []byte(plotsCSV), 0))
	return s
}

func TestDatasetTable(t *testing.T) {
	ds := uploaded(t, engine.Options{}).Dataset()

	want := Table{
		Columns: []string{"plot_id", "farmer_id", "region"},
		Rows:    [][]string{{"P-1", "F-1", "Cauca"}, {"P-2", "", "Huila"}},
		Total:   3,
	}
	got := DatasetTable(ds, 2)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DatasetTable mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got.Truncated())
	assert.Len(t, DatasetTable(ds, 0).Rows, 3)

	empty := DatasetTable(nil, 10)
	assert.Empty(t, empty.Columns)
	assert.Zero(t, empty.Total)
}

func TestStandardizedTable_EmptyByDefault(t *testing.T) {
	ds := uploaded(t, engine.Options{}).Dataset()

	got := StandardizedTable(ds, form.New().Mapping(), false, 0)
	want := Table{Columns: schema.Columns, Rows: [][]string{}, Total: 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StandardizedTable mismatch (-want +got):\n%s", diff)
	}
}

func TestStandardizedTable_Materialized(t *testing.T) {
	s := uploaded(t, engine.Options{})
	require.NoError(t, s.Apply(form.Submission{
		Fields: map[string]form.FieldInput{
			schema.FieldPlotID:   {Selection: form.ColumnValue("plot_id")},
			schema.FieldFarmerID: {Selection: form.ColumnValue("farmer_id")},
		},
		Certifications: []string{"Organic"},
	}))

	got := StandardizedTable(s.Dataset(), s.Mapping(), true, 0)
	require.Len(t, got.Rows, 3)
	assert.Equal(t, 3, got.Total)

	col := func(name string) int {
		for i, c := range got.Columns {
			if c == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}
	assert.Equal(t, "P-2", got.Rows[1][col(schema.ColSupplierPlotID)])
	assert.Equal(t, "", got.Rows[1][col(schema.ColFarmerID)])
	assert.Equal(t, "F-3", got.Rows[2][col(schema.ColFarmerID)])
	assert.Equal(t, "", got.Rows[0][col(schema.ColSucafinaPlotID)])
}

func TestBuildPage_NoDataset(t *testing.T) {
	s := engine.NewSession(engine.Options{})
	page := BuildPage(s.Snapshot(), PageOptions{Extensions: parser.DefaultRegistry().Extensions()})

	assert.False(t, page.HasDataset)
	assert.Empty(t, page.Fields)
	assert.Equal(t, ".csv,.geojson,.kml,.xlsx", page.Accept)
	assert.Equal(t, LogoURL, page.LogoURL)
	assert.Equal(t, s.ID, page.SessionID)
}

func TestBuildPage_WithDataset(t *testing.T) {
	s := uploaded(t, engine.Options{})
	require.NoError(t, s.Apply(form.Submission{
		Fields: map[string]form.FieldInput{
			schema.FieldPlotID:     {Selection: form.ColumnValue("plot_id")},
			schema.FieldPlotRegion: form.ManualInput("Cauca"),
		},
		Certifications: []string{schema.CertificationOther},
		Origin:         "Colombia",
	}))

	page := BuildPage(s.Snapshot(), PageOptions{RowLimit: 2})
	require.True(t, page.HasDataset)
	assert.True(t, page.ShowSkipRows)
	assert.Equal(t, "CSV - 3 records", page.Summary)

	require.Len(t, page.Fields, 4)
	pid := page.Fields[0]
	assert.Equal(t, "Plot ID", pid.Label)
	labels := make([]string, len(pid.Options))
	var selected []string
	for i, o := range pid.Options {
		labels[i] = o.Label
		if o.Selected {
			selected = append(selected, o.Value)
		}
	}
	assert.Equal(t, []string{"NULL", "--- Manual Entry ---", "plot_id", "farmer_id", "region"}, labels)
	assert.Equal(t, []string{"column:plot_id"}, selected)

	region := page.Fields[2]
	assert.True(t, region.Manual)
	assert.Equal(t, "Cauca", region.ManualText)

	require.Len(t, page.Certifications, 8)
	assert.True(t, page.ShowOtherName)
	assert.Len(t, page.Origins, 17)
	for _, o := range page.Origins {
		assert.Equal(t, o.Value == "Colombia", o.Selected, o.Value)
	}

	assert.Len(t, page.Dataset.Rows, 2)
	assert.Equal(t, 3, page.Dataset.Total)
	assert.Len(t, page.Standardized.Columns, 22)
	assert.Empty(t, page.Standardized.Rows)
}

func TestBuildPage_ParseError(t *testing.T) {
	s := engine.NewSession(engine.Options{})
	require.Error(t, s.Upload("plots.csv", []byte(""), 0))

	page := BuildPage(s.Snapshot(), PageOptions{})
	assert.False(t, page.HasDataset)
	assert.NotEmpty(t, page.Error)
	assert.Equal(t, "plots.csv", page.FileName)
}

func TestRenderTable(t *testing.T) {
	out := RenderTable("Data Preview", Table{
		Columns: []string{"plot_id", "region"},
		Rows:    [][]string{{"P-1", strings.Repeat("x", 50)}},
		Total:   4,
	}, DefaultStyles())

	assert.Contains(t, out, "Data Preview")
	assert.Contains(t, out, "plot_id")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("x", 50))
	assert.Contains(t, out, "showing 1 of 4 rows")
}

func TestRenderInspect(t *testing.T) {
	ds := uploaded(t, engine.Options{}).Dataset()
	out := RenderInspect(ds, 5, DefaultStyles())

	assert.Contains(t, out, "CSV - 3 records")
	assert.Contains(t, out, "--- Manual Entry ---")
	assert.Contains(t, out, "column:farmer_id")
	assert.Contains(t, out, "Nariño")
}
