package report

import (
	"strings"

	"standardizer/pkg/engine"
	"standardizer/pkg/form"
	"standardizer/pkg/parser"
	"standardizer/pkg/schema"
)

// LogoURL is the header image shown on the page.
const LogoURL = "https://group.sucafina.com/themes/sucafina/assets/img/base/logo.svg"

// PageOptions controls how a page is compiled.
type PageOptions struct {
	// RowLimit caps the rows of both previews (0 = all).
	RowLimit int
	// Materialize fills the standardized preview with one record per row.
	Materialize bool
	// Extensions are the accepted upload extensions, with leading dots.
	Extensions []string
}

// OptionView is one entry of a rendered select.
type OptionView struct {
	Value    string
	Label    string
	Selected bool
}

// FieldView is a rendered plot field: its select and, in manual mode, the text input.
type FieldView struct {
	Key        string
	Label      string
	Options    []OptionView
	Manual     bool
	ManualText string
}

// CertificationView is one rendered certification checkbox.
type CertificationView struct {
	Label   string
	Checked bool
}

// Page is everything the upload/mapping page renders for one session.
type Page struct {
	SessionID string
	LogoURL   string
	Accept    string

	FileName     string
	// ShowSkipRows is set for delimited text uploads, the only format with a preamble option.
	ShowSkipRows bool
	SkipRows     int
	Summary      string
	Error        string
	Warnings     []parser.Warning

	// HasDataset gates the mapping controls and previews.
	HasDataset     bool
	Fields         []FieldView
	Certifications []CertificationView
	Origins        []OptionView
	SupplierCode   string
	SupplyChain    string
	ShowOtherName  bool
	OtherName      string
	Stale          []form.StaleSelection

	Dataset      Table
	Standardized Table
}

// BuildPage compiles the page model from a session snapshot.
func BuildPage(snap *engine.Snapshot, opts PageOptions) *Page {
	state := snap.Form
	if state == nil {
		state = form.New()
	}

	page := &Page{
		SessionID:    snap.ID,
		LogoURL:      LogoURL,
		Accept:       strings.Join(opts.Extensions, ","),
		FileName:     snap.FileName,
		ShowSkipRows: parser.Extension(snap.FileName) == "csv",
		SkipRows:     snap.SkipRows,
		Summary:      snap.Summary,
		Error:        snap.Error,
		Stale:        snap.Stale,
	}
	if snap.Dataset == nil {
		return page
	}

	ds := snap.Dataset
	page.HasDataset = true
	page.Warnings = ds.Warnings
	page.Fields = fieldViews(state, ds.ColumnNames())
	page.Certifications = certificationViews(state)
	page.Origins = originViews(state.Origin)
	page.SupplierCode = state.SupplierCode
	page.SupplyChain = state.SupplyChain
	page.ShowOtherName = state.Certifications[schema.CertificationOther]
	page.OtherName = state.OtherCertificationName
	page.Dataset = DatasetTable(ds, opts.RowLimit)
	page.Standardized = StandardizedTable(ds, state.Mapping(), opts.Materialize, opts.RowLimit)
	return page
}

func fieldViews(state *form.State, columns []string) []FieldView {
	options := form.Options(columns)
	views := make([]FieldView, 0, len(schema.PlotFields))
	for _, f := range schema.PlotFields {
		sel := state.Selections[f.Key]
		current := sel.Value()
		opts := make([]OptionView, len(options))
		for i, o := range options {
			opts[i] = OptionView{Value: o.Value, Label: o.Label, Selected: o.Value == current}
		}
		views = append(views, FieldView{
			Key:        f.Key,
			Label:      f.Label,
			Options:    opts,
			Manual:     sel.Mode == form.ModeManual,
			ManualText: sel.ManualText,
		})
	}
	return views
}

func certificationViews(state *form.State) []CertificationView {
	views := make([]CertificationView, len(schema.Certifications))
	for i, c := range schema.Certifications {
		views[i] = CertificationView{Label: c.Label, Checked: state.Certifications[c.Label]}
	}
	return views
}

func originViews(selected string) []OptionView {
	views := make([]OptionView, len(schema.Origins))
	for i, o := range schema.Origins {
		views[i] = OptionView{Value: o, Label: o, Selected: o == selected}
	}
	return views
}
