package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"standardizer/pkg/form"
	"standardizer/pkg/parser"
)

// maxCellWidth caps terminal column width; longer cells are cut with an ellipsis.
const maxCellWidth = 32

// Styles holds the terminal styles used by the CLI.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
}

// DefaultStyles returns the CLI palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#101F38")),
		Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Padding(0, 1),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")),
	}
}

// RenderTable renders a preview table with a title and a row count footer.
func RenderTable(title string, t Table, styles Styles) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(styles.Title.Render(title))
		sb.WriteString("\n")
	}
	if len(t.Columns) == 0 {
		return sb.String()
	}

	widths := make([]int, len(t.Columns))
	for i, h := range t.Columns {
		widths[i] = lipgloss.Width(clip(h))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(clip(cell)))
			}
		}
	}
	// Width includes padding.
	for i := range widths {
		widths[i] += 2
	}

	sep := styles.Muted.Render("|")
	for i, h := range t.Columns {
		sb.WriteString(styles.Header.Width(widths[i]).Render(clip(h)))
		if i < len(t.Columns)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range t.Rows {
		for i := range t.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			sb.WriteString(styles.Cell.Width(widths[i]).Render(clip(cell)))
			if i < len(t.Columns)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	footer := fmt.Sprintf("%d rows", t.Total)
	if t.Truncated() {
		footer = fmt.Sprintf("showing %d of %d rows", len(t.Rows), t.Total)
	}
	sb.WriteString(styles.Muted.Render(footer))
	sb.WriteString("\n")
	return sb.String()
}

// RenderInspect renders the result of parsing one file: the success
// indicator, parse warnings, the dataset preview and the field options.
func RenderInspect(ds *parser.Dataset, limit int, styles Styles) string {
	var sb strings.Builder
	sb.WriteString(styles.Success.Render(ds.Summary()))
	sb.WriteString("\n")
	for _, w := range ds.Warnings {
		msg := w.Message
		if w.Row > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Row, w.Message)
		}
		sb.WriteString(styles.Warning.Render("warning: " + msg))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(RenderTable("Data Preview", DatasetTable(ds, limit), styles))
	sb.WriteString("\n")

	options := Table{Columns: []string{"value", "label"}}
	for _, o := range form.Options(ds.ColumnNames()) {
		options.Rows = append(options.Rows, []string{o.Value, o.Label})
	}
	options.Total = len(options.Rows)
	sb.WriteString(RenderTable("Mapping Options", options, styles))
	return sb.String()
}

func clip(s string) string {
	if lipgloss.Width(s) <= maxCellWidth {
		return s
	}
	r := []rune(s)
	if len(r) > maxCellWidth-1 {
		r = r[:maxCellWidth-1]
	}
	return string(r) + "…"
}
