package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderTable(t Table) string {
	if len(t.Rows) == 0 && t.Footer == "" {
		if t.Title != "" {
			return t.Title + ": none"
		}
		return "none"
	}

	w := table.NewWriter()
	style := table.StyleRounded
	// Footers carry counts like "3 boards"; keep their case.
	style.Format.Footer = text.FormatDefault
	w.SetStyle(style)
	if t.Title != "" {
		w.SetTitle(t.Title)
	}
	w.AppendHeader(toRow(t.Header))

	for _, row := range t.Rows {
		w.AppendRow(toRow(row))
	}

	if t.Footer != "" && len(t.Header) > 0 {
		footer := make(table.Row, len(t.Header))
		for i := range footer {
			footer[i] = ""
		}
		footer[len(footer)-1] = t.Footer
		w.AppendFooter(footer)
	}

	return w.Render()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}
