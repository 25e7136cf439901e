package dataprocessing

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"excelflow/pkg/contracts/domain"
)

// RenderPreview writes the first limit rows of t to w as a text table.
// limit <= 0 renders every row. Missing cells are shown as NaN.
func RenderPreview(w io.Writer, t *domain.Table, limit int) error {
	header := make(table.Row, 0, len(t.Columns))
	for _, name := range t.ColumnNames() {
		header = append(header, name)
	}

	n := t.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	rows := make([]table.Row, 0, n)
	for i := 0; i < n; i++ {
		row := make(table.Row, len(t.Columns))
		for j, cell := range t.Rows[i] {
			if cell.IsMissing() {
				row[j] = "NaN"
			} else {
				row[j] = cell.String()
			}
		}
		rows = append(rows, row)
	}

	tw := table.NewWriter()
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.AppendSeparator()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	tw.SetCaption("%d of %d rows", n, t.Len())

	_, err := io.WriteString(w, tw.Render()+"\n")
	return err
}
