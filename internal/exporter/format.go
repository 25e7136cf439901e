package exporter

import (
	"strconv"

	"excelflow/pkg/contracts/domain"
)

// formatValue renders a cell for CSV output. Missing cells are empty.
func formatValue(v domain.Value) string {
	switch v.Kind {
	case domain.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case domain.KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case domain.KindText:
		return v.Text
	default:
		return ""
	}
}

// formatRecords converts table rows to CSV records
func formatRecords(t *domain.Table) [][]string {
	records := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = formatValue(cell)
		}
		records[i] = rec
	}
	return records
}
