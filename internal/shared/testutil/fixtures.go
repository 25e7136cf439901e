package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// SampleHeader is the header of the sample sales workbook
var SampleHeader = []string{"Name", "Amount", "City"}

// SampleRows mirrors data/sample_data.xlsx: one duplicate, one missing
// name, one missing amount and one negative amount
func SampleRows() [][]interface{} {
	return [][]interface{}{
		{"Alice", 100, "Paris"},
		{"Bob", -5, "Rome"},
		{"Alice", 100, "Paris"},
		{nil, 40, "Oslo"},
		{"Carol", nil, "Lima"},
	}
}

// WriteXLSX saves header and rows to dir/name on the first sheet and
// returns the file path. nil cells are left blank.
func WriteXLSX(t *testing.T, dir, name string, header []string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for j, h := range header {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteCSV saves records to dir/name and returns the file path
func WriteCSV(t *testing.T, dir, name string, records [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	require.NoError(t, w.WriteAll(records))
	return path
}
