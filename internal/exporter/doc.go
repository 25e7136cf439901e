// Package exporter writes the pipeline artifacts.
//
// ExcelWriter: cleaned dataset workbook and summary workbook, including a
// Histogram sheet with a native Excel column chart.
//
// ChartRenderer: histogram PNG rendered with gonum/plot.
//
// CSVWriter: CSV copy of a table with a UTF-8 BOM for Excel compatibility.
//
// Example usage:
//
//	writer := exporter.NewExcelWriter(logger)
//	if err := writer.WriteTable(ctx, "output/cleaned_data.xlsx", table); err != nil {
//	    return err
//	}
//	err = writer.WriteSummary(ctx, "output/summary_report.xlsx", summary, hist)
package exporter
