package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "excelflow/internal/errors"
	"excelflow/pkg/contracts/domain"
)

const (
	// DataSheet holds the cleaned dataset
	DataSheet = "Sheet1"
	// SummarySheet holds one statistics row per column
	SummarySheet = "Summary"
	// HistogramSheet holds the bins of the designated column and their chart
	HistogramSheet = "Histogram"
	// ChartTitle is the title of the histogram charts
	ChartTitle = "Distribution of Amounts"
)

// SummaryHeaders are the columns of the Summary sheet
var SummaryHeaders = []string{
	"column", "type", "count", "unique", "top", "freq",
	"mean", "std", "min", "25%", "50%", "75%", "max",
}

// ExcelWriter writes tables and reports as Excel workbooks
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a workbook writer. A nil logger uses slog.Default().
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// WriteTable saves t to filePath on sheet Sheet1, header row first
func (w *ExcelWriter) WriteTable(ctx context.Context, filePath string, t *domain.Table) error {
	f, err := w.tableWorkbook(t)
	if err != nil {
		return w.fail(ctx, "failed to build dataset workbook", filePath, err)
	}
	defer f.Close()

	if err := saveAs(f, filePath); err != nil {
		return w.fail(ctx, "failed to save dataset workbook", filePath, err)
	}

	w.logger.InfoContext(ctx, "Saved dataset workbook",
		slog.String("file_path", filePath),
		slog.Int("rows", t.Len()))
	return nil
}

// WriteTableTo streams t as an xlsx workbook to out
func (w *ExcelWriter) WriteTableTo(ctx context.Context, out io.Writer, t *domain.Table) error {
	f, err := w.tableWorkbook(t)
	if err != nil {
		return w.fail(ctx, "failed to build dataset workbook", "", err)
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return w.fail(ctx, "failed to write dataset workbook", "", err)
	}
	return nil
}

func (w *ExcelWriter) tableWorkbook(t *domain.Table) (*excelize.File, error) {
	f := excelize.NewFile()

	sw, err := f.NewStreamWriter(DataSheet)
	if err != nil {
		f.Close()
		return nil, err
	}

	header := make([]interface{}, len(t.Columns))
	for j, name := range t.ColumnNames() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v.Interface()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteSummary saves the statistics report to filePath. When hist is not
// nil a Histogram sheet with the bins and a column chart is added.
func (w *ExcelWriter) WriteSummary(ctx context.Context, filePath string, summary *domain.Summary, hist *domain.Histogram) error {
	if summary == nil {
		return apperrors.NewReportError("no summary to write", nil)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(DataSheet, SummarySheet); err != nil {
		return w.fail(ctx, "failed to create summary sheet", filePath, err)
	}
	if err := writeSummarySheet(f, summary); err != nil {
		return w.fail(ctx, "failed to write summary sheet", filePath, err)
	}
	if hist != nil {
		if err := writeHistogramSheet(f, hist); err != nil {
			return w.fail(ctx, "failed to write histogram sheet", filePath, err)
		}
	}

	if err := saveAs(f, filePath); err != nil {
		return w.fail(ctx, "failed to save summary workbook", filePath, err)
	}

	w.logger.InfoContext(ctx, "Saved summary workbook",
		slog.String("file_path", filePath),
		slog.Int("columns", len(summary.Columns)),
		slog.Bool("histogram", hist != nil))
	return nil
}

func writeSummarySheet(f *excelize.File, summary *domain.Summary) error {
	header := make([]interface{}, len(SummaryHeaders))
	for i, h := range SummaryHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return err
	}

	for i, cs := range summary.Columns {
		row := []interface{}{
			cs.Column, string(cs.Type), cs.Count,
			intCell(cs.Unique), stringCell(cs.Top), intCell(cs.Freq),
			floatCell(cs.Mean), floatCell(cs.Std), floatCell(cs.Min),
			floatCell(cs.Q25), floatCell(cs.Q50), floatCell(cs.Q75), floatCell(cs.Max),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeHistogramSheet(f *excelize.File, hist *domain.Histogram) error {
	if _, err := f.NewSheet(HistogramSheet); err != nil {
		return err
	}

	header := []interface{}{"bin_start", "bin_end", "bin", "count"}
	if err := f.SetSheetRow(HistogramSheet, "A1", &header); err != nil {
		return err
	}
	for i, b := range hist.Bins {
		row := []interface{}{b.Min, b.Max, fmt.Sprintf("%.2f - %.2f", b.Min, b.Max), b.Count}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(HistogramSheet, cell, &row); err != nil {
			return err
		}
	}

	last := len(hist.Bins) + 1
	return f.AddChart(HistogramSheet, "F2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$D$1", HistogramSheet),
				Categories: fmt.Sprintf("%s!$C$2:$C$%d", HistogramSheet, last),
				Values:     fmt.Sprintf("%s!$D$2:$D$%d", HistogramSheet, last),
			},
		},
		Title:  []excelize.RichTextRun{{Text: ChartTitle}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: hist.Column}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Frequency"}}},
	})
}

func (w *ExcelWriter) fail(ctx context.Context, msg, filePath string, err error) error {
	w.logger.ErrorContext(ctx, msg,
		slog.String("file_path", filePath),
		slog.String("error", err.Error()))
	appErr := apperrors.NewReportError(msg, err)
	if filePath != "" {
		appErr = appErr.WithContext("path", filePath)
	}
	return appErr
}

func saveAs(f *excelize.File, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return f.SaveAs(filePath)
}

func intCell(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringCell(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
