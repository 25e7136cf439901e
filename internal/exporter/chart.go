package exporter

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	apperrors "excelflow/internal/errors"
	"excelflow/pkg/contracts/domain"
)

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
)

var barColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// ChartRenderer draws histogram images
type ChartRenderer struct {
	logger *slog.Logger
}

// NewChartRenderer creates a chart renderer. A nil logger uses slog.Default().
func NewChartRenderer(logger *slog.Logger) *ChartRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartRenderer{logger: logger}
}

// RenderHistogram saves hist as a bar chart. The image format follows the
// file extension of filePath (png, svg, pdf...).
func (r *ChartRenderer) RenderHistogram(ctx context.Context, filePath string, hist *domain.Histogram) error {
	if hist == nil || len(hist.Bins) == 0 {
		return apperrors.NewReportError("no histogram to render", nil)
	}

	p := plot.New()
	p.Title.Text = ChartTitle
	p.X.Label.Text = hist.Column
	p.Y.Label.Text = "Frequency"

	bins := make([]plotter.HistogramBin, len(hist.Bins))
	for i, b := range hist.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: float64(b.Count)}
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     hist.Bins[0].Max - hist.Bins[0].Min,
		FillColor: barColor,
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(plotter.NewGrid(), h)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return r.fail(ctx, filePath, fmt.Errorf("failed to create directory: %w", err))
	}
	if err := p.Save(chartWidth, chartHeight, filePath); err != nil {
		return r.fail(ctx, filePath, err)
	}

	r.logger.InfoContext(ctx, "Saved histogram chart",
		slog.String("file_path", filePath),
		slog.String("column", hist.Column),
		slog.Int("bins", len(hist.Bins)))
	return nil
}

func (r *ChartRenderer) fail(ctx context.Context, filePath string, err error) error {
	r.logger.ErrorContext(ctx, "Failed to render histogram",
		slog.String("file_path", filePath),
		slog.String("error", err.Error()))
	return apperrors.NewReportError("failed to render histogram", err).WithContext("path", filePath)
}
