package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	apperrors "excelflow/internal/errors"
	"excelflow/pkg/contracts/domain"
)

// DefaultHistogramBins is the number of equal-width bins of the amount chart
const DefaultHistogramBins = 20

// Summarizer computes descriptive statistics of a Table
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a summarizer. A nil logger uses slog.Default().
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger}
}

// Describe returns one ColumnSummary per column, in column order
func (s *Summarizer) Describe(ctx context.Context, t *domain.Table) (*domain.Summary, error) {
	if t == nil {
		return nil, apperrors.NewReportError("no table to summarize", nil)
	}

	summary := &domain.Summary{
		Rows:    t.Len(),
		Columns: make([]domain.ColumnSummary, 0, len(t.Columns)),
	}

	for _, col := range t.Columns {
		var (
			cs  domain.ColumnSummary
			err error
		)
		if col.Type == domain.ColumnNumeric {
			cs, err = describeNumeric(t, col)
		} else {
			cs = describeText(t, col)
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to summarize column",
				slog.String("column", col.Name),
				slog.String("error", err.Error()))
			return nil, apperrors.NewReportError("failed to summarize column", err).
				WithContext("column", col.Name)
		}
		summary.Columns = append(summary.Columns, cs)
	}

	s.logger.InfoContext(ctx, "Summarized data",
		slog.Int("rows", summary.Rows),
		slog.Int("columns", len(summary.Columns)))

	return summary, nil
}

func describeNumeric(t *domain.Table, col domain.Column) (domain.ColumnSummary, error) {
	cs := domain.ColumnSummary{Column: col.Name, Type: col.Type}

	values, err := NumericValues(t, col.Name)
	if err != nil {
		return cs, err
	}
	cs.Count = len(values)
	if cs.Count == 0 {
		return cs, nil
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return cs, fmt.Errorf("mean: %w", err)
	}
	minimum, err := stats.Min(values)
	if err != nil {
		return cs, fmt.Errorf("min: %w", err)
	}
	maximum, err := stats.Max(values)
	if err != nil {
		return cs, fmt.Errorf("max: %w", err)
	}
	cs.Mean = &mean
	cs.Min = &minimum
	cs.Max = &maximum

	if cs.Count > 1 {
		std, err := stats.StandardDeviationSample(values)
		if err != nil {
			return cs, fmt.Errorf("std: %w", err)
		}
		cs.Std = &std
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	q25 := Quantile(sorted, 0.25)
	q50 := Quantile(sorted, 0.50)
	q75 := Quantile(sorted, 0.75)
	cs.Q25, cs.Q50, cs.Q75 = &q25, &q50, &q75

	return cs, nil
}

func describeText(t *domain.Table, col domain.Column) domain.ColumnSummary {
	cs := domain.ColumnSummary{Column: col.Name, Type: col.Type}
	j := t.ColumnIndex(col.Name)

	counts := make(map[string]int)
	var order []string
	for _, row := range t.Rows {
		cell := row[j]
		if cell.IsMissing() {
			continue
		}
		cs.Count++
		s := cell.String()
		if _, ok := counts[s]; !ok {
			order = append(order, s)
		}
		counts[s]++
	}

	unique := len(order)
	cs.Unique = &unique
	if unique == 0 {
		return cs
	}

	top, freq := order[0], counts[order[0]]
	for _, s := range order[1:] {
		if counts[s] > freq {
			top, freq = s, counts[s]
		}
	}
	cs.Top = &top
	cs.Freq = &freq
	return cs
}

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between the two closest ranks. sorted must be ascending
// and non-empty.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Histogram buckets the non-missing values of a numeric column into bins
// equal-width bins over [min, max]. It returns nil when the column is
// absent, not numeric or has no values.
func (s *Summarizer) Histogram(ctx context.Context, t *domain.Table, column string, bins int) (*domain.Histogram, error) {
	if t == nil {
		return nil, apperrors.NewReportError("no table to chart", nil)
	}
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	j := t.ColumnIndex(column)
	if j < 0 || t.Columns[j].Type != domain.ColumnNumeric {
		s.logger.InfoContext(ctx, "Skipping histogram, column absent or not numeric",
			slog.String("column", column))
		return nil, nil
	}

	values, err := NumericValues(t, column)
	if err != nil {
		return nil, apperrors.NewReportError("failed to read column", err).WithContext("column", column)
	}
	if len(values) == 0 {
		s.logger.InfoContext(ctx, "Skipping histogram, column has no values",
			slog.String("column", column))
		return nil, nil
	}

	hist, err := BinValues(values, bins)
	if err != nil {
		return nil, apperrors.NewReportError("failed to bin values", err).WithContext("column", column)
	}
	hist.Column = column

	s.logger.InfoContext(ctx, "Computed histogram",
		slog.String("column", column),
		slog.Int("bins", len(hist.Bins)),
		slog.Int("values", hist.Total()))

	return hist, nil
}

// BinValues splits values into n equal-width bins. Every bin is half-open
// except the last one, which includes max. When all values are equal the
// range is widened by 0.5 on each side.
func BinValues(values []float64, n int) (*domain.Histogram, error) {
	if len(values) == 0 {
		return nil, ErrEmptyColumn
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("range [%v, %v] is not finite", lo, hi)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	edges := make([]float64, n+1)
	width := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi

	hist := &domain.Histogram{Bins: make([]domain.HistogramBin, n)}
	for i := 0; i < n; i++ {
		hist.Bins[i] = domain.HistogramBin{Min: edges[i], Max: edges[i+1]}
	}

	for _, v := range values {
		// first edge strictly greater than v, minus one
		i := sort.Search(len(edges), func(k int) bool { return edges[k] > v }) - 1
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		hist.Bins[i].Count++
	}

	return hist, nil
}
