package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/montanaflynn/stats"

	apperrors "excelflow/internal/errors"
	"excelflow/pkg/contracts/domain"
)

// DefaultUnknownText replaces missing cells of text columns
const DefaultUnknownText = "Unknown"

// Cleaner removes duplicate rows and fills missing cells
type Cleaner struct {
	logger      *slog.Logger
	unknownText string
}

// NewCleaner creates a cleaner. An empty unknownText uses DefaultUnknownText.
func NewCleaner(logger *slog.Logger, unknownText string) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	if unknownText == "" {
		unknownText = DefaultUnknownText
	}
	return &Cleaner{logger: logger, unknownText: unknownText}
}

// Clean returns a new table with exact duplicate rows removed (first
// occurrence kept), missing numeric cells set to the column mean and
// missing text cells set to the unknown sentinel. The input is not modified.
func (c *Cleaner) Clean(ctx context.Context, t *domain.Table) (out *domain.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "Cleaning failed",
				slog.String("panic", fmt.Sprint(r)))
			out = nil
			err = apperrors.NewCleaningError("unexpected failure while cleaning", fmt.Errorf("%v", r))
		}
	}()

	if t == nil {
		return nil, apperrors.NewCleaningError("no table to clean", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewCleaningError("cleaning cancelled", err)
	}

	deduped, removed := Deduplicate(t)
	filled := 0

	for j, col := range deduped.Columns {
		switch col.Type {
		case domain.ColumnNumeric:
			mean, err := ColumnMean(deduped, col.Name)
			if err != nil {
				c.logger.WarnContext(ctx, "Column has no values, leaving missing cells",
					slog.String("column", col.Name))
				continue
			}
			filled += fillColumn(deduped, j, domain.FloatValue(mean))
		case domain.ColumnText:
			filled += fillColumn(deduped, j, domain.TextValue(c.unknownText))
		}
	}

	c.logger.InfoContext(ctx, "Cleaned data",
		slog.Int("rows", deduped.Len()),
		slog.Int("duplicates_removed", removed),
		slog.Int("cells_filled", filled))

	return deduped, nil
}

// Deduplicate returns a copy of t without rows that repeat an earlier row
// cell for cell, and the number of rows removed
func Deduplicate(t *domain.Table) (*domain.Table, int) {
	out := domain.NewTable(t.Columns)
	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		key := row.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row.Clone())
	}
	return out, len(t.Rows) - len(out.Rows)
}

// ColumnMean returns the mean of the non-missing values of a numeric column
func ColumnMean(t *domain.Table, name string) (float64, error) {
	values, err := NumericValues(t, name)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, ErrEmptyColumn
	}
	return stats.Mean(values)
}

// NumericValues returns the non-missing values of a numeric column in row order
func NumericValues(t *domain.Table, name string) (stats.Float64Data, error) {
	j := t.ColumnIndex(name)
	if j < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	if t.Columns[j].Type != domain.ColumnNumeric {
		return nil, fmt.Errorf("%w: %s", ErrNotNumeric, name)
	}

	values := make(stats.Float64Data, 0, len(t.Rows))
	for _, row := range t.Rows {
		if f, ok := row[j].Number(); ok {
			values = append(values, f)
		}
	}
	return values, nil
}

// fillColumn sets every missing cell of column j to v and returns how many were set
func fillColumn(t *domain.Table, j int, v domain.Value) int {
	n := 0
	for _, row := range t.Rows {
		if row[j].IsMissing() {
			row[j] = v
			n++
		}
	}
	return n
}
