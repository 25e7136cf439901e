package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "excelflow/internal/errors"
	"excelflow/pkg/contracts/domain"
)

const (
	// DefaultRuleColumn is the column the business rule applies to
	DefaultRuleColumn = "Amount"
	// DefaultRule keeps rows whose designated value is non-negative
	DefaultRule = "gte=0"
)

// Validator keeps the rows whose designated column satisfies a
// go-playground/validator tag
type Validator struct {
	column   string
	rule     string
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a validator for column with the given rule tag.
// The tag is checked once against a sample value so a malformed rule
// fails here instead of on the first row.
func NewValidator(column, rule string, logger *slog.Logger) (v *Validator, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if column == "" {
		column = DefaultRuleColumn
	}
	if rule == "" {
		rule = DefaultRule
	}

	v = &Validator{
		column:   column,
		rule:     rule,
		validate: validator.New(),
		logger:   logger,
	}

	if _, err := v.check(0); err != nil {
		return nil, apperrors.NewValidationError("invalid validation rule", err).
			WithContext("rule", rule)
	}
	return v, nil
}

// Column returns the designated column name
func (v *Validator) Column() string { return v.column }

// Rule returns the validation tag
func (v *Validator) Rule() string { return v.rule }

// Validate returns the rows of t that pass the rule, in order. A table
// without the designated column is returned unchanged. Missing values
// fail the rule, numeric-looking text is checked as a number and other
// text passes.
func (v *Validator) Validate(ctx context.Context, t *domain.Table) (out *domain.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.ErrorContext(ctx, "Validation failed",
				slog.String("panic", fmt.Sprint(r)))
			out = nil
			err = apperrors.NewValidationError("unexpected failure while validating", fmt.Errorf("%v", r))
		}
	}()

	if t == nil {
		return nil, apperrors.NewValidationError("no table to validate", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewValidationError("validation cancelled", err)
	}

	j := t.ColumnIndex(v.column)
	if j < 0 {
		v.logger.DebugContext(ctx, "Designated column absent, skipping validation",
			slog.String("column", v.column))
		return t.Clone(), nil
	}

	out = domain.NewTable(t.Columns)
	for _, row := range t.Rows {
		ok, err := v.Passes(row[j])
		if err != nil {
			return nil, apperrors.NewValidationError("failed to apply validation rule", err).
				WithContext("column", v.column)
		}
		if ok {
			out.Rows = append(out.Rows, row.Clone())
		}
	}

	v.logger.InfoContext(ctx, "Validated data",
		slog.String("column", v.column),
		slog.String("rule", v.rule),
		slog.Int("rows", out.Len()),
		slog.Int("rows_removed", t.Len()-out.Len()))

	return out, nil
}

// Passes reports whether a single cell satisfies the rule
func (v *Validator) Passes(cell domain.Value) (bool, error) {
	switch cell.Kind {
	case domain.KindMissing:
		return false, nil
	case domain.KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(cell.Text), 64)
		if err != nil {
			// non-numeric text sorts above every number
			return true, nil
		}
		return v.check(f)
	}
	f, _ := cell.Number()
	return v.check(f)
}

// check evaluates the tag on f. Validation errors mean "fails the rule";
// any other error or panic means the tag itself is unusable.
func (v *Validator) check(f float64) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("rule %q: %v", v.rule, r)
		}
	}()

	if err := v.validate.Var(f, v.rule); err != nil {
		if _, isValidation := err.(validator.ValidationErrors); isValidation {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
