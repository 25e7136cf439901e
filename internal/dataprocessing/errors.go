package dataprocessing

import "errors"

var (
	// ErrEmptyColumn is returned when a statistic needs at least one value
	ErrEmptyColumn = errors.New("column has no values")
	// ErrNotNumeric is returned when a numeric statistic is asked of a text column
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrColumnNotFound is returned when the named column does not exist
	ErrColumnNotFound = errors.New("column not found")
)
