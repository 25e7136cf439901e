package domain

// ColumnSummary holds descriptive statistics for one column.
// Pointer fields are nil when the statistic is undefined for the column.
type ColumnSummary struct {
	Column string     `json:"column"`
	Type   ColumnType `json:"type"`
	Count  int        `json:"count"`

	// Text columns
	Unique *int    `json:"unique,omitempty"`
	Top    *string `json:"top,omitempty"`
	Freq   *int    `json:"freq,omitempty"`

	// Numeric columns
	Mean *float64 `json:"mean,omitempty"`
	Std  *float64 `json:"std,omitempty"`
	Min  *float64 `json:"min,omitempty"`
	Q25  *float64 `json:"25%,omitempty"`
	Q50  *float64 `json:"50%,omitempty"`
	Q75  *float64 `json:"75%,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// Summary is the descriptive statistics report of a Table
type Summary struct {
	Rows    int             `json:"rows"`
	Columns []ColumnSummary `json:"columns"`
}

// HistogramBin is one equal-width bucket; Min is inclusive, Max is
// exclusive except for the last bin
type HistogramBin struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Histogram is the bucketed distribution of a numeric column
type Histogram struct {
	Column string         `json:"column"`
	Bins   []HistogramBin `json:"bins"`
}

// Total returns the number of values counted across all bins
func (h *Histogram) Total() int {
	n := 0
	for _, b := range h.Bins {
		n += b.Count
	}
	return n
}
