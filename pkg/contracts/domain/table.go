package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which payload a Value carries
type Kind int

const (
	KindMissing Kind = iota
	KindInt
	KindFloat
	KindText
)

// String returns the kind name used in logs and JSON previews
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Value is a single cell of a Table. The zero Value is the missing marker.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
}

// Missing returns the missing marker
func Missing() Value { return Value{} }

// IntValue wraps an integer cell
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

// FloatValue wraps a floating-point cell. NaN is stored as missing.
func FloatValue(v float64) Value {
	if math.IsNaN(v) {
		return Missing()
	}
	return Value{Kind: KindFloat, Float: v}
}

// TextValue wraps a text cell
func TextValue(v string) Value { return Value{Kind: KindText, Text: v} }

// IsMissing reports whether the cell holds no value
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// IsNumeric reports whether the cell holds an integer or a float
func (v Value) IsNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// Number returns the numeric payload as float64
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// Equal compares two cells by value. Two missing markers are equal and
// integers compare exactly with integral floats.
func (v Value) Equal(o Value) bool {
	switch {
	case v.Kind == KindInt && o.Kind == KindInt:
		return v.Int == o.Int
	case v.Kind == KindFloat && o.Kind == KindFloat:
		return v.Float == o.Float
	case v.Kind == KindInt && o.Kind == KindFloat:
		i, ok := integral(o.Float)
		return ok && i == v.Int
	case v.Kind == KindFloat && o.Kind == KindInt:
		i, ok := integral(v.Float)
		return ok && i == o.Int
	}
	if v.Kind != o.Kind {
		return false
	}
	return v.Kind == KindMissing || v.Text == o.Text
}

// integral converts f to int64 when it is a whole number in range
func integral(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

// Interface returns the cell as a plain Go value (nil for missing)
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindText:
		return v.Text
	default:
		return nil
	}
}

// String renders the cell the way it is shown in previews
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// key is a collision-free encoding used for row hashing. Cells that are
// Equal share a key; -0 and 0 both encode as the integer 0.
func (v Value) key() string {
	switch v.Kind {
	case KindInt:
		return "i:" + strconv.FormatInt(v.Int, 10)
	case KindFloat:
		if i, ok := integral(v.Float); ok {
			return "i:" + strconv.FormatInt(i, 10)
		}
		return "f:" + strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindText:
		return "t:" + strconv.Quote(v.Text)
	default:
		return "m:"
	}
}

// ColumnType is the inferred type of a column
type ColumnType string

const (
	ColumnNumeric ColumnType = "numeric"
	ColumnText    ColumnType = "text"
)

// Column describes one column of a Table
type Column struct {
	Name string     `json:"name" validate:"required"`
	Type ColumnType `json:"type" validate:"required,oneof=numeric text"`
}

// Row is one record; cell i belongs to column i of the owning Table
type Row []Value

// Key returns a string that is equal for two rows iff the rows are equal cell by cell
func (r Row) Key() string {
	buf := make([]byte, 0, len(r)*8)
	for i, v := range r {
		if i > 0 {
			buf = append(buf, 0x1f)
		}
		buf = append(buf, v.key()...)
	}
	return string(buf)
}

// Table is an ordered set of rows sharing one ordered column set
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable creates an empty table with the given columns
func NewTable(columns []Column) *Table {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: make([]Row, 0)}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Get returns the cell of row i in the named column
func (t *Table) Get(i int, name string) (Value, bool) {
	j := t.ColumnIndex(name)
	if j < 0 || i < 0 || i >= len(t.Rows) {
		return Value{}, false
	}
	return t.Rows[i][j], true
}

// Append adds a row. The row must have one cell per column.
func (t *Table) Append(row Row) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Clone returns a copy of the row
func (r Row) Clone() Row {
	c := make(Row, len(r))
	copy(c, r)
	return c
}

// Equal reports whether both tables have the same columns and cells
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		for j := range t.Rows[i] {
			if !t.Rows[i][j].Equal(o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// MissingCount returns the number of missing cells in the named column
func (t *Table) MissingCount(name string) int {
	j := t.ColumnIndex(name)
	if j < 0 {
		return 0
	}
	n := 0
	for _, r := range t.Rows {
		if r[j].IsMissing() {
			n++
		}
	}
	return n
}

// Records returns the table as plain Go values keyed by column name,
// limited to the first limit rows (limit <= 0 means all rows)
func (t *Table) Records(limit int) []map[string]interface{} {
	n := len(t.Rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		rec := make(map[string]interface{}, len(t.Columns))
		for j, c := range t.Columns {
			rec[c.Name] = t.Rows[i][j].Interface()
		}
		out[i] = rec
	}
	return out
}
