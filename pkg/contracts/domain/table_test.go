package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	t := NewTable([]Column{
		{Name: "Name", Type: ColumnText},
		{Name: "Amount", Type: ColumnNumeric},
	})
	t.Rows = append(t.Rows,
		Row{TextValue("Alice"), IntValue(100)},
		Row{Missing(), FloatValue(2.5)},
	)
	return t
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int equals float", IntValue(3), FloatValue(3), true},
		{"missing equals missing", Missing(), Missing(), true},
		{"missing differs from empty text", Missing(), TextValue(""), false},
		{"text compares by content", TextValue("a"), TextValue("a"), true},
		{"number differs from text", IntValue(1), TextValue("1"), false},
		{"negative zero equals zero", FloatValue(math.Copysign(0, -1)), FloatValue(0), true},
		{"large ints compare exactly", IntValue(1 << 53), IntValue(1<<53 + 1), false},
		{"large int differs from nearest float", IntValue(1<<53 + 1), FloatValue(1 << 53), false},
		{"fraction differs from int", FloatValue(2.5), IntValue(2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestFloatValueNaNIsMissing(t *testing.T) {
	assert.True(t, FloatValue(math.NaN()).IsMissing())
	assert.False(t, FloatValue(math.Inf(1)).IsMissing())
}

func TestValueNumberAndString(t *testing.T) {
	n, ok := IntValue(7).Number()
	assert.True(t, ok)
	assert.Equal(t, 7.0, n)

	_, ok = TextValue("7").Number()
	assert.False(t, ok)

	assert.Equal(t, "2.5", FloatValue(2.5).String())
	assert.Equal(t, "", Missing().String())
	assert.Equal(t, "float", KindFloat.String())
}

func TestRowKey(t *testing.T) {
	a := Row{TextValue("x"), IntValue(1), Missing()}
	b := Row{TextValue("x"), FloatValue(1), Missing()}
	c := Row{TextValue("x"), IntValue(1), TextValue("")}

	assert.Equal(t, a.Key(), b.Key(), "int and float of equal value share a key")
	assert.NotEqual(t, a.Key(), c.Key(), "missing and empty text differ")

	negZero := Row{FloatValue(math.Copysign(0, -1))}
	assert.Equal(t, Row{FloatValue(0)}.Key(), negZero.Key())
	assert.Equal(t, Row{IntValue(0)}.Key(), negZero.Key())

	assert.NotEqual(t, Row{IntValue(1 << 53)}.Key(), Row{IntValue(1<<53 + 1)}.Key())
	assert.NotEqual(t, Row{IntValue(1<<53 + 1)}.Key(), Row{FloatValue(1 << 53)}.Key())

	// separators inside text must not collide with cell boundaries
	d := Row{TextValue("a\x1fb")}
	e := Row{TextValue("a"), TextValue("b")}
	assert.NotEqual(t, d.Key(), e.Key())
}

func TestTableAccessors(t *testing.T) {
	tbl := sampleTable()

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"Name", "Amount"}, tbl.ColumnNames())
	assert.Equal(t, 1, tbl.ColumnIndex("Amount"))
	assert.Equal(t, -1, tbl.ColumnIndex("City"))
	assert.False(t, tbl.HasColumn("City"))
	assert.Equal(t, 1, tbl.MissingCount("Name"))
	assert.Equal(t, 0, tbl.MissingCount("City"))

	v, ok := tbl.Get(0, "Name")
	require.True(t, ok)
	assert.Equal(t, "Alice", v.Text)

	_, ok = tbl.Get(5, "Name")
	assert.False(t, ok)

	var nilTable *Table
	assert.Equal(t, 0, nilTable.Len())
}

func TestTableAppend(t *testing.T) {
	tbl := sampleTable()
	assert.NoError(t, tbl.Append(Row{TextValue("Bob"), IntValue(1)}))
	assert.Error(t, tbl.Append(Row{TextValue("short")}))
	assert.Equal(t, 3, tbl.Len())
}

func TestTableCloneIsDeep(t *testing.T) {
	tbl := sampleTable()
	clone := tbl.Clone()
	require.True(t, tbl.Equal(clone))

	clone.Rows[0][0] = TextValue("Changed")
	clone.Columns[0].Name = "Renamed"

	assert.Equal(t, "Alice", tbl.Rows[0][0].Text)
	assert.Equal(t, "Name", tbl.Columns[0].Name)
	assert.False(t, tbl.Equal(clone))
}

func TestTableRecords(t *testing.T) {
	tbl := sampleTable()

	all := tbl.Records(0)
	require.Len(t, all, 2)
	assert.Equal(t, "Alice", all[0]["Name"])
	assert.Equal(t, int64(100), all[0]["Amount"])
	assert.Nil(t, all[1]["Name"])

	assert.Len(t, tbl.Records(1), 1)
}

func TestHistogramTotal(t *testing.T) {
	h := &Histogram{Column: "Amount", Bins: []HistogramBin{{Count: 2}, {Count: 0}, {Count: 3}}}
	assert.Equal(t, 5, h.Total())
}
