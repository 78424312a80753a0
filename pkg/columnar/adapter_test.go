package columnar

import (
	"math"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vterrors "github.com/seasr/vtable/pkg/errors"
)

const fruitCSV = `name,price,count,fresh
pear,3.5,2,yes
apple,1.25,0,no
fig,?,,y
plum,,7,?
`

func TestLoadCSV_InfersTypes(t *testing.T) {
	table, err := LoadCSV(strings.NewReader(fruitCSV), CSVOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, table.RowCount())
	schema := table.Schema()
	require.Len(t, schema.Fields, 4)
	assert.Equal(t, ColumnTypeString, schema.Fields[0].Type)
	assert.Equal(t, ColumnTypeDouble, schema.Fields[1].Type)
	assert.Equal(t, ColumnTypeLong, schema.Fields[2].Type)
	assert.Equal(t, ColumnTypeBool, schema.Fields[3].Type)
}

func TestLoadCSV_Flags(t *testing.T) {
	table, err := LoadCSV(strings.NewReader(fruitCSV), CSVOptions{})
	require.NoError(t, err)

	price, _ := table.Column("price")
	assert.Equal(t, 3.5, price.Get(0))
	assert.True(t, price.IsValueMissing(2))
	assert.True(t, price.IsValueEmpty(3))

	count, _ := table.Column("count")
	assert.True(t, count.IsValueEmpty(2))
	assert.Equal(t, int64(7), count.Get(3))

	fresh, _ := table.Column("fresh")
	assert.Equal(t, true, fresh.Get(0))
	assert.Equal(t, true, fresh.Get(2))
	assert.True(t, fresh.IsValueMissing(3))
}

func TestLoadCSV_DefaultCellsAreNotStored(t *testing.T) {
	table, err := LoadCSV(strings.NewReader(fruitCSV), CSVOptions{})
	require.NoError(t, err)

	count, _ := table.Column("count")
	assert.False(t, count.DoesValueExist(1))
	assert.True(t, count.IsValueDefault(1))
	assert.Equal(t, int64(0), count.Get(1))

	fresh, _ := table.Column("fresh")
	assert.False(t, fresh.DoesValueExist(1), "false is the bool default")
	assert.Equal(t, 2, count.NumEntries())
}

func TestLoadCSV_Options(t *testing.T) {
	input := "id;code\n1;NA\n2;b\n"
	table, err := LoadCSV(strings.NewReader(input), CSVOptions{
		Delimiter:    ';',
		MissingToken: "NA",
		Types:        map[string]ColumnType{"id": ColumnTypeString},
		Defaults:     Defaults{String: "b"},
	})
	require.NoError(t, err)

	id, _ := table.Column("id")
	assert.Equal(t, ColumnTypeString, id.Type())
	assert.Equal(t, "1", id.Get(0))

	code, _ := table.Column("code")
	assert.True(t, code.IsValueMissing(0))
	assert.False(t, code.DoesValueExist(1))
	assert.Equal(t, "b", code.Get(1))
}

func TestLoadCSV_ShortRecordsAreMissing(t *testing.T) {
	table, err := LoadCSV(strings.NewReader("a,b\n1,2\n3\n"), CSVOptions{})
	require.NoError(t, err)

	b, _ := table.Column("b")
	assert.True(t, b.IsValueMissing(1))
}

func TestLoadCSV_Errors(t *testing.T) {
	_, err := LoadCSV(strings.NewReader(""), CSVOptions{})
	require.Error(t, err)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeData))

	_, err = LoadCSV(strings.NewReader("n\nx\n"), CSVOptions{Types: map[string]ColumnType{"n": ColumnTypeLong}})
	require.Error(t, err)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeData))
}

func TestLoadCSV_SortKeepsMissingLast(t *testing.T) {
	table, err := LoadCSV(strings.NewReader(fruitCSV), CSVOptions{})
	require.NoError(t, err)
	require.NoError(t, table.SortBy("price"))

	assert.Equal(t, []any{"apple", "pear", "fig", "plum"}, column(t, table, "name"))
}

func TestLoadCSV_InternsRepeatedStrings(t *testing.T) {
	table, err := LoadCSV(strings.NewReader("color\nred\nblue\nred\n"), CSVOptions{})
	require.NoError(t, err)

	col, ok := table.Column("color")
	require.True(t, ok)
	first, third := col.Get(0).(string), col.Get(2).(string)
	assert.Equal(t, "red", third)
	assert.Equal(t, unsafe.StringData(first), unsafe.StringData(third))
}

func TestLoadCSV_NaNSortsLast(t *testing.T) {
	table, err := LoadCSV(strings.NewReader("x,id\n3,a\nNaN,b\n1,c\n2,d\n"), CSVOptions{})
	require.NoError(t, err)

	col, _ := table.Column("x")
	sorted := col.Reorder(col.SortedOrder())
	assert.Equal(t, []any{1.0, 2.0, 3.0}, []any{sorted.Get(0), sorted.Get(1), sorted.Get(2)})
	assert.True(t, math.IsNaN(sorted.Get(3).(float64)))

	require.NoError(t, table.SortBy("x"))
	assert.Equal(t, []any{"c", "d", "a", "b"}, column(t, table, "id"))
}
