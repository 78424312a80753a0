package columnar

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	vterrors "github.com/seasr/vtable/pkg/errors"
	"github.com/seasr/vtable/pkg/primitivehash"
	"github.com/seasr/vtable/pkg/testutil"
)

func newPriceTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable(WithSchema(&Schema{Fields: []FieldSchema{
		{Name: "name", Type: ColumnTypeString},
		{Name: "price", Type: ColumnTypeDouble, Comment: "unit price"},
	}}))
	require.NoError(t, table.AppendBatch([]map[string]any{
		{"name": "pear", "price": 3.0},
		{"name": "apple", "price": 1.0},
		{"name": "fig"},
		{"name": "plum", "price": 2.0},
	}))
	return table
}

func column(t *testing.T, table *Table, name string) []any {
	t.Helper()
	col, ok := table.Column(name)
	require.True(t, ok)
	out := make([]any, table.RowCount())
	for i := range out {
		out[i] = cellValue(col, i)
	}
	return out
}

func TestTable_AppendRow(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AppendRow(map[string]any{"id": 1, "ok": true}))
	require.NoError(t, table.AppendRow(map[string]any{"id": 2, "label": "b"}))

	assert.Equal(t, 2, table.RowCount())
	assert.Equal(t, []string{"id", "ok", "label"}, table.ColumnNames())

	row, err := table.GetRow(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), row["id"])
	assert.Equal(t, true, row["ok"])
	assert.Nil(t, row["label"], "column added later is missing for earlier rows")

	row, err = table.GetRow(1)
	require.NoError(t, err)
	assert.Nil(t, row["ok"])
	assert.Equal(t, "b", row["label"])
}

func TestTable_AppendRowRollsBackOnError(t *testing.T) {
	table := newPriceTable(t)
	err := table.AppendRow(map[string]any{"name": "kiwi", "price": "cheap"})
	require.Error(t, err)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeData))
	assert.Equal(t, 4, table.RowCount())

	col, _ := table.Column("name")
	assert.False(t, col.DoesValueExist(4))
}

func TestTable_AppendRowDropsNewColumnsOnError(t *testing.T) {
	table := newPriceTable(t)
	require.NoError(t, table.AddColumn("stock", ColumnTypeInt))

	err := table.AppendRow(map[string]any{"aisle": int64(1), "stock": "abc"})
	require.Error(t, err)
	assert.Equal(t, 3, table.ColumnCount())
	assert.Equal(t, []string{"name", "price", "stock"}, table.ColumnNames())
	_, ok := table.Column("aisle")
	assert.False(t, ok)
	assert.Equal(t, 4, table.RowCount())

	require.NoError(t, table.AppendRow(map[string]any{"aisle": int64(7)}))
	aisle, ok := table.Column("aisle")
	require.True(t, ok)
	assert.Equal(t, int64(7), aisle.Get(4))
}

func TestTable_AppendBatchKeepsRowsBeforeFailure(t *testing.T) {
	table := newPriceTable(t)
	err := table.AppendBatch([]map[string]any{
		{"name": "lime", "price": 0.5},
		{"name": "kiwi", "price": "cheap", "origin": "nz"},
	})
	require.Error(t, err)
	assert.Equal(t, 5, table.RowCount())
	assert.Equal(t, 2, table.ColumnCount())
}

func TestTable_GetRowOutOfRange(t *testing.T) {
	table := newPriceTable(t)
	_, err := table.GetRow(4)
	require.Error(t, err)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeNotFound))
}

func TestTable_AddColumnConflict(t *testing.T) {
	table := newPriceTable(t)
	err := table.AddColumn("price", ColumnTypeLong)
	require.Error(t, err)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeConflict))
}

func TestTable_SortBy(t *testing.T) {
	table := newPriceTable(t)
	require.NoError(t, table.SortBy("price"))

	assert.Equal(t, []any{1.0, 2.0, 3.0, nil}, column(t, table, "price"))
	assert.Equal(t, []any{"apple", "plum", "pear", "fig"}, column(t, table, "name"))
}

func TestTable_SortByString(t *testing.T) {
	table := newPriceTable(t)
	require.NoError(t, table.SortBy("name"))
	assert.Equal(t, []any{"apple", "fig", "pear", "plum"}, column(t, table, "name"))
	assert.Equal(t, []any{1.0, nil, 3.0, 2.0}, column(t, table, "price"))
}

func TestTable_SortRangeBy(t *testing.T) {
	table := newPriceTable(t)
	require.NoError(t, table.SortRangeBy("price", 0, 1))
	assert.Equal(t, []any{"apple", "pear", "fig", "plum"}, column(t, table, "name"))
}

func TestTable_SortRangeClampsEnd(t *testing.T) {
	logs := testutil.ObserveLogs(t, zapcore.DebugLevel)
	table := newPriceTable(t)

	require.NoError(t, table.SortRangeBy("price", 1, 99))
	assert.Equal(t, []any{"pear", "apple", "plum", "fig"}, column(t, table, "name"))

	clamped := logs.FilterMessage("sort range exceeds table, clamping").All()
	require.Len(t, clamped, 1)
	assert.Equal(t, zapcore.ErrorLevel, clamped[0].Level)
	assert.Equal(t, int64(99), clamped[0].ContextMap()["end"])
}

func TestTable_SortUnknownColumn(t *testing.T) {
	table := newPriceTable(t)
	err := table.SortBy("weight")
	require.Error(t, err)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeNotFound))
}

func TestTable_InsertRow(t *testing.T) {
	table := newPriceTable(t)
	require.NoError(t, table.InsertRow(1, map[string]any{"name": "lime", "price": 0.5}))

	assert.Equal(t, 5, table.RowCount())
	assert.Equal(t, []any{"pear", "lime", "apple", "fig", "plum"}, column(t, table, "name"))
	assert.Equal(t, []any{3.0, 0.5, 1.0, nil, 2.0}, column(t, table, "price"))

	err := table.InsertRow(9, map[string]any{"name": "x"})
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeValidation))

	err = table.InsertRow(0, map[string]any{"color": "red"})
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeNotFound))
}

func TestTable_InsertRowMarksAbsentColumnsMissing(t *testing.T) {
	table := newPriceTable(t)
	require.NoError(t, table.InsertRow(0, map[string]any{"name": "lime"}))

	col, _ := table.Column("price")
	assert.True(t, col.IsValueMissing(0))
	assert.Equal(t, 3.0, col.Get(1))
}

func TestTable_RemoveRows(t *testing.T) {
	table := newPriceTable(t)
	require.NoError(t, table.RemoveRows(1, 2))
	assert.Equal(t, []any{"pear", "plum"}, column(t, table, "name"))

	err := table.RemoveRows(1, 5)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeValidation))
}

func TestTable_RemoveRowsByIndex(t *testing.T) {
	table := newPriceTable(t)
	table.RemoveRowsByIndex([]int{3, 0, 0, 42, -1})

	assert.Equal(t, 2, table.RowCount())
	assert.Equal(t, []any{"apple", "fig"}, column(t, table, "name"))
	assert.Equal(t, []any{1.0, nil}, column(t, table, "price"))
}

func TestTable_ReorderIdentity(t *testing.T) {
	table := newPriceTable(t)
	identity := primitivehash.NewIntIntMap(4)
	for i := 0; i < 4; i++ {
		identity.Put(i, i)
	}
	assert.True(t, table.Equal(table.Reorder(identity)))
}

func TestTable_SubsetAndCopy(t *testing.T) {
	table := newPriceTable(t)

	sub, err := table.Subset(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.RowCount())
	assert.Equal(t, []any{"apple", "fig"}, column(t, sub, "name"))

	_, err = table.Subset(3, 2)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeValidation))

	cp := table.Copy()
	assert.True(t, table.Equal(cp))
	require.NoError(t, cp.SortBy("name"))
	assert.False(t, table.Equal(cp))
	assert.Equal(t, "pear", column(t, table, "name")[0])
}

func TestTable_Schema(t *testing.T) {
	table := newPriceTable(t)
	schema := table.Schema()
	require.Len(t, schema.Fields, 2)
	assert.Equal(t, FieldSchema{Name: "price", Type: ColumnTypeDouble, Comment: "unit price"}, schema.Fields[1])
}

func TestTable_MemoryAndClear(t *testing.T) {
	table := newPriceTable(t)
	assert.Positive(t, table.MemoryUsage())
	assert.Positive(t, table.MemoryPerRecord())

	table.Clear()
	assert.Equal(t, 0, table.RowCount())
	assert.Equal(t, 2, table.ColumnCount())
	assert.Zero(t, table.MemoryPerRecord())
}

func TestTable_Iterators(t *testing.T) {
	table := newPriceTable(t)

	var names []any
	it := table.NewIterator()
	for it.Next() {
		names = append(names, it.Row()["name"])
	}
	assert.Equal(t, []any{"pear", "apple", "fig", "plum"}, names)

	bit := table.NewBatchIterator(3)
	batch, ok := bit.NextBatch()
	require.True(t, ok)
	assert.Len(t, batch, 3)
	batch, ok = bit.NextBatch()
	require.True(t, ok)
	assert.Len(t, batch, 1)
	_, ok = bit.NextBatch()
	assert.False(t, ok)
}

func TestTable_ConcurrentReads(t *testing.T) {
	table := newPriceTable(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, err := table.GetRow(j % 4)
				assert.NoError(t, err)
				_ = table.Schema()
			}
		}()
	}
	wg.Wait()
}
