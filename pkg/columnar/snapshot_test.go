package columnar

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seasr/vtable/pkg/compression"
	vterrors "github.com/seasr/vtable/pkg/errors"
	"github.com/seasr/vtable/pkg/json"
	"github.com/seasr/vtable/pkg/testutil"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	for _, algo := range compression.Algorithms {
		t.Run(string(algo), func(t *testing.T) {
			table, err := LoadCSV(strings.NewReader(fruitCSV), CSVOptions{Defaults: Defaults{Long: 2}})
			require.NoError(t, err)
			price, _ := table.Column("price")
			price.SetComment("unit price")

			var buf bytes.Buffer
			n, err := SaveSnapshot(&buf, table, &compression.Config{Algorithm: algo, Level: compression.Default})
			require.NoError(t, err)
			assert.Equal(t, int64(buf.Len()), n)

			restored, err := LoadSnapshot(&buf)
			require.NoError(t, err)
			assert.True(t, table.Equal(restored))
			assert.Equal(t, table.Schema(), restored.Schema())

			count, _ := restored.Column("count")
			assert.Equal(t, int64(2), count.Get(0), "restored default")
			assert.False(t, count.DoesValueExist(0))
		})
	}
}

func TestSnapshot_BodyFraming(t *testing.T) {
	large := NewTable()
	rows := make([]map[string]any, 4000)
	for i := range rows {
		rows[i] = map[string]any{"sku": fmt.Sprintf("item-%06d-%s", i, strings.Repeat("x", 16))}
	}
	require.NoError(t, large.AppendBatch(rows))
	small := newPriceTable(t)

	framing := len(snapshotMagic) + 1
	for _, algo := range compression.Algorithms {
		t.Run(string(algo), func(t *testing.T) {
			cfg := &compression.Config{Algorithm: algo, Level: compression.Fastest}
			for _, tc := range []struct {
				table *Table
				want  byte
			}{
				{small, bodyBlock},
				{large, bodyStream},
			} {
				var buf bytes.Buffer
				_, err := SaveSnapshot(&buf, tc.table, cfg)
				require.NoError(t, err)
				assert.Equal(t, tc.want, buf.Bytes()[framing])

				restored, err := LoadSnapshot(&buf)
				require.NoError(t, err)
				assert.True(t, tc.table.Equal(restored))
			}
		})
	}
}

func TestSnapshot_PreservesLongPrecision(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AppendRow(map[string]any{"big": int64(1)<<62 + 1, "c": 'z'}))

	var buf bytes.Buffer
	_, err := SaveSnapshot(&buf, table, nil)
	require.NoError(t, err)

	restored, err := LoadSnapshot(&buf)
	require.NoError(t, err)
	row, err := restored.GetRow(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<62+1, row["big"])
}

func TestSnapshot_TrailingDefaultRows(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddColumn("n", ColumnTypeLong))
	table.SetRowCount(10)

	var buf bytes.Buffer
	_, err := SaveSnapshot(&buf, table, &compression.Config{Algorithm: compression.S2})
	require.NoError(t, err)

	restored, err := LoadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, 10, restored.RowCount())
}

func TestLoadSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"bad magic", []byte("NOPE\x01\x01\x04zstd")},
		{"bad version", []byte("VTBL\x09\x01\x04zstd")},
		{"unknown framing", []byte("VTBL\x01\x07\x04zstd")},
		{"unknown algorithm", []byte("VTBL\x01\x01\x03xyz")},
		{"corrupt block", []byte("VTBL\x01\x01\x04zstdgarbage")},
		{"corrupt stream", []byte("VTBL\x01\x00\x04zstdgarbage")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSnapshot(bytes.NewReader(tt.input))
			require.Error(t, err)
			var vErr *vterrors.Error
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestTable_WriteJSON(t *testing.T) {
	table := newPriceTable(t)
	require.NoError(t, table.AddColumn("grade", ColumnTypeChar))
	grade, _ := table.Column("grade")
	require.NoError(t, grade.Set(0, "A"))

	var buf bytes.Buffer
	require.NoError(t, table.WriteJSON(&buf, false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"name":"pear","price":3,"grade":"A"}`, lines[0])
	assert.JSONEq(t, `{"name":"fig","price":null,"grade":""}`, lines[2])

	buf.Reset()
	require.NoError(t, table.WriteJSON(&buf, true))
	assert.True(t, strings.HasPrefix(buf.String(), "["))
	assert.True(t, strings.HasSuffix(buf.String(), "]\n"))
}

func TestTable_WriteJSONIndented(t *testing.T) {
	testutil.TestLogger(t)
	table := newPriceTable(t)

	var buf bytes.Buffer
	require.NoError(t, table.WriteJSON(&buf, true, WithIndent("  ")))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[{\n  \"name\": \"pear\""), out)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, "fig", rows[2]["name"])
	assert.Nil(t, rows[2]["price"])

	buf.Reset()
	require.NoError(t, table.WriteJSON(&buf, false, WithIndent("")))
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 4)
}

const nonFiniteCSV = "x,f\n3,1.5\nNaN,nan\n-Inf,2\n+Inf,-inf\n"

func TestSnapshot_NonFiniteFloats(t *testing.T) {
	table, err := LoadCSV(strings.NewReader(nonFiniteCSV), CSVOptions{
		Types: map[string]ColumnType{"f": ColumnTypeFloat},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = SaveSnapshot(&buf, table, nil)
	require.NoError(t, err)

	restored, err := LoadSnapshot(&buf)
	require.NoError(t, err)
	assert.True(t, table.Equal(restored))

	x, _ := restored.Column("x")
	assert.Equal(t, 3.0, x.Get(0))
	assert.True(t, math.IsNaN(x.Get(1).(float64)))
	assert.True(t, math.IsInf(x.Get(2).(float64), -1))
	assert.True(t, math.IsInf(x.Get(3).(float64), 1))

	f, _ := restored.Column("f")
	assert.True(t, math.IsNaN(float64(f.Get(1).(float32))))
	assert.True(t, math.IsInf(float64(f.Get(3).(float32)), -1))
}

func TestTable_WriteJSONNonFiniteFloats(t *testing.T) {
	table, err := LoadCSV(strings.NewReader(nonFiniteCSV), CSVOptions{
		Types: map[string]ColumnType{"f": ColumnTypeFloat},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.WriteJSON(&buf, false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"x":3,"f":1.5}`, lines[0])
	assert.JSONEq(t, `{"x":"NaN","f":"NaN"}`, lines[1])
	assert.JSONEq(t, `{"x":"-Inf","f":2}`, lines[2])
	assert.JSONEq(t, `{"x":"+Inf","f":"-Inf"}`, lines[3])
}
