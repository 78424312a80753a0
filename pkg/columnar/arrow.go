package columnar

import (
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	vterrors "github.com/seasr/vtable/pkg/errors"
)

const (
	metaColumnType = "vtable.type"
	metaComment    = "vtable.comment"
)

func arrowType(t ColumnType) arrow.DataType {
	switch t {
	case ColumnTypeBool:
		return arrow.FixedWidthTypes.Boolean
	case ColumnTypeByte:
		return arrow.PrimitiveTypes.Uint8
	case ColumnTypeInt:
		return arrow.PrimitiveTypes.Int32
	case ColumnTypeLong:
		return arrow.PrimitiveTypes.Int64
	case ColumnTypeFloat:
		return arrow.PrimitiveTypes.Float32
	case ColumnTypeDouble:
		return arrow.PrimitiveTypes.Float64
	default:
		// Chars travel as one-character strings
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema converts the table schema to an Arrow schema. Every field is
// nullable; missing and empty cells become nulls.
func (t *Table) ArrowSchema() *arrow.Schema {
	s := t.Schema()
	fields := make([]arrow.Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = arrow.Field{
			Name:     f.Name,
			Type:     arrowType(f.Type),
			Nullable: true,
			Metadata: arrow.NewMetadata(
				[]string{metaColumnType, metaComment},
				[]string{f.Type.String(), f.Comment},
			),
		}
	}
	return arrow.NewSchema(fields, nil)
}

// ToArrow materializes the table as a dense Arrow record. Absent cells hold
// the column default. The caller must Release the record.
func (t *Table) ToArrow(alloc memory.Allocator) (arrow.Record, error) {
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	}
	schema := t.ArrowSchema()
	builder := array.NewRecordBuilder(alloc, schema)
	defer builder.Release()

	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, col := range t.columns {
		fb := builder.Field(i)
		fb.Reserve(t.rowCount)
		for row := 0; row < t.rowCount; row++ {
			if col.IsValueMissing(row) || col.IsValueEmpty(row) {
				fb.AppendNull()
				continue
			}
			if err := appendArrowValue(fb, col.Get(row)); err != nil {
				return nil, vterrors.Wrap(err, vterrors.ErrorTypeInternal, "cannot build arrow column").
					WithDetail("column", col.Label()).
					WithDetail("row", row)
			}
		}
	}
	return builder.NewRecord(), nil
}

func appendArrowValue(b array.Builder, value any) error {
	switch b := b.(type) {
	case *array.BooleanBuilder:
		if v, ok := value.(bool); ok {
			b.Append(v)
			return nil
		}
	case *array.Uint8Builder:
		if v, ok := value.(byte); ok {
			b.Append(v)
			return nil
		}
	case *array.Int32Builder:
		if v, ok := value.(int32); ok {
			b.Append(v)
			return nil
		}
	case *array.Int64Builder:
		if v, ok := value.(int64); ok {
			b.Append(v)
			return nil
		}
	case *array.Float32Builder:
		if v, ok := value.(float32); ok {
			b.Append(v)
			return nil
		}
	case *array.Float64Builder:
		if v, ok := value.(float64); ok {
			b.Append(v)
			return nil
		}
	case *array.StringBuilder:
		switch v := value.(type) {
		case string:
			b.Append(v)
			return nil
		case rune:
			b.Append(charString(v))
			return nil
		}
	}
	return vterrors.Newf(vterrors.ErrorTypeValidation, "value of type %T does not fit %s builder", value, b.Type())
}

// WriteArrow writes the table as an Arrow IPC file
func (t *Table) WriteArrow(w io.Writer) error {
	alloc := memory.NewGoAllocator()
	rec, err := t.ToArrow(alloc)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(alloc))
	if err != nil {
		return vterrors.Wrap(err, vterrors.ErrorTypeFile, "failed to create arrow writer")
	}
	if err := fw.Write(rec); err != nil {
		return vterrors.Wrap(err, vterrors.ErrorTypeFile, "failed to write arrow record")
	}
	if err := fw.Close(); err != nil {
		return vterrors.Wrap(err, vterrors.ErrorTypeFile, "failed to close arrow writer")
	}
	return nil
}

// FromArrow builds a sparse table from an Arrow record. Nulls read as
// missing cells and values equal to the column default are not stored.
func FromArrow(rec arrow.Record, opts ...TableOption) (*Table, error) {
	table := NewTable(opts...)
	rows := int(rec.NumRows())

	for i, field := range rec.Schema().Fields() {
		colType, err := columnTypeOf(field)
		if err != nil {
			return nil, err
		}
		if err := table.AddColumn(field.Name, colType); err != nil {
			return nil, err
		}
		col, _ := table.Column(field.Name)
		if idx := field.Metadata.FindKey(metaComment); idx >= 0 {
			col.SetComment(field.Metadata.Values()[idx])
		}
		if err := fillFromArrow(col, rec.Column(i), rows); err != nil {
			return nil, err
		}
	}
	table.SetRowCount(rows)
	return table, nil
}

func columnTypeOf(field arrow.Field) (ColumnType, error) {
	if idx := field.Metadata.FindKey(metaColumnType); idx >= 0 {
		if t, ok := ParseColumnType(field.Metadata.Values()[idx]); ok {
			return t, nil
		}
	}
	switch field.Type.ID() {
	case arrow.BOOL:
		return ColumnTypeBool, nil
	case arrow.UINT8:
		return ColumnTypeByte, nil
	case arrow.INT32:
		return ColumnTypeInt, nil
	case arrow.INT64:
		return ColumnTypeLong, nil
	case arrow.FLOAT32:
		return ColumnTypeFloat, nil
	case arrow.FLOAT64:
		return ColumnTypeDouble, nil
	case arrow.STRING:
		return ColumnTypeString, nil
	}
	return 0, vterrors.Newf(vterrors.ErrorTypeValidation, "unsupported arrow type %s", field.Type).
		WithDetail("column", field.Name)
}

func fillFromArrow(col Column, arr arrow.Array, rows int) error {
	def := col.Default()
	for row := 0; row < rows; row++ {
		if arr.IsNull(row) {
			col.SetValueToMissing(row, true)
			continue
		}
		v, err := arrowValue(arr, row)
		if err != nil {
			return err
		}
		if err := col.Set(row, v); err != nil {
			return vterrors.Wrap(err, vterrors.ErrorTypeData, "cannot store arrow value").
				WithDetail("column", col.Label()).
				WithDetail("row", row)
		}
		if col.Get(row) == def {
			col.ClearValue(row)
		}
	}
	return nil
}

func arrowValue(arr arrow.Array, row int) (any, error) {
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(row), nil
	case *array.Uint8:
		return a.Value(row), nil
	case *array.Int32:
		return a.Value(row), nil
	case *array.Int64:
		return a.Value(row), nil
	case *array.Float32:
		return a.Value(row), nil
	case *array.Float64:
		return a.Value(row), nil
	case *array.String:
		return a.Value(row), nil
	}
	return nil, vterrors.New(vterrors.ErrorTypeValidation, "unsupported arrow array").
		WithDetail("type", arr.DataType().String()).
		WithDetail("row", row)
}
