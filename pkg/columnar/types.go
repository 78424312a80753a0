package columnar

import (
	"strings"

	"github.com/seasr/vtable/pkg/primitivehash"
)

// ColumnType represents the data type of a column
type ColumnType int

const (
	ColumnTypeBool ColumnType = iota
	ColumnTypeByte
	ColumnTypeChar
	ColumnTypeInt
	ColumnTypeLong
	ColumnTypeFloat
	ColumnTypeDouble
	ColumnTypeString
)

var columnTypeNames = []string{"bool", "byte", "char", "int", "long", "float", "double", "string"}

func (t ColumnType) String() string {
	if t < 0 || int(t) >= len(columnTypeNames) {
		return "unknown"
	}
	return columnTypeNames[t]
}

// ParseColumnType resolves a type name such as "double" or "string"
func ParseColumnType(name string) (ColumnType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "boolean":
		return ColumnTypeBool, true
	case "integer":
		return ColumnTypeInt, true
	}
	for i, n := range columnTypeNames {
		if n == name {
			return ColumnType(i), true
		}
	}
	return 0, false
}

// width is the approximate in-memory size of one stored value
func (t ColumnType) width() int64 {
	switch t {
	case ColumnTypeBool, ColumnTypeByte:
		return 1
	case ColumnTypeChar, ColumnTypeInt, ColumnTypeFloat:
		return 4
	case ColumnTypeString:
		return 16
	default:
		return 8
	}
}

// Column is a sparse table column. Rows without a stored value read as the
// column default; rows may also be flagged missing or empty.
type Column interface {
	Type() ColumnType
	Label() string
	SetLabel(label string)
	Comment() string
	SetComment(comment string)

	// Len returns the number of rows, one past the largest used row
	Len() int
	// NumEntries returns the number of stored values
	NumEntries() int
	Default() any

	Get(row int) any
	// Set stores value at row; nil marks the row missing
	Set(row int, value any) error
	Append(value any) error
	// Insert shifts rows >= row down by one and stores value at row
	Insert(row int, value any) error
	RemoveRows(pos, length int)
	RemoveRowsByIndex(rows []int)
	RemoveRowsByFlag(flags []bool)

	DoesValueExist(row int) bool
	IsValueMissing(row int) bool
	IsValueEmpty(row int) bool
	IsValueDefault(row int) bool
	SetValueToMissing(row int, missing bool)
	SetValueToEmpty(row int, empty bool)
	// ClearValue drops the stored value and flags at row, leaving the default
	ClearValue(row int)
	NumMissing() int
	NumEmpty() int
	MissingRows() []int
	EmptyRows() []int
	ForEachEntry(fn func(row int, value any) bool) bool

	SortedOrder() *primitivehash.IntIntMap
	SortedOrderInRange(begin, end int) *primitivehash.IntIntMap
	ColumnSortedOrder(begin, end int) []int
	ValuesForSort(begin, end int) []primitivehash.Element

	Reorder(order *primitivehash.IntIntMap) Column
	Subset(start, length int) Column
	Copy() Column
	Equal(other Column) bool
	Clear()
	MemoryUsage() int64
}

// Defaults holds the value read for absent rows, per column type
type Defaults struct {
	Bool   bool    `json:"bool" yaml:"bool" mapstructure:"bool"`
	Byte   byte    `json:"byte" yaml:"byte" mapstructure:"byte"`
	Char   rune    `json:"char" yaml:"char" mapstructure:"char"`
	Int    int32   `json:"int" yaml:"int" mapstructure:"int"`
	Long   int64   `json:"long" yaml:"long" mapstructure:"long"`
	Float  float32 `json:"float" yaml:"float" mapstructure:"float"`
	Double float64 `json:"double" yaml:"double" mapstructure:"double"`
	String string  `json:"string" yaml:"string" mapstructure:"string"`
}

// NewColumn creates an empty sparse column of the given type
func NewColumn(colType ColumnType, capacity int, defaults Defaults) Column {
	switch colType {
	case ColumnTypeBool:
		return NewSparseColumn(colType, primitivehash.BoolTraits.WithDefault(defaults.Bool), capacity)
	case ColumnTypeByte:
		return NewSparseColumn(colType, primitivehash.ByteTraits.WithDefault(defaults.Byte), capacity)
	case ColumnTypeChar:
		return NewSparseColumn(colType, primitivehash.CharTraits.WithDefault(defaults.Char), capacity)
	case ColumnTypeInt:
		return NewSparseColumn(colType, primitivehash.IntTraits.WithDefault(defaults.Int), capacity)
	case ColumnTypeLong:
		return NewSparseColumn(colType, primitivehash.LongTraits.WithDefault(defaults.Long), capacity)
	case ColumnTypeFloat:
		return NewSparseColumn(colType, primitivehash.FloatTraits.WithDefault(defaults.Float), capacity)
	case ColumnTypeDouble:
		return NewSparseColumn(colType, primitivehash.DoubleTraits.WithDefault(defaults.Double), capacity)
	default:
		return NewSparseColumn(ColumnTypeString, primitivehash.StringTraits.WithDefault(defaults.String), capacity)
	}
}

// inferColumnType attempts to determine column type from a value
func inferColumnType(value any) ColumnType {
	switch value.(type) {
	case bool:
		return ColumnTypeBool
	case byte:
		return ColumnTypeByte
	case rune:
		return ColumnTypeInt
	case int, int64, uint, uint32, uint64, int16, int8, uint16:
		return ColumnTypeLong
	case float32:
		return ColumnTypeFloat
	case float64:
		return ColumnTypeDouble
	default:
		return ColumnTypeString
	}
}
