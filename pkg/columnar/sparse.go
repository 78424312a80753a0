package columnar

import (
	"github.com/seasr/vtable/pkg/primitivehash"
)

// SparseColumn stores only the rows that hold a value, in an int-keyed
// primitive hash map. Missing and empty rows are tracked in separate sets
// and never hold a stored value.
type SparseColumn[V comparable] struct {
	colType  ColumnType
	label    string
	comment  string
	elements *primitivehash.Map[V]
	missing  *primitivehash.IntSet
	empty    *primitivehash.IntSet
}

var (
	_ Column = (*SparseColumn[bool])(nil)
	_ Column = (*SparseColumn[string])(nil)
)

// NewSparseColumn creates an empty column whose values follow traits
func NewSparseColumn[V comparable](colType ColumnType, traits primitivehash.Traits[V], capacity int) *SparseColumn[V] {
	return &SparseColumn[V]{
		colType:  colType,
		elements: primitivehash.New(traits, capacity),
		missing:  primitivehash.NewIntSet(0),
		empty:    primitivehash.NewIntSet(0),
	}
}

func (c *SparseColumn[V]) Type() ColumnType            { return c.colType }
func (c *SparseColumn[V]) Label() string               { return c.label }
func (c *SparseColumn[V]) SetLabel(label string)       { c.label = label }
func (c *SparseColumn[V]) Comment() string             { return c.comment }
func (c *SparseColumn[V]) SetComment(comment string)   { c.comment = comment }
func (c *SparseColumn[V]) NumEntries() int             { return c.elements.Len() }
func (c *SparseColumn[V]) Default() any                { return c.elements.Default() }
func (c *SparseColumn[V]) NumMissing() int             { return c.missing.Len() }
func (c *SparseColumn[V]) NumEmpty() int               { return c.empty.Len() }
func (c *SparseColumn[V]) MissingRows() []int          { return c.missing.Sorted() }
func (c *SparseColumn[V]) EmptyRows() []int            { return c.empty.Sorted() }
func (c *SparseColumn[V]) DoesValueExist(row int) bool { return c.elements.ContainsKey(row) }
func (c *SparseColumn[V]) IsValueMissing(row int) bool { return c.missing.Contains(row) }
func (c *SparseColumn[V]) IsValueEmpty(row int) bool   { return c.empty.Contains(row) }

// Elements exposes the underlying value map
func (c *SparseColumn[V]) Elements() *primitivehash.Map[V] { return c.elements }

// Len returns one past the largest row holding a value or a flag
func (c *SparseColumn[V]) Len() int {
	return max(primitivehash.MaxKey(c.elements), primitivehash.MaxKey(c.missing), primitivehash.MaxKey(c.empty)) + 1
}

// Get returns the value at row, or the column default
func (c *SparseColumn[V]) Get(row int) any { return c.elements.Get(row) }

// Value is Get without boxing
func (c *SparseColumn[V]) Value(row int) V { return c.elements.Get(row) }

// IsValueDefault reports whether row holds no stored value and no flag
func (c *SparseColumn[V]) IsValueDefault(row int) bool {
	return !c.elements.ContainsKey(row) && !c.missing.Contains(row) && !c.empty.Contains(row)
}

func (c *SparseColumn[V]) Set(row int, value any) error {
	if value == nil {
		c.SetValueToMissing(row, true)
		return nil
	}
	if err := c.elements.ReplaceObject(value, row); err != nil {
		return err
	}
	c.missing.Remove(row)
	c.empty.Remove(row)
	return nil
}

// Put stores a typed value at row
func (c *SparseColumn[V]) Put(row int, value V) {
	c.elements.Put(row, value)
	c.missing.Remove(row)
	c.empty.Remove(row)
}

func (c *SparseColumn[V]) Append(value any) error {
	return c.Set(c.Len(), value)
}

func (c *SparseColumn[V]) Insert(row int, value any) error {
	c.missing.ShiftUp(row)
	c.empty.ShiftUp(row)
	if err := c.elements.InsertObject(value, row); err != nil {
		return err
	}
	if value == nil {
		c.missing.Add(row)
	}
	return nil
}

func (c *SparseColumn[V]) RemoveRows(pos, length int) {
	if length <= 0 {
		return
	}
	rows := make([]int, length)
	for i := range rows {
		rows[i] = pos + i
	}
	c.RemoveRowsByIndex(rows)
}

func (c *SparseColumn[V]) RemoveRowsByIndex(rows []int) {
	if len(rows) == 0 {
		return
	}
	c.elements.RemoveKeysCompact(rows)
	primitivehash.ForEachSet([]*primitivehash.IntSet{c.missing, c.empty}, primitivehash.IndicesRemover(rows))
}

func (c *SparseColumn[V]) RemoveRowsByFlag(flags []bool) {
	var rows []int
	for i, f := range flags {
		if f {
			rows = append(rows, i)
		}
	}
	c.RemoveRowsByIndex(rows)
}

// SetValueToMissing flags row as missing, dropping any stored value.
// Clearing the flag leaves the row at the column default.
func (c *SparseColumn[V]) SetValueToMissing(row int, missing bool) {
	if !missing {
		c.missing.Remove(row)
		return
	}
	c.elements.RemoveKey(row)
	c.empty.Remove(row)
	c.missing.Add(row)
}

// SetValueToEmpty flags row as empty, dropping any stored value
func (c *SparseColumn[V]) SetValueToEmpty(row int, empty bool) {
	if !empty {
		c.empty.Remove(row)
		return
	}
	c.elements.RemoveKey(row)
	c.missing.Remove(row)
	c.empty.Add(row)
}

func (c *SparseColumn[V]) ClearValue(row int) {
	c.elements.RemoveKey(row)
	c.missing.Remove(row)
	c.empty.Remove(row)
}

func (c *SparseColumn[V]) ForEachEntry(fn func(row int, value any) bool) bool {
	return c.elements.ForEachEntry(func(row int, v V) bool { return fn(row, v) })
}

// SortedOrder sorts the stored values; flagged and default rows keep their
// positions.
func (c *SparseColumn[V]) SortedOrder() *primitivehash.IntIntMap {
	return c.elements.SortedOrder()
}

func (c *SparseColumn[V]) SortedOrderInRange(begin, end int) *primitivehash.IntIntMap {
	return c.elements.SortedOrderInRange(begin, end)
}

// ValuesForSort returns one Element per row in [begin, end]. Rows without a
// stored value carry the column default; missing and empty rows are flagged
// so they sort last.
func (c *SparseColumn[V]) ValuesForSort(begin, end int) []primitivehash.Element {
	if end < begin {
		return []primitivehash.Element{}
	}
	out := make([]primitivehash.Element, 0, end-begin+1)
	for row := begin; row <= end; row++ {
		e := primitivehash.NewElement(c.elements.Get(row), row)
		e.Missing = c.missing.Contains(row)
		e.Empty = c.empty.Contains(row)
		out = append(out, e)
	}
	return out
}

// ColumnSortedOrder returns the rows in [begin, end] ordered by value, with
// missing and empty rows last. Element i of the result is the old row that
// moves to begin+i.
func (c *SparseColumn[V]) ColumnSortedOrder(begin, end int) []int {
	elems := c.ValuesForSort(begin, end)
	primitivehash.SortElements(elems)
	order := make([]int, len(elems))
	for i, e := range elems {
		order[i] = e.Index
	}
	return order
}

func (c *SparseColumn[V]) Reorder(order *primitivehash.IntIntMap) Column {
	return &SparseColumn[V]{
		colType:  c.colType,
		label:    c.label,
		comment:  c.comment,
		elements: c.elements.Reorder(order),
		missing:  c.missing.Reorder(order),
		empty:    c.empty.Reorder(order),
	}
}

func (c *SparseColumn[V]) Subset(start, length int) Column {
	return &SparseColumn[V]{
		colType:  c.colType,
		label:    c.label,
		comment:  c.comment,
		elements: c.elements.Subset(start, length),
		missing:  c.missing.Subset(start, length),
		empty:    c.empty.Subset(start, length),
	}
}

func (c *SparseColumn[V]) Copy() Column {
	return &SparseColumn[V]{
		colType:  c.colType,
		label:    c.label,
		comment:  c.comment,
		elements: c.elements.Copy(),
		missing:  c.missing.Copy(),
		empty:    c.empty.Copy(),
	}
}

// Equal reports whether other is a column of the same type with the same
// label, values and flags.
func (c *SparseColumn[V]) Equal(other Column) bool {
	o, ok := other.(*SparseColumn[V])
	if !ok || o.colType != c.colType || o.label != c.label {
		return false
	}
	return c.elements.Equal(o.elements) && c.missing.Equal(o.missing) && c.empty.Equal(o.empty)
}

func (c *SparseColumn[V]) Clear() {
	c.elements.Clear()
	c.missing.Clear()
	c.empty.Clear()
}

// MemoryUsage estimates the bytes held by the column's tables
func (c *SparseColumn[V]) MemoryUsage() int64 {
	var total int64
	total += int64(c.elements.Capacity()) * (8 + 1 + c.colType.width())
	total += int64(c.missing.Len()+c.empty.Len()) * 9 * 2
	if c.colType == ColumnTypeString {
		c.elements.ForEachValue(func(v V) bool {
			if s, ok := any(v).(string); ok {
				total += int64(len(s))
			}
			return true
		})
	}
	total += int64(len(c.label) + len(c.comment))
	return total
}
