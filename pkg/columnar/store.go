package columnar

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	vterrors "github.com/seasr/vtable/pkg/errors"
	"github.com/seasr/vtable/pkg/logger"
	"github.com/seasr/vtable/pkg/metrics"
	"github.com/seasr/vtable/pkg/primitivehash"
)

// Schema defines the structure of a table
type Schema struct {
	Fields []FieldSchema
}

// FieldSchema defines a single field in the schema
type FieldSchema struct {
	Name    string
	Type    ColumnType
	Comment string
}

// Table is a mutable table of named sparse columns. Rows with no stored
// value in a column read as that column's default.
type Table struct {
	mu       sync.RWMutex
	columns  []Column
	index    map[string]int
	defaults Defaults
	capacity int
	rowCount int
}

// TableOption configures a Table
type TableOption func(*Table)

// WithDefaults sets the per-type values read for absent rows
func WithDefaults(d Defaults) TableOption {
	return func(t *Table) { t.defaults = d }
}

// WithCapacity sets the initial hash capacity of new columns
func WithCapacity(n int) TableOption {
	return func(t *Table) { t.capacity = n }
}

// WithSchema pre-creates the schema's columns
func WithSchema(schema *Schema) TableOption {
	return func(t *Table) {
		for _, f := range schema.Fields {
			col := NewColumn(f.Type, t.capacity, t.defaults)
			col.SetLabel(f.Name)
			col.SetComment(f.Comment)
			t.index[f.Name] = len(t.columns)
			t.columns = append(t.columns, col)
		}
	}
}

// NewTable creates an empty table. Options apply in order, so WithSchema
// should come after WithDefaults and WithCapacity.
func NewTable(opts ...TableOption) *Table {
	t := &Table{
		index:    make(map[string]int),
		capacity: primitivehash.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddColumn adds a new, all-default column to the table
func (t *Table) AddColumn(name string, colType ColumnType) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.index[name]; exists {
		return vterrors.Newf(vterrors.ErrorTypeConflict, "column %q already exists", name)
	}
	t.addColumn(name, colType)
	return nil
}

func (t *Table) addColumn(name string, colType ColumnType) Column {
	col := NewColumn(colType, t.capacity, t.defaults)
	col.SetLabel(name)
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, col)
	return col
}

// AddExistingColumn appends col under its label. Rows beyond the table's
// current row count extend the table.
func (t *Table) AddExistingColumn(col Column) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.index[col.Label()]; exists {
		return vterrors.Newf(vterrors.ErrorTypeConflict, "column %q already exists", col.Label())
	}
	t.index[col.Label()] = len(t.columns)
	t.columns = append(t.columns, col)
	t.rowCount = max(t.rowCount, col.Len())
	return nil
}

// SetRowCount sets the number of rows. Columns hold no entries for trailing
// default rows, so loaders call this to record them.
func (t *Table) SetRowCount(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rowCount = max(n, 0)
}

// AppendRow adds a new row to the table. Unknown keys create columns whose
// type is inferred from the value and whose earlier rows are missing;
// columns absent from data are marked missing.
func (t *Table) AppendRow(data map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.appendRow(data)
	metrics.TableOperations.WithLabelValues("append", metrics.Status(err)).Inc()
	return err
}

// AppendBatch adds multiple rows, stopping at the first failing row. Rows
// before it stay appended; the failing row leaves no trace.
func (t *Table) AppendBatch(rows []map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, row := range rows {
		if err := t.appendRow(row); err != nil {
			metrics.TableOperations.WithLabelValues("append", "failure").Inc()
			return vterrors.Wrap(err, vterrors.ErrorTypeData, "append batch failed").WithDetail("batch_row", i)
		}
	}
	metrics.TableOperations.WithLabelValues("append", "success").Add(float64(len(rows)))
	return nil
}

func (t *Table) appendRow(data map[string]any) error {
	existing := len(t.columns)
	for _, key := range sortedKeys(data) {
		if _, exists := t.index[key]; !exists {
			col := t.addColumn(key, inferColumnType(data[key]))
			// Earlier rows never had this column
			for row := 0; row < t.rowCount; row++ {
				col.SetValueToMissing(row, true)
			}
		}
	}

	row := t.rowCount
	for _, col := range t.columns {
		value, exists := data[col.Label()]
		if !exists {
			value = nil
		}
		if err := col.Set(row, value); err != nil {
			// Leave the table as it was before the row
			t.dropColumnsFrom(existing)
			t.clearRow(row)
			return vterrors.Wrap(err, vterrors.ErrorTypeData, "cannot append value").
				WithDetail("column", col.Label()).
				WithDetail("row", row)
		}
	}
	t.rowCount++
	return nil
}

// dropColumnsFrom removes the columns at position n and later
func (t *Table) dropColumnsFrom(n int) {
	for _, col := range t.columns[n:] {
		delete(t.index, col.Label())
	}
	clear(t.columns[n:])
	t.columns = t.columns[:n]
}

func (t *Table) clearRow(row int) {
	for _, col := range t.columns {
		col.RemoveRowsByIndex([]int{row})
	}
}

// InsertRow inserts a row at index, shifting the rows at and after it down
// by one. Columns absent from data are marked missing.
func (t *Table) InsertRow(index int, data map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index > t.rowCount {
		return vterrors.Newf(vterrors.ErrorTypeValidation, "index %d out of range [0, %d]", index, t.rowCount)
	}
	for key := range data {
		if _, exists := t.index[key]; !exists {
			return vterrors.Newf(vterrors.ErrorTypeNotFound, "column %q does not exist", key)
		}
	}

	var firstErr error
	for _, col := range t.columns {
		value := data[col.Label()]
		if err := col.Insert(index, value); err != nil && firstErr == nil {
			firstErr = vterrors.Wrap(err, vterrors.ErrorTypeData, "cannot insert value").
				WithDetail("column", col.Label()).
				WithDetail("row", index)
		}
	}
	// The shift happened in every column, so the row exists either way
	t.rowCount++
	metrics.TableOperations.WithLabelValues("insert", metrics.Status(firstErr)).Inc()
	return firstErr
}

// GetRow retrieves a row by index
func (t *Table) GetRow(index int) (map[string]any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index < 0 || index >= t.rowCount {
		return nil, vterrors.Newf(vterrors.ErrorTypeNotFound, "index %d out of range [0, %d)", index, t.rowCount)
	}
	return t.row(index), nil
}

func (t *Table) row(index int) map[string]any {
	row := make(map[string]any, len(t.columns))
	for _, col := range t.columns {
		row[col.Label()] = cellValue(col, index)
	}
	return row
}

// cellValue returns nil for missing and empty cells
func cellValue(col Column, row int) any {
	if col.IsValueMissing(row) || col.IsValueEmpty(row) {
		return nil
	}
	return col.Get(row)
}

// RemoveRows removes length rows starting at pos
func (t *Table) RemoveRows(pos, length int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pos < 0 || length < 0 || pos+length > t.rowCount {
		metrics.TableOperations.WithLabelValues("remove", "failure").Inc()
		return vterrors.Newf(vterrors.ErrorTypeValidation, "rows [%d, %d) out of range [0, %d)", pos, pos+length, t.rowCount)
	}
	for _, col := range t.columns {
		col.RemoveRows(pos, length)
	}
	t.rowCount -= length
	metrics.TableOperations.WithLabelValues("remove", "success").Inc()
	return nil
}

// RemoveRowsByIndex removes the given rows. Out of range and duplicate
// indices are ignored.
func (t *Table) RemoveRowsByIndex(rows []int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	valid := make([]int, 0, len(rows))
	for _, r := range rows {
		if r >= 0 && r < t.rowCount {
			valid = append(valid, r)
		}
	}
	slices.Sort(valid)
	valid = slices.Compact(valid)
	for _, col := range t.columns {
		col.RemoveRowsByIndex(valid)
	}
	t.rowCount -= len(valid)
	metrics.TableOperations.WithLabelValues("remove", "success").Inc()
}

// SortBy sorts every row of the table by the named column
func (t *Table) SortBy(name string) error {
	t.mu.RLock()
	last := t.rowCount - 1
	t.mu.RUnlock()
	return t.SortRangeBy(name, 0, last)
}

// SortRangeBy sorts rows [begin, end] by the named column, carrying the
// other columns along. Missing and empty cells sort last. An end beyond the
// last row is clamped.
func (t *Table) SortRangeBy(name string, begin, end int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.index[name]
	if !ok {
		metrics.TableOperations.WithLabelValues("sort", "failure").Inc()
		return vterrors.Newf(vterrors.ErrorTypeNotFound, "column %q does not exist", name)
	}
	if end >= t.rowCount {
		logger.Error("sort range exceeds table, clamping",
			zap.String("column", name),
			zap.Int("end", end),
			zap.Int("rows", t.rowCount))
		end = t.rowCount - 1
	}
	if begin < 0 {
		begin = 0
	}
	if end < begin {
		return nil
	}

	timer := metrics.NewTimer("sort")
	col := t.columns[i]
	order := positionsToOrder(begin, col.ColumnSortedOrder(begin, end))
	t.reorder(order)
	metrics.SortLatency.WithLabelValues(col.Type().String()).Observe(float64(timer.Stop().Nanoseconds()))
	metrics.TableOperations.WithLabelValues("sort", "success").Inc()

	logger.Debug("table sorted",
		zap.String("column", name),
		zap.Int("begin", begin),
		zap.Int("end", end))
	return nil
}

// positionsToOrder turns a list of old rows into a permutation map keyed by
// new row, starting at begin.
func positionsToOrder(begin int, oldRows []int) *primitivehash.IntIntMap {
	order := primitivehash.NewIntIntMap(len(oldRows))
	for i, old := range oldRows {
		order.Put(begin+i, old)
	}
	return order
}

func (t *Table) reorder(order *primitivehash.IntIntMap) {
	for i, col := range t.columns {
		t.columns[i] = col.Reorder(order)
	}
}

// Reorder returns a new table arranged by order, a permutation from new row
// to old row. Rows the permutation does not reference keep their place.
func (t *Table) Reorder(order *primitivehash.IntIntMap) *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := t.emptyLike()
	for _, col := range t.columns {
		out.columns = append(out.columns, col.Reorder(order))
	}
	out.rowCount = t.rowCount
	metrics.TableOperations.WithLabelValues("reorder", "success").Inc()
	return out
}

// Subset returns a new table holding rows [start, start+length-1]
func (t *Table) Subset(start, length int) (*Table, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if start < 0 || length < 0 || start+length > t.rowCount {
		metrics.TableOperations.WithLabelValues("subset", "failure").Inc()
		return nil, vterrors.Newf(vterrors.ErrorTypeValidation, "rows [%d, %d) out of range [0, %d)", start, start+length, t.rowCount)
	}
	out := t.emptyLike()
	for _, col := range t.columns {
		out.columns = append(out.columns, col.Subset(start, length))
	}
	out.rowCount = length
	metrics.TableOperations.WithLabelValues("subset", "success").Inc()
	return out, nil
}

// Copy returns a deep copy of the table
func (t *Table) Copy() *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := t.emptyLike()
	for _, col := range t.columns {
		out.columns = append(out.columns, col.Copy())
	}
	out.rowCount = t.rowCount
	return out
}

// emptyLike returns a table sharing t's settings and column index
func (t *Table) emptyLike() *Table {
	out := &Table{
		index:    make(map[string]int, len(t.index)),
		defaults: t.defaults,
		capacity: t.capacity,
		columns:  make([]Column, 0, len(t.columns)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

// Column retrieves a column by name
func (t *Table) Column(name string) (Column, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, exists := t.index[name]
	if !exists {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnAt retrieves a column by position
func (t *Table) ColumnAt(i int) Column {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.columns[i]
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rowCount
}

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.columns)
}

// ColumnNames returns all column names in column order
func (t *Table) ColumnNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Label()
	}
	return names
}

// Schema describes the table's columns
func (t *Table) Schema() *Schema {
	t.mu.RLock()
	defer t.mu.RUnlock()

	schema := &Schema{Fields: make([]FieldSchema, len(t.columns))}
	for i, col := range t.columns {
		schema.Fields[i] = FieldSchema{Name: col.Label(), Type: col.Type(), Comment: col.Comment()}
	}
	return schema
}

// Equal reports whether both tables hold the same columns and rows
func (t *Table) Equal(other *Table) bool {
	if t == other {
		return true
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	if t.rowCount != other.rowCount || len(t.columns) != len(other.columns) {
		return false
	}
	for i, col := range t.columns {
		if !col.Equal(other.columns[i]) {
			return false
		}
	}
	return true
}

// MemoryUsage returns estimated memory usage in bytes
func (t *Table) MemoryUsage() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total int64

	// Overhead for the table itself
	total += 64
	total += int64(len(t.columns) * 32)

	for _, col := range t.columns {
		total += col.MemoryUsage()
	}

	return total
}

// MemoryPerRecord returns average memory usage per row
func (t *Table) MemoryPerRecord() float64 {
	rows := t.RowCount()
	if rows == 0 {
		return 0
	}
	return float64(t.MemoryUsage()) / float64(rows)
}

// Clear removes all rows, keeping the columns
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, col := range t.columns {
		col.Clear()
	}
	t.rowCount = 0
}

func sortedKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Iterator provides sequential access to rows
type Iterator struct {
	table  *Table
	index  int
	buffer map[string]any
}

// NewIterator creates a new iterator over the table
func (t *Table) NewIterator() *Iterator {
	return &Iterator{
		table:  t,
		index:  -1,
		buffer: make(map[string]any),
	}
}

// Next advances to the next row
func (it *Iterator) Next() bool {
	it.index++
	return it.index < it.table.RowCount()
}

// Index returns the current row index
func (it *Iterator) Index() int { return it.index }

// Row returns the current row. The map is reused between calls.
func (it *Iterator) Row() map[string]any {
	clear(it.buffer)

	it.table.mu.RLock()
	for _, col := range it.table.columns {
		it.buffer[col.Label()] = cellValue(col, it.index)
	}
	it.table.mu.RUnlock()

	return it.buffer
}

// BatchIterator provides batch access to rows
type BatchIterator struct {
	table     *Table
	batchSize int
	index     int
}

// NewBatchIterator creates a new batch iterator
func (t *Table) NewBatchIterator(batchSize int) *BatchIterator {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &BatchIterator{
		table:     t,
		batchSize: batchSize,
	}
}

// NextBatch returns the next batch of rows
func (it *BatchIterator) NextBatch() ([]map[string]any, bool) {
	it.table.mu.RLock()
	defer it.table.mu.RUnlock()

	if it.index >= it.table.rowCount {
		return nil, false
	}

	endIndex := min(it.index+it.batchSize, it.table.rowCount)

	batch := make([]map[string]any, 0, endIndex-it.index)
	for i := it.index; i < endIndex; i++ {
		batch = append(batch, it.table.row(i))
	}

	it.index = endIndex
	return batch, true
}
