package primitivehash

import (
	"slices"

	"go.uber.org/zap"

	vterrors "github.com/seasr/vtable/pkg/errors"
	"github.com/seasr/vtable/pkg/logger"
)

const (
	// DefaultCapacity is the number of entries a map holds before its first rehash
	DefaultCapacity = 10
	// DefaultLoadFactor is the fraction of slots that may be FULL before rehashing
	DefaultLoadFactor = 0.5

	minSlots = 4
)

// Slot states
const (
	stateFree byte = 0
	stateFull byte = 1
)

// Map is an open-addressed hash map from int keys to primitive values.
//
// Slots live in three parallel arrays (keys, values, states). Collisions are
// resolved by linear probing over a power-of-two table and removals shift the
// following probe chain backwards, so the table never holds tombstones.
// Absent keys read as Traits.Default.
//
// A Map is not safe for concurrent use.
type Map[V comparable] struct {
	keys       []int
	values     []V
	states     []byte
	size       int
	maxSize    int
	loadFactor float64
	traits     Traits[V]
}

// New creates a map able to hold initialCapacity entries before rehashing
func New[V comparable](traits Traits[V], initialCapacity int) *Map[V] {
	return NewWithLoadFactor(traits, initialCapacity, DefaultLoadFactor)
}

// NewWithLoadFactor creates a map with an explicit load factor in (0, 1).
// Out of range load factors fall back to DefaultLoadFactor.
func NewWithLoadFactor[V comparable](traits Traits[V], initialCapacity int, loadFactor float64) *Map[V] {
	if loadFactor <= 0 || loadFactor >= 1 {
		loadFactor = DefaultLoadFactor
	}
	m := &Map[V]{
		loadFactor: loadFactor,
		traits:     traits,
	}
	m.setUp(initialCapacity)
	return m
}

// setUp allocates a table that can take initialCapacity entries without growing
func (m *Map[V]) setUp(initialCapacity int) {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	slots := nextPowerOf2(int(float64(initialCapacity)/m.loadFactor) + 1)
	if slots < minSlots {
		slots = minSlots
	}
	m.allocate(slots)
}

func (m *Map[V]) allocate(slots int) {
	m.keys = make([]int, slots)
	m.values = make([]V, slots)
	m.states = make([]byte, slots)
	m.size = 0
	m.maxSize = int(float64(slots) * m.loadFactor)
	if m.maxSize >= slots {
		m.maxSize = slots - 1
	}
	if m.maxSize < 1 {
		m.maxSize = 1
	}
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func hash(key int) uint64 {
	h := uint64(key) * 0x9E3779B97F4A7C15
	return h ^ (h >> 32)
}

func (m *Map[V]) slot(key int) int {
	return int(hash(key) & uint64(len(m.keys)-1))
}

// index returns the slot holding key, or -1
func (m *Map[V]) index(key int) int {
	mask := len(m.keys) - 1
	for i := m.slot(key); m.states[i] == stateFull; i = (i + 1) & mask {
		if m.keys[i] == key {
			return i
		}
	}
	return -1
}

// insertionIndex returns the slot holding key, or the free slot where it
// belongs. The table always keeps at least one free slot.
func (m *Map[V]) insertionIndex(key int) (int, bool) {
	mask := len(m.keys) - 1
	i := m.slot(key)
	for m.states[i] == stateFull {
		if m.keys[i] == key {
			return i, true
		}
		i = (i + 1) & mask
	}
	return i, false
}

func (m *Map[V]) rehash(slots int) {
	oldKeys, oldValues, oldStates := m.keys, m.values, m.states
	m.allocate(slots)
	for i, st := range oldStates {
		if st != stateFull {
			continue
		}
		idx, _ := m.insertionIndex(oldKeys[i])
		m.keys[idx] = oldKeys[i]
		m.values[idx] = oldValues[i]
		m.states[idx] = stateFull
		m.size++
	}
}

// removeAt frees slot i and shifts the rest of its probe chain backwards so
// every remaining key stays reachable from its home slot.
func (m *Map[V]) removeAt(i int) {
	var zero V
	mask := len(m.keys) - 1
	m.size--
	j := i
	for {
		j = (j + 1) & mask
		if m.states[j] != stateFull {
			break
		}
		home := m.slot(m.keys[j])
		// The entry at j stays put when its home lies cyclically in (i, j].
		if i <= j {
			if i < home && home <= j {
				continue
			}
		} else if i < home || home <= j {
			continue
		}
		m.keys[i] = m.keys[j]
		m.values[i] = m.values[j]
		m.states[i] = stateFull
		i = j
	}
	m.keys[i] = 0
	m.values[i] = zero
	m.states[i] = stateFree
}

// Traits returns the value traits of the map
func (m *Map[V]) Traits() Traits[V] { return m.traits }

// Default returns the value read for absent keys
func (m *Map[V]) Default() V { return m.traits.Default }

// Len returns the number of entries
func (m *Map[V]) Len() int { return m.size }

// IsEmpty reports whether the map has no entries
func (m *Map[V]) IsEmpty() bool { return m.size == 0 }

// Capacity returns the number of slots in the table
func (m *Map[V]) Capacity() int { return len(m.keys) }

// Get returns the value mapped to key, or the default when key is absent
func (m *Map[V]) Get(key int) V {
	if i := m.index(key); i >= 0 {
		return m.values[i]
	}
	return m.traits.Default
}

// Lookup returns the value mapped to key and whether it was present
func (m *Map[V]) Lookup(key int) (V, bool) {
	if i := m.index(key); i >= 0 {
		return m.values[i], true
	}
	return m.traits.Default, false
}

// Put maps key to value and returns the previous value, or the default for a
// new mapping.
func (m *Map[V]) Put(key int, value V) V {
	i, exists := m.insertionIndex(key)
	if exists {
		prev := m.values[i]
		m.values[i] = value
		return prev
	}
	m.keys[i] = key
	m.values[i] = value
	m.states[i] = stateFull
	m.size++
	if m.size > m.maxSize {
		m.rehash(len(m.keys) << 1)
	}
	return m.traits.Default
}

// Remove deletes key and returns its value, or the default when absent
func (m *Map[V]) Remove(key int) V {
	i := m.index(key)
	if i < 0 {
		return m.traits.Default
	}
	prev := m.values[i]
	m.removeAt(i)
	return prev
}

// RemoveKey deletes key and reports whether it was present
func (m *Map[V]) RemoveKey(key int) bool {
	i := m.index(key)
	if i < 0 {
		return false
	}
	m.removeAt(i)
	return true
}

// ContainsKey reports whether key is mapped
func (m *Map[V]) ContainsKey(key int) bool { return m.index(key) >= 0 }

// ContainsValue reports whether any entry maps to value
func (m *Map[V]) ContainsValue(value V) bool {
	for i, st := range m.states {
		if st == stateFull && m.values[i] == value {
			return true
		}
	}
	return false
}

// Clear removes all entries, keeping the table size
func (m *Map[V]) Clear() {
	var zero V
	for i := range m.states {
		m.keys[i] = 0
		m.values[i] = zero
		m.states[i] = stateFree
	}
	m.size = 0
}

// Keys returns the mapped keys in table order
func (m *Map[V]) Keys() []int {
	keys := make([]int, 0, m.size)
	for i, st := range m.states {
		if st == stateFull {
			keys = append(keys, m.keys[i])
		}
	}
	return keys
}

// Values returns the mapped values in table order, matching Keys
func (m *Map[V]) Values() []V {
	vals := make([]V, 0, m.size)
	for i, st := range m.states {
		if st == stateFull {
			vals = append(vals, m.values[i])
		}
	}
	return vals
}

// ValuesInRange returns the values of keys in [begin, end], sorted ascending
func (m *Map[V]) ValuesInRange(begin, end int) []V {
	if end < begin {
		return []V{}
	}
	keys := IndicesInRange(begin, end, m)
	vals := make([]V, len(keys))
	for i, k := range keys {
		vals[i] = m.Get(k)
	}
	m.sortValues(vals)
	return vals
}

func (m *Map[V]) sortValues(vals []V) {
	less := m.traits.Less
	slices.SortStableFunc(vals, func(a, b V) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		}
		return 0
	})
}

// Copy returns a deep copy of the map
func (m *Map[V]) Copy() *Map[V] {
	return &Map[V]{
		keys:       slices.Clone(m.keys),
		values:     slices.Clone(m.values),
		states:     slices.Clone(m.states),
		size:       m.size,
		maxSize:    m.maxSize,
		loadFactor: m.loadFactor,
		traits:     m.traits,
	}
}

// Equal reports whether both maps hold the same key/value pairs
func (m *Map[V]) Equal(other *Map[V]) bool {
	if other == nil || other.size != m.size {
		return false
	}
	return m.ForEachEntry(func(key int, value V) bool {
		v, ok := other.Lookup(key)
		return ok && sameValue(v, value)
	})
}

// ForEachEntry calls fn for every entry until fn returns false. It reports
// whether every call returned true.
func (m *Map[V]) ForEachEntry(fn func(key int, value V) bool) bool {
	for i, st := range m.states {
		if st == stateFull && !fn(m.keys[i], m.values[i]) {
			return false
		}
	}
	return true
}

// ForEachKey calls fn for every key until fn returns false
func (m *Map[V]) ForEachKey(fn func(key int) bool) bool {
	for i, st := range m.states {
		if st == stateFull && !fn(m.keys[i]) {
			return false
		}
	}
	return true
}

// ForEachValue calls fn for every value until fn returns false
func (m *Map[V]) ForEachValue(fn func(value V) bool) bool {
	for i, st := range m.states {
		if st == stateFull && !fn(m.values[i]) {
			return false
		}
	}
	return true
}

// RetainEntries removes every entry for which fn returns false and reports
// whether the map changed.
func (m *Map[V]) RetainEntries(fn func(key int, value V) bool) bool {
	var drop []int
	for i, st := range m.states {
		if st == stateFull && !fn(m.keys[i], m.values[i]) {
			drop = append(drop, m.keys[i])
		}
	}
	for _, k := range drop {
		m.RemoveKey(k)
	}
	return len(drop) > 0
}

// TransformValues replaces every value v with fn(v)
func (m *Map[V]) TransformValues(fn func(value V) V) {
	for i, st := range m.states {
		if st == stateFull {
			m.values[i] = fn(m.values[i])
		}
	}
}

// AdjustValue adds amount to the value mapped to key. It returns false when
// key is absent or the value type cannot be adjusted.
func (m *Map[V]) AdjustValue(key int, amount float64) bool {
	if m.traits.Adjust == nil {
		return false
	}
	i := m.index(key)
	if i < 0 {
		return false
	}
	m.values[i] = m.traits.Adjust(m.values[i], amount)
	return true
}

// Increment adds one to the value mapped to key
func (m *Map[V]) Increment(key int) bool { return m.AdjustValue(key, 1) }

// Subset returns a new map holding the entries with keys in
// [start, start+length-1], rebased so that start becomes key 0.
func (m *Map[V]) Subset(start, length int) *Map[V] {
	out := NewWithLoadFactor(m.traits, length, m.loadFactor)
	for _, k := range IndicesInRange(start, start+length-1, m) {
		out.Put(k-start, m.Get(k))
	}
	return out
}

// ShiftUp moves every entry with key >= key up by one, walking from the
// largest key down so no entry is overwritten.
func (m *Map[V]) ShiftUp(key int) {
	keys := IndicesInRange(key, MaxKey(m), m)
	for i := len(keys) - 1; i >= 0; i-- {
		v := m.Remove(keys[i])
		m.Put(keys[i]+1, v)
	}
}

// Insert shifts the entries at key and above up by one and maps key to value
func (m *Map[V]) Insert(key int, value V) {
	m.ShiftUp(key)
	m.Put(key, value)
}

// InsertObject shifts the entries at key and above up by one, then stores
// obj at key unless obj is nil. A conversion failure leaves the shift in
// place and returns a validation error.
func (m *Map[V]) InsertObject(obj any, key int) error {
	m.ShiftUp(key)
	if obj == nil {
		return nil
	}
	return m.ReplaceObject(obj, key)
}

// ReplaceObject converts obj and maps key to it
func (m *Map[V]) ReplaceObject(obj any, key int) error {
	v, err := m.convert(obj)
	if err != nil {
		return err
	}
	m.Put(key, v)
	return nil
}

// Object returns the value at key boxed as any
func (m *Map[V]) Object(key int) (any, bool) {
	v, ok := m.Lookup(key)
	return v, ok
}

func (m *Map[V]) convert(obj any) (V, error) {
	v, err := m.traits.Convert(obj)
	if err != nil {
		logger.Debug("value conversion failed",
			zap.String("type", m.traits.Name),
			zap.Any("value", obj),
			zap.Error(err))
		return m.traits.Default, vterrors.Wrap(err, vterrors.ErrorTypeValidation, "cannot convert value").
			WithDetail("type", m.traits.Name).
			WithDetail("value", obj)
	}
	return v, nil
}

// RemoveKeysCompact deletes the given keys and closes the gaps they leave:
// every remaining key k becomes k minus the number of removed keys below it.
func (m *Map[V]) RemoveKeysCompact(keys []int) {
	removed := sortedUnique(keys)
	if len(removed) == 0 {
		return
	}
	old := m.Copy()
	m.Clear()
	old.ForEachEntry(func(k int, v V) bool {
		pos, found := slices.BinarySearch(removed, k)
		if !found {
			m.Put(k-pos, v)
		}
		return true
	})
}

// Reorder returns a new map arranged by order, a permutation mapping new
// keys to old keys. Entries whose key is not referenced by order keep their
// key. The receiver is not modified.
func (m *Map[V]) Reorder(order *IntIntMap) *Map[V] {
	out := NewWithLoadFactor(m.traits, m.size, m.loadFactor)
	order.ForEachEntry(func(newKey, oldKey int) bool {
		if v, ok := m.Lookup(oldKey); ok {
			out.Put(newKey, v)
		}
		return true
	})
	referenced := NewIntSet(order.Len())
	order.ForEachValue(func(oldKey int) bool {
		referenced.Add(oldKey)
		return true
	})
	m.ForEachEntry(func(k int, v V) bool {
		if !referenced.Contains(k) {
			out.Put(k, v)
		}
		return true
	})
	return out
}

func sortedUnique(keys []int) []int {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}
