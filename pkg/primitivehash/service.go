package primitivehash

import (
	"slices"
	"sort"
)

// KeySet is anything exposing a set of int keys
type KeySet interface {
	Keys() []int
	ContainsKey(key int) bool
	Len() int
}

// Indices returns the keys of m in ascending order
func Indices(m KeySet) []int {
	keys := m.Keys()
	slices.Sort(keys)
	return keys
}

// IndicesInRange returns the keys of m within [begin, end], ascending
func IndicesInRange(begin, end int, m KeySet) []int {
	if end < begin {
		return []int{}
	}
	valid := Indices(m)
	from := FindPlace(valid, begin)
	to := FindEndPlace(valid, end)
	if from >= len(valid) || to < from {
		return []int{}
	}
	if to >= len(valid) {
		to = len(valid) - 1
	}
	return slices.Clone(valid[from : to+1])
}

// IndicesInRangeExcluding returns the keys of m within [begin, end] that are
// in none of the excluded sets, ascending.
func IndicesInRangeExcluding(begin, end int, m KeySet, excluded ...*IntSet) []int {
	out := []int{}
	if end < begin {
		return out
	}
	for _, k := range IndicesInRange(begin, end, m) {
		skip := false
		for _, ex := range excluded {
			if ex != nil && ex.Contains(k) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, k)
		}
	}
	return out
}

// FindPlace returns the index of value in the sorted arr, or the index where
// it would be inserted.
func FindPlace(arr []int, value int) int {
	return sort.SearchInts(arr, value)
}

// FindEndPlace returns the index of value in the sorted arr, or the index of
// the largest element smaller than value (-1 if there is none).
func FindEndPlace(arr []int, value int) int {
	i, found := slices.BinarySearch(arr, value)
	if found {
		return i
	}
	return i - 1
}

// MaxKey returns the largest key of m, or -1 when m is empty
func MaxKey(m KeySet) int {
	maxKey := -1
	for _, k := range m.Keys() {
		if k > maxKey {
			maxKey = k
		}
	}
	return maxKey
}

// MappedOrder pairs oldOrder[i] with newOrder[i] for the common prefix of
// both slices.
func MappedOrder(oldOrder, newOrder []int) *IntIntMap {
	out := NewIntIntMap(len(oldOrder))
	for i := 0; i < len(oldOrder) && i < len(newOrder); i++ {
		out.Put(oldOrder[i], newOrder[i])
	}
	return out
}

// IncrementKeys moves every entry with key >= val up by one
func IncrementKeys(val int, m *IntIntMap) {
	m.ShiftUp(val)
}

// DecrementKeys moves every entry with key > val down by one, walking
// upwards so no entry is overwritten. An entry at val itself is replaced.
func DecrementKeys(val int, m *IntIntMap) {
	keys := Indices(m)
	for _, k := range keys {
		if k <= val {
			continue
		}
		v := m.Remove(k)
		m.Put(k-1, v)
	}
}

// IncrementValues adds one to every value >= val
func IncrementValues(val int, m *IntIntMap) {
	m.TransformValues(ValueAdjuster(val, 1))
}

// DecrementValues subtracts one from every value > val
func DecrementValues(val int, m *IntIntMap) {
	m.TransformValues(ValueAdjuster(val+1, -1))
}

// FindKey returns a key mapped to val, or -1. When several keys map to val
// the largest is returned.
func FindKey(val int, m *IntIntMap) int {
	found := -1
	m.ForEachEntry(func(k, v int) bool {
		if v == val && k > found {
			found = k
		}
		return true
	})
	return found
}

// KeysForValues inverts m and looks up each of values. Values not present
// in m resolve to the map default.
func KeysForValues(values []int, m *IntIntMap) []int {
	inverse := NewIntIntMap(m.Len())
	m.ForEachEntry(func(k, v int) bool {
		inverse.Put(v, k)
		return true
	})
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = inverse.Get(v)
	}
	return out
}

// ToMap turns an ordering slice into a permutation map, skipping rows that
// have no entry in m.
func ToMap(newOrder []int, m KeySet) *IntIntMap {
	out := NewIntIntMap(m.Len())
	for i, old := range newOrder {
		if m.ContainsKey(old) {
			out.Put(i, old)
		}
	}
	return out
}
