package primitivehash

import "sort"

// SortedOrder returns the permutation that arranges the map's entries by
// value, ascending. In the result, key = new position and value = old key;
// the positions are the map's own keys in ascending order, so applying it
// with Reorder moves values without changing the key set. The receiver is
// not modified.
func (m *Map[V]) SortedOrder() *IntIntMap {
	validKeys := Indices(m)
	values := make([]V, len(validKeys))
	for i, k := range validKeys {
		values[i] = m.Get(k)
	}
	m.sortValues(values)
	return m.sortedOrder(validKeys, values)
}

// SortedOrderInRange is SortedOrder restricted to keys in [begin, end].
// An inverted range yields an empty permutation.
func (m *Map[V]) SortedOrderInRange(begin, end int) *IntIntMap {
	if end < begin {
		return NewIntIntMap(0)
	}
	validKeys := IndicesInRange(begin, end, m)
	return m.sortedOrder(validKeys, m.ValuesInRange(begin, end))
}

// sortedOrder places each valid key at the position of its value in the
// sorted value array. Equal values share a binary-search hit, so the first
// unoccupied neighbour holding the same value is taken instead.
func (m *Map[V]) sortedOrder(validKeys []int, values []V) *IntIntMap {
	newOrder := make([]int, len(validKeys))
	occupied := make([]bool, len(validKeys))
	less := m.traits.Less

	for _, key := range validKeys {
		cur := m.Get(key)
		pos := sort.Search(len(values), func(i int) bool { return !less(values[i], cur) })
		if pos >= len(values) || occupied[pos] {
			pos = freeNeighbour(cur, values, pos, occupied)
		}
		occupied[pos] = true
		newOrder[pos] = key
	}
	return MappedOrder(validKeys, newOrder)
}

// freeNeighbour scans outwards from pos over the run of values equal to cur
// and returns the first unoccupied index.
func freeNeighbour[V comparable](cur V, values []V, pos int, occupied []bool) int {
	if pos >= len(values) {
		pos = len(values) - 1
	}
	for i := pos - 1; i >= 0 && sameValue(values[i], cur); i-- {
		if !occupied[i] {
			return i
		}
	}
	for i := pos + 1; i < len(values) && sameValue(values[i], cur); i++ {
		if !occupied[i] {
			return i
		}
	}
	return pos
}
