package primitivehash

// IntSet is an open-addressed set of ints built on Map. Sparse columns use
// it to flag missing and empty rows.
type IntSet struct {
	m *Map[struct{}]
}

var setTraits = Traits[struct{}]{
	Name: "set",
	Less: func(a, b struct{}) bool { return false },
	Convert: func(any) (struct{}, error) {
		return struct{}{}, nil
	},
}

// NewIntSet creates a set able to hold capacity ints before rehashing
func NewIntSet(capacity int) *IntSet {
	return &IntSet{m: New(setTraits, capacity)}
}

// IntSetOf creates a set holding keys
func IntSetOf(keys ...int) *IntSet {
	s := NewIntSet(len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts key and reports whether it was new
func (s *IntSet) Add(key int) bool {
	if s.m.ContainsKey(key) {
		return false
	}
	s.m.Put(key, struct{}{})
	return true
}

// Remove deletes key and reports whether it was present
func (s *IntSet) Remove(key int) bool { return s.m.RemoveKey(key) }

// Contains reports whether key is in the set
func (s *IntSet) Contains(key int) bool { return s.m.ContainsKey(key) }

// ContainsKey is Contains; it lets a set act as a KeySet
func (s *IntSet) ContainsKey(key int) bool { return s.m.ContainsKey(key) }

// Len returns the number of keys
func (s *IntSet) Len() int { return s.m.Len() }

// Keys returns the keys in table order
func (s *IntSet) Keys() []int { return s.m.Keys() }

// Sorted returns the keys in ascending order
func (s *IntSet) Sorted() []int { return Indices(s.m) }

// Clear empties the set
func (s *IntSet) Clear() { s.m.Clear() }

// Copy returns a deep copy of the set
func (s *IntSet) Copy() *IntSet { return &IntSet{m: s.m.Copy()} }

// Equal reports whether both sets hold the same keys
func (s *IntSet) Equal(other *IntSet) bool {
	return other != nil && s.m.Equal(other.m)
}

// ForEach calls fn for every key until fn returns false
func (s *IntSet) ForEach(fn func(key int) bool) bool { return s.m.ForEachKey(fn) }

// Subset returns the keys in [start, start+length-1] rebased to 0
func (s *IntSet) Subset(start, length int) *IntSet {
	return &IntSet{m: s.m.Subset(start, length)}
}

// SubsetOf returns the positions i for which indices[i] is in the set
func (s *IntSet) SubsetOf(indices []int) *IntSet {
	out := NewIntSet(len(indices))
	for i, idx := range indices {
		if s.Contains(idx) {
			out.Add(i)
		}
	}
	return out
}

// Reorder applies a new→old permutation; keys the permutation does not
// reference stay in place.
func (s *IntSet) Reorder(order *IntIntMap) *IntSet {
	return &IntSet{m: s.m.Reorder(order)}
}

// ShiftUp moves every key >= key up by one
func (s *IntSet) ShiftUp(key int) { s.m.ShiftUp(key) }

// RemoveKeysCompact drops keys and closes the gaps they leave
func (s *IntSet) RemoveKeysCompact(keys []int) { s.m.RemoveKeysCompact(keys) }
