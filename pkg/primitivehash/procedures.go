package primitivehash

// IndicesRemover returns a procedure that deletes the given row indices
// from every set it visits and closes the gaps they leave. It always
// returns true so it can drive ForEachSet to completion.
func IndicesRemover(indices []int) func(*IntSet) bool {
	removed := sortedUnique(indices)
	return func(s *IntSet) bool {
		if s != nil {
			s.RemoveKeysCompact(removed)
		}
		return true
	}
}

// ValueAdjuster returns a function that adds delta to values at or above
// threshold and leaves the rest unchanged.
func ValueAdjuster(threshold, delta int) func(int) int {
	return func(v int) int {
		if v >= threshold {
			return v + delta
		}
		return v
	}
}

// ForEachSet applies fn to each set until fn returns false
func ForEachSet(sets []*IntSet, fn func(*IntSet) bool) bool {
	for _, s := range sets {
		if !fn(s) {
			return false
		}
	}
	return true
}
