// Package primitivehash provides open-addressed hash maps from int keys to
// primitive values, the storage behind sparse table columns.
//
// A Map keeps keys, values and slot states in parallel arrays and resolves
// collisions by linear probing. Removal shifts the rest of the probe chain
// backwards instead of leaving tombstones. Reading an absent key returns the
// value type's default rather than an error; use ContainsKey or Lookup to
// tell the two apart.
//
// Sorted orders and reorders are expressed as permutation maps (IntIntMap)
// from new position to old position:
//
//	order := m.SortedOrder()
//	sorted := m.Reorder(order)
//
// Neither call modifies m.
package primitivehash
