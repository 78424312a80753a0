package primitivehash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vterrors "github.com/seasr/vtable/pkg/errors"
)

func TestMap_GetAbsentReturnsDefault(t *testing.T) {
	chars := NewIntCharMap(0)
	assert.Equal(t, rune(0), chars.Get(42))

	strs := New(StringTraits.WithDefault("n/a"), 4)
	assert.Equal(t, "n/a", strs.Get(7))

	v, ok := strs.Lookup(7)
	assert.False(t, ok)
	assert.Equal(t, "n/a", v)
}

func TestMap_PutReturnsPrevious(t *testing.T) {
	m := NewIntDoubleMap(4)

	assert.Equal(t, 0.0, m.Put(3, 1.5))
	assert.Equal(t, 1.5, m.Put(3, 2.5))
	assert.Equal(t, 2.5, m.Get(3))
	assert.Equal(t, 1, m.Len())
}

func TestMap_RemoveShrinksByOne(t *testing.T) {
	m := NewIntIntMap(DefaultCapacity)
	for k := 0; k < 50; k++ {
		m.Put(k*7, k)
	}

	for k := 0; k < 50; k++ {
		key := k * 7
		before := m.Len()
		assert.Equal(t, k, m.Remove(key))
		assert.False(t, m.ContainsKey(key))
		assert.Equal(t, before-1, m.Len())
	}
	assert.True(t, m.IsEmpty())

	assert.False(t, m.RemoveKey(3))
	assert.Equal(t, 0, m.Remove(3))
}

func TestMap_RemoveKeepsProbeChainsReachable(t *testing.T) {
	m := NewIntInt32Map(0)
	for k := 0; k < 1000; k++ {
		m.Put(k, int32(k*2))
	}
	capacity := m.Capacity()

	for k := 0; k < 1000; k += 2 {
		require.True(t, m.RemoveKey(k))
	}

	assert.Equal(t, 500, m.Len())
	assert.Equal(t, capacity, m.Capacity(), "removal never resizes the table")
	for k := 1; k < 1000; k += 2 {
		v, ok := m.Lookup(k)
		require.True(t, ok, "key %d lost after removals", k)
		assert.Equal(t, int32(k*2), v)
	}
}

func TestMap_RehashPreservesEntries(t *testing.T) {
	m := NewIntLongMap(2)
	initial := m.Capacity()
	for k := -100; k < 100; k++ {
		m.Put(k*31, int64(k))
	}

	assert.Greater(t, m.Capacity(), initial)
	assert.Equal(t, 200, m.Len())
	for k := -100; k < 100; k++ {
		assert.Equal(t, int64(k), m.Get(k*31))
	}

	cp := m.Copy()
	assert.ElementsMatch(t, m.Keys(), cp.Keys())
	assert.True(t, m.Equal(cp))

	cp.Put(0, 99)
	assert.Equal(t, int64(0), m.Get(0), "copy is deep")
	assert.False(t, m.Equal(cp))
}

func TestMap_ContainsValueAndClear(t *testing.T) {
	m := NewIntBooleanMap(4)
	m.Put(1, true)
	m.Put(2, false)

	assert.True(t, m.ContainsValue(true))
	m.Remove(1)
	assert.False(t, m.ContainsValue(true))

	capacity := m.Capacity()
	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, capacity, m.Capacity())
	assert.Empty(t, m.Keys())
}

func TestMap_ValuesInRange(t *testing.T) {
	m := NewIntStringMap(8)
	m.Put(0, "delta")
	m.Put(2, "alpha")
	m.Put(5, "charlie")
	m.Put(9, "bravo")

	assert.Equal(t, []string{"alpha", "charlie", "delta"}, m.ValuesInRange(0, 5))
	assert.Equal(t, []string{"bravo"}, m.ValuesInRange(6, 100))
	assert.Empty(t, m.ValuesInRange(5, 2))
}

func TestMap_AdjustValue(t *testing.T) {
	ints := NewIntInt32Map(4)
	ints.Put(1, 10)
	assert.True(t, ints.AdjustValue(1, 5))
	assert.True(t, ints.Increment(1))
	assert.Equal(t, int32(16), ints.Get(1))
	assert.False(t, ints.Increment(2))

	bools := NewIntBooleanMap(4)
	bools.Put(0, false)
	assert.True(t, bools.Increment(0))
	assert.True(t, bools.Get(0))

	strs := NewIntStringMap(4)
	strs.Put(0, "x")
	assert.False(t, strs.Increment(0))
}

func TestMap_RetainEntries(t *testing.T) {
	m := NewIntIntMap(0)
	for k := 0; k < 64; k++ {
		m.Put(k, k)
	}

	changed := m.RetainEntries(func(_ int, v int) bool { return v%3 == 0 })

	assert.True(t, changed)
	assert.Equal(t, 22, m.Len())
	for k := 0; k < 64; k++ {
		assert.Equal(t, k%3 == 0, m.ContainsKey(k), "key %d", k)
	}
	assert.False(t, m.RetainEntries(func(int, int) bool { return true }))
}

func TestMap_InsertObjectShiftsUp(t *testing.T) {
	m := NewIntCharMap(4)
	m.Put(0, 'a')
	m.Put(2, 'c')
	m.Put(3, 'd')
	m.Put(7, 'h')

	require.NoError(t, m.InsertObject("X", 2))

	assert.Equal(t, 5, m.Len())
	assert.Equal(t, 'a', m.Get(0))
	assert.Equal(t, 'X', m.Get(2))
	assert.Equal(t, 'c', m.Get(3))
	assert.Equal(t, 'd', m.Get(4))
	assert.Equal(t, 'h', m.Get(8))
	assert.False(t, m.ContainsKey(7))
	assert.False(t, m.ContainsKey(1))
}

func TestMap_InsertObjectNilLeavesGap(t *testing.T) {
	m := NewIntDoubleMap(4)
	m.Put(0, 1)
	m.Put(1, 2)

	require.NoError(t, m.InsertObject(nil, 0))

	assert.False(t, m.ContainsKey(0))
	assert.Equal(t, 1.0, m.Get(1))
	assert.Equal(t, 2.0, m.Get(2))
}

func TestMap_InsertObjectConversionError(t *testing.T) {
	m := NewIntInt32Map(4)
	m.Put(0, 1)

	err := m.InsertObject("not a number", 0)

	require.Error(t, err)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeValidation))
	assert.Equal(t, int32(1), m.Get(1), "shift still happened")
	assert.False(t, m.ContainsKey(0))
}

func TestMap_ReplaceObjectConverts(t *testing.T) {
	strs := NewIntStringMap(4)
	require.NoError(t, strs.ReplaceObject(42, 0))
	require.NoError(t, strs.ReplaceObject([]rune("runes"), 1))
	require.NoError(t, strs.ReplaceObject([]byte("bytes"), 2))
	assert.Equal(t, "42", strs.Get(0))
	assert.Equal(t, "runes", strs.Get(1))
	assert.Equal(t, "bytes", strs.Get(2))

	bools := NewIntBooleanMap(4)
	require.NoError(t, bools.ReplaceObject("true", 0))
	assert.True(t, bools.Get(0))

	chars := NewIntCharMap(4)
	require.NoError(t, chars.ReplaceObject("zeta", 0))
	assert.Equal(t, 'z', chars.Get(0))

	obj, ok := chars.Object(0)
	assert.True(t, ok)
	assert.Equal(t, 'z', obj)
}

func TestMap_Subset(t *testing.T) {
	m := NewIntInt32Map(8)
	for k := 0; k < 10; k += 2 {
		m.Put(k, int32(k))
	}

	sub := m.Subset(3, 4)

	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, int32(4), sub.Get(1))
	assert.Equal(t, int32(6), sub.Get(3))
}

func TestMap_RemoveKeysCompact(t *testing.T) {
	m := NewIntStringMap(8)
	for k, s := range []string{"a", "b", "c", "d", "e", "f"} {
		m.Put(k, s)
	}
	capacity := m.Capacity()

	m.RemoveKeysCompact([]int{4, 1, 1})

	assert.Equal(t, 4, m.Len())
	assert.Equal(t, capacity, m.Capacity())
	assert.Equal(t, "a", m.Get(0))
	assert.Equal(t, "c", m.Get(1))
	assert.Equal(t, "d", m.Get(2))
	assert.Equal(t, "f", m.Get(3))
	assert.False(t, m.ContainsKey(4))
}

func TestMap_ReorderIdentity(t *testing.T) {
	m := NewIntDoubleMap(8)
	m.Put(0, 3.5)
	m.Put(4, -1)
	m.Put(9, 12)

	identity := NewIntIntMap(3)
	for _, k := range m.Keys() {
		identity.Put(k, k)
	}

	assert.True(t, m.Reorder(identity).Equal(m))
}

func TestMap_ReorderPartialKeepsUnreferenced(t *testing.T) {
	m := NewIntStringMap(8)
	m.Put(0, "a")
	m.Put(1, "b")
	m.Put(5, "z")

	swap := NewIntIntMap(2)
	swap.Put(0, 1)
	swap.Put(1, 0)

	out := m.Reorder(swap)

	assert.Equal(t, "b", out.Get(0))
	assert.Equal(t, "a", out.Get(1))
	assert.Equal(t, "z", out.Get(5))
	assert.Equal(t, "a", m.Get(0), "receiver untouched")
}

func TestNewWithLoadFactor_FallsBackOnInvalid(t *testing.T) {
	m := NewWithLoadFactor(KeyTraits, 10, 1.5)
	for k := 0; k < 100; k++ {
		m.Put(k, k)
	}
	assert.Equal(t, 100, m.Len())
	assert.Less(t, m.Len(), m.Capacity())
}

func TestMap_ReplaceObjectParsesDecimalStrings(t *testing.T) {
	ints := NewIntInt32Map(4)
	require.NoError(t, ints.ReplaceObject("010", 0))
	require.NoError(t, ints.ReplaceObject("08", 1))
	require.NoError(t, ints.ReplaceObject(" 12.0 ", 2))
	assert.Equal(t, int32(10), ints.Get(0))
	assert.Equal(t, int32(8), ints.Get(1))
	assert.Equal(t, int32(12), ints.Get(2))

	err := ints.ReplaceObject("0x1F", 3)
	require.Error(t, err)
	assert.True(t, vterrors.IsType(err, vterrors.ErrorTypeValidation))
	assert.Error(t, ints.ReplaceObject("99999999999", 3), "out of int32 range")

	longs := NewIntLongMap(4)
	require.NoError(t, longs.ReplaceObject("0007", 0))
	assert.Equal(t, int64(7), longs.Get(0))

	keys := NewIntIntMap(4)
	require.NoError(t, keys.ReplaceObject("011", 0))
	assert.Equal(t, 11, keys.Get(0))

	bytes := NewIntByteMap(4)
	require.NoError(t, bytes.ReplaceObject("017", 0))
	assert.Equal(t, byte(17), bytes.Get(0))
	assert.Error(t, bytes.ReplaceObject("256", 1))
}
