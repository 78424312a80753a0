package primitivehash

// Concrete map types for each primitive value kind.
type (
	// IntBooleanMap maps int keys to booleans
	IntBooleanMap = Map[bool]
	// IntByteMap maps int keys to bytes
	IntByteMap = Map[byte]
	// IntCharMap maps int keys to characters
	IntCharMap = Map[rune]
	// IntInt32Map maps int keys to 32-bit integers
	IntInt32Map = Map[int32]
	// IntLongMap maps int keys to 64-bit integers
	IntLongMap = Map[int64]
	// IntFloatMap maps int keys to 32-bit floats
	IntFloatMap = Map[float32]
	// IntDoubleMap maps int keys to 64-bit floats
	IntDoubleMap = Map[float64]
	// IntStringMap maps int keys to strings
	IntStringMap = Map[string]
	// IntIntMap maps int keys to int values. Sorted orders and reorder
	// permutations use it with key = new position, value = old position.
	IntIntMap = Map[int]
)

// HashMap is the type-erased view of a Map shared by every value kind.
// Sparse columns hold their elements behind it.
type HashMap interface {
	Len() int
	Keys() []int
	ContainsKey(key int) bool
	RemoveKey(key int) bool
	Object(key int) (any, bool)
	InsertObject(obj any, key int) error
	ReplaceObject(obj any, key int) error
	ShiftUp(key int)
	RemoveKeysCompact(keys []int)
	SortedOrder() *IntIntMap
	SortedOrderInRange(begin, end int) *IntIntMap
}

var (
	_ HashMap = (*IntBooleanMap)(nil)
	_ HashMap = (*IntCharMap)(nil)
	_ HashMap = (*IntIntMap)(nil)
	_ HashMap = (*IntStringMap)(nil)
)

// NewIntBooleanMap creates an int→bool map
func NewIntBooleanMap(capacity int) *IntBooleanMap { return New(BoolTraits, capacity) }

// NewIntByteMap creates an int→byte map
func NewIntByteMap(capacity int) *IntByteMap { return New(ByteTraits, capacity) }

// NewIntCharMap creates an int→char map
func NewIntCharMap(capacity int) *IntCharMap { return New(CharTraits, capacity) }

// NewIntInt32Map creates an int→int32 map
func NewIntInt32Map(capacity int) *IntInt32Map { return New(IntTraits, capacity) }

// NewIntLongMap creates an int→int64 map
func NewIntLongMap(capacity int) *IntLongMap { return New(LongTraits, capacity) }

// NewIntFloatMap creates an int→float32 map
func NewIntFloatMap(capacity int) *IntFloatMap { return New(FloatTraits, capacity) }

// NewIntDoubleMap creates an int→float64 map
func NewIntDoubleMap(capacity int) *IntDoubleMap { return New(DoubleTraits, capacity) }

// NewIntStringMap creates an int→string map
func NewIntStringMap(capacity int) *IntStringMap { return New(StringTraits, capacity) }

// NewIntIntMap creates an int→int map
func NewIntIntMap(capacity int) *IntIntMap { return New(KeyTraits, capacity) }
