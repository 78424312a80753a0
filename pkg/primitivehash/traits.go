package primitivehash

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
)

// Traits describes how a map handles its value type: the value returned for
// absent keys, the ordering used by sorted-order derivation, conversion from
// arbitrary objects and numeric adjustment.
type Traits[V comparable] struct {
	// Name identifies the value type in logs and errors
	Name string
	// Default is returned by Get and Remove for absent keys
	Default V
	// Less orders values for SortedOrder and ValuesInRange
	Less func(a, b V) bool
	// Convert turns an arbitrary object into a V
	Convert func(obj any) (V, error)
	// Adjust adds amount to v. Nil means the type cannot be adjusted.
	Adjust func(v V, amount float64) V
}

// WithDefault returns a copy of the traits using def for absent keys
func (t Traits[V]) WithDefault(def V) Traits[V] {
	t.Default = def
	return t
}

type number interface {
	~uint8 | ~int32 | ~int64 | ~int | ~float32 | ~float64
}

type ordered interface {
	number | ~string
}

func lessOrdered[V ordered](a, b V) bool { return a < b }

// lessFloat orders NaN after every number and equal to itself
func lessFloat[V ~float32 | ~float64](a, b V) bool {
	if a != a {
		return false
	}
	return b != b || a < b
}

// sameValue is == except that NaN matches NaN
func sameValue[V comparable](a, b V) bool {
	return a == b || (a != a && b != b)
}

func addAmount[V number](v V, amount float64) V {
	return V(float64(v) + amount)
}

// BoolTraits orders false before true. Adjusting a boolean toggles it.
var BoolTraits = Traits[bool]{
	Name:    "boolean",
	Default: false,
	Less:    func(a, b bool) bool { return !a && b },
	Convert: func(obj any) (bool, error) { return cast.ToBoolE(obj) },
	Adjust:  func(v bool, _ float64) bool { return !v },
}

// ByteTraits handles byte values
var ByteTraits = Traits[byte]{
	Name:    "byte",
	Less:    lessOrdered[byte],
	Convert: convertByte,
	Adjust:  addAmount[byte],
}

// CharTraits handles single characters. The default is NUL.
var CharTraits = Traits[rune]{
	Name:    "char",
	Less:    lessOrdered[rune],
	Convert: convertChar,
	Adjust:  addAmount[rune],
}

// IntTraits handles 32-bit integers
var IntTraits = Traits[int32]{
	Name:    "int",
	Less:    lessOrdered[int32],
	Convert: convertInt32,
	Adjust:  addAmount[int32],
}

// LongTraits handles 64-bit integers
var LongTraits = Traits[int64]{
	Name:    "long",
	Less:    lessOrdered[int64],
	Convert: convertInt64,
	Adjust:  addAmount[int64],
}

// KeyTraits handles int values; it backs IntIntMap, the permutation type.
var KeyTraits = Traits[int]{
	Name:    "key",
	Less:    lessOrdered[int],
	Convert: convertInt,
	Adjust:  addAmount[int],
}

// FloatTraits handles 32-bit floats. NaN sorts after every number.
var FloatTraits = Traits[float32]{
	Name:    "float",
	Less:    lessFloat[float32],
	Convert: func(obj any) (float32, error) { return cast.ToFloat32E(obj) },
	Adjust:  addAmount[float32],
}

// DoubleTraits handles 64-bit floats. NaN sorts after every number.
var DoubleTraits = Traits[float64]{
	Name:    "double",
	Less:    lessFloat[float64],
	Convert: func(obj any) (float64, error) { return cast.ToFloat64E(obj) },
	Adjust:  addAmount[float64],
}

// StringTraits handles strings. Strings cannot be adjusted.
var StringTraits = Traits[string]{
	Name:    "string",
	Default: "",
	Less:    lessOrdered[string],
	Convert: convertString,
}

// parseDecimal parses s as a base-10 integer of the given bit size. Leading
// zeros are decimal digits, not an octal prefix; a zero fraction such as
// "12.0" is accepted.
func parseDecimal(s string, bitSize int) (int64, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i > 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	return strconv.ParseInt(s, 10, bitSize)
}

func convertInt32(obj any) (int32, error) {
	if s, ok := obj.(string); ok {
		n, err := parseDecimal(s, 32)
		return int32(n), err
	}
	return cast.ToInt32E(obj)
}

func convertInt64(obj any) (int64, error) {
	if s, ok := obj.(string); ok {
		return parseDecimal(s, 64)
	}
	return cast.ToInt64E(obj)
}

func convertInt(obj any) (int, error) {
	if s, ok := obj.(string); ok {
		n, err := parseDecimal(s, strconv.IntSize)
		return int(n), err
	}
	return cast.ToIntE(obj)
}

func convertByte(obj any) (byte, error) {
	switch v := obj.(type) {
	case byte:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		n, err := strconv.ParseUint(s, 10, 8)
		return byte(n), err
	case []byte:
		if len(v) == 0 {
			return 0, nil
		}
		return v[0], nil
	}
	return cast.ToUint8E(obj)
}

// convertChar takes the first rune of textual input and the code point of
// numeric input.
func convertChar(obj any) (rune, error) {
	switch v := obj.(type) {
	case rune:
		return v, nil
	case string:
		if v == "" {
			return 0, nil
		}
		r, _ := utf8.DecodeRuneInString(v)
		return r, nil
	case []rune:
		if len(v) == 0 {
			return 0, nil
		}
		return v[0], nil
	case []byte:
		if len(v) == 0 {
			return 0, nil
		}
		r, _ := utf8.DecodeRune(v)
		return r, nil
	}
	return cast.ToInt32E(obj)
}

func convertString(obj any) (string, error) {
	switch v := obj.(type) {
	case []rune:
		return string(v), nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return cast.ToStringE(obj)
}
