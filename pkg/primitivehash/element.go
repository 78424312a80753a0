package primitivehash

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	vterrors "github.com/seasr/vtable/pkg/errors"
	"github.com/seasr/vtable/pkg/logger"
)

// Element is a sortable cell: a value, the row it came from and the flags
// that make it invalid for ordering purposes.
type Element struct {
	Value   any
	Index   int
	Missing bool
	Empty   bool
	Default bool
	Exists  bool
}

// NewElement creates a valid element for value at row index
func NewElement(value any, index int) Element {
	return Element{Value: value, Index: index, Exists: true}
}

// Invalid reports whether the element is missing, empty, default or absent
func (e Element) Invalid() bool {
	return e.Missing || e.Empty || e.Default || !e.Exists
}

// Compare orders e against other. Invalid elements are equal to each other
// and sort after every valid element. Valid elements holding different
// value types cannot be ordered; Compare logs a warning and returns -1.
func (e Element) Compare(other Element) int {
	c, err := e.CompareStrict(other)
	if err != nil {
		logger.Warn("cannot compare elements",
			zap.String("type", fmt.Sprintf("%T", e.Value)),
			zap.String("other_type", fmt.Sprintf("%T", other.Value)),
			zap.Int("index", e.Index),
			zap.Int("other_index", other.Index))
		return -1
	}
	return c
}

// CompareStrict is Compare but returns an incomparable error on a type
// mismatch instead of guessing an order.
func (e Element) CompareStrict(other Element) (int, error) {
	switch {
	case e.Invalid() && other.Invalid():
		return 0, nil
	case e.Invalid():
		return 1, nil
	case other.Invalid():
		return -1, nil
	}
	c, ok := compareValues(e.Value, other.Value)
	if !ok {
		return 0, vterrors.New(vterrors.ErrorTypeIncomparable, "elements hold different value types").
			WithDetail("type", fmt.Sprintf("%T", e.Value)).
			WithDetail("other_type", fmt.Sprintf("%T", other.Value))
	}
	return c, nil
}

// String renders the element the way a table cell would be printed
func (e Element) String() string {
	switch {
	case e.Missing:
		return "Missing"
	case e.Empty:
		return "Empty"
	case !e.Exists:
		return "Does not exist"
	case e.Default:
		return "Default"
	}
	switch v := e.Value.(type) {
	case []rune:
		return string(v)
	case []byte:
		return string(v)
	}
	return fmt.Sprint(e.Value)
}

// SortElements sorts elements with Compare, keeping the row order of equal
// elements.
func SortElements(elems []Element) {
	slices.SortStableFunc(elems, func(a, b Element) int { return a.Compare(b) })
}

// compareFloat matches lessFloat: NaN sorts after every number
func compareFloat[V ~float32 | ~float64](a, b V) int {
	switch {
	case lessFloat(a, b):
		return -1
	case lessFloat(b, a):
		return 1
	}
	return 0
}

// compareValues orders two values of the same dynamic type. The second
// result is false when the types differ or are not orderable.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	case byte:
		bv, ok := b.(byte)
		return cmp.Compare(av, bv), ok
	case rune:
		bv, ok := b.(rune)
		return cmp.Compare(av, bv), ok
	case int:
		bv, ok := b.(int)
		return cmp.Compare(av, bv), ok
	case int64:
		bv, ok := b.(int64)
		return cmp.Compare(av, bv), ok
	case float32:
		bv, ok := b.(float32)
		return compareFloat(av, bv), ok
	case float64:
		bv, ok := b.(float64)
		return compareFloat(av, bv), ok
	case string:
		bv, ok := b.(string)
		return strings.Compare(av, bv), ok
	case []rune:
		bv, ok := b.([]rune)
		return slices.Compare(av, bv), ok
	case []byte:
		bv, ok := b.([]byte)
		return slices.Compare(av, bv), ok
	}
	return 0, false
}
