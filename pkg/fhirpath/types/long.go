package types

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Long represents a FHIRPath Long value: a wider integer tag, distinct
// from Integer. No expression evaluated by this module produces one:
// there is no toLong()/convertsToLong() function and numeric literals
// never become Long. Carries the same saturating-on-overflow
// arithmetic policy as Integer (spec.md §4.3, §8.2).
type Long struct {
	value int64
}

// NewLong creates a new Long value.
func NewLong(v int64) Long {
	return Long{value: v}
}

// Value returns the underlying int64 value.
func (l Long) Value() int64 {
	return l.value
}

// Type returns "Long".
func (l Long) Type() string {
	return "Long"
}

// Equal returns true if other is numerically equal.
func (l Long) Equal(other Value) bool {
	switch o := other.(type) {
	case Long:
		return l.value == o.value
	case Integer:
		return l.value == o.value
	case Decimal:
		return l.ToDecimal().Equal(o)
	}
	return false
}

// Equivalent is the same as Equal for longs.
func (l Long) Equivalent(other Value) bool {
	return l.Equal(other)
}

// String returns the decimal string representation.
func (l Long) String() string {
	return fmt.Sprintf("%d", l.value)
}

// IsEmpty returns false for Long values.
func (l Long) IsEmpty() bool {
	return false
}

// ToDecimal converts the Long to a Decimal.
func (l Long) ToDecimal() Decimal {
	return Decimal{value: decimal.NewFromInt(l.value)}
}

// ToInteger narrows the Long to an Integer. Overflow is not possible
// here because both are backed by int64; this exists only to cross
// between the two tags explicitly (toInteger() on a Long value).
func (l Long) ToInteger() Integer {
	return NewInteger(l.value)
}

// Compare compares two numeric values.
func (l Long) Compare(other Value) (int, error) {
	switch o := other.(type) {
	case Long:
		return cmpInt64(l.value, o.value), nil
	case Integer:
		return cmpInt64(l.value, o.value), nil
	case Decimal:
		return l.ToDecimal().Compare(o)
	}
	return 0, NewTypeError("Long", other.Type(), "comparison")
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Add returns the sum of two Longs, saturating on overflow.
func (l Long) Add(other Long) Long {
	return NewLong(saturatingAdd(l.value, other.value))
}

// Subtract returns the difference of two Longs, saturating on overflow.
func (l Long) Subtract(other Long) Long {
	return NewLong(saturatingSub(l.value, other.value))
}

// Multiply returns the product of two Longs, saturating on overflow.
func (l Long) Multiply(other Long) Long {
	return NewLong(saturatingMul(l.value, other.value))
}

// Divide returns the result of division as a Decimal.
func (l Long) Divide(other Long) (Decimal, error) {
	if other.value == 0 {
		return Decimal{}, fmt.Errorf("division by zero")
	}
	return l.ToDecimal().Divide(other.ToDecimal())
}

// Div returns the integer division result.
func (l Long) Div(other Long) (Long, error) {
	if other.value == 0 {
		return Long{}, fmt.Errorf("division by zero")
	}
	return NewLong(l.value / other.value), nil
}

// Mod returns the modulo result.
func (l Long) Mod(other Long) (Long, error) {
	if other.value == 0 {
		return Long{}, fmt.Errorf("division by zero")
	}
	return NewLong(l.value % other.value), nil
}

// Negate returns the negation of the Long.
func (l Long) Negate() Long {
	if l.value == math.MinInt64 {
		return NewLong(math.MaxInt64)
	}
	return NewLong(-l.value)
}

// Abs returns the absolute value.
func (l Long) Abs() Long {
	if l.value < 0 {
		return l.Negate()
	}
	return l
}
