package types

import "strconv"

// Boolean is the FHIRPath Boolean primitive.
type Boolean struct {
	value bool
}

// NewBoolean wraps a Go bool as a Boolean.
func NewBoolean(v bool) Boolean {
	return Boolean{value: v}
}

// Bool unwraps the underlying bool.
func (b Boolean) Bool() bool {
	return b.value
}

// Type implements Value.
func (b Boolean) Type() string {
	return "Boolean"
}

// Equal implements Value.
func (b Boolean) Equal(other Value) bool {
	o, ok := other.(Boolean)
	return ok && b.value == o.value
}

// Equivalent implements Value; Boolean has no looser ~ semantics beyond =.
func (b Boolean) Equivalent(other Value) bool {
	return b.Equal(other)
}

// String implements Value, rendering "true" or "false".
func (b Boolean) String() string {
	return strconv.FormatBool(b.value)
}

// IsEmpty implements Value; a constructed Boolean is never empty.
func (b Boolean) IsEmpty() bool {
	return false
}

// Not returns the logical negation of b.
func (b Boolean) Not() Boolean {
	return Boolean{value: !b.value}
}
