package types

import "fmt"

// TypeInfo is the value produced by the type() built-in: a reflection
// handle naming a value's namespace-qualified type (spec.md §3.1).
type TypeInfo struct {
	namespace string // "System" for primitives, "FHIR" for resources/complex types
	name      string
}

// NewTypeInfo creates a TypeInfo value.
func NewTypeInfo(namespace, name string) TypeInfo {
	return TypeInfo{namespace: namespace, name: name}
}

// Namespace returns the type's namespace ("System" or "FHIR").
func (t TypeInfo) Namespace() string {
	return t.namespace
}

// Name returns the unqualified type name.
func (t TypeInfo) Name() string {
	return t.name
}

// Type returns "TypeInfo".
func (t TypeInfo) Type() string {
	return "TypeInfo"
}

// Equal returns true if other is a TypeInfo naming the same type.
func (t TypeInfo) Equal(other Value) bool {
	if o, ok := other.(TypeInfo); ok {
		return t.namespace == o.namespace && t.name == o.name
	}
	return false
}

// Equivalent is the same as Equal for TypeInfo.
func (t TypeInfo) Equivalent(other Value) bool {
	return t.Equal(other)
}

// String returns "Namespace.Name".
func (t TypeInfo) String() string {
	if t.namespace == "" {
		return t.name
	}
	return fmt.Sprintf("%s.%s", t.namespace, t.name)
}

// IsEmpty returns false for TypeInfo values.
func (t TypeInfo) IsEmpty() bool {
	return false
}
