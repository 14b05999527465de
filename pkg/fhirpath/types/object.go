package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
)

// ObjectValue represents a FHIR resource or complex type backed by its raw
// JSON object. Field lookups parse lazily (via jsonparser, which avoids a
// full unmarshal) and are cached on first access.
type ObjectValue struct {
	data   []byte
	fields map[string]Value
}

// NewObjectValue wraps a JSON object's bytes as an ObjectValue.
func NewObjectValue(data []byte) *ObjectValue {
	return &ObjectValue{data: data, fields: make(map[string]Value)}
}

// Complex FHIR type names inferred from object shape when resourceType is
// absent (i.e. this object is a nested data type, not a resource root).
const (
	typeQuantity        = "Quantity"
	typeCoding          = "Coding"
	typeCodeableConcept = "CodeableConcept"
	typeReference       = "Reference"
	typePeriod          = "Period"
	typeIdentifier      = "Identifier"
	typeRange           = "Range"
	typeRatio           = "Ratio"
	typeAttachment      = "Attachment"
	typeHumanName       = "HumanName"
	typeAddress         = "Address"
	typeContactPoint    = "ContactPoint"
	typeAnnotation      = "Annotation"
	typeMoney           = "Money"
	typeObject          = "Object"
)

// shapeRule names a complex type by a predicate over the object's present
// fields; rules are tried in order and the first match wins, so more
// specific shapes (Money before Quantity, CodeableConcept before a bare
// Reference) must precede their more general supersets.
type shapeRule struct {
	name    string
	matches func(o *ObjectValue) bool
}

var shapeRules = []shapeRule{
	{typeMoney, func(o *ObjectValue) bool { return o.hasField("value") && o.hasField("currency") }},
	{typeQuantity, func(o *ObjectValue) bool {
		return o.hasField("value") && !o.hasStringField("value") &&
			(o.hasField("unit") || o.hasField("code") || o.hasField("system"))
	}},
	{typeCoding, func(o *ObjectValue) bool {
		return o.hasField("system") && o.hasField("code") && !o.hasField("value")
	}},
	{typeCodeableConcept, func(o *ObjectValue) bool { return o.hasArrayField("coding") }},
	{typeReference, func(o *ObjectValue) bool { return o.hasField("reference") }},
	{typePeriod, func(o *ObjectValue) bool { return o.hasField("start") || o.hasField("end") }},
	{typeIdentifier, func(o *ObjectValue) bool { return o.hasField("system") && o.hasStringField("value") }},
	{typeRange, func(o *ObjectValue) bool { return o.hasField("low") || o.hasField("high") }},
	{typeRatio, func(o *ObjectValue) bool { return o.hasField("numerator") || o.hasField("denominator") }},
	{typeAttachment, func(o *ObjectValue) bool { return o.hasField("contentType") }},
	{typeHumanName, func(o *ObjectValue) bool { return o.hasField("family") || o.hasArrayField("given") }},
	{typeAddress, func(o *ObjectValue) bool { return o.hasField("city") || o.hasField("postalCode") }},
	{typeContactPoint, func(o *ObjectValue) bool { return o.hasField("system") && o.hasField("use") }},
	{typeAnnotation, func(o *ObjectValue) bool {
		return o.hasField("text") && (o.hasField("time") || o.hasField("authorReference") || o.hasField("authorString"))
	}},
}

// Type returns the FHIR type of this object: resourceType for a resource
// root, or a best-effort guess from field shape for a nested complex type.
func (o *ObjectValue) Type() string {
	if rt, err := jsonparser.GetString(o.data, "resourceType"); err == nil {
		return rt
	}
	for _, rule := range shapeRules {
		if rule.matches(o) {
			return rule.name
		}
	}
	return typeObject
}

// hasField reports whether name is present in the object, of any type.
func (o *ObjectValue) hasField(name string) bool {
	_, _, _, err := jsonparser.Get(o.data, name)
	return err == nil
}

// hasArrayField reports whether name is present and holds a JSON array.
func (o *ObjectValue) hasArrayField(name string) bool {
	_, dataType, _, err := jsonparser.Get(o.data, name)
	return err == nil && dataType == jsonparser.Array
}

// hasStringField reports whether name is present and holds a JSON string.
func (o *ObjectValue) hasStringField(name string) bool {
	_, dataType, _, err := jsonparser.Get(o.data, name)
	return err == nil && dataType == jsonparser.String
}

// Equal compares objects by their raw JSON bytes.
func (o *ObjectValue) Equal(other Value) bool {
	ov, ok := other.(*ObjectValue)
	return ok && bytes.Equal(o.data, ov.data)
}

// Equivalent is the same as Equal for objects; FHIRPath's looser ~
// semantics (case/whitespace-insensitive comparison) don't apply to
// structured complex types.
func (o *ObjectValue) Equivalent(other Value) bool {
	return o.Equal(other)
}

// String returns the object's JSON representation.
func (o *ObjectValue) String() string {
	return string(o.data)
}

// IsEmpty is always false: an ObjectValue, once constructed, represents a
// present object.
func (o *ObjectValue) IsEmpty() bool {
	return false
}

// Data returns the object's raw JSON bytes.
func (o *ObjectValue) Data() []byte {
	return o.data
}

// Get retrieves a single field, caching the decoded Value.
func (o *ObjectValue) Get(field string) (Value, bool) {
	if v, ok := o.fields[field]; ok {
		return v, true
	}
	raw, dataType, _, err := jsonparser.Get(o.data, field)
	if err != nil {
		return nil, false
	}
	v := jsonValueToFHIRValue(raw, dataType)
	o.fields[field] = v
	return v, true
}

// GetCollection retrieves field as a Collection: every element if it's a
// JSON array, otherwise a singleton (or empty, if absent/null).
func (o *ObjectValue) GetCollection(field string) Collection {
	raw, dataType, _, err := jsonparser.Get(o.data, field)
	if err != nil {
		return Collection{}
	}
	if dataType == jsonparser.Array {
		return jsonArrayToCollection(raw)
	}
	if v := jsonValueToFHIRValue(raw, dataType); v != nil {
		return Collection{v}
	}
	return Collection{}
}

// Keys returns the object's field names, in JSON document order.
func (o *ObjectValue) Keys() []string {
	var keys []string
	//nolint:errcheck // ObjectEach only errors for non-objects; o.data is always a valid object
	jsonparser.ObjectEach(o.data, func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		keys = append(keys, string(key))
		return nil
	})
	return keys
}

// Children returns every field's value flattened into one Collection, with
// array fields spliced in rather than nested.
func (o *ObjectValue) Children() Collection {
	var result Collection
	//nolint:errcheck // ObjectEach only errors for non-objects; o.data is always a valid object
	jsonparser.ObjectEach(o.data, func(_ []byte, raw []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType == jsonparser.Array {
			result = append(result, jsonArrayToCollection(raw)...)
			return nil
		}
		if v := jsonValueToFHIRValue(raw, dataType); v != nil {
			result = append(result, v)
		}
		return nil
	})
	return result
}

// looksLikeInteger reports whether a JSON number literal has no fractional
// or exponent part.
func looksLikeInteger(s string) bool {
	return !strings.ContainsAny(s, ".eE")
}

// jsonValueToFHIRValue decodes one jsonparser-scanned value into the
// matching FHIRPath Value type. Arrays are not handled here - callers
// route those through jsonArrayToCollection instead.
func jsonValueToFHIRValue(data []byte, dataType jsonparser.ValueType) Value {
	switch dataType {
	case jsonparser.String:
		var s string
		if err := json.Unmarshal(append([]byte{'"'}, append(data, '"')...), &s); err != nil {
			s = string(data)
		}
		return NewString(s)

	case jsonparser.Number:
		s := string(data)
		if looksLikeInteger(s) {
			if i, err := jsonparser.ParseInt(data); err == nil {
				return NewInteger(i)
			}
		}
		d, err := NewDecimal(s)
		if err != nil {
			return nil
		}
		return d

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil
		}
		return NewBoolean(b)

	case jsonparser.Object:
		return NewObjectValue(data)

	default: // Array (handled by the caller), Null
		return nil
	}
}

// jsonArrayToCollection decodes every element of a JSON array.
func jsonArrayToCollection(data []byte) Collection {
	var result Collection
	//nolint:errcheck // ArrayEach only errors for non-arrays; data is already validated as an array
	jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if v := jsonValueToFHIRValue(value, dataType); v != nil {
			result = append(result, v)
		}
	})
	return result
}

// JSONToCollection decodes arbitrary top-level JSON (object, array, scalar,
// or null) into a Collection.
func JSONToCollection(data []byte) (Collection, error) {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}

	switch dataType {
	case jsonparser.Object:
		return Collection{NewObjectValue(value)}, nil
	case jsonparser.Array:
		return jsonArrayToCollection(value), nil
	case jsonparser.Null:
		return Collection{}, nil
	default:
		if v := jsonValueToFHIRValue(value, dataType); v != nil {
			return Collection{v}, nil
		}
		return Collection{}, nil
	}
}

// ToQuantity attempts to read this object as a FHIR Quantity ("value" plus
// an optional "unit" or "code"), for the Compare coercion that lets a raw
// valueQuantity JSON object order against a types.Quantity.
func (o *ObjectValue) ToQuantity() (Quantity, bool) {
	raw, dataType, _, err := jsonparser.Get(o.data, "value")
	if err != nil || dataType != jsonparser.Number {
		return Quantity{}, false
	}
	val, err := decimal.NewFromString(string(raw))
	if err != nil {
		return Quantity{}, false
	}

	unit := ""
	if unitBytes, _, _, err := jsonparser.Get(o.data, "unit"); err == nil {
		unit = string(unitBytes)
	} else if codeBytes, _, _, err := jsonparser.Get(o.data, "code"); err == nil {
		unit = string(codeBytes)
	}

	return NewQuantityFromDecimal(val, unit), true
}
