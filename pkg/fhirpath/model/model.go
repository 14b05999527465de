// Package model defines the ModelProvider interface consumed by the
// evaluator to resolve FHIR schema questions — choice-type (value[x])
// resolution and type-hierarchy membership for is/as — plus a
// ConformsTo profile check that no evaluator path calls, and a
// dependency-free BasicProvider
// default grounded on structural heuristics, per spec.md §6.2.
package model

import (
	"context"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

// Provider answers FHIR-schema questions the evaluator cannot answer
// from the wire JSON alone. Implementations may consult a full
// StructureDefinition registry; BasicProvider falls back to structural
// inference. All methods are async because a real implementation may
// need to fetch schema data (spec.md §4.6 marks is/as/ofType/resolve/
// conformsTo as async registry entries for this reason).
type Provider interface {
	// ResolveChoiceField returns the concrete field name (e.g.
	// "valueQuantity") for a choice-type property access like
	// "value" on a value[x]-bearing object, or "" if name is not a
	// recognised choice property.
	ResolveChoiceField(ctx context.Context, obj *types.ObjectValue, name string) (string, bool)

	// IsSubtypeOf reports whether actualType is, or derives from,
	// baseType in the FHIR type hierarchy (e.g. "Patient" is a
	// subtype of "Resource" and "DomainResource").
	IsSubtypeOf(ctx context.Context, actualType, baseType string) (bool, error)

	// ConformsTo reports whether the resource satisfies the named
	// profile. BasicProvider always returns false, nil (it has no
	// profile registry).
	ConformsTo(ctx context.Context, resource *types.ObjectValue, profileURL string) (bool, error)
}

// BasicProvider is the default Provider: no external schema, pure
// structural inference from the choice-type suffix list FHIR defines
// for each primitive/complex datatype and a table of primitive type
// names, both declared below.
type BasicProvider struct{}

// NewBasicProvider constructs the default provider.
func NewBasicProvider() *BasicProvider { return &BasicProvider{} }

// choiceTypeSuffixes enumerates the FHIR datatype suffixes a
// value[x]-style choice property may carry.
var choiceTypeSuffixes = []string{
	"Boolean", "Integer", "Integer64", "Decimal", "String", "Code", "Id", "Uri", "Url", "Canonical",
	"Base64Binary", "Instant", "Date", "DateTime", "Time", "Oid", "Uuid", "Markdown", "PositiveInt", "UnsignedInt",
	"Quantity", "CodeableConcept", "Coding", "Range", "Period", "Ratio", "RatioRange",
	"Identifier", "Reference", "Attachment", "HumanName", "Address", "ContactPoint",
	"Timing", "Signature", "Annotation", "SampledData", "Age", "Distance", "Duration",
	"Count", "Money", "MoneyQuantity", "SimpleQuantity",
	"Meta", "Dosage", "ContactDetail", "Contributor", "DataRequirement", "Expression",
	"ParameterDefinition", "RelatedArtifact", "TriggerDefinition", "UsageContext",
}

// ResolveChoiceField tries every known suffix in turn; the first that
// is actually present on obj wins (a FHIR resource never populates
// more than one variant of a given choice property).
func (BasicProvider) ResolveChoiceField(_ context.Context, obj *types.ObjectValue, name string) (string, bool) {
	for _, suffix := range choiceTypeSuffixes {
		fieldName := name + suffix
		if _, ok := obj.Get(fieldName); ok {
			return fieldName, true
		}
	}
	return "", false
}

// resourceBaseTypes are the abstract FHIR base types every concrete
// resource type derives from.
var resourceBaseTypes = map[string]bool{
	"Resource": true, "DomainResource": true,
}

// IsSubtypeOf implements a pragmatic structural check: exact or
// case-insensitive name match, or baseType naming one of the abstract
// Resource/DomainResource roots with actualType looking like a FHIR
// resource type name (PascalCase, not a known primitive).
func (BasicProvider) IsSubtypeOf(_ context.Context, actualType, baseType string) (bool, error) {
	if actualType == baseType {
		return true, nil
	}
	if equalFold(actualType, baseType) {
		return true, nil
	}
	if resourceBaseTypes[baseType] {
		return looksLikeResourceType(actualType), nil
	}
	return false, nil
}

// ConformsTo has nothing to check without a profile registry.
func (BasicProvider) ConformsTo(_ context.Context, _ *types.ObjectValue, _ string) (bool, error) {
	return false, nil
}

var primitiveTypeNames = map[string]bool{
	"boolean": true, "integer": true, "integer64": true, "decimal": true, "string": true,
	"code": true, "id": true, "uri": true, "url": true, "canonical": true, "base64binary": true,
	"instant": true, "date": true, "datetime": true, "time": true, "oid": true, "uuid": true,
	"markdown": true, "positiveint": true, "unsignedint": true, "xhtml": true,
}

func looksLikeResourceType(name string) bool {
	if name == "" {
		return false
	}
	if primitiveTypeNames[toLower(name)] {
		return false
	}
	first := name[0]
	return first >= 'A' && first <= 'Z'
}

func equalFold(a, b string) bool { return toLower(a) == toLower(b) }

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
