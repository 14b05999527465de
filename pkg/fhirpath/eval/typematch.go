package eval

import "strings"

// nonDomainResources lists the FHIR resources that derive directly
// from Resource rather than DomainResource, per the FHIR type
// hierarchy (grounded on the teacher's IsDomainResource/nonDomainResources).
var nonDomainResources = map[string]bool{
	"Bundle": true, "Binary": true, "Parameters": true,
}

func isDomainResource(resourceType string) bool {
	return !nonDomainResources[resourceType]
}

// isSubtypeOf reports whether actualType is, or derives from, baseType
// in the FHIR/System type hierarchy. Grounded on the teacher's
// IsSubtypeOf/isPossibleResourceType. This structural check runs first
// for is()/as()/ofType(); is()/as() fall back to ctx.Model().IsSubtypeOf
// only when it fails, and ofType() never consults the model.
func isSubtypeOf(actualType, baseType string) bool {
	if actualType == baseType {
		return true
	}
	if strings.EqualFold(actualType, baseType) {
		return true
	}
	if strings.EqualFold(baseType, "Resource") {
		return isPossibleResourceType(actualType)
	}
	if strings.EqualFold(baseType, "DomainResource") {
		return isPossibleResourceType(actualType) && isDomainResource(actualType)
	}
	return false
}

func isPossibleResourceType(typeName string) bool {
	if typeName == "" {
		return false
	}
	primitiveTypes := map[string]bool{
		"Boolean": true, "String": true, "Integer": true, "Integer64": true, "Decimal": true,
		"Date": true, "DateTime": true, "Time": true, "Quantity": true, "Object": true,
	}
	if primitiveTypes[typeName] {
		return false
	}
	return typeName[0] >= 'A' && typeName[0] <= 'Z'
}

// fhirToFHIRPathType maps lowercase FHIR primitive type names to their
// FHIRPath System type, for is/as/ofType arguments written in FHIR's
// own lowercase vocabulary (e.g. `value.is(FHIR.dateTime)`).
var fhirToFHIRPathType = map[string]string{
	"boolean": "Boolean", "string": "String", "integer": "Integer", "decimal": "Decimal",
	"date": "Date", "datetime": "DateTime", "time": "Time", "instant": "DateTime",
	"uri": "String", "url": "String", "canonical": "String", "base64binary": "String",
	"code": "String", "id": "String", "markdown": "String", "oid": "String", "uuid": "String",
	"positiveint": "Integer", "unsignedint": "Integer", "integer64": "Integer",
	"quantity": "Quantity", "simplequantity": "Quantity", "age": "Quantity", "count": "Quantity",
	"distance": "Quantity", "duration": "Quantity", "money": "Quantity",
}

// typeMatches decides whether actualType satisfies a type name written
// in an is/as/ofType position, including FHIR's lowercase primitive
// vocabulary and the System./FHIR. namespace prefixes (grounded on the
// teacher's TypeMatches).
func typeMatches(actualType, namespace, typeName string) bool {
	if actualType == typeName {
		return true
	}
	if strings.EqualFold(actualType, typeName) {
		return true
	}
	if isSubtypeOf(actualType, typeName) {
		return true
	}
	typeNameLower := strings.ToLower(typeName)
	if fpType, ok := fhirToFHIRPathType[typeNameLower]; ok && actualType == fpType {
		return true
	}
	if fpType, ok := fhirToFHIRPathType[strings.ToLower(actualType)]; ok && strings.EqualFold(fpType, typeName) {
		return true
	}
	switch strings.ToLower(namespace) {
	case "system":
		return strings.EqualFold(actualType, typeName)
	case "fhir":
		return strings.EqualFold(actualType, typeName) || typeMatches(actualType, "", typeName)
	}
	return false
}
