// Package fhirpath compiles and evaluates FHIRPath expressions against FHIR
// resources encoded as JSON.
//
// A compiled Expression can be reused across many resources; Compile,
// Evaluate, and the cached variants in cache.go are the typical entry
// points:
//
//	expr, err := fhirpath.Compile("name.given.first()")
//	result, err := expr.Evaluate(patientJSON)
//
//	// or, for one-off evaluation with implicit compile caching:
//	result, err := fhirpath.EvaluateCached(patientJSON, "active.exists()")
package fhirpath
