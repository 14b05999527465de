// Package common provides the PathError wrapper and sentinel errors the
// top-level fhirpath package uses for internal, non-diagnostic Go
// errors (compile/marshal failures) that never reach a caller as a
// located diag.Diagnostic.
package common
