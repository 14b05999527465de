package funcs_test

import (
	"testing"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath"
)

// is() and as() in function-call form are dispatched by the evaluator's
// specialForms table rather than the FuncRegistry (see typechecking.go),
// so they're exercised here through full expression evaluation rather
// than a direct FuncDef lookup.
func TestIsFunctionCallForm(t *testing.T) {
	doc := []byte(`{"resourceType": "Patient", "active": true, "multipleBirthInteger": 2}`)

	tests := []struct {
		name     string
		expr     string
		expected bool
	}{
		{"string is String", "'hello'.is(String)", true},
		{"string is not Integer", "'hello'.is(Integer)", false},
		{"integer is Integer", "(42).is(Integer)", true},
		{"boolean is Boolean", "true.is(Boolean)", true},
		{"field is Boolean", "Patient.active.is(Boolean)", true},
		{"choice field is Integer", "Patient.multipleBirth.is(Integer)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := fhirpath.Evaluate(doc, tt.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := result.ToBoolean()
			if err != nil {
				t.Fatalf("ToBoolean() error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsFunctionCallFormEmptyInput(t *testing.T) {
	doc := []byte(`{"resourceType": "Patient"}`)

	result, err := fhirpath.Evaluate(doc, "Patient.deceased.is(Boolean)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Empty() {
		t.Errorf("expected empty result, got %v", result)
	}
}

func TestAsFunctionCallForm(t *testing.T) {
	doc := []byte(`{"resourceType": "Patient", "multipleBirthInteger": 2}`)

	result, err := fhirpath.Evaluate(doc, "Patient.multipleBirth.as(Integer)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Empty() {
		t.Fatal("expected non-empty result")
	}
	if got := result[0].String(); got != "2" {
		t.Errorf("expected 2, got %q", got)
	}

	result, err = fhirpath.Evaluate(doc, "Patient.multipleBirth.as(String)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Empty() {
		t.Errorf("expected empty result on type mismatch, got %v", result)
	}
}
