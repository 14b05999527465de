package fhirpath

import (
	"github.com/go-fhirpath/fhirpath/pkg/common"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/parser"
)

// compile parses a FHIRPath expression into a compiled Expression.
func compile(expr string) (*Expression, error) {
	if expr == "" {
		return nil, common.WrapPath(expr, common.ErrInvalidExpression)
	}

	root, err := parser.Parse(expr)
	if err != nil {
		return nil, common.WrapPathf(expr, "parse error: %w", err)
	}

	return &Expression{
		source: expr,
		root:   root,
	}, nil
}
