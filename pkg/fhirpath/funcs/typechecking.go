// Package funcs: is() and as() in function-call form
// (`value.is(Type)`, `value.as(Type)`) are equivalent to the `is`/`as`
// infix operators but name their type via an ordinary invocation
// argument rather than a dedicated type-specifier production. Both are
// intercepted by the evaluator's specialForms table
// (pkg/fhirpath/eval/funcdef.go) rather than registered here, since
// their argument names a type instead of evaluating to a value — a
// path expression like "Composition" would otherwise navigate a member
// of that name instead of naming a type.
package funcs
