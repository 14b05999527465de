// Package funcs' where/select/repeat/ofType/is/as are not registered
// here: the evaluator's specialForms table (pkg/fhirpath/eval/funcdef.go)
// intercepts all of them directly in Evaluator.evalInvocation, since
// each needs per-item re-evaluation of an unevaluated argument
// expression (where/select/repeat) or needs to read an argument as a
// type name rather than a value (ofType/is/as) — neither of which fits
// the FuncImpl(ctx, input, []interface{}) contract every other
// registered built-in uses.
package funcs
