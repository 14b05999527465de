package eval

import "github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"

// FuncImpl is the signature every non-lambda-bearing built-in
// implements. Arguments arrive pre-evaluated against the ambient
// focus — lambda-bearing functions (where, select, all, exists,
// repeat, aggregate, iif, defineVariable) are special-cased by the
// evaluator itself instead of going through the registry, since each
// needs per-item control over when and under what $this/$index/$total
// its argument expressions run.
type FuncImpl func(ctx *Context, input types.Collection, args []interface{}) (types.Collection, error)

// FuncDef describes one registered built-in function.
type FuncDef struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 means unbounded
	Fn      FuncImpl
}

// FuncRegistry is an interface for function lookup, implemented by
// pkg/fhirpath/funcs.Registry.
type FuncRegistry interface {
	Get(name string) (FuncDef, bool)
}

// specialForms are handled directly by Evaluator.evalInvocation rather
// than through the FuncRegistry — grounded on the teacher's
// VisitFunctionInvocation switch, which special-cased where/exists/
// all/select/is/as/ofType/iif for the same reasons: where/select/all/
// exists/repeat/aggregate each re-evaluate an argument expression once
// per input item under a rebound $this/$index/$total; iif evaluates
// its branches lazily; defineVariable and ofType interpret an argument
// as something other than an eagerly-evaluated value (a name binding
// that must outlive the call, and a type name respectively).
var specialForms = map[string]bool{
	"where": true, "select": true, "all": true, "exists": true,
	"repeat": true, "aggregate": true,
	"iif": true, "defineVariable": true, "ofType": true,
	"is": true, "as": true,
}
