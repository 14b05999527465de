package funcs

import (
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "empty", MinArgs: 0, MaxArgs: 0, Fn: fnEmpty})
	Register(FuncDef{Name: "exists", MinArgs: 0, MaxArgs: 1, Fn: fnExists})
	Register(FuncDef{Name: "all", MinArgs: 1, MaxArgs: 1, Fn: fnAll})
	Register(FuncDef{Name: "allTrue", MinArgs: 0, MaxArgs: 0, Fn: fnAllTrue})
	Register(FuncDef{Name: "anyTrue", MinArgs: 0, MaxArgs: 0, Fn: fnAnyTrue})
	Register(FuncDef{Name: "allFalse", MinArgs: 0, MaxArgs: 0, Fn: fnAllFalse})
	Register(FuncDef{Name: "anyFalse", MinArgs: 0, MaxArgs: 0, Fn: fnAnyFalse})
	Register(FuncDef{Name: "count", MinArgs: 0, MaxArgs: 0, Fn: fnCount})
	Register(FuncDef{Name: "distinct", MinArgs: 0, MaxArgs: 0, Fn: fnDistinct})
	Register(FuncDef{Name: "isDistinct", MinArgs: 0, MaxArgs: 0, Fn: fnIsDistinct})
	Register(FuncDef{Name: "subsetOf", MinArgs: 1, MaxArgs: 1, Fn: fnSubsetOf})
	Register(FuncDef{Name: "supersetOf", MinArgs: 1, MaxArgs: 1, Fn: fnSupersetOf})
}

// boolResult converts a plain bool into the shared singleton True/False
// collections, avoiding a fresh allocation per call.
func boolResult(b bool) types.Collection {
	if b {
		return types.TrueCollection
	}
	return types.FalseCollection
}

func fnEmpty(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(input.Empty()), nil
}

// fnExists reports whether the collection is non-empty. exists(criteria)
// never reaches here: the evaluator's specialForms dispatch handles that
// form itself, so this entry serves the argument-free call and direct
// registry lookups, and ignores any argument it is given.
func fnExists(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(!input.Empty()), nil
}

// fnAll always returns true and ignores its input and argument. The
// evaluator never calls it: all(criteria) is one of the specialForms and
// is evaluated per item there, so this entry is reached only through a
// direct registry lookup.
func fnAll(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	return types.TrueCollection, nil
}

func fnAllTrue(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(input.Empty() || input.AllTrue()), nil
}

func fnAnyTrue(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(!input.Empty() && input.AnyTrue()), nil
}

func fnAllFalse(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(input.Empty() || input.AllFalse()), nil
}

func fnAnyFalse(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(!input.Empty() && input.AnyFalse()), nil
}

func fnCount(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return types.Collection{types.GetInteger(int64(input.Count()))}, nil
}

func fnDistinct(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return input.Distinct(), nil
}

func fnIsDistinct(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return boolResult(input.IsDistinct()), nil
}

// containmentArg pulls the "other" collection out of a subsetOf/supersetOf
// argument, which always arrives pre-evaluated as a Collection.
func containmentArg(name string, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError(name, 1, 0)
	}
	other, ok := args[0].(types.Collection)
	if !ok {
		return nil, eval.TypeError("Collection", "unknown", name)
	}
	return other, nil
}

// allContained reports whether every element of from appears in within.
func allContained(from, within types.Collection) bool {
	for _, item := range from {
		if !within.Contains(item) {
			return false
		}
	}
	return true
}

// fnSubsetOf reports whether every item in the input also appears in the
// argument collection.
func fnSubsetOf(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	other, err := containmentArg("subsetOf", args)
	if err != nil {
		return nil, err
	}
	return boolResult(allContained(input, other)), nil
}

// fnSupersetOf reports whether every item in the argument collection also
// appears in the input.
func fnSupersetOf(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	other, err := containmentArg("supersetOf", args)
	if err != nil {
		return nil, err
	}
	return boolResult(allContained(other, input)), nil
}
