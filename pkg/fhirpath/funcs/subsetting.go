package funcs

import (
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "first", MinArgs: 0, MaxArgs: 0, Fn: fnFirst})
	Register(FuncDef{Name: "last", MinArgs: 0, MaxArgs: 0, Fn: fnLast})
	Register(FuncDef{Name: "tail", MinArgs: 0, MaxArgs: 0, Fn: fnTail})
	Register(FuncDef{Name: "single", MinArgs: 0, MaxArgs: 0, Fn: fnSingle})

	for name, count := range map[string]func(types.Collection, int) types.Collection{
		"skip": types.Collection.Skip,
		"take": types.Collection.Take,
	} {
		count := count
		Register(FuncDef{Name: name, MinArgs: 1, MaxArgs: 1, Fn: makeCountFn(name, count)})
	}

	for name, combine := range map[string]func(types.Collection, types.Collection) types.Collection{
		"intersect": types.Collection.Intersect,
		"exclude":   types.Collection.Exclude,
	} {
		combine := combine
		Register(FuncDef{Name: name, MinArgs: 1, MaxArgs: 1, Fn: makeCombineFn(name, combine)})
	}
}

func fnFirst(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if first, ok := input.First(); ok {
		return types.Collection{first}, nil
	}
	return types.Collection{}, nil
}

func fnLast(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if last, ok := input.Last(); ok {
		return types.Collection{last}, nil
	}
	return types.Collection{}, nil
}

func fnTail(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return input.Tail(), nil
}

// fnSingle requires the input collection to hold exactly one item,
// reporting a singleton-expected evaluation error otherwise.
func fnSingle(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	single, err := input.Single()
	if err != nil {
		return nil, eval.NewEvalError(eval.ErrSingletonExpected, err.Error())
	}
	return types.Collection{single}, nil
}

// makeCountFn adapts a (Collection, int) Collection method - Skip or Take -
// into a FuncImpl that reads its count from the single integer argument.
func makeCountFn(name string, count func(types.Collection, int) types.Collection) eval.FuncImpl {
	return func(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
		if len(args) == 0 {
			return nil, eval.InvalidArgumentsError(name, 1, 0)
		}
		n, err := toInteger(args[0])
		if err != nil {
			return nil, err
		}
		return count(input, int(n)), nil
	}
}

// makeCombineFn adapts a (Collection, Collection) Collection method -
// Intersect or Exclude - into a FuncImpl that reads its argument collection
// from the single pre-evaluated argument.
func makeCombineFn(name string, combine func(types.Collection, types.Collection) types.Collection) eval.FuncImpl {
	return func(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
		if len(args) == 0 {
			return nil, eval.InvalidArgumentsError(name, 1, 0)
		}
		other, ok := args[0].(types.Collection)
		if !ok {
			return nil, eval.TypeError("Collection", "unknown", name)
		}
		return combine(input, other), nil
	}
}

// toInteger coerces a function-call argument down to int64, accepting the
// raw Go integer kinds as well as a wrapped types.Integer/Collection.
func toInteger(arg interface{}) (int64, error) {
	switch v := arg.(type) {
	case types.Collection:
		if v.Empty() {
			return 0, eval.NewEvalError(eval.ErrType, "expected integer, got empty collection")
		}
		if i, ok := v[0].(types.Integer); ok {
			return i.Value(), nil
		}
		return 0, eval.TypeError("Integer", v[0].Type(), "argument")
	case types.Integer:
		return v.Value(), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, eval.NewEvalError(eval.ErrType, "expected integer")
	}
}
