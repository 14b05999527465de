package funcs

import (
	"strconv"
	"strings"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
	"github.com/shopspring/decimal"
)

// tryConvert attempts a single-value conversion, reporting ok=false when
// the source value can't become the target type. Each toX/convertsToX pair
// below shares one of these instead of duplicating the type switch twice.
type tryConvert func(v types.Value) (types.Value, bool)

func init() {
	for name, try := range converters {
		Register(FuncDef{Name: "to" + name, MinArgs: 0, MaxArgs: 0, Fn: makeToFn(try)})
		Register(FuncDef{Name: "convertsTo" + name, MinArgs: 0, MaxArgs: 0, Fn: makeConvertsFn(try)})
	}

	Register(FuncDef{Name: "iif", MinArgs: 2, MaxArgs: 3, Fn: fnIif})
	Register(FuncDef{Name: "toQuantity", MinArgs: 0, MaxArgs: 1, Fn: fnToQuantity})
	Register(FuncDef{Name: "convertsToQuantity", MinArgs: 0, MaxArgs: 1, Fn: fnConvertsToQuantity})
}

// converters maps the capitalized type suffix (Boolean, Integer, ...) used
// in toX/convertsToX names to the shared conversion logic. Quantity is
// handled separately below since it takes an optional unit argument.
var converters = map[string]tryConvert{
	"Boolean": tryToBoolean,
	"Integer": tryToInteger,
	"Decimal": tryToDecimal,
	"String":  tryToString,
	"Date":    tryToDate,
	"DateTime": func(v types.Value) (types.Value, bool) {
		switch t := v.(type) {
		case types.DateTime:
			return t, true
		case types.String:
			dt, err := types.NewDateTime(t.Value())
			return dt, err == nil
		}
		return nil, false
	},
	"Time": func(v types.Value) (types.Value, bool) {
		switch t := v.(type) {
		case types.Time:
			return t, true
		case types.String:
			tm, err := types.NewTime(t.Value())
			return tm, err == nil
		}
		return nil, false
	},
}

// makeToFn adapts a tryConvert into the empty-on-failure toX FuncImpl shape.
func makeToFn(try tryConvert) eval.FuncImpl {
	return func(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
		if input.Empty() {
			return types.Collection{}, nil
		}
		if v, ok := try(input[0]); ok {
			return types.Collection{v}, nil
		}
		return types.Collection{}, nil
	}
}

// makeConvertsFn adapts a tryConvert into the boolean-reporting
// convertsToX FuncImpl shape.
func makeConvertsFn(try tryConvert) eval.FuncImpl {
	return func(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
		if input.Empty() {
			return types.Collection{types.NewBoolean(false)}, nil
		}
		_, ok := try(input[0])
		return types.Collection{types.NewBoolean(ok)}, nil
	}
}

func tryToBoolean(v types.Value) (types.Value, bool) {
	switch t := v.(type) {
	case types.Boolean:
		return t, true
	case types.String:
		switch strings.ToLower(t.Value()) {
		case "true", "t", "yes", "y", "1", "1.0":
			return types.NewBoolean(true), true
		case "false", "f", "no", "n", "0", "0.0":
			return types.NewBoolean(false), true
		}
		return nil, false
	case types.Integer:
		switch t.Value() {
		case 1:
			return types.NewBoolean(true), true
		case 0:
			return types.NewBoolean(false), true
		}
		return nil, false
	case types.Decimal:
		switch {
		case t.Value().Equal(decimal.NewFromInt(1)):
			return types.NewBoolean(true), true
		case t.Value().Equal(decimal.NewFromInt(0)):
			return types.NewBoolean(false), true
		}
		return nil, false
	default:
		return nil, false
	}
}

func tryToInteger(v types.Value) (types.Value, bool) {
	switch t := v.(type) {
	case types.Integer:
		return t, true
	case types.Boolean:
		if t.Bool() {
			return types.NewInteger(1), true
		}
		return types.NewInteger(0), true
	case types.String:
		i, err := strconv.ParseInt(t.Value(), 10, 64)
		if err != nil {
			return nil, false
		}
		return types.NewInteger(i), true
	case types.Decimal:
		return types.NewInteger(t.Value().IntPart()), true
	default:
		return nil, false
	}
}

func tryToDecimal(v types.Value) (types.Value, bool) {
	switch t := v.(type) {
	case types.Decimal:
		return t, true
	case types.Integer:
		return types.NewDecimalFromInt(t.Value()), true
	case types.Boolean:
		if t.Bool() {
			return types.NewDecimalFromInt(1), true
		}
		return types.NewDecimalFromInt(0), true
	case types.String:
		d, err := types.NewDecimal(t.Value())
		if err != nil {
			return nil, false
		}
		return d, true
	default:
		return nil, false
	}
}

func tryToString(v types.Value) (types.Value, bool) {
	switch v.(type) {
	case types.String, types.Boolean, types.Integer, types.Decimal:
		return types.NewString(v.String()), true
	default:
		return nil, false
	}
}

func tryToDate(v types.Value) (types.Value, bool) {
	switch t := v.(type) {
	case types.Date:
		return t, true
	case types.DateTime:
		d, err := types.NewDate(t.String()[:10])
		if err != nil {
			return nil, false
		}
		return d, true
	case types.String:
		d, err := types.NewDate(t.Value())
		if err != nil {
			return nil, false
		}
		return d, true
	default:
		return nil, false
	}
}

// fnIif picks between already-evaluated condition/branch arguments and
// returns whichever branch applies. The evaluator never calls it: iif is
// one of the specialForms, evaluated in eval/invocation.go where only the
// taken branch runs, so this entry is reached only through a direct
// registry lookup.
func fnIif(_ *eval.Context, _ types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) < 2 {
		return nil, eval.InvalidArgumentsError("iif", 2, len(args))
	}

	condition := false
	if cond, ok := args[0].(types.Collection); ok && !cond.Empty() {
		if b, ok := cond[0].(types.Boolean); ok {
			condition = b.Bool()
		}
	}

	branch := 1
	if !condition {
		branch = 2
	}
	if branch >= len(args) {
		return types.Collection{}, nil
	}
	if result, ok := args[branch].(types.Collection); ok {
		return result, nil
	}
	return types.Collection{}, nil
}

// quantityUnitArg extracts the optional unit string passed as toQuantity's
// single argument.
func quantityUnitArg(args []interface{}) string {
	if len(args) == 0 {
		return ""
	}
	argCol, ok := args[0].(types.Collection)
	if !ok || argCol.Empty() {
		return ""
	}
	if s, ok := argCol[0].(types.String); ok {
		return s.Value()
	}
	return ""
}

// fnToQuantity converts Integer/Decimal input to a Quantity using the
// optional unit argument, parses a quantity literal out of a String, or
// passes an existing Quantity through unchanged.
func fnToQuantity(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}

	unit := quantityUnitArg(args)
	switch v := input[0].(type) {
	case types.Quantity:
		return types.Collection{v}, nil
	case types.Integer:
		return types.Collection{types.NewQuantityFromDecimal(decimal.NewFromInt(v.Value()), unit)}, nil
	case types.Decimal:
		return types.Collection{types.NewQuantityFromDecimal(v.Value(), unit)}, nil
	case types.String:
		q, err := types.NewQuantity(v.Value())
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{q}, nil
	default:
		return types.Collection{}, nil
	}
}

// fnConvertsToQuantity mirrors fnToQuantity's cases but reports success
// rather than producing the value.
func fnConvertsToQuantity(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(false)}, nil
	}

	switch v := input[0].(type) {
	case types.Quantity, types.Integer, types.Decimal:
		return types.Collection{types.NewBoolean(true)}, nil
	case types.String:
		_, err := types.NewQuantity(v.Value())
		return types.Collection{types.NewBoolean(err == nil)}, nil
	default:
		return types.Collection{types.NewBoolean(false)}, nil
	}
}
