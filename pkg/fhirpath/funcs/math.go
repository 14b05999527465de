package funcs

import (
	"math"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
	"github.com/shopspring/decimal"
)

// mathFuncs lists the single-input numeric functions that share the same
// MinArgs/MaxArgs shape; registered in a loop instead of one Register call
// per function.
var mathFuncs = []struct {
	name string
	fn   eval.FuncImpl
}{
	{"abs", fnAbs},
	{"ceiling", fnCeiling},
	{"exp", fnExp},
	{"floor", fnFloor},
	{"ln", fnLn},
	{"sqrt", fnSqrt},
	{"truncate", fnTruncate},
	{"sum", fnSum},
	{"min", fnMin},
	{"max", fnMax},
	{"avg", fnAvg},
}

func init() {
	for _, m := range mathFuncs {
		Register(FuncDef{Name: m.name, MinArgs: 0, MaxArgs: 0, Fn: m.fn})
	}

	Register(FuncDef{Name: "log", MinArgs: 1, MaxArgs: 1, Fn: fnLog})
	Register(FuncDef{Name: "power", MinArgs: 1, MaxArgs: 1, Fn: fnPower})
	Register(FuncDef{Name: "round", MinArgs: 0, MaxArgs: 1, Fn: fnRound})
}

// numericArg coerces the sole input value to a float64, reporting via ok
// whether the value was numeric at all.
func numericArg(v types.Value) (val float64, ok bool) {
	switch n := v.(type) {
	case types.Integer:
		return float64(n.Value()), true
	case types.Decimal:
		return n.Value().InexactFloat64(), true
	default:
		return 0, false
	}
}

// applyUnary runs a float64 -> float64 transform over a single numeric
// input, producing a Decimal result, or an empty collection for non-numeric
// or absent input.
func applyUnary(input types.Collection, f func(float64) float64) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	val, ok := numericArg(input[0])
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(f(val))}, nil
}

func fnAbs(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if i, ok := input[0].(types.Integer); ok {
		val := i.Value()
		if val < 0 {
			val = -val
		}
		return types.Collection{types.NewInteger(val)}, nil
	}
	return applyUnary(input, math.Abs)
}

// roundToInt applies a rounding function to Integer (identity) or Decimal
// input, used by ceiling/floor/truncate which all preserve Integer input
// as-is and otherwise produce a new Integer.
func roundToInt(input types.Collection, round func(float64) float64) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	switch v := input[0].(type) {
	case types.Integer:
		return types.Collection{v}, nil
	case types.Decimal:
		return types.Collection{types.NewInteger(int64(round(v.Value().InexactFloat64())))}, nil
	default:
		return types.Collection{}, nil
	}
}

func fnCeiling(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return roundToInt(input, math.Ceil)
}

func fnFloor(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return roundToInt(input, math.Floor)
}

func fnTruncate(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return roundToInt(input, math.Trunc)
}

func fnExp(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return applyUnary(input, math.Exp)
}

func fnLn(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	val, ok := numericArg(input[0])
	if !ok || val <= 0 {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(math.Log(val))}, nil
}

func fnSqrt(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	val, ok := numericArg(input[0])
	if !ok || val < 0 {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(math.Sqrt(val))}, nil
}

// fnLog computes the logarithm of the input with the given base.
func fnLog(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() || len(args) == 0 {
		return types.Collection{}, nil
	}
	val, ok := numericArg(input[0])
	if !ok {
		return types.Collection{}, nil
	}
	base, err := toFloat(args[0])
	if err != nil || val <= 0 || base <= 0 || base == 1 {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(math.Log(val) / math.Log(base))}, nil
}

// fnPower raises the input to the given exponent, yielding empty on an
// invalid (NaN/Inf) result rather than propagating it.
func fnPower(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() || len(args) == 0 {
		return types.Collection{}, nil
	}
	base, ok := numericArg(input[0])
	if !ok {
		return types.Collection{}, nil
	}
	exp, err := toFloat(args[0])
	if err != nil {
		return types.Collection{}, nil
	}
	result := math.Pow(base, exp)
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewDecimalFromFloat(result)}, nil
}

// fnRound rounds a Decimal to the given number of places (0 if omitted);
// Integer input passes through unchanged.
func fnRound(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}

	var precision int32
	if len(args) > 0 {
		p, err := toInteger(args[0])
		if err != nil {
			return types.Collection{}, nil
		}
		precision = int32(p)
	}

	switch v := input[0].(type) {
	case types.Integer:
		return types.Collection{v}, nil
	case types.Decimal:
		d, _ := types.NewDecimal(v.Value().Round(precision).String())
		return types.Collection{d}, nil
	default:
		return types.Collection{}, nil
	}
}

// toFloat converts an argument - possibly a wrapped Collection from a
// function-call argument - down to a plain float64.
func toFloat(arg interface{}) (float64, error) {
	switch v := arg.(type) {
	case types.Collection:
		if v.Empty() {
			return 0, eval.NewEvalError(eval.ErrType, "expected number, got empty collection")
		}
		return toFloat(v[0])
	case types.Integer:
		return float64(v.Value()), nil
	case types.Decimal:
		return v.Value().InexactFloat64(), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case decimal.Decimal:
		return v.InexactFloat64(), nil
	default:
		return 0, eval.NewEvalError(eval.ErrType, "expected number")
	}
}

// fnSum folds a collection of Integer/Decimal values into their total,
// widening to Decimal as soon as any element is a Decimal. A non-numeric
// element yields empty per the aggregate function contract.
func fnSum(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewInteger(0)}, nil
	}
	if err := ctx.CheckCancellation(); err != nil {
		return nil, err
	}

	var total decimal.Decimal
	widened := false
	for _, item := range input {
		switch v := item.(type) {
		case types.Integer:
			total = total.Add(decimal.NewFromInt(v.Value()))
		case types.Decimal:
			total = total.Add(v.Value())
			widened = true
		default:
			return types.Collection{}, nil
		}
	}

	if widened {
		d, _ := types.NewDecimal(total.String())
		return types.Collection{d}, nil
	}
	return types.Collection{types.NewInteger(total.IntPart())}, nil
}

// fnAvg mirrors fnSum's accumulation but divides by the element count.
func fnAvg(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if err := ctx.CheckCancellation(); err != nil {
		return nil, err
	}

	var total decimal.Decimal
	count := 0
	for _, item := range input {
		switch v := item.(type) {
		case types.Integer:
			total = total.Add(decimal.NewFromInt(v.Value()))
			count++
		case types.Decimal:
			total = total.Add(v.Value())
			count++
		default:
			return types.Collection{}, nil
		}
	}
	if count == 0 {
		return types.Collection{}, nil
	}
	avg := total.Div(decimal.NewFromInt(int64(count)))
	d, _ := types.NewDecimal(avg.String())
	return types.Collection{d}, nil
}

// isOrderable reports whether v is one of the kinds min/max know how to
// compare at all; anything else (Boolean, Quantity, ...) disqualifies the
// whole aggregation.
func isOrderable(v types.Value) bool {
	switch v.(type) {
	case types.Integer, types.Decimal, types.String, types.Date, types.DateTime, types.Time:
		return true
	default:
		return false
	}
}

// orderedCompare reports whether a precedes b. Integer and Decimal compare
// numerically against each other; String/Date/DateTime/Time only compare
// against their own kind via Compare. matched is false when a and b are
// comparable kinds that don't match each other (e.g. String vs Date) - the
// caller treats that as "leave the running extreme alone", mirroring the
// original per-type min/max loop which only updated the running value when
// the new item's concrete type matched it.
func orderedCompare(a, b types.Value) (less bool, matched bool) {
	af, aNum := numericArg(a)
	bf, bNum := numericArg(b)
	if aNum && bNum {
		return af < bf, true
	}

	switch av := a.(type) {
	case types.String:
		if bv, same := b.(types.String); same {
			return av.Value() < bv.Value(), true
		}
	case types.Date:
		if bv, same := b.(types.Date); same {
			cmp, err := av.Compare(bv)
			return cmp < 0, err == nil
		}
	case types.DateTime:
		if bv, same := b.(types.DateTime); same {
			cmp, err := av.Compare(bv)
			return cmp < 0, err == nil
		}
	case types.Time:
		if bv, same := b.(types.Time); same {
			cmp, err := av.Compare(bv)
			return cmp < 0, err == nil
		}
	}
	return false, false
}

// extremum walks the collection tracking the running min (wantLess=true)
// or max (wantLess=false). Used by both fnMin and fnMax so the type-by-type
// comparison logic lives in one place.
func extremum(ctx *eval.Context, input types.Collection, wantLess bool) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if err := ctx.CheckCancellation(); err != nil {
		return nil, err
	}

	var best types.Value
	for _, item := range input {
		if !isOrderable(item) {
			return types.Collection{}, nil
		}
		if best == nil {
			best = item
			continue
		}
		less, matched := orderedCompare(item, best)
		if matched && less == wantLess {
			best = item
		}
	}
	return types.Collection{best}, nil
}

func fnMin(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return extremum(ctx, input, true)
}

func fnMax(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return extremum(ctx, input, false)
}
