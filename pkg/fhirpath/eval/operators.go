package eval

import (
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

// Arithmetic operators

// numericPair widens an Integer/Decimal pair to a common Decimal
// representation, reporting ok=false when either side isn't numeric at
// all - the caller then falls through to whatever non-numeric cases it
// still supports (Date+Quantity, String+String, ...).
func numericPair(left, right types.Value) (l, r types.Decimal, ok bool) {
	switch lv := left.(type) {
	case types.Integer:
		l = lv.ToDecimal()
	case types.Decimal:
		l = lv
	default:
		return l, r, false
	}
	switch rv := right.(type) {
	case types.Integer:
		r = rv.ToDecimal()
	case types.Decimal:
		r = rv
	default:
		return l, r, false
	}
	return l, r, true
}

// durationArg reports whether right is a Quantity usable as a date/
// datetime arithmetic duration, and its integer component.
func durationArg(right types.Value) (amount int, ok bool) {
	q, ok := right.(types.Quantity)
	if !ok {
		return 0, false
	}
	return int(q.Value().IntPart()), true
}

// integerPair reports whether both operands are Integers, so that
// Integer-only arithmetic can stay Integer instead of widening.
func integerPair(left, right types.Value) (l, r types.Integer, ok bool) {
	l, lok := left.(types.Integer)
	r, rok := right.(types.Integer)
	return l, r, lok && rok
}

// Add performs addition on two values: Integer + Integer stays Integer
// (saturating), any Decimal operand widens to Decimal, string
// concatenation, Date/DateTime + Quantity duration arithmetic, and
// Quantity + Quantity.
func Add(left, right types.Value) (types.Value, error) {
	if l, r, ok := integerPair(left, right); ok {
		return l.Add(r), nil
	}
	if l, r, ok := numericPair(left, right); ok {
		return l.Add(r), nil
	}

	switch l := left.(type) {
	case types.String:
		if r, ok := right.(types.String); ok {
			return types.NewString(l.Value() + r.Value()), nil
		}
	case types.Date:
		if amount, ok := durationArg(right); ok {
			return l.AddDuration(amount, right.(types.Quantity).Unit()), nil
		}
	case types.DateTime:
		if amount, ok := durationArg(right); ok {
			return l.AddDuration(amount, right.(types.Quantity).Unit()), nil
		}
	case types.Quantity:
		if r, ok := right.(types.Quantity); ok {
			return l.Add(r)
		}
	}
	return nil, InvalidOperationError("+", left.Type(), right.Type())
}

// Subtract performs subtraction, mirroring Add's case set minus string
// concatenation (FHIRPath has no "-" for strings).
func Subtract(left, right types.Value) (types.Value, error) {
	if l, r, ok := integerPair(left, right); ok {
		return l.Subtract(r), nil
	}
	if l, r, ok := numericPair(left, right); ok {
		return l.Subtract(r), nil
	}

	switch l := left.(type) {
	case types.Date:
		if amount, ok := durationArg(right); ok {
			return l.SubtractDuration(amount, right.(types.Quantity).Unit()), nil
		}
	case types.DateTime:
		if amount, ok := durationArg(right); ok {
			return l.SubtractDuration(amount, right.(types.Quantity).Unit()), nil
		}
	case types.Quantity:
		if r, ok := right.(types.Quantity); ok {
			return l.Subtract(r)
		}
	}
	return nil, InvalidOperationError("-", left.Type(), right.Type())
}

// Multiply performs numeric multiplication; FHIRPath defines * only over
// Integer/Decimal. Integer * Integer stays Integer (saturating).
func Multiply(left, right types.Value) (types.Value, error) {
	if l, r, ok := integerPair(left, right); ok {
		return l.Multiply(r), nil
	}
	if l, r, ok := numericPair(left, right); ok {
		return l.Multiply(r), nil
	}
	return nil, InvalidOperationError("*", left.Type(), right.Type())
}

// Divide performs decimal division; both operands widen to Decimal first.
func Divide(left, right types.Value) (types.Value, error) {
	l, r, ok := numericPair(left, right)
	if !ok {
		return nil, InvalidOperationError("/", left.Type(), right.Type())
	}
	return l.Divide(r)
}

// IntegerDivide performs the div operator, which (unlike / and *) is
// Integer-only.
func IntegerDivide(left, right types.Value) (types.Value, error) {
	l, lok := left.(types.Integer)
	r, rok := right.(types.Integer)
	if !lok || !rok {
		return nil, InvalidOperationError("div", left.Type(), right.Type())
	}
	return l.Div(r)
}

// Modulo performs the mod operator, also Integer-only.
func Modulo(left, right types.Value) (types.Value, error) {
	l, lok := left.(types.Integer)
	r, rok := right.(types.Integer)
	if !lok || !rok {
		return nil, InvalidOperationError("mod", left.Type(), right.Type())
	}
	return l.Mod(r)
}

// Negate negates a numeric value.
func Negate(value types.Value) (types.Value, error) {
	switch v := value.(type) {
	case types.Integer:
		return v.Negate(), nil
	case types.Decimal:
		return v.Negate(), nil
	}
	return nil, NewEvalError(ErrType, "cannot negate "+value.Type())
}

// Comparison operators

// Compare orders two values, returning -1/0/1. An ObjectValue standing in
// for a FHIR Quantity (e.g. an untyped `valueQuantity` JSON object) is
// coerced to a Quantity first when being compared against one.
func Compare(left, right types.Value) (int, error) {
	if obj, ok := left.(*types.ObjectValue); ok {
		if _, rightIsQty := right.(types.Quantity); rightIsQty {
			if q, ok := obj.ToQuantity(); ok {
				return q.Compare(right)
			}
		}
	}
	if obj, ok := right.(*types.ObjectValue); ok {
		if _, leftIsQty := left.(types.Quantity); leftIsQty {
			if q, ok := obj.ToQuantity(); ok {
				if comp, ok := left.(types.Comparable); ok {
					return comp.Compare(q)
				}
			}
		}
	}

	if comp, ok := left.(types.Comparable); ok {
		return comp.Compare(right)
	}
	return 0, InvalidOperationError("compare", left.Type(), right.Type())
}

// compareTo runs Compare and reports whether the result satisfies pred;
// shared by the four ordering operators below.
func compareTo(left, right types.Value, pred func(cmp int) bool) (types.Collection, error) {
	cmp, err := Compare(left, right)
	if err != nil {
		return nil, err
	}
	return boolCollection(pred(cmp)), nil
}

func boolCollection(b bool) types.Collection {
	if b {
		return types.TrueCollection
	}
	return types.FalseCollection
}

// LessThan returns true if left < right.
func LessThan(left, right types.Value) (types.Collection, error) {
	return compareTo(left, right, func(cmp int) bool { return cmp < 0 })
}

// LessOrEqual returns true if left <= right.
func LessOrEqual(left, right types.Value) (types.Collection, error) {
	return compareTo(left, right, func(cmp int) bool { return cmp <= 0 })
}

// GreaterThan returns true if left > right.
func GreaterThan(left, right types.Value) (types.Collection, error) {
	return compareTo(left, right, func(cmp int) bool { return cmp > 0 })
}

// GreaterOrEqual returns true if left >= right.
func GreaterOrEqual(left, right types.Value) (types.Collection, error) {
	return compareTo(left, right, func(cmp int) bool { return cmp >= 0 })
}

// Equality operators

// Equal returns true if left = right, propagating empty when either side
// is empty or not a singleton.
func Equal(left, right types.Collection) types.Collection {
	if left.Empty() || right.Empty() || len(left) != 1 || len(right) != 1 {
		return types.EmptyCollection
	}
	return boolCollection(left[0].Equal(right[0]))
}

// NotEqual returns true if left != right, propagating Equal's empty cases.
func NotEqual(left, right types.Collection) types.Collection {
	result := Equal(left, right)
	if result.Empty() {
		return result
	}
	return boolCollection(!result[0].(types.Boolean).Bool())
}

// Equivalent returns true if left ~ right. Unlike =, two empty collections
// are themselves equivalent rather than propagating empty.
func Equivalent(left, right types.Collection) types.Collection {
	if left.Empty() && right.Empty() {
		return types.TrueCollection
	}
	if left.Empty() || right.Empty() || len(left) != 1 || len(right) != 1 {
		return types.FalseCollection
	}
	return boolCollection(left[0].Equivalent(right[0]))
}

// NotEquivalent returns true if left !~ right.
func NotEquivalent(left, right types.Collection) types.Collection {
	return boolCollection(!Equivalent(left, right)[0].(types.Boolean).Bool())
}

// Boolean operators (three-valued logic)

// asBool extracts a singleton Boolean's truth value; ok is false for an
// empty collection or a non-Boolean singleton.
func asBool(col types.Collection) (val bool, ok bool) {
	if col.Empty() {
		return false, false
	}
	b, ok := col[0].(types.Boolean)
	return b.Bool(), ok
}

// And implements three-valued AND: false dominates even an empty operand,
// otherwise empty propagates, and true/true AND yields true.
func And(left, right types.Collection) types.Collection {
	lVal, lOk := asBool(left)
	rVal, rOk := asBool(right)

	if lOk && !lVal {
		return types.FalseCollection
	}
	if rOk && !rVal {
		return types.FalseCollection
	}
	if left.Empty() || right.Empty() || !lOk || !rOk {
		return types.EmptyCollection
	}
	return boolCollection(lVal && rVal)
}

// Or implements three-valued OR: true dominates even an empty operand,
// otherwise empty propagates, and false/false OR yields false.
func Or(left, right types.Collection) types.Collection {
	lVal, lOk := asBool(left)
	rVal, rOk := asBool(right)

	if lOk && lVal {
		return types.TrueCollection
	}
	if rOk && rVal {
		return types.TrueCollection
	}
	if left.Empty() || right.Empty() || !lOk || !rOk {
		return types.EmptyCollection
	}
	return boolCollection(lVal || rVal)
}

// Xor implements logical XOR; unlike And/Or it has no dominating operand,
// so any empty or non-Boolean side simply propagates empty.
func Xor(left, right types.Collection) types.Collection {
	lVal, lOk := asBool(left)
	rVal, rOk := asBool(right)
	if !lOk || !rOk {
		return types.EmptyCollection
	}
	return boolCollection(lVal != rVal)
}

// Implies implements material implication: a false antecedent or a true
// consequent short-circuits to true regardless of the other operand.
func Implies(left, right types.Collection) types.Collection {
	lVal, lOk := asBool(left)
	rVal, rOk := asBool(right)

	if lOk && !lVal {
		return types.TrueCollection
	}
	if rOk && rVal {
		return types.TrueCollection
	}
	if left.Empty() || right.Empty() {
		return types.EmptyCollection
	}
	return types.FalseCollection
}

// Not negates a singleton Boolean, propagating empty otherwise.
func Not(value types.Collection) types.Collection {
	val, ok := asBool(value)
	if !ok || len(value) != 1 {
		return types.EmptyCollection
	}
	return boolCollection(!val)
}

// String operators

// Concatenate implements the & operator: string concatenation that treats
// an empty or non-String operand as the empty string, unlike + which
// propagates empty.
func Concatenate(left, right types.Collection) types.Collection {
	asStr := func(col types.Collection) string {
		if col.Empty() {
			return ""
		}
		if s, ok := col[0].(types.String); ok {
			return s.Value()
		}
		return ""
	}
	return types.Collection{types.NewString(asStr(left) + asStr(right))}
}

// Collection operators

// Union returns the union of two collections.
func Union(left, right types.Collection) types.Collection {
	return left.Union(right)
}

// In checks if a singleton left value occurs in the right collection.
func In(left, right types.Collection) types.Collection {
	if left.Empty() || len(left) != 1 {
		return types.EmptyCollection
	}
	return boolCollection(right.Contains(left[0]))
}

// Contains checks if the left collection contains a singleton right value.
func Contains(left, right types.Collection) types.Collection {
	if right.Empty() || len(right) != 1 {
		return types.EmptyCollection
	}
	return boolCollection(left.Contains(right[0]))
}
