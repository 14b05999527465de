// Package eval walks the ast.Node tree produced by pkg/fhirpath/parser
// and produces a types.Collection result, per spec.md §4.3/§4.5. It
// replaces the teacher's ANTLR-visitor-based Evaluator — grounded on
// the same control-flow shape (VisitFunctionInvocation's per-function
// switch, VisitInvocationExpression's $this rebinding, navigateMember's
// choice-type resolution) but driving a hand-rolled ast.Node instead of
// a grammar-generated parse tree.
package eval

import (
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/ast"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

// Evaluator walks an ast.Node tree against a Context, dispatching
// non-lambda-bearing function calls to a FuncRegistry.
type Evaluator struct {
	funcs FuncRegistry
}

// NewEvaluator creates an Evaluator backed by funcs.
func NewEvaluator(funcs FuncRegistry) *Evaluator {
	return &Evaluator{funcs: funcs}
}

// Evaluate runs expr against ctx and returns its result collection.
func (e *Evaluator) Evaluate(ctx *Context, expr ast.Node) (types.Collection, error) {
	result, _, err := e.eval(ctx, expr)
	return result, err
}

// eval returns the node's result plus the (possibly updated) context
// that subsequent steps in the same invocation chain must continue
// with — defineVariable is the only node that changes it, binding a
// new variable that remains visible for the rest of the chain it
// appears in (spec.md §4.5).
func (e *Evaluator) eval(ctx *Context, node ast.Node) (types.Collection, *Context, error) {
	if err := ctx.CheckCancellation(); err != nil {
		return nil, ctx, err
	}
	if err := ctx.Step(); err != nil {
		return nil, ctx, err
	}

	switch n := node.(type) {
	case *ast.Literal:
		if n.Value == nil {
			return types.Collection{}, ctx, nil
		}
		return types.Collection{n.Value}, ctx, nil

	case *ast.Identifier:
		return e.evalIdentifier(ctx, n)

	case *ast.Path:
		target, ctx2, err := e.eval(ctx, n.Target)
		if err != nil {
			return nil, ctx, err
		}
		result, err := e.navigateMember(ctx2, target, n.Member.Name)
		if err != nil {
			return nil, ctx, err
		}
		return result, ctx2, nil

	case *ast.Index:
		return e.evalIndex(ctx, n)

	case *ast.Unary:
		return e.evalUnary(ctx, n)

	case *ast.Binary:
		return e.evalBinary(ctx, n)

	case *ast.Union:
		left, _, err := e.eval(ctx, n.LHS)
		if err != nil {
			return nil, ctx, err
		}
		right, _, err := e.eval(ctx, n.RHS)
		if err != nil {
			return nil, ctx, err
		}
		return Union(left, right), ctx, nil

	case *ast.EnvVariable:
		v, ok := ctx.LookupVariable(n.Name)
		if !ok {
			return nil, ctx, NewEvalError(ErrInvalidExpression, "unknown environment variable %%%s", n.Name)
		}
		return v, ctx, nil

	case *ast.TypeSpecifier:
		// Only reached if a type specifier appears outside is/as/ofType;
		// evaluate it as a string naming the type, matching FHIRPath's
		// treatment of a bare type name as its own literal text.
		return types.Collection{types.NewString(n.String())}, ctx, nil

	case *ast.Invocation:
		return e.evalInvocation(ctx, n)

	default:
		return nil, ctx, NewEvalError(ErrInvalidExpression, "unsupported expression node %T", node)
	}
}

// evalIdentifier resolves a bare name against the current focus: the
// special lambda variables, then resource-type filtering, then plain
// member navigation (grounded on the teacher's VisitThisInvocation/
// VisitIndexInvocation/VisitTotalInvocation and VisitMemberInvocation).
func (e *Evaluator) evalIdentifier(ctx *Context, n *ast.Identifier) (types.Collection, *Context, error) {
	switch n.Name {
	case "$this":
		return ctx.This(), ctx, nil
	case "$index":
		return types.Collection{types.NewInteger(int64(ctx.Index()))}, ctx, nil
	case "$total":
		if ctx.Total() != nil {
			return types.Collection{ctx.Total()}, ctx, nil
		}
		return types.Collection{}, ctx, nil
	}
	result, err := e.navigateMember(ctx, ctx.This(), n.Name)
	if err != nil {
		return nil, ctx, err
	}
	return result, ctx, nil
}

func (e *Evaluator) evalIndex(ctx *Context, n *ast.Index) (types.Collection, *Context, error) {
	target, ctx2, err := e.eval(ctx, n.Target)
	if err != nil {
		return nil, ctx, err
	}
	idxCol, _, err := e.eval(ctx2, n.Index)
	if err != nil {
		return nil, ctx, err
	}
	if idxCol.Empty() {
		return types.Collection{}, ctx2, nil
	}
	idx, ok := idxCol[0].(types.Integer)
	if !ok {
		return nil, ctx, TypeError("Integer", idxCol[0].Type(), "indexer")
	}
	i := int(idx.Value())
	if i < 0 || i >= len(target) {
		return types.Collection{}, ctx2, nil
	}
	return types.Collection{target[i]}, ctx2, nil
}

func (e *Evaluator) evalUnary(ctx *Context, n *ast.Unary) (types.Collection, *Context, error) {
	rhs, ctx2, err := e.eval(ctx, n.RHS)
	if err != nil {
		return nil, ctx, err
	}
	if n.Op == "not" {
		return Not(rhs), ctx2, nil
	}
	if rhs.Empty() {
		return types.Collection{}, ctx2, nil
	}
	if len(rhs) != 1 {
		return nil, ctx, SingletonError(len(rhs))
	}
	if n.Op == "+" {
		return types.Collection{rhs[0]}, ctx2, nil
	}
	v, err := Negate(rhs[0])
	if err != nil {
		return nil, ctx, err
	}
	return types.Collection{v}, ctx2, nil
}

func (e *Evaluator) evalBinary(ctx *Context, n *ast.Binary) (types.Collection, *Context, error) {
	if n.Op == "is" || n.Op == "as" {
		return e.evalIsAs(ctx, n)
	}

	lhs, ctx2, err := e.eval(ctx, n.LHS)
	if err != nil {
		return nil, ctx, err
	}
	// and/or/implies skip the right operand once the left one decides
	// the result; xor always needs both.
	if lb, ok := asBool(lhs); ok {
		switch {
		case n.Op == "and" && !lb:
			return types.FalseCollection, ctx2, nil
		case n.Op == "or" && lb:
			return types.TrueCollection, ctx2, nil
		case n.Op == "implies" && !lb:
			return types.TrueCollection, ctx2, nil
		}
	}
	rhs, ctx3, err := e.eval(ctx2, n.RHS)
	if err != nil {
		return nil, ctx, err
	}

	switch n.Op {
	case "and":
		return And(lhs, rhs), ctx3, nil
	case "or":
		return Or(lhs, rhs), ctx3, nil
	case "xor":
		return Xor(lhs, rhs), ctx3, nil
	case "implies":
		return Implies(lhs, rhs), ctx3, nil
	case "=":
		return Equal(lhs, rhs), ctx3, nil
	case "!=":
		return NotEqual(lhs, rhs), ctx3, nil
	case "~":
		return Equivalent(lhs, rhs), ctx3, nil
	case "!~":
		return NotEquivalent(lhs, rhs), ctx3, nil
	case "in":
		return In(lhs, rhs), ctx3, nil
	case "contains":
		return Contains(lhs, rhs), ctx3, nil
	case "&":
		return Concatenate(lhs, rhs), ctx3, nil
	}

	// Remaining operators (arithmetic + relational) require singleton
	// operands with standard Empty-propagation.
	if lhs.Empty() || rhs.Empty() {
		return types.Collection{}, ctx3, nil
	}
	if len(lhs) != 1 || len(rhs) != 1 {
		return nil, ctx, SingletonError(len(lhs) + len(rhs))
	}
	l, r := lhs[0], rhs[0]

	switch n.Op {
	case "<":
		col, err := LessThan(l, r)
		return col, ctx3, err
	case "<=":
		col, err := LessOrEqual(l, r)
		return col, ctx3, err
	case ">":
		col, err := GreaterThan(l, r)
		return col, ctx3, err
	case ">=":
		col, err := GreaterOrEqual(l, r)
		return col, ctx3, err
	case "+":
		v, err := Add(l, r)
		if err != nil {
			return nil, ctx, err
		}
		return types.Collection{v}, ctx3, nil
	case "-":
		v, err := Subtract(l, r)
		if err != nil {
			return nil, ctx, err
		}
		return types.Collection{v}, ctx3, nil
	case "*":
		v, err := Multiply(l, r)
		if err != nil {
			return nil, ctx, err
		}
		return types.Collection{v}, ctx3, nil
	case "/":
		v, err := Divide(l, r)
		if err != nil {
			return nil, ctx, err
		}
		return types.Collection{v}, ctx3, nil
	case "div":
		v, err := IntegerDivide(l, r)
		if err != nil {
			return nil, ctx, err
		}
		return types.Collection{v}, ctx3, nil
	case "mod":
		v, err := Modulo(l, r)
		if err != nil {
			return nil, ctx, err
		}
		return types.Collection{v}, ctx3, nil
	}

	return nil, ctx, NewEvalError(ErrInvalidOperation, "unsupported operator %q", n.Op)
}

// evalIsAs handles `expr is Type` and `expr as Type`; both require a
// singleton operand (grounded on the teacher's evaluateIsFunction/
// evaluateAsFunction).
func (e *Evaluator) evalIsAs(ctx *Context, n *ast.Binary) (types.Collection, *Context, error) {
	ts, ok := n.RHS.(*ast.TypeSpecifier)
	if !ok {
		return nil, ctx, NewEvalError(ErrInvalidExpression, "%s requires a type specifier", n.Op)
	}
	lhs, ctx2, err := e.eval(ctx, n.LHS)
	if err != nil {
		return nil, ctx, err
	}
	if lhs.Empty() {
		return types.Collection{}, ctx2, nil
	}
	if len(lhs) != 1 {
		return nil, ctx, SingletonError(len(lhs))
	}

	actualType := lhs[0].Type()
	matches := typeMatches(actualType, ts.Namespace, ts.Name)
	if !matches {
		if obj, ok := lhs[0].(*types.ObjectValue); ok {
			if ok2, _ := ctx.Model().IsSubtypeOf(ctx.Context(), obj.Type(), ts.Name); ok2 {
				matches = true
			}
		}
	}

	if n.Op == "is" {
		return types.Collection{types.NewBoolean(matches)}, ctx2, nil
	}
	if matches {
		return lhs, ctx2, nil
	}
	return types.Collection{}, ctx2, nil
}

// typeNameFromNode extracts a dotted type name (namespace, name) from
// an expression used in an ofType(...) argument position, where the
// parser has no a-priori way to know the argument names a type instead
// of a value (unlike is/as, which parse a dedicated TypeSpecifier).
func typeNameFromNode(node ast.Node) (namespace, name string, ok bool) {
	switch t := node.(type) {
	case *ast.TypeSpecifier:
		return t.Namespace, t.Name, true
	case *ast.Identifier:
		return "", t.Name, true
	case *ast.Path:
		if id, ok2 := t.Target.(*ast.Identifier); ok2 {
			return id.Name, t.Member.Name, true
		}
	}
	return "", "", false
}

// navigateMember implements member access including the FHIR
// polymorphic value[x] pattern and resource-type-name filtering,
// grounded on the teacher's navigateMember/resolvePolymorphicField but
// delegating choice-type resolution to the configured ModelProvider.
// With StrictUnknownProperty set, a name that matches none of these —
// not a type filter, not a present field, not a resolvable choice
// property — is an error rather than silent empty-propagation.
func (e *Evaluator) navigateMember(ctx *Context, input types.Collection, name string) (types.Collection, error) {
	var result types.Collection
	for _, item := range input {
		obj, ok := item.(*types.ObjectValue)
		if !ok {
			continue
		}
		if isSubtypeOf(obj.Type(), name) {
			result = append(result, obj)
			continue
		}
		if children := obj.GetCollection(name); len(children) > 0 {
			result = append(result, children...)
			continue
		}
		if fieldName, ok := ctx.Model().ResolveChoiceField(ctx.Context(), obj, name); ok {
			result = append(result, obj.GetCollection(fieldName)...)
			continue
		}
		if ctx.StrictUnknownProperty() {
			return nil, NewEvalError(ErrInvalidPath, "unknown property %q on %s", name, obj.Type())
		}
	}
	if result == nil {
		return types.Collection{}, nil
	}
	return result, nil
}
