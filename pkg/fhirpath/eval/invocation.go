package eval

import (
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/ast"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

// evalInvocation dispatches `target.name(args)` / `name(args)`, routing
// the closed set of specialForms to dedicated per-item evaluation and
// everything else to the FuncRegistry with eagerly-evaluated arguments
// (grounded on the teacher's VisitFunctionInvocation).
func (e *Evaluator) evalInvocation(ctx *Context, n *ast.Invocation) (types.Collection, *Context, error) {
	var focus types.Collection
	focusCtx := ctx
	if n.Target != nil {
		var err error
		focus, focusCtx, err = e.eval(ctx, n.Target)
		if err != nil {
			return nil, ctx, err
		}
	} else {
		focus = ctx.This()
	}
	callCtx := focusCtx.WithThis(focus)

	if specialForms[n.Name] && len(n.Args) > 0 {
		return e.evalSpecialForm(callCtx, n.Name, focus, n.Args)
	}

	fn, ok := e.funcs.Get(n.Name)
	if !ok {
		return nil, ctx, FunctionNotFoundError(n.Name)
	}
	if len(n.Args) < fn.MinArgs {
		return nil, ctx, InvalidArgumentsError(n.Name, fn.MinArgs, len(n.Args))
	}
	if fn.MaxArgs >= 0 && len(n.Args) > fn.MaxArgs {
		return nil, ctx, InvalidArgumentsError(n.Name, fn.MaxArgs, len(n.Args))
	}

	argCtx := callCtx
	args := make([]interface{}, len(n.Args))
	for i, argNode := range n.Args {
		var col types.Collection
		var err error
		col, argCtx, err = e.eval(argCtx, argNode)
		if err != nil {
			return nil, ctx, err
		}
		args[i] = col
	}

	result, err := fn.Fn(argCtx, focus, args)
	if err != nil {
		return nil, ctx, err
	}
	return result, focusCtx, nil
}

// evalSpecialForm implements the per-function deferred-evaluation
// forms that cannot be expressed as a plain FuncImpl.
func (e *Evaluator) evalSpecialForm(ctx *Context, name string, focus types.Collection, args []ast.Node) (types.Collection, *Context, error) {
	switch name {
	case "where":
		return e.evalWhere(ctx, focus, args[0])
	case "select":
		return e.evalSelect(ctx, focus, args[0])
	case "all":
		return e.evalAll(ctx, focus, args[0])
	case "exists":
		return e.evalExists(ctx, focus, args[0])
	case "repeat":
		return e.evalRepeat(ctx, focus, args[0])
	case "aggregate":
		return e.evalAggregate(ctx, focus, args)
	case "iif":
		return e.evalIif(ctx, args)
	case "defineVariable":
		return e.evalDefineVariable(ctx, focus, args)
	case "ofType":
		return e.evalOfType(ctx, focus, args[0])
	case "is":
		return e.evalIsFn(ctx, focus, args[0])
	case "as":
		return e.evalAsFn(ctx, focus, args[0])
	}
	return nil, ctx, NewEvalError(ErrInvalidExpression, "unhandled special form %q", name)
}

func boolOf(col types.Collection) (bool, bool) {
	if col.Empty() {
		return false, false
	}
	b, ok := col[0].(types.Boolean)
	if !ok {
		return false, false
	}
	return b.Bool(), true
}

func (e *Evaluator) evalWhere(ctx *Context, focus types.Collection, criteria ast.Node) (types.Collection, *Context, error) {
	if err := ctx.CheckCollectionSize(focus); err != nil {
		return nil, ctx, err
	}
	var result types.Collection
	for i, item := range focus {
		itemCtx := ctx.WithThis(types.Collection{item}).WithIndex(i)
		col, _, err := e.eval(itemCtx, criteria)
		if err != nil {
			return nil, ctx, err
		}
		if b, ok := boolOf(col); ok && b {
			result = append(result, item)
		}
	}
	if result == nil {
		return types.Collection{}, ctx, nil
	}
	return result, ctx, nil
}

func (e *Evaluator) evalSelect(ctx *Context, focus types.Collection, projection ast.Node) (types.Collection, *Context, error) {
	if err := ctx.CheckCollectionSize(focus); err != nil {
		return nil, ctx, err
	}
	var result types.Collection
	for i, item := range focus {
		itemCtx := ctx.WithThis(types.Collection{item}).WithIndex(i)
		col, _, err := e.eval(itemCtx, projection)
		if err != nil {
			return nil, ctx, err
		}
		result = append(result, col...)
		if err := ctx.CheckCollectionSize(result); err != nil {
			return nil, ctx, err
		}
	}
	if result == nil {
		return types.Collection{}, ctx, nil
	}
	return result, ctx, nil
}

func (e *Evaluator) evalAll(ctx *Context, focus types.Collection, criteria ast.Node) (types.Collection, *Context, error) {
	for i, item := range focus {
		itemCtx := ctx.WithThis(types.Collection{item}).WithIndex(i)
		col, _, err := e.eval(itemCtx, criteria)
		if err != nil {
			return nil, ctx, err
		}
		if b, ok := boolOf(col); !ok || !b {
			return types.Collection{types.NewBoolean(false)}, ctx, nil
		}
	}
	return types.Collection{types.NewBoolean(true)}, ctx, nil
}

func (e *Evaluator) evalExists(ctx *Context, focus types.Collection, criteria ast.Node) (types.Collection, *Context, error) {
	for i, item := range focus {
		itemCtx := ctx.WithThis(types.Collection{item}).WithIndex(i)
		col, _, err := e.eval(itemCtx, criteria)
		if err != nil {
			return nil, ctx, err
		}
		if b, ok := boolOf(col); ok && b {
			return types.Collection{types.NewBoolean(true)}, ctx, nil
		}
	}
	return types.Collection{types.NewBoolean(false)}, ctx, nil
}

// evalRepeat applies projection repeatedly until a round produces no
// new items, returning every distinct item reached transitively. This
// is a supplemented builtin: the teacher's fnRepeat was an unimplemented
// stub (see funcs/filtering.go), so the fixpoint loop is grounded on
// spec.md §4.6's description of repeat() rather than on teacher code.
func (e *Evaluator) evalRepeat(ctx *Context, focus types.Collection, projection ast.Node) (types.Collection, *Context, error) {
	var result types.Collection
	frontier := focus
	for len(frontier) > 0 {
		depthCtx, err := ctx.WithDepth()
		if err != nil {
			return nil, ctx, err
		}
		ctx = depthCtx

		var produced types.Collection
		for i, item := range frontier {
			itemCtx := ctx.WithThis(types.Collection{item}).WithIndex(i)
			col, _, err := e.eval(itemCtx, projection)
			if err != nil {
				return nil, ctx, err
			}
			produced = append(produced, col...)
		}

		var fresh types.Collection
		for _, item := range produced {
			if result.Contains(item) || fresh.Contains(item) {
				continue
			}
			fresh = append(fresh, item)
		}
		result = append(result, fresh...)
		if err := ctx.CheckCollectionSize(result); err != nil {
			return nil, ctx, err
		}
		frontier = fresh
	}
	if result == nil {
		return types.Collection{}, ctx, nil
	}
	return result, ctx, nil
}

func (e *Evaluator) evalAggregate(ctx *Context, focus types.Collection, args []ast.Node) (types.Collection, *Context, error) {
	var total types.Value
	if len(args) > 1 {
		initCol, _, err := e.eval(ctx, args[1])
		if err != nil {
			return nil, ctx, err
		}
		if v, ok := initCol.First(); ok {
			total = v
		}
	}

	for i, item := range focus {
		itemCtx := ctx.WithThis(types.Collection{item}).WithIndex(i).WithTotal(total)
		col, _, err := e.eval(itemCtx, args[0])
		if err != nil {
			return nil, ctx, err
		}
		if v, ok := col.First(); ok {
			total = v
		} else {
			total = nil
		}
	}

	if total == nil {
		return types.Collection{}, ctx, nil
	}
	return types.Collection{total}, ctx, nil
}

func (e *Evaluator) evalIif(ctx *Context, args []ast.Node) (types.Collection, *Context, error) {
	condCol, _, err := e.eval(ctx, args[0])
	if err != nil {
		return nil, ctx, err
	}
	cond, _ := boolOf(condCol)

	if cond {
		result, _, err := e.eval(ctx, args[1])
		return result, ctx, err
	}
	if len(args) > 2 {
		result, _, err := e.eval(ctx, args[2])
		return result, ctx, err
	}
	return types.Collection{}, ctx, nil
}

// evalDefineVariable binds name to valueExpr's result (or, with no
// value expression, to the current focus) for the remainder of the
// invocation chain this call is itself a step of — the bound context
// is threaded back up through eval's (result, *Context, error) return
// rather than mutated in place, so the binding never leaks to sibling
// branches (spec.md §4.5).
func (e *Evaluator) evalDefineVariable(ctx *Context, focus types.Collection, args []ast.Node) (types.Collection, *Context, error) {
	nameCol, _, err := e.eval(ctx, args[0])
	if err != nil {
		return nil, ctx, err
	}
	nameVal, ok := nameCol.First()
	if !ok {
		return nil, ctx, InvalidArgumentsError("defineVariable", 1, 0)
	}
	name, ok := nameVal.(types.String)
	if !ok {
		return nil, ctx, TypeError("String", nameVal.Type(), "defineVariable")
	}

	value := focus
	if len(args) > 1 {
		value, _, err = e.eval(ctx, args[1])
		if err != nil {
			return nil, ctx, err
		}
	}

	return focus, ctx.WithVariable(name.Value(), value), nil
}

// evalIsFn implements the function-call form `is(type)`, equivalent to
// the `is` infix operator but naming its type via an ordinary
// invocation argument instead of a dedicated TypeSpecifier production.
func (e *Evaluator) evalIsFn(ctx *Context, focus types.Collection, arg ast.Node) (types.Collection, *Context, error) {
	namespace, name, ok := typeNameFromNode(arg)
	if !ok {
		return nil, ctx, InvalidArgumentsError("is", 1, 0)
	}
	if focus.Empty() {
		return types.Collection{}, ctx, nil
	}
	if len(focus) != 1 {
		return nil, ctx, SingletonError(len(focus))
	}
	matches := typeMatches(focus[0].Type(), namespace, name)
	if !matches {
		if obj, ok := focus[0].(*types.ObjectValue); ok {
			if ok2, _ := ctx.Model().IsSubtypeOf(ctx.Context(), obj.Type(), name); ok2 {
				matches = true
			}
		}
	}
	return types.Collection{types.NewBoolean(matches)}, ctx, nil
}

// evalAsFn implements the function-call form `as(type)`.
func (e *Evaluator) evalAsFn(ctx *Context, focus types.Collection, arg ast.Node) (types.Collection, *Context, error) {
	namespace, name, ok := typeNameFromNode(arg)
	if !ok {
		return nil, ctx, InvalidArgumentsError("as", 1, 0)
	}
	if focus.Empty() {
		return types.Collection{}, ctx, nil
	}
	if len(focus) != 1 {
		return nil, ctx, SingletonError(len(focus))
	}
	matches := typeMatches(focus[0].Type(), namespace, name)
	if !matches {
		if obj, ok := focus[0].(*types.ObjectValue); ok {
			if ok2, _ := ctx.Model().IsSubtypeOf(ctx.Context(), obj.Type(), name); ok2 {
				matches = true
			}
		}
	}
	if matches {
		return focus, ctx, nil
	}
	return types.Collection{}, ctx, nil
}

func (e *Evaluator) evalOfType(ctx *Context, focus types.Collection, arg ast.Node) (types.Collection, *Context, error) {
	namespace, name, ok := typeNameFromNode(arg)
	if !ok {
		return nil, ctx, InvalidArgumentsError("ofType", 1, 0)
	}
	var result types.Collection
	for _, item := range focus {
		if typeMatches(item.Type(), namespace, name) {
			result = append(result, item)
		}
	}
	if result == nil {
		return types.Collection{}, ctx, nil
	}
	return result, ctx, nil
}
