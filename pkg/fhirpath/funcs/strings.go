package funcs

import (
	"strings"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

// predicateFuncs are the single-string-argument functions that test the
// input string against a predicate and report true/false.
var predicateFuncs = map[string]func(str, arg string) bool{
	"startsWith": strings.HasPrefix,
	"endsWith":   strings.HasSuffix,
	"contains":   strings.Contains,
}

// transformFuncs are the zero-argument functions that reduce to a single
// string -> string transform.
var transformFuncs = map[string]func(string) string{
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"trim":  strings.TrimSpace,
}

func init() {
	for name, pred := range predicateFuncs {
		pred := pred
		Register(FuncDef{Name: name, MinArgs: 1, MaxArgs: 1, Fn: makePredicateFn(pred)})
	}
	for name, xf := range transformFuncs {
		xf := xf
		Register(FuncDef{Name: name, MinArgs: 0, MaxArgs: 0, Fn: makeTransformFn(xf)})
	}

	Register(FuncDef{Name: "replace", MinArgs: 2, MaxArgs: 2, Fn: fnReplace})
	Register(FuncDef{Name: "matches", MinArgs: 1, MaxArgs: 1, Fn: fnMatches})
	Register(FuncDef{Name: "replaceMatches", MinArgs: 2, MaxArgs: 2, Fn: fnReplaceMatches})
	Register(FuncDef{Name: "indexOf", MinArgs: 1, MaxArgs: 1, Fn: fnIndexOf})
	Register(FuncDef{Name: "substring", MinArgs: 1, MaxArgs: 2, Fn: fnSubstring})
	Register(FuncDef{Name: "toChars", MinArgs: 0, MaxArgs: 0, Fn: fnToChars})
	Register(FuncDef{Name: "split", MinArgs: 1, MaxArgs: 1, Fn: fnSplit})
	Register(FuncDef{Name: "join", MinArgs: 0, MaxArgs: 1, Fn: fnJoin})
	Register(FuncDef{Name: "length", MinArgs: 0, MaxArgs: 0, Fn: fnLength})
}

// makePredicateFn adapts a (str, arg string) bool function to the FuncImpl
// shape shared by startsWith/endsWith/contains.
func makePredicateFn(pred func(str, arg string) bool) eval.FuncImpl {
	return func(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
		str, ok := toString(input)
		if !ok {
			return types.Collection{}, nil
		}
		arg, ok := toStringArg(args[0])
		if !ok {
			return types.Collection{}, nil
		}
		return types.Collection{types.NewBoolean(pred(str, arg))}, nil
	}
}

// makeTransformFn adapts a string -> string function to the FuncImpl shape
// shared by lower/upper/trim.
func makeTransformFn(xf func(string) string) eval.FuncImpl {
	return func(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
		str, ok := toString(input)
		if !ok {
			return types.Collection{}, nil
		}
		return types.Collection{types.NewString(xf(str))}, nil
	}
}

// fnReplace substitutes every occurrence of pattern with substitution.
func fnReplace(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	str, ok := toString(input)
	if !ok {
		return types.Collection{}, nil
	}
	pattern, ok := toStringArg(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	substitution, ok := toStringArg(args[1])
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewString(strings.ReplaceAll(str, pattern, substitution))}, nil
}

// fnMatches reports whether the input string matches a regex pattern,
// using the shared regex cache so repeated patterns skip recompilation and
// a per-call timeout guards against pathological (ReDoS-prone) patterns.
func fnMatches(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	str, ok := toString(input)
	if !ok {
		return types.Collection{}, nil
	}
	pattern, ok := toStringArg(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	matched, err := DefaultRegexCache.MatchWithTimeout(ctx.Context(), pattern, str)
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewBoolean(matched)}, nil
}

// fnReplaceMatches substitutes every regex match, under the same cache and
// timeout protection as fnMatches.
func fnReplaceMatches(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	str, ok := toString(input)
	if !ok {
		return types.Collection{}, nil
	}
	pattern, ok := toStringArg(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	substitution, ok := toStringArg(args[1])
	if !ok {
		return types.Collection{}, nil
	}
	result, err := DefaultRegexCache.ReplaceWithTimeout(ctx.Context(), pattern, str, substitution)
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewString(result)}, nil
}

// fnIndexOf returns the byte offset of the first occurrence of a substring,
// or -1 when absent.
func fnIndexOf(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	str, ok := toString(input)
	if !ok {
		return types.Collection{}, nil
	}
	substr, ok := toStringArg(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(strings.Index(str, substr)))}, nil
}

// fnSubstring slices the input string from start, with an optional length.
// An out-of-range start yields empty rather than an error, per the
// function's tolerant-indexing contract.
func fnSubstring(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	str, ok := toString(input)
	if !ok {
		return types.Collection{}, nil
	}

	start, err := toInteger(args[0])
	if err != nil {
		return nil, err
	}
	if start < 0 || int(start) >= len(str) {
		return types.Collection{}, nil
	}

	if len(args) < 2 {
		return types.Collection{types.NewString(str[start:])}, nil
	}

	length, err := toInteger(args[1])
	if err != nil {
		return nil, err
	}
	end := int(start + length)
	if end > len(str) {
		end = len(str)
	}
	return types.Collection{types.NewString(str[start:end])}, nil
}

// fnToChars splits the input into a collection of single-rune strings.
func fnToChars(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	str, ok := toString(input)
	if !ok {
		return types.Collection{}, nil
	}
	out := make(types.Collection, 0, len(str))
	for _, ch := range str {
		out = append(out, types.NewString(string(ch)))
	}
	return out, nil
}

// fnSplit breaks the input string apart on every occurrence of separator.
func fnSplit(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	str, ok := toString(input)
	if !ok {
		return types.Collection{}, nil
	}
	separator, ok := toStringArg(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	parts := strings.Split(str, separator)
	out := make(types.Collection, 0, len(parts))
	for _, part := range parts {
		out = append(out, types.NewString(part))
	}
	return out, nil
}

// fnJoin concatenates every string in the collection, separated by an
// optional separator (empty string if omitted). Unlike the other string
// functions, join operates over the whole collection rather than a single
// focus value, so it has no empty-input special case beyond an empty
// result.
func fnJoin(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewString("")}, nil
	}

	separator := ""
	if len(args) > 0 {
		if sep, ok := toStringArg(args[0]); ok {
			separator = sep
		}
	}

	parts := make([]string, len(input))
	for i, item := range input {
		if s, ok := item.(types.String); ok {
			parts[i] = s.Value()
		} else {
			parts[i] = item.String()
		}
	}
	return types.Collection{types.NewString(strings.Join(parts, separator))}, nil
}

// fnLength returns the number of bytes in the input string.
func fnLength(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	str, ok := toString(input)
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(len(str)))}, nil
}

// toString extracts the focus string: the first collection element if it's
// a String, or its generic String() rendering otherwise. Returns ok=false
// only when the collection is empty.
func toString(col types.Collection) (string, bool) {
	if col.Empty() {
		return "", false
	}
	if s, ok := col[0].(types.String); ok {
		return s.Value(), true
	}
	return col[0].String(), true
}

// toStringArg extracts a string out of a function-call argument, which may
// arrive as a raw types.String, a plain Go string, or a single-element
// Collection wrapping either.
func toStringArg(arg interface{}) (string, bool) {
	switch v := arg.(type) {
	case types.Collection:
		return toString(v)
	case types.String:
		return v.Value(), true
	case string:
		return v, true
	default:
		return "", false
	}
}
