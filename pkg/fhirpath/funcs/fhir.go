package funcs

import (
	"strings"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "resolve", MinArgs: 0, MaxArgs: 0, Fn: fnResolve})
	Register(FuncDef{Name: "extension", MinArgs: 1, MaxArgs: 1, Fn: fnExtension})
	Register(FuncDef{Name: "hasExtension", MinArgs: 1, MaxArgs: 1, Fn: fnHasExtension})
	Register(FuncDef{Name: "getExtensionValue", MinArgs: 1, MaxArgs: 1, Fn: fnGetExtensionValue})
	Register(FuncDef{Name: "getReferenceKey", MinArgs: 0, MaxArgs: 1, Fn: fnGetReferenceKey})
}

// referenceString pulls a reference string off either a bare String value
// (a literal "Patient/123") or a FHIR Reference object's "reference" field.
// Returns "" when item holds neither shape.
func referenceString(item types.Value) string {
	switch v := item.(type) {
	case types.String:
		return v.Value()
	case *types.ObjectValue:
		if ref, ok := v.Get("reference"); ok {
			if refStr, ok := ref.(types.String); ok {
				return refStr.Value()
			}
		}
	}
	return ""
}

// fnResolve dereferences each input reference through the resolver
// installed on the context (ctx.GetResolver()). Without a resolver
// installed, or for references that fail to resolve, the corresponding
// input item is silently dropped rather than erroring.
func fnResolve(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	resolver := ctx.GetResolver()
	if input.Empty() || resolver == nil {
		return types.Collection{}, nil
	}

	var result types.Collection
	for _, item := range input {
		reference := referenceString(item)
		if reference == "" {
			continue
		}
		resourceJSON, err := resolver.Resolve(ctx.Context(), reference)
		if err != nil {
			continue
		}
		col, err := types.JSONToCollection(resourceJSON)
		if err != nil {
			continue
		}
		result = append(result, col...)
	}
	return result, nil
}

// extensionURLArg reads the single URL string argument shared by
// extension()/hasExtension()/getExtensionValue().
func extensionURLArg(args []interface{}) string {
	if len(args) == 0 {
		return ""
	}
	col, ok := args[0].(types.Collection)
	if !ok || col.Empty() {
		return ""
	}
	str, ok := col[0].(types.String)
	if !ok {
		return ""
	}
	return str.Value()
}

// fnExtension collects every extension (across every input item) whose
// "url" field matches the given URL.
func fnExtension(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	url := extensionURLArg(args)
	if input.Empty() || url == "" {
		return types.Collection{}, nil
	}

	var result types.Collection
	for _, item := range input {
		obj, ok := item.(*types.ObjectValue)
		if !ok {
			continue
		}
		for _, ext := range obj.GetCollection("extension") {
			extObj, ok := ext.(*types.ObjectValue)
			if !ok {
				continue
			}
			extURL, ok := extObj.Get("url")
			if !ok {
				continue
			}
			if urlStr, ok := extURL.(types.String); ok && urlStr.Value() == url {
				result = append(result, extObj)
			}
		}
	}
	return result, nil
}

// fnHasExtension reports whether fnExtension found any match.
func fnHasExtension(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	extensions, err := fnExtension(ctx, input, args)
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewBoolean(!extensions.Empty())}, nil
}

// extensionValueFields lists every value[x] field FHIR extensions use;
// exactly one (if any) is populated on a given extension.
var extensionValueFields = []string{
	"valueString", "valueBoolean", "valueInteger", "valueDecimal",
	"valueDate", "valueDateTime", "valueTime", "valueCode",
	"valueCoding", "valueCodeableConcept", "valueQuantity",
	"valueReference", "valueIdentifier", "valuePeriod",
	"valueRange", "valueRatio", "valueAttachment",
	"valueUri", "valueUrl", "valueCanonical",
}

// fnGetExtensionValue returns the populated value[x] field of every
// matching extension.
func fnGetExtensionValue(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	extensions, err := fnExtension(ctx, input, args)
	if err != nil {
		return nil, err
	}

	var result types.Collection
	for _, ext := range extensions {
		extObj, ok := ext.(*types.ObjectValue)
		if !ok {
			continue
		}
		for _, field := range extensionValueFields {
			if val, ok := extObj.Get(field); ok {
				result = append(result, val)
				break
			}
		}
	}
	return result, nil
}

// normalizeReference collapses a URL-qualified reference
// ("http://example.org/fhir/Patient/123") down to "Patient/123" by keeping
// only the last two path segments, when there are at least that many.
func normalizeReference(reference string) string {
	idx := strings.LastIndex(reference, "/")
	if idx <= 0 {
		return reference
	}
	beforeSlash := reference[:idx]
	prior := strings.LastIndex(beforeSlash, "/")
	if prior < 0 {
		return reference
	}
	return beforeSlash[prior+1:] + "/" + reference[idx+1:]
}

// fnGetReferenceKey extracts "type", "id", or the full "ResourceType/id"
// key (the default, for any other/omitted part argument) from each input
// reference.
func fnGetReferenceKey(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}

	part := "key"
	if len(args) > 0 {
		if col, ok := args[0].(types.Collection); ok && !col.Empty() {
			if str, ok := col[0].(types.String); ok {
				part = str.Value()
			}
		}
	}

	var result types.Collection
	for _, item := range input {
		reference := referenceString(item)
		if reference == "" {
			continue
		}
		reference = normalizeReference(reference)

		switch part {
		case "type":
			if idx := strings.Index(reference, "/"); idx > 0 {
				result = append(result, types.NewString(reference[:idx]))
			}
		case "id":
			if idx := strings.LastIndex(reference, "/"); idx >= 0 {
				result = append(result, types.NewString(reference[idx+1:]))
			} else {
				result = append(result, types.NewString(reference))
			}
		default:
			result = append(result, types.NewString(reference))
		}
	}
	return result, nil
}
