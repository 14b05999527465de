package fhirpath

import (
	"context"
	"time"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/model"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/trace"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

// EvalOptions configures expression evaluation.
type EvalOptions struct {
	// Context for cancellation and timeout
	Ctx context.Context

	// Timeout for evaluation (0 means no timeout)
	Timeout time.Duration

	// MaxDepth limits recursion depth for descendants()/repeat() (DefaultOptions
	// sets 100; 0 keeps the evaluator's built-in limit of 1000)
	MaxDepth int

	// MaxSteps bounds the total number of evaluation steps (0 means default of 1,000,000)
	MaxSteps int

	// MaxCollectionSize limits output collection size (0 means no limit)
	MaxCollectionSize int

	// Variables are external variables accessible via %name
	Variables map[string]types.Collection

	// Resolver handles reference resolution for resolve() function
	Resolver ReferenceResolver

	// Model supplies FHIR type-hierarchy and choice-type (value[x]) resolution.
	Model model.Provider

	// Tracer receives trace() call output.
	Tracer trace.Provider

	// StrictUnknownProperty, when true, turns navigation to a name that is
	// not a type filter, not a field present on the object, and not a
	// choice property the ModelProvider resolves into an evaluation error
	// instead of an empty result.
	StrictUnknownProperty bool
}

// DefaultOptions returns default evaluation options suitable for production.
func DefaultOptions() *EvalOptions {
	return &EvalOptions{
		Ctx:               context.Background(),
		Timeout:           5 * time.Second,
		MaxDepth:          100,
		MaxSteps:          1000000,
		MaxCollectionSize: 10000,
		Variables:         make(map[string]types.Collection),
	}
}

// EvalOption is a functional option for configuring evaluation.
type EvalOption func(*EvalOptions)

// WithContext sets the context for cancellation.
func WithContext(ctx context.Context) EvalOption {
	return func(o *EvalOptions) {
		o.Ctx = ctx
	}
}

// WithTimeout sets the evaluation timeout.
func WithTimeout(d time.Duration) EvalOption {
	return func(o *EvalOptions) {
		o.Timeout = d
	}
}

// WithMaxDepth sets the maximum recursion depth.
func WithMaxDepth(depth int) EvalOption {
	return func(o *EvalOptions) {
		o.MaxDepth = depth
	}
}

// WithMaxCollectionSize sets the maximum output collection size.
func WithMaxCollectionSize(size int) EvalOption {
	return func(o *EvalOptions) {
		o.MaxCollectionSize = size
	}
}

// WithVariable sets an external variable.
func WithVariable(name string, value types.Collection) EvalOption {
	return func(o *EvalOptions) {
		if o.Variables == nil {
			o.Variables = make(map[string]types.Collection)
		}
		o.Variables[name] = value
	}
}

// WithResolver sets the reference resolver.
func WithResolver(r ReferenceResolver) EvalOption {
	return func(o *EvalOptions) {
		o.Resolver = r
	}
}

// WithMaxSteps sets the maximum number of evaluation steps.
func WithMaxSteps(n int) EvalOption {
	return func(o *EvalOptions) {
		o.MaxSteps = n
	}
}

// WithModelProvider sets the FHIR ModelProvider used for choice-type
// resolution and the type-hierarchy fallback of is/as.
func WithModelProvider(p model.Provider) EvalOption {
	return func(o *EvalOptions) {
		o.Model = p
	}
}

// WithTraceProvider sets the destination for trace() output.
func WithTraceProvider(p trace.Provider) EvalOption {
	return func(o *EvalOptions) {
		o.Tracer = p
	}
}

// WithStrictUnknownProperty configures whether navigating to a
// property name the current object doesn't recognize is an evaluation
// error (true) or silently propagates as an empty collection (false,
// the default, matching ordinary FHIRPath empty-propagation).
func WithStrictUnknownProperty(strict bool) EvalOption {
	return func(o *EvalOptions) {
		o.StrictUnknownProperty = strict
	}
}

// ReferenceResolver resolves FHIR references for the resolve() function.
type ReferenceResolver interface {
	// Resolve takes a reference string (e.g., "Patient/123") and returns the resource.
	Resolve(ctx context.Context, reference string) ([]byte, error)
}

// EvaluateWithOptions evaluates an expression with custom options.
func (e *Expression) EvaluateWithOptions(resource []byte, opts ...EvalOption) (types.Collection, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	// Create context with timeout if specified
	ctx := options.Ctx
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	// Create evaluation context
	evalCtx := eval.NewContext(resource)

	// Set variables
	for name, value := range options.Variables {
		evalCtx = evalCtx.WithVariable(name, value)
	}

	// Set limits in context
	if options.MaxDepth > 0 {
		evalCtx.SetMaxDepth(options.MaxDepth)
	}
	if options.MaxSteps > 0 {
		evalCtx.SetMaxSteps(options.MaxSteps)
	}
	evalCtx.SetLimit("maxCollectionSize", options.MaxCollectionSize)
	evalCtx.SetContext(ctx)
	evalCtx.SetStrictUnknownProperty(options.StrictUnknownProperty)

	if options.Model != nil {
		evalCtx.SetModel(options.Model)
	}
	if options.Tracer != nil {
		evalCtx.SetTracer(options.Tracer)
	}

	// Set resolver if provided
	if options.Resolver != nil {
		evalCtx.SetResolver(newResolverAdapter(options.Resolver))
	}

	return e.EvaluateWithContext(evalCtx)
}

// resolverAdapter adapts ReferenceResolver to eval.Resolver
type resolverAdapter struct {
	resolver ReferenceResolver
}

func newResolverAdapter(r ReferenceResolver) *resolverAdapter {
	return &resolverAdapter{resolver: r}
}

func (a *resolverAdapter) Resolve(ctx context.Context, reference string) ([]byte, error) {
	return a.resolver.Resolve(ctx, reference)
}
