package eval

import (
	"context"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/model"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/trace"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

// Resolver handles FHIR reference resolution for the `resolve()` built-in.
type Resolver interface {
	Resolve(ctx context.Context, reference string) ([]byte, error)
}

// scope is one link in the copy-on-write variable-scope chain
// (spec.md §4.5's "locally defined variables in the current scope
// chain"). defineVariable pushes a new link rather than mutating a
// shared map, so a variable defined inside one lambda invocation never
// leaks into a sibling iteration or the parent scope.
type scope struct {
	name   string
	value  types.Collection
	parent *scope
}

func (s *scope) lookup(name string) (types.Collection, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.value, true
		}
	}
	return nil, false
}

// Context holds the evaluation state threaded through the recursive
// AST walk: the root input, the current focus ($this), the current
// lambda index ($index), the aggregate accumulator ($total), the
// variable scope chain, environment variables, and the collaborators
// (ModelProvider, TraceProvider, Resolver) plus cancellation/limits.
type Context struct {
	root  types.Collection
	this  types.Collection
	index int
	total types.Value

	vars *scope // user-defined variables (defineVariable)
	env  map[string]types.Collection

	model    model.Provider
	tracer   trace.Provider
	resolver Resolver

	goCtx  context.Context
	limits map[string]int

	maxDepth int
	maxSteps int
	depth    int
	steps    *int // shared counter across all clones of one evaluation

	strictUnknownProperty bool
}

// NewContext creates a root evaluation context over resource.
// %resource and %context are seeded to the root per FHIRPath: at the
// top level, %context is the same node passed to the engine.
func NewContext(resource []byte) *Context {
	root, _ := types.JSONToCollection(resource) //nolint:errcheck // invalid JSON yields an empty context, not a panic

	env := map[string]types.Collection{
		"resource":     root,
		"context":      root,
		"rootResource": root,
	}

	steps := 0
	return &Context{
		root:     root,
		this:     root,
		index:    -1,
		env:      env,
		model:    model.NewBasicProvider(),
		tracer:   trace.NoopProvider{},
		goCtx:    context.Background(),
		maxDepth: 1000,
		maxSteps: 1000000,
		steps:    &steps,
	}
}

// clone shallow-copies the context so the caller can adjust one field
// (This/Index/Total/a pushed scope) without affecting the original —
// every WithX method returns such a clone.
func (c *Context) clone() *Context {
	nc := *c
	return &nc
}

// WithThis returns a context with $this rebound.
func (c *Context) WithThis(this types.Collection) *Context {
	nc := c.clone()
	nc.this = this
	return nc
}

// WithIndex returns a context with $index rebound.
func (c *Context) WithIndex(i int) *Context {
	nc := c.clone()
	nc.index = i
	return nc
}

// WithTotal returns a context with $total rebound (used by aggregate()).
func (c *Context) WithTotal(total types.Value) *Context {
	nc := c.clone()
	nc.total = total
	return nc
}

// WithVariable returns a context with name bound to value in a fresh
// scope link, per spec.md §4.5 ("defineVariable inside a lambda is
// scoped to that lambda invocation").
func (c *Context) WithVariable(name string, value types.Collection) *Context {
	nc := c.clone()
	nc.vars = &scope{name: name, value: value, parent: c.vars}
	return nc
}

// WithDepth returns a context with the recursion depth incremented,
// erroring if the configured maximum is exceeded (spec.md §4.5).
func (c *Context) WithDepth() (*Context, error) {
	if c.depth+1 > c.maxDepth {
		return nil, NewEvalError(ErrInvalidExpression, "maximum recursion depth %d exceeded", c.maxDepth)
	}
	nc := c.clone()
	nc.depth = c.depth + 1
	return nc, nil
}

// Step increments and checks the shared step counter.
func (c *Context) Step() error {
	*c.steps++
	if *c.steps > c.maxSteps {
		return NewEvalError(ErrInvalidExpression, "maximum evaluation step count %d exceeded", c.maxSteps)
	}
	return nil
}

// SetMaxDepth configures the recursion depth limit.
func (c *Context) SetMaxDepth(n int) { c.maxDepth = n }

// SetMaxSteps configures the step-count limit.
func (c *Context) SetMaxSteps(n int) { c.maxSteps = n }

// SetStrictUnknownProperty configures whether navigating to a property
// name absent from both the wire object and the choice-type suffix
// table is an evaluation error rather than an empty result (spec.md
// §9 Open Question, resolved off by default to match FHIRPath's
// normal empty-propagation semantics).
func (c *Context) SetStrictUnknownProperty(strict bool) { c.strictUnknownProperty = strict }

// StrictUnknownProperty reports the configured strictness.
func (c *Context) StrictUnknownProperty() bool { return c.strictUnknownProperty }

// Root returns the root collection ($resource navigation base).
func (c *Context) Root() types.Collection { return c.root }

// This returns the current $this focus.
func (c *Context) This() types.Collection { return c.this }

// Index returns the current $index, or -1 outside a lambda iteration.
func (c *Context) Index() int { return c.index }

// Total returns the current $total accumulator (nil outside aggregate()).
func (c *Context) Total() types.Value { return c.total }

// LookupVariable resolves a name through (1) the user-defined variable
// scope chain, then (2) environment variables, per spec.md §4.5's
// variable resolution order (lambda implicits are handled by the
// evaluator directly via $this/$index/$total, not through this path).
func (c *Context) LookupVariable(name string) (types.Collection, bool) {
	if v, ok := c.vars.lookup(name); ok {
		return v, true
	}
	v, ok := c.env[name]
	return v, ok
}

// SetEnvVariable registers an externally-supplied environment variable
// (e.g. %ucum, %sct, or a caller-supplied parameter).
func (c *Context) SetEnvVariable(name string, value types.Collection) {
	if c.env == nil {
		c.env = make(map[string]types.Collection)
	}
	c.env[name] = value
}

// Model returns the configured ModelProvider.
func (c *Context) Model() model.Provider { return c.model }

// SetModel configures the ModelProvider.
func (c *Context) SetModel(p model.Provider) {
	if p != nil {
		c.model = p
	}
}

// Tracer returns the configured TraceProvider.
func (c *Context) Tracer() trace.Provider { return c.tracer }

// SetTracer configures the TraceProvider.
func (c *Context) SetTracer(p trace.Provider) {
	if p != nil {
		c.tracer = p
	}
}

// SetResolver configures the reference resolver used by resolve().
func (c *Context) SetResolver(r Resolver) { c.resolver = r }

// GetResolver returns the configured reference resolver.
func (c *Context) GetResolver() Resolver { return c.resolver }

// SetContext attaches a context.Context used for cancellation checks
// and passed to collaborators (Resolver, regex timeout helpers).
func (c *Context) SetContext(ctx context.Context) {
	if ctx != nil {
		c.goCtx = ctx
	}
}

// Context returns the attached context.Context.
func (c *Context) Context() context.Context {
	if c.goCtx == nil {
		return context.Background()
	}
	return c.goCtx
}

// CheckCancellation returns an error if the attached context.Context
// has been cancelled.
func (c *Context) CheckCancellation() error {
	select {
	case <-c.Context().Done():
		return c.Context().Err()
	default:
		return nil
	}
}

// SetLimit configures a named resource limit (e.g. "maxCollectionSize").
func (c *Context) SetLimit(name string, value int) {
	if c.limits == nil {
		c.limits = make(map[string]int)
	}
	c.limits[name] = value
}

// GetLimit returns a named resource limit, or 0 if unset.
func (c *Context) GetLimit(name string) int {
	return c.limits[name]
}

// CheckCollectionSize errors if col exceeds the configured
// "maxCollectionSize" limit (0 or unset means unbounded).
func (c *Context) CheckCollectionSize(col types.Collection) error {
	max := c.GetLimit("maxCollectionSize")
	if max > 0 && len(col) > max {
		return NewEvalError(ErrInvalidExpression, "collection size %d exceeds configured maximum %d", len(col), max)
	}
	return nil
}

// EnforceCollectionLimit truncates col to the configured
// "maxCollectionSize" limit, reporting whether truncation occurred.
func (c *Context) EnforceCollectionLimit(col types.Collection) (types.Collection, bool) {
	max := c.GetLimit("maxCollectionSize")
	if max > 0 && len(col) > max {
		return col[:max], true
	}
	return col, false
}
