// Package ast defines the FHIRPath abstract syntax tree produced by
// the parser and walked by the evaluator.
package ast

import (
	"fmt"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/diag"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

// Node is any AST expression node. Every node knows its own source span
// for diagnostics.
type Node interface {
	Span() diag.Span
	String() string
	node()
}

type base struct {
	span diag.Span
}

func (b base) Span() diag.Span { return b.span }

// Literal is a scalar literal value (Boolean, Integer, Long, Decimal,
// String, Date, DateTime, Time, Quantity).
type Literal struct {
	base
	Value types.Value
}

func NewLiteral(span diag.Span, v types.Value) *Literal { return &Literal{base{span}, v} }
func (l *Literal) node()                                {}
func (l *Literal) String() string                        { return l.Value.String() }

// Identifier is a bare name; at the head of a chain it may denote the
// resource type of the root, or else a property of the current focus.
type Identifier struct {
	base
	Name string
	// Delimited records whether the identifier was written as
	// `...` (allowing otherwise-disallowed characters).
	Delimited bool
}

func NewIdentifier(span diag.Span, name string, delimited bool) *Identifier {
	return &Identifier{base{span}, name, delimited}
}
func (i *Identifier) node()          {}
func (i *Identifier) String() string { return i.Name }

// Invocation is `target.name(args…)` or `name(args…)` when target is
// the implicit focus (target == nil).
type Invocation struct {
	base
	Target Node // nil when invoked against the implicit focus
	Name   string
	Args   []Node
}

func NewInvocation(span diag.Span, target Node, name string, args []Node) *Invocation {
	return &Invocation{base{span}, target, name, args}
}
func (i *Invocation) node() {}
func (i *Invocation) String() string {
	if i.Target != nil {
		return fmt.Sprintf("%s.%s(...)", i.Target, i.Name)
	}
	return fmt.Sprintf("%s(...)", i.Name)
}

// Path is member navigation `target.member`.
type Path struct {
	base
	Target Node
	Member *Identifier
}

func NewPath(span diag.Span, target Node, member *Identifier) *Path {
	return &Path{base{span}, target, member}
}
func (p *Path) node()          {}
func (p *Path) String() string { return fmt.Sprintf("%s.%s", p.Target, p.Member) }

// Index is `target[index]`.
type Index struct {
	base
	Target Node
	Index  Node
}

func NewIndex(span diag.Span, target, index Node) *Index { return &Index{base{span}, target, index} }
func (x *Index) node()                                    {}
func (x *Index) String() string                           { return fmt.Sprintf("%s[%s]", x.Target, x.Index) }

// Unary is a prefix operator: `+`, `-`, `not`.
type Unary struct {
	base
	Op  string
	RHS Node
}

func NewUnary(span diag.Span, op string, rhs Node) *Unary { return &Unary{base{span}, op, rhs} }
func (u *Unary) node()                                     {}
func (u *Unary) String() string                            { return fmt.Sprintf("(%s%s)", u.Op, u.RHS) }

// Binary is an infix operator application.
type Binary struct {
	base
	Op  string
	LHS Node
	RHS Node
}

func NewBinary(span diag.Span, op string, lhs, rhs Node) *Binary {
	return &Binary{base{span}, op, lhs, rhs}
}
func (b *Binary) node()          {}
func (b *Binary) String() string { return fmt.Sprintf("(%s %s %s)", b.LHS, b.Op, b.RHS) }

// Union is `lhs | rhs`, kept as a distinct node from Binary because its
// semantics (distinct-set union) differ from the other operators'
// Empty-propagation rules.
type Union struct {
	base
	LHS Node
	RHS Node
}

func NewUnion(span diag.Span, lhs, rhs Node) *Union { return &Union{base{span}, lhs, rhs} }
func (u *Union) node()                               {}
func (u *Union) String() string                      { return fmt.Sprintf("(%s | %s)", u.LHS, u.RHS) }

// EnvVariable is `%name`.
type EnvVariable struct {
	base
	Name string
}

func NewEnvVariable(span diag.Span, name string) *EnvVariable { return &EnvVariable{base{span}, name} }
func (e *EnvVariable) node()                                   {}
func (e *EnvVariable) String() string                          { return "%" + e.Name }

// TypeSpecifier is the right-hand side of `is`/`as`/`ofType`.
type TypeSpecifier struct {
	base
	Namespace string // "System", "FHIR", or "" if unqualified
	Name      string
}

func NewTypeSpecifier(span diag.Span, namespace, name string) *TypeSpecifier {
	return &TypeSpecifier{base{span}, namespace, name}
}
func (t *TypeSpecifier) node() {}
func (t *TypeSpecifier) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}
