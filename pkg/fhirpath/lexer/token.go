// Package lexer tokenizes FHIRPath source into a stream of
// (Kind, Span, Text) tokens, per spec.md §4.1. It replaces the ANTLR
// generated lexer the teacher repo depended on (that generated
// grammar package was never part of the reference pack — see
// SPEC_FULL.md's "Deviation from teacher" section) with a hand-rolled
// single-pass scanner in the same spirit as the teacher's other
// hand-written components: small, explicit state, no external parser
// generator.
package lexer

import "github.com/go-fhirpath/fhirpath/pkg/fhirpath/diag"

// Kind identifies a lexical token category.
type Kind int

const (
	EOF Kind = iota
	Identifier
	DelimitedIdentifier
	Keyword
	Integer
	Decimal
	String
	DateTimeLiteral // @... literal; further classified by the parser
	EnvVariable     // %name
	Operator
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Dot
)

var kindNames = map[Kind]string{
	EOF: "EOF", Identifier: "Identifier", DelimitedIdentifier: "DelimitedIdentifier",
	Keyword: "Keyword", Integer: "Integer", Decimal: "Decimal", String: "String",
	DateTimeLiteral: "DateTimeLiteral", EnvVariable: "EnvVariable", Operator: "Operator",
	LParen: "LParen", RParen: "RParen", LBracket: "LBracket", RBracket: "RBracket",
	LBrace: "LBrace", RBrace: "RBrace", Comma: "Comma", Dot: "Dot",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Keywords is the closed keyword set from spec.md §4.1. Keywords are
// also valid identifiers in member-navigation position (`Patient.as`);
// the parser, not the lexer, disambiguates.
var Keywords = map[string]bool{
	"and": true, "or": true, "xor": true, "implies": true,
	"not": true, "true": true, "false": true,
	"in": true, "contains": true, "is": true, "as": true,
	"div": true, "mod": true,
	"$this": true, "$index": true, "$total": true,
}

// Token is a single lexeme with its source span.
type Token struct {
	Kind Kind
	Text string // raw source text (unescaped for String tokens)
	Span diag.Span
}
