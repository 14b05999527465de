// Package parser builds a FHIRPath ast.Node tree from lexer.Token
// input using Pratt (precedence-climbing) parsing, per spec.md §4.2.
// It replaces the ANTLR-generated parser the teacher repo depended on
// (see SPEC_FULL.md's "Deviation from teacher" section).
package parser

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/ast"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/diag"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/lexer"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

// calendarDurationKeywords is the set of bare (unquoted) unit words a
// numeric literal may be followed by to form a Quantity literal, per
// spec.md §4.1.
var calendarDurationKeywords = map[string]bool{
	"year": true, "years": true, "month": true, "months": true,
	"week": true, "weeks": true, "day": true, "days": true,
	"hour": true, "hours": true, "minute": true, "minutes": true,
	"second": true, "seconds": true, "millisecond": true, "milliseconds": true,
}

// Parser consumes a token stream and builds an AST.
type Parser struct {
	toks  []lexer.Token
	pos   int
	diags diag.List
}

// Parse lexes and parses src, returning the root expression node.
// If any lexical or syntax diagnostic was recorded, the returned error
// carries all of them (single-token recovery allows several to
// surface from one pass) and evaluation must not proceed.
func Parse(src string) (ast.Node, error) {
	lx := lexer.New(src)
	var toks []lexer.Token
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Kind == lexer.EOF {
			break
		}
	}

	p := &Parser{toks: toks}
	for _, d := range lx.Diagnostics().Items() {
		p.diags.Add(d)
	}

	node := p.parseExpression()
	if !p.atEOF() {
		p.errorf(p.cur().Span, diag.CodeUnexpectedToken, "unexpected trailing token %q", p.cur().Text)
	}

	if p.diags.HasErrors() {
		return nil, &p.diags
	}
	return node, nil
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) atEOF() bool       { return p.cur().Kind == lexer.EOF }
func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errorf(span diag.Span, code diag.Code, format string, args ...interface{}) {
	p.diags.Add(diag.New(code, span, format, args...))
}

// synchronize skips tokens until a likely statement boundary, to allow
// reporting more than one diagnostic per spec.md §4.2.
func (p *Parser) synchronize() {
	for !p.atEOF() {
		switch p.cur().Kind {
		case lexer.RParen, lexer.RBracket, lexer.RBrace, lexer.Comma:
			return
		}
		p.advance()
	}
}

func (p *Parser) isOp(text string) bool {
	t := p.cur()
	return (t.Kind == lexer.Operator || t.Kind == lexer.Keyword) && t.Text == text
}

func (p *Parser) isAnyOp(texts ...string) (string, bool) {
	t := p.cur()
	if t.Kind != lexer.Operator && t.Kind != lexer.Keyword {
		return "", false
	}
	for _, tx := range texts {
		if t.Text == tx {
			return tx, true
		}
	}
	return "", false
}

func (p *Parser) expect(kind lexer.Kind, what string) lexer.Token {
	if p.cur().Kind != kind {
		p.errorf(p.cur().Span, diag.CodeUnexpectedToken, "expected %s, got %q", what, p.cur().Text)
		p.synchronize()
		return p.cur()
	}
	return p.advance()
}

// --- Precedence-climbing entry points, low to high precedence ---

func (p *Parser) parseExpression() ast.Node { return p.parseImplies() }

func (p *Parser) parseImplies() ast.Node {
	left := p.parseOrXor()
	for p.isOp("implies") {
		start := p.cur().Span
		p.advance()
		right := p.parseOrXor()
		left = ast.NewBinary(spanOf(start, right), "implies", left, right)
	}
	return left
}

func (p *Parser) parseOrXor() ast.Node {
	left := p.parseAnd()
	for {
		op, ok := p.isAnyOp("or", "xor")
		if !ok {
			break
		}
		start := p.cur().Span
		p.advance()
		right := p.parseAnd()
		left = ast.NewBinary(spanOf(start, right), op, left, right)
	}
	return left
}

func (p *Parser) parseAnd() ast.Node {
	left := p.parseMembership()
	for p.isOp("and") {
		start := p.cur().Span
		p.advance()
		right := p.parseMembership()
		left = ast.NewBinary(spanOf(start, right), "and", left, right)
	}
	return left
}

func (p *Parser) parseMembership() ast.Node {
	left := p.parseEquality()
	for {
		op, ok := p.isAnyOp("in", "contains")
		if !ok {
			break
		}
		start := p.cur().Span
		p.advance()
		right := p.parseEquality()
		left = ast.NewBinary(spanOf(start, right), op, left, right)
	}
	return left
}

func (p *Parser) parseEquality() ast.Node {
	left := p.parseComparison()
	for {
		op, ok := p.isAnyOp("=", "!=", "~", "!~")
		if !ok {
			break
		}
		start := p.cur().Span
		p.advance()
		right := p.parseComparison()
		left = ast.NewBinary(spanOf(start, right), op, left, right)
	}
	return left
}

func (p *Parser) parseComparison() ast.Node {
	left := p.parseUnion()
	for {
		op, ok := p.isAnyOp("<", "<=", ">", ">=")
		if !ok {
			break
		}
		start := p.cur().Span
		p.advance()
		right := p.parseUnion()
		left = ast.NewBinary(spanOf(start, right), op, left, right)
	}
	return left
}

func (p *Parser) parseUnion() ast.Node {
	left := p.parseTypeExpr()
	for p.isOp("|") {
		start := p.cur().Span
		p.advance()
		right := p.parseTypeExpr()
		left = ast.NewUnion(spanOf(start, right), left, right)
	}
	return left
}

func (p *Parser) parseTypeExpr() ast.Node {
	left := p.parseAdditive()
	for {
		op, ok := p.isAnyOp("is", "as")
		if !ok {
			break
		}
		start := p.cur().Span
		p.advance()
		ts := p.parseTypeSpecifier()
		left = ast.NewBinary(spanOf(start, ts), op, left, ts)
	}
	return left
}

func (p *Parser) parseTypeSpecifier() ast.Node {
	start := p.cur().Span
	first := p.expect(lexer.Identifier, "type name")
	name := first.Text
	namespace := ""
	if p.cur().Kind == lexer.Dot {
		p.advance()
		second := p.expect(lexer.Identifier, "qualified type name")
		namespace = name
		name = second.Text
	}
	return ast.NewTypeSpecifier(spanEnd(start, p.prevEnd()), namespace, name)
}

func (p *Parser) parseAdditive() ast.Node {
	left := p.parseMultiplicative()
	for {
		op, ok := p.isAnyOp("+", "-", "&")
		if !ok {
			break
		}
		start := p.cur().Span
		p.advance()
		right := p.parseMultiplicative()
		left = ast.NewBinary(spanOf(start, right), op, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Node {
	left := p.parseUnary()
	for {
		op, ok := p.isAnyOp("*", "/", "div", "mod")
		if !ok {
			break
		}
		start := p.cur().Span
		p.advance()
		right := p.parseUnary()
		left = ast.NewBinary(spanOf(start, right), op, left, right)
	}
	return left
}

func (p *Parser) parseUnary() ast.Node {
	if op, ok := p.isAnyOp("+", "-", "not"); ok {
		start := p.cur().Span
		p.advance()
		rhs := p.parseUnary()
		return ast.NewUnary(spanOf(start, rhs), op, rhs)
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Node {
	left := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case lexer.Dot:
			p.advance()
			left = p.parseMemberOrInvocation(left)
		case lexer.LBracket:
			start := p.cur().Span
			p.advance()
			idx := p.parseExpression()
			end := p.expect(lexer.RBracket, "']'")
			left = ast.NewIndex(spanEnd(start, end.Span.End), left, idx)
		default:
			return left
		}
	}
}

// parseMemberOrInvocation parses the segment after a '.': either a
// plain member name or name(args…).
func (p *Parser) parseMemberOrInvocation(target ast.Node) ast.Node {
	start := p.cur().Span
	name, delimited := p.parseMemberName()
	if p.cur().Kind == lexer.LParen {
		args := p.parseArgList()
		return ast.NewInvocation(spanEnd(start, p.prevEnd()), target, name, args)
	}
	id := ast.NewIdentifier(start, name, delimited)
	return ast.NewPath(spanEnd(start, p.prevEnd()), target, id)
}

func (p *Parser) parseMemberName() (string, bool) {
	t := p.cur()
	switch t.Kind {
	case lexer.Identifier, lexer.Keyword:
		p.advance()
		return t.Text, false
	case lexer.DelimitedIdentifier:
		p.advance()
		return t.Text, true
	default:
		p.errorf(t.Span, diag.CodeExpectedIdentifier, "expected identifier after '.', got %q", t.Text)
		return "", false
	}
}

// parseArgList parses a parenthesised, comma-separated argument list.
// Lambda-bearing functions are not distinguished here — the parser
// always produces plain expression nodes; the evaluator defers
// evaluation of whichever argument positions its built-in function
// table marks as lambda-bearing, re-running them once per input item
// (spec.md §4.5).
func (p *Parser) parseArgList() []ast.Node {
	p.expect(lexer.LParen, "'('")
	var args []ast.Node
	if p.cur().Kind != lexer.RParen {
		args = append(args, p.parseExpression())
		for p.cur().Kind == lexer.Comma {
			p.advance()
			args = append(args, p.parseExpression())
		}
	}
	p.expect(lexer.RParen, "')'")
	return args
}

func (p *Parser) prevEnd() diag.Position {
	if p.pos == 0 {
		return p.toks[0].Span.Start
	}
	return p.toks[p.pos-1].Span.End
}

func (p *Parser) parsePrimary() ast.Node {
	t := p.cur()
	switch t.Kind {
	case lexer.Integer:
		p.advance()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			p.errorf(t.Span, diag.CodeMalformedNumber, "malformed integer literal %q", t.Text)
			return ast.NewLiteral(t.Span, types.NewInteger(0))
		}
		return p.maybeQuantity(t.Span, types.NewInteger(n))

	case lexer.Decimal:
		p.advance()
		d, err := types.NewDecimal(t.Text)
		if err != nil {
			p.errorf(t.Span, diag.CodeMalformedNumber, "malformed decimal literal %q", t.Text)
			return ast.NewLiteral(t.Span, d)
		}
		return p.maybeQuantity(t.Span, d)

	case lexer.String:
		p.advance()
		return ast.NewLiteral(t.Span, types.NewString(t.Text))

	case lexer.DateTimeLiteral:
		p.advance()
		v, err := parseTemporalLiteral(t.Text)
		if err != nil {
			p.errorf(t.Span, diag.CodeMalformedTemporal, "%s", err.Error())
			return ast.NewLiteral(t.Span, types.NewString(t.Text))
		}
		return ast.NewLiteral(t.Span, v)

	case lexer.EnvVariable:
		p.advance()
		return ast.NewEnvVariable(t.Span, t.Text)

	case lexer.LParen:
		p.advance()
		inner := p.parseExpression()
		p.expect(lexer.RParen, "')'")
		return inner

	case lexer.LBrace:
		p.advance()
		p.expect(lexer.RBrace, "'}'")
		return ast.NewLiteral(t.Span, nil) // {} — the empty collection literal

	case lexer.Keyword:
		switch t.Text {
		case "true":
			p.advance()
			return ast.NewLiteral(t.Span, types.NewBoolean(true))
		case "false":
			p.advance()
			return ast.NewLiteral(t.Span, types.NewBoolean(false))
		case "$this", "$index", "$total":
			p.advance()
			return ast.NewIdentifier(t.Span, t.Text, false)
		default:
			// Keywords (e.g. "div", "contains") are also valid bare
			// identifiers/function names in head position.
			return p.parseIdentifierOrInvocation()
		}

	case lexer.Identifier:
		return p.parseIdentifierOrInvocation()

	case lexer.DelimitedIdentifier:
		p.advance()
		return ast.NewIdentifier(t.Span, t.Text, true)

	default:
		p.errorf(t.Span, diag.CodeUnexpectedToken, "unexpected token %q", t.Text)
		p.advance()
		return ast.NewLiteral(t.Span, nil)
	}
}

func (p *Parser) parseIdentifierOrInvocation() ast.Node {
	t := p.advance()
	if p.cur().Kind == lexer.LParen {
		args := p.parseArgList()
		return ast.NewInvocation(spanEnd(t.Span, p.prevEnd()), nil, t.Text, args)
	}
	return ast.NewIdentifier(t.Span, t.Text, false)
}

// maybeQuantity pairs a just-parsed numeric literal with a following
// UCUM unit string or calendar-duration keyword to form a Quantity
// literal, per spec.md §4.1.
func (p *Parser) maybeQuantity(numSpan diag.Span, num types.Value) ast.Node {
	if p.cur().Kind == lexer.String {
		unit := p.advance()
		q := quantityFromLiteral(num, unit.Text)
		return ast.NewLiteral(spanEnd(numSpan, unit.Span.End), q)
	}
	if (p.cur().Kind == lexer.Identifier) && calendarDurationKeywords[p.cur().Text] {
		unit := p.advance()
		q := quantityFromLiteral(num, unit.Text)
		return ast.NewLiteral(spanEnd(numSpan, unit.Span.End), q)
	}
	return ast.NewLiteral(numSpan, num)
}

func quantityFromLiteral(num types.Value, unit string) types.Value {
	switch n := num.(type) {
	case types.Integer:
		return types.NewQuantityFromDecimal(decimal.NewFromInt(n.Value()), unit)
	case types.Decimal:
		return types.NewQuantityFromDecimal(n.Value(), unit)
	default:
		return num
	}
}

// spanOf builds a span starting at start.Start; if end is non-nil its
// Span().End is used, otherwise start.End is kept (callers then adjust
// via spanEnd when the true end isn't known until later tokens are
// consumed).
func spanOf(start diag.Span, end ast.Node) diag.Span {
	if end == nil {
		return start
	}
	return diag.Span{Start: start.Start, End: end.Span().End}
}

// spanEnd rewrites a span's end position.
func spanEnd(s diag.Span, end diag.Position) diag.Span {
	return diag.Span{Start: s.Start, End: end}
}

// parseTemporalLiteral parses an '@...'-prefixed token into a
// Date, DateTime, or Time value per spec.md §4.1.
func parseTemporalLiteral(text string) (types.Value, error) {
	body := strings.TrimPrefix(text, "@")
	if strings.HasPrefix(body, "T") {
		return types.NewTime(strings.TrimPrefix(body, "T"))
	}
	if strings.Contains(body, "T") {
		return types.NewDateTime(body)
	}
	return types.NewDate(body)
}
