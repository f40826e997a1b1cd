// Package parser builds the canonical AST from a token stream.
//
// The expression grammar is a Pratt parser driven by the precedence table in
// package ast, so the parser and the emitters always agree on grouping.
// Dialect-specific surface forms (TOP, LIMIT, OFFSET ... FETCH, function
// spellings, WITH RECURSIVE) are folded into their canonical nodes here;
// nothing downstream ever sees a source spelling.
package parser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/transqlate/transqlate/pkg/ast"
	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/lexer"
	"github.com/transqlate/transqlate/pkg/token"
)

// ErrorKind classifies a syntax failure so callers can map it onto their
// own error codes without matching message text.
type ErrorKind int

const (
	KindUnexpectedToken ErrorKind = iota
	KindInvalidClause
	KindUnsupportedStatement
	KindBadLiteral
)

// Error reports a syntax failure at a token position.
type Error struct {
	Pos      token.Position
	Expected string
	Found    string
	Kind     ErrorKind
}

func (e *Error) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Found)
	}
	return fmt.Sprintf("%s: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

// Warning is a non-fatal note attached to a successful parse, such as a
// RECURSIVE keyword on a WITH clause whose members never self-reference.
type Warning struct {
	Pos     token.Position
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Pos, w.Message)
}

// Parser consumes tokens from a lexer configured for the source dialect.
type Parser struct {
	l *lexer.Lexer
	d *dialect.Dialect

	curTok  token.Token
	peekTok token.Token

	err      *Error
	warnings []Warning
}

// New returns a parser reading from l, interpreting grammar per d.
func New(l *lexer.Lexer, d *dialect.Dialect) *Parser {
	p := &Parser{l: l, d: d}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse is a convenience that lexes and parses a single statement of input.
func Parse(input string, d *dialect.Dialect) (ast.Statement, []Warning, error) {
	l := lexer.New(input, d)
	p := New(l, d)
	stmt, err := p.ParseStatement()
	if err != nil {
		return nil, nil, err
	}
	return stmt, p.Warnings(), nil
}

// Warnings returns the non-fatal notes gathered during the last parse.
func (p *Parser) Warnings() []Warning {
	return p.warnings
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) fail(expected string) {
	if p.err != nil {
		return
	}
	found := p.curTok.Type.String()
	if p.curTok.Type == token.IDENT || p.curTok.Type == token.ILLEGAL {
		found = fmt.Sprintf("%q", p.curTok.Literal)
	}
	p.err = &Error{Pos: p.curTok.Pos(), Expected: expected, Found: found}
}

func (p *Parser) failMsg(msg string) {
	p.failKind(KindInvalidClause, msg)
}

func (p *Parser) failKind(kind ErrorKind, msg string) {
	if p.err != nil {
		return
	}
	p.err = &Error{Pos: p.curTok.Pos(), Found: msg, Kind: kind}
}

func (p *Parser) warnf(pos token.Position, format string, args ...any) {
	p.warnings = append(p.warnings, Warning{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// expect consumes the current token when it matches t, or records an error.
func (p *Parser) expect(t token.Type) bool {
	if p.curTok.Type != t {
		p.fail(t.String())
		return false
	}
	p.nextToken()
	return true
}

// accept consumes the current token when it matches t.
func (p *Parser) accept(t token.Type) bool {
	if p.curTok.Type != t {
		return false
	}
	p.nextToken()
	return true
}

// acceptIdent consumes the current token when it is an unquoted identifier
// spelled name (case-insensitive).
func (p *Parser) acceptIdent(name string) bool {
	if p.curTok.Type == token.IDENT && !p.curTok.Quoted && strings.EqualFold(p.curTok.Literal, name) {
		p.nextToken()
		return true
	}
	return false
}

// softKeyword reports whether t is a keyword that only carries meaning at a
// fixed clause position; anywhere else it names a column or table. FETCH
// and OFFSET stay reserved: accepting them as trailing aliases would
// swallow the row-limit clause after a table reference.
func softKeyword(t token.Type) bool {
	switch t {
	case token.FIRST, token.NEXT, token.ROW, token.ROWS, token.ONLY,
		token.TOP, token.TIES, token.PERCENT_KW,
		token.PARTITION, token.RANGE, token.UNBOUNDED,
		token.PRECEDING, token.FOLLOWING, token.CURRENT,
		token.MATCHED:
		return true
	}
	return false
}

// identLike reports whether the current token can serve as a name.
func (p *Parser) identLike() bool {
	return p.curTok.Type == token.IDENT || softKeyword(p.curTok.Type)
}

// ParseStatement parses one statement. The trailing semicolon, if present,
// is consumed. Returns the first syntax or lexical error encountered.
func (p *Parser) ParseStatement() (ast.Statement, error) {
	p.err = nil
	p.warnings = nil

	stmt := p.parseStatement()
	if p.err == nil {
		p.accept(token.SEMICOLON)
		if p.curTok.Type != token.EOF {
			p.fail("end of statement")
		}
	}
	// A lexer failure reaches the parser as an ILLEGAL token; report the
	// lexer's own account rather than the unexpected-token error it caused.
	if p.err == nil || p.curTok.Type == token.ILLEGAL {
		if lexErr := p.l.Err(); lexErr != nil {
			return nil, lexErr
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return stmt, nil
}

func (p *Parser) parseStatement() ast.Statement {
	var with *ast.WithClause
	if p.curTok.Type == token.WITH {
		with = p.parseWithClause()
		if p.err != nil {
			return nil
		}
	}

	switch p.curTok.Type {
	case token.SELECT, token.LPAREN:
		return p.parseSelect(with)
	case token.INSERT:
		return p.parseInsert(with)
	case token.UPDATE:
		return p.parseUpdate(with)
	case token.DELETE:
		return p.parseDelete(with)
	case token.MERGE:
		if with != nil {
			p.failMsg("MERGE does not take a WITH clause")
			return nil
		}
		return p.parseMerge()
	default:
		if p.curTok.Type == token.IDENT {
			p.failKind(KindUnsupportedStatement,
				fmt.Sprintf("unsupported statement: %s", strings.ToUpper(p.curTok.Literal)))
		} else {
			p.fail("SELECT, INSERT, UPDATE, DELETE or MERGE")
		}
		return nil
	}
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

func (p *Parser) parseExpression(minPrec int) ast.Expression {
	left := p.parseUnary()
	if p.err != nil {
		return nil
	}
	for p.err == nil {
		prec, ok := p.infixPrecedence()
		if !ok || prec < minPrec {
			break
		}
		left = p.parseInfix(left, prec)
	}
	return left
}

// infixPrecedence reports the binding power of the current token when it
// can continue an expression.
func (p *Parser) infixPrecedence() (int, bool) {
	switch p.curTok.Type {
	case token.OR:
		return ast.PrecOr, true
	case token.AND:
		return ast.PrecAnd, true
	case token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE,
		token.IS, token.IN, token.BETWEEN, token.LIKE:
		return ast.PrecComparison, true
	case token.NOT:
		// expr NOT IN / NOT BETWEEN / NOT LIKE
		switch p.peekTok.Type {
		case token.IN, token.BETWEEN, token.LIKE:
			return ast.PrecComparison, true
		}
		return 0, false
	case token.PLUS, token.MINUS, token.CONCAT:
		return ast.PrecAdditive, true
	case token.ASTERISK, token.SLASH, token.PERCENT:
		return ast.PrecMultiplicative, true
	default:
		return 0, false
	}
}

func (p *Parser) parseInfix(left ast.Expression, prec int) ast.Expression {
	switch p.curTok.Type {
	case token.IS:
		return p.parseIsNull(left)
	case token.IN:
		return p.parseIn(left, false)
	case token.BETWEEN:
		return p.parseBetween(left, false)
	case token.LIKE:
		return p.parseLike(left, false)
	case token.NOT:
		p.nextToken()
		switch p.curTok.Type {
		case token.IN:
			return p.parseIn(left, true)
		case token.BETWEEN:
			return p.parseBetween(left, true)
		case token.LIKE:
			return p.parseLike(left, true)
		}
		p.fail("IN, BETWEEN or LIKE")
		return nil
	}

	op := canonicalOperator(p.curTok)
	p.nextToken()
	// left-associative: equal precedence folds into the left operand
	right := p.parseExpression(prec + 1)
	if p.err != nil {
		return nil
	}
	// In dialects that overload + for strings, fold an evidently textual
	// + into the canonical concatenation operator. Without type
	// information only literal evidence counts.
	if op == "+" && p.d.ConcatStyle == dialect.ConcatPlus && (isTextual(left) || isTextual(right)) {
		op = "||"
	}
	return &ast.InfixExpression{Operator: op, Left: left, Right: right}
}

func isTextual(e ast.Expression) bool {
	switch n := e.(type) {
	case *ast.StringLiteral:
		return true
	case *ast.InfixExpression:
		return n.Operator == "||"
	}
	return false
}

func canonicalOperator(t token.Token) string {
	switch t.Type {
	case token.AND:
		return "AND"
	case token.OR:
		return "OR"
	case token.NEQ:
		return "<>"
	default:
		return t.Type.String()
	}
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.curTok.Type {
	case token.NOT:
		p.nextToken()
		operand := p.parseExpression(ast.PrecNot)
		if p.err != nil {
			return nil
		}
		return &ast.PrefixExpression{Operator: "NOT", Operand: operand}
	case token.MINUS:
		p.nextToken()
		operand := p.parseExpression(ast.PrecPrefix)
		if p.err != nil {
			return nil
		}
		return &ast.PrefixExpression{Operator: "-", Operand: operand}
	case token.PLUS:
		// unary plus is a no-op
		p.nextToken()
		return p.parseExpression(ast.PrecPrefix)
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.curTok.Type {
	case token.NUMBER:
		return p.parseNumber()
	case token.STRING:
		lit := &ast.StringLiteral{Value: p.curTok.Literal}
		p.nextToken()
		return lit
	case token.NSTRING:
		lit := &ast.StringLiteral{Value: p.curTok.Literal, National: true}
		p.nextToken()
		return lit
	case token.TRUE, token.FALSE:
		lit := &ast.BooleanLiteral{Value: p.curTok.Type == token.TRUE}
		p.nextToken()
		return lit
	case token.NULL:
		p.nextToken()
		return &ast.NullLiteral{}
	case token.PLACEHOLDER:
		p.nextToken()
		return &ast.Placeholder{}
	case token.BODY:
		body := &ast.ProceduralBody{Text: p.curTok.Literal}
		p.nextToken()
		return body
	case token.CASE:
		return p.parseCase()
	case token.CAST:
		return p.parseCast()
	case token.EXISTS:
		p.nextToken()
		if !p.expect(token.LPAREN) {
			return nil
		}
		sub := p.parseSelect(nil)
		if p.err != nil {
			return nil
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
		return &ast.ExistsExpression{Subquery: sub}
	case token.LPAREN:
		p.nextToken()
		if p.curTok.Type == token.SELECT || p.curTok.Type == token.WITH {
			var with *ast.WithClause
			if p.curTok.Type == token.WITH {
				with = p.parseWithClause()
			}
			sub := p.parseSelect(with)
			if p.err != nil {
				return nil
			}
			if !p.expect(token.RPAREN) {
				return nil
			}
			return &ast.SubqueryExpression{Select: sub}
		}
		inner := p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
		return inner
	case token.IDENT:
		return p.parseNameOrCall()
	case token.DEFAULT_KW:
		p.nextToken()
		return &ast.Identifier{Name: "DEFAULT"}
	case token.LEFT, token.RIGHT:
		// LEFT and RIGHT double as string functions
		if p.peekTok.Type == token.LPAREN {
			name := strings.ToUpper(p.curTok.Literal)
			p.nextToken()
			return p.parseCall(name)
		}
	}
	if softKeyword(p.curTok.Type) {
		return p.parseNameOrCall()
	}
	p.fail("expression")
	return nil
}

func (p *Parser) parseNumber() ast.Expression {
	text := p.curTok.Literal
	v, err := decimal.NewFromString(text)
	if err != nil {
		p.failKind(KindBadLiteral, fmt.Sprintf("bad numeric literal %q", text))
		return nil
	}
	p.nextToken()
	return &ast.NumberLiteral{Value: v, Text: text}
}

// parseNameOrCall handles identifiers: column references, qualified names,
// t.* stars, function calls and niladic function keywords.
func (p *Parser) parseNameOrCall() ast.Expression {
	first := ast.Identifier{Name: p.curTok.Literal, Quoted: p.curTok.Quoted}
	spelled := p.curTok.Literal
	quoted := p.curTok.Quoted
	p.nextToken()

	if p.curTok.Type == token.LPAREN && !quoted {
		return p.parseCall(p.d.CanonicalFunction(spelled))
	}

	if !quoted {
		if canon, ok := p.niladicCanonical(spelled); ok {
			return &ast.FunctionCall{Name: canon}
		}
	}

	name := &ast.QualifiedName{Parts: []ast.Identifier{first}}
	for p.curTok.Type == token.DOT {
		p.nextToken()
		if p.curTok.Type == token.ASTERISK {
			p.nextToken()
			return &ast.Star{Table: name}
		}
		if !p.identLike() {
			p.fail("identifier after '.'")
			return nil
		}
		name.Parts = append(name.Parts, ast.Identifier{Name: p.curTok.Literal, Quoted: p.curTok.Quoted})
		p.nextToken()
	}
	return name
}

// niladicCanonical reports whether spelled is a dialect keyword rendered
// without parentheses (CURRENT_TIMESTAMP, GETDATE-style forms use calls).
func (p *Parser) niladicCanonical(spelled string) (string, bool) {
	up := strings.ToUpper(spelled)
	for canon, kw := range p.d.NiladicFunctions {
		if strings.ToUpper(kw) == up {
			return strings.ToUpper(canon), true
		}
	}
	// CURRENT_TIMESTAMP is standard everywhere even when the dialect
	// prefers a function spelling.
	if up == "CURRENT_TIMESTAMP" {
		return "NOW", true
	}
	return "", false
}

// parseCall parses the argument list of a function call. name is already
// canonical. The opening parenthesis is the current token.
func (p *Parser) parseCall(name string) ast.Expression {
	call := &ast.FunctionCall{Name: name}
	p.nextToken() // (

	if p.curTok.Type == token.ASTERISK {
		call.Star = true
		p.nextToken()
	} else if p.curTok.Type != token.RPAREN {
		if p.accept(token.DISTINCT) {
			call.Distinct = true
		}
		for {
			arg := p.parseExpression(ast.PrecLowest)
			if p.err != nil {
				return nil
			}
			call.Args = append(call.Args, arg)
			if !p.accept(token.COMMA) {
				break
			}
		}
		// GROUP_CONCAT(x SEPARATOR 'sep') folds into the canonical
		// two-argument aggregate form.
		if name == "LISTAGG" && p.acceptIdent("SEPARATOR") {
			sep := p.parseExpression(ast.PrecLowest)
			if p.err != nil {
				return nil
			}
			call.Args = append(call.Args, sep)
		}
	}
	if !p.expect(token.RPAREN) {
		return nil
	}

	if p.curTok.Type == token.OVER {
		call.Over = p.parseOverClause()
		if p.err != nil {
			return nil
		}
	}
	// CONCAT(a, b, c) is the concatenation spelling in dialects without a
	// concat operator; fold it into the canonical infix chain.
	if name == "CONCAT" && p.d.ConcatStyle == dialect.ConcatFunc &&
		!call.Distinct && !call.Star && call.Over == nil && len(call.Args) >= 2 {
		expr := call.Args[0]
		for _, arg := range call.Args[1:] {
			expr = &ast.InfixExpression{Operator: "||", Left: expr, Right: arg}
		}
		return expr
	}
	return call
}

func (p *Parser) parseOverClause() *ast.OverClause {
	p.nextToken() // OVER
	if !p.expect(token.LPAREN) {
		return nil
	}
	over := &ast.OverClause{}
	if p.accept(token.PARTITION) {
		if !p.expect(token.BY) {
			return nil
		}
		for {
			e := p.parseExpression(ast.PrecLowest)
			if p.err != nil {
				return nil
			}
			over.PartitionBy = append(over.PartitionBy, e)
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	if p.accept(token.ORDER) {
		if !p.expect(token.BY) {
			return nil
		}
		over.OrderBy = p.parseOrderByItems()
		if p.err != nil {
			return nil
		}
	}
	if p.curTok.Type == token.ROWS || p.curTok.Type == token.RANGE {
		over.Frame = p.parseWindowFrame()
		if p.err != nil {
			return nil
		}
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return over
}

func (p *Parser) parseWindowFrame() *ast.WindowFrame {
	frame := &ast.WindowFrame{}
	if p.curTok.Type == token.RANGE {
		frame.Unit = ast.FrameRange
	}
	p.nextToken()

	if p.accept(token.BETWEEN) {
		frame.Start = p.parseFrameBound()
		if p.err != nil {
			return nil
		}
		if !p.expect(token.AND) {
			return nil
		}
		frame.End = p.parseFrameBound()
		if p.err != nil {
			return nil
		}
		return frame
	}
	frame.Start = p.parseFrameBound()
	if p.err != nil {
		return nil
	}
	return frame
}

func (p *Parser) parseFrameBound() *ast.FrameBound {
	switch p.curTok.Type {
	case token.UNBOUNDED:
		p.nextToken()
		switch p.curTok.Type {
		case token.PRECEDING:
			p.nextToken()
			return &ast.FrameBound{Kind: ast.BoundUnboundedPreceding}
		case token.FOLLOWING:
			p.nextToken()
			return &ast.FrameBound{Kind: ast.BoundUnboundedFollowing}
		}
		p.fail("PRECEDING or FOLLOWING")
		return nil
	case token.CURRENT:
		p.nextToken()
		if !p.expect(token.ROW) {
			return nil
		}
		return &ast.FrameBound{Kind: ast.BoundCurrentRow}
	default:
		offset := p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
		switch p.curTok.Type {
		case token.PRECEDING:
			p.nextToken()
			return &ast.FrameBound{Kind: ast.BoundPreceding, Offset: offset}
		case token.FOLLOWING:
			p.nextToken()
			return &ast.FrameBound{Kind: ast.BoundFollowing, Offset: offset}
		}
		p.fail("PRECEDING or FOLLOWING")
		return nil
	}
}

func (p *Parser) parseIsNull(left ast.Expression) ast.Expression {
	p.nextToken() // IS
	not := p.accept(token.NOT)
	if !p.expect(token.NULL) {
		return nil
	}
	return &ast.IsNullExpression{Expr: left, Not: not}
}

func (p *Parser) parseIn(left ast.Expression, not bool) ast.Expression {
	p.nextToken() // IN
	if !p.expect(token.LPAREN) {
		return nil
	}
	in := &ast.InExpression{Expr: left, Not: not}
	if p.curTok.Type == token.SELECT || p.curTok.Type == token.WITH {
		var with *ast.WithClause
		if p.curTok.Type == token.WITH {
			with = p.parseWithClause()
		}
		in.Subquery = p.parseSelect(with)
		if p.err != nil {
			return nil
		}
	} else {
		for {
			e := p.parseExpression(ast.PrecLowest)
			if p.err != nil {
				return nil
			}
			in.List = append(in.List, e)
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return in
}

func (p *Parser) parseBetween(left ast.Expression, not bool) ast.Expression {
	p.nextToken() // BETWEEN
	low := p.parseExpression(ast.PrecComparison + 1)
	if p.err != nil {
		return nil
	}
	if !p.expect(token.AND) {
		return nil
	}
	high := p.parseExpression(ast.PrecComparison + 1)
	if p.err != nil {
		return nil
	}
	return &ast.BetweenExpression{Expr: left, Low: low, High: high, Not: not}
}

func (p *Parser) parseLike(left ast.Expression, not bool) ast.Expression {
	p.nextToken() // LIKE
	pattern := p.parseExpression(ast.PrecComparison + 1)
	if p.err != nil {
		return nil
	}
	like := &ast.LikeExpression{Expr: left, Pattern: pattern, Not: not}
	if p.accept(token.ESCAPE) {
		like.Escape = p.parseExpression(ast.PrecComparison + 1)
		if p.err != nil {
			return nil
		}
	}
	return like
}

func (p *Parser) parseCase() ast.Expression {
	p.nextToken() // CASE
	c := &ast.CaseExpression{}
	if p.curTok.Type != token.WHEN {
		c.Operand = p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
	}
	for p.curTok.Type == token.WHEN {
		p.nextToken()
		cond := p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
		if !p.expect(token.THEN) {
			return nil
		}
		result := p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
		c.Whens = append(c.Whens, &ast.WhenClause{Condition: cond, Result: result})
	}
	if len(c.Whens) == 0 {
		p.fail("WHEN")
		return nil
	}
	if p.accept(token.ELSE) {
		c.Else = p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
	}
	if !p.expect(token.END) {
		return nil
	}
	return c
}

func (p *Parser) parseCast() ast.Expression {
	p.nextToken() // CAST
	if !p.expect(token.LPAREN) {
		return nil
	}
	expr := p.parseExpression(ast.PrecLowest)
	if p.err != nil {
		return nil
	}
	if !p.expect(token.AS) {
		return nil
	}
	typ := p.parseTypeName()
	if p.err != nil {
		return nil
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return &ast.CastExpression{Expr: expr, Type: typ}
}

func (p *Parser) parseTypeName() *ast.TypeName {
	if p.curTok.Type != token.IDENT {
		p.fail("type name")
		return nil
	}
	t := &ast.TypeName{Name: strings.ToUpper(p.curTok.Literal)}
	p.nextToken()
	// multi-word types: DOUBLE PRECISION and friends
	for p.curTok.Type == token.IDENT && isTypeWord(p.curTok.Literal) {
		t.Name += " " + strings.ToUpper(p.curTok.Literal)
		p.nextToken()
	}
	if p.accept(token.LPAREN) {
		for {
			if p.curTok.Type != token.NUMBER {
				p.fail("type argument")
				return nil
			}
			n, err := decimal.NewFromString(p.curTok.Literal)
			if err != nil || !n.IsInteger() {
				p.failKind(KindBadLiteral, fmt.Sprintf("bad type argument %q", p.curTok.Literal))
				return nil
			}
			t.Args = append(t.Args, int(n.IntPart()))
			p.nextToken()
			if !p.accept(token.COMMA) {
				break
			}
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
	}
	return t
}

func isTypeWord(s string) bool {
	switch strings.ToUpper(s) {
	case "PRECISION", "VARYING", "ZONE", "TIME":
		return true
	}
	return false
}
