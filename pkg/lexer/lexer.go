// Package lexer turns raw SQL text into a token stream. Lexical rules that
// vary between dialects (identifier quoting, double-quoted strings, hash
// comments, dollar quoting) are taken from the dialect passed to New; the
// rest of the scanner is dialect independent.
package lexer

import (
	"fmt"
	"strings"

	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/token"
)

// Error reports a lexical failure with the position of the offending input.
type Error struct {
	Pos    token.Position
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Reason)
}

// Lexer scans a single input string.
type Lexer struct {
	input   string
	dialect *dialect.Dialect

	pos     int  // current position (points at ch)
	readPos int  // next position
	ch      byte // current byte, 0 at EOF

	line   int
	column int

	// KeepComments makes NextToken emit COMMENT tokens instead of
	// discarding them. The parser never sets this; directive scanning does.
	KeepComments bool

	err *Error // first lexical error
}

// New returns a lexer over input using d's lexical rules.
func New(input string, d *dialect.Dialect) *Lexer {
	l := &Lexer{input: input, dialect: d, line: 1, column: 0}
	l.readChar()
	return l
}

// Reset rewinds the lexer to the start of a new input, keeping the dialect.
func (l *Lexer) Reset(input string) {
	l.input = input
	l.pos = 0
	l.readPos = 0
	l.ch = 0
	l.line = 1
	l.column = 0
	l.err = nil
	l.readChar()
}

// Err returns the first lexical error seen, or nil.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// Tokenize scans the whole input. On a lexical error it returns the tokens
// scanned so far along with the error.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		toks = append(toks, tok)
		if tok.Type == token.ILLEGAL {
			break
		}
	}
	return toks, l.Err()
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) here() token.Position {
	return token.Position{Line: l.line, Column: l.column}
}

func (l *Lexer) fail(pos token.Position, reason string) token.Token {
	if l.err == nil {
		l.err = &Error{Pos: pos, Reason: reason}
	}
	return token.Token{Type: token.ILLEGAL, Literal: reason, Line: pos.Line, Column: pos.Column}
}

// NextToken returns the next token, or an EOF token at end of input.
// A lexical error yields an ILLEGAL token and is retained for Err.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespace()

		if c, ok := l.commentAhead(); ok {
			tok, err := l.readComment(c)
			if err != nil {
				return tok
			}
			if l.KeepComments {
				return tok
			}
			continue
		}
		break
	}

	pos := l.here()
	mk := func(t token.Type, lit string) token.Token {
		return token.Token{Type: t, Literal: lit, Line: pos.Line, Column: pos.Column}
	}

	switch l.ch {
	case 0:
		return mk(token.EOF, "")
	case ',':
		l.readChar()
		return mk(token.COMMA, ",")
	case ';':
		l.readChar()
		return mk(token.SEMICOLON, ";")
	case '(':
		l.readChar()
		return mk(token.LPAREN, "(")
	case ')':
		l.readChar()
		return mk(token.RPAREN, ")")
	case '.':
		l.readChar()
		return mk(token.DOT, ".")
	case '+':
		l.readChar()
		return mk(token.PLUS, "+")
	case '*':
		l.readChar()
		return mk(token.ASTERISK, "*")
	case '/':
		l.readChar()
		return mk(token.SLASH, "/")
	case '%':
		l.readChar()
		return mk(token.PERCENT, "%")
	case '=':
		l.readChar()
		return mk(token.EQ, "=")
	case '-':
		l.readChar()
		return mk(token.MINUS, "-")
	case '<':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return mk(token.NEQ, "<>")
		}
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return mk(token.LTE, "<=")
		}
		l.readChar()
		return mk(token.LT, "<")
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return mk(token.GTE, ">=")
		}
		l.readChar()
		return mk(token.GT, ">")
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return mk(token.NEQ, "!=")
		}
		l.readChar()
		return l.fail(pos, "unexpected character '!'")
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return mk(token.CONCAT, "||")
		}
		l.readChar()
		return l.fail(pos, "unexpected character '|'")
	case '?':
		l.readChar()
		return mk(token.PLACEHOLDER, "?")
	case ':':
		if isIdentStart(l.peekChar()) || isDigit(l.peekChar()) {
			l.readChar()
			start := l.pos
			for isIdentPart(l.ch) {
				l.readChar()
			}
			return mk(token.PLACEHOLDER, ":"+l.input[start:l.pos])
		}
		l.readChar()
		return l.fail(pos, "unexpected character ':'")
	case '$':
		if l.dialect.DollarQuoting {
			if tag, ok := l.dollarTagAhead(); ok {
				return l.readDollarBody(pos, tag)
			}
		}
		if isDigit(l.peekChar()) {
			l.readChar()
			start := l.pos
			for isDigit(l.ch) {
				l.readChar()
			}
			return mk(token.PLACEHOLDER, "$"+l.input[start:l.pos])
		}
		l.readChar()
		return l.fail(pos, "unexpected character '$'")
	case '\'':
		return l.readString(pos, false)
	case '"':
		if l.dialect.DoubleQuotedStrings {
			return l.readString(pos, false)
		}
	}

	if open, close, ok := l.identQuoteAhead(); ok {
		return l.readQuotedIdent(pos, open, close)
	}

	if l.ch == 'N' || l.ch == 'n' {
		if l.peekChar() == '\'' {
			l.readChar() // consume N
			return l.readString(pos, true)
		}
	}

	if isIdentStart(l.ch) {
		start := l.pos
		for isIdentPart(l.ch) {
			l.readChar()
		}
		lit := l.input[start:l.pos]
		return mk(token.LookupIdent(lit), lit)
	}

	if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
		return l.readNumber(pos)
	}

	ch := l.ch
	l.readChar()
	return l.fail(pos, fmt.Sprintf("unexpected character %q", ch))
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

type commentKind int

const (
	commentLine commentKind = iota
	commentBlock
)

func (l *Lexer) commentAhead() (commentKind, bool) {
	switch {
	case l.ch == '-' && l.peekChar() == '-':
		return commentLine, true
	case l.ch == '#' && l.dialect.HashComments:
		return commentLine, true
	case l.ch == '/' && l.peekChar() == '*':
		return commentBlock, true
	}
	return 0, false
}

func (l *Lexer) readComment(kind commentKind) (token.Token, error) {
	pos := l.here()
	start := l.pos
	if kind == commentLine {
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
		return token.Token{Type: token.COMMENT, Literal: l.input[start:l.pos], Line: pos.Line, Column: pos.Column}, nil
	}

	l.readChar() // '/'
	l.readChar() // '*'
	for {
		if l.ch == 0 {
			tok := l.fail(pos, "unterminated block comment")
			return tok, l.err
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.COMMENT, Literal: l.input[start:l.pos], Line: pos.Line, Column: pos.Column}, nil
		}
		l.readChar()
	}
}

// readString scans a single-quoted string. The opening quote has already been
// reached (l.ch is the quote). Doubled quotes are the escape form.
func (l *Lexer) readString(pos token.Position, national bool) token.Token {
	quote := l.ch
	l.readChar()
	var b strings.Builder
	for {
		if l.ch == 0 {
			return l.fail(pos, "unterminated string literal")
		}
		if l.ch == quote {
			if l.peekChar() == quote {
				b.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			break
		}
		b.WriteByte(l.ch)
		l.readChar()
	}
	t := token.STRING
	if national {
		t = token.NSTRING
	}
	return token.Token{Type: t, Literal: b.String(), Line: pos.Line, Column: pos.Column}
}

func (l *Lexer) identQuoteAhead() (open, close byte, ok bool) {
	for _, q := range l.dialect.IdentQuotes {
		if l.ch == q.Open {
			return q.Open, q.Close, true
		}
	}
	return 0, 0, false
}

// readQuotedIdent scans a quoted identifier. A doubled closing quote escapes
// the quote inside the name.
func (l *Lexer) readQuotedIdent(pos token.Position, open, close byte) token.Token {
	l.readChar()
	var b strings.Builder
	for {
		if l.ch == 0 || l.ch == '\n' {
			return l.fail(pos, "unterminated quoted identifier")
		}
		if l.ch == close {
			if l.peekChar() == close {
				b.WriteByte(close)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			break
		}
		b.WriteByte(l.ch)
		l.readChar()
	}
	return token.Token{Type: token.IDENT, Literal: b.String(), Line: pos.Line, Column: pos.Column, Quoted: true}
}

// dollarTagAhead reports whether the input at '$' begins a dollar-quoted
// body opener, $$ or $tag$, and returns the tag including both dollars.
func (l *Lexer) dollarTagAhead() (string, bool) {
	rest := l.input[l.pos:]
	if len(rest) < 2 {
		return "", false
	}
	if rest[1] == '$' {
		return "$$", true
	}
	i := 1
	for i < len(rest) && (isIdentPart(rest[i])) {
		i++
	}
	if i > 1 && i < len(rest) && rest[i] == '$' {
		return rest[:i+1], true
	}
	return "", false
}

func (l *Lexer) readDollarBody(pos token.Position, tag string) token.Token {
	for range tag {
		l.readChar()
	}
	start := l.pos
	idx := strings.Index(l.input[l.pos:], tag)
	if idx < 0 {
		for l.ch != 0 {
			l.readChar()
		}
		return l.fail(pos, "unterminated dollar-quoted body")
	}
	body := l.input[start : start+idx]
	for i := 0; i < idx+len(tag); i++ {
		l.readChar()
	}
	return token.Token{Type: token.BODY, Literal: body, Line: pos.Line, Column: pos.Column}
}

func (l *Lexer) readNumber(pos token.Position) token.Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && l.readPos+1 < len(l.input) && isDigit(l.input[l.readPos+1])) {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return token.Token{Type: token.NUMBER, Literal: l.input[start:l.pos], Line: pos.Line, Column: pos.Column}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
