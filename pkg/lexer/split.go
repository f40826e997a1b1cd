package lexer

import (
	"strings"

	"github.com/transqlate/transqlate/pkg/dialect"
)

// SplitStatements splits input into individual statements on semicolons.
// Semicolons inside string literals, quoted identifiers, comments and
// dollar-quoted bodies do not split. The returned statements keep their
// original text, trimmed of surrounding whitespace; empty statements are
// dropped. A trailing semicolon is not required.
func SplitStatements(input string, d *dialect.Dialect) ([]string, error) {
	var stmts []string
	start := 0
	i := 0
	n := len(input)

	flush := func(end int) {
		s := strings.TrimSpace(input[start:end])
		if s != "" {
			stmts = append(stmts, s)
		}
	}

	for i < n {
		ch := input[i]
		switch {
		case ch == ';':
			flush(i)
			i++
			start = i

		case ch == '\'':
			i = skipQuoted(input, i, '\'')

		case ch == '"':
			i = skipQuoted(input, i, '"')

		case ch == '-' && i+1 < n && input[i+1] == '-':
			i = skipLine(input, i)

		case ch == '#' && d.HashComments:
			i = skipLine(input, i)

		case ch == '/' && i+1 < n && input[i+1] == '*':
			end := strings.Index(input[i+2:], "*/")
			if end < 0 {
				i = n
			} else {
				i += 2 + end + 2
			}

		case ch == '$' && d.DollarQuoting:
			if tag, ok := dollarTagAt(input, i); ok {
				rest := input[i+len(tag):]
				end := strings.Index(rest, tag)
				if end < 0 {
					i = n
				} else {
					i += len(tag) + end + len(tag)
				}
			} else {
				i++
			}

		default:
			if open, close, ok := identQuoteAt(d, ch); ok && open != '"' {
				i = skipQuoted(input, i, close)
			} else {
				i++
			}
		}
	}
	flush(n)
	return stmts, nil
}

// skipQuoted advances past a quoted region opened at input[i], honoring the
// doubled-quote escape. Returns the index just past the closing quote, or
// len(input) if unterminated.
func skipQuoted(input string, i int, close byte) int {
	i++
	n := len(input)
	for i < n {
		if input[i] == close {
			if i+1 < n && input[i+1] == close {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return n
}

func skipLine(input string, i int) int {
	for i < len(input) && input[i] != '\n' {
		i++
	}
	return i
}

func identQuoteAt(d *dialect.Dialect, ch byte) (open, close byte, ok bool) {
	for _, q := range d.IdentQuotes {
		if ch == q.Open {
			return q.Open, q.Close, true
		}
	}
	return 0, 0, false
}

func dollarTagAt(input string, i int) (string, bool) {
	rest := input[i:]
	if len(rest) < 2 {
		return "", false
	}
	if rest[1] == '$' {
		return "$$", true
	}
	j := 1
	for j < len(rest) && isIdentPart(rest[j]) {
		j++
	}
	if j > 1 && j < len(rest) && rest[j] == '$' {
		return rest[:j+1], true
	}
	return "", false
}
