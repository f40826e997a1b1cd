// Package token defines constants representing the lexical tokens of SQL.
package token

import "strconv"

// Type represents the type of a lexical token.
type Type int

const (
	// Special tokens
	ILLEGAL Type = iota
	EOF
	COMMENT

	// Identifiers and literals
	IDENT       // table_name, column_name (Quoted identifiers keep this type)
	NUMBER      // 12345, 123.45, 1.2e3
	STRING      // 'string literal'
	NSTRING     // N'unicode string'
	PLACEHOLDER // ? (parameter placeholder)
	BODY        // $$ ... $$ opaque procedural body (dollar-quoting dialects)

	// Operators
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	PERCENT  // %
	EQ       // =
	NEQ      // <> or !=
	LT       // <
	GT       // >
	LTE      // <=
	GTE      // >=
	CONCAT   // ||

	// Delimiters
	COMMA     // ,
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	DOT       // .

	keyword_beg
	// Keywords - DML
	SELECT
	INSERT
	UPDATE
	DELETE
	MERGE
	INTO
	VALUES
	SET
	USING
	MATCHED
	RETURNING
	DEFAULT_KW

	// Keywords - Query clauses
	FROM
	WHERE
	GROUP
	BY
	HAVING
	ORDER
	ASC
	DESC
	DISTINCT
	ALL
	AS
	UNION
	INTERSECT
	EXCEPT

	// Keywords - Joins
	JOIN
	INNER
	LEFT
	RIGHT
	FULL
	OUTER
	CROSS
	LATERAL
	ON

	// Keywords - Predicates
	AND
	OR
	NOT
	IN
	EXISTS
	BETWEEN
	LIKE
	ESCAPE
	IS
	NULL
	TRUE
	FALSE

	// Keywords - Row limiting
	LIMIT
	OFFSET
	FETCH
	FIRST
	NEXT
	ROWS
	ROW
	ONLY
	TOP
	PERCENT_KW
	WITH
	TIES

	// Keywords - Table expressions and windows
	RECURSIVE
	OVER
	PARTITION
	RANGE
	UNBOUNDED
	PRECEDING
	FOLLOWING
	CURRENT

	// Keywords - Expressions
	CASE
	WHEN
	THEN
	ELSE
	END
	CAST
	keyword_end
)

var tokenNames = map[Type]string{
	ILLEGAL:     "ILLEGAL",
	EOF:         "EOF",
	COMMENT:     "COMMENT",
	IDENT:       "IDENT",
	NUMBER:      "NUMBER",
	STRING:      "STRING",
	NSTRING:     "NSTRING",
	PLACEHOLDER: "PLACEHOLDER",
	BODY:        "BODY",
	PLUS:        "+",
	MINUS:       "-",
	ASTERISK:    "*",
	SLASH:       "/",
	PERCENT:     "%",
	EQ:          "=",
	NEQ:         "<>",
	LT:          "<",
	GT:          ">",
	LTE:         "<=",
	GTE:         ">=",
	CONCAT:      "||",
	COMMA:       ",",
	SEMICOLON:   ";",
	LPAREN:      "(",
	RPAREN:      ")",
	DOT:         ".",
}

var keywords = map[string]Type{
	"SELECT":    SELECT,
	"INSERT":    INSERT,
	"UPDATE":    UPDATE,
	"DELETE":    DELETE,
	"MERGE":     MERGE,
	"INTO":      INTO,
	"VALUES":    VALUES,
	"SET":       SET,
	"USING":     USING,
	"MATCHED":   MATCHED,
	"RETURNING": RETURNING,
	"DEFAULT":   DEFAULT_KW,
	"FROM":      FROM,
	"WHERE":     WHERE,
	"GROUP":     GROUP,
	"BY":        BY,
	"HAVING":    HAVING,
	"ORDER":     ORDER,
	"ASC":       ASC,
	"DESC":      DESC,
	"DISTINCT":  DISTINCT,
	"ALL":       ALL,
	"AS":        AS,
	"UNION":     UNION,
	"INTERSECT": INTERSECT,
	"EXCEPT":    EXCEPT,
	"JOIN":      JOIN,
	"INNER":     INNER,
	"LEFT":      LEFT,
	"RIGHT":     RIGHT,
	"FULL":      FULL,
	"OUTER":     OUTER,
	"CROSS":     CROSS,
	"LATERAL":   LATERAL,
	"ON":        ON,
	"AND":       AND,
	"OR":        OR,
	"NOT":       NOT,
	"IN":        IN,
	"EXISTS":    EXISTS,
	"BETWEEN":   BETWEEN,
	"LIKE":      LIKE,
	"ESCAPE":    ESCAPE,
	"IS":        IS,
	"NULL":      NULL,
	"TRUE":      TRUE,
	"FALSE":     FALSE,
	"LIMIT":     LIMIT,
	"OFFSET":    OFFSET,
	"FETCH":     FETCH,
	"FIRST":     FIRST,
	"NEXT":      NEXT,
	"ROWS":      ROWS,
	"ROW":       ROW,
	"ONLY":      ONLY,
	"TOP":       TOP,
	"PERCENT":   PERCENT_KW,
	"WITH":      WITH,
	"TIES":      TIES,
	"RECURSIVE": RECURSIVE,
	"OVER":      OVER,
	"PARTITION": PARTITION,
	"RANGE":     RANGE,
	"UNBOUNDED": UNBOUNDED,
	"PRECEDING": PRECEDING,
	"FOLLOWING": FOLLOWING,
	"CURRENT":   CURRENT,
	"CASE":      CASE,
	"WHEN":      WHEN,
	"THEN":      THEN,
	"ELSE":      ELSE,
	"END":       END,
	"CAST":      CAST,
}

// String returns a string representation of the token type.
func (t Type) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	// Check keywords
	for kw, typ := range keywords {
		if typ == t {
			return kw
		}
	}
	return "UNKNOWN"
}

// LookupIdent checks if an identifier is a keyword.
// The lookup is case-insensitive; callers pass the raw spelling.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[upper(ident)]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func (t Type) IsKeyword() bool {
	return t > keyword_beg && t < keyword_end
}

// upper is an ASCII-only ToUpper. SQL keywords are ASCII; avoiding
// strings.ToUpper keeps identifier text untouched for non-ASCII input.
func upper(s string) string {
	hasLower := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			hasLower = true
			break
		}
	}
	if !hasLower {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'a' && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}

// Token represents a lexical token with position information. Quoted is set
// on IDENT tokens that were written with the dialect's identifier quotes.
type Token struct {
	Type    Type
	Literal string
	Line    int
	Column  int
	Quoted  bool
}

// Pos returns the token's position.
func (t Token) Pos() Position {
	return Position{Line: t.Line, Column: t.Column}
}

// Position represents a position in source text (1-indexed).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}
