package lexer

import (
	"strings"
	"testing"

	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/token"
)

func mustDialect(t *testing.T, name string) *dialect.Dialect {
	t.Helper()
	d, err := dialect.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", name, err)
	}
	return d
}

func TestNextTokenBasic(t *testing.T) {
	input := `SELECT id, name FROM users WHERE age >= 21 AND city <> 'NY';`
	want := []struct {
		typ token.Type
		lit string
	}{
		{token.SELECT, "SELECT"},
		{token.IDENT, "id"},
		{token.COMMA, ","},
		{token.IDENT, "name"},
		{token.FROM, "FROM"},
		{token.IDENT, "users"},
		{token.WHERE, "WHERE"},
		{token.IDENT, "age"},
		{token.GTE, ">="},
		{token.NUMBER, "21"},
		{token.AND, "AND"},
		{token.IDENT, "city"},
		{token.NEQ, "<>"},
		{token.STRING, "NY"},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	}

	l := New(input, mustDialect(t, "postgres"))
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.typ {
			t.Fatalf("token %d: type = %v, want %v (literal %q)", i, tok.Type, w.typ, tok.Literal)
		}
		if tok.Literal != w.lit {
			t.Fatalf("token %d: literal = %q, want %q", i, tok.Literal, w.lit)
		}
	}
}

func TestKeywordsCaseInsensitive(t *testing.T) {
	l := New("select Select SELECT sElEcT", mustDialect(t, "postgres"))
	for i := 0; i < 4; i++ {
		tok := l.NextToken()
		if tok.Type != token.SELECT {
			t.Errorf("token %d: type = %v, want SELECT", i, tok.Type)
		}
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		typ     token.Type
		literal string
	}{
		{"plain", `'hello'`, token.STRING, "hello"},
		{"empty", `''`, token.STRING, ""},
		{"escaped quote", `'it''s'`, token.STRING, "it's"},
		{"national", `N'héllo'`, token.NSTRING, "héllo"},
		{"national lowercase", `n'x'`, token.NSTRING, "x"},
	}
	d := mustDialect(t, "postgres")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input, d)
			tok := l.NextToken()
			if tok.Type != tt.typ {
				t.Fatalf("type = %v, want %v", tok.Type, tt.typ)
			}
			if tok.Literal != tt.literal {
				t.Errorf("literal = %q, want %q", tok.Literal, tt.literal)
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`SELECT 'oops`, mustDialect(t, "postgres"))
	l.NextToken() // SELECT
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("type = %v, want ILLEGAL", tok.Type)
	}
	if l.Err() == nil {
		t.Fatal("Err() = nil, want lexical error")
	}
	if !strings.Contains(l.Err().Error(), "unterminated string") {
		t.Errorf("Err() = %q, want unterminated string", l.Err())
	}
}

func TestQuotedIdentifiers(t *testing.T) {
	tests := []struct {
		dialect string
		input   string
		literal string
	}{
		{"postgres", `"Order Details"`, "Order Details"},
		{"mysql", "`Order Details`", "Order Details"},
		{"sqlserver", `[Order Details]`, "Order Details"},
		{"sqlserver", `"Order Details"`, "Order Details"},
		{"sqlite", `"weird""name"`, `weird"name`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.input, func(t *testing.T) {
			l := New(tt.input, mustDialect(t, tt.dialect))
			tok := l.NextToken()
			if tok.Type != token.IDENT {
				t.Fatalf("type = %v, want IDENT", tok.Type)
			}
			if tok.Literal != tt.literal {
				t.Errorf("literal = %q, want %q", tok.Literal, tt.literal)
			}
			if !tok.Quoted {
				t.Error("Quoted = false, want true")
			}
		})
	}
}

func TestMySQLDoubleQuotedString(t *testing.T) {
	// MySQL in its default mode treats double quotes as string quotes.
	l := New(`"hello"`, mustDialect(t, "mysql"))
	tok := l.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("type = %v, want STRING", tok.Type)
	}
	if tok.Literal != "hello" {
		t.Errorf("literal = %q, want %q", tok.Literal, "hello")
	}
}

func TestComments(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		input   string
		want    token.Type
	}{
		{"line comment", "postgres", "-- note\nSELECT", token.SELECT},
		{"block comment", "postgres", "/* multi\nline */ SELECT", token.SELECT},
		{"hash comment mysql", "mysql", "# note\nSELECT", token.SELECT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input, mustDialect(t, tt.dialect))
			tok := l.NextToken()
			if tok.Type != tt.want {
				t.Errorf("type = %v, want %v", tok.Type, tt.want)
			}
		})
	}
}

func TestHashNotCommentOutsideMySQL(t *testing.T) {
	l := New("# note", mustDialect(t, "postgres"))
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Errorf("type = %v, want ILLEGAL", tok.Type)
	}
}

func TestKeepComments(t *testing.T) {
	l := New("-- @xlate: skip\nSELECT 1", mustDialect(t, "postgres"))
	l.KeepComments = true
	tok := l.NextToken()
	if tok.Type != token.COMMENT {
		t.Fatalf("type = %v, want COMMENT", tok.Type)
	}
	if tok.Literal != "-- @xlate: skip" {
		t.Errorf("literal = %q", tok.Literal)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := New("/* never closed", mustDialect(t, "postgres"))
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("type = %v, want ILLEGAL", tok.Type)
	}
	if !strings.Contains(l.Err().Error(), "unterminated block comment") {
		t.Errorf("Err() = %q", l.Err())
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		dialect string
		input   string
		literal string
	}{
		{"sqlite", "?", "?"},
		{"postgres", "$1", "$1"},
		{"postgres", "$23", "$23"},
		{"oracle", ":name", ":name"},
		{"oracle", ":1", ":1"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input, mustDialect(t, tt.dialect))
			tok := l.NextToken()
			if tok.Type != token.PLACEHOLDER {
				t.Fatalf("type = %v, want PLACEHOLDER", tok.Type)
			}
			if tok.Literal != tt.literal {
				t.Errorf("literal = %q, want %q", tok.Literal, tt.literal)
			}
		})
	}
}

func TestDollarQuotedBody(t *testing.T) {
	d := mustDialect(t, "postgres")

	l := New("$$ BEGIN RETURN 1; END $$", d)
	tok := l.NextToken()
	if tok.Type != token.BODY {
		t.Fatalf("type = %v, want BODY", tok.Type)
	}
	if tok.Literal != " BEGIN RETURN 1; END " {
		t.Errorf("literal = %q", tok.Literal)
	}

	l = New("$fn$ SELECT 'a$$b'; $fn$", d)
	tok = l.NextToken()
	if tok.Type != token.BODY {
		t.Fatalf("tagged: type = %v, want BODY", tok.Type)
	}
	if tok.Literal != " SELECT 'a$$b'; " {
		t.Errorf("tagged: literal = %q", tok.Literal)
	}
}

func TestDollarBodyOnlyWhenSupported(t *testing.T) {
	l := New("$$x$$", mustDialect(t, "mysql"))
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Errorf("type = %v, want ILLEGAL for mysql dollar quoting", tok.Type)
	}
}

func TestUnterminatedDollarBody(t *testing.T) {
	l := New("$$ never closed", mustDialect(t, "postgres"))
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("type = %v, want ILLEGAL", tok.Type)
	}
	if !strings.Contains(l.Err().Error(), "unterminated dollar-quoted body") {
		t.Errorf("Err() = %q", l.Err())
	}
}

func TestNumbers(t *testing.T) {
	tests := []string{"0", "42", "3.14", "1.5e10", "2E-3", "10e+2"}
	d := mustDialect(t, "postgres")
	for _, in := range tests {
		l := New(in, d)
		tok := l.NextToken()
		if tok.Type != token.NUMBER {
			t.Errorf("%q: type = %v, want NUMBER", in, tok.Type)
		}
		if tok.Literal != in {
			t.Errorf("%q: literal = %q", in, tok.Literal)
		}
	}
}

func TestPositionTracking(t *testing.T) {
	l := New("SELECT\n  id", mustDialect(t, "postgres"))
	tok := l.NextToken()
	if tok.Line != 1 || tok.Column != 1 {
		t.Errorf("SELECT at %d:%d, want 1:1", tok.Line, tok.Column)
	}
	tok = l.NextToken()
	if tok.Line != 2 || tok.Column != 3 {
		t.Errorf("id at %d:%d, want 2:3", tok.Line, tok.Column)
	}
}

func TestTokenize(t *testing.T) {
	l := New("SELECT 1", mustDialect(t, "postgres"))
	toks, err := l.Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(toks) != 2 {
		t.Fatalf("len = %d, want 2", len(toks))
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		input   string
		want    []string
	}{
		{
			name:    "two statements",
			dialect: "postgres",
			input:   "SELECT 1; SELECT 2",
			want:    []string{"SELECT 1", "SELECT 2"},
		},
		{
			name:    "semicolon in string",
			dialect: "postgres",
			input:   "SELECT 'a;b'; SELECT 2;",
			want:    []string{"SELECT 'a;b'", "SELECT 2"},
		},
		{
			name:    "semicolon in comment",
			dialect: "postgres",
			input:   "SELECT 1 -- not; here\n; SELECT 2",
			want:    []string{"SELECT 1 -- not; here", "SELECT 2"},
		},
		{
			name:    "semicolon in block comment",
			dialect: "postgres",
			input:   "SELECT /* a;b */ 1; SELECT 2",
			want:    []string{"SELECT /* a;b */ 1", "SELECT 2"},
		},
		{
			name:    "semicolon in dollar body",
			dialect: "postgres",
			input:   "SELECT $$ a; b $$; SELECT 2",
			want:    []string{"SELECT $$ a; b $$", "SELECT 2"},
		},
		{
			name:    "semicolon in bracket ident",
			dialect: "sqlserver",
			input:   "SELECT [a;b] FROM t; SELECT 2",
			want:    []string{"SELECT [a;b] FROM t", "SELECT 2"},
		},
		{
			name:    "empty statements dropped",
			dialect: "postgres",
			input:   ";;  ;SELECT 1;",
			want:    []string{"SELECT 1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitStatements(tt.input, mustDialect(t, tt.dialect))
			if err != nil {
				t.Fatalf("SplitStatements: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d statements %q, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("statement %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
