// Package ast defines the dialect-neutral Abstract Syntax Tree shared by
// all translations.
//
// Nodes form a strict tree: every node owns its children and nothing holds
// a back-pointer. Recursive CTEs are represented by a name reference plus
// the IsRecursive flag, never by a cycle, so any traversal is a finite walk.
// Nodes carry no source positions; errors are reported by the parser from
// the token stream, and two parses of equivalent text compare equal with
// reflect.DeepEqual.
package ast

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Node represents a node in the AST. String renders the canonical form,
// used for debugging and structural comparison; dialect-specific rendering
// is the emitter's job.
type Node interface {
	String() string
}

// Statement represents a statement node.
type Statement interface {
	Node
	statementNode()
}

// Expression represents an expression node.
type Expression interface {
	Node
	expressionNode()
}

// TableRef represents a table reference in a FROM clause.
type TableRef interface {
	Node
	tableRefNode()
}

// -----------------------------------------------------------------------------
// Identifiers and literals
// -----------------------------------------------------------------------------

// Identifier is a single identifier part. Quoted records that the source
// spelled it with delimiters; the emitter re-quotes it for the target.
type Identifier struct {
	Name   string
	Quoted bool
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string {
	if i.Quoted {
		return `"` + strings.ReplaceAll(i.Name, `"`, `""`) + `"`
	}
	return i.Name
}

// QualifiedName is a dotted multi-part name (schema.table, table.column).
type QualifiedName struct {
	Parts []Identifier
}

func (q *QualifiedName) expressionNode() {}
func (q *QualifiedName) String() string {
	parts := make([]string, len(q.Parts))
	for i := range q.Parts {
		parts[i] = q.Parts[i].String()
	}
	return strings.Join(parts, ".")
}

// Last returns the final (unqualified) part of the name.
func (q *QualifiedName) Last() string {
	if len(q.Parts) == 0 {
		return ""
	}
	return q.Parts[len(q.Parts)-1].Name
}

// Star is the bare * in a SELECT list or COUNT(*).
type Star struct {
	Table *QualifiedName // t.* when non-nil
}

func (s *Star) expressionNode() {}
func (s *Star) String() string {
	if s.Table != nil {
		return s.Table.String() + ".*"
	}
	return "*"
}

// NumberLiteral is a numeric literal. Text preserves the source spelling
// exactly, trailing zeros and exponent included; Value backs numeric
// inspection.
type NumberLiteral struct {
	Value decimal.Decimal
	Text  string
}

func (n *NumberLiteral) expressionNode() {}
func (n *NumberLiteral) String() string {
	if n.Text != "" {
		return n.Text
	}
	return n.Value.String()
}

// StringLiteral is a quoted string. National marks N'...' spellings.
type StringLiteral struct {
	Value    string
	National bool
}

func (s *StringLiteral) expressionNode() {}
func (s *StringLiteral) String() string {
	return "'" + strings.ReplaceAll(s.Value, "'", "''") + "'"
}

// BooleanLiteral is TRUE or FALSE.
type BooleanLiteral struct {
	Value bool
}

func (b *BooleanLiteral) expressionNode() {}
func (b *BooleanLiteral) String() string {
	if b.Value {
		return "TRUE"
	}
	return "FALSE"
}

// NullLiteral is the NULL keyword.
type NullLiteral struct{}

func (n *NullLiteral) expressionNode() {}
func (n *NullLiteral) String() string  { return "NULL" }

// Placeholder is a parameter placeholder. The emitter renders it in the
// target's style (?, $n, :n).
type Placeholder struct{}

func (p *Placeholder) expressionNode() {}
func (p *Placeholder) String() string  { return "?" }

// ProceduralBody is an opaque dollar-quoted block carried through
// untranslated. Procedural SQL is out of scope; the parser only accepts
// these where a dialect allows an opaque body.
type ProceduralBody struct {
	Text string
}

func (p *ProceduralBody) expressionNode() {}
func (p *ProceduralBody) String() string  { return "$$" + p.Text + "$$" }
