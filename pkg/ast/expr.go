package ast

import (
	"strconv"
	"strings"
)

// PrefixExpression is a unary operator application (NOT, unary minus).
type PrefixExpression struct {
	Operator string
	Operand  Expression
}

func (p *PrefixExpression) expressionNode() {}
func (p *PrefixExpression) String() string {
	if p.Operator == "NOT" {
		return "NOT " + parenthesize(p.Operand, PrecNot)
	}
	return p.Operator + parenthesize(p.Operand, PrecPrefix)
}

// InfixExpression is a binary operator application. Operators are the
// canonical spellings: AND OR = <> < > <= >= + - * / % ||.
type InfixExpression struct {
	Operator string
	Left     Expression
	Right    Expression
}

func (i *InfixExpression) expressionNode() {}
func (i *InfixExpression) String() string {
	prec := OperatorPrecedence(i.Operator)
	left := parenthesize(i.Left, prec)
	rightPrec := prec
	if !Associative(i.Operator) {
		rightPrec = prec + 1
	}
	right := parenthesize(i.Right, rightPrec)
	return left + " " + i.Operator + " " + right
}

// parenthesize renders child, wrapping it in parentheses only when its
// precedence is below the context's minimum.
func parenthesize(child Expression, min int) string {
	if Precedence(child) < min {
		return "(" + child.String() + ")"
	}
	return child.String()
}

// BetweenExpression is expr [NOT] BETWEEN low AND high.
type BetweenExpression struct {
	Expr Expression
	Low  Expression
	High Expression
	Not  bool
}

func (b *BetweenExpression) expressionNode() {}
func (b *BetweenExpression) String() string {
	var out strings.Builder
	out.WriteString(parenthesize(b.Expr, PrecComparison+1))
	if b.Not {
		out.WriteString(" NOT")
	}
	out.WriteString(" BETWEEN ")
	out.WriteString(parenthesize(b.Low, PrecComparison+1))
	out.WriteString(" AND ")
	out.WriteString(parenthesize(b.High, PrecComparison+1))
	return out.String()
}

// InExpression is expr [NOT] IN (list) or expr [NOT] IN (subquery).
type InExpression struct {
	Expr     Expression
	List     []Expression
	Subquery *SelectStatement
	Not      bool
}

func (in *InExpression) expressionNode() {}
func (in *InExpression) String() string {
	var out strings.Builder
	out.WriteString(parenthesize(in.Expr, PrecComparison+1))
	if in.Not {
		out.WriteString(" NOT")
	}
	out.WriteString(" IN (")
	if in.Subquery != nil {
		out.WriteString(in.Subquery.String())
	} else {
		items := make([]string, len(in.List))
		for i, e := range in.List {
			items[i] = e.String()
		}
		out.WriteString(strings.Join(items, ", "))
	}
	out.WriteString(")")
	return out.String()
}

// LikeExpression is expr [NOT] LIKE pattern [ESCAPE esc].
type LikeExpression struct {
	Expr    Expression
	Pattern Expression
	Escape  Expression
	Not     bool
}

func (l *LikeExpression) expressionNode() {}
func (l *LikeExpression) String() string {
	var out strings.Builder
	out.WriteString(parenthesize(l.Expr, PrecComparison+1))
	if l.Not {
		out.WriteString(" NOT")
	}
	out.WriteString(" LIKE ")
	out.WriteString(parenthesize(l.Pattern, PrecComparison+1))
	if l.Escape != nil {
		out.WriteString(" ESCAPE ")
		out.WriteString(l.Escape.String())
	}
	return out.String()
}

// IsNullExpression is expr IS [NOT] NULL.
type IsNullExpression struct {
	Expr Expression
	Not  bool
}

func (i *IsNullExpression) expressionNode() {}
func (i *IsNullExpression) String() string {
	s := parenthesize(i.Expr, PrecComparison+1) + " IS"
	if i.Not {
		s += " NOT"
	}
	return s + " NULL"
}

// ExistsExpression is EXISTS (subquery).
type ExistsExpression struct {
	Subquery *SelectStatement
}

func (e *ExistsExpression) expressionNode() {}
func (e *ExistsExpression) String() string {
	return "EXISTS (" + e.Subquery.String() + ")"
}

// SubqueryExpression is a scalar subquery used as an expression.
type SubqueryExpression struct {
	Select *SelectStatement
}

func (s *SubqueryExpression) expressionNode() {}
func (s *SubqueryExpression) String() string {
	return "(" + s.Select.String() + ")"
}

// WhenClause is one WHEN ... THEN ... arm of a CASE expression.
type WhenClause struct {
	Condition Expression
	Result    Expression
}

func (w *WhenClause) String() string {
	return "WHEN " + w.Condition.String() + " THEN " + w.Result.String()
}

// CaseExpression is a simple or searched CASE.
type CaseExpression struct {
	Operand Expression // nil for searched CASE
	Whens   []*WhenClause
	Else    Expression
}

func (c *CaseExpression) expressionNode() {}
func (c *CaseExpression) String() string {
	var out strings.Builder
	out.WriteString("CASE")
	if c.Operand != nil {
		out.WriteString(" ")
		out.WriteString(c.Operand.String())
	}
	for _, w := range c.Whens {
		out.WriteString(" ")
		out.WriteString(w.String())
	}
	if c.Else != nil {
		out.WriteString(" ELSE ")
		out.WriteString(c.Else.String())
	}
	out.WriteString(" END")
	return out.String()
}

// TypeName is a data type in a CAST.
type TypeName struct {
	Name string
	Args []int // precision/scale/length, in source order
}

func (t *TypeName) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = strconv.Itoa(a)
	}
	return t.Name + "(" + strings.Join(args, ", ") + ")"
}

// CastExpression is CAST(expr AS type).
type CastExpression struct {
	Expr Expression
	Type *TypeName
}

func (c *CastExpression) expressionNode() {}
func (c *CastExpression) String() string {
	return "CAST(" + c.Expr.String() + " AS " + c.Type.String() + ")"
}

// FunctionCall is a function or aggregate invocation. Name is canonical
// (upper-case); the emitter maps it to the target spelling. Star marks
// COUNT(*).
type FunctionCall struct {
	Name     string
	Args     []Expression
	Distinct bool
	Star     bool
	Over     *OverClause // non-nil for window invocations
}

func (f *FunctionCall) expressionNode() {}
func (f *FunctionCall) String() string {
	var out strings.Builder
	out.WriteString(f.Name)
	out.WriteString("(")
	if f.Star {
		out.WriteString("*")
	} else {
		if f.Distinct {
			out.WriteString("DISTINCT ")
		}
		args := make([]string, len(f.Args))
		for i, a := range f.Args {
			args[i] = a.String()
		}
		out.WriteString(strings.Join(args, ", "))
	}
	out.WriteString(")")
	if f.Over != nil {
		out.WriteString(" ")
		out.WriteString(f.Over.String())
	}
	return out.String()
}

// OrderByItem is one ORDER BY element.
type OrderByItem struct {
	Expr Expression
	Desc bool
}

func (o *OrderByItem) String() string {
	s := o.Expr.String()
	if o.Desc {
		s += " DESC"
	}
	return s
}

// FrameUnit selects ROWS or RANGE framing.
type FrameUnit int

const (
	FrameRows FrameUnit = iota
	FrameRange
)

func (u FrameUnit) String() string {
	if u == FrameRange {
		return "RANGE"
	}
	return "ROWS"
}

// BoundKind identifies a window frame bound.
type BoundKind int

const (
	BoundUnboundedPreceding BoundKind = iota
	BoundPreceding
	BoundCurrentRow
	BoundFollowing
	BoundUnboundedFollowing
)

// FrameBound is one endpoint of a window frame.
type FrameBound struct {
	Kind   BoundKind
	Offset Expression // for BoundPreceding/BoundFollowing
}

func (b *FrameBound) String() string {
	switch b.Kind {
	case BoundUnboundedPreceding:
		return "UNBOUNDED PRECEDING"
	case BoundPreceding:
		return b.Offset.String() + " PRECEDING"
	case BoundCurrentRow:
		return "CURRENT ROW"
	case BoundFollowing:
		return b.Offset.String() + " FOLLOWING"
	default:
		return "UNBOUNDED FOLLOWING"
	}
}

// WindowFrame is the framing clause of an OVER specification.
type WindowFrame struct {
	Unit  FrameUnit
	Start *FrameBound
	End   *FrameBound // nil for single-bound frames
}

func (w *WindowFrame) String() string {
	if w.End == nil {
		return w.Unit.String() + " " + w.Start.String()
	}
	return w.Unit.String() + " BETWEEN " + w.Start.String() + " AND " + w.End.String()
}

// OverClause is a window specification.
type OverClause struct {
	PartitionBy []Expression
	OrderBy     []*OrderByItem
	Frame       *WindowFrame
}

func (o *OverClause) String() string {
	var parts []string
	if len(o.PartitionBy) > 0 {
		items := make([]string, len(o.PartitionBy))
		for i, e := range o.PartitionBy {
			items[i] = e.String()
		}
		parts = append(parts, "PARTITION BY "+strings.Join(items, ", "))
	}
	if len(o.OrderBy) > 0 {
		items := make([]string, len(o.OrderBy))
		for i, ob := range o.OrderBy {
			items[i] = ob.String()
		}
		parts = append(parts, "ORDER BY "+strings.Join(items, ", "))
	}
	if o.Frame != nil {
		parts = append(parts, o.Frame.String())
	}
	return "OVER (" + strings.Join(parts, " ") + ")"
}
