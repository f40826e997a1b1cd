package emit

import (
	"strings"

	"github.com/transqlate/transqlate/pkg/ast"
	"github.com/transqlate/transqlate/pkg/dialect"
)

// emitExpr renders expr, parenthesizing when its precedence falls below the
// context's minimum.
func (e *Emitter) emitExpr(expr ast.Expression, min int) {
	if ast.Precedence(expr) < min {
		e.write("(")
		e.emitExprInner(expr)
		e.write(")")
		return
	}
	e.emitExprInner(expr)
}

func (e *Emitter) emitExprInner(expr ast.Expression) {
	switch n := expr.(type) {
	case *ast.Identifier:
		e.emitIdentifier(*n)
	case *ast.QualifiedName:
		e.emitQualifiedName(n)
	case *ast.Star:
		if n.Table != nil {
			e.emitQualifiedName(n.Table)
			e.write(".*")
		} else {
			e.write("*")
		}
	case *ast.NumberLiteral:
		e.write(n.String())
	case *ast.StringLiteral:
		if n.National {
			e.write("N")
		}
		e.write("'", strings.ReplaceAll(n.Value, "'", "''"), "'")
	case *ast.BooleanLiteral:
		e.emitBoolean(n)
	case *ast.NullLiteral:
		e.write("NULL")
	case *ast.Placeholder:
		e.emitPlaceholder()
	case *ast.ProceduralBody:
		e.write("$$", n.Text, "$$")
	case *ast.PrefixExpression:
		e.emitPrefix(n)
	case *ast.InfixExpression:
		e.emitInfix(n)
	case *ast.BetweenExpression:
		e.emitExpr(n.Expr, ast.PrecComparison+1)
		if n.Not {
			e.write(" NOT")
		}
		e.write(" BETWEEN ")
		e.emitExpr(n.Low, ast.PrecComparison+1)
		e.write(" AND ")
		e.emitExpr(n.High, ast.PrecComparison+1)
	case *ast.InExpression:
		e.emitExpr(n.Expr, ast.PrecComparison+1)
		if n.Not {
			e.write(" NOT")
		}
		e.write(" IN (")
		if n.Subquery != nil {
			e.emitSelect(n.Subquery)
		} else {
			for i, item := range n.List {
				if i > 0 {
					e.write(", ")
				}
				e.emitExpr(item, ast.PrecLowest)
			}
		}
		e.write(")")
	case *ast.LikeExpression:
		e.emitExpr(n.Expr, ast.PrecComparison+1)
		if n.Not {
			e.write(" NOT")
		}
		e.write(" LIKE ")
		e.emitExpr(n.Pattern, ast.PrecComparison+1)
		if n.Escape != nil {
			e.write(" ESCAPE ")
			e.emitExpr(n.Escape, ast.PrecComparison+1)
		}
	case *ast.IsNullExpression:
		e.emitExpr(n.Expr, ast.PrecComparison+1)
		e.write(" IS ")
		if n.Not {
			e.write("NOT ")
		}
		e.write("NULL")
	case *ast.ExistsExpression:
		e.write("EXISTS (")
		e.emitSelect(n.Subquery)
		e.write(")")
	case *ast.SubqueryExpression:
		e.write("(")
		e.emitSelect(n.Select)
		e.write(")")
	case *ast.SelectStatement:
		e.write("(")
		e.emitSelect(n)
		e.write(")")
	case *ast.CaseExpression:
		e.emitCase(n)
	case *ast.CastExpression:
		e.write("CAST(")
		e.emitExpr(n.Expr, ast.PrecLowest)
		e.write(" AS ", n.Type.String(), ")")
	case *ast.FunctionCall:
		e.emitFunctionCall(n)
	}
}

func (e *Emitter) emitBoolean(n *ast.BooleanLiteral) {
	if e.d.Supports(dialect.FeatureBooleanLiterals) {
		if n.Value {
			e.write("TRUE")
		} else {
			e.write("FALSE")
		}
		return
	}
	if n.Value {
		e.write("1")
	} else {
		e.write("0")
	}
}

func (e *Emitter) emitPrefix(n *ast.PrefixExpression) {
	if n.Operator == "NOT" {
		e.write("NOT ")
		e.emitExpr(n.Operand, ast.PrecNot)
		return
	}
	e.write(n.Operator)
	e.emitExpr(n.Operand, ast.PrecPrefix)
}

func (e *Emitter) emitInfix(n *ast.InfixExpression) {
	if n.Operator == "||" {
		e.emitConcat(n)
		return
	}
	prec := ast.OperatorPrecedence(n.Operator)
	e.emitExpr(n.Left, prec)
	e.write(" ", n.Operator, " ")
	rightMin := prec
	if !ast.Associative(n.Operator) {
		rightMin = prec + 1
	}
	e.emitExpr(n.Right, rightMin)
}

// emitConcat renders string concatenation in the target's style. For the
// function style a left-leaning chain of || folds into one CONCAT call.
func (e *Emitter) emitConcat(n *ast.InfixExpression) {
	switch e.d.ConcatStyle {
	case dialect.ConcatPlus:
		e.emitExpr(n.Left, ast.PrecAdditive)
		e.write(" + ")
		e.emitExpr(n.Right, ast.PrecAdditive+1)
	case dialect.ConcatFunc:
		operands := flattenConcat(n)
		e.write("CONCAT(")
		for i, op := range operands {
			if i > 0 {
				e.write(", ")
			}
			e.emitExpr(op, ast.PrecLowest)
		}
		e.write(")")
	default:
		e.emitExpr(n.Left, ast.PrecAdditive)
		e.write(" || ")
		e.emitExpr(n.Right, ast.PrecAdditive+1)
	}
}

func flattenConcat(n *ast.InfixExpression) []ast.Expression {
	if left, ok := n.Left.(*ast.InfixExpression); ok && left.Operator == "||" {
		return append(flattenConcat(left), n.Right)
	}
	return []ast.Expression{n.Left, n.Right}
}

func (e *Emitter) emitCase(n *ast.CaseExpression) {
	e.write("CASE")
	if n.Operand != nil {
		e.write(" ")
		e.emitExpr(n.Operand, ast.PrecLowest)
	}
	for _, w := range n.Whens {
		e.write(" WHEN ")
		e.emitExpr(w.Condition, ast.PrecLowest)
		e.write(" THEN ")
		e.emitExpr(w.Result, ast.PrecLowest)
	}
	if n.Else != nil {
		e.write(" ELSE ")
		e.emitExpr(n.Else, ast.PrecLowest)
	}
	e.write(" END")
}

func (e *Emitter) emitFunctionCall(n *ast.FunctionCall) {
	if len(n.Args) == 0 && !n.Star && n.Over == nil {
		if kw, ok := e.d.NiladicSpelling(n.Name); ok {
			e.write(kw)
			return
		}
	}

	name := e.d.FunctionSpelling(n.Name)
	separatorForm := false
	if n.Name == "LISTAGG" && e.d.StringAggFunc != "" {
		name = e.d.StringAggFunc
		// MySQL's aggregate takes its separator as a keyword clause, not
		// a second argument.
		separatorForm = name == "GROUP_CONCAT" && len(n.Args) == 2
	}

	e.write(name, "(")
	switch {
	case n.Star:
		e.write("*")
	case separatorForm:
		e.emitExpr(n.Args[0], ast.PrecLowest)
		e.write(" SEPARATOR ")
		e.emitExpr(n.Args[1], ast.PrecLowest)
	default:
		if n.Distinct {
			e.write("DISTINCT ")
		}
		for i, a := range n.Args {
			if i > 0 {
				e.write(", ")
			}
			e.emitExpr(a, ast.PrecLowest)
		}
	}
	e.write(")")

	if n.Over != nil {
		e.write(" OVER (")
		wrote := false
		if len(n.Over.PartitionBy) > 0 {
			e.write("PARTITION BY ")
			for i, p := range n.Over.PartitionBy {
				if i > 0 {
					e.write(", ")
				}
				e.emitExpr(p, ast.PrecLowest)
			}
			wrote = true
		}
		if len(n.Over.OrderBy) > 0 {
			if wrote {
				e.write(" ")
			}
			e.write("ORDER BY ")
			e.emitOrderBy(n.Over.OrderBy)
			wrote = true
		}
		if n.Over.Frame != nil {
			if wrote {
				e.write(" ")
			}
			e.write(n.Over.Frame.String())
		}
		e.write(")")
	}
}
