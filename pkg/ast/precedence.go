package ast

// Operator precedence levels, lowest first. NOT binds tighter than AND,
// which binds tighter than OR; parenthesization overrides.
const (
	PrecLowest = iota
	PrecOr
	PrecAnd
	PrecNot
	PrecComparison
	PrecAdditive
	PrecMultiplicative
	PrecPrefix
	PrecPrimary
)

// OperatorPrecedence returns the precedence of a canonical infix operator.
func OperatorPrecedence(op string) int {
	switch op {
	case "OR":
		return PrecOr
	case "AND":
		return PrecAnd
	case "=", "<>", "<", ">", "<=", ">=":
		return PrecComparison
	case "+", "-", "||":
		return PrecAdditive
	case "*", "/", "%":
		return PrecMultiplicative
	default:
		return PrecLowest
	}
}

// Associative reports whether an operator may be regrouped freely, so an
// equal-precedence right operand needs no parentheses.
func Associative(op string) bool {
	switch op {
	case "-", "/", "%":
		return false
	default:
		return true
	}
}

// Precedence returns the effective precedence of an expression when it
// appears as an operand: operator nodes report their operator's level,
// everything else is primary. Both the canonical renderer and the emitter
// use this to insert parentheses only where omitting them would change
// how the text re-parses.
func Precedence(e Expression) int {
	switch n := e.(type) {
	case *InfixExpression:
		return OperatorPrecedence(n.Operator)
	case *PrefixExpression:
		if n.Operator == "NOT" {
			return PrecNot
		}
		return PrecPrefix
	case *BetweenExpression, *InExpression, *LikeExpression, *IsNullExpression:
		return PrecComparison
	default:
		return PrecPrimary
	}
}
