package ast

// Inspect traverses the tree rooted at n in depth-first pre-order, calling
// visit for each node. If visit returns false the node's children are
// skipped. Nil children are never visited.
func Inspect(n Node, visit func(Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	switch node := n.(type) {
	case *QualifiedName, *Identifier, *Star, *NumberLiteral, *StringLiteral,
		*BooleanLiteral, *NullLiteral, *Placeholder, *ProceduralBody:
		// leaves

	case *PrefixExpression:
		Inspect(node.Operand, visit)
	case *InfixExpression:
		Inspect(node.Left, visit)
		Inspect(node.Right, visit)
	case *BetweenExpression:
		Inspect(node.Expr, visit)
		Inspect(node.Low, visit)
		Inspect(node.High, visit)
	case *InExpression:
		Inspect(node.Expr, visit)
		for _, e := range node.List {
			Inspect(e, visit)
		}
		if node.Subquery != nil {
			Inspect(node.Subquery, visit)
		}
	case *LikeExpression:
		Inspect(node.Expr, visit)
		Inspect(node.Pattern, visit)
		if node.Escape != nil {
			Inspect(node.Escape, visit)
		}
	case *IsNullExpression:
		Inspect(node.Expr, visit)
	case *ExistsExpression:
		Inspect(node.Subquery, visit)
	case *SubqueryExpression:
		Inspect(node.Select, visit)
	case *CaseExpression:
		if node.Operand != nil {
			Inspect(node.Operand, visit)
		}
		for _, w := range node.Whens {
			Inspect(w.Condition, visit)
			Inspect(w.Result, visit)
		}
		if node.Else != nil {
			Inspect(node.Else, visit)
		}
	case *CastExpression:
		Inspect(node.Expr, visit)
	case *FunctionCall:
		for _, a := range node.Args {
			Inspect(a, visit)
		}
		if node.Over != nil {
			inspectOver(node.Over, visit)
		}

	case *TableName:
		// leaf
	case *DerivedTable:
		Inspect(node.Select, visit)
	case *JoinClause:
		Inspect(node.Left, visit)
		Inspect(node.Right, visit)
		if node.On != nil {
			Inspect(node.On, visit)
		}

	case *SelectStatement:
		if node.With != nil {
			for _, cte := range node.With.CTEs {
				Inspect(cte.Body, visit)
			}
		}
		for _, c := range node.Columns {
			Inspect(c.Expr, visit)
		}
		for _, t := range node.From {
			Inspect(t, visit)
		}
		if node.Where != nil {
			Inspect(node.Where, visit)
		}
		for _, g := range node.GroupBy {
			Inspect(g, visit)
		}
		if node.Having != nil {
			Inspect(node.Having, visit)
		}
		for _, o := range node.OrderBy {
			Inspect(o.Expr, visit)
		}
		if node.Limit != nil {
			if node.Limit.Count != nil {
				Inspect(node.Limit.Count, visit)
			}
			if node.Limit.Offset != nil {
				Inspect(node.Limit.Offset, visit)
			}
		}
		if node.SetOp != nil {
			Inspect(node.SetOp.Right, visit)
		}

	case *InsertStatement:
		if node.With != nil {
			for _, cte := range node.With.CTEs {
				Inspect(cte.Body, visit)
			}
		}
		for _, row := range node.Rows {
			for _, v := range row {
				Inspect(v, visit)
			}
		}
		if node.Select != nil {
			Inspect(node.Select, visit)
		}
		for _, r := range node.Returning {
			Inspect(r.Expr, visit)
		}
	case *UpdateStatement:
		if node.With != nil {
			for _, cte := range node.With.CTEs {
				Inspect(cte.Body, visit)
			}
		}
		for _, s := range node.Set {
			Inspect(s.Value, visit)
		}
		for _, t := range node.From {
			Inspect(t, visit)
		}
		if node.Where != nil {
			Inspect(node.Where, visit)
		}
		for _, r := range node.Returning {
			Inspect(r.Expr, visit)
		}
	case *DeleteStatement:
		if node.With != nil {
			for _, cte := range node.With.CTEs {
				Inspect(cte.Body, visit)
			}
		}
		if node.Where != nil {
			Inspect(node.Where, visit)
		}
		for _, r := range node.Returning {
			Inspect(r.Expr, visit)
		}
	case *MergeStatement:
		Inspect(node.Source, visit)
		Inspect(node.On, visit)
		for _, w := range node.Whens {
			if w.Condition != nil {
				Inspect(w.Condition, visit)
			}
			for _, s := range w.Set {
				Inspect(s.Value, visit)
			}
			for _, v := range w.Values {
				Inspect(v, visit)
			}
		}
	}
}

func inspectOver(o *OverClause, visit func(Node) bool) {
	for _, e := range o.PartitionBy {
		Inspect(e, visit)
	}
	for _, ob := range o.OrderBy {
		Inspect(ob.Expr, visit)
	}
	if o.Frame != nil {
		if o.Frame.Start != nil && o.Frame.Start.Offset != nil {
			Inspect(o.Frame.Start.Offset, visit)
		}
		if o.Frame.End != nil && o.Frame.End.Offset != nil {
			Inspect(o.Frame.End.Offset, visit)
		}
	}
}
