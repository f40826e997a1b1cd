// Package compat determines which optional dialect features a statement
// relies on, and which of those a target dialect lacks.
//
// The checks are pure tree inspection. Nothing here mutates the AST or
// consults anything beyond the dialect's feature table, so the same
// statement can be checked against many targets concurrently.
package compat

import (
	"github.com/transqlate/transqlate/pkg/ast"
	"github.com/transqlate/transqlate/pkg/dialect"
)

// RequiredFeatures returns the features stmt depends on, in feature
// declaration order without duplicates.
func RequiredFeatures(stmt ast.Statement) []dialect.Feature {
	need := make(map[dialect.Feature]bool)

	mark := func(f dialect.Feature) { need[f] = true }
	markWith := func(w *ast.WithClause) {
		if w == nil {
			return
		}
		for _, cte := range w.CTEs {
			if cte.IsRecursive {
				mark(dialect.FeatureRecursiveCTE)
			}
		}
	}

	ast.Inspect(stmt, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.SelectStatement:
			markWith(node.With)
			if node.SetOp != nil {
				switch node.SetOp.Kind {
				case ast.SetIntersect, ast.SetExcept:
					mark(dialect.FeatureIntersectExcept)
				}
			}
			if node.Limit != nil {
				switch node.Limit.Mode {
				case ast.LimitPercent:
					mark(dialect.FeatureLimitPercent)
				case ast.LimitWithTies:
					mark(dialect.FeatureLimitWithTies)
				}
			}
		case *ast.InsertStatement:
			markWith(node.With)
			if len(node.Returning) > 0 {
				mark(dialect.FeatureReturningClause)
			}
		case *ast.UpdateStatement:
			markWith(node.With)
			if len(node.Returning) > 0 {
				mark(dialect.FeatureReturningClause)
			}
		case *ast.DeleteStatement:
			markWith(node.With)
			if len(node.Returning) > 0 {
				mark(dialect.FeatureReturningClause)
			}
		case *ast.MergeStatement:
			mark(dialect.FeatureMergeStatement)
		case *ast.JoinClause:
			if node.Type == ast.JoinFull {
				mark(dialect.FeatureFullOuterJoin)
			}
		case *ast.DerivedTable:
			if node.Lateral {
				mark(dialect.FeatureLateralJoin)
			}
		case *ast.FunctionCall:
			if node.Over != nil {
				mark(dialect.FeatureWindowFunctions)
				if node.Over.Frame != nil && node.Over.Frame.Unit == ast.FrameRange {
					mark(dialect.FeatureWindowFrameRange)
				}
			}
			if node.Name == "LISTAGG" {
				mark(dialect.FeatureStringAgg)
			}
		case *ast.BooleanLiteral:
			mark(dialect.FeatureBooleanLiterals)
		case *ast.ProceduralBody:
			mark(dialect.FeatureDollarQuoting)
		}
		return true
	})

	var out []dialect.Feature
	for _, f := range dialect.Features() {
		if need[f] {
			out = append(out, f)
		}
	}
	return out
}

// Check returns the features stmt requires that target does not support,
// in feature declaration order. An empty result means the statement is
// expressible in the target as-is.
func Check(stmt ast.Statement, target *dialect.Dialect) []dialect.Feature {
	var missing []dialect.Feature
	for _, f := range RequiredFeatures(stmt) {
		if !target.Supports(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
