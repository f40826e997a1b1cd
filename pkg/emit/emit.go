// Package emit renders the canonical AST as SQL text for a target dialect.
//
// Emission is driven entirely by the dialect's grammar tables: identifier
// quoting, row-limit style, placeholder style, concatenation style and
// function spellings. Parentheses are inserted only where omitting them
// would change how the text re-parses, using the same precedence table the
// parser reads.
package emit

import (
	"fmt"
	"strings"

	"github.com/transqlate/transqlate/pkg/ast"
	"github.com/transqlate/transqlate/pkg/compat"
	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/errors"
)

// Policy selects how emission treats features the target dialect lacks.
type Policy int

const (
	// PolicyStrict refuses to emit a statement using any feature the
	// target does not support.
	PolicyStrict Policy = iota
	// PolicyBestEffort substitutes a near-equivalent construct where one
	// exists (boolean literals as 1/0, RETURNING as OUTPUT) and refuses
	// otherwise.
	PolicyBestEffort
	// PolicyAnnotate always emits, prefixing the statement with comment
	// lines naming the unsupported features.
	PolicyAnnotate
)

func (p Policy) String() string {
	switch p {
	case PolicyBestEffort:
		return "best-effort"
	case PolicyAnnotate:
		return "annotate"
	default:
		return "strict"
	}
}

// ParsePolicy parses a policy name as spelled in flags and config files.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "":
		return PolicyStrict, nil
	case "best-effort", "besteffort":
		return PolicyBestEffort, nil
	case "annotate":
		return PolicyAnnotate, nil
	}
	return 0, errors.Newf(errors.ErrCodeConfigValidation, "unknown policy: %s", s).Err()
}

// Emitter renders statements for one target dialect under one policy.
// It is not safe for concurrent use; each goroutine gets its own.
type Emitter struct {
	d      *dialect.Dialect
	policy Policy

	buf      strings.Builder
	paramSeq int
}

// New returns an emitter for the target dialect.
func New(d *dialect.Dialect, policy Policy) *Emitter {
	return &Emitter{d: d, policy: policy}
}

// Emit renders stmt as a single SQL statement without a trailing semicolon.
func (e *Emitter) Emit(stmt ast.Statement) (string, error) {
	missing := compat.Check(stmt, e.d)
	var annotated []dialect.Feature
	for _, f := range missing {
		if e.substitutable(f) && e.policy != PolicyStrict {
			continue
		}
		switch e.policy {
		case PolicyAnnotate:
			annotated = append(annotated, f)
		case PolicyBestEffort:
			return "", errors.Newf(errors.ErrCodeEmitNoEquivalent,
				"%s has no equivalent for %s", e.d.Name, f).
				WithField("dialect", e.d.Name).
				WithField("feature", f.String()).
				Err()
		default:
			return "", errors.Newf(errors.ErrCodeEmitUnsupportedFeature,
				"%s does not support %s", e.d.Name, f).
				WithField("dialect", e.d.Name).
				WithField("feature", f.String()).
				Err()
		}
	}

	e.buf.Reset()
	e.paramSeq = 0
	for _, f := range annotated {
		e.buf.WriteString("-- transqlate: ")
		e.buf.WriteString(e.d.Name)
		e.buf.WriteString(" does not support ")
		e.buf.WriteString(f.String())
		e.buf.WriteString("\n")
	}

	switch s := stmt.(type) {
	case *ast.SelectStatement:
		e.emitSelect(s)
	case *ast.InsertStatement:
		e.emitInsert(s)
	case *ast.UpdateStatement:
		e.emitUpdate(s)
	case *ast.DeleteStatement:
		e.emitDelete(s)
	case *ast.MergeStatement:
		e.emitMerge(s)
	default:
		return "", errors.Newf(errors.ErrCodeInternal, "unknown statement type %T", stmt).Err()
	}
	return e.buf.String(), nil
}

// substitutable reports whether best-effort emission has a stand-in for a
// feature the target lacks.
func (e *Emitter) substitutable(f dialect.Feature) bool {
	switch f {
	case dialect.FeatureBooleanLiterals:
		return true
	case dialect.FeatureReturningClause:
		// T-SQL spells it OUTPUT
		return e.d.RowLimit == dialect.RowLimitTop
	}
	return false
}

func (e *Emitter) write(parts ...string) {
	for _, p := range parts {
		e.buf.WriteString(p)
	}
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

func (e *Emitter) emitSelect(s *ast.SelectStatement) {
	if s.With != nil {
		e.emitWith(s.With)
		e.write(" ")
	}
	e.write("SELECT")
	if s.Distinct {
		e.write(" DISTINCT")
	}

	// TOP carries the limit when the target has no trailing spelling for
	// PERCENT or the plain count. An offset forces OFFSET ... FETCH, and so
	// does a set operation chain: TOP binds to the first operand only,
	// while the canonical limit applies to the whole chain.
	topLimit := s.Limit != nil && e.d.RowLimit == dialect.RowLimitTop &&
		s.Limit.Offset == nil && s.SetOp == nil
	if topLimit {
		e.write(" TOP ")
		e.emitExpr(s.Limit.Count, ast.PrecPrimary)
		switch s.Limit.Mode {
		case ast.LimitPercent:
			e.write(" PERCENT")
		case ast.LimitWithTies:
			e.write(" WITH TIES")
		}
	}

	for i, c := range s.Columns {
		if i == 0 {
			e.write(" ")
		} else {
			e.write(", ")
		}
		e.emitSelectItem(c)
	}

	if len(s.From) > 0 {
		e.write(" FROM ")
		for i, t := range s.From {
			if i > 0 {
				e.write(", ")
			}
			e.emitTableRef(t)
		}
	}
	if s.Where != nil {
		e.write(" WHERE ")
		e.emitExpr(s.Where, ast.PrecLowest)
	}
	if len(s.GroupBy) > 0 {
		e.write(" GROUP BY ")
		for i, g := range s.GroupBy {
			if i > 0 {
				e.write(", ")
			}
			e.emitExpr(g, ast.PrecLowest)
		}
	}
	if s.Having != nil {
		e.write(" HAVING ")
		e.emitExpr(s.Having, ast.PrecLowest)
	}
	if s.SetOp != nil {
		e.write(" ", s.SetOp.Kind.String(), " ")
		e.emitSelect(s.SetOp.Right)
	}
	if len(s.OrderBy) > 0 {
		e.write(" ORDER BY ")
		e.emitOrderBy(s.OrderBy)
	}
	if s.Limit != nil && !topLimit {
		e.emitRowLimit(s.Limit)
	}
}

func (e *Emitter) emitRowLimit(l *ast.RowLimit) {
	// LIMIT has no spelling for PERCENT or WITH TIES; dialects that
	// support those modes accept the standard FETCH form as well.
	if e.d.RowLimit == dialect.RowLimitLimit && l.Mode == ast.LimitRows {
		if l.Count != nil {
			e.write(" LIMIT ")
			e.emitExpr(l.Count, ast.PrecLowest)
		}
		if l.Offset != nil {
			e.write(" OFFSET ")
			e.emitExpr(l.Offset, ast.PrecLowest)
		}
		return
	}

	// standard OFFSET ... FETCH form: RowLimitFetch dialects, the TOP
	// dialect when TOP cannot carry the limit, and the PERCENT / WITH TIES
	// modes
	if l.Offset != nil {
		e.write(" OFFSET ")
		e.emitExpr(l.Offset, ast.PrecLowest)
		e.write(" ROWS")
	} else if l.Count != nil && e.d.RowLimit == dialect.RowLimitTop {
		// T-SQL accepts FETCH only after an OFFSET clause
		e.write(" OFFSET 0 ROWS")
	}
	if l.Count != nil {
		e.write(" FETCH FIRST ")
		e.emitExpr(l.Count, ast.PrecLowest)
		if l.Mode == ast.LimitPercent {
			e.write(" PERCENT")
		}
		e.write(" ROWS")
		if l.Mode == ast.LimitWithTies {
			e.write(" WITH TIES")
		} else {
			e.write(" ONLY")
		}
	}
}

func (e *Emitter) emitWith(w *ast.WithClause) {
	e.write("WITH ")
	if e.d.RecursiveKeyword {
		for _, cte := range w.CTEs {
			if cte.IsRecursive {
				e.write("RECURSIVE ")
				break
			}
		}
	}
	for i, cte := range w.CTEs {
		if i > 0 {
			e.write(", ")
		}
		e.emitIdentifier(cte.Name)
		if len(cte.Columns) > 0 {
			e.write(" (")
			for j, col := range cte.Columns {
				if j > 0 {
					e.write(", ")
				}
				e.emitIdentifier(col)
			}
			e.write(")")
		}
		e.write(" AS (")
		e.emitSelect(cte.Body)
		e.write(")")
	}
}

func (e *Emitter) emitOrderBy(items []*ast.OrderByItem) {
	for i, o := range items {
		if i > 0 {
			e.write(", ")
		}
		e.emitExpr(o.Expr, ast.PrecLowest)
		if o.Desc {
			e.write(" DESC")
		}
	}
}

func (e *Emitter) emitSelectItem(item ast.SelectItem) {
	e.emitExpr(item.Expr, ast.PrecLowest)
	e.emitAlias(item.Alias)
}

// emitAlias renders an AS clause, re-quoting a delimited alias for the
// target.
func (e *Emitter) emitAlias(alias ast.Identifier) {
	if alias.Name == "" {
		return
	}
	e.write(" AS ")
	e.emitIdentifier(alias)
}

func (e *Emitter) emitTableRef(ref ast.TableRef) {
	switch t := ref.(type) {
	case *ast.TableName:
		e.emitQualifiedName(&t.Name)
		e.emitAlias(t.Alias)
	case *ast.DerivedTable:
		if t.Lateral {
			e.write("LATERAL ")
		}
		e.write("(")
		e.emitSelect(t.Select)
		e.write(")")
		e.emitAlias(t.Alias)
	case *ast.JoinClause:
		e.emitTableRef(t.Left)
		e.write(" ", t.Type.String(), " ")
		e.emitTableRef(t.Right)
		if t.On != nil {
			e.write(" ON ")
			e.emitExpr(t.On, ast.PrecLowest)
		} else if len(t.Using) > 0 {
			e.write(" USING (")
			for i := range t.Using {
				if i > 0 {
					e.write(", ")
				}
				e.emitIdentifier(t.Using[i])
			}
			e.write(")")
		}
	}
}

// emitReturning renders a RETURNING list, or stores it for the OUTPUT
// substitution when the target lacks the clause.
func (e *Emitter) emitReturning(items []ast.SelectItem) {
	if len(items) == 0 {
		return
	}
	e.write(" RETURNING ")
	for i, item := range items {
		if i > 0 {
			e.write(", ")
		}
		e.emitSelectItem(item)
	}
}

// emitOutput renders the T-SQL OUTPUT substitution for RETURNING. prefix is
// INSERTED or DELETED depending on the statement.
func (e *Emitter) emitOutput(items []ast.SelectItem, prefix string) {
	e.write(" OUTPUT ")
	for i, item := range items {
		if i > 0 {
			e.write(", ")
		}
		e.write(prefix, ".")
		e.emitExpr(item.Expr, ast.PrecLowest)
		e.emitAlias(item.Alias)
	}
}

func (e *Emitter) outputSubstitution() bool {
	return e.d.RowLimit == dialect.RowLimitTop && !e.d.Supports(dialect.FeatureReturningClause)
}

func (e *Emitter) emitInsert(s *ast.InsertStatement) {
	if s.With != nil {
		e.emitWith(s.With)
		e.write(" ")
	}
	e.write("INSERT INTO ")
	e.emitQualifiedName(&s.Table.Name)
	if len(s.Columns) > 0 {
		e.write(" (")
		for i := range s.Columns {
			if i > 0 {
				e.write(", ")
			}
			e.emitIdentifier(s.Columns[i])
		}
		e.write(")")
	}
	output := len(s.Returning) > 0 && e.outputSubstitution()
	if output {
		e.emitOutput(s.Returning, "INSERTED")
	}
	if s.Select != nil {
		e.write(" ")
		e.emitSelect(s.Select)
	} else {
		e.write(" VALUES ")
		for i, row := range s.Rows {
			if i > 0 {
				e.write(", ")
			}
			e.write("(")
			for j, v := range row {
				if j > 0 {
					e.write(", ")
				}
				e.emitExpr(v, ast.PrecLowest)
			}
			e.write(")")
		}
	}
	if !output {
		e.emitReturning(s.Returning)
	}
}

func (e *Emitter) emitUpdate(s *ast.UpdateStatement) {
	if s.With != nil {
		e.emitWith(s.With)
		e.write(" ")
	}
	e.write("UPDATE ")
	e.emitQualifiedName(&s.Table.Name)
	e.emitAlias(s.Table.Alias)
	e.write(" SET ")
	for i, a := range s.Set {
		if i > 0 {
			e.write(", ")
		}
		e.emitQualifiedName(&a.Column)
		e.write(" = ")
		e.emitExpr(a.Value, ast.PrecLowest)
	}
	output := len(s.Returning) > 0 && e.outputSubstitution()
	if output {
		e.emitOutput(s.Returning, "INSERTED")
	}
	if len(s.From) > 0 {
		e.write(" FROM ")
		for i, t := range s.From {
			if i > 0 {
				e.write(", ")
			}
			e.emitTableRef(t)
		}
	}
	if s.Where != nil {
		e.write(" WHERE ")
		e.emitExpr(s.Where, ast.PrecLowest)
	}
	if !output {
		e.emitReturning(s.Returning)
	}
}

func (e *Emitter) emitDelete(s *ast.DeleteStatement) {
	if s.With != nil {
		e.emitWith(s.With)
		e.write(" ")
	}
	e.write("DELETE FROM ")
	e.emitQualifiedName(&s.Table.Name)
	e.emitAlias(s.Table.Alias)
	output := len(s.Returning) > 0 && e.outputSubstitution()
	if output {
		e.emitOutput(s.Returning, "DELETED")
	}
	if s.Where != nil {
		e.write(" WHERE ")
		e.emitExpr(s.Where, ast.PrecLowest)
	}
	if !output {
		e.emitReturning(s.Returning)
	}
}

func (e *Emitter) emitMerge(s *ast.MergeStatement) {
	e.write("MERGE INTO ")
	e.emitQualifiedName(&s.Target.Name)
	e.emitAlias(s.Target.Alias)
	e.write(" USING ")
	e.emitTableRef(s.Source)
	e.write(" ON ")
	e.emitExpr(s.On, ast.PrecLowest)
	for _, w := range s.Whens {
		e.write(" WHEN ")
		if !w.Matched {
			e.write("NOT ")
		}
		e.write("MATCHED")
		if w.Condition != nil {
			e.write(" AND ")
			e.emitExpr(w.Condition, ast.PrecLowest)
		}
		e.write(" THEN ")
		switch w.Action {
		case ast.MergeUpdate:
			e.write("UPDATE SET ")
			for i, a := range w.Set {
				if i > 0 {
					e.write(", ")
				}
				e.emitQualifiedName(&a.Column)
				e.write(" = ")
				e.emitExpr(a.Value, ast.PrecLowest)
			}
		case ast.MergeDelete:
			e.write("DELETE")
		case ast.MergeInsert:
			e.write("INSERT")
			if len(w.Columns) > 0 {
				e.write(" (")
				for i := range w.Columns {
					if i > 0 {
						e.write(", ")
					}
					e.emitIdentifier(w.Columns[i])
				}
				e.write(")")
			}
			e.write(" VALUES (")
			for i, v := range w.Values {
				if i > 0 {
					e.write(", ")
				}
				e.emitExpr(v, ast.PrecLowest)
			}
			e.write(")")
		}
	}
}

// -----------------------------------------------------------------------------
// Names and placeholders
// -----------------------------------------------------------------------------

func (e *Emitter) emitIdentifier(id ast.Identifier) {
	if !id.Quoted {
		e.write(id.Name)
		return
	}
	q := e.d.IdentQuotes[0]
	e.buf.WriteByte(q.Open)
	name := strings.ReplaceAll(id.Name, string(q.Close), string(q.Close)+string(q.Close))
	e.write(name)
	e.buf.WriteByte(q.Close)
}

func (e *Emitter) emitQualifiedName(q *ast.QualifiedName) {
	for i := range q.Parts {
		if i > 0 {
			e.write(".")
		}
		e.emitIdentifier(q.Parts[i])
	}
}

func (e *Emitter) emitPlaceholder() {
	e.paramSeq++
	switch e.d.Placeholder {
	case dialect.PlaceholderDollar:
		e.write(fmt.Sprintf("$%d", e.paramSeq))
	case dialect.PlaceholderColon:
		e.write(fmt.Sprintf(":%d", e.paramSeq))
	default:
		e.write("?")
	}
}
