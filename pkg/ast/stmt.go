package ast

import "strings"

// -----------------------------------------------------------------------------
// Common table expressions and row limiting
// -----------------------------------------------------------------------------

// CteDefinition is one member of a WITH clause. IsRecursive is set by the
// parser whenever the body references the CTE's own name, regardless of
// how the source dialect spells recursion.
type CteDefinition struct {
	Name        Identifier
	Columns     []Identifier
	Body        *SelectStatement
	IsRecursive bool
}

func (c *CteDefinition) String() string {
	var out strings.Builder
	out.WriteString(c.Name.String())
	if len(c.Columns) > 0 {
		cols := make([]string, len(c.Columns))
		for i := range c.Columns {
			cols[i] = c.Columns[i].String()
		}
		out.WriteString(" (" + strings.Join(cols, ", ") + ")")
	}
	out.WriteString(" AS (")
	out.WriteString(c.Body.String())
	out.WriteString(")")
	return out.String()
}

// WithClause is the WITH prefix of a statement. Recursive records whether
// the source spelled the RECURSIVE keyword; recursion itself is tracked
// per CTE.
type WithClause struct {
	Recursive bool
	CTEs      []*CteDefinition
}

func (w *WithClause) String() string {
	var out strings.Builder
	out.WriteString("WITH ")
	if w.Recursive {
		out.WriteString("RECURSIVE ")
	}
	ctes := make([]string, len(w.CTEs))
	for i, c := range w.CTEs {
		ctes[i] = c.String()
	}
	out.WriteString(strings.Join(ctes, ", "))
	return out.String()
}

// LimitMode distinguishes plain row limits from PERCENT and WITH TIES
// variants.
type LimitMode int

const (
	LimitRows LimitMode = iota
	LimitPercent
	LimitWithTies
)

// RowLimit is the canonical row-limiting node. Every source spelling
// (LIMIT/OFFSET, TOP, OFFSET ... FETCH) parses into this one form.
type RowLimit struct {
	Count  Expression // nil when only an offset is present
	Offset Expression
	Mode   LimitMode
}

func (r *RowLimit) String() string {
	var out strings.Builder
	if r.Count != nil {
		out.WriteString("LIMIT ")
		out.WriteString(r.Count.String())
		switch r.Mode {
		case LimitPercent:
			out.WriteString(" PERCENT")
		case LimitWithTies:
			out.WriteString(" WITH TIES")
		}
	}
	if r.Offset != nil {
		if r.Count != nil {
			out.WriteString(" ")
		}
		out.WriteString("OFFSET ")
		out.WriteString(r.Offset.String())
	}
	return out.String()
}

// -----------------------------------------------------------------------------
// Table references
// -----------------------------------------------------------------------------

// TableName is a plain table reference. Alias keeps its Quoted flag so a
// delimited alias survives translation.
type TableName struct {
	Name  QualifiedName
	Alias Identifier
}

func (t *TableName) tableRefNode() {}
func (t *TableName) String() string {
	s := t.Name.String()
	if t.Alias.Name != "" {
		s += " AS " + t.Alias.String()
	}
	return s
}

// DerivedTable is a subquery in FROM, optionally LATERAL.
type DerivedTable struct {
	Select  *SelectStatement
	Alias   Identifier
	Lateral bool
}

func (d *DerivedTable) tableRefNode() {}
func (d *DerivedTable) String() string {
	var out strings.Builder
	if d.Lateral {
		out.WriteString("LATERAL ")
	}
	out.WriteString("(")
	out.WriteString(d.Select.String())
	out.WriteString(")")
	if d.Alias.Name != "" {
		out.WriteString(" AS " + d.Alias.String())
	}
	return out.String()
}

// JoinType enumerates the join variants.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

func (j JoinType) String() string {
	switch j {
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	case JoinFull:
		return "FULL JOIN"
	case JoinCross:
		return "CROSS JOIN"
	default:
		return "INNER JOIN"
	}
}

// JoinClause combines two table references.
type JoinClause struct {
	Type  JoinType
	Left  TableRef
	Right TableRef
	On    Expression   // nil for CROSS and USING joins
	Using []Identifier // USING (col, ...) form
}

func (j *JoinClause) tableRefNode() {}
func (j *JoinClause) String() string {
	var out strings.Builder
	out.WriteString(j.Left.String())
	out.WriteString(" ")
	out.WriteString(j.Type.String())
	out.WriteString(" ")
	out.WriteString(j.Right.String())
	if j.On != nil {
		out.WriteString(" ON ")
		out.WriteString(j.On.String())
	} else if len(j.Using) > 0 {
		cols := make([]string, len(j.Using))
		for i := range j.Using {
			cols[i] = j.Using[i].String()
		}
		out.WriteString(" USING (" + strings.Join(cols, ", ") + ")")
	}
	return out.String()
}

// -----------------------------------------------------------------------------
// SELECT
// -----------------------------------------------------------------------------

// SelectItem is one element of a SELECT list.
type SelectItem struct {
	Expr  Expression
	Alias Identifier
}

func (s SelectItem) String() string {
	out := s.Expr.String()
	if s.Alias.Name != "" {
		out += " AS " + s.Alias.String()
	}
	return out
}

// SetOpKind enumerates set operations between queries.
type SetOpKind int

const (
	SetUnion SetOpKind = iota
	SetUnionAll
	SetIntersect
	SetExcept
)

func (k SetOpKind) String() string {
	switch k {
	case SetUnionAll:
		return "UNION ALL"
	case SetIntersect:
		return "INTERSECT"
	case SetExcept:
		return "EXCEPT"
	default:
		return "UNION"
	}
}

// SetOperation chains another query onto a SELECT.
type SetOperation struct {
	Kind  SetOpKind
	Right *SelectStatement
}

// SelectStatement is the canonical query node. Clause fields follow
// surface order; logical-order checks (HAVING may reference aggregates,
// WHERE may not) are the parser's concern.
type SelectStatement struct {
	With     *WithClause
	Distinct bool
	Columns  []SelectItem
	From     []TableRef
	Where    Expression
	GroupBy  []Expression
	Having   Expression
	OrderBy  []*OrderByItem
	Limit    *RowLimit
	SetOp    *SetOperation
}

func (s *SelectStatement) statementNode()  {}
func (s *SelectStatement) expressionNode() {} // usable as a subquery
func (s *SelectStatement) String() string {
	var out strings.Builder
	if s.With != nil {
		out.WriteString(s.With.String())
		out.WriteString(" ")
	}
	out.WriteString("SELECT")
	if s.Distinct {
		out.WriteString(" DISTINCT")
	}
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = c.String()
	}
	out.WriteString(" ")
	out.WriteString(strings.Join(cols, ", "))
	if len(s.From) > 0 {
		tables := make([]string, len(s.From))
		for i, t := range s.From {
			tables[i] = t.String()
		}
		out.WriteString(" FROM ")
		out.WriteString(strings.Join(tables, ", "))
	}
	if s.Where != nil {
		out.WriteString(" WHERE ")
		out.WriteString(s.Where.String())
	}
	if len(s.GroupBy) > 0 {
		groups := make([]string, len(s.GroupBy))
		for i, g := range s.GroupBy {
			groups[i] = g.String()
		}
		out.WriteString(" GROUP BY ")
		out.WriteString(strings.Join(groups, ", "))
	}
	if s.Having != nil {
		out.WriteString(" HAVING ")
		out.WriteString(s.Having.String())
	}
	if s.SetOp != nil {
		out.WriteString(" ")
		out.WriteString(s.SetOp.Kind.String())
		out.WriteString(" ")
		out.WriteString(s.SetOp.Right.String())
	}
	if len(s.OrderBy) > 0 {
		orders := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			orders[i] = o.String()
		}
		out.WriteString(" ORDER BY ")
		out.WriteString(strings.Join(orders, ", "))
	}
	if s.Limit != nil {
		out.WriteString(" ")
		out.WriteString(s.Limit.String())
	}
	return out.String()
}

// -----------------------------------------------------------------------------
// DML
// -----------------------------------------------------------------------------

// InsertStatement is INSERT INTO ... VALUES / SELECT.
type InsertStatement struct {
	With      *WithClause
	Table     TableName
	Columns   []Identifier
	Rows      [][]Expression // VALUES form
	Select    *SelectStatement
	Returning []SelectItem
}

func (i *InsertStatement) statementNode() {}
func (i *InsertStatement) String() string {
	var out strings.Builder
	if i.With != nil {
		out.WriteString(i.With.String())
		out.WriteString(" ")
	}
	out.WriteString("INSERT INTO ")
	out.WriteString(i.Table.String())
	if len(i.Columns) > 0 {
		cols := make([]string, len(i.Columns))
		for n := range i.Columns {
			cols[n] = i.Columns[n].String()
		}
		out.WriteString(" (" + strings.Join(cols, ", ") + ")")
	}
	if i.Select != nil {
		out.WriteString(" ")
		out.WriteString(i.Select.String())
	} else {
		out.WriteString(" VALUES ")
		rows := make([]string, len(i.Rows))
		for n, row := range i.Rows {
			vals := make([]string, len(row))
			for m, v := range row {
				vals[m] = v.String()
			}
			rows[n] = "(" + strings.Join(vals, ", ") + ")"
		}
		out.WriteString(strings.Join(rows, ", "))
	}
	if len(i.Returning) > 0 {
		out.WriteString(" RETURNING ")
		out.WriteString(selectItems(i.Returning))
	}
	return out.String()
}

// Assignment is one column = value pair in UPDATE SET or MERGE.
type Assignment struct {
	Column QualifiedName
	Value  Expression
}

func (a *Assignment) String() string {
	return a.Column.String() + " = " + a.Value.String()
}

// UpdateStatement is UPDATE ... SET ... [FROM ...] [WHERE ...].
type UpdateStatement struct {
	With      *WithClause
	Table     TableName
	Set       []*Assignment
	From      []TableRef
	Where     Expression
	Returning []SelectItem
}

func (u *UpdateStatement) statementNode() {}
func (u *UpdateStatement) String() string {
	var out strings.Builder
	if u.With != nil {
		out.WriteString(u.With.String())
		out.WriteString(" ")
	}
	out.WriteString("UPDATE ")
	out.WriteString(u.Table.String())
	out.WriteString(" SET ")
	sets := make([]string, len(u.Set))
	for i, s := range u.Set {
		sets[i] = s.String()
	}
	out.WriteString(strings.Join(sets, ", "))
	if len(u.From) > 0 {
		tables := make([]string, len(u.From))
		for i, t := range u.From {
			tables[i] = t.String()
		}
		out.WriteString(" FROM ")
		out.WriteString(strings.Join(tables, ", "))
	}
	if u.Where != nil {
		out.WriteString(" WHERE ")
		out.WriteString(u.Where.String())
	}
	if len(u.Returning) > 0 {
		out.WriteString(" RETURNING ")
		out.WriteString(selectItems(u.Returning))
	}
	return out.String()
}

// DeleteStatement is DELETE FROM ... [WHERE ...].
type DeleteStatement struct {
	With      *WithClause
	Table     TableName
	Where     Expression
	Returning []SelectItem
}

func (d *DeleteStatement) statementNode() {}
func (d *DeleteStatement) String() string {
	var out strings.Builder
	if d.With != nil {
		out.WriteString(d.With.String())
		out.WriteString(" ")
	}
	out.WriteString("DELETE FROM ")
	out.WriteString(d.Table.String())
	if d.Where != nil {
		out.WriteString(" WHERE ")
		out.WriteString(d.Where.String())
	}
	if len(d.Returning) > 0 {
		out.WriteString(" RETURNING ")
		out.WriteString(selectItems(d.Returning))
	}
	return out.String()
}

// MergeActionKind enumerates what a MERGE arm does.
type MergeActionKind int

const (
	MergeUpdate MergeActionKind = iota
	MergeDelete
	MergeInsert
)

// MergeWhen is one WHEN [NOT] MATCHED arm of a MERGE.
type MergeWhen struct {
	Matched   bool
	Condition Expression // AND condition, optional
	Action    MergeActionKind
	Set       []*Assignment // MergeUpdate
	Columns   []Identifier  // MergeInsert
	Values    []Expression  // MergeInsert
}

func (m *MergeWhen) String() string {
	var out strings.Builder
	out.WriteString("WHEN ")
	if !m.Matched {
		out.WriteString("NOT ")
	}
	out.WriteString("MATCHED")
	if m.Condition != nil {
		out.WriteString(" AND ")
		out.WriteString(m.Condition.String())
	}
	out.WriteString(" THEN ")
	switch m.Action {
	case MergeUpdate:
		sets := make([]string, len(m.Set))
		for i, s := range m.Set {
			sets[i] = s.String()
		}
		out.WriteString("UPDATE SET " + strings.Join(sets, ", "))
	case MergeDelete:
		out.WriteString("DELETE")
	case MergeInsert:
		out.WriteString("INSERT")
		if len(m.Columns) > 0 {
			cols := make([]string, len(m.Columns))
			for i := range m.Columns {
				cols[i] = m.Columns[i].String()
			}
			out.WriteString(" (" + strings.Join(cols, ", ") + ")")
		}
		vals := make([]string, len(m.Values))
		for i, v := range m.Values {
			vals[i] = v.String()
		}
		out.WriteString(" VALUES (" + strings.Join(vals, ", ") + ")")
	}
	return out.String()
}

// MergeStatement is MERGE INTO target USING source ON cond WHEN ... THEN ...
type MergeStatement struct {
	Target TableName
	Source TableRef
	On     Expression
	Whens  []*MergeWhen
}

func (m *MergeStatement) statementNode() {}
func (m *MergeStatement) String() string {
	var out strings.Builder
	out.WriteString("MERGE INTO ")
	out.WriteString(m.Target.String())
	out.WriteString(" USING ")
	out.WriteString(m.Source.String())
	out.WriteString(" ON ")
	out.WriteString(m.On.String())
	for _, w := range m.Whens {
		out.WriteString(" ")
		out.WriteString(w.String())
	}
	return out.String()
}

func selectItems(items []SelectItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}
