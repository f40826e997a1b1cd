package parser

import (
	"strings"

	"github.com/transqlate/transqlate/pkg/ast"
	"github.com/transqlate/transqlate/pkg/token"
)

// -----------------------------------------------------------------------------
// WITH
// -----------------------------------------------------------------------------

func (p *Parser) parseWithClause() *ast.WithClause {
	startPos := p.curTok.Pos()
	p.nextToken() // WITH

	with := &ast.WithClause{}
	if p.curTok.Type == token.RECURSIVE {
		if !p.d.RecursiveKeyword {
			p.failMsg("RECURSIVE keyword is not valid in " + p.d.Name)
			return nil
		}
		with.Recursive = true
		p.nextToken()
	}

	for {
		cte := p.parseCteDefinition()
		if p.err != nil {
			return nil
		}
		with.CTEs = append(with.CTEs, cte)
		if !p.accept(token.COMMA) {
			break
		}
	}

	// Recursion is a property of the tree, not of the keyword: a member is
	// recursive when its body references its own name.
	anyRecursive := false
	for _, cte := range with.CTEs {
		if refersTo(cte.Body, cte.Name.Name) {
			cte.IsRecursive = true
			anyRecursive = true
		}
	}
	if with.Recursive && !anyRecursive {
		p.warnf(startPos, "RECURSIVE keyword on WITH clause whose members never reference themselves")
	}
	return with
}

func (p *Parser) parseCteDefinition() *ast.CteDefinition {
	if !p.identLike() {
		p.fail("CTE name")
		return nil
	}
	cte := &ast.CteDefinition{
		Name: ast.Identifier{Name: p.curTok.Literal, Quoted: p.curTok.Quoted},
	}
	p.nextToken()

	if p.accept(token.LPAREN) {
		for {
			if !p.identLike() {
				p.fail("column name")
				return nil
			}
			cte.Columns = append(cte.Columns, ast.Identifier{Name: p.curTok.Literal, Quoted: p.curTok.Quoted})
			p.nextToken()
			if !p.accept(token.COMMA) {
				break
			}
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
	}
	if !p.expect(token.AS) {
		return nil
	}
	if !p.expect(token.LPAREN) {
		return nil
	}
	cte.Body = p.parseSelect(nil)
	if p.err != nil {
		return nil
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return cte
}

// refersTo reports whether any table reference under stmt names target.
func refersTo(stmt *ast.SelectStatement, target string) bool {
	found := false
	ast.Inspect(stmt, func(n ast.Node) bool {
		if found {
			return false
		}
		if t, ok := n.(*ast.TableName); ok {
			if len(t.Name.Parts) == 1 && strings.EqualFold(t.Name.Last(), target) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// -----------------------------------------------------------------------------
// SELECT
// -----------------------------------------------------------------------------

// parseSelect parses a full query: a select core (possibly parenthesized),
// any chain of set operations, then ORDER BY and row limiting, which apply
// to the whole chain and land on the head statement.
func (p *Parser) parseSelect(with *ast.WithClause) *ast.SelectStatement {
	stmt := p.parseSelectCore(with)
	if p.err != nil {
		return nil
	}

	cur := stmt
	for {
		kind, ok := p.setOpKind()
		if !ok {
			break
		}
		right := p.parseSelectCore(nil)
		if p.err != nil {
			return nil
		}
		cur.SetOp = &ast.SetOperation{Kind: kind, Right: right}
		cur = right
	}

	if p.accept(token.ORDER) {
		if !p.expect(token.BY) {
			return nil
		}
		stmt.OrderBy = p.parseOrderByItems()
		if p.err != nil {
			return nil
		}
	}
	p.parseRowLimit(stmt)
	if p.err != nil {
		return nil
	}
	return stmt
}

func (p *Parser) setOpKind() (ast.SetOpKind, bool) {
	switch p.curTok.Type {
	case token.UNION:
		p.nextToken()
		if p.accept(token.ALL) {
			return ast.SetUnionAll, true
		}
		return ast.SetUnion, true
	case token.INTERSECT:
		p.nextToken()
		return ast.SetIntersect, true
	case token.EXCEPT:
		p.nextToken()
		return ast.SetExcept, true
	}
	return 0, false
}

func (p *Parser) parseSelectCore(with *ast.WithClause) *ast.SelectStatement {
	if p.curTok.Type == token.LPAREN {
		p.nextToken()
		var inner *ast.WithClause
		if p.curTok.Type == token.WITH {
			inner = p.parseWithClause()
			if p.err != nil {
				return nil
			}
		}
		stmt := p.parseSelect(inner)
		if p.err != nil {
			return nil
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
		if with != nil {
			stmt.With = with
		}
		return stmt
	}

	if !p.expect(token.SELECT) {
		return nil
	}
	stmt := &ast.SelectStatement{With: with}

	if p.accept(token.DISTINCT) {
		stmt.Distinct = true
	} else {
		p.accept(token.ALL)
	}

	// TOP is a clause only when a count follows; bare TOP before the select
	// list is a column named top.
	if p.curTok.Type == token.TOP &&
		(p.peekTok.Type == token.NUMBER || p.peekTok.Type == token.LPAREN || p.peekTok.Type == token.PLACEHOLDER) {
		stmt.Limit = p.parseTopClause()
		if p.err != nil {
			return nil
		}
	}

	for {
		item := p.parseSelectItem()
		if p.err != nil {
			return nil
		}
		stmt.Columns = append(stmt.Columns, item)
		if !p.accept(token.COMMA) {
			break
		}
	}

	if p.accept(token.FROM) {
		stmt.From = p.parseTableRefs()
		if p.err != nil {
			return nil
		}
	}
	if p.accept(token.WHERE) {
		stmt.Where = p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
	}
	if p.accept(token.GROUP) {
		if !p.expect(token.BY) {
			return nil
		}
		for {
			e := p.parseExpression(ast.PrecLowest)
			if p.err != nil {
				return nil
			}
			stmt.GroupBy = append(stmt.GroupBy, e)
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	if p.accept(token.HAVING) {
		stmt.Having = p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
	}
	return stmt
}

// parseTopClause canonicalizes SELECT TOP n [PERCENT] [WITH TIES].
func (p *Parser) parseTopClause() *ast.RowLimit {
	p.nextToken() // TOP
	paren := p.accept(token.LPAREN)
	count := p.parseExpression(ast.PrecLowest)
	if p.err != nil {
		return nil
	}
	if paren && !p.expect(token.RPAREN) {
		return nil
	}
	limit := &ast.RowLimit{Count: count}
	if p.accept(token.PERCENT_KW) {
		limit.Mode = ast.LimitPercent
	}
	if p.curTok.Type == token.WITH && p.peekTok.Type == token.TIES {
		p.nextToken()
		p.nextToken()
		if limit.Mode == ast.LimitPercent {
			p.failMsg("TOP PERCENT cannot combine with WITH TIES")
			return nil
		}
		limit.Mode = ast.LimitWithTies
	}
	return limit
}

// parseRowLimit canonicalizes the trailing limit spellings: LIMIT n
// [OFFSET m], the MySQL LIMIT m, n form, and OFFSET m ROWS FETCH FIRST n
// ROWS ONLY. All of them produce the same RowLimit node.
func (p *Parser) parseRowLimit(stmt *ast.SelectStatement) {
	switch p.curTok.Type {
	case token.LIMIT:
		if stmt.Limit != nil {
			p.failMsg("duplicate row limit")
			return
		}
		p.nextToken()
		first := p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return
		}
		limit := &ast.RowLimit{Count: first}
		if p.accept(token.COMMA) {
			// LIMIT offset, count
			count := p.parseExpression(ast.PrecLowest)
			if p.err != nil {
				return
			}
			limit.Offset = first
			limit.Count = count
		} else if p.accept(token.OFFSET) {
			limit.Offset = p.parseExpression(ast.PrecLowest)
			if p.err != nil {
				return
			}
		}
		stmt.Limit = limit

	case token.OFFSET:
		if stmt.Limit != nil {
			p.failMsg("duplicate row limit")
			return
		}
		p.nextToken()
		offset := p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return
		}
		if !p.accept(token.ROWS) {
			p.accept(token.ROW)
		}
		limit := &ast.RowLimit{Offset: offset}
		if p.curTok.Type == token.FETCH {
			p.parseFetchClause(limit)
			if p.err != nil {
				return
			}
		}
		stmt.Limit = limit

	case token.FETCH:
		if stmt.Limit != nil {
			p.failMsg("duplicate row limit")
			return
		}
		limit := &ast.RowLimit{}
		p.parseFetchClause(limit)
		if p.err != nil {
			return
		}
		stmt.Limit = limit
	}
}

func (p *Parser) parseFetchClause(limit *ast.RowLimit) {
	p.nextToken() // FETCH
	if !p.accept(token.FIRST) && !p.accept(token.NEXT) {
		p.fail("FIRST or NEXT")
		return
	}
	limit.Count = p.parseExpression(ast.PrecLowest)
	if p.err != nil {
		return
	}
	if p.accept(token.PERCENT_KW) {
		limit.Mode = ast.LimitPercent
	}
	if !p.accept(token.ROWS) {
		p.accept(token.ROW)
	}
	switch {
	case p.accept(token.ONLY):
	case p.curTok.Type == token.WITH && p.peekTok.Type == token.TIES:
		p.nextToken()
		p.nextToken()
		if limit.Mode == ast.LimitPercent {
			p.failMsg("FETCH PERCENT cannot combine with WITH TIES")
			return
		}
		limit.Mode = ast.LimitWithTies
	default:
		p.fail("ONLY or WITH TIES")
	}
}

func (p *Parser) parseSelectItem() ast.SelectItem {
	if p.curTok.Type == token.ASTERISK {
		p.nextToken()
		return ast.SelectItem{Expr: &ast.Star{}}
	}
	expr := p.parseExpression(ast.PrecLowest)
	if p.err != nil {
		return ast.SelectItem{}
	}
	return ast.SelectItem{Expr: expr, Alias: p.parseAlias()}
}

// parseAlias consumes an optional [AS] name alias. A quoted alias keeps its
// Quoted flag so the emitter re-quotes it for the target.
func (p *Parser) parseAlias() ast.Identifier {
	if p.accept(token.AS) {
		if !p.identLike() {
			p.fail("alias")
			return ast.Identifier{}
		}
		alias := ast.Identifier{Name: p.curTok.Literal, Quoted: p.curTok.Quoted}
		p.nextToken()
		return alias
	}
	if p.identLike() {
		alias := ast.Identifier{Name: p.curTok.Literal, Quoted: p.curTok.Quoted}
		p.nextToken()
		return alias
	}
	return ast.Identifier{}
}

func (p *Parser) parseOrderByItems() []*ast.OrderByItem {
	var items []*ast.OrderByItem
	for {
		e := p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
		item := &ast.OrderByItem{Expr: e}
		if p.accept(token.DESC) {
			item.Desc = true
		} else {
			p.accept(token.ASC)
		}
		items = append(items, item)
		if !p.accept(token.COMMA) {
			break
		}
	}
	return items
}

// -----------------------------------------------------------------------------
// FROM and joins
// -----------------------------------------------------------------------------

func (p *Parser) parseTableRefs() []ast.TableRef {
	var refs []ast.TableRef
	for {
		ref := p.parseJoinChain()
		if p.err != nil {
			return nil
		}
		refs = append(refs, ref)
		if !p.accept(token.COMMA) {
			break
		}
	}
	return refs
}

func (p *Parser) parseJoinChain() ast.TableRef {
	left := p.parsePrimaryTableRef()
	if p.err != nil {
		return nil
	}
	for {
		jt, isJoin := p.joinType()
		if p.err != nil {
			return nil
		}
		if !isJoin {
			return left
		}
		right := p.parsePrimaryTableRef()
		if p.err != nil {
			return nil
		}
		join := &ast.JoinClause{Type: jt, Left: left, Right: right}
		if jt != ast.JoinCross {
			switch {
			case p.accept(token.ON):
				join.On = p.parseExpression(ast.PrecLowest)
				if p.err != nil {
					return nil
				}
			case p.accept(token.USING):
				if !p.expect(token.LPAREN) {
					return nil
				}
				for {
					if !p.identLike() {
						p.fail("column name")
						return nil
					}
					join.Using = append(join.Using, ast.Identifier{Name: p.curTok.Literal, Quoted: p.curTok.Quoted})
					p.nextToken()
					if !p.accept(token.COMMA) {
						break
					}
				}
				if !p.expect(token.RPAREN) {
					return nil
				}
			default:
				p.fail("ON or USING")
				return nil
			}
		}
		left = join
	}
}

func (p *Parser) joinType() (ast.JoinType, bool) {
	switch p.curTok.Type {
	case token.JOIN:
		p.nextToken()
		return ast.JoinInner, true
	case token.INNER:
		p.nextToken()
		if !p.expect(token.JOIN) {
			return 0, false
		}
		return ast.JoinInner, true
	case token.LEFT:
		p.nextToken()
		p.accept(token.OUTER)
		if !p.expect(token.JOIN) {
			return 0, false
		}
		return ast.JoinLeft, true
	case token.RIGHT:
		p.nextToken()
		p.accept(token.OUTER)
		if !p.expect(token.JOIN) {
			return 0, false
		}
		return ast.JoinRight, true
	case token.FULL:
		p.nextToken()
		p.accept(token.OUTER)
		if !p.expect(token.JOIN) {
			return 0, false
		}
		return ast.JoinFull, true
	case token.CROSS:
		p.nextToken()
		if !p.expect(token.JOIN) {
			return 0, false
		}
		return ast.JoinCross, true
	}
	return 0, false
}

func (p *Parser) parsePrimaryTableRef() ast.TableRef {
	lateral := false
	if p.curTok.Type == token.LATERAL {
		lateral = true
		p.nextToken()
	}

	if p.curTok.Type == token.LPAREN {
		p.nextToken()
		var with *ast.WithClause
		if p.curTok.Type == token.WITH {
			with = p.parseWithClause()
			if p.err != nil {
				return nil
			}
		}
		sub := p.parseSelect(with)
		if p.err != nil {
			return nil
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
		return &ast.DerivedTable{Select: sub, Alias: p.parseAlias(), Lateral: lateral}
	}

	if lateral {
		p.fail("subquery after LATERAL")
		return nil
	}
	if !p.identLike() {
		p.fail("table name")
		return nil
	}
	name := p.parseQualifiedName()
	if p.err != nil {
		return nil
	}
	return &ast.TableName{Name: *name, Alias: p.parseAlias()}
}

func (p *Parser) parseQualifiedName() *ast.QualifiedName {
	if !p.identLike() {
		p.fail("name")
		return nil
	}
	q := &ast.QualifiedName{Parts: []ast.Identifier{{Name: p.curTok.Literal, Quoted: p.curTok.Quoted}}}
	p.nextToken()
	for p.accept(token.DOT) {
		if !p.identLike() {
			p.fail("identifier after '.'")
			return nil
		}
		q.Parts = append(q.Parts, ast.Identifier{Name: p.curTok.Literal, Quoted: p.curTok.Quoted})
		p.nextToken()
	}
	return q
}

// -----------------------------------------------------------------------------
// DML
// -----------------------------------------------------------------------------

func (p *Parser) parseInsert(with *ast.WithClause) ast.Statement {
	p.nextToken() // INSERT
	p.accept(token.INTO)

	name := p.parseQualifiedName()
	if p.err != nil {
		return nil
	}
	stmt := &ast.InsertStatement{With: with, Table: ast.TableName{Name: *name}}

	if p.curTok.Type == token.LPAREN && (p.peekTok.Type == token.IDENT || softKeyword(p.peekTok.Type)) {
		p.nextToken()
		for {
			if !p.identLike() {
				p.fail("column name")
				return nil
			}
			stmt.Columns = append(stmt.Columns, ast.Identifier{Name: p.curTok.Literal, Quoted: p.curTok.Quoted})
			p.nextToken()
			if !p.accept(token.COMMA) {
				break
			}
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
	}

	switch p.curTok.Type {
	case token.VALUES:
		p.nextToken()
		for {
			row := p.parseValueRow()
			if p.err != nil {
				return nil
			}
			stmt.Rows = append(stmt.Rows, row)
			if !p.accept(token.COMMA) {
				break
			}
		}
	case token.SELECT, token.LPAREN, token.WITH:
		var inner *ast.WithClause
		if p.curTok.Type == token.WITH {
			inner = p.parseWithClause()
			if p.err != nil {
				return nil
			}
		}
		stmt.Select = p.parseSelect(inner)
		if p.err != nil {
			return nil
		}
	default:
		p.fail("VALUES or SELECT")
		return nil
	}

	stmt.Returning = p.parseReturning()
	if p.err != nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseValueRow() []ast.Expression {
	if !p.expect(token.LPAREN) {
		return nil
	}
	var row []ast.Expression
	for {
		e := p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
		row = append(row, e)
		if !p.accept(token.COMMA) {
			break
		}
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return row
}

func (p *Parser) parseUpdate(with *ast.WithClause) ast.Statement {
	p.nextToken() // UPDATE
	name := p.parseQualifiedName()
	if p.err != nil {
		return nil
	}
	stmt := &ast.UpdateStatement{With: with, Table: ast.TableName{Name: *name}}
	if p.curTok.Type != token.SET {
		stmt.Table.Alias = p.parseAlias()
	}
	if !p.expect(token.SET) {
		return nil
	}
	for {
		a := p.parseAssignment()
		if p.err != nil {
			return nil
		}
		stmt.Set = append(stmt.Set, a)
		if !p.accept(token.COMMA) {
			break
		}
	}
	if p.accept(token.FROM) {
		stmt.From = p.parseTableRefs()
		if p.err != nil {
			return nil
		}
	}
	if p.accept(token.WHERE) {
		stmt.Where = p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
	}
	stmt.Returning = p.parseReturning()
	if p.err != nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseAssignment() *ast.Assignment {
	col := p.parseQualifiedName()
	if p.err != nil {
		return nil
	}
	if !p.expect(token.EQ) {
		return nil
	}
	val := p.parseExpression(ast.PrecLowest)
	if p.err != nil {
		return nil
	}
	return &ast.Assignment{Column: *col, Value: val}
}

func (p *Parser) parseDelete(with *ast.WithClause) ast.Statement {
	p.nextToken() // DELETE
	if !p.expect(token.FROM) {
		return nil
	}
	name := p.parseQualifiedName()
	if p.err != nil {
		return nil
	}
	stmt := &ast.DeleteStatement{With: with, Table: ast.TableName{Name: *name}}
	if p.curTok.Type != token.WHERE && p.curTok.Type != token.RETURNING {
		stmt.Table.Alias = p.parseAlias()
	}
	if p.accept(token.WHERE) {
		stmt.Where = p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
	}
	stmt.Returning = p.parseReturning()
	if p.err != nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseReturning() []ast.SelectItem {
	if !p.accept(token.RETURNING) {
		return nil
	}
	var items []ast.SelectItem
	for {
		item := p.parseSelectItem()
		if p.err != nil {
			return nil
		}
		items = append(items, item)
		if !p.accept(token.COMMA) {
			break
		}
	}
	return items
}

// -----------------------------------------------------------------------------
// MERGE
// -----------------------------------------------------------------------------

func (p *Parser) parseMerge() ast.Statement {
	p.nextToken() // MERGE
	p.accept(token.INTO)

	name := p.parseQualifiedName()
	if p.err != nil {
		return nil
	}
	stmt := &ast.MergeStatement{Target: ast.TableName{Name: *name}}
	if p.curTok.Type != token.USING {
		stmt.Target.Alias = p.parseAlias()
	}
	if !p.expect(token.USING) {
		return nil
	}
	stmt.Source = p.parsePrimaryTableRef()
	if p.err != nil {
		return nil
	}
	if !p.expect(token.ON) {
		return nil
	}
	stmt.On = p.parseExpression(ast.PrecLowest)
	if p.err != nil {
		return nil
	}

	for p.curTok.Type == token.WHEN {
		when := p.parseMergeWhen()
		if p.err != nil {
			return nil
		}
		stmt.Whens = append(stmt.Whens, when)
	}
	if len(stmt.Whens) == 0 {
		p.fail("WHEN")
		return nil
	}
	return stmt
}

func (p *Parser) parseMergeWhen() *ast.MergeWhen {
	p.nextToken() // WHEN
	when := &ast.MergeWhen{Matched: true}
	if p.accept(token.NOT) {
		when.Matched = false
	}
	if !p.expect(token.MATCHED) {
		return nil
	}
	if p.accept(token.AND) {
		when.Condition = p.parseExpression(ast.PrecLowest)
		if p.err != nil {
			return nil
		}
	}
	if !p.expect(token.THEN) {
		return nil
	}

	switch p.curTok.Type {
	case token.UPDATE:
		p.nextToken()
		if !p.expect(token.SET) {
			return nil
		}
		when.Action = ast.MergeUpdate
		for {
			a := p.parseAssignment()
			if p.err != nil {
				return nil
			}
			when.Set = append(when.Set, a)
			if !p.accept(token.COMMA) {
				break
			}
		}
	case token.DELETE:
		p.nextToken()
		when.Action = ast.MergeDelete
	case token.INSERT:
		p.nextToken()
		when.Action = ast.MergeInsert
		if p.curTok.Type == token.LPAREN && (p.peekTok.Type == token.IDENT || softKeyword(p.peekTok.Type)) {
			p.nextToken()
			for {
				if !p.identLike() {
					p.fail("column name")
					return nil
				}
				when.Columns = append(when.Columns, ast.Identifier{Name: p.curTok.Literal, Quoted: p.curTok.Quoted})
				p.nextToken()
				if !p.accept(token.COMMA) {
					break
				}
			}
			if !p.expect(token.RPAREN) {
				return nil
			}
		}
		if !p.expect(token.VALUES) {
			return nil
		}
		when.Values = p.parseValueRow()
		if p.err != nil {
			return nil
		}
	default:
		p.fail("UPDATE, DELETE or INSERT")
		return nil
	}
	return when
}
