package parser

import (
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/sqltrace-labs/sqltrace/pkg/ast"
)

// mysqlParser adapts the vitess-derived MySQL grammar. The grammar has
// no CTAS or WITH support, so those statements surface as parse errors
// rather than silently losing lineage.
type mysqlParser struct{}

func (mysqlParser) Parse(sql string) ([]*ast.Statement, error) {
	pieces, err := sqlparser.SplitStatementToPieces(sql)
	if err != nil {
		return nil, &ast.ParseError{Dialect: "mysql", Message: err.Error(), Cause: err}
	}
	var stmts []*ast.Statement
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		node, err := sqlparser.Parse(piece)
		if err != nil {
			return nil, &ast.ParseError{Dialect: "mysql", Message: err.Error(), Cause: err}
		}
		stmts = append(stmts, convertMySQLStatement(node))
	}
	return stmts, nil
}

func convertMySQLStatement(node sqlparser.Statement) *ast.Statement {
	w := &mysqlWalker{}
	switch n := node.(type) {
	case *sqlparser.Select:
		w.walkSelect(n)
		return &ast.Statement{
			Kind:    ast.KindSelect,
			Sources: w.refs,
			Select:  buildMySQLShape(n),
		}

	case *sqlparser.Union:
		w.walkSelectStatement(n)
		return &ast.Statement{
			Kind:    ast.KindSelect,
			Sources: w.refs,
			Select:  buildMySQLShape(primaryMySQLSelect(n)),
		}

	case *sqlparser.Insert:
		st := &ast.Statement{
			Kind:   ast.KindInsertSelect,
			Target: relationOfTableName(n.Table),
		}
		if sel, ok := n.Rows.(sqlparser.SelectStatement); ok {
			w.walkSelectStatement(sel)
			st.Sources = w.refs
			st.Select = buildMySQLShape(primaryMySQLSelect(sel))
		}
		return st

	case *sqlparser.Update:
		w.walkTableExprs(n.TableExprs)
		w.walkSubqueries(n.Exprs, n.Where)
		return &ast.Statement{Kind: ast.KindOtherDDL, Sources: w.refs}

	case *sqlparser.Delete:
		w.walkTableExprs(n.TableExprs)
		w.walkSubqueries(n.Where)
		return &ast.Statement{Kind: ast.KindOtherDDL, Sources: w.refs}

	default:
		return &ast.Statement{Kind: ast.KindOtherDDL}
	}
}

func relationOfTableName(t sqlparser.TableName) *ast.Relation {
	return &ast.Relation{
		Schema: t.Qualifier.String(),
		Name:   t.Name.String(),
	}
}

// mysqlWalker collects relation references from query positions only.
// Table names are reached through FROM clauses and subqueries, never
// through column qualifiers.
type mysqlWalker struct {
	refs []ast.RelationRef
}

func (w *mysqlWalker) walkSelectStatement(stmt sqlparser.SelectStatement) {
	switch s := stmt.(type) {
	case *sqlparser.Select:
		w.walkSelect(s)
	case *sqlparser.Union:
		w.walkSelectStatement(s.Left)
		w.walkSelectStatement(s.Right)
	case *sqlparser.ParenSelect:
		w.walkSelectStatement(s.Select)
	}
}

func (w *mysqlWalker) walkSelect(sel *sqlparser.Select) {
	w.walkTableExprs(sel.From)
	w.walkSubqueries(sel.SelectExprs, sel.Where, sel.Having)
}

func (w *mysqlWalker) walkTableExprs(exprs sqlparser.TableExprs) {
	for _, expr := range exprs {
		w.walkTableExpr(expr)
	}
}

func (w *mysqlWalker) walkTableExpr(expr sqlparser.TableExpr) {
	switch e := expr.(type) {
	case *sqlparser.AliasedTableExpr:
		switch t := e.Expr.(type) {
		case sqlparser.TableName:
			ref := ast.RelationRef{Relation: *relationOfTableName(t)}
			if !e.As.IsEmpty() {
				ref.Alias = e.As.String()
			}
			w.refs = append(w.refs, ref)
		case *sqlparser.Subquery:
			w.walkSelectStatement(t.Select)
		}
	case *sqlparser.ParenTableExpr:
		w.walkTableExprs(e.Exprs)
	case *sqlparser.JoinTableExpr:
		w.walkTableExpr(e.LeftExpr)
		w.walkTableExpr(e.RightExpr)
	}
}

// walkSubqueries descends into scalar subqueries hanging off expression
// positions. Nil typed pointers are filtered before walking.
func (w *mysqlWalker) walkSubqueries(nodes ...sqlparser.SQLNode) {
	for _, node := range nodes {
		switch v := node.(type) {
		case nil:
			continue
		case *sqlparser.Where:
			if v == nil {
				continue
			}
		}
		_ = sqlparser.Walk(func(n sqlparser.SQLNode) (bool, error) {
			if sq, ok := n.(*sqlparser.Subquery); ok {
				w.walkSelectStatement(sq.Select)
				return false, nil
			}
			return true, nil
		}, node)
	}
}

func primaryMySQLSelect(stmt sqlparser.SelectStatement) *sqlparser.Select {
	switch s := stmt.(type) {
	case *sqlparser.Select:
		return s
	case *sqlparser.Union:
		return primaryMySQLSelect(s.Left)
	case *sqlparser.ParenSelect:
		return primaryMySQLSelect(s.Select)
	}
	return nil
}

func buildMySQLShape(sel *sqlparser.Select) *ast.SelectShape {
	if sel == nil {
		return nil
	}
	shape := &ast.SelectShape{}

	fromWalker := &mysqlWalker{}
	fromWalker.walkTableExprs(sel.From)
	shape.From = fromWalker.refs

	for _, expr := range sel.SelectExprs {
		switch e := expr.(type) {
		case *sqlparser.StarExpr:
			shape.Items = append(shape.Items, ast.ProjectionItem{Star: true})
		case *sqlparser.AliasedExpr:
			item := ast.ProjectionItem{Expression: sqlparser.String(e)}
			if !e.As.IsEmpty() {
				item.Alias = e.As.String()
			}
			if col, ok := e.Expr.(*sqlparser.ColName); ok {
				item.ColumnName = col.Name.String()
			}
			collectMySQLColumns(e.Expr, &item.Columns)
			shape.Items = append(shape.Items, item)
		}
	}
	return shape
}

func collectMySQLColumns(expr sqlparser.Expr, out *[]ast.ColumnRef) {
	if expr == nil {
		return
	}
	_ = sqlparser.Walk(func(n sqlparser.SQLNode) (bool, error) {
		switch v := n.(type) {
		case *sqlparser.ColName:
			*out = append(*out, ast.ColumnRef{
				Qualifier: v.Qualifier.Name.String(),
				Name:      v.Name.String(),
			})
		case *sqlparser.Subquery:
			return false, nil
		}
		return true, nil
	}, expr)
}
