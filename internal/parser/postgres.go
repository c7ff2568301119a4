package parser

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/sqltrace-labs/sqltrace/pkg/ast"
)

// postgresParser adapts libpg_query parse trees. It is the default
// dialect and the only one with full DDL coverage.
type postgresParser struct{}

func (postgresParser) Parse(sql string) ([]*ast.Statement, error) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return nil, &ast.ParseError{Dialect: "postgres", Message: err.Error(), Cause: err}
	}
	stmts := make([]*ast.Statement, 0, len(result.Stmts))
	for _, raw := range result.Stmts {
		if raw.GetStmt() == nil {
			continue
		}
		stmts = append(stmts, convertPGStatement(raw.GetStmt(), result.Version))
	}
	return stmts, nil
}

func convertPGStatement(node *pg_query.Node, version int32) *ast.Statement {
	w := &pgWalker{}
	switch n := node.Node.(type) {
	case *pg_query.Node_SelectStmt:
		w.walk(node)
		return &ast.Statement{
			Kind:     ast.KindSelect,
			Sources:  w.refs,
			CTENames: w.ctes,
			Select:   buildShape(primarySelect(n.SelectStmt), version),
		}

	case *pg_query.Node_InsertStmt:
		ins := n.InsertStmt
		w.walkWith(ins.WithClause)
		w.walk(ins.SelectStmt)
		st := &ast.Statement{
			Kind:     ast.KindInsertSelect,
			Target:   relationOf(ins.Relation),
			Sources:  w.refs,
			CTENames: w.ctes,
		}
		if sel := ins.GetSelectStmt().GetSelectStmt(); sel != nil {
			st.Select = buildShape(primarySelect(sel), version)
		}
		return st

	case *pg_query.Node_CreateTableAsStmt:
		cts := n.CreateTableAsStmt
		w.walk(cts.Query)
		kind := ast.KindCreateTableAsSelect
		if cts.Objtype == pg_query.ObjectType_OBJECT_MATVIEW {
			kind = ast.KindCreateViewAsSelect
		}
		st := &ast.Statement{
			Kind:     kind,
			Sources:  w.refs,
			CTENames: w.ctes,
		}
		if cts.Into != nil {
			st.Target = relationOf(cts.Into.Rel)
		}
		if sel := cts.GetQuery().GetSelectStmt(); sel != nil {
			st.Select = buildShape(primarySelect(sel), version)
		}
		return st

	case *pg_query.Node_ViewStmt:
		vs := n.ViewStmt
		w.walk(vs.Query)
		st := &ast.Statement{
			Kind:     ast.KindCreateViewAsSelect,
			Target:   relationOf(vs.View),
			Sources:  w.refs,
			CTENames: w.ctes,
		}
		if sel := vs.GetQuery().GetSelectStmt(); sel != nil {
			st.Select = buildShape(primarySelect(sel), version)
		}
		return st

	case *pg_query.Node_MergeStmt:
		ms := n.MergeStmt
		w.walkWith(ms.WithClause)
		w.walk(ms.SourceRelation)
		w.walk(ms.JoinCondition)
		w.walkAll(ms.MergeWhenClauses)
		st := &ast.Statement{
			Kind:     ast.KindMerge,
			Target:   relationOf(ms.Relation),
			Sources:  w.refs,
			CTENames: w.ctes,
		}
		if sel := findSelect(ms.SourceRelation); sel != nil {
			st.Select = buildShape(primarySelect(sel), version)
		}
		return st

	case *pg_query.Node_CreateStmt:
		// Created table is a write destination, not lineage. Referenced
		// relations (foreign keys, inheritance) still register.
		cs := n.CreateStmt
		w.walkAll(cs.TableElts)
		w.walkAll(cs.InhRelations)
		w.walkAll(cs.Constraints)
		return &ast.Statement{Kind: ast.KindOtherDDL, Sources: w.refs}

	default:
		w.walk(node)
		return &ast.Statement{Kind: ast.KindOtherDDL, Sources: w.refs, CTENames: w.ctes}
	}
}

func relationOf(rv *pg_query.RangeVar) *ast.Relation {
	if rv == nil {
		return nil
	}
	return &ast.Relation{
		Database: rv.Catalogname,
		Schema:   rv.Schemaname,
		Name:     rv.Relname,
	}
}

func refOf(rv *pg_query.RangeVar) ast.RelationRef {
	ref := ast.RelationRef{Relation: *relationOf(rv)}
	if rv.Alias != nil {
		ref.Alias = rv.Alias.Aliasname
	}
	return ref
}

// pgWalker collects relation references and CTE names from a parse tree.
// Write targets of nested DML are skipped by their owning cases.
type pgWalker struct {
	refs []ast.RelationRef
	ctes []string
}

func (w *pgWalker) walkAll(nodes []*pg_query.Node) {
	for _, n := range nodes {
		w.walk(n)
	}
}

func (w *pgWalker) walkWith(with *pg_query.WithClause) {
	if with == nil {
		return
	}
	for _, node := range with.Ctes {
		cte := node.GetCommonTableExpr()
		if cte == nil {
			continue
		}
		w.ctes = append(w.ctes, cte.Ctename)
		w.walk(cte.Ctequery)
	}
}

func (w *pgWalker) walk(node *pg_query.Node) {
	if node == nil {
		return
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_RangeVar:
		w.refs = append(w.refs, refOf(n.RangeVar))
	case *pg_query.Node_SelectStmt:
		w.walkSelect(n.SelectStmt)
	case *pg_query.Node_JoinExpr:
		w.walk(n.JoinExpr.Larg)
		w.walk(n.JoinExpr.Rarg)
		w.walk(n.JoinExpr.Quals)
	case *pg_query.Node_FromExpr:
		w.walkAll(n.FromExpr.Fromlist)
		w.walk(n.FromExpr.Quals)
	case *pg_query.Node_RangeSubselect:
		w.walk(n.RangeSubselect.Subquery)
	case *pg_query.Node_SubLink:
		w.walk(n.SubLink.Testexpr)
		w.walk(n.SubLink.Subselect)
	case *pg_query.Node_CommonTableExpr:
		w.ctes = append(w.ctes, n.CommonTableExpr.Ctename)
		w.walk(n.CommonTableExpr.Ctequery)
	case *pg_query.Node_List:
		w.walkAll(n.List.Items)
	case *pg_query.Node_ResTarget:
		w.walk(n.ResTarget.Val)
	case *pg_query.Node_AExpr:
		w.walk(n.AExpr.Lexpr)
		w.walk(n.AExpr.Rexpr)
	case *pg_query.Node_BoolExpr:
		w.walkAll(n.BoolExpr.Args)
	case *pg_query.Node_FuncCall:
		w.walkAll(n.FuncCall.Args)
		w.walk(n.FuncCall.AggFilter)
	case *pg_query.Node_TypeCast:
		w.walk(n.TypeCast.Arg)
	case *pg_query.Node_CaseExpr:
		w.walk(n.CaseExpr.Arg)
		w.walkAll(n.CaseExpr.Args)
		w.walk(n.CaseExpr.Defresult)
	case *pg_query.Node_CaseWhen:
		w.walk(n.CaseWhen.Expr)
		w.walk(n.CaseWhen.Result)
	case *pg_query.Node_CoalesceExpr:
		w.walkAll(n.CoalesceExpr.Args)
	case *pg_query.Node_MinMaxExpr:
		w.walkAll(n.MinMaxExpr.Args)
	case *pg_query.Node_NullTest:
		w.walk(n.NullTest.Arg)
	case *pg_query.Node_RowExpr:
		w.walkAll(n.RowExpr.Args)
	case *pg_query.Node_AIndirection:
		w.walk(n.AIndirection.Arg)
	case *pg_query.Node_AArrayExpr:
		w.walkAll(n.AArrayExpr.Elements)
	case *pg_query.Node_SortBy:
		w.walk(n.SortBy.Node)
	case *pg_query.Node_InsertStmt:
		// nested insert (inside a CTE): relation is a write target
		w.walkWith(n.InsertStmt.WithClause)
		w.walk(n.InsertStmt.SelectStmt)
	case *pg_query.Node_UpdateStmt:
		u := n.UpdateStmt
		w.walkWith(u.WithClause)
		if u.Relation != nil {
			w.refs = append(w.refs, refOf(u.Relation))
		}
		w.walkAll(u.TargetList)
		w.walkAll(u.FromClause)
		w.walk(u.WhereClause)
	case *pg_query.Node_DeleteStmt:
		d := n.DeleteStmt
		w.walkWith(d.WithClause)
		if d.Relation != nil {
			w.refs = append(w.refs, refOf(d.Relation))
		}
		w.walkAll(d.UsingClause)
		w.walk(d.WhereClause)
	case *pg_query.Node_MergeWhenClause:
		m := n.MergeWhenClause
		w.walk(m.Condition)
		w.walkAll(m.TargetList)
		w.walkAll(m.Values)
	case *pg_query.Node_ColumnDef:
		w.walkAll(n.ColumnDef.Constraints)
	case *pg_query.Node_Constraint:
		c := n.Constraint
		if c.Pktable != nil {
			w.refs = append(w.refs, refOf(c.Pktable))
		}
		w.walk(c.RawExpr)
	}
}

func (w *pgWalker) walkSelect(sel *pg_query.SelectStmt) {
	if sel == nil {
		return
	}
	w.walkWith(sel.WithClause)
	if sel.Op != pg_query.SetOperation_SETOP_NONE {
		w.walkSelect(sel.Larg)
		w.walkSelect(sel.Rarg)
	}
	w.walkAll(sel.FromClause)
	w.walkAll(sel.TargetList)
	w.walk(sel.WhereClause)
	w.walkAll(sel.GroupClause)
	w.walk(sel.HavingClause)
	w.walkAll(sel.SortClause)
	w.walkAll(sel.WindowClause)
	w.walkAll(sel.DistinctClause)
	for _, vl := range sel.ValuesLists {
		w.walk(vl)
	}
	w.walk(sel.LimitCount)
	w.walk(sel.LimitOffset)
}

// primarySelect follows the left arm of set operations down to the core
// select whose projection defines the output shape.
func primarySelect(sel *pg_query.SelectStmt) *pg_query.SelectStmt {
	for sel != nil && sel.Op != pg_query.SetOperation_SETOP_NONE && sel.Larg != nil {
		sel = sel.Larg
	}
	return sel
}

// findSelect locates the first select statement under node, for shapes
// that hang off non-select positions like a MERGE source.
func findSelect(node *pg_query.Node) *pg_query.SelectStmt {
	if node == nil {
		return nil
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return n.SelectStmt
	case *pg_query.Node_RangeSubselect:
		return findSelect(n.RangeSubselect.Subquery)
	case *pg_query.Node_SubLink:
		return findSelect(n.SubLink.Subselect)
	}
	return nil
}

func buildShape(core *pg_query.SelectStmt, version int32) *ast.SelectShape {
	if core == nil || len(core.TargetList) == 0 {
		return nil
	}
	shape := &ast.SelectShape{}

	fromWalker := &pgWalker{}
	fromWalker.walkAll(core.FromClause)
	shape.From = fromWalker.refs

	for _, node := range core.TargetList {
		rt := node.GetResTarget()
		if rt == nil {
			continue
		}
		item := ast.ProjectionItem{Alias: rt.Name}
		if cr := rt.GetVal().GetColumnRef(); cr != nil {
			_, name, star := columnRefParts(cr)
			if star {
				item.Star = true
			} else {
				item.ColumnName = name
			}
		}
		if !item.Star {
			collectColumnRefs(rt.Val, &item.Columns)
			item.Expression = deparseTarget(rt, version)
		}
		shape.Items = append(shape.Items, item)
	}
	return shape
}

// columnRefParts decomposes a ColumnRef into qualifier, column name and a
// wildcard flag. For t.* the qualifier is t and star is true.
func columnRefParts(cr *pg_query.ColumnRef) (qualifier, name string, star bool) {
	var parts []string
	for _, f := range cr.Fields {
		if s := f.GetString_(); s != nil {
			parts = append(parts, s.Sval)
		} else if f.GetAStar() != nil {
			star = true
		}
	}
	if star {
		if len(parts) > 0 {
			qualifier = parts[len(parts)-1]
		}
		return qualifier, "*", true
	}
	if len(parts) == 0 {
		return "", "", false
	}
	name = parts[len(parts)-1]
	if len(parts) > 1 {
		qualifier = parts[len(parts)-2]
	}
	return qualifier, name, false
}

// collectColumnRefs gathers every column reference inside an expression,
// in source order. Subquery interiors are skipped since their columns
// resolve against an inner scope.
func collectColumnRefs(node *pg_query.Node, out *[]ast.ColumnRef) {
	if node == nil {
		return
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_ColumnRef:
		qualifier, name, star := columnRefParts(n.ColumnRef)
		if star {
			name = "*"
		}
		if name != "" {
			*out = append(*out, ast.ColumnRef{Qualifier: qualifier, Name: name})
		}
	case *pg_query.Node_AExpr:
		collectColumnRefs(n.AExpr.Lexpr, out)
		collectColumnRefs(n.AExpr.Rexpr, out)
	case *pg_query.Node_BoolExpr:
		for _, a := range n.BoolExpr.Args {
			collectColumnRefs(a, out)
		}
	case *pg_query.Node_FuncCall:
		for _, a := range n.FuncCall.Args {
			collectColumnRefs(a, out)
		}
		collectColumnRefs(n.FuncCall.AggFilter, out)
	case *pg_query.Node_TypeCast:
		collectColumnRefs(n.TypeCast.Arg, out)
	case *pg_query.Node_CaseExpr:
		collectColumnRefs(n.CaseExpr.Arg, out)
		for _, a := range n.CaseExpr.Args {
			collectColumnRefs(a, out)
		}
		collectColumnRefs(n.CaseExpr.Defresult, out)
	case *pg_query.Node_CaseWhen:
		collectColumnRefs(n.CaseWhen.Expr, out)
		collectColumnRefs(n.CaseWhen.Result, out)
	case *pg_query.Node_CoalesceExpr:
		for _, a := range n.CoalesceExpr.Args {
			collectColumnRefs(a, out)
		}
	case *pg_query.Node_MinMaxExpr:
		for _, a := range n.MinMaxExpr.Args {
			collectColumnRefs(a, out)
		}
	case *pg_query.Node_NullTest:
		collectColumnRefs(n.NullTest.Arg, out)
	case *pg_query.Node_RowExpr:
		for _, a := range n.RowExpr.Args {
			collectColumnRefs(a, out)
		}
	case *pg_query.Node_AIndirection:
		collectColumnRefs(n.AIndirection.Arg, out)
	case *pg_query.Node_List:
		for _, a := range n.List.Items {
			collectColumnRefs(a, out)
		}
	}
}

// deparseTarget renders a projection item back to SQL by deparsing it
// inside a synthetic single-item select.
func deparseTarget(rt *pg_query.ResTarget, version int32) string {
	tree := &pg_query.ParseResult{
		Version: version,
		Stmts: []*pg_query.RawStmt{{
			Stmt: &pg_query.Node{Node: &pg_query.Node_SelectStmt{SelectStmt: &pg_query.SelectStmt{
				TargetList:  []*pg_query.Node{{Node: &pg_query.Node_ResTarget{ResTarget: rt}}},
				Op:          pg_query.SetOperation_SETOP_NONE,
				LimitOption: pg_query.LimitOption_LIMIT_OPTION_DEFAULT,
			}}},
		}},
	}
	out, err := pg_query.Deparse(tree)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(out, "SELECT"))
}
