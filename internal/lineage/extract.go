package lineage

import (
	"strings"

	"github.com/sqltrace-labs/sqltrace/pkg/ast"
)

// Options controls extraction behavior for one input.
type Options struct {
	// SourceName attributes every node and edge to the originating input.
	SourceName string
	// IncludeColumns enables column-level lineage in addition to the
	// always-on table level.
	IncludeColumns bool
}

// Extract builds a lineage graph from parsed statements. Statements
// without a write target contribute nodes but no edges.
func Extract(stmts []*ast.Statement, opts Options) *Graph {
	g := NewGraph()
	for _, st := range stmts {
		if st == nil {
			continue
		}
		extractStatement(g, st, opts)
	}
	return g
}

func extractStatement(g *Graph, st *ast.Statement, opts Options) {
	ctes := make(map[string]struct{}, len(st.CTENames))
	for _, name := range st.CTENames {
		ctes[strings.ToLower(name)] = struct{}{}
	}

	sources := dedupSources(st.Sources, ctes, opts.SourceName)

	target := st.Target
	if st.Kind == ast.KindSelect || st.Kind == ast.KindOtherDDL {
		target = nil
	}
	if target == nil {
		for _, src := range sources {
			g.AddTable(src, sourceNodeType(src))
		}
		return
	}

	targetTable := Table{
		Name:       target.Name,
		Schema:     target.Schema,
		Database:   target.Database,
		SourceName: opts.SourceName,
	}
	targetType := NodeTable
	if st.Kind == ast.KindCreateViewAsSelect {
		targetType = NodeView
	}
	g.AddTable(targetTable, targetType)

	for _, src := range sources {
		g.AddTable(src, sourceNodeType(src))
		g.AddEdge(Edge{
			Source:     src.QualifiedName(),
			Target:     targetTable.QualifiedName(),
			Kind:       TableToTable,
			SourceName: opts.SourceName,
		})
	}

	if opts.IncludeColumns && st.Select != nil {
		extractColumns(g, st, targetTable, sources, ctes, opts)
	}
}

// dedupSources converts relation refs into tables, flags CTE uses, and
// keeps the first occurrence of each case-insensitive qualified name.
func dedupSources(refs []ast.RelationRef, ctes map[string]struct{}, sourceName string) []Table {
	var out []Table
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		t := tableFromRef(ref, ctes, sourceName)
		id := t.ID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, t)
	}
	return out
}

func tableFromRef(ref ast.RelationRef, ctes map[string]struct{}, sourceName string) Table {
	t := Table{
		Name:       ref.Name,
		Schema:     ref.Schema,
		Database:   ref.Database,
		SourceName: sourceName,
	}
	if t.Schema == "" && t.Database == "" {
		if _, ok := ctes[strings.ToLower(t.Name)]; ok {
			t.IsCTE = true
		}
	}
	return t
}

func sourceNodeType(t Table) NodeType {
	if t.IsCTE {
		return NodeCTE
	}
	return NodeTable
}

// extractColumns emits column-to-column edges for the statement's primary
// projection. Qualifiers resolve through the alias table; unqualified
// references fall back to the sole source when there is exactly one, and
// stay unattributed otherwise.
func extractColumns(g *Graph, st *ast.Statement, target Table, sources []Table, ctes map[string]struct{}, opts Options) {
	aliases := make(map[string]Table)
	for _, src := range sources {
		aliases[strings.ToLower(src.Name)] = src
	}
	for _, ref := range st.Select.From {
		t := tableFromRef(ref, ctes, opts.SourceName)
		aliases[strings.ToLower(ref.Name)] = t
		if ref.Alias != "" {
			aliases[strings.ToLower(ref.Alias)] = t
		}
	}

	var sole *Table
	if len(sources) == 1 {
		sole = &sources[0]
	}

	for _, item := range st.Select.Items {
		if item.Star {
			continue
		}
		outName := item.OutputName()
		if outName == "" {
			continue
		}
		targetCol := Column{Name: outName, Table: &target}

		for _, ref := range item.Columns {
			if ref.Name == "*" {
				continue
			}
			var srcTable *Table
			if ref.Qualifier != "" {
				if t, ok := aliases[strings.ToLower(ref.Qualifier)]; ok {
					resolved := t
					srcTable = &resolved
				}
			} else if sole != nil {
				srcTable = sole
			}
			srcCol := Column{Name: ref.Name, Table: srcTable}
			g.AddColumn(srcCol)
			g.AddColumn(targetCol)
			g.AddEdge(Edge{
				Source:     srcCol.QualifiedName(),
				Target:     targetCol.QualifiedName(),
				Kind:       ColumnToColumn,
				Expression: item.Expression,
				SourceName: opts.SourceName,
			})
		}
	}
}
