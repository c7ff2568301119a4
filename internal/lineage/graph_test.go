package lineage

import (
	"reflect"
	"testing"
)

func TestGraphEdgeDedup(t *testing.T) {
	g := NewGraph()
	g.AddEdge(Edge{Source: "a", Target: "b", Kind: TableToTable})
	g.AddEdge(Edge{Source: "A", Target: "B", Kind: TableToTable})
	g.AddEdge(Edge{Source: "a", Target: "b", Kind: ColumnToColumn})

	if g.NumEdges() != 2 {
		t.Fatalf("expected 2 edges after dedup, got %d", g.NumEdges())
	}
}

func TestGraphFirstWriterWins(t *testing.T) {
	g := NewGraph()
	g.AddTable(Table{Name: "Users", SourceName: "a.sql"}, NodeTable)
	g.AddTable(Table{Name: "users", SourceName: "b.sql"}, NodeView)

	if g.NumTables() != 1 {
		t.Fatalf("expected 1 table, got %d", g.NumTables())
	}
	n, _ := g.Table("users")
	if n.Name != "Users" || n.SourceName != "a.sql" || n.Type != NodeTable {
		t.Errorf("later registration overwrote metadata: %+v", n)
	}
}

func TestGraphMergeIsIdempotent(t *testing.T) {
	g := NewGraph()
	g.AddTable(Table{Name: "src"}, NodeTable)
	g.AddTable(Table{Name: "dst"}, NodeTable)
	g.AddEdge(Edge{Source: "src", Target: "dst", Kind: TableToTable})

	other := NewGraph()
	other.AddTable(Table{Name: "src"}, NodeTable)
	other.AddTable(Table{Name: "dst"}, NodeTable)
	other.AddEdge(Edge{Source: "src", Target: "dst", Kind: TableToTable})

	g.Merge(other)
	g.Merge(other)

	if g.NumTables() != 2 || g.NumEdges() != 1 {
		t.Errorf("merge not idempotent: %d tables, %d edges", g.NumTables(), g.NumEdges())
	}
}

func TestGraphMergePreservesOrder(t *testing.T) {
	g := NewGraph()
	g.AddTable(Table{Name: "one"}, NodeTable)

	other := NewGraph()
	other.AddTable(Table{Name: "two"}, NodeTable)
	other.AddTable(Table{Name: "three"}, NodeTable)

	g.Merge(other)
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(g.TableIDs(), want) {
		t.Errorf("order = %v, want %v", g.TableIDs(), want)
	}
}

func TestGraphUpstreamDownstream(t *testing.T) {
	g := NewGraph()
	for _, name := range []string{"a", "b", "c"} {
		g.AddTable(Table{Name: name}, NodeTable)
	}
	g.AddEdge(Edge{Source: "a", Target: "c", Kind: TableToTable})
	g.AddEdge(Edge{Source: "b", Target: "c", Kind: TableToTable})

	up := g.Upstream("C")
	if !reflect.DeepEqual(up, []string{"a", "b"}) {
		t.Errorf("upstream = %v, want [a b]", up)
	}
	down := g.Downstream("A")
	if !reflect.DeepEqual(down, []string{"c"}) {
		t.Errorf("downstream = %v, want [c]", down)
	}
	if got := g.Upstream("missing"); got != nil {
		t.Errorf("upstream of unknown id = %v, want none", got)
	}
}

func TestDocumentShape(t *testing.T) {
	g := NewGraph()
	src := Table{Name: "orders", Schema: "raw", SourceName: "load.sql"}
	dst := Table{Name: "daily", Schema: "mart", SourceName: "load.sql"}
	g.AddTable(src, NodeTable)
	g.AddTable(dst, NodeTable)
	g.AddEdge(Edge{Source: "raw.orders", Target: "mart.daily", Kind: TableToTable, SourceName: "load.sql"})
	g.AddColumn(Column{Name: "id", Table: &src})
	g.AddColumn(Column{Name: "order_id", Table: &dst})
	g.AddEdge(Edge{Source: "raw.orders.id", Target: "mart.daily.order_id", Kind: ColumnToColumn})

	doc := g.Document()

	if len(doc.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(doc.Nodes))
	}
	first := doc.Nodes[0]
	if first.ID != "raw.orders" || first.Level != "table" || first.Schema != "raw" {
		t.Errorf("unexpected first node: %+v", first)
	}
	col := doc.Nodes[2]
	if col.Level != "column" || col.TableID != "raw.orders" {
		t.Errorf("unexpected column node: %+v", col)
	}

	if len(doc.Links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(doc.Links))
	}
	colLink := doc.Links[1]
	if colLink.SourceTable != "raw.orders" || colLink.SourceColumn != "id" {
		t.Errorf("column link source not split: %+v", colLink)
	}
	if colLink.TargetTable != "mart.daily" || colLink.TargetColumn != "order_id" {
		t.Errorf("column link target not split: %+v", colLink)
	}
	tableLink := doc.Links[0]
	if tableLink.SourceTable != "" || tableLink.TargetColumn != "" {
		t.Errorf("table link should not carry split endpoints: %+v", tableLink)
	}
}

func TestDocumentLinkEndpointsMatchNodeIDs(t *testing.T) {
	g := NewGraph()
	g.AddTable(Table{Name: "Orders", Schema: "Raw"}, NodeTable)
	g.AddTable(Table{Name: "Daily", Schema: "Mart"}, NodeTable)
	g.AddEdge(Edge{Source: "Raw.Orders", Target: "Mart.Daily", Kind: TableToTable})

	doc := g.Document()

	ids := make(map[string]struct{}, len(doc.Nodes))
	for _, n := range doc.Nodes {
		ids[n.ID] = struct{}{}
	}
	for _, l := range doc.Links {
		if _, ok := ids[l.Source]; !ok {
			t.Errorf("link source %q matches no node id", l.Source)
		}
		if _, ok := ids[l.Target]; !ok {
			t.Errorf("link target %q matches no node id", l.Target)
		}
	}
}

func TestSplitColumnID(t *testing.T) {
	tests := []struct {
		id     string
		table  string
		column string
	}{
		{"raw.orders.id", "raw.orders", "id"},
		{"orders.id", "orders", "id"},
		{"id", "", "id"},
	}
	for _, tt := range tests {
		table, column := splitColumnID(tt.id)
		if table != tt.table || column != tt.column {
			t.Errorf("splitColumnID(%q) = (%q, %q), want (%q, %q)", tt.id, table, column, tt.table, tt.column)
		}
	}
}
