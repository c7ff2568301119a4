package lineage

import "strings"

// Graph accumulates deduplicated lineage nodes and edges. Nodes keep
// their registration order so downstream consumers stay deterministic.
type Graph struct {
	tables    map[string]*TableNode
	tableIDs  []string
	columns   map[string]*ColumnNode
	columnIDs []string
	edges     []Edge
	edgeKeys  map[edgeKey]struct{}
}

func NewGraph() *Graph {
	return &Graph{
		tables:   make(map[string]*TableNode),
		columns:  make(map[string]*ColumnNode),
		edgeKeys: make(map[edgeKey]struct{}),
	}
}

// AddTable registers a table node and returns its id. The first
// registration of an id wins; later ones never overwrite metadata.
func (g *Graph) AddTable(t Table, nodeType NodeType) string {
	id := t.ID()
	if _, ok := g.tables[id]; ok {
		return id
	}
	g.tables[id] = &TableNode{
		ID:         id,
		Name:       t.Name,
		Schema:     t.Schema,
		Database:   t.Database,
		SourceName: t.SourceName,
		IsCTE:      t.IsCTE,
		Type:       nodeType,
	}
	g.tableIDs = append(g.tableIDs, id)
	return id
}

// AddColumn registers a column node and returns its id. First writer wins.
func (g *Graph) AddColumn(c Column) string {
	id := c.ID()
	if _, ok := g.columns[id]; ok {
		return id
	}
	tableID := ""
	if c.Table != nil {
		tableID = c.Table.ID()
	}
	g.columns[id] = &ColumnNode{ID: id, Name: c.Name, TableID: tableID}
	g.columnIDs = append(g.columnIDs, id)
	return id
}

// AddEdge appends an edge unless one with the same case-insensitive
// (source, target, kind) already exists.
func (g *Graph) AddEdge(e Edge) {
	k := e.key()
	if _, ok := g.edgeKeys[k]; ok {
		return
	}
	g.edgeKeys[k] = struct{}{}
	g.edges = append(g.edges, e)
}

// Merge folds other into g. Node metadata keeps the first writer,
// duplicate edges collapse, and other's ordering is appended after g's.
// Merging is associative and commutative up to ordering.
func (g *Graph) Merge(other *Graph) {
	if other == nil {
		return
	}
	for _, id := range other.tableIDs {
		n := other.tables[id]
		g.AddTable(Table{
			Name:       n.Name,
			Schema:     n.Schema,
			Database:   n.Database,
			SourceName: n.SourceName,
			IsCTE:      n.IsCTE,
		}, n.Type)
	}
	for _, id := range other.columnIDs {
		n := other.columns[id]
		if _, ok := g.columns[id]; ok {
			continue
		}
		g.columns[id] = &ColumnNode{ID: n.ID, Name: n.Name, TableID: n.TableID}
		g.columnIDs = append(g.columnIDs, id)
	}
	for _, e := range other.edges {
		g.AddEdge(e)
	}
}

// Table returns the node registered under id, matching case-insensitively.
func (g *Graph) Table(id string) (*TableNode, bool) {
	n, ok := g.tables[strings.ToLower(id)]
	return n, ok
}

// TableIDs returns table node ids in registration order.
func (g *Graph) TableIDs() []string {
	out := make([]string, len(g.tableIDs))
	copy(out, g.tableIDs)
	return out
}

// ColumnIDs returns column node ids in registration order.
func (g *Graph) ColumnIDs() []string {
	out := make([]string, len(g.columnIDs))
	copy(out, g.columnIDs)
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// TableEdges returns only the table-to-table edges, in insertion order.
func (g *Graph) TableEdges() []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Kind == TableToTable {
			out = append(out, e)
		}
	}
	return out
}

// Upstream returns the sources of every edge targeting id, matched
// case-insensitively, in edge insertion order.
func (g *Graph) Upstream(id string) []string {
	want := strings.ToLower(id)
	var out []string
	for _, e := range g.edges {
		if strings.ToLower(e.Target) == want {
			out = append(out, e.Source)
		}
	}
	return out
}

// Downstream returns the targets of every edge sourced from id, matched
// case-insensitively, in edge insertion order.
func (g *Graph) Downstream(id string) []string {
	want := strings.ToLower(id)
	var out []string
	for _, e := range g.edges {
		if strings.ToLower(e.Source) == want {
			out = append(out, e.Target)
		}
	}
	return out
}

// NumTables reports the number of table nodes.
func (g *Graph) NumTables() int { return len(g.tableIDs) }

// NumColumns reports the number of column nodes.
func (g *Graph) NumColumns() int { return len(g.columnIDs) }

// NumEdges reports the number of edges of all kinds.
func (g *Graph) NumEdges() int { return len(g.edges) }
