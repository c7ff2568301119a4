package lineage

import "strings"

// Document is the serialized graph shape consumed by renderers: a flat
// node list and a flat link list, both levels mixed.
type Document struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node is one serialized graph node. Level separates table-level entries
// from column-level ones.
type Node struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Level      string `json:"level"`
	Schema     string `json:"schema,omitempty"`
	Database   string `json:"database,omitempty"`
	SourceName string `json:"source_name,omitempty"`
	IsCTE      bool   `json:"is_cte,omitempty"`
	TableID    string `json:"table_id,omitempty"`
}

// Link is one serialized edge. Column links additionally carry their
// endpoints split into table and column parts.
type Link struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Type         string `json:"type"`
	Expression   string `json:"expression,omitempty"`
	SourceName   string `json:"source_name,omitempty"`
	SourceTable  string `json:"source_table,omitempty"`
	SourceColumn string `json:"source_column,omitempty"`
	TargetTable  string `json:"target_table,omitempty"`
	TargetColumn string `json:"target_column,omitempty"`
}

// Document renders the graph into its serialized form: table nodes in
// registration order, then column nodes, then edges in insertion order.
func (g *Graph) Document() *Document {
	doc := &Document{
		Nodes: make([]Node, 0, len(g.tableIDs)+len(g.columnIDs)),
		Links: make([]Link, 0, len(g.edges)),
	}
	for _, id := range g.tableIDs {
		n := g.tables[id]
		doc.Nodes = append(doc.Nodes, Node{
			ID:         n.ID,
			Name:       n.Name,
			Type:       string(n.Type),
			Level:      "table",
			Schema:     n.Schema,
			Database:   n.Database,
			SourceName: n.SourceName,
			IsCTE:      n.IsCTE,
		})
	}
	for _, id := range g.columnIDs {
		n := g.columns[id]
		doc.Nodes = append(doc.Nodes, Node{
			ID:      n.ID,
			Name:    n.Name,
			Type:    "column",
			Level:   "column",
			TableID: n.TableID,
		})
	}
	for _, e := range g.edges {
		// Link endpoints use the lowercased ids so they match node ids.
		src := strings.ToLower(e.Source)
		tgt := strings.ToLower(e.Target)
		link := Link{
			Source:     src,
			Target:     tgt,
			Type:       string(e.Kind),
			Expression: e.Expression,
			SourceName: e.SourceName,
		}
		if e.Kind == ColumnToColumn {
			link.SourceTable, link.SourceColumn = splitColumnID(src)
			link.TargetTable, link.TargetColumn = splitColumnID(tgt)
		}
		doc.Links = append(doc.Links, link)
	}
	return doc
}

// splitColumnID splits a qualified column id at its last dot. Unqualified
// ids yield an empty table part.
func splitColumnID(id string) (table, column string) {
	i := strings.LastIndex(id, ".")
	if i < 0 {
		return "", id
	}
	return id[:i], id[i+1:]
}
