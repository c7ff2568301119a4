package lineage

import "strings"

// EdgeKind distinguishes the two lineage granularities.
type EdgeKind string

const (
	// TableToTable links a source relation to a write target.
	TableToTable EdgeKind = "table_to_table"
	// ColumnToColumn links a source column to a produced column.
	ColumnToColumn EdgeKind = "column_to_column"
)

// NodeType is the rendered flavor of a table-level node.
type NodeType string

const (
	NodeTable NodeType = "table"
	NodeView  NodeType = "view"
	NodeCTE   NodeType = "cte"
)

// Table identifies a relation as seen in a statement. Identity is the
// lowercased qualified name; the original spelling is kept for display.
type Table struct {
	Name     string
	Schema   string
	Database string
	// SourceName attributes the table to the input that introduced it.
	SourceName string
	// IsCTE marks names bound by a WITH clause rather than the catalog.
	IsCTE bool
}

// QualifiedName joins database, schema and name with dots, skipping
// empty parts.
func (t Table) QualifiedName() string {
	parts := make([]string, 0, 3)
	if t.Database != "" {
		parts = append(parts, t.Database)
	}
	if t.Schema != "" {
		parts = append(parts, t.Schema)
	}
	parts = append(parts, t.Name)
	return strings.Join(parts, ".")
}

// ID is the case-insensitive identity of the table.
func (t Table) ID() string {
	return strings.ToLower(t.QualifiedName())
}

// Column is a column attributed to a table. Table is nil when the owning
// relation could not be determined.
type Column struct {
	Name  string
	Table *Table
}

// QualifiedName prefixes the column with its table's qualified name when
// the table is known.
func (c Column) QualifiedName() string {
	if c.Table == nil {
		return c.Name
	}
	return c.Table.QualifiedName() + "." + c.Name
}

// ID is the case-insensitive identity of the column.
func (c Column) ID() string {
	return strings.ToLower(c.QualifiedName())
}

// Edge is a directed lineage relationship. Source and Target hold
// qualified names in their original spelling; identity comparisons
// lowercase them.
type Edge struct {
	Source string
	Target string
	Kind   EdgeKind
	// Expression carries the projecting expression text on column
	// edges.
	Expression string
	// SourceName attributes the edge to the input that produced it.
	SourceName string
}

type edgeKey struct {
	source string
	target string
	kind   EdgeKind
}

func (e Edge) key() edgeKey {
	return edgeKey{
		source: strings.ToLower(e.Source),
		target: strings.ToLower(e.Target),
		kind:   e.Kind,
	}
}

// TableNode is a registered table-level graph node.
type TableNode struct {
	ID         string
	Name       string
	Schema     string
	Database   string
	SourceName string
	IsCTE      bool
	Type       NodeType
}

// ColumnNode is a registered column-level graph node. TableID is empty
// when the owning table is unknown.
type ColumnNode struct {
	ID      string
	Name    string
	TableID string
}
