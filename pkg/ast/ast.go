package ast

import "strings"

// Kind classifies a statement by its lineage-relevant shape.
type Kind int

const (
	// KindSelect is a bare query with no write destination.
	KindSelect Kind = iota
	// KindInsertSelect writes query (or literal) rows into an existing relation.
	KindInsertSelect
	// KindCreateTableAsSelect materializes a query as a new table.
	KindCreateTableAsSelect
	// KindCreateViewAsSelect defines a view over a query.
	KindCreateViewAsSelect
	// KindMerge upserts from a source relation into a target.
	KindMerge
	// KindOtherDDL is any other statement. It has no write target but may
	// still reference relations worth recording.
	KindOtherDDL
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsertSelect:
		return "insert_select"
	case KindCreateTableAsSelect:
		return "create_table_as_select"
	case KindCreateViewAsSelect:
		return "create_view_as_select"
	case KindMerge:
		return "merge"
	default:
		return "other_ddl"
	}
}

// Relation is a possibly-qualified relation name. Empty qualifier parts
// mean the statement did not spell them out.
type Relation struct {
	Database string
	Schema   string
	Name     string
}

// QualifiedName joins the non-empty parts with dots, least specific first.
func (r Relation) QualifiedName() string {
	parts := make([]string, 0, 3)
	if r.Database != "" {
		parts = append(parts, r.Database)
	}
	if r.Schema != "" {
		parts = append(parts, r.Schema)
	}
	parts = append(parts, r.Name)
	return strings.Join(parts, ".")
}

// RelationRef is a relation as referenced in statement position, carrying
// the local alias when one was given.
type RelationRef struct {
	Relation
	Alias string
}

// ColumnRef is a column reference inside an expression. Qualifier holds the
// table name or alias prefix, or is empty for a bare column.
type ColumnRef struct {
	Qualifier string
	Name      string
}

// ProjectionItem is one item of a statement's primary SELECT list.
type ProjectionItem struct {
	// Alias is the output name given with AS, empty otherwise.
	Alias string
	// ColumnName is set when the item is a plain column reference.
	ColumnName string
	// Star marks a wildcard item. Wildcard items have no column detail.
	Star bool
	// Columns lists every column referenced anywhere in the item's
	// expression, in source order.
	Columns []ColumnRef
	// Expression is the rendered source text of the item, kept for
	// column provenance.
	Expression string
}

// OutputName is the name the item projects under: the alias when present,
// else the bare column name. Empty for wildcard and unnamed expressions.
func (p ProjectionItem) OutputName() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.ColumnName
}

// SelectShape is the projection view of a statement's primary query,
// used for column-level lineage.
type SelectShape struct {
	Items []ProjectionItem
	// From lists the relations joined in the primary FROM clause, with
	// their aliases, for qualifier resolution.
	From []RelationRef
}

// Statement is the dialect-neutral form every parser produces. Consumers
// switch on Kind and never see parser-native trees.
type Statement struct {
	Kind Kind
	// Target is the declared write destination, nil when Kind has none.
	Target *Relation
	// Sources holds every relation referenced by the statement except the
	// write target and CTE declarations, in tree order, duplicates kept.
	Sources []RelationRef
	// CTENames are the names bound by WITH clauses, in declaration order.
	CTENames []string
	// Select is the primary projection when the statement has one.
	Select *SelectShape
}
