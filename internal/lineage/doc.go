// Package lineage extracts data lineage from parsed SQL statements and
// accumulates it into a deduplicated graph.
//
// Extraction works on the dialect-neutral statement model from pkg/ast,
// so it never inspects parser-native trees. Table-level lineage is always
// produced; column-level lineage is opt-in.
//
// # Identity
//
// Node identity is the lowercased qualified name (database.schema.table).
// The first registration of a name wins its display metadata; duplicate
// edges collapse on (source, target, kind). Graphs from independent
// inputs merge associatively, which is what lets multi-source resolution
// process inputs in any order.
//
// # Basic Usage
//
//	stmts, err := p.Parse("CREATE TABLE mart.daily AS SELECT id FROM raw.events")
//	if err != nil {
//	    return err
//	}
//	g := lineage.Extract(stmts, lineage.Options{SourceName: "daily.sql"})
//	for _, e := range g.Edges() {
//	    fmt.Printf("%s -> %s\n", e.Source, e.Target)
//	}
package lineage
