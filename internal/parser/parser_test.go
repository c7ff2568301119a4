package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/sqltrace-labs/sqltrace/pkg/ast"
)

func TestGetUnknownDialect(t *testing.T) {
	_, err := Get("oracle")
	if err == nil {
		t.Fatal("expected error for unknown dialect")
	}
	if !errors.Is(err, ErrUnknownDialect) {
		t.Errorf("error = %v, want ErrUnknownDialect", err)
	}
}

func TestGetDefaultDialect(t *testing.T) {
	p, err := Get("")
	if err != nil {
		t.Fatalf("default dialect: %v", err)
	}
	if p == nil {
		t.Fatal("nil parser for default dialect")
	}
}

func TestDialects(t *testing.T) {
	got := Dialects()
	want := []string{"mysql", "postgres"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dialects = %v, want %v", got, want)
	}
}

func TestPostgresClassification(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		kind    ast.Kind
		target  string
		sources []string
	}{
		{
			name:    "bare select",
			sql:     "SELECT id FROM users",
			kind:    ast.KindSelect,
			sources: []string{"users"},
		},
		{
			name:    "insert select",
			sql:     "INSERT INTO mart.t SELECT * FROM raw.src",
			kind:    ast.KindInsertSelect,
			target:  "mart.t",
			sources: []string{"raw.src"},
		},
		{
			name:   "insert values",
			sql:    "INSERT INTO t (id) VALUES (1)",
			kind:   ast.KindInsertSelect,
			target: "t",
		},
		{
			name:    "create table as",
			sql:     "CREATE TABLE agg AS SELECT * FROM src",
			kind:    ast.KindCreateTableAsSelect,
			target:  "agg",
			sources: []string{"src"},
		},
		{
			name:    "create view",
			sql:     "CREATE VIEW v AS SELECT * FROM src",
			kind:    ast.KindCreateViewAsSelect,
			target:  "v",
			sources: []string{"src"},
		},
		{
			name:    "create materialized view",
			sql:     "CREATE MATERIALIZED VIEW mv AS SELECT * FROM src",
			kind:    ast.KindCreateViewAsSelect,
			target:  "mv",
			sources: []string{"src"},
		},
		{
			name:    "merge",
			sql:     "MERGE INTO d USING s ON d.id = s.id WHEN MATCHED THEN UPDATE SET x = s.x",
			kind:    ast.KindMerge,
			target:  "d",
			sources: []string{"s"},
		},
		{
			name:    "update is other ddl",
			sql:     "UPDATE t SET x = 1",
			kind:    ast.KindOtherDDL,
			sources: []string{"t"},
		},
		{
			name: "drop is other ddl",
			sql:  "DROP TABLE t",
			kind: ast.KindOtherDDL,
		},
	}

	p, err := Get("postgres")
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := p.Parse(tt.sql)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if len(stmts) != 1 {
				t.Fatalf("expected 1 statement, got %d", len(stmts))
			}
			st := stmts[0]
			if st.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", st.Kind, tt.kind)
			}
			if tt.target == "" {
				if st.Target != nil {
					t.Errorf("unexpected target %v", st.Target)
				}
			} else if st.Target == nil || st.Target.QualifiedName() != tt.target {
				t.Errorf("target = %v, want %s", st.Target, tt.target)
			}
			var sources []string
			for _, ref := range st.Sources {
				sources = append(sources, ref.QualifiedName())
			}
			if !reflect.DeepEqual(sources, tt.sources) && !(len(sources) == 0 && len(tt.sources) == 0) {
				t.Errorf("sources = %v, want %v", sources, tt.sources)
			}
		})
	}
}

func TestPostgresMultiStatement(t *testing.T) {
	p, _ := Get("postgres")
	stmts, err := p.Parse("SELECT 1; SELECT * FROM a; CREATE TABLE b AS SELECT * FROM a")
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
}

func TestPostgresCTENames(t *testing.T) {
	p, _ := Get("postgres")
	stmts, err := p.Parse("WITH a AS (SELECT 1), b AS (SELECT * FROM x) SELECT * FROM a JOIN b ON true")
	if err != nil {
		t.Fatal(err)
	}
	if got := stmts[0].CTENames; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("cte names = %v, want [a b]", got)
	}
}

func TestPostgresAliases(t *testing.T) {
	p, _ := Get("postgres")
	stmts, err := p.Parse("SELECT o.id FROM raw.orders AS o")
	if err != nil {
		t.Fatal(err)
	}
	shape := stmts[0].Select
	if shape == nil || len(shape.From) != 1 {
		t.Fatalf("missing select shape: %+v", stmts[0])
	}
	if shape.From[0].Alias != "o" || shape.From[0].Name != "orders" {
		t.Errorf("from ref = %+v, want orders aliased o", shape.From[0])
	}
	if len(shape.Items) != 1 {
		t.Fatalf("items = %+v", shape.Items)
	}
	item := shape.Items[0]
	if item.ColumnName != "id" {
		t.Errorf("column name = %q, want id", item.ColumnName)
	}
	if len(item.Columns) != 1 || item.Columns[0].Qualifier != "o" {
		t.Errorf("column refs = %+v, want qualifier o", item.Columns)
	}
}

func TestPostgresStarProjection(t *testing.T) {
	p, _ := Get("postgres")
	stmts, err := p.Parse("SELECT *, t.* FROM t")
	if err != nil {
		t.Fatal(err)
	}
	items := stmts[0].Select.Items
	if len(items) != 2 || !items[0].Star || !items[1].Star {
		t.Errorf("star items = %+v", items)
	}
}

func TestPostgresParseError(t *testing.T) {
	p, _ := Get("postgres")
	_, err := p.Parse("SELEC broken FROM")
	if err == nil {
		t.Fatal("expected parse error")
	}
	var perr *ast.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ast.ParseError", err)
	}
	if perr.Dialect != "postgres" {
		t.Errorf("dialect = %q", perr.Dialect)
	}
}

func TestMySQLSelect(t *testing.T) {
	p, _ := Get("mysql")
	stmts, err := p.Parse("SELECT u.id, u.name FROM shop.users u JOIN shop.orders o ON u.id = o.user_id")
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	st := stmts[0]
	if st.Kind != ast.KindSelect {
		t.Errorf("kind = %s", st.Kind)
	}
	var sources []string
	for _, ref := range st.Sources {
		sources = append(sources, ref.QualifiedName())
	}
	want := []string{"shop.users", "shop.orders"}
	if !reflect.DeepEqual(sources, want) {
		t.Errorf("sources = %v, want %v", sources, want)
	}
	if st.Select == nil || st.Select.From[0].Alias != "u" {
		t.Errorf("shape = %+v", st.Select)
	}
}

func TestMySQLInsertSelect(t *testing.T) {
	p, _ := Get("mysql")
	stmts, err := p.Parse("INSERT INTO archive.orders SELECT * FROM shop.orders")
	if err != nil {
		t.Fatal(err)
	}
	st := stmts[0]
	if st.Kind != ast.KindInsertSelect {
		t.Errorf("kind = %s", st.Kind)
	}
	if st.Target == nil || st.Target.QualifiedName() != "archive.orders" {
		t.Errorf("target = %+v", st.Target)
	}
	if len(st.Sources) != 1 || st.Sources[0].QualifiedName() != "shop.orders" {
		t.Errorf("sources = %+v", st.Sources)
	}
}

func TestMySQLMultiStatement(t *testing.T) {
	p, _ := Get("mysql")
	stmts, err := p.Parse("SELECT 1 FROM a; SELECT 2 FROM b")
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
}

func TestMySQLParseError(t *testing.T) {
	p, _ := Get("mysql")
	_, err := p.Parse("SELECT FROM WHERE")
	if err == nil {
		t.Fatal("expected parse error")
	}
	var perr *ast.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ast.ParseError", err)
	}
}
