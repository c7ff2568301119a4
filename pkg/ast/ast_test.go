package ast

import (
	"errors"
	"testing"
)

func TestRelationQualifiedName(t *testing.T) {
	tests := []struct {
		rel  Relation
		want string
	}{
		{Relation{Name: "orders"}, "orders"},
		{Relation{Schema: "raw", Name: "orders"}, "raw.orders"},
		{Relation{Database: "warehouse", Schema: "raw", Name: "orders"}, "warehouse.raw.orders"},
		{Relation{Database: "warehouse", Name: "orders"}, "warehouse.orders"},
	}
	for _, tt := range tests {
		if got := tt.rel.QualifiedName(); got != tt.want {
			t.Errorf("QualifiedName(%+v) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func TestProjectionItemOutputName(t *testing.T) {
	if got := (ProjectionItem{Alias: "total", ColumnName: "amount"}).OutputName(); got != "total" {
		t.Errorf("alias should win, got %q", got)
	}
	if got := (ProjectionItem{ColumnName: "amount"}).OutputName(); got != "amount" {
		t.Errorf("column name fallback, got %q", got)
	}
	if got := (ProjectionItem{Star: true}).OutputName(); got != "" {
		t.Errorf("wildcard has no output name, got %q", got)
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		KindSelect:              "select",
		KindInsertSelect:        "insert_select",
		KindCreateTableAsSelect: "create_table_as_select",
		KindCreateViewAsSelect:  "create_view_as_select",
		KindMerge:               "merge",
		KindOtherDDL:            "other_ddl",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestParseErrorUnwrap(t *testing.T) {
	cause := errors.New("syntax error at line 3")
	err := &ParseError{Dialect: "postgres", Message: cause.Error(), Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("ParseError must unwrap to its cause")
	}
	if err.Error() == "" {
		t.Error("empty error string")
	}
}
