// Package parser provides dialect-specific SQL parsers that translate
// native parse trees into the statement model from pkg/ast.
package parser

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sqltrace-labs/sqltrace/pkg/ast"
)

// DefaultDialect is used when no dialect is requested.
const DefaultDialect = "postgres"

// ErrUnknownDialect is returned by Get for dialect names with no
// registered parser.
var ErrUnknownDialect = errors.New("unknown dialect")

var registry = map[string]ast.Parser{
	"postgres": postgresParser{},
	"mysql":    mysqlParser{},
}

// Get returns the parser for a dialect name. An empty name selects the
// default dialect.
func Get(dialect string) (ast.Parser, error) {
	if dialect == "" {
		dialect = DefaultDialect
	}
	p, ok := registry[dialect]
	if !ok {
		return nil, fmt.Errorf("%w %q (supported: %v)", ErrUnknownDialect, dialect, Dialects())
	}
	return p, nil
}

// Dialects returns the supported dialect names, sorted.
func Dialects() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
