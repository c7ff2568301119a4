// Package resolver runs lineage extraction across many inputs and folds
// the results into one unified graph. A failing input never aborts the
// run: it becomes a diagnostic and the remaining inputs still resolve.
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/sqltrace-labs/sqltrace/internal/lineage"
	"github.com/sqltrace-labs/sqltrace/internal/parser"
	"github.com/sqltrace-labs/sqltrace/pkg/ast"
)

// Source is one SQL input. SQL is used when set; otherwise the content
// is read from Path. Name attributes every node, edge and diagnostic
// the source produces.
type Source struct {
	Name string
	SQL  string
	Path string
}

// Diagnostic reports a source that failed to resolve.
type Diagnostic struct {
	Source  string `json:"source"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Options controls a resolve run.
type Options struct {
	// Dialect selects the parser; empty means the default dialect.
	Dialect string
	// IncludeColumns enables column-level lineage.
	IncludeColumns bool
	// Workers caps concurrent per-source extraction. Values below 2
	// run sequentially. Merge order is input order either way, so the
	// unified graph does not depend on this setting.
	Workers int
}

// Resolve extracts lineage from every source and merges the per-source
// graphs in input order. Sources that fail to read or parse are skipped
// and reported as diagnostics. The only fatal error is an unknown
// dialect.
func Resolve(ctx context.Context, sources []Source, opts Options) (*lineage.Graph, []Diagnostic, error) {
	p, err := parser.Get(opts.Dialect)
	if err != nil {
		return nil, nil, err
	}

	graphs := make([]*lineage.Graph, len(sources))
	errs := make([]error, len(sources))

	if opts.Workers > 1 {
		eg, _ := errgroup.WithContext(ctx)
		eg.SetLimit(opts.Workers)
		for i, src := range sources {
			i, src := i, src
			eg.Go(func() error {
				graphs[i], errs[i] = resolveOne(ctx, p, src, opts)
				return nil
			})
		}
		// workers report per-source failures through errs, never abort
		_ = eg.Wait()
	} else {
		for i, src := range sources {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue
			}
			graphs[i], errs[i] = resolveOne(ctx, p, src, opts)
		}
	}

	unified := lineage.NewGraph()
	var diags []Diagnostic
	for i, src := range sources {
		if errs[i] != nil {
			diags = append(diags, Diagnostic{
				Source:  src.Name,
				Message: errs[i].Error(),
				Err:     errs[i],
			})
			continue
		}
		unified.Merge(graphs[i])
	}
	return unified, diags, nil
}

// ResolveFiles resolves lineage from SQL files, attributing each to its
// base name.
func ResolveFiles(ctx context.Context, paths []string, opts Options) (*lineage.Graph, []Diagnostic, error) {
	sources := make([]Source, len(paths))
	for i, path := range paths {
		sources[i] = Source{Name: filepath.Base(path), Path: path}
	}
	return Resolve(ctx, sources, opts)
}

func resolveOne(ctx context.Context, p ast.Parser, src Source, opts Options) (*lineage.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sql := src.SQL
	if sql == "" && src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src.Path, err)
		}
		sql = string(data)
	}
	stmts, err := p.Parse(sql)
	if err != nil {
		return nil, err
	}
	return lineage.Extract(stmts, lineage.Options{
		SourceName:     src.Name,
		IncludeColumns: opts.IncludeColumns,
	}), nil
}
