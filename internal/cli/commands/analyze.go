package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sqltrace-labs/sqltrace/internal/dag"
	"github.com/sqltrace-labs/sqltrace/internal/lineage"
	"github.com/sqltrace-labs/sqltrace/internal/resolver"
)

type analyzeOptions struct {
	columns bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file.sql> [file.sql...]",
		Short: "Extract lineage from SQL files",
		Long: `Parse SQL files, extract table and column lineage, and print the
unified graph together with the derived execution order.

Files that fail to parse are reported on stderr; the remaining files
still contribute to the graph.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			if err := requireFiles(args); err != nil {
				return err
			}

			graph, diags, err := resolver.ResolveFiles(cmd.Context(), args, resolver.Options{
				Dialect:        cfg.Dialect,
				IncludeColumns: opts.columns,
				Workers:        cfg.Workers,
			})
			if err != nil {
				return err
			}

			for _, d := range diags {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", d.Source, d.Message)
			}

			order := dag.ExecutionOrder(graph)
			if cfg.Output == "json" {
				return writeAnalyzeJSON(cmd.OutOrStdout(), graph, order)
			}
			renderAnalyzeText(cmd.OutOrStdout(), graph, order)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.columns, "columns", "c", false, "Include column-level lineage")
	return cmd
}

func writeAnalyzeJSON(out io.Writer, graph *lineage.Graph, order []string) error {
	doc := graph.Document()
	payload := struct {
		Nodes          []lineage.Node `json:"nodes"`
		Links          []lineage.Link `json:"links"`
		ExecutionOrder []string       `json:"execution_order"`
	}{
		Nodes:          doc.Nodes,
		Links:          doc.Links,
		ExecutionOrder: order,
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func renderAnalyzeText(out io.Writer, graph *lineage.Graph, order []string) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"TABLE", "TYPE", "SOURCE"})
	for _, id := range graph.TableIDs() {
		node, _ := graph.Table(id)
		t.AppendRow(table.Row{node.ID, string(node.Type), node.SourceName})
	}
	t.Render()

	tableEdges := graph.TableEdges()
	if len(tableEdges) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Lineage:")
		for _, e := range tableEdges {
			fmt.Fprintf(out, "  %s -> %s\n", e.Source, e.Target)
		}
	}

	columnEdges := graph.NumEdges() - len(tableEdges)
	if columnEdges > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Column lineage:")
		for _, e := range graph.Edges() {
			if e.Kind != lineage.ColumnToColumn {
				continue
			}
			if e.Expression != "" {
				fmt.Fprintf(out, "  %s -> %s (%s)\n", e.Source, e.Target, e.Expression)
			} else {
				fmt.Fprintf(out, "  %s -> %s\n", e.Source, e.Target)
			}
		}
	}

	if len(order) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Execution order:")
		for i, id := range order {
			fmt.Fprintf(out, "  %d. %s\n", i+1, id)
		}
	}
}
