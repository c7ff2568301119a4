package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqltrace-labs/sqltrace/internal/dag"
	"github.com/sqltrace-labs/sqltrace/internal/resolver"
)

type orderOptions struct {
	levels bool
}

// NewOrderCommand creates the order command.
func NewOrderCommand() *cobra.Command {
	opts := &orderOptions{}

	cmd := &cobra.Command{
		Use:   "order <file.sql> [file.sql...]",
		Short: "Derive the build order of tables",
		Long: `Compute the order in which the tables defined across the given files
must be built so that every table comes after its sources. Tables in a
dependency cycle are appended at the end in first-seen order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			if err := requireFiles(args); err != nil {
				return err
			}

			graph, diags, err := resolver.ResolveFiles(cmd.Context(), args, resolver.Options{
				Dialect: cfg.Dialect,
				Workers: cfg.Workers,
			})
			if err != nil {
				return err
			}

			for _, d := range diags {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", d.Source, d.Message)
			}

			dg := dag.FromLineage(graph)
			out := cmd.OutOrStdout()

			if opts.levels {
				levels := dg.Levels()
				if cfg.Output == "json" {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(map[string][][]string{"levels": levels})
				}
				for i, level := range levels {
					fmt.Fprintf(out, "Level %d:\n", i)
					for _, id := range level {
						fmt.Fprintf(out, "  %s\n", id)
					}
				}
				return nil
			}

			order := dg.ExecutionOrder()
			if cfg.Output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string][]string{"execution_order": order})
			}
			for i, id := range order {
				fmt.Fprintf(out, "%d. %s\n", i+1, id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.levels, "levels", false, "Group tables into parallelizable levels")
	return cmd
}
