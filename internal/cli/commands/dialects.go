package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqltrace-labs/sqltrace/internal/parser"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List supported SQL dialects",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, name := range parser.Dialects() {
				if name == parser.DefaultDialect {
					fmt.Fprintf(out, "%s (default)\n", name)
					continue
				}
				fmt.Fprintln(out, name)
			}
		},
	}
}
