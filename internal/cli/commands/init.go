package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqltrace-labs/sqltrace/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter sqltrace.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			const path = "sqltrace.yaml"
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
}
