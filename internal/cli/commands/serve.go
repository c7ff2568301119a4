package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sqltrace-labs/sqltrace/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lineage analysis HTTP API",
		Long: `Start an HTTP server exposing lineage analysis. SQL files are
uploaded to POST /api/analyze and the unified graph comes back as JSON.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd)
			if !cmd.Flags().Changed("host") {
				host = cfg.Host
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Config{
				Host:           host,
				Port:           port,
				DefaultDialect: cfg.Dialect,
				Workers:        cfg.Workers,
				Logger:         newLogger(cfg),
			})
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host to bind")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on")
	return cmd
}
