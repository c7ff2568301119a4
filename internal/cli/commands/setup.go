package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqltrace-labs/sqltrace/internal/config"
)

// configKey is used to store config in context.
type configKey struct{}

// WithConfig stores the loaded config in a context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// getConfig retrieves the config loaded by the root command. Commands run
// outside the root (tests, embedding) fall back to pure defaults.
func getConfig(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	cfg, err := config.Load("", nil)
	if err != nil {
		return &config.Config{
			Dialect: config.DefaultDialect,
			Workers: config.DefaultWorkers,
			Output:  config.DefaultOutput,
			Host:    config.DefaultHost,
			Port:    config.DefaultPort,
		}
	}
	return cfg
}

// newLogger builds the CLI logger writing to stderr.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// requireFiles validates that every argument names a readable file.
func requireFiles(paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory, expected a SQL file", path)
		}
	}
	return nil
}
