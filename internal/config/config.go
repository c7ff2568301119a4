// Package config loads tool configuration from defaults, an optional
// YAML file, environment variables and CLI flags, in that precedence
// order (later wins).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	goyaml "gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultDialect = "postgres"
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 8000
	DefaultOutput  = "text"
	DefaultWorkers = 1
)

// Config file names searched in the working directory.
var configFileNames = []string{"sqltrace.yaml", "sqltrace.yml"}

// Config holds all tool settings.
type Config struct {
	// Dialect is the SQL dialect used for parsing.
	Dialect string `koanf:"dialect" yaml:"dialect"`
	// IncludeColumns enables column-level lineage.
	IncludeColumns bool `koanf:"include_columns" yaml:"include_columns"`
	// Workers caps concurrent per-source extraction.
	Workers int `koanf:"workers" yaml:"workers"`
	// Output selects CLI rendering: text or json.
	Output string `koanf:"output" yaml:"output"`
	// Host and Port configure the HTTP server.
	Host string `koanf:"host" yaml:"host"`
	Port int    `koanf:"port" yaml:"port"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose" yaml:"verbose"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"dialect":         DefaultDialect,
		"include_columns": false,
		"workers":         DefaultWorkers,
		"output":          DefaultOutput,
		"host":            DefaultHost,
		"port":            DefaultPort,
		"verbose":         false,
	}
}

// findConfigFile returns the config file to use.
// Priority: explicit path > sqltrace.yaml > sqltrace.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the effective configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// SQLTRACE_INCLUDE_COLUMNS -> include_columns
	if err := k.Load(env.Provider("SQLTRACE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SQLTRACE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// kebab-case flags map to snake_case config keys
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// WriteDefault writes a starter config file with the default values.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	cfg := Config{
		Dialect: DefaultDialect,
		Workers: DefaultWorkers,
		Output:  DefaultOutput,
		Host:    DefaultHost,
		Port:    DefaultPort,
	}
	data, err := goyaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
