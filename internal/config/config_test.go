package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDialect, cfg.Dialect)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.False(t, cfg.IncludeColumns)
}

func TestLoadConfigFile(t *testing.T) {
	dir := chtemp(t)
	content := []byte("dialect: mysql\nport: 9999\ninclude_columns: true\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqltrace.yaml"), content, 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, 9999, cfg.Port)
	assert.True(t, cfg.IncludeColumns)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultHost, cfg.Host)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chtemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqltrace.yaml"), []byte("dialect: mysql\n"), 0o644))
	t.Setenv("SQLTRACE_DIALECT", "postgres")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	chtemp(t)
	t.Setenv("SQLTRACE_WORKERS", "2")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 0, "")
	flags.String("dialect", "", "")
	require.NoError(t, flags.Parse([]string{"--workers=8"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	// changed flag wins over env
	assert.Equal(t, 8, cfg.Workers)
	// unchanged flag does not clobber defaults
	assert.Equal(t, DefaultDialect, cfg.Dialect)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	chtemp(t)
	_, err := Load("nope.yaml", nil)
	require.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	dir := chtemp(t)
	path := filepath.Join(dir, "sqltrace.yaml")

	require.NoError(t, WriteDefault(path))
	require.Error(t, WriteDefault(path), "must not overwrite")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDialect, cfg.Dialect)
	assert.Equal(t, DefaultPort, cfg.Port)
}

// chtemp switches the working directory to a fresh temp dir so config
// file discovery never sees a developer's real sqltrace.yaml.
func chtemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}
