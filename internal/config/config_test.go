package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendSQL, cfg.Backend)
	assert.Equal(t, "sqlite3", cfg.SQL.Driver)
	assert.Equal(t, DefaultDSN, cfg.SQL.DSN)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "tracegraph.yaml", `
backend: dynamodb
dynamodb:
  table: graph
  region: eu-west-1
  endpoint: http://localhost:8000
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendDynamoDB, cfg.Backend)
	assert.Equal(t, "graph", cfg.DynamoDB.Table)
	assert.Equal(t, "eu-west-1", cfg.DynamoDB.Region)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDB.Endpoint)
	assert.Equal(t, DefaultDSN, cfg.SQL.DSN, "unset sections keep defaults")
}

func TestLoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load(writeFile(t, dir, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, BackendSQL, cfg.Backend)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(writeFile(t, dir, "bad.yaml", "backend: sql\ndatabase: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("nope.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "tracegraph.yaml", "sql:\n  driver: sqlite3\n  dsn: file.db\n")
	t.Setenv("TRACEGRAPH_DRIVER", "postgres")
	t.Setenv("TRACEGRAPH_DSN", "postgres://localhost/graph")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.SQL.Driver)
	assert.Equal(t, "postgres://localhost/graph", cfg.SQL.DSN)
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "TRACEGRAPH_BACKEND=redis\nTRACEGRAPH_REDIS_URL=redis://cache:6379/2\n")
	t.Cleanup(func() {
		os.Unsetenv("TRACEGRAPH_BACKEND")
		os.Unsetenv("TRACEGRAPH_REDIS_URL")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
}

func TestApplyEnvIgnoresEmpty(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(func(name string) (string, bool) {
		return "", name == "TRACEGRAPH_DSN"
	})
	assert.Equal(t, DefaultDSN, cfg.SQL.DSN)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"default", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Backend = "cassandra" }, "unknown backend"},
		{"bad driver", func(c *Config) { c.SQL.Driver = "oracle" }, "unsupported store driver"},
		{"empty dsn", func(c *Config) { c.SQL.DSN = "" }, "sql.dsn"},
		{"redis without url", func(c *Config) { c.Backend = BackendRedis }, "redis.url"},
		{"dynamodb without table", func(c *Config) { c.Backend = BackendDynamoDB }, "dynamodb.table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
