// Package config loads tracegraph settings from a YAML file, a .env file
// and TRACEGRAPH_* environment variables, in that order of precedence
// (later wins). CLI flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tracegraph/internal/store"
)

// Backends.
const (
	BackendSQL      = "sql"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

// DefaultDSN is the SQLite file used when nothing else is configured.
const DefaultDSN = "tracegraph.db"

// Config selects the graph store and its parameters.
type Config struct {
	Backend string `yaml:"backend"`

	SQL struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"sql"`

	Redis struct {
		URL    string `yaml:"url"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	DynamoDB struct {
		Table     string `yaml:"table"`
		Region    string `yaml:"region"`
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"dynamodb"`
}

// Default returns the configuration used without a file: a local SQLite
// database.
func Default() *Config {
	cfg := &Config{Backend: BackendSQL}
	cfg.SQL.Driver = string(store.DialectSQLite3)
	cfg.SQL.DSN = DefaultDSN
	return cfg
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	// A missing .env is not an error.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides fields from TRACEGRAPH_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for name, dst := range map[string]*string{
		"TRACEGRAPH_BACKEND":           &c.Backend,
		"TRACEGRAPH_DRIVER":            &c.SQL.Driver,
		"TRACEGRAPH_DSN":               &c.SQL.DSN,
		"TRACEGRAPH_REDIS_URL":         &c.Redis.URL,
		"TRACEGRAPH_REDIS_PREFIX":      &c.Redis.Prefix,
		"TRACEGRAPH_DYNAMODB_TABLE":    &c.DynamoDB.Table,
		"TRACEGRAPH_DYNAMODB_REGION":   &c.DynamoDB.Region,
		"TRACEGRAPH_DYNAMODB_ENDPOINT": &c.DynamoDB.Endpoint,
	} {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
}

// Validate checks that the selected backend is fully configured.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQL:
		if _, err := store.ParseDialect(c.SQL.Driver); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if c.SQL.DSN == "" {
			return errors.New("config: sql.dsn is required")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("config: redis.url is required")
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return errors.New("config: dynamodb.table is required")
		}
	default:
		return fmt.Errorf("config: unknown backend %q: must be one of %s, %s, %s",
			c.Backend, BackendSQL, BackendRedis, BackendDynamoDB)
	}
	return nil
}
