package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tracegraph/internal/config"
	"github.com/roach88/tracegraph/internal/dynamostore"
	"github.com/roach88/tracegraph/internal/importer"
	"github.com/roach88/tracegraph/internal/redisstore"
	"github.com/roach88/tracegraph/internal/store"
)

// Backend is an opened graph store.
type Backend interface {
	importer.Store
	io.Closer
}

// BackendOpener opens the store selected by cfg.
type BackendOpener func(ctx context.Context, cfg *config.Config) (Backend, error)

// dynamoBackend adds a no-op Close; the SDK client holds no connection.
type dynamoBackend struct {
	*dynamostore.Store
}

func (dynamoBackend) Close() error { return nil }

func openBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Backend {
	case config.BackendSQL:
		dialect, err := store.ParseDialect(cfg.SQL.Driver)
		if err != nil {
			return nil, err
		}
		slog.Debug("opening database", "driver", dialect, "dsn", cfg.SQL.DSN)
		st, err := store.Open(ctx, dialect, cfg.SQL.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil

	case config.BackendRedis:
		slog.Debug("connecting to redis", "url", cfg.Redis.URL)
		rs, err := redisstore.Open(ctx, redisstore.Options{
			URL:    cfg.Redis.URL,
			Prefix: cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return rs, nil

	case config.BackendDynamoDB:
		slog.Debug("connecting to dynamodb", "table", cfg.DynamoDB.Table, "region", cfg.DynamoDB.Region)
		client, err := dynamostore.NewClient(ctx, dynamostore.ClientConfig{
			Region:    cfg.DynamoDB.Region,
			AccessKey: cfg.DynamoDB.AccessKey,
			SecretKey: cfg.DynamoDB.SecretKey,
			Endpoint:  cfg.DynamoDB.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return dynamoBackend{dynamostore.New(client, cfg.DynamoDB.Table)}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// loadConfig loads the config file and applies the --driver and --db flags,
// which select the SQL backend.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Driver == "" && opts.Database == "" {
		return cfg, nil
	}
	cfg.Backend = config.BackendSQL
	if opts.Driver != "" {
		cfg.SQL.Driver = opts.Driver
	}
	if opts.Database != "" {
		cfg.SQL.DSN = opts.Database
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withBackend loads config, opens the store, runs fn and closes the store.
// Failures before fn runs are reported through f.
func withBackend(ctx context.Context, opts *RootOptions, f *OutputFormatter, fn func(Backend) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fail(f, ErrCodeConfig, ExitCommandError, err.Error(), nil, err)
	}

	open := opts.OpenBackend
	if open == nil {
		open = openBackend
	}
	backend, err := open(ctx, cfg)
	if err != nil {
		return fail(f, ErrCodeStore, ExitCommandError, fmt.Sprintf("failed to open %s store: %v", cfg.Backend, err), nil, err)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()
	return fn(backend)
}
