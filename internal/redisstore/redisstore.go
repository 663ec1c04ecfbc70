// Package redisstore keeps the trace graph in Redis.
//
// Vertices and edges are msgpack records under {prefix}v:{key} and
// {prefix}e:{key}, written with SETNX so an existing record is never
// replaced. External transactions are indexed in the set
// {prefix}txflow:{external id}:{flow}. The import log is the list
// {prefix}imports of run ids, each run stored under {prefix}import:{id}.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/tracegraph/internal/ir"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "tracegraph:"

// Options configures the Redis connection.
type Options struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0")
	URL string

	// Prefix is prepended to every key. Default: DefaultPrefix.
	Prefix string

	// ConnectTimeout bounds the initial ping. Default: 5s.
	ConnectTimeout time.Duration
}

// Store is a graph store on Redis.
type Store struct {
	client *redis.Client
	prefix string
}

// Open connects to Redis and pings it.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return New(client, opts.Prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// vertexRecord is the stored form of a vertex. Identifiers and payload are
// canonical JSON so numbers keep their source text.
type vertexRecord struct {
	Kind            string `msgpack:"vertex_type"`
	URI             string `msgpack:"uid"`
	Provider        string `msgpack:"data_provider"`
	Identifiers     string `msgpack:"identifiers"`
	Data            string `msgpack:"data,omitempty"`
	TransactionType string `msgpack:"transaction_type,omitempty"`
	Flow            string `msgpack:"transaction_flow,omitempty"`
	ExternalID      string `msgpack:"external_id,omitempty"`
	Dummy           bool   `msgpack:"dummy,omitempty"`
}

type edgeRecord struct {
	Relation string `msgpack:"edge_type"`
	From     string `msgpack:"from"`
	To       string `msgpack:"to"`
	Provider string `msgpack:"data_provider"`
	Flow     string `msgpack:"transaction_flow,omitempty"`
}

func (s *Store) vertexKey(key string) string { return s.prefix + "v:" + key }
func (s *Store) edgeKey(key string) string   { return s.prefix + "e:" + key }
func (s *Store) importKey(id string) string  { return s.prefix + "import:" + id }
func (s *Store) importsKey() string          { return s.prefix + "imports" }

func (s *Store) flowKey(externalID string, flow ir.Flow) string {
	return s.prefix + "txflow:" + externalID + ":" + string(flow)
}

// UpsertVertex inserts v unless a vertex with the same key exists.
func (s *Store) UpsertVertex(ctx context.Context, v ir.Vertex) (bool, error) {
	rec, err := toVertexRecord(v)
	if err != nil {
		return false, fmt.Errorf("write vertex: %w", err)
	}
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("write vertex: encode: %w", err)
	}

	inserted, err := s.client.SetNX(ctx, s.vertexKey(v.Key), data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("write vertex: %w", err)
	}
	// SADD is idempotent, so the index is repaired on every write.
	if v.Kind == ir.KindTransaction && v.Flow != "" && v.ExternalID != "" {
		if err := s.client.SAdd(ctx, s.flowKey(v.ExternalID, v.Flow), v.Key).Err(); err != nil {
			return false, fmt.Errorf("index transaction: %w", err)
		}
	}
	return inserted, nil
}

// UpsertEdge inserts e unless an edge with the same key exists.
func (s *Store) UpsertEdge(ctx context.Context, e ir.Edge) (bool, error) {
	data, err := msgpack.Marshal(edgeRecord{
		Relation: string(e.Relation),
		From:     e.From,
		To:       e.To,
		Provider: e.Provider,
		Flow:     string(e.Flow),
	})
	if err != nil {
		return false, fmt.Errorf("write edge: encode: %w", err)
	}
	inserted, err := s.client.SetNX(ctx, s.edgeKey(e.Key), data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("write edge: %w", err)
	}
	return inserted, nil
}

// ExistsVertex reports whether a vertex with key exists.
func (s *Store) ExistsVertex(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.vertexKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("probe vertex: %w", err)
	}
	return n > 0, nil
}

// QueryTransactionsByFlow returns the keys of transactions with the given
// external id and flow, excluding excludeKey, in key order.
func (s *Store) QueryTransactionsByFlow(ctx context.Context, externalID string, flow ir.Flow, excludeKey string) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.flowKey(externalID, flow)).Result()
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	keys := slices.DeleteFunc(members, func(k string) bool { return k == excludeKey })
	slices.Sort(keys)
	return keys, nil
}

// ReadVertex returns the vertex stored under key.
// Returns redis.Nil (wrapped) if it does not exist.
func (s *Store) ReadVertex(ctx context.Context, key string) (ir.Vertex, error) {
	data, err := s.client.Get(ctx, s.vertexKey(key)).Bytes()
	if err != nil {
		return ir.Vertex{}, fmt.Errorf("read vertex %s: %w", key, err)
	}
	var rec vertexRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return ir.Vertex{}, fmt.Errorf("read vertex %s: decode: %w", key, err)
	}
	v, err := rec.vertex(key)
	if err != nil {
		return ir.Vertex{}, fmt.Errorf("read vertex %s: %w", key, err)
	}
	return v, nil
}

// RecordImport stores a run and appends it to the import log.
func (s *Store) RecordImport(ctx context.Context, run ir.ImportRun) error {
	data, err := msgpack.Marshal(run)
	if err != nil {
		return fmt.Errorf("write import: encode: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.importKey(run.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("write import: %w", err)
	}
	if !ok {
		return fmt.Errorf("write import: run %s already recorded", run.ID)
	}
	if err := s.client.RPush(ctx, s.importsKey(), run.ID).Err(); err != nil {
		return fmt.Errorf("write import: %w", err)
	}
	return nil
}

// ListImports returns the import log in insertion order.
func (s *Store) ListImports(ctx context.Context) ([]ir.ImportRun, error) {
	ids, err := s.client.LRange(ctx, s.importsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	runs := make([]ir.ImportRun, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, s.importKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read import %s: %w", id, err)
		}
		var run ir.ImportRun
		if err := msgpack.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("read import %s: decode: %w", id, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
