// Package memstore provides an in-memory graph store.
//
// It honors the same existence-gated write contract as the durable backends
// and is used for dry runs and tests. Error injection hooks let tests drive
// infrastructure failure paths.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/tracegraph/internal/ir"
)

// Store is an in-memory graph store safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	vertices map[string]ir.Vertex
	edges    map[string]ir.Edge
	imports  []ir.ImportRun
	writes   []string

	upsertError error
	existsError error
	queryError  error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		vertices: make(map[string]ir.Vertex),
		edges:    make(map[string]ir.Edge),
	}
}

// WithUpsertError makes every upsert return err.
func (s *Store) WithUpsertError(err error) *Store {
	s.upsertError = err
	return s
}

// WithExistsError makes ExistsVertex return err.
func (s *Store) WithExistsError(err error) *Store {
	s.existsError = err
	return s
}

// WithQueryError makes QueryTransactionsByFlow return err.
func (s *Store) WithQueryError(err error) *Store {
	s.queryError = err
	return s
}

// UpsertVertex inserts v unless a vertex with the same key exists.
func (s *Store) UpsertVertex(ctx context.Context, v ir.Vertex) (bool, error) {
	if s.upsertError != nil {
		return false, s.upsertError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes = append(s.writes, "vertex:"+v.Key)
	if _, ok := s.vertices[v.Key]; ok {
		return false, nil
	}
	s.vertices[v.Key] = v
	return true, nil
}

// UpsertEdge inserts e unless an edge with the same key exists.
func (s *Store) UpsertEdge(ctx context.Context, e ir.Edge) (bool, error) {
	if s.upsertError != nil {
		return false, s.upsertError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes = append(s.writes, "edge:"+e.Key)
	if _, ok := s.edges[e.Key]; ok {
		return false, nil
	}
	s.edges[e.Key] = e
	return true, nil
}

// ExistsVertex reports whether a vertex with key exists.
func (s *Store) ExistsVertex(ctx context.Context, key string) (bool, error) {
	if s.existsError != nil {
		return false, s.existsError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vertices[key]
	return ok, nil
}

// QueryTransactionsByFlow returns the keys of transactions with the given
// external id and flow, excluding excludeKey, in key order.
func (s *Store) QueryTransactionsByFlow(ctx context.Context, externalID string, flow ir.Flow, excludeKey string) ([]string, error) {
	if s.queryError != nil {
		return nil, s.queryError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key, v := range s.vertices {
		if v.Kind != ir.KindTransaction || key == excludeKey {
			continue
		}
		if v.ExternalID == externalID && v.Flow == flow {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// RecordImport appends an import log record.
func (s *Store) RecordImport(ctx context.Context, run ir.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imports = append(s.imports, run)
	return nil
}

// Vertex returns the vertex stored under key.
func (s *Store) Vertex(key string) (ir.Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vertices[key]
	return v, ok
}

// Edges returns every stored edge in key order.
func (s *Store) Edges() []ir.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ir.Edge, 0, len(s.edges))
	for _, k := range sortedKeys(s.edges) {
		out = append(out, s.edges[k])
	}
	return out
}

// Vertices returns every stored vertex in key order.
func (s *Store) Vertices() []ir.Vertex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ir.Vertex, 0, len(s.vertices))
	for _, k := range sortedKeys(s.vertices) {
		out = append(out, s.vertices[k])
	}
	return out
}

// Imports returns the recorded import runs.
func (s *Store) Imports() []ir.ImportRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.imports)
}

// Writes returns every upsert attempt as "vertex:<key>" or "edge:<key>", in
// call order, including the ones that were no-ops.
func (s *Store) Writes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.writes)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
