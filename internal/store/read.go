package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
)

// ExistsVertex reports whether a vertex with key exists.
func (s *Store) ExistsVertex(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.q.existsVertex, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe vertex: %w", err)
	}
	return true, nil
}

// QueryTransactionsByFlow returns the keys of transactions with the given
// external id and flow, excluding excludeKey, in key order.
func (s *Store) QueryTransactionsByFlow(ctx context.Context, externalID string, flow ir.Flow, excludeKey string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q.txByFlow,
		string(ir.KindTransaction), externalID, string(flow), excludeKey)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return keys, nil
}

// ReadVertex returns the vertex stored under key.
// Returns sql.ErrNoRows (wrapped) if it does not exist.
func (s *Store) ReadVertex(ctx context.Context, key string) (ir.Vertex, error) {
	var (
		v               ir.Vertex
		kind, uri, flow string
		ids             string
		data            sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.q.selectVertex, key).Scan(
		&v.Key, &kind, &uri, &v.Provider, &ids, &data,
		&v.TransactionType, &flow, &v.ExternalID, &v.Dummy,
	)
	if err != nil {
		return ir.Vertex{}, fmt.Errorf("read vertex %s: %w", key, err)
	}
	v.Kind = ir.Kind(kind)
	v.URI = ir.URI(uri)
	v.Flow = ir.Flow(flow)

	if v.Identifiers, err = unmarshalIdentifiers(ids); err != nil {
		return ir.Vertex{}, fmt.Errorf("read vertex %s: %w", key, err)
	}
	if v.Payload, err = unmarshalPayload(data); err != nil {
		return ir.Vertex{}, fmt.Errorf("read vertex %s: %w", key, err)
	}
	return v, nil
}

// ReadEdgesFrom returns the edges leaving the vertex with key, ordered by
// relation then edge key.
//
// Returns empty slice (not nil) if the vertex has no outgoing edges.
func (s *Store) ReadEdgesFrom(ctx context.Context, key string) ([]ir.Edge, error) {
	rows, err := s.db.QueryContext(ctx, s.q.selectEdges, key)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	edges := []ir.Edge{}
	for rows.Next() {
		var (
			e         ir.Edge
			rel, flow string
		)
		if err := rows.Scan(&e.Key, &rel, &e.From, &e.To, &e.Provider, &flow); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.Relation = ir.Relation(rel)
		e.Flow = ir.Flow(flow)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}

// ListImports returns the import log in insertion order.
func (s *Store) ListImports(ctx context.Context) ([]ir.ImportRun, error) {
	rows, err := s.db.QueryContext(ctx, s.q.listImports)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	runs := []ir.ImportRun{}
	for rows.Next() {
		var r ir.ImportRun
		if err := rows.Scan(
			&r.ID, &r.Provider, &r.Shape, &r.DocumentDigest,
			&r.VerticesInserted, &r.VerticesSkipped, &r.EdgesInserted, &r.EdgesSkipped, &r.Connections,
		); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}
	return runs, nil
}
