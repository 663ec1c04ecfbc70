package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
)

// UpsertVertex inserts v unless a vertex with the same key exists.
// Returns inserted=false when the key was already present; the stored row
// is never modified.
func (s *Store) UpsertVertex(ctx context.Context, v ir.Vertex) (bool, error) {
	ids, err := marshalIdentifiers(v.Identifiers)
	if err != nil {
		return false, fmt.Errorf("write vertex: %w", err)
	}
	data, err := marshalPayload(v.Payload)
	if err != nil {
		return false, fmt.Errorf("write vertex: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.q.insertVertex,
		v.Key,
		string(v.Kind),
		string(v.URI),
		v.Provider,
		ids,
		data,
		v.TransactionType,
		string(v.Flow),
		v.ExternalID,
		v.Dummy,
	)
	if err != nil {
		return false, fmt.Errorf("write vertex: %w", err)
	}
	return inserted(result)
}

// UpsertEdge inserts e unless an edge with the same key exists.
func (s *Store) UpsertEdge(ctx context.Context, e ir.Edge) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.q.insertEdge,
		e.Key,
		string(e.Relation),
		e.From,
		e.To,
		e.Provider,
		string(e.Flow),
	)
	if err != nil {
		return false, fmt.Errorf("write edge: %w", err)
	}
	return inserted(result)
}

// RecordImport appends a run to the import log.
func (s *Store) RecordImport(ctx context.Context, run ir.ImportRun) error {
	_, err := s.db.ExecContext(ctx, s.q.insertImport,
		run.ID,
		run.Provider,
		run.Shape,
		run.DocumentDigest,
		run.VerticesInserted,
		run.VerticesSkipped,
		run.EdgesInserted,
		run.EdgesSkipped,
		run.Connections,
	)
	if err != nil {
		return fmt.Errorf("write import: %w", err)
	}
	return nil
}

func inserted(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
