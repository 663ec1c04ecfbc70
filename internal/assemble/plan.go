// Package assemble turns resolved records into vertex and edge write
// requests and commits them through the existence-gated store contract.
//
// A Plan is built completely before anything is written. Commit then issues
// every vertex upsert before any edge upsert, so every edge endpoint is
// resolvable by the time the edge lands.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/registry"
)

var (
	// ErrDirection is returned when an edge's endpoint kinds do not match
	// its relation's fixed direction.
	ErrDirection = errors.New("edge direction does not match relation")

	// ErrDangling is returned when an edge endpoint is neither planned nor
	// verified in the store.
	ErrDangling = errors.New("edge endpoint is not resolvable")
)

// Writer is the existence-gated write contract of a graph store.
// Both methods return inserted=false when the key already exists.
type Writer interface {
	UpsertVertex(ctx context.Context, v ir.Vertex) (bool, error)
	UpsertEdge(ctx context.Context, e ir.Edge) (bool, error)
}

// Stats counts the outcome of a commit.
type Stats struct {
	VerticesInserted int `json:"vertices_inserted"`
	VerticesSkipped  int `json:"vertices_skipped"`
	EdgesInserted    int `json:"edges_inserted"`
	EdgesSkipped     int `json:"edges_skipped"`
}

// Add accumulates another commit's counts.
func (s *Stats) Add(o Stats) {
	s.VerticesInserted += o.VerticesInserted
	s.VerticesSkipped += o.VerticesSkipped
	s.EdgesInserted += o.EdgesInserted
	s.EdgesSkipped += o.EdgesSkipped
}

// Plan is an ordered, key-deduplicated set of writes.
type Plan struct {
	provider string

	vertices []ir.Vertex
	planned  map[string]ir.Kind
	edges    []ir.Edge
	edgeKeys map[string]struct{}
}

// NewPlan creates an empty plan; provider is stamped on every record.
func NewPlan(provider string) *Plan {
	return &Plan{
		provider: provider,
		planned:  make(map[string]ir.Kind),
		edgeKeys: make(map[string]struct{}),
	}
}

// AddVertex plans a vertex write. A vertex whose key is already planned is
// ignored. The key must be the one VertexKey derives from kind and URI.
func (p *Plan) AddVertex(v ir.Vertex) error {
	if !v.Kind.Valid() {
		return fmt.Errorf("add vertex %s: unknown kind %q", v.URI, v.Kind)
	}
	if want := ir.VertexKey(v.Kind, v.URI); v.Key != want {
		return fmt.Errorf("add vertex %s: key %s is not derived from kind and uri", v.URI, v.Key)
	}
	if _, ok := p.planned[v.Key]; ok {
		return nil
	}
	if v.Provider == "" {
		v.Provider = p.provider
	}
	p.planned[v.Key] = v.Kind
	p.vertices = append(p.vertices, v)
	return nil
}

// AddRecord plans the vertex of a registry record.
func (p *Plan) AddRecord(rec *registry.Record) error {
	return p.AddVertex(rec.Vertex(p.provider))
}

// Connect plans an edge from one resolved vertex to another.
func (p *Plan) Connect(rel ir.Relation, from, to ir.Ref) error {
	return p.connect(rel, from, to, "")
}

// ConnectTagged plans an edge that carries a transaction flow tag.
func (p *Plan) ConnectTagged(rel ir.Relation, from, to ir.Ref, flow ir.Flow) error {
	return p.connect(rel, from, to, flow)
}

func (p *Plan) connect(rel ir.Relation, from, to ir.Ref, flow ir.Flow) error {
	if !rel.Allows(from.Kind, to.Kind) {
		return fmt.Errorf("%s %s -> %s: %w", rel, from.Kind, to.Kind, ErrDirection)
	}
	for _, end := range []ir.Ref{from, to} {
		if err := p.checkEndpoint(end); err != nil {
			return fmt.Errorf("%s %s -> %s: %w", rel, from.URI, to.URI, err)
		}
	}

	e := ir.NewEdge(rel, from.Key, to.Key, p.provider)
	e.Flow = flow
	if _, ok := p.edgeKeys[e.Key]; ok {
		return nil
	}
	p.edgeKeys[e.Key] = struct{}{}
	p.edges = append(p.edges, e)
	return nil
}

func (p *Plan) checkEndpoint(ref ir.Ref) error {
	if ref.Persisted {
		return nil
	}
	kind, ok := p.planned[ref.Key]
	if !ok {
		return fmt.Errorf("%s %s: %w", ref.Kind, ref.URI, ErrDangling)
	}
	if kind != ref.Kind {
		return fmt.Errorf("%s %s planned as %s: %w", ref.Kind, ref.URI, kind, ErrDirection)
	}
	return nil
}

// Vertices returns planned vertices in plan order.
func (p *Plan) Vertices() []ir.Vertex {
	return p.vertices
}

// Edges returns planned edges in plan order.
func (p *Plan) Edges() []ir.Edge {
	return p.edges
}

// Commit writes every planned vertex, then every planned edge.
// The first store error aborts the commit; writes already issued stay.
func (p *Plan) Commit(ctx context.Context, w Writer) (Stats, error) {
	var stats Stats
	for _, v := range p.vertices {
		inserted, err := w.UpsertVertex(ctx, v)
		if err != nil {
			return stats, fmt.Errorf("commit vertex %s %s: %w", v.Kind, v.URI, err)
		}
		if inserted {
			stats.VerticesInserted++
		} else {
			stats.VerticesSkipped++
		}
	}
	for _, e := range p.edges {
		inserted, err := w.UpsertEdge(ctx, e)
		if err != nil {
			return stats, fmt.Errorf("commit edge %s %s: %w", e.Relation, e.Key, err)
		}
		if inserted {
			stats.EdgesInserted++
		} else {
			stats.EdgesSkipped++
		}
	}

	slog.Debug("plan committed",
		"provider", p.provider,
		"vertices_inserted", stats.VerticesInserted,
		"vertices_skipped", stats.VerticesSkipped,
		"edges_inserted", stats.EdgesInserted,
		"edges_skipped", stats.EdgesSkipped,
	)
	return stats, nil
}
