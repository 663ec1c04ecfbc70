// Package resolve is the referential-integrity gate of an import: every
// foreign identifier in a document must name an entity declared in the same
// document or already present in the graph store.
package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/registry"
)

// Prober reports whether a vertex key exists in the graph store.
type Prober interface {
	ExistsVertex(ctx context.Context, key string) (bool, error)
}

// Resolver resolves foreign references for one run.
// Store probe results are memoized, so each key is probed at most once.
type Resolver struct {
	reg    *registry.Registry
	store  Prober
	probed map[string]bool
	probes int
}

// New creates a Resolver over the run's registry and the store.
func New(reg *registry.Registry, store Prober) *Resolver {
	return &Resolver{
		reg:    reg,
		store:  store,
		probed: make(map[string]bool),
	}
}

// Resolve canonicalizes raw and finds the vertex it addresses.
//
// Lookup order: registry by local id, registry by URI, store existence
// probe. When none succeeds the result is a ReferentialError naming kind,
// raw id and referrer. An empty raw id is a StructuralError at referrer.
// Store failures are returned wrapped and are fatal.
func (r *Resolver) Resolve(ctx context.Context, kind ir.Kind, raw, referrer string) (ir.Ref, error) {
	id, uri, err := r.reg.Canonicalizer().Parse(kind, raw, referrer)
	if err != nil {
		return ir.Ref{}, err
	}

	if rec, ok := r.reg.Lookup(kind, id.String()); ok {
		return rec.Ref(), nil
	}
	if rec, ok := r.reg.LookupURI(kind, uri); ok {
		return rec.Ref(), nil
	}

	key := ir.VertexKey(kind, uri)
	exists, err := r.probe(ctx, key)
	if err != nil {
		return ir.Ref{}, fmt.Errorf("resolve %s %s: %w", kind, id, err)
	}
	if !exists {
		return ir.Ref{}, &ir.ReferentialError{
			Kind:     kind,
			ID:       id.String(),
			URI:      uri,
			Referrer: referrer,
		}
	}

	slog.Debug("reference resolved from store", "kind", kind, "uri", uri)
	return ir.Ref{Kind: kind, URI: uri, Key: key, Persisted: true}, nil
}

func (r *Resolver) probe(ctx context.Context, key string) (bool, error) {
	if exists, ok := r.probed[key]; ok {
		return exists, nil
	}
	exists, err := r.store.ExistsVertex(ctx, key)
	if err != nil {
		return false, err
	}
	r.probes++
	r.probed[key] = exists
	return exists, nil
}

// Probes returns how many store existence probes this run issued.
func (r *Resolver) Probes() int {
	return r.probes
}
