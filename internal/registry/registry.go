// Package registry holds the per-run mapping from document-local ids to
// resolved entity records.
//
// A Registry is created fresh for every import and dropped when the run ends.
// It never outlives a run: persistence lives only in the graph store.
package registry

import (
	"fmt"

	"github.com/roach88/tracegraph/internal/identity"
	"github.com/roach88/tracegraph/internal/ir"
)

// Attrs carries everything about an entity that is not its identity.
type Attrs struct {
	// Path is the document path of the declaring element, used in errors.
	Path string

	// Identifiers are the raw source identifiers, preserved verbatim.
	Identifiers map[string]any

	// Payload is the opaque domain data blob.
	Payload any

	// Parent binds the entity to another one: a batch to its object, a
	// location to its owner. Re-registering with a different parent is a
	// conflict.
	Parent ir.URI

	TransactionType string
	Flow            ir.Flow
	ExternalID      string
}

// Record is a registered entity.
type Record struct {
	Kind    ir.Kind
	LocalID string
	URI     ir.URI
	Key     string
	Dummy   bool
	Attrs
}

// Ref returns a reference to the record's vertex.
func (r *Record) Ref() ir.Ref {
	return ir.Ref{Kind: r.Kind, URI: r.URI, Key: r.Key}
}

// Vertex builds the vertex write request for the record.
func (r *Record) Vertex(provider string) ir.Vertex {
	return ir.Vertex{
		Key:             r.Key,
		Kind:            r.Kind,
		URI:             r.URI,
		Provider:        provider,
		Identifiers:     r.Identifiers,
		Payload:         r.Payload,
		TransactionType: r.TransactionType,
		Flow:            r.Flow,
		ExternalID:      r.ExternalID,
		Dummy:           r.Dummy,
	}
}

// Registry maps (kind, local id) and (kind, URI) to records.
type Registry struct {
	canon   *identity.Canonicalizer
	byLocal map[ir.Kind]map[string]*Record
	byURI   map[ir.Kind]map[ir.URI]*Record
	order   []*Record
}

// New creates an empty registry that canonicalizes with c.
func New(c *identity.Canonicalizer) *Registry {
	r := &Registry{
		canon:   c,
		byLocal: make(map[ir.Kind]map[string]*Record, len(ir.Kinds)),
		byURI:   make(map[ir.Kind]map[ir.URI]*Record, len(ir.Kinds)),
	}
	for _, k := range ir.Kinds {
		r.byLocal[k] = make(map[string]*Record)
		r.byURI[k] = make(map[ir.URI]*Record)
	}
	return r
}

// Canonicalizer returns the canonicalizer bound to this run.
func (r *Registry) Canonicalizer() *identity.Canonicalizer {
	return r.canon
}

// Register canonicalizes localID, derives the record key and stores the
// record.
//
// Registering the same local id again returns the first record when the
// identity and parent agree. A different URI or parent for the same local id
// is a StructuralError with ReasonConflict. A second local id that resolves
// to an already registered URI (for example participant shorthand) also
// returns the existing record.
func (r *Registry) Register(kind ir.Kind, localID string, attrs Attrs) (*Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("register: unknown kind %q", kind)
	}
	path := attrs.Path
	if path == "" {
		path = string(kind)
	}
	_, uri, err := r.canon.Parse(kind, localID, path)
	if err != nil {
		return nil, err
	}
	return r.store(kind, ir.NormalizeID(localID), uri, attrs, false)
}

func (r *Registry) store(kind ir.Kind, local string, uri ir.URI, attrs Attrs, dummy bool) (*Record, error) {
	if prev, ok := r.byLocal[kind][local]; ok {
		if err := conflict(prev, uri, attrs); err != nil {
			return nil, err
		}
		return prev, nil
	}
	if prev, ok := r.byURI[kind][uri]; ok {
		if err := conflict(prev, uri, attrs); err != nil {
			return nil, err
		}
		r.byLocal[kind][local] = prev
		return prev, nil
	}

	rec := &Record{
		Kind:    kind,
		LocalID: local,
		URI:     uri,
		Key:     ir.VertexKey(kind, uri),
		Dummy:   dummy,
		Attrs:   attrs,
	}
	r.byLocal[kind][local] = rec
	r.byURI[kind][uri] = rec
	r.order = append(r.order, rec)
	return rec, nil
}

func conflict(prev *Record, uri ir.URI, attrs Attrs) error {
	path := attrs.Path
	if path == "" {
		path = prev.Path
	}
	if prev.URI != uri {
		return &ir.StructuralError{
			Path:   path,
			Reason: ir.ReasonConflict,
			Detail: fmt.Sprintf("%s %s already registered as %s, now %s", prev.Kind, prev.LocalID, prev.URI, uri),
		}
	}
	if attrs.Parent != "" && prev.Parent != "" && attrs.Parent != prev.Parent {
		return &ir.StructuralError{
			Path:   path,
			Reason: ir.ReasonConflict,
			Detail: fmt.Sprintf("%s %s already bound to %s, now %s", prev.Kind, prev.LocalID, prev.Parent, attrs.Parent),
		}
	}
	return nil
}

// Lookup returns the record registered under a local id.
func (r *Registry) Lookup(kind ir.Kind, localID string) (*Record, bool) {
	rec, ok := r.byLocal[kind][ir.NormalizeID(localID)]
	return rec, ok
}

// LookupURI returns the record registered under a canonical URI.
func (r *Registry) LookupURI(kind ir.Kind, uri ir.URI) (*Record, bool) {
	rec, ok := r.byURI[kind][uri]
	return rec, ok
}

// Records returns every record of the given kind in registration order.
func (r *Registry) Records(kind ir.Kind) []*Record {
	var out []*Record
	for _, rec := range r.order {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every record in registration order.
func (r *Registry) All() []*Record {
	return append([]*Record(nil), r.order...)
}

// Len returns the number of distinct records.
func (r *Registry) Len() int {
	return len(r.order)
}
