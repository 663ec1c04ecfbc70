package importer

import (
	"context"
	"fmt"

	"github.com/roach88/tracegraph/internal/assemble"
	"github.com/roach88/tracegraph/internal/document"
	"github.com/roach88/tracegraph/internal/identity"
	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/registry"
	"github.com/roach88/tracegraph/internal/resolve"
)

// walker holds the state of pass one for a single document.
type walker struct {
	ctx      context.Context
	shape    document.Shape
	provider string

	reg  *registry.Registry
	res  *resolve.Resolver
	plan *assemble.Plan

	transfers []TransferEvent
}

func newWalker(ctx context.Context, store Store, shape document.Shape, provider document.Node) (*walker, error) {
	canon, err := identity.New(provider.String())
	if err != nil {
		return nil, ir.NewEmpty(provider.Path())
	}
	reg := registry.New(canon)
	return &walker{
		ctx:      ctx,
		shape:    shape,
		provider: canon.Provider(),
		reg:      reg,
		res:      resolve.New(reg, store),
		plan:     assemble.NewPlan(canon.Provider()),
	}, nil
}

// declare registers an entity of the document and plans its vertex.
func (w *walker) declare(kind ir.Kind, id document.Node, attrs registry.Attrs) (*registry.Record, error) {
	if attrs.Path == "" {
		attrs.Path = id.Path()
	}
	rec, err := w.reg.Register(kind, id.String(), attrs)
	if err != nil {
		return nil, err
	}
	if err := w.plan.AddRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// declareTransaction declares a transaction and refuses a second
// declaration of the same id with another transaction type.
func (w *walker) declareTransaction(id document.Node, attrs registry.Attrs) (*registry.Record, error) {
	rec, err := w.declare(ir.KindTransaction, id, attrs)
	if err != nil {
		return nil, err
	}
	if rec.TransactionType != attrs.TransactionType || rec.Flow != attrs.Flow {
		return nil, &ir.StructuralError{
			Path:   id.Path(),
			Reason: ir.ReasonConflict,
			Detail: fmt.Sprintf("transaction %s already declared as %s %s", rec.LocalID, rec.TransactionType, rec.Flow),
		}
	}
	return rec, nil
}

// ref resolves the identifier at n. The node path names the referrer.
func (w *walker) ref(kind ir.Kind, n document.Node) (ir.Ref, error) {
	if !n.Exists() {
		return ir.Ref{}, ir.NewMissing(n.Path())
	}
	return w.res.Resolve(w.ctx, kind, n.String(), n.Path())
}

func (w *walker) connect(rel ir.Relation, from, to ir.Ref) error {
	return w.plan.Connect(rel, from, to)
}

// batchOf resolves a batch reference and checks it belongs to product when
// the batch was declared in this document.
func (w *walker) batchOf(n document.Node, product ir.Ref) (ir.Ref, error) {
	batch, err := w.ref(ir.KindBatch, n)
	if err != nil {
		return ir.Ref{}, err
	}
	if rec, ok := w.reg.LookupURI(ir.KindBatch, batch.URI); ok && rec.Parent != product.URI {
		return ir.Ref{}, &ir.StructuralError{
			Path:   n.Path(),
			Reason: ir.ReasonConflict,
			Detail: fmt.Sprintf("batch %s is an instance of %s, not %s", rec.LocalID, rec.Parent, product.URI),
		}
	}
	return batch, nil
}

// placeholder plans the implicit batch of product moved by a transaction
// that names no batch.
func (w *walker) placeholder(txID string, role registry.Role, product ir.Ref, path string) (ir.Ref, error) {
	rec, err := w.reg.RegisterDummyBatch(txID, role, product, path)
	if err != nil {
		return ir.Ref{}, err
	}
	if err := w.plan.AddRecord(rec); err != nil {
		return ir.Ref{}, err
	}
	if err := w.connect(ir.RelInstanceOf, rec.Ref(), product); err != nil {
		return ir.Ref{}, err
	}
	return rec.Ref(), nil
}

// declareProvider plans the data provider's own participant vertex.
func (w *walker) declareProvider(id document.Node, identifiers map[string]any, payload any) error {
	_, err := w.declare(ir.KindParticipant, id, registry.Attrs{
		Identifiers: identifiers,
		Payload:     payload,
	})
	return err
}

// list checks a list wrapper element and returns its items. An absent
// optional list has no items.
func list(c document.Contract, element, item string, n document.Node) ([]document.Node, error) {
	if !n.Exists() {
		return nil, nil
	}
	if err := c.Check(element, n); err != nil {
		return nil, err
	}
	return n.Get(item).Items(), nil
}

func (w *walker) summary() *Summary {
	return &Summary{
		Provider: w.provider,
		Shape:    w.shape,
		Vertices: len(w.plan.Vertices()),
		Edges:    len(w.plan.Edges()),
		Batches:  len(w.reg.Records(ir.KindBatch)),
		Probes:   w.res.Probes(),
	}
}
