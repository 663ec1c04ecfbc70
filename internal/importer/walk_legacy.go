package importer

import (
	"context"

	"github.com/roach88/tracegraph/internal/document"
	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/registry"
)

// TransferEvent identifies a transaction planned from a legacy
// TransferEvent.
type TransferEvent struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// walkLegacy plans an OrigintrailExport document.
func walkLegacy(ctx context.Context, store Store, root document.Node) (*walker, error) {
	if err := document.Legacy.Check(document.RootLegacy, root); err != nil {
		return nil, err
	}

	p := root.Get("Provider")
	w, err := newWalker(ctx, store, document.ShapeLegacy, p.Get("uid"))
	if err != nil {
		return nil, err
	}
	if err := w.declareProvider(p.Get("uid"), map[string]any{"uid": w.provider}, p.Get("data").Value()); err != nil {
		return nil, err
	}

	entities := root.Lookup("MasterData.EntitiesList")
	if err := document.Legacy.Check("EntitiesList", entities); err != nil {
		return nil, err
	}
	if err := w.legacyPartners(entities.Get("Partners")); err != nil {
		return nil, err
	}
	if err := w.legacyLocations(entities.Get("Locations")); err != nil {
		return nil, err
	}
	if err := w.legacyProducts(entities.Get("Products")); err != nil {
		return nil, err
	}

	events := root.Lookup("EventsData.EventsList")
	if err := document.Legacy.Check("EventsList", events); err != nil {
		return nil, err
	}
	for _, e := range events.Get("TransformationEvent").Items() {
		if err := w.legacyTransformation(e); err != nil {
			return nil, err
		}
	}
	for _, e := range events.Get("TransferEvent").Items() {
		if err := w.legacyTransfer(e); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *walker) legacyPartners(partners document.Node) error {
	items, err := list(document.Legacy, "Partners", "Partner", partners)
	if err != nil {
		return err
	}
	for _, p := range items {
		if err := document.Legacy.Check("Partner", p); err != nil {
			return err
		}
		if _, err := w.declare(ir.KindParticipant, p.Get("uid"), registry.Attrs{
			Path:        p.Path(),
			Identifiers: map[string]any{"uid": p.Get("uid").String()},
			Payload:     p.Get("data").Value(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) legacyLocations(locations document.Node) error {
	items, err := list(document.Legacy, "Locations", "BusinessLocation", locations)
	if err != nil {
		return err
	}
	for _, l := range items {
		if err := document.Legacy.Check("BusinessLocation", l); err != nil {
			return err
		}
		owner, err := w.ref(ir.KindParticipant, l.Get("ownerId"))
		if err != nil {
			return err
		}
		rec, err := w.declare(ir.KindLocation, l.Get("uid"), registry.Attrs{
			Path:        l.Path(),
			Identifiers: map[string]any{"uid": l.Get("uid").String()},
			Payload:     l.Get("data").Value(),
			Parent:      owner.URI,
		})
		if err != nil {
			return err
		}
		if err := w.connect(ir.RelOwnedBy, rec.Ref(), owner); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) legacyProducts(products document.Node) error {
	items, err := list(document.Legacy, "Products", "Product", products)
	if err != nil {
		return err
	}
	for _, p := range items {
		if err := document.Legacy.Check("Product", p); err != nil {
			return err
		}
		product, err := w.declare(ir.KindObject, p.Get("uid"), registry.Attrs{
			Path:        p.Path(),
			Identifiers: p.Get("allIdentifiers").Object(),
			Payload:     p.Get("data").Value(),
		})
		if err != nil {
			return err
		}

		for _, b := range p.Get("ProductBatch").Items() {
			if err := document.Legacy.Check("ProductBatch", b); err != nil {
				return err
			}
			batch, err := w.declare(ir.KindBatch, b.Get("uid"), registry.Attrs{
				Path: b.Path(),
				Identifiers: map[string]any{
					"uid":       b.Get("uid").String(),
					"productId": product.LocalID,
				},
				Payload: b.Get("data").Value(),
				Parent:  product.URI,
			})
			if err != nil {
				return err
			}
			if err := w.connect(ir.RelInstanceOf, batch.Ref(), product.Ref()); err != nil {
				return err
			}
		}
	}
	return nil
}

// legacyEvent declares the transaction of a legacy event and places it at
// its business location.
func (w *walker) legacyEvent(e document.Node, typ string) (*registry.Record, error) {
	if err := document.Legacy.Check(typ, e); err != nil {
		return nil, err
	}
	loc, err := w.ref(ir.KindLocation, e.Get("businessLocationId"))
	if err != nil {
		return nil, err
	}
	tx, err := w.declareTransaction(e.Get("eventId"), registry.Attrs{
		Path:            e.Path(),
		Identifiers:     map[string]any{"eventId": e.Get("eventId").String()},
		Payload:         e.Value(),
		TransactionType: typ,
	})
	if err != nil {
		return nil, err
	}
	if err := w.connect(ir.RelAt, tx.Ref(), loc); err != nil {
		return nil, err
	}
	return tx, nil
}

func (w *walker) legacyTransformation(e document.Node) error {
	tx, err := w.legacyEvent(e, ir.TransactionTransformation)
	if err != nil {
		return err
	}
	for _, in := range e.Get("inputProduct").Items() {
		batch, err := w.legacyProductRef(tx.LocalID, registry.RoleInput, in)
		if err != nil {
			return err
		}
		if err := w.connect(ir.RelInputBatch, tx.Ref(), batch); err != nil {
			return err
		}
	}
	for _, out := range e.Get("outputProduct").Items() {
		batch, err := w.legacyProductRef(tx.LocalID, registry.RoleOutput, out)
		if err != nil {
			return err
		}
		if err := w.connect(ir.RelOutputBatch, batch, tx.Ref()); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) legacyTransfer(e document.Node) error {
	tx, err := w.legacyEvent(e, ir.TransactionTransfer)
	if err != nil {
		return err
	}
	from, err := w.ref(ir.KindLocation, e.Get("sourceBusinessLocationId"))
	if err != nil {
		return err
	}
	to, err := w.ref(ir.KindLocation, e.Get("destBusinessLocationId"))
	if err != nil {
		return err
	}
	if err := w.connect(ir.RelFrom, tx.Ref(), from); err != nil {
		return err
	}
	if err := w.connect(ir.RelTo, tx.Ref(), to); err != nil {
		return err
	}

	batch, err := w.legacyProductRef(tx.LocalID, registry.RoleTransfer, e.Get("Product"))
	if err != nil {
		return err
	}
	if err := w.connect(ir.RelOfBatch, tx.Ref(), batch); err != nil {
		return err
	}
	if err := w.connect(ir.RelOfBatch, batch, tx.Ref()); err != nil {
		return err
	}

	w.transfers = append(w.transfers, TransferEvent{ID: tx.LocalID, Key: tx.Key})
	return nil
}

// legacyProductRef resolves a {productId, productBatchId} reference. A
// reference without a batch id stands for an unnamed batch of the product.
func (w *walker) legacyProductRef(txID string, role registry.Role, n document.Node) (ir.Ref, error) {
	if err := document.Legacy.Check("ProductRef", n); err != nil {
		return ir.Ref{}, err
	}
	product, err := w.ref(ir.KindObject, n.Get("productId"))
	if err != nil {
		return ir.Ref{}, err
	}
	if id := n.Get("productBatchId"); id.Exists() {
		return w.batchOf(id, product)
	}
	return w.placeholder(txID, role, product, n.Path())
}
