package importer

import (
	"context"

	"github.com/roach88/tracegraph/internal/document"
	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/registry"
)

// walkV15 plans an OriginTrailExport document. Sections are walked in
// dependency order (participants, locations, objects, batches,
// transactions, events) so references always point backwards.
func walkV15(ctx context.Context, store Store, root document.Node) (*walker, error) {
	if err := document.V15.Check(document.RootV15, root); err != nil {
		return nil, err
	}

	dp := root.Get("DataProvider")
	w, err := newWalker(ctx, store, document.ShapeV15, dp.Get("ParticipantId"))
	if err != nil {
		return nil, err
	}
	if err := w.declareProvider(dp.Get("ParticipantId"), dp.Object(), nil); err != nil {
		return nil, err
	}

	master := root.Get("MasterData")
	steps := []func(document.Node) error{
		w.v15Participants,
		w.v15Locations,
		w.v15Objects,
		w.v15Batches,
	}
	for _, step := range steps {
		if err := step(master); err != nil {
			return nil, err
		}
	}

	txData := root.Get("TransactionData")
	if err := w.v15InternalTransactions(txData); err != nil {
		return nil, err
	}
	if err := w.v15ExternalTransactions(txData); err != nil {
		return nil, err
	}
	if err := w.v15Events(root.Lookup("VisibilityEventData.VisibilityEventsList")); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *walker) v15Participants(master document.Node) error {
	items, err := list(document.V15, "ParticipantsList", "Participant", master.Get("ParticipantsList"))
	if err != nil {
		return err
	}
	for _, p := range items {
		if err := document.V15.Check("Participant", p); err != nil {
			return err
		}
		ids := p.Get("ParticipantIdentifiers")
		if _, err := w.declare(ir.KindParticipant, ids.Get("ParticipantId"), registry.Attrs{
			Path:        p.Path(),
			Identifiers: ids.Object(),
			Payload:     p.Get("ParticipantData").Value(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) v15Locations(master document.Node) error {
	items, err := list(document.V15, "BusinessLocationsList", "BusinessLocation", master.Get("BusinessLocationsList"))
	if err != nil {
		return err
	}
	for _, l := range items {
		if err := document.V15.Check("BusinessLocation", l); err != nil {
			return err
		}
		owner, err := w.ref(ir.KindParticipant, l.Get("BusinessLocationOwnerId"))
		if err != nil {
			return err
		}
		ids := l.Get("BusinessLocationIdentifiers")
		rec, err := w.declare(ir.KindLocation, ids.Get("BusinessLocationId"), registry.Attrs{
			Path:        l.Path(),
			Identifiers: ids.Object(),
			Payload:     l.Get("BusinessLocationData").Value(),
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

func (w *walker) v15Objects(master document.Node) error {
	items, err := list(document.V15, "ObjectsList", "Object", master.Get("ObjectsList"))
	if err != nil {
		return err
	}
	for _, o := range items {
		if err := document.V15.Check("Object", o); err != nil {
			return err
		}
		ids := o.Get("ObjectIdentifiers")
		if _, err := w.declare(ir.KindObject, ids.Get("ObjectId"), registry.Attrs{
			Path:        o.Path(),
			Identifiers: ids.Object(),
			Payload:     o.Get("ObjectData").Value(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) v15Batches(master document.Node) error {
	items, err := list(document.V15, "BatchesList", "Batch", master.Get("BatchesList"))
	if err != nil {
		return err
	}
	for _, b := range items {
		if err := document.V15.Check("Batch", b); err != nil {
			return err
		}
		ids := b.Get("BatchIdentifiers")
		object, err := w.ref(ir.KindObject, ids.Get("ObjectId"))
		if err != nil {
			return err
		}
		rec, err := w.declare(ir.KindBatch, ids.Get("BatchId"), registry.Attrs{
			Path:        b.Path(),
			Identifiers: ids.Object(),
			Payload:     b.Get("BatchData").Value(),
			Parent:      object.URI,
		})
		if err != nil {
			return err
		}
		if err := w.connect(ir.RelInstanceOf, rec.Ref(), object); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) v15InternalTransactions(txData document.Node) error {
	items, err := list(document.V15, "InternalTransactionsList", "InternalTransaction", txData.Get("InternalTransactionsList"))
	if err != nil {
		return err
	}
	for _, t := range items {
		if err := document.V15.Check("InternalTransaction", t); err != nil {
			return err
		}
		ids := t.Get("InternalTransactionIdentifiers")
		id := ids.Get("InternalTransactionId")
		data := t.Get("InternalTransactionData")

		loc, err := w.ref(ir.KindLocation, data.Get("BusinessLocationId"))
		if err != nil {
			return err
		}
		tx, err := w.declareTransaction(id, registry.Attrs{
			Path:            t.Path(),
			Identifiers:     ids.Object(),
			Payload:         data.Value(),
			TransactionType: ir.TransactionInternal,
		})
		if err != nil {
			return err
		}
		if err := w.connect(ir.RelAt, tx.Ref(), loc); err != nil {
			return err
		}

		info := t.Get("TransactionBatchesInformation")
		inputs, err := list(document.V15, "TransactionBatchesList", "TransactionBatch", info.Get("InputBatchesList"))
		if err != nil {
			return err
		}
		for _, in := range inputs {
			batch, err := w.v15TransactionBatch(tx.LocalID, registry.RoleInput, in)
			if err != nil {
				return err
			}
			if err := w.connect(ir.RelInputBatch, tx.Ref(), batch); err != nil {
				return err
			}
		}

		outputs, err := list(document.V15, "TransactionBatchesList", "TransactionBatch", info.Get("OutputBatchesList"))
		if err != nil {
			return err
		}
		for _, out := range outputs {
			batch, err := w.v15TransactionBatch(tx.LocalID, registry.RoleOutput, out)
			if err != nil {
				return err
			}
			if err := w.connect(ir.RelOutputBatch, batch, tx.Ref()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) v15ExternalTransactions(txData document.Node) error {
	items, err := list(document.V15, "ExternalTransactionsList", "ExternalTransaction", txData.Get("ExternalTransactionsList"))
	if err != nil {
		return err
	}
	for _, t := range items {
		if err := document.V15.Check("ExternalTransaction", t); err != nil {
			return err
		}
		ids := t.Get("ExternalTransactionIdentifiers")
		id := ids.Get("ExternalTransactionId")
		data := t.Get("ExternalTransactionData")

		flow, ok := ir.ParseFlow(data.Get("TransactionFlow").String())
		if !ok {
			return ir.NewInvalid(data.Get("TransactionFlow").Path(), "flow must be Input or Output")
		}

		var at, from, to ir.Ref
		for _, r := range []struct {
			ref  *ir.Ref
			node string
		}{
			{&at, "BusinessLocationId"},
			{&from, "SourceBusinessLocationId"},
			{&to, "DestinationBusinessLocationId"},
		} {
			if *r.ref, err = w.ref(ir.KindLocation, data.Get(r.node)); err != nil {
				return err
			}
		}

		tx, err := w.declareTransaction(id, registry.Attrs{
			Path:            t.Path(),
			Identifiers:     ids.Object(),
			Payload:         data.Value(),
			TransactionType: ir.TransactionExternal,
			Flow:            flow,
			ExternalID:      ir.NormalizeID(id.String()),
		})
		if err != nil {
			return err
		}
		for _, e := range []struct {
			rel ir.Relation
			loc ir.Ref
		}{
			{ir.RelAt, at},
			{ir.RelFrom, from},
			{ir.RelTo, to},
		} {
			if err := w.connect(e.rel, tx.Ref(), e.loc); err != nil {
				return err
			}
		}

		batches, err := list(document.V15, "TransactionBatchesList", "TransactionBatch",
			t.Lookup("TransactionBatchesInformation.TransactionBatchesList"))
		if err != nil {
			return err
		}
		for _, b := range batches {
			batch, err := w.v15TransactionBatch(tx.LocalID, registry.RoleTransfer, b)
			if err != nil {
				return err
			}
			if err := w.connect(ir.RelOfBatch, tx.Ref(), batch); err != nil {
				return err
			}
			if err := w.connect(ir.RelOfBatch, batch, tx.Ref()); err != nil {
				return err
			}
		}
	}
	return nil
}

// v15TransactionBatch resolves a TransactionBatch entry. An entry naming
// only an ObjectId stands for an unnamed batch of that object.
func (w *walker) v15TransactionBatch(txID string, role registry.Role, n document.Node) (ir.Ref, error) {
	if err := document.V15.Check("TransactionBatch", n); err != nil {
		return ir.Ref{}, err
	}
	if id := n.Get("TransactionBatchId"); id.Exists() {
		return w.ref(ir.KindBatch, id)
	}
	obj := n.Get("ObjectId")
	if !obj.Exists() {
		return ir.Ref{}, ir.NewMissing(n.Get("TransactionBatchId").Path())
	}
	product, err := w.ref(ir.KindObject, obj)
	if err != nil {
		return ir.Ref{}, err
	}
	return w.placeholder(txID, role, product, n.Path())
}

func (w *walker) v15Events(events document.Node) error {
	items, err := list(document.V15, "VisibilityEventsList", "Event", events)
	if err != nil {
		return err
	}
	for _, e := range items {
		if err := document.V15.Check("Event", e); err != nil {
			return err
		}
		ids := e.Get("EventIdentifiers")
		data := e.Get("EventData")

		batch, err := w.ref(ir.KindBatch, ids.Get("BatchId"))
		if err != nil {
			return err
		}
		ev, err := w.declare(ir.KindEvent, ids.Get("EventId"), registry.Attrs{
			Path:        e.Path(),
			Identifiers: ids.Object(),
			Payload:     data.Value(),
			Parent:      batch.URI,
		})
		if err != nil {
			return err
		}
		if err := w.connect(ir.RelTracedBy, batch, ev.Ref()); err != nil {
			return err
		}

		if locID := data.Get("BusinessLocationId"); locID.Exists() {
			loc, err := w.ref(ir.KindLocation, locID)
			if err != nil {
				return err
			}
			if err := w.connect(ir.RelAt, ev.Ref(), loc); err != nil {
				return err
			}
		}
	}
	return nil
}
