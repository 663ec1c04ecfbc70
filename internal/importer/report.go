package importer

import (
	"github.com/roach88/tracegraph/internal/assemble"
	"github.com/roach88/tracegraph/internal/ir"
)

// CompleteMessage is the message of every successful import report.
const CompleteMessage = "Data import complete!"

// Stats counts the writes of a whole import, correlation included.
type Stats struct {
	assemble.Stats

	// Connections is the number of transaction pairs the run matched,
	// whether or not their edges already existed. A reimport reports the
	// same pairs again with zero edges inserted.
	Connections int `json:"connections"`
}

// Report is the outcome of a successful import.
type Report struct {
	Message  string `json:"message"`
	RunID    string `json:"run_id"`
	Provider string `json:"provider"`
	Shape    string `json:"shape"`

	// Batches maps the URI of every batch the document declared or implied
	// to its vertex.
	Batches map[ir.URI]ir.Vertex `json:"batches"`

	// TransferEvents lists legacy transfer events in document order.
	TransferEvents []TransferEvent `json:"transferEvents,omitempty"`

	Stats Stats `json:"stats"`
}

func (w *walker) report(run ir.ImportRun, stats assemble.Stats) *Report {
	batches := make(map[ir.URI]ir.Vertex)
	for _, rec := range w.reg.Records(ir.KindBatch) {
		batches[rec.URI] = rec.Vertex(w.provider)
	}
	return &Report{
		Message:        CompleteMessage,
		RunID:          run.ID,
		Provider:       run.Provider,
		Shape:          run.Shape,
		Batches:        batches,
		TransferEvents: w.transfers,
		Stats: Stats{
			Stats:       stats,
			Connections: run.Connections,
		},
	}
}
