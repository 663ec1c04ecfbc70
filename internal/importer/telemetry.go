package importer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/roach88/tracegraph/internal/assemble"
)

const instrumentationName = "github.com/roach88/tracegraph/internal/importer"

// instruments are created once per Importer.
type instruments struct {
	vertices metric.Int64Counter
	edges    metric.Int64Counter
	imports  metric.Int64Counter
}

func newInstruments(m metric.Meter) (*instruments, error) {
	var (
		ins instruments
		err error
	)
	ins.vertices, err = m.Int64Counter("tracegraph.import.vertices",
		metric.WithDescription("Vertices written or found existing, by outcome"),
		metric.WithUnit("{vertex}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create vertices counter: %w", err)
	}
	ins.edges, err = m.Int64Counter("tracegraph.import.edges",
		metric.WithDescription("Edges written or found existing, by outcome"),
		metric.WithUnit("{edge}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create edges counter: %w", err)
	}
	ins.imports, err = m.Int64Counter("tracegraph.import.runs",
		metric.WithDescription("Completed import runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs counter: %w", err)
	}
	return &ins, nil
}

func (ins *instruments) record(ctx context.Context, provider string, s assemble.Stats) {
	p := attribute.String("provider", provider)
	inserted := metric.WithAttributes(p, attribute.String("outcome", "inserted"))
	skipped := metric.WithAttributes(p, attribute.String("outcome", "skipped"))

	ins.vertices.Add(ctx, int64(s.VerticesInserted), inserted)
	ins.vertices.Add(ctx, int64(s.VerticesSkipped), skipped)
	ins.edges.Add(ctx, int64(s.EdgesInserted), inserted)
	ins.edges.Add(ctx, int64(s.EdgesSkipped), skipped)
	ins.imports.Add(ctx, 1, metric.WithAttributes(p))
}
