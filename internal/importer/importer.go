package importer

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/tracegraph/internal/assemble"
	"github.com/roach88/tracegraph/internal/correlate"
	"github.com/roach88/tracegraph/internal/document"
	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/resolve"
)

// Store is the graph store an import reads from and writes to.
type Store interface {
	correlate.Store
	resolve.Prober
}

// RunRecorder is implemented by stores that keep an import log.
type RunRecorder interface {
	RecordImport(ctx context.Context, run ir.ImportRun) error
}

// Option configures an Importer.
type Option func(*Importer)

// WithRunIDGenerator sets the generator of import run ids.
// Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(im *Importer) {
		im.runIDs = g
	}
}

// WithTracerProvider sets where import spans go. Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(im *Importer) {
		im.tracer = tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(ir.ImporterVersion))
	}
}

// WithMeterProvider sets where import counters go. Default: the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(im *Importer) {
		im.meter = mp.Meter(instrumentationName, metric.WithInstrumentationVersion(ir.ImporterVersion))
	}
}

// Importer imports documents into one store.
type Importer struct {
	store  Store
	runIDs RunIDGenerator
	tracer trace.Tracer
	meter  metric.Meter
	ins    *instruments
}

// New creates an Importer writing to store.
func New(store Store, opts ...Option) (*Importer, error) {
	im := &Importer{
		store:  store,
		runIDs: UUIDv7Generator{},
		tracer: otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(ir.ImporterVersion)),
		meter:  otel.Meter(instrumentationName, metric.WithInstrumentationVersion(ir.ImporterVersion)),
	}
	for _, opt := range opts {
		opt(im)
	}

	ins, err := newInstruments(im.meter)
	if err != nil {
		return nil, err
	}
	im.ins = ins
	return im, nil
}

// Summary describes what pass one planned, without writing anything.
type Summary struct {
	Provider string         `json:"provider"`
	Shape    document.Shape `json:"shape"`
	Vertices int            `json:"vertices"`
	Edges    int            `json:"edges"`
	Batches  int            `json:"batches"`
	Probes   int            `json:"store_probes"`
}

// Validate runs pass one only. It returns the first StructuralError or
// ReferentialError, or a summary of the writes an import would plan.
func (im *Importer) Validate(ctx context.Context, doc any) (*Summary, error) {
	w, err := im.walk(ctx, doc)
	if err != nil {
		return nil, err
	}
	return w.summary(), nil
}

// Import runs both passes and returns the import report.
func (im *Importer) Import(ctx context.Context, doc any) (*Report, error) {
	w, err := im.walk(ctx, doc)
	if err != nil {
		return nil, err
	}

	digest, err := ir.DocumentDigest(doc)
	if err != nil {
		return nil, fmt.Errorf("digest document: %w", err)
	}

	stats, err := im.commit(ctx, w)
	if err != nil {
		return nil, err
	}

	conn, err := im.correlate(ctx, w)
	if err != nil {
		return nil, err
	}
	stats.Add(conn.Stats)

	run := ir.ImportRun{
		ID:               im.runIDs.Generate(),
		Provider:         w.provider,
		Shape:            string(w.shape),
		DocumentDigest:   digest,
		VerticesInserted: stats.VerticesInserted,
		VerticesSkipped:  stats.VerticesSkipped,
		EdgesInserted:    stats.EdgesInserted,
		EdgesSkipped:     stats.EdgesSkipped,
		Connections:      conn.Pairs,
	}
	if rec, ok := im.store.(RunRecorder); ok {
		if err := rec.RecordImport(ctx, run); err != nil {
			return nil, fmt.Errorf("record import %s: %w", run.ID, err)
		}
	}
	im.ins.record(ctx, w.provider, stats)

	slog.Info("import complete",
		"run", run.ID,
		"provider", run.Provider,
		"shape", run.Shape,
		"vertices_inserted", stats.VerticesInserted,
		"edges_inserted", stats.EdgesInserted,
		"connections", conn.Pairs,
	)
	return w.report(run, stats), nil
}

// walk is pass one.
func (im *Importer) walk(ctx context.Context, doc any) (*walker, error) {
	ctx, span := im.tracer.Start(ctx, "walk")
	defer span.End()

	shape, root, err := document.DetectShape(doc)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("tracegraph.shape", string(shape)))

	var w *walker
	switch shape {
	case document.ShapeV15:
		w, err = walkV15(ctx, im.store, root)
	case document.ShapeLegacy:
		w, err = walkLegacy(ctx, im.store, root)
	default:
		err = fmt.Errorf("no walker for shape %q", shape)
	}
	if err != nil {
		return nil, fail(span, err)
	}

	span.SetAttributes(
		attribute.String("tracegraph.provider", w.provider),
		attribute.Int("tracegraph.vertices", len(w.plan.Vertices())),
		attribute.Int("tracegraph.edges", len(w.plan.Edges())),
	)
	slog.Debug("document walked",
		"provider", w.provider,
		"shape", shape,
		"vertices", len(w.plan.Vertices()),
		"edges", len(w.plan.Edges()),
		"probes", w.res.Probes(),
	)
	return w, nil
}

func (im *Importer) commit(ctx context.Context, w *walker) (assemble.Stats, error) {
	ctx, span := im.tracer.Start(ctx, "commit")
	defer span.End()

	stats, err := w.plan.Commit(ctx, im.store)
	if err != nil {
		return stats, fail(span, err)
	}
	span.SetAttributes(
		attribute.Int("tracegraph.vertices_inserted", stats.VerticesInserted),
		attribute.Int("tracegraph.edges_inserted", stats.EdgesInserted),
	)
	return stats, nil
}

func (im *Importer) correlate(ctx context.Context, w *walker) (correlate.Result, error) {
	ctx, span := im.tracer.Start(ctx, "correlate")
	defer span.End()

	var txs []ir.Vertex
	for _, v := range w.plan.Vertices() {
		if v.Kind == ir.KindTransaction {
			txs = append(txs, v)
		}
	}

	res, err := correlate.Correlate(ctx, im.store, w.provider, txs)
	if err != nil {
		return res, fail(span, err)
	}
	span.SetAttributes(attribute.Int("tracegraph.connections", res.Pairs))
	return res, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
