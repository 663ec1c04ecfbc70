package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/roach88/tracegraph/internal/document"
	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/memstore"
	"github.com/roach88/tracegraph/internal/testutil"
)

func load(t *testing.T, src string) any {
	t.Helper()
	doc, err := document.Decode(document.FormatXML, "fixture.xml", []byte(src))
	require.NoError(t, err)
	return doc
}

func newImporter(t *testing.T, store Store, opts ...Option) *Importer {
	t.Helper()
	opts = append([]Option{WithRunIDGenerator(testutil.NewFixedRunIDGenerator(""))}, opts...)
	im, err := New(store, opts...)
	require.NoError(t, err)
	return im
}

func TestImportReceiverThenSupplier(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	im := newImporter(t, store)

	receiver, err := im.Import(ctx, load(t, testutil.ReceiverV15))
	require.NoError(t, err)
	assert.Equal(t, CompleteMessage, receiver.Message)
	assert.Equal(t, "P2", receiver.Provider)
	assert.Equal(t, string(document.ShapeV15), receiver.Shape)
	assert.Equal(t, 5, receiver.Stats.VerticesInserted)
	assert.Equal(t, 7, receiver.Stats.EdgesInserted)
	assert.Equal(t, 0, receiver.Stats.Connections)
	require.Len(t, receiver.Batches, 1, "shipment names only an object")
	for uri, b := range receiver.Batches {
		assert.True(t, b.Dummy)
		assert.Equal(t, ir.URI("ot:P2:otbid:dummy:SHIP-7:transfer:ot:P2:otoid:JUICE"), uri)
	}

	supplier, err := im.Import(ctx, load(t, testutil.SupplierV15))
	require.NoError(t, err)
	assert.Equal(t, 11, supplier.Stats.VerticesInserted)
	assert.Equal(t, 16, supplier.Stats.EdgesInserted, "14 document edges and 2 connections")
	assert.Equal(t, 1, supplier.Stats.Connections)
	assert.Len(t, supplier.Batches, 2)
	assert.Empty(t, supplier.TransferEvents)

	sent := ir.VertexKey(ir.KindTransaction, "ot:P1:ottid:SHIP-7")
	received := ir.VertexKey(ir.KindTransaction, "ot:P2:ottid:SHIP-7")

	var connections []ir.Edge
	for _, e := range store.Edges() {
		if e.Relation == ir.RelTransactionConnection {
			connections = append(connections, e)
		}
	}
	require.Len(t, connections, 2)
	byFrom := map[string]ir.Edge{connections[0].From: connections[0], connections[1].From: connections[1]}
	assert.Equal(t, received, byFrom[sent].To)
	assert.Equal(t, ir.FlowInput, byFrom[sent].Flow)
	assert.Equal(t, sent, byFrom[received].To)
	assert.Equal(t, ir.FlowOutput, byFrom[received].Flow)

	imports := store.Imports()
	require.Len(t, imports, 2)
	assert.Equal(t, "test-run-default", imports[1].ID)
	assert.Equal(t, "P1", imports[1].Provider)
	assert.Equal(t, 1, imports[1].Connections)
	assert.Len(t, imports[1].DocumentDigest, 64)
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	im := newImporter(t, store)

	_, err := im.Import(ctx, load(t, testutil.ReceiverV15))
	require.NoError(t, err)
	first, err := im.Import(ctx, load(t, testutil.SupplierV15))
	require.NoError(t, err)

	vertices, edges := len(store.Vertices()), len(store.Edges())

	again, err := im.Import(ctx, load(t, testutil.SupplierV15))
	require.NoError(t, err)

	assert.Equal(t, vertices, len(store.Vertices()))
	assert.Equal(t, edges, len(store.Edges()))
	assert.Equal(t, 0, again.Stats.VerticesInserted)
	assert.Equal(t, 0, again.Stats.EdgesInserted)
	assert.Equal(t, first.Stats.VerticesInserted, again.Stats.VerticesSkipped)
	assert.Equal(t, first.Stats.EdgesInserted, again.Stats.EdgesSkipped)
	assert.Equal(t, 1, again.Stats.Connections)

	imports := store.Imports()
	require.Len(t, imports, 3)
	assert.Equal(t, imports[1].DocumentDigest, imports[2].DocumentDigest)
}

func TestImportEdgesReferenceStoredVertices(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	im := newImporter(t, store)

	for _, src := range []string{testutil.ReceiverV15, testutil.SupplierV15, testutil.LegacyMill} {
		_, err := im.Import(ctx, load(t, src))
		require.NoError(t, err)
	}

	edges := store.Edges()
	require.NotEmpty(t, edges)
	var connections int
	for _, e := range edges {
		_, ok := store.Vertex(e.From)
		assert.True(t, ok, "%s edge %s has no source vertex %s", e.Relation, e.Key, e.From)
		_, ok = store.Vertex(e.To)
		assert.True(t, ok, "%s edge %s has no target vertex %s", e.Relation, e.Key, e.To)
		if e.Relation == ir.RelTransactionConnection {
			connections++
		}
	}
	assert.Equal(t, 2, connections)
}

func TestImportMissingProviderWritesNothing(t *testing.T) {
	store := memstore.New()
	im := newImporter(t, store)

	_, err := im.Import(context.Background(), load(t, testutil.MissingProviderV15))
	require.Error(t, err)

	var se *ir.StructuralError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ir.ReasonMissing, se.Reason)
	assert.Equal(t, "OriginTrailExport.DataProvider", se.Path)

	assert.Empty(t, store.Writes())
	assert.Empty(t, store.Imports())
}

func TestImportUndeclaredLocationWritesNothing(t *testing.T) {
	store := memstore.New()
	im := newImporter(t, store)

	_, err := im.Import(context.Background(), load(t, testutil.DanglingLocationV15))
	require.Error(t, err)

	var re *ir.ReferentialError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ir.KindLocation, re.Kind)
	assert.Equal(t, "NOWHERE", re.ID)
	assert.Contains(t, re.Referrer, "BusinessLocationId")
	assert.Contains(t, err.Error(), "NOWHERE")

	assert.Empty(t, store.Writes(), "valid batch before the bad reference must not be written")
}

func TestImportSupplierBeforeReceiverFails(t *testing.T) {
	store := memstore.New()
	im := newImporter(t, store)

	_, err := im.Import(context.Background(), load(t, testutil.SupplierV15))
	require.Error(t, err)
	assert.True(t, ir.IsReferential(err))

	var re *ir.ReferentialError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ir.URI("ot:P2:otblid:STORE"), re.URI)
	assert.Empty(t, store.Writes())
}

func TestImportLegacy(t *testing.T) {
	store := memstore.New()
	im := newImporter(t, store)

	report, err := im.Import(context.Background(), load(t, testutil.LegacyMill))
	require.NoError(t, err)

	assert.Equal(t, string(document.ShapeLegacy), report.Shape)
	assert.Len(t, store.Vertices(), 10)
	assert.Len(t, store.Edges(), 12)

	mill := ir.VertexKey(ir.KindLocation, "ot:L1:otblid:MILL")
	provider := ir.VertexKey(ir.KindParticipant, "ot:L1:otpartid:L1")
	assert.Contains(t, store.Edges(), ir.NewEdge(ir.RelOwnedBy, mill, provider, "L1"),
		"shorthand owner id resolves to the provider participant")

	require.Len(t, report.TransferEvents, 1)
	assert.Equal(t, "DELIVERY", report.TransferEvents[0].ID)

	testutil.AssertGolden(t, "legacy_report", reportTree(t, report))
}

func TestImportLegacyBatchOfWrongProduct(t *testing.T) {
	src := strings.Replace(testutil.LegacyMill,
		"<Product><productId>WHEAT</productId>",
		"<Product><productId>FLOUR</productId>", 1)

	store := memstore.New()
	im := newImporter(t, store)

	_, err := im.Import(context.Background(), load(t, src))
	require.Error(t, err)

	var se *ir.StructuralError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ir.ReasonConflict, se.Reason)
	assert.Equal(t, "OrigintrailExport.EventsData.EventsList.TransferEvent.Product.productBatchId", se.Path)
	assert.Empty(t, store.Writes())
}

func TestValidateDoesNotWrite(t *testing.T) {
	store := memstore.New()
	im := newImporter(t, store)

	summary, err := im.Validate(context.Background(), load(t, testutil.LegacyMill))
	require.NoError(t, err)

	assert.Equal(t, "L1", summary.Provider)
	assert.Equal(t, document.ShapeLegacy, summary.Shape)
	assert.Equal(t, 10, summary.Vertices)
	assert.Equal(t, 12, summary.Edges)
	assert.Equal(t, 2, summary.Batches)
	assert.Equal(t, 0, summary.Probes, "every reference resolves inside the document")
	assert.Empty(t, store.Writes())
}

func TestImportStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	store := memstore.New().WithUpsertError(boom)
	im := newImporter(t, store)

	_, err := im.Import(context.Background(), load(t, testutil.LegacyMill))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ir.IsStructural(err))
	assert.False(t, ir.IsReferential(err))
	assert.Empty(t, store.Imports())
}

func TestImportProbeFailure(t *testing.T) {
	boom := errors.New("connection refused")
	store := memstore.New().WithExistsError(boom)
	im := newImporter(t, store)

	_, err := im.Import(context.Background(), load(t, testutil.SupplierV15))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.Writes())
}

func TestImportSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	store := memstore.New()
	im := newImporter(t, store, WithTracerProvider(tp))

	_, err := im.Import(context.Background(), load(t, testutil.LegacyMill))
	require.NoError(t, err)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"walk", "commit", "correlate"}, names)
	assert.Equal(t, ir.ImporterVersion, sr.Ended()[0].InstrumentationScope().Version)

	_, err = im.Import(context.Background(), load(t, testutil.MissingProviderV15))
	require.Error(t, err)

	ended := sr.Ended()
	last := ended[len(ended)-1]
	assert.Equal(t, "walk", last.Name())
	assert.Equal(t, codes.Error, last.Status().Code)
}

func TestImportCounters(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(ctx) }()

	store := memstore.New()
	im := newImporter(t, store, WithMeterProvider(mp))

	want := map[string]int64{}
	for _, src := range []string{testutil.ReceiverV15, testutil.SupplierV15, testutil.SupplierV15} {
		r, err := im.Import(ctx, load(t, src))
		require.NoError(t, err)
		want["tracegraph.import.vertices/"+r.Provider+"/inserted"] += int64(r.Stats.VerticesInserted)
		want["tracegraph.import.vertices/"+r.Provider+"/skipped"] += int64(r.Stats.VerticesSkipped)
		want["tracegraph.import.edges/"+r.Provider+"/inserted"] += int64(r.Stats.EdgesInserted)
		want["tracegraph.import.edges/"+r.Provider+"/skipped"] += int64(r.Stats.EdgesSkipped)
		want["tracegraph.import.runs/"+r.Provider+"/"]++
	}

	_, err := im.Import(ctx, load(t, testutil.MissingProviderV15))
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	scope := rm.ScopeMetrics[0]
	assert.Equal(t, instrumentationName, scope.Scope.Name)
	assert.Equal(t, ir.ImporterVersion, scope.Scope.Version)

	got := map[string]int64{}
	for _, m := range scope.Metrics {
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok, "%s is not an int64 sum", m.Name)
		assert.True(t, sum.IsMonotonic)
		for _, dp := range sum.DataPoints {
			provider, _ := dp.Attributes.Value("provider")
			outcome, _ := dp.Attributes.Value("outcome")
			got[m.Name+"/"+provider.AsString()+"/"+outcome.AsString()] += dp.Value
		}
	}
	maps.DeleteFunc(want, func(_ string, v int64) bool { return v == 0 })
	maps.DeleteFunc(got, func(_ string, v int64) bool { return v == 0 })
	assert.Equal(t, want, got)
	assert.Equal(t, int64(5), got["tracegraph.import.vertices/P2/inserted"])
	assert.Equal(t, int64(2), got["tracegraph.import.runs/P1/"])
}

func reportTree(t *testing.T, r *Report) any {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}
