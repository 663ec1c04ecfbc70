package assemble

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracegraph/internal/identity"
	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/memstore"
	"github.com/roach88/tracegraph/internal/registry"
)

func records(t *testing.T) (*registry.Record, *registry.Record) {
	t.Helper()
	c, err := identity.New("P1")
	require.NoError(t, err)
	reg := registry.New(c)
	loc, err := reg.Register(ir.KindLocation, "L1", registry.Attrs{})
	require.NoError(t, err)
	owner, err := reg.Register(ir.KindParticipant, "P1", registry.Attrs{})
	require.NoError(t, err)
	return loc, owner
}

func TestConnectFixedDirection(t *testing.T) {
	loc, owner := records(t)
	p := NewPlan("P1")
	require.NoError(t, p.AddRecord(loc))
	require.NoError(t, p.AddRecord(owner))

	require.NoError(t, p.Connect(ir.RelOwnedBy, loc.Ref(), owner.Ref()))

	err := p.Connect(ir.RelOwnedBy, owner.Ref(), loc.Ref())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDirection)

	require.Len(t, p.Edges(), 1)
	e := p.Edges()[0]
	assert.Equal(t, loc.Key, e.From)
	assert.Equal(t, owner.Key, e.To)
	assert.Equal(t, ir.EdgeKey(ir.RelOwnedBy, loc.Key, owner.Key), e.Key)
	assert.Equal(t, "P1", e.Provider)
}

func TestConnectRejectsDanglingEndpoint(t *testing.T) {
	loc, owner := records(t)
	p := NewPlan("P1")
	require.NoError(t, p.AddRecord(loc))

	err := p.Connect(ir.RelOwnedBy, loc.Ref(), owner.Ref())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDangling)
	assert.Empty(t, p.Edges())
}

func TestConnectAcceptsPersistedEndpoint(t *testing.T) {
	loc, _ := records(t)
	p := NewPlan("P1")
	require.NoError(t, p.AddRecord(loc))

	uri := ir.URI("ot:P2:otpartid:P2")
	stored := ir.Ref{Kind: ir.KindParticipant, URI: uri, Key: ir.VertexKey(ir.KindParticipant, uri), Persisted: true}
	require.NoError(t, p.Connect(ir.RelOwnedBy, loc.Ref(), stored))
	assert.Len(t, p.Edges(), 1)
}

func TestPlanDeduplicatesByKey(t *testing.T) {
	loc, owner := records(t)
	p := NewPlan("P1")
	for i := 0; i < 2; i++ {
		require.NoError(t, p.AddRecord(loc))
		require.NoError(t, p.AddRecord(owner))
		require.NoError(t, p.Connect(ir.RelOwnedBy, loc.Ref(), owner.Ref()))
	}
	assert.Len(t, p.Vertices(), 2)
	assert.Len(t, p.Edges(), 1)
}

func TestAddVertexRejectsForeignKey(t *testing.T) {
	p := NewPlan("P1")
	err := p.AddVertex(ir.Vertex{Key: "deadbeef", Kind: ir.KindBatch, URI: "ot:P1:otbid:B1"})
	require.Error(t, err)

	err = p.AddVertex(ir.Vertex{Key: "x", Kind: ir.Kind("WIDGET"), URI: "x"})
	require.Error(t, err)
}

func TestConnectTagged(t *testing.T) {
	a := ir.Ref{Kind: ir.KindTransaction, URI: "ot:P1:ottid:A", Key: "ka", Persisted: true}
	b := ir.Ref{Kind: ir.KindTransaction, URI: "ot:P2:ottid:B", Key: "kb", Persisted: true}
	p := NewPlan("P1")

	require.NoError(t, p.ConnectTagged(ir.RelTransactionConnection, a, b, ir.FlowOutput))
	require.Len(t, p.Edges(), 1)
	assert.Equal(t, ir.FlowOutput, p.Edges()[0].Flow)
}

func TestCommitWritesVerticesBeforeEdges(t *testing.T) {
	ctx := context.Background()
	loc, owner := records(t)
	p := NewPlan("P1")
	require.NoError(t, p.AddRecord(loc))
	require.NoError(t, p.AddRecord(owner))
	require.NoError(t, p.Connect(ir.RelOwnedBy, loc.Ref(), owner.Ref()))

	store := memstore.New()
	stats, err := p.Commit(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Stats{VerticesInserted: 2, EdgesInserted: 1}, stats)

	writes := store.Writes()
	require.Len(t, writes, 3)
	assert.True(t, strings.HasPrefix(writes[0], "vertex:"))
	assert.True(t, strings.HasPrefix(writes[1], "vertex:"))
	assert.True(t, strings.HasPrefix(writes[2], "edge:"))
}

func TestCommitTwiceSkipsEverything(t *testing.T) {
	ctx := context.Background()
	loc, owner := records(t)
	p := NewPlan("P1")
	require.NoError(t, p.AddRecord(loc))
	require.NoError(t, p.AddRecord(owner))
	require.NoError(t, p.Connect(ir.RelOwnedBy, loc.Ref(), owner.Ref()))

	store := memstore.New()
	_, err := p.Commit(ctx, store)
	require.NoError(t, err)
	stats, err := p.Commit(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, Stats{VerticesSkipped: 2, EdgesSkipped: 1}, stats)
}

func TestCommitStoreErrorIsFatal(t *testing.T) {
	loc, _ := records(t)
	p := NewPlan("P1")
	require.NoError(t, p.AddRecord(loc))

	boom := errors.New("disk full")
	_, err := p.Commit(context.Background(), memstore.New().WithUpsertError(boom))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestStatsAdd(t *testing.T) {
	s := Stats{VerticesInserted: 1, EdgesSkipped: 2}
	s.Add(Stats{VerticesInserted: 2, VerticesSkipped: 1, EdgesInserted: 3})
	assert.Equal(t, Stats{VerticesInserted: 3, VerticesSkipped: 1, EdgesInserted: 3, EdgesSkipped: 2}, s)
}
