package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracegraph/internal/ir"
)

func tx(uri ir.URI, ext string, flow ir.Flow) ir.Vertex {
	return ir.Vertex{
		Key:        ir.VertexKey(ir.KindTransaction, uri),
		Kind:       ir.KindTransaction,
		URI:        uri,
		Flow:       flow,
		ExternalID: ext,
	}
}

func TestUpsertVertexIsExistenceGated(t *testing.T) {
	ctx := context.Background()
	s := New()
	v := tx("ot:P1:ottid:A", "X1", ir.FlowInput)

	inserted, err := s.UpsertVertex(ctx, v)
	require.NoError(t, err)
	assert.True(t, inserted)

	changed := v
	changed.Payload = "other"
	inserted, err = s.UpsertVertex(ctx, changed)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, ok := s.Vertex(v.Key)
	require.True(t, ok)
	assert.Nil(t, got.Payload, "first write wins")
	assert.Len(t, s.Writes(), 2)
}

func TestUpsertEdgeIsExistenceGated(t *testing.T) {
	ctx := context.Background()
	s := New()
	e := ir.NewEdge(ir.RelAt, "a", "b", "P1")

	inserted, err := s.UpsertEdge(ctx, e)
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = s.UpsertEdge(ctx, e)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Len(t, s.Edges(), 1)
}

func TestExistsVertex(t *testing.T) {
	ctx := context.Background()
	s := New()
	v := tx("ot:P1:ottid:A", "X1", ir.FlowInput)

	exists, err := s.ExistsVertex(ctx, v.Key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.UpsertVertex(ctx, v)
	require.NoError(t, err)
	exists, err = s.ExistsVertex(ctx, v.Key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestQueryTransactionsByFlow(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := tx("ot:P1:ottid:A", "X1", ir.FlowInput)
	b := tx("ot:P2:ottid:B", "X1", ir.FlowOutput)
	c := tx("ot:P3:ottid:C", "X1", ir.FlowOutput)
	d := tx("ot:P3:ottid:D", "X2", ir.FlowOutput)
	for _, v := range []ir.Vertex{a, b, c, d} {
		_, err := s.UpsertVertex(ctx, v)
		require.NoError(t, err)
	}

	keys, err := s.QueryTransactionsByFlow(ctx, "X1", ir.FlowOutput, a.Key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{b.Key, c.Key}, keys)

	keys, err = s.QueryTransactionsByFlow(ctx, "X1", ir.FlowOutput, b.Key)
	require.NoError(t, err)
	assert.Equal(t, []string{c.Key}, keys, "excluded key never returned")

	keys, err = s.QueryTransactionsByFlow(ctx, "X9", ir.FlowInput, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestErrorInjection(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := New().WithUpsertError(boom).UpsertVertex(ctx, ir.Vertex{Key: "k"})
	assert.ErrorIs(t, err, boom)
	_, err = New().WithExistsError(boom).ExistsVertex(ctx, "k")
	assert.ErrorIs(t, err, boom)
	_, err = New().WithQueryError(boom).QueryTransactionsByFlow(ctx, "X", ir.FlowInput, "")
	assert.ErrorIs(t, err, boom)
}

func TestRecordImport(t *testing.T) {
	s := New()
	require.NoError(t, s.RecordImport(context.Background(), ir.ImportRun{ID: "run-1", Provider: "P1"}))
	require.Len(t, s.Imports(), 1)
	assert.Equal(t, "run-1", s.Imports()[0].ID)
}
