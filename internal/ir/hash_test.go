package ir

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexKeyDeterminism(t *testing.T) {
	k1 := VertexKey(KindLocation, "P1:otblid:42")
	k2 := VertexKey(KindLocation, "P1:otblid:42")

	assert.Equal(t, k1, k2, "VertexKey must be deterministic")
	assert.Len(t, k1, 64, "SHA-256 hex is 64 characters")
}

func TestVertexKeyPinned(t *testing.T) {
	// SHA256("tracegraph/vertex/v1" + 0x00 + "BUSINESS_LOCATION:ot:P1:otblid:42")
	assert.Equal(t,
		"6b819331f18465fc10f6a215a2a596309af961630ec7a2e80085159d8fdb5eec",
		VertexKey(KindLocation, "ot:P1:otblid:42"))
	assert.Equal(t,
		"70eda174812463b34462f9121bd0cd2a3f24ebdb51cb98e1e7f840b04c0d03c0",
		VertexKey(KindLocation, "ot:P2:otblid:7"))
}

func TestVertexKeyChangesWithInput(t *testing.T) {
	base := VertexKey(KindBatch, "P1:otbid:B1")

	assert.NotEqual(t, base, VertexKey(KindBatch, "P1:otbid:B2"), "different URI")
	assert.NotEqual(t, base, VertexKey(KindObject, "P1:otbid:B1"), "different kind")
	assert.NotEqual(t, base, VertexKey(KindBatch, "P2:otbid:B1"), "different provider scope")
}

func TestVertexKeyNoCollisionsAcrossManyURIs(t *testing.T) {
	seen := make(map[string]URI)
	for i := 0; i < 5000; i++ {
		uri := URI(fmt.Sprintf("P1:otbid:%d", i))
		key := VertexKey(KindBatch, uri)
		if prev, ok := seen[key]; ok {
			t.Fatalf("collision between %s and %s", prev, uri)
		}
		seen[key] = uri
	}
}

func TestEdgeKeyPinned(t *testing.T) {
	// SHA256("tracegraph/edge/v1" + 0x00 + "OWNED_BY:a:b")
	assert.Equal(t,
		"66b882b79131c88070ddfe090a40f799248bdd10168c793490e6953b8c84ee63",
		EdgeKey(RelOwnedBy, "a", "b"))
}

func TestEdgeKeyDirectional(t *testing.T) {
	ab := EdgeKey(RelTransactionConnection, "a", "b")
	ba := EdgeKey(RelTransactionConnection, "b", "a")

	assert.NotEqual(t, ab, ba, "reversed endpoints must be a distinct edge")
	assert.NotEqual(t, ab, EdgeKey(RelOfBatch, "a", "b"), "relation tag participates in key")
}

func TestEdgeKeyDomainSeparatedFromVertexKey(t *testing.T) {
	// Same payload bytes, different domain.
	assert.NotEqual(t,
		hashWithDomain(DomainVertex, []byte("x")),
		hashWithDomain(DomainEdge, []byte("x")))
}

func TestNewEdge(t *testing.T) {
	e := NewEdge(RelAt, "from", "to", "P1")

	assert.Equal(t, EdgeKey(RelAt, "from", "to"), e.Key)
	assert.Equal(t, RelAt, e.Relation)
	assert.Equal(t, "from", e.From)
	assert.Equal(t, "to", e.To)
	assert.Equal(t, "P1", e.Provider)
}

func TestDocumentDigestIgnoresKeyOrder(t *testing.T) {
	var a, b map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"x":1,"y":{"b":"2","a":"1"}}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"y":{"a":"1","b":"2"},"x":1}`), &b))

	da, err := DocumentDigest(a)
	require.NoError(t, err)
	db, err := DocumentDigest(b)
	require.NoError(t, err)

	assert.Equal(t, da, db)
	assert.Len(t, da, 64)
}

func TestDocumentDigestDistinguishesLargeIntegers(t *testing.T) {
	var a, b map[string]any
	decodeNumbers(t, `{"BatchId":12345678901234567890}`, &a)
	decodeNumbers(t, `{"BatchId":12345678901234567891}`, &b)

	da, err := DocumentDigest(a)
	require.NoError(t, err)
	db, err := DocumentDigest(b)
	require.NoError(t, err)

	assert.NotEqual(t, da, db)
}

func decodeNumbers(t *testing.T, src string, v any) {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(src))
	dec.UseNumber()
	require.NoError(t, dec.Decode(v))
}

func TestDocumentDigestRejectsUnsupported(t *testing.T) {
	_, err := DocumentDigest(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}
