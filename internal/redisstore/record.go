package redisstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
)

func toVertexRecord(v ir.Vertex) (vertexRecord, error) {
	ids := v.Identifiers
	if ids == nil {
		ids = map[string]any{}
	}
	idJSON, err := ir.MarshalCanonical(ids)
	if err != nil {
		return vertexRecord{}, fmt.Errorf("marshal identifiers: %w", err)
	}
	rec := vertexRecord{
		Kind:            string(v.Kind),
		URI:             string(v.URI),
		Provider:        v.Provider,
		Identifiers:     string(idJSON),
		TransactionType: v.TransactionType,
		Flow:            string(v.Flow),
		ExternalID:      v.ExternalID,
		Dummy:           v.Dummy,
	}
	if v.Payload != nil {
		data, err := ir.MarshalCanonical(v.Payload)
		if err != nil {
			return vertexRecord{}, fmt.Errorf("marshal payload: %w", err)
		}
		rec.Data = string(data)
	}
	return rec, nil
}

func (r vertexRecord) vertex(key string) (ir.Vertex, error) {
	v := ir.Vertex{
		Key:             key,
		Kind:            ir.Kind(r.Kind),
		URI:             ir.URI(r.URI),
		Provider:        r.Provider,
		TransactionType: r.TransactionType,
		Flow:            ir.Flow(r.Flow),
		ExternalID:      r.ExternalID,
		Dummy:           r.Dummy,
	}
	if err := decodeJSON(r.Identifiers, &v.Identifiers); err != nil {
		return ir.Vertex{}, fmt.Errorf("unmarshal identifiers: %w", err)
	}
	if r.Data != "" {
		if err := decodeJSON(r.Data, &v.Payload); err != nil {
			return ir.Vertex{}, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	return v, nil
}

func decodeJSON(data string, dst any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	return dec.Decode(dst)
}
