package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
)

// marshalIdentifiers converts raw source identifiers to canonical JSON TEXT.
func marshalIdentifiers(ids map[string]any) (string, error) {
	if ids == nil {
		return "{}", nil
	}
	data, err := ir.MarshalCanonical(ids)
	if err != nil {
		return "", fmt.Errorf("marshal identifiers: %w", err)
	}
	return string(data), nil
}

// marshalPayload converts a vertex payload to canonical JSON TEXT, or NULL
// when the vertex has none.
func marshalPayload(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal payload: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalJSON parses stored JSON TEXT keeping numbers as json.Number, so
// large integers survive a round trip.
func unmarshalJSON(data string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func unmarshalIdentifiers(data string) (map[string]any, error) {
	v, err := unmarshalJSON(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal identifiers: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unmarshal identifiers: want object, got %T", v)
	}
	return m, nil
}

func unmarshalPayload(data sql.NullString) (any, error) {
	if !data.Valid {
		return nil, nil
	}
	v, err := unmarshalJSON(data.String)
	if err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return v, nil
}
