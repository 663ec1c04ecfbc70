// Package identity turns source identifiers into canonical, provider-scoped
// URIs and the content-addressed keys derived from them.
//
// A Canonicalizer is bound to one data provider for the duration of a run.
// Canonicalize is total: every (kind, identifier) pair maps to exactly one
// URI, and the same inputs always map to the same URI.
package identity

import (
	"fmt"
	"strings"

	"github.com/roach88/tracegraph/internal/ir"
)

// ShorthandSeparator joins a provider id and a participant id in the
// provider-local participant shorthand "<provider>_p_<id>".
const ShorthandSeparator = "_p_"

// Canonicalizer scopes raw identifiers to a data provider.
type Canonicalizer struct {
	provider string
}

// New creates a Canonicalizer for the given provider scope.
// Returns a StructuralError if the provider id is empty after normalization.
func New(provider string) (*Canonicalizer, error) {
	p := ir.NormalizeID(provider)
	if p == "" {
		return nil, ir.NewEmpty("DataProvider")
	}
	return &Canonicalizer{provider: p}, nil
}

// Provider returns the normalized provider scope.
func (c *Canonicalizer) Provider() string {
	return c.provider
}

// Canonicalize maps an identifier of the given kind to its canonical URI.
//
// Canonical identifiers pass through unchanged. Raw identifiers become
// "ot:<provider>:<infix>:<raw>", the same form another provider would write
// to reference this entity. Raw participant ids in shorthand form are
// promoted first, so "P1_p_X" and "X" address the same participant of P1.
func (c *Canonicalizer) Canonicalize(kind ir.Kind, id ir.Identifier) ir.URI {
	switch v := id.(type) {
	case ir.CanonicalID:
		return ir.URI(v)
	case ir.RawID:
		raw := string(v)
		if kind == ir.KindParticipant {
			raw = c.promoteShorthand(raw)
		}
		return ir.URI(ir.CanonicalPrefix + c.provider + ":" + kind.Infix() + ":" + raw)
	default:
		panic(fmt.Sprintf("identity: unknown identifier type %T", id))
	}
}

// promoteShorthand strips this provider's shorthand prefix from a raw
// participant id. Shorthand of another provider stays raw.
func (c *Canonicalizer) promoteShorthand(raw string) string {
	prefix := c.provider + ShorthandSeparator
	if rest, ok := strings.CutPrefix(raw, prefix); ok && rest != "" {
		return rest
	}
	return raw
}

// Parse canonicalizes a source string. path names the document field and is
// used in the StructuralError returned when the identifier is empty.
func (c *Canonicalizer) Parse(kind ir.Kind, raw, path string) (ir.Identifier, ir.URI, error) {
	id, ok := ir.ParseIdentifier(raw)
	if !ok {
		return nil, "", ir.NewEmpty(path)
	}
	return id, c.Canonicalize(kind, id), nil
}

// Key derives the store key of the vertex an identifier addresses.
func (c *Canonicalizer) Key(kind ir.Kind, id ir.Identifier) string {
	return ir.VertexKey(kind, c.Canonicalize(kind, id))
}

// ProviderURI returns the canonical URI of the provider's own participant
// vertex.
func (c *Canonicalizer) ProviderURI() ir.URI {
	return c.Canonicalize(ir.KindParticipant, ir.RawID(c.provider))
}
