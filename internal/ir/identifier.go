package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalPrefix marks an identifier that is already fully qualified and
// may reference an entity of another provider.
const CanonicalPrefix = "ot:"

// Identifier is a source identifier: either RawID or CanonicalID.
// Deciding which one a string is happens once, in ParseIdentifier.
type Identifier interface {
	String() string
	isIdentifier()
}

// RawID is a provider-local identifier that still needs scoping.
type RawID string

func (r RawID) String() string { return string(r) }
func (RawID) isIdentifier()    {}

// CanonicalID is an identifier that already is a canonical URI.
type CanonicalID URI

func (c CanonicalID) String() string { return string(c) }
func (CanonicalID) isIdentifier()    {}

// NormalizeID trims surrounding whitespace and applies NFC normalization so
// visually identical identifiers address the same entity.
func NormalizeID(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ParseIdentifier classifies a source identifier.
// Returns false if the identifier is empty after normalization.
func ParseIdentifier(s string) (Identifier, bool) {
	n := NormalizeID(s)
	if n == "" {
		return nil, false
	}
	if strings.HasPrefix(n, CanonicalPrefix) {
		return CanonicalID(n), true
	}
	return RawID(n), true
}

// MustParseIdentifier is like ParseIdentifier but panics on empty input.
// Use only in tests or when inputs are known to be valid.
func MustParseIdentifier(s string) Identifier {
	id, ok := ParseIdentifier(s)
	if !ok {
		panic("ir: empty identifier")
	}
	return id
}
