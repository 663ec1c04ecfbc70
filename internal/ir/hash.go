package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainVertex   = "tracegraph/vertex/v1"
	DomainEdge     = "tracegraph/edge/v1"
	DomainDocument = "tracegraph/document/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// VertexKey computes the store key of a vertex from its type tag and
// canonical URI: SHA256(DomainVertex + 0x00 + kind + ":" + uri).
//
// The digest is used for deterministic addressing, not for security.
// Reimporting an unchanged document yields identical keys, which lets the
// store's existence-gated insert suppress duplicates.
func VertexKey(kind Kind, uri URI) string {
	return hashWithDomain(DomainVertex, []byte(string(kind)+":"+string(uri)))
}

// EdgeKey computes the store key of an edge from its relation tag and
// endpoint keys. Endpoint order matters: (a,b) and (b,a) are distinct edges.
func EdgeKey(rel Relation, fromKey, toKey string) string {
	return hashWithDomain(DomainEdge, []byte(string(rel)+":"+fromKey+":"+toKey))
}

// DocumentDigest hashes the canonical JSON form of a parsed document.
// Returns error if the document contains values canonical JSON cannot encode.
func DocumentDigest(doc any) (string, error) {
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("DocumentDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}
