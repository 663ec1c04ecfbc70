// Package ir provides the graph intermediate representation for tracegraph.
//
// This package contains the vertex/edge record types, the identifier union,
// content-addressed key derivation and the two fatal error kinds. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Keys are pure functions of (type tag, canonical URI) or
//     (relation, from key, to key); never of wall-clock time or run order
//   - Edge direction is fixed per relation kind (see Relations)
//   - All JSON tags use snake_case
//   - Identifiers are NFC normalized at the parse boundary
package ir
