// Package harness runs import scenarios: ordered sequences of documents
// imported into a fresh in-memory store, with the expected outcome of each
// import and assertions on the resulting graph.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: ship_correlation
//	description: "Receiver first, then supplier; SHIP-7 is connected"
//	steps:
//	  - document: ../documents/receiver.xml
//	  - document: ../documents/supplier.xml
//	    expect:
//	      outcome: ok
//	      connections: 1
//	assertions:
//	  - type: vertex_exists
//	    kind: TRANSACTION
//	    uid: ot:P2:ottid:SHIP-7
//	    expect: { transaction_flow: Input }
//	  - type: edge_exists
//	    relation: TRANSACTION_CONNECTION
//	    from: { kind: TRANSACTION, uid: ot:P1:ottid:SHIP-7 }
//	    to: { kind: TRANSACTION, uid: ot:P2:ottid:SHIP-7 }
//
// Document paths are relative to the scenario file.
//
// # Outcomes
//
// A step's expect.outcome is one of ok (the default), structural or
// referential. A structural expectation may name the error path, a
// referential one the unresolved id.
//
// # Assertion Types
//
//   - vertex_exists: a vertex of kind/uid exists; expect is a subset match on
//     its stored fields
//   - vertex_absent: no vertex of kind/uid exists
//   - edge_exists: an edge relation from→to exists
//   - vertex_count, edge_count, import_count: exact totals
//   - edges_resolvable: every stored edge's endpoints are stored vertices
//
// Every scenario runs with a fixed import run id, so reports are
// reproducible.
package harness
