package ir

// Kind is the vertex type tag. It participates in key derivation, so the
// string values are part of the persisted identity scheme.
type Kind string

const (
	KindParticipant Kind = "PARTICIPANT"
	KindLocation    Kind = "BUSINESS_LOCATION"
	KindObject      Kind = "OBJECT"
	KindBatch       Kind = "BATCH"
	KindTransaction Kind = "TRANSACTION"
	KindEvent       Kind = "EVENT"
)

// Kinds lists every vertex kind in document walk order.
var Kinds = []Kind{
	KindParticipant,
	KindLocation,
	KindObject,
	KindBatch,
	KindTransaction,
	KindEvent,
}

var kindInfixes = map[Kind]string{
	KindParticipant: "otpartid",
	KindLocation:    "otblid",
	KindObject:      "otoid",
	KindBatch:       "otbid",
	KindTransaction: "ottid",
	KindEvent:       "oteid",
}

// Infix returns the fixed URI infix for the kind, or "" for unknown kinds.
func (k Kind) Infix() string {
	return kindInfixes[k]
}

// Valid reports whether k is a known vertex kind.
func (k Kind) Valid() bool {
	_, ok := kindInfixes[k]
	return ok
}

// Relation is the edge type tag.
type Relation string

const (
	RelOwnedBy               Relation = "OWNED_BY"
	RelAt                    Relation = "AT"
	RelInstanceOf            Relation = "INSTANCE_OF"
	RelInputBatch            Relation = "INPUT_BATCH"
	RelOutputBatch           Relation = "OUTPUT_BATCH"
	RelOfBatch               Relation = "OF_BATCH"
	RelFrom                  Relation = "FROM"
	RelTo                    Relation = "TO"
	RelTracedBy              Relation = "TRACED_BY"
	RelTransactionConnection Relation = "TRANSACTION_CONNECTION"
)

// Endpoints constrains which vertex kinds may appear at each end of a relation.
type Endpoints struct {
	From []Kind
	To   []Kind
}

// Relations fixes the direction of every relation kind. OfBatch is the only
// relation written in both directions, so it allows either orientation.
var Relations = map[Relation]Endpoints{
	RelOwnedBy:               {From: []Kind{KindLocation}, To: []Kind{KindParticipant}},
	RelAt:                    {From: []Kind{KindTransaction, KindEvent}, To: []Kind{KindLocation}},
	RelInstanceOf:            {From: []Kind{KindBatch}, To: []Kind{KindObject}},
	RelInputBatch:            {From: []Kind{KindTransaction}, To: []Kind{KindBatch}},
	RelOutputBatch:           {From: []Kind{KindBatch}, To: []Kind{KindTransaction}},
	RelOfBatch:               {From: []Kind{KindTransaction, KindBatch}, To: []Kind{KindBatch, KindTransaction}},
	RelFrom:                  {From: []Kind{KindTransaction}, To: []Kind{KindLocation}},
	RelTo:                    {From: []Kind{KindTransaction}, To: []Kind{KindLocation}},
	RelTracedBy:              {From: []Kind{KindBatch}, To: []Kind{KindEvent}},
	RelTransactionConnection: {From: []Kind{KindTransaction}, To: []Kind{KindTransaction}},
}

// Allows reports whether an edge of this relation may run from a vertex of
// kind from to a vertex of kind to.
func (r Relation) Allows(from, to Kind) bool {
	ep, ok := Relations[r]
	if !ok {
		return false
	}
	if r == RelOfBatch {
		return (from == KindTransaction && to == KindBatch) || (from == KindBatch && to == KindTransaction)
	}
	return containsKind(ep.From, from) && containsKind(ep.To, to)
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

// Flow is the declared direction of an external transaction.
type Flow string

const (
	FlowInput  Flow = "Input"
	FlowOutput Flow = "Output"
)

// ParseFlow accepts exactly "Input" or "Output".
func ParseFlow(s string) (Flow, bool) {
	switch Flow(s) {
	case FlowInput, FlowOutput:
		return Flow(s), true
	default:
		return "", false
	}
}

// Complement returns the flow on the other side of an exchange.
// The empty flow has no complement.
func (f Flow) Complement() Flow {
	switch f {
	case FlowInput:
		return FlowOutput
	case FlowOutput:
		return FlowInput
	default:
		return ""
	}
}

// URI is a canonical, provider-scoped entity identity.
type URI string

// Transaction types recorded on transaction vertices.
const (
	TransactionInternal       = "InternalTransaction"
	TransactionExternal       = "ExternalTransaction"
	TransactionTransformation = "TransformationEvent"
	TransactionTransfer       = "TransferEvent"
)

// Vertex is a typed graph vertex record. It is created once during the
// document walk and never mutated after being handed to a store.
type Vertex struct {
	Key             string         `json:"key"`         // Content-addressed (VertexKey)
	Kind            Kind           `json:"vertex_type"` // Type tag
	URI             URI            `json:"uid"`         // Canonical identity
	Provider        string         `json:"data_provider"`
	Identifiers     map[string]any `json:"identifiers"`    // Raw source identifiers, verbatim
	Payload         any            `json:"data,omitempty"` // Opaque domain data
	TransactionType string         `json:"transaction_type,omitempty"`
	Flow            Flow           `json:"transaction_flow,omitempty"`
	ExternalID      string         `json:"external_id,omitempty"` // Raw external transaction id
	Dummy           bool           `json:"dummy,omitempty"`       // Implicit placeholder batch
}

// Edge is a typed directed graph edge record.
type Edge struct {
	Key      string   `json:"key"` // Content-addressed (EdgeKey)
	Relation Relation `json:"edge_type"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Provider string   `json:"data_provider"`
	Flow     Flow     `json:"transaction_flow,omitempty"` // Correlation edges only
}

// NewEdge builds an edge with its key derived from the endpoint pair.
func NewEdge(rel Relation, from, to, provider string) Edge {
	return Edge{
		Key:      EdgeKey(rel, from, to),
		Relation: rel,
		From:     from,
		To:       to,
		Provider: provider,
	}
}

// Ref is a resolved reference to a vertex.
type Ref struct {
	Kind Kind   `json:"kind"`
	URI  URI    `json:"uid"`
	Key  string `json:"key"`

	// Persisted is true when the vertex was found in the store rather than
	// declared in the current document.
	Persisted bool `json:"persisted,omitempty"`
}

// ImportRun is the log record of one successful import.
type ImportRun struct {
	ID               string `json:"id"` // UUIDv7
	Provider         string `json:"provider"`
	Shape            string `json:"shape"`
	DocumentDigest   string `json:"document_digest"`
	VerticesInserted int    `json:"vertices_inserted"`
	VerticesSkipped  int    `json:"vertices_skipped"`
	EdgesInserted    int    `json:"edges_inserted"`
	EdgesSkipped     int    `json:"edges_skipped"`
	Connections      int    `json:"connections"`
}
