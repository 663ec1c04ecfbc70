package document

import (
	"github.com/roach88/tracegraph/internal/ir"
)

// Shape is a document layout version.
type Shape string

const (
	// ShapeV15 is the OriginTrailExport layout with explicit master data,
	// internal/external transactions and visibility events.
	ShapeV15 Shape = "v1.5"

	// ShapeLegacy is the OrigintrailExport layout with entity lists and
	// transformation/transfer events.
	ShapeLegacy Shape = "legacy"
)

// Root element names of each shape.
const (
	RootV15    = "OriginTrailExport"
	RootLegacy = "OrigintrailExport"
)

// DetectShape picks the layout by root element and returns the root node.
func DetectShape(doc any) (Shape, Node, error) {
	root := Root(doc)
	v15 := root.Get(RootV15)
	legacy := root.Get(RootLegacy)

	switch {
	case v15.Exists() && legacy.Exists():
		return "", Node{}, ir.NewInvalid("$", "document has both "+RootV15+" and "+RootLegacy+" roots")
	case v15.Exists():
		return ShapeV15, v15, nil
	case legacy.Exists():
		return ShapeLegacy, legacy, nil
	default:
		return "", Node{}, ir.NewMissing(RootV15)
	}
}

// V15 is the contract of the OriginTrailExport layout.
var V15 = Contract{
	RootV15: {Fields: []Field{
		{Path: "version", ID: true},
		{Path: "DataProvider"},
		{Path: "DataProvider.ParticipantId", ID: true},
		{Path: "MasterData", Optional: true},
		{Path: "TransactionData", Optional: true},
		{Path: "VisibilityEventData", Optional: true},
	}},

	"ParticipantsList":      {Fields: []Field{{Path: "Participant", Repeated: true}}},
	"BusinessLocationsList": {Fields: []Field{{Path: "BusinessLocation", Repeated: true}}},
	"ObjectsList":           {Fields: []Field{{Path: "Object", Repeated: true}}},
	"BatchesList":           {Fields: []Field{{Path: "Batch", Repeated: true}}},

	"Participant": {Fields: []Field{
		{Path: "ParticipantIdentifiers"},
		{Path: "ParticipantIdentifiers.ParticipantId", ID: true},
		{Path: "ParticipantData"},
	}},
	"BusinessLocation": {Fields: []Field{
		{Path: "BusinessLocationOwnerId", ID: true},
		{Path: "BusinessLocationIdentifiers"},
		{Path: "BusinessLocationIdentifiers.BusinessLocationId", ID: true},
		{Path: "BusinessLocationData"},
	}},
	"Object": {Fields: []Field{
		{Path: "ObjectIdentifiers"},
		{Path: "ObjectIdentifiers.ObjectId", ID: true},
		{Path: "ObjectData"},
	}},
	"Batch": {Fields: []Field{
		{Path: "BatchIdentifiers"},
		{Path: "BatchIdentifiers.BatchId", ID: true},
		{Path: "BatchIdentifiers.ObjectId", ID: true},
		{Path: "BatchData"},
	}},

	"InternalTransactionsList": {Fields: []Field{{Path: "InternalTransaction", Repeated: true}}},
	"ExternalTransactionsList": {Fields: []Field{{Path: "ExternalTransaction", Repeated: true}}},

	"InternalTransaction": {Fields: []Field{
		{Path: "InternalTransactionIdentifiers"},
		{Path: "InternalTransactionIdentifiers.InternalTransactionId", ID: true},
		{Path: "TransactionBatchesInformation"},
		{Path: "TransactionBatchesInformation.InputBatchesList", Optional: true},
		{Path: "TransactionBatchesInformation.OutputBatchesList"},
		{Path: "InternalTransactionData"},
		{Path: "InternalTransactionData.BusinessLocationId", ID: true},
	}},
	"ExternalTransaction": {Fields: []Field{
		{Path: "ExternalTransactionIdentifiers"},
		{Path: "ExternalTransactionIdentifiers.ExternalTransactionId", ID: true},
		{Path: "TransactionBatchesInformation"},
		{Path: "TransactionBatchesInformation.TransactionBatchesList"},
		{Path: "ExternalTransactionData"},
		{Path: "ExternalTransactionData.BusinessLocationId", ID: true},
		{Path: "ExternalTransactionData.SourceBusinessLocationId", ID: true},
		{Path: "ExternalTransactionData.DestinationBusinessLocationId", ID: true},
		{Path: "ExternalTransactionData.TransactionFlow", OneOf: []string{string(ir.FlowInput), string(ir.FlowOutput)}},
	}},
	"TransactionBatchesList": {Fields: []Field{{Path: "TransactionBatch", Repeated: true}}},
	"TransactionBatch": {Fields: []Field{
		{Path: "TransactionBatchId", Optional: true, ID: true},
		{Path: "ObjectId", Optional: true, ID: true},
		{Path: "TransactionBatchData"},
	}},

	"VisibilityEventsList": {Fields: []Field{{Path: "Event", Repeated: true}}},
	"Event": {Fields: []Field{
		{Path: "EventIdentifiers"},
		{Path: "EventIdentifiers.EventId", ID: true},
		{Path: "EventIdentifiers.BatchId", ID: true},
		{Path: "EventData"},
		{Path: "EventData.BusinessLocationId", Optional: true, ID: true},
	}},
}

// Legacy is the contract of the OrigintrailExport layout.
var Legacy = Contract{
	RootLegacy: {Fields: []Field{
		{Path: "creationTimestamp", ID: true},
		{Path: "Provider"},
		{Path: "Provider.uid", ID: true},
		{Path: "MasterData"},
		{Path: "MasterData.EntitiesList"},
		{Path: "MasterData.EntitiesList.Locations"},
		{Path: "MasterData.EntitiesList.Products"},
		{Path: "EventsData"},
		{Path: "EventsData.EventsList"},
	}},

	"EntitiesList": {Only: []string{"Partners", "Locations", "Products"}},
	"Partners":     {Only: []string{"Partner"}, Fields: []Field{{Path: "Partner", Repeated: true}}},
	"Locations":    {Only: []string{"BusinessLocation"}, Fields: []Field{{Path: "BusinessLocation", Repeated: true}}},
	"Products":     {Only: []string{"Product"}, Fields: []Field{{Path: "Product", Repeated: true}}},
	"EventsList":   {Only: []string{"TransformationEvent", "TransferEvent"}},

	"Partner": {Fields: []Field{
		{Path: "uid", ID: true},
	}},
	"BusinessLocation": {Fields: []Field{
		{Path: "uid", ID: true},
		{Path: "ownerId", ID: true},
	}},
	"Product": {Fields: []Field{
		{Path: "uid", ID: true},
		{Path: "allIdentifiers"},
		{Path: "ProductBatch", Optional: true},
	}},
	"ProductBatch": {Fields: []Field{
		{Path: "uid", ID: true},
	}},
	"ProductRef": {Fields: []Field{
		{Path: "productId", ID: true},
		{Path: "productBatchId", Optional: true, ID: true},
	}},

	"TransformationEvent": {Fields: append(legacyEventFields(),
		Field{Path: "inputProduct", Optional: true, Repeated: true},
		Field{Path: "outputProduct", Repeated: true},
	)},
	"TransferEvent": {Fields: append(legacyEventFields(),
		Field{Path: "Product"},
		Field{Path: "sourceBusinessLocationId", ID: true},
		Field{Path: "destBusinessLocationId", ID: true},
	)},
}

func legacyEventFields() []Field {
	return []Field{
		{Path: "eventId", ID: true},
		{Path: "eventTime", ID: true},
		{Path: "eventTimeZoneOffset", ID: true},
		{Path: "businessLocationId", ID: true},
		{Path: "businessProcess", ID: true},
	}
}
