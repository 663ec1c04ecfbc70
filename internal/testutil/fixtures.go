package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SupplierV15 is a complete v1.5 export of provider P1: a participant, two
// locations, two objects with one batch each, an internal pressing
// transaction, an outgoing shipment SHIP-7 to P2's STORE location and one
// visibility event.
const SupplierV15 = `<?xml version="1.0" encoding="UTF-8"?>
<OriginTrailExport version="1.5">
  <DataProvider>
    <ParticipantId>P1</ParticipantId>
  </DataProvider>
  <MasterData>
    <ParticipantsList>
      <Participant>
        <ParticipantIdentifiers><ParticipantId>ACME</ParticipantId></ParticipantIdentifiers>
        <ParticipantData><Name>Acme Farms</Name></ParticipantData>
      </Participant>
    </ParticipantsList>
    <BusinessLocationsList>
      <BusinessLocation>
        <BusinessLocationOwnerId>ACME</BusinessLocationOwnerId>
        <BusinessLocationIdentifiers><BusinessLocationId>FARM</BusinessLocationId></BusinessLocationIdentifiers>
        <BusinessLocationData><Name>Farm</Name></BusinessLocationData>
      </BusinessLocation>
      <BusinessLocation>
        <BusinessLocationOwnerId>P1</BusinessLocationOwnerId>
        <BusinessLocationIdentifiers><BusinessLocationId>PLANT</BusinessLocationId></BusinessLocationIdentifiers>
        <BusinessLocationData><Name>Plant</Name></BusinessLocationData>
      </BusinessLocation>
    </BusinessLocationsList>
    <ObjectsList>
      <Object>
        <ObjectIdentifiers><ObjectId>APPLE</ObjectId></ObjectIdentifiers>
        <ObjectData><Name>Apple</Name></ObjectData>
      </Object>
      <Object>
        <ObjectIdentifiers><ObjectId>JUICE</ObjectId></ObjectIdentifiers>
        <ObjectData><Name>Juice</Name></ObjectData>
      </Object>
    </ObjectsList>
    <BatchesList>
      <Batch>
        <BatchIdentifiers><BatchId>AB1</BatchId><ObjectId>APPLE</ObjectId></BatchIdentifiers>
        <BatchData><Qty>100</Qty></BatchData>
      </Batch>
      <Batch>
        <BatchIdentifiers><BatchId>JB1</BatchId><ObjectId>JUICE</ObjectId></BatchIdentifiers>
        <BatchData><Qty>40</Qty></BatchData>
      </Batch>
    </BatchesList>
  </MasterData>
  <TransactionData>
    <InternalTransactionsList>
      <InternalTransaction>
        <InternalTransactionIdentifiers><InternalTransactionId>PRESS1</InternalTransactionId></InternalTransactionIdentifiers>
        <TransactionBatchesInformation>
          <InputBatchesList>
            <TransactionBatch><TransactionBatchId>AB1</TransactionBatchId><TransactionBatchData><Qty>100</Qty></TransactionBatchData></TransactionBatch>
          </InputBatchesList>
          <OutputBatchesList>
            <TransactionBatch><TransactionBatchId>JB1</TransactionBatchId><TransactionBatchData><Qty>40</Qty></TransactionBatchData></TransactionBatch>
          </OutputBatchesList>
        </TransactionBatchesInformation>
        <InternalTransactionData><BusinessLocationId>PLANT</BusinessLocationId></InternalTransactionData>
      </InternalTransaction>
    </InternalTransactionsList>
    <ExternalTransactionsList>
      <ExternalTransaction>
        <ExternalTransactionIdentifiers><ExternalTransactionId>SHIP-7</ExternalTransactionId></ExternalTransactionIdentifiers>
        <TransactionBatchesInformation>
          <TransactionBatchesList>
            <TransactionBatch><TransactionBatchId>JB1</TransactionBatchId><TransactionBatchData><Qty>40</Qty></TransactionBatchData></TransactionBatch>
          </TransactionBatchesList>
        </TransactionBatchesInformation>
        <ExternalTransactionData>
          <BusinessLocationId>PLANT</BusinessLocationId>
          <SourceBusinessLocationId>PLANT</SourceBusinessLocationId>
          <DestinationBusinessLocationId>ot:P2:otblid:STORE</DestinationBusinessLocationId>
          <TransactionFlow>Output</TransactionFlow>
        </ExternalTransactionData>
      </ExternalTransaction>
    </ExternalTransactionsList>
  </TransactionData>
  <VisibilityEventData>
    <VisibilityEventsList>
      <Event>
        <EventIdentifiers><EventId>TEMP1</EventId><BatchId>JB1</BatchId></EventIdentifiers>
        <EventData><BusinessLocationId>PLANT</BusinessLocationId><Temperature>4</Temperature></EventData>
      </Event>
    </VisibilityEventsList>
  </VisibilityEventData>
</OriginTrailExport>
`

// ReceiverV15 is the v1.5 export of provider P2: its STORE location, its
// own JUICE object and the incoming half of shipment SHIP-7. The shipment
// names only an object, so a placeholder batch is implied.
const ReceiverV15 = `<?xml version="1.0" encoding="UTF-8"?>
<OriginTrailExport version="1.5">
  <DataProvider>
    <ParticipantId>P2</ParticipantId>
  </DataProvider>
  <MasterData>
    <BusinessLocationsList>
      <BusinessLocation>
        <BusinessLocationOwnerId>P2</BusinessLocationOwnerId>
        <BusinessLocationIdentifiers><BusinessLocationId>STORE</BusinessLocationId></BusinessLocationIdentifiers>
        <BusinessLocationData><Name>Store</Name></BusinessLocationData>
      </BusinessLocation>
    </BusinessLocationsList>
    <ObjectsList>
      <Object>
        <ObjectIdentifiers><ObjectId>JUICE</ObjectId></ObjectIdentifiers>
        <ObjectData><Name>Juice</Name></ObjectData>
      </Object>
    </ObjectsList>
  </MasterData>
  <TransactionData>
    <ExternalTransactionsList>
      <ExternalTransaction>
        <ExternalTransactionIdentifiers><ExternalTransactionId>SHIP-7</ExternalTransactionId></ExternalTransactionIdentifiers>
        <TransactionBatchesInformation>
          <TransactionBatchesList>
            <TransactionBatch><ObjectId>JUICE</ObjectId><TransactionBatchData><Qty>40</Qty></TransactionBatchData></TransactionBatch>
          </TransactionBatchesList>
        </TransactionBatchesInformation>
        <ExternalTransactionData>
          <BusinessLocationId>STORE</BusinessLocationId>
          <SourceBusinessLocationId>STORE</SourceBusinessLocationId>
          <DestinationBusinessLocationId>STORE</DestinationBusinessLocationId>
          <TransactionFlow>Input</TransactionFlow>
        </ExternalTransactionData>
      </ExternalTransaction>
    </ExternalTransactionsList>
  </TransactionData>
</OriginTrailExport>
`

// MissingProviderV15 has no DataProvider element.
const MissingProviderV15 = `<?xml version="1.0" encoding="UTF-8"?>
<OriginTrailExport version="1.5">
  <MasterData>
    <ObjectsList>
      <Object>
        <ObjectIdentifiers><ObjectId>APPLE</ObjectId></ObjectIdentifiers>
        <ObjectData><Name>Apple</Name></ObjectData>
      </Object>
    </ObjectsList>
  </MasterData>
</OriginTrailExport>
`

// DanglingLocationV15 declares a batch whose event happened at location
// NOWHERE, which is neither declared nor stored. The batch itself is valid,
// so a failed run must not write it.
const DanglingLocationV15 = `<?xml version="1.0" encoding="UTF-8"?>
<OriginTrailExport version="1.5">
  <DataProvider>
    <ParticipantId>P1</ParticipantId>
  </DataProvider>
  <MasterData>
    <ObjectsList>
      <Object>
        <ObjectIdentifiers><ObjectId>APPLE</ObjectId></ObjectIdentifiers>
        <ObjectData><Name>Apple</Name></ObjectData>
      </Object>
    </ObjectsList>
    <BatchesList>
      <Batch>
        <BatchIdentifiers><BatchId>AB1</BatchId><ObjectId>APPLE</ObjectId></BatchIdentifiers>
        <BatchData><Qty>100</Qty></BatchData>
      </Batch>
    </BatchesList>
  </MasterData>
  <VisibilityEventData>
    <VisibilityEventsList>
      <Event>
        <EventIdentifiers><EventId>TEMP1</EventId><BatchId>AB1</BatchId></EventIdentifiers>
        <EventData><BusinessLocationId>NOWHERE</BusinessLocationId></EventData>
      </Event>
    </VisibilityEventsList>
  </VisibilityEventData>
</OriginTrailExport>
`

// LegacyMill is a legacy OrigintrailExport of provider L1: a partner, two
// locations (one owned through participant shorthand), two products, a
// milling transformation whose output batch is implied and a transfer.
const LegacyMill = `<?xml version="1.0" encoding="UTF-8"?>
<OrigintrailExport creationTimestamp="2018-04-01T10:00:00Z">
  <Provider>
    <uid>L1</uid>
    <data><name>Legacy Mill Co</name></data>
  </Provider>
  <MasterData>
    <EntitiesList>
      <Partners>
        <Partner><uid>FARMER</uid><data><name>Farmer</name></data></Partner>
      </Partners>
      <Locations>
        <BusinessLocation><uid>FIELD</uid><ownerId>FARMER</ownerId></BusinessLocation>
        <BusinessLocation><uid>MILL</uid><ownerId>L1_p_L1</ownerId></BusinessLocation>
      </Locations>
      <Products>
        <Product>
          <uid>WHEAT</uid>
          <allIdentifiers><ean>0001</ean></allIdentifiers>
          <ProductBatch><uid>W1</uid><data><harvest>2018</harvest></data></ProductBatch>
        </Product>
        <Product>
          <uid>FLOUR</uid>
          <allIdentifiers><ean>0002</ean></allIdentifiers>
        </Product>
      </Products>
    </EntitiesList>
  </MasterData>
  <EventsData>
    <EventsList>
      <TransformationEvent>
        <eventId>MILLING</eventId>
        <eventTime>2018-04-02T08:00:00</eventTime>
        <eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
        <businessLocationId>MILL</businessLocationId>
        <businessProcess>milling</businessProcess>
        <inputProduct><productId>WHEAT</productId><productBatchId>W1</productBatchId></inputProduct>
        <outputProduct><productId>FLOUR</productId></outputProduct>
      </TransformationEvent>
      <TransferEvent>
        <eventId>DELIVERY</eventId>
        <eventTime>2018-04-01T12:00:00</eventTime>
        <eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
        <businessLocationId>FIELD</businessLocationId>
        <businessProcess>shipping</businessProcess>
        <Product><productId>WHEAT</productId><productBatchId>W1</productBatchId></Product>
        <sourceBusinessLocationId>FIELD</sourceBusinessLocationId>
        <destBusinessLocationId>MILL</destBusinessLocationId>
      </TransferEvent>
    </EventsList>
  </EventsData>
</OrigintrailExport>
`

// WriteDocument writes content to name inside a fresh temp directory and
// returns the file path.
func WriteDocument(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write document %s: %v", name, err)
	}
	return path
}
