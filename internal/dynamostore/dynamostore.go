// Package dynamostore keeps the trace graph in a single DynamoDB table.
//
// Items are keyed by PK/SK:
//
//	V#<vertex key> / VERTEX   vertices, transactions also carry GSI1PK/GSI1SK
//	E#<edge key>   / EDGE     edges
//	I#<run id>     / IMPORT   import log
//
// Writes use attribute_not_exists(PK), so an existing item is never
// overwritten and a failed condition means inserted=false. External
// transactions are found through index GSI1 with
// GSI1PK = TXFLOW#<external id>#<flow>.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/roach88/tracegraph/internal/ir"
)

// Item sort keys and index names.
const (
	SortVertex = "VERTEX"
	SortEdge   = "EDGE"
	SortImport = "IMPORT"
	FlowIndex  = "GSI1"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	PutItem(ctx context.Context, in *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	GetItem(ctx context.Context, in *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	Query(ctx context.Context, in *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
}

// Store is a graph store on a DynamoDB table.
type Store struct {
	client API
	table  string
}

// New creates a Store using client and table.
func New(client API, table string) *Store {
	return &Store{client: client, table: table}
}

type vertexItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	GSI1PK          string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK          string `dynamodbav:"GSI1SK,omitempty"`
	Key             string `dynamodbav:"key"`
	Kind            string `dynamodbav:"vertex_type"`
	URI             string `dynamodbav:"uid"`
	Provider        string `dynamodbav:"data_provider"`
	Identifiers     string `dynamodbav:"identifiers"`
	Data            string `dynamodbav:"data,omitempty"`
	TransactionType string `dynamodbav:"transaction_type,omitempty"`
	Flow            string `dynamodbav:"transaction_flow,omitempty"`
	ExternalID      string `dynamodbav:"external_id,omitempty"`
	Dummy           bool   `dynamodbav:"dummy,omitempty"`
}

type edgeItem struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	Key      string `dynamodbav:"key"`
	Relation string `dynamodbav:"edge_type"`
	From     string `dynamodbav:"from"`
	To       string `dynamodbav:"to"`
	Provider string `dynamodbav:"data_provider"`
	Flow     string `dynamodbav:"transaction_flow,omitempty"`
}

type importItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	ir.ImportRun
}

// VertexPK returns the partition key of a vertex item.
func VertexPK(key string) string { return "V#" + key }

// EdgePK returns the partition key of an edge item.
func EdgePK(key string) string { return "E#" + key }

// FlowPK returns the index partition key of transactions with the given
// external id and flow.
func FlowPK(externalID string, flow ir.Flow) string {
	return "TXFLOW#" + externalID + "#" + string(flow)
}

// UpsertVertex inserts v unless a vertex with the same key exists.
func (s *Store) UpsertVertex(ctx context.Context, v ir.Vertex) (bool, error) {
	ids, err := ir.MarshalCanonical(identifiersOrEmpty(v.Identifiers))
	if err != nil {
		return false, fmt.Errorf("write vertex: marshal identifiers: %w", err)
	}
	item := vertexItem{
		PK:              VertexPK(v.Key),
		SK:              SortVertex,
		Key:             v.Key,
		Kind:            string(v.Kind),
		URI:             string(v.URI),
		Provider:        v.Provider,
		Identifiers:     string(ids),
		TransactionType: v.TransactionType,
		Flow:            string(v.Flow),
		ExternalID:      v.ExternalID,
		Dummy:           v.Dummy,
	}
	if v.Payload != nil {
		data, err := ir.MarshalCanonical(v.Payload)
		if err != nil {
			return false, fmt.Errorf("write vertex: marshal payload: %w", err)
		}
		item.Data = string(data)
	}
	if v.Kind == ir.KindTransaction && v.Flow != "" && v.ExternalID != "" {
		item.GSI1PK = FlowPK(v.ExternalID, v.Flow)
		item.GSI1SK = v.Key
	}
	return s.putNew(ctx, item)
}

// UpsertEdge inserts e unless an edge with the same key exists.
func (s *Store) UpsertEdge(ctx context.Context, e ir.Edge) (bool, error) {
	return s.putNew(ctx, edgeItem{
		PK:       EdgePK(e.Key),
		SK:       SortEdge,
		Key:      e.Key,
		Relation: string(e.Relation),
		From:     e.From,
		To:       e.To,
		Provider: e.Provider,
		Flow:     string(e.Flow),
	})
}

// RecordImport stores a run in the import log.
func (s *Store) RecordImport(ctx context.Context, run ir.ImportRun) error {
	inserted, err := s.putNew(ctx, importItem{PK: "I#" + run.ID, SK: SortImport, ImportRun: run})
	if err != nil {
		return err
	}
	if !inserted {
		return fmt.Errorf("import run %s already recorded", run.ID)
	}
	return nil
}

// putNew writes item if its PK does not exist yet.
func (s *Store) putNew(ctx context.Context, item any) (bool, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return false, fmt.Errorf("failed to marshal item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return false, nil
		}
		return false, fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}
	return true, nil
}

// ExistsVertex reports whether a vertex with key exists.
func (s *Store) ExistsVertex(ctx context.Context, key string) (bool, error) {
	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: VertexPK(key)},
			"SK": &types.AttributeValueMemberS{Value: SortVertex},
		},
		ProjectionExpression: aws.String("PK"),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get item from DynamoDB: %w", err)
	}
	return len(out.Item) > 0, nil
}

// QueryTransactionsByFlow returns the keys of transactions with the given
// external id and flow, excluding excludeKey, in key order.
func (s *Store) QueryTransactionsByFlow(ctx context.Context, externalID string, flow ir.Flow, excludeKey string) ([]string, error) {
	p := sdk.NewQueryPaginator(s.client, &sdk.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(FlowIndex),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: FlowPK(externalID, flow)},
		},
		ProjectionExpression: aws.String("GSI1SK"),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query transactions: %w", err)
		}
		for _, item := range page.Items {
			var row struct {
				Key string `dynamodbav:"GSI1SK"`
			}
			if err := attributevalue.UnmarshalMap(item, &row); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
			}
			if row.Key != excludeKey {
				keys = append(keys, row.Key)
			}
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func identifiersOrEmpty(ids map[string]any) map[string]any {
	if ids == nil {
		return map[string]any{}
	}
	return ids
}
