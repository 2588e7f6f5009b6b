package orders

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo keeps items per table: table -> pk -> item. It understands the handful of
// condition and update expressions the orders store issues.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
	err    error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func (m *mockDynamo) ensureTable(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

func primaryKey(item map[string]types.AttributeValue) (string, error) {
	for _, name := range []string{"idempotency_key", "order_id"} {
		if v, ok := item[name].(*types.AttributeValueMemberS); ok {
			return v.Value, nil
		}
	}
	return "", errors.New("no primary key")
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	table := *params.TableName
	m.ensureTable(table)
	pk, err := primaryKey(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil {
		if _, exists := m.tables[table][pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.tables[table][pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	table := *params.TableName
	m.ensureTable(table)
	pk, err := primaryKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[table][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	table := *params.TableName
	m.ensureTable(table)
	pk, err := primaryKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.tables[table][pk]
	if !exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	vals := params.ExpressionAttributeValues
	if v, ok := vals[":ua"]; ok {
		item["updated_at"] = v
	}
	if v, ok := vals[":new"]; ok {
		item["status"] = v
	}
	if v, ok := vals[":txn"]; ok {
		item["last_transaction_id"] = v
	}
	if _, ok := vals[":inc"]; ok {
		n := 0
		if cur, ok := item["attempts"].(*types.AttributeValueMemberN); ok {
			n, _ = strconv.Atoi(cur.Value)
		}
		item["attempts"] = &types.AttributeValueMemberN{Value: strconv.Itoa(n + 1)}
	}
	m.tables[table][pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	// verify every condition before applying anything
	for _, it := range params.TransactItems {
		p := it.Put
		if p == nil || p.ConditionExpression == nil {
			continue
		}
		table := *p.TableName
		m.ensureTable(table)
		pk, err := primaryKey(p.Item)
		if err != nil {
			return nil, err
		}
		if _, exists := m.tables[table][pk]; exists {
			return nil, &types.TransactionCanceledException{}
		}
	}
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			pk, _ := primaryKey(p.Item)
			m.tables[*p.TableName][pk] = p.Item
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}
