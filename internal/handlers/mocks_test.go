package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// mockDynamo is an in-memory table set keyed by order_id or idempotency_key. It evaluates
// the small set of SET and condition expressions the stores issue.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := m.tables[name]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		m.tables[name] = t
	}
	return t
}

func (m *mockDynamo) item(table, pk string) map[string]types.AttributeValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table(table)[pk]
}

func keyOf(item map[string]types.AttributeValue) (string, error) {
	for _, name := range []string{"idempotency_key", "order_id"} {
		if v, ok := item[name].(*types.AttributeValueMemberS); ok {
			return v.Value, nil
		}
	}
	return "", errors.New("no primary key")
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := keyOf(in.Item)
	if err != nil {
		return nil, err
	}
	t := m.table(*in.TableName)
	if _, exists := t[pk]; exists && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{}
	}
	t[pk] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	return &dyn.GetItemOutput{Item: m.table(*in.TableName)[pk]}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	t := m.table(*in.TableName)
	item, exists := t[pk]

	resolve := func(name string) string {
		if n, ok := in.ExpressionAttributeNames[name]; ok {
			return n
		}
		return name
	}
	if in.ConditionExpression != nil {
		cond := *in.ConditionExpression
		switch {
		case strings.HasPrefix(cond, "attribute_exists"):
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case strings.Contains(cond, " = "):
			parts := strings.SplitN(cond, " = ", 2)
			cur, _ := item[resolve(parts[0])].(*types.AttributeValueMemberS)
			want, _ := in.ExpressionAttributeValues[parts[1]].(*types.AttributeValueMemberS)
			if !exists || cur == nil || want == nil || cur.Value != want.Value {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	if !exists {
		item = map[string]types.AttributeValue{}
		for k, v := range in.Key {
			item[k] = v
		}
	}

	for _, assign := range strings.Split(strings.TrimPrefix(*in.UpdateExpression, "SET "), ", ") {
		parts := strings.SplitN(assign, " = ", 2)
		if len(parts) < 2 {
			continue
		}
		attr, expr := resolve(parts[0]), parts[1]
		if strings.Contains(expr, "if_not_exists") {
			n := 0
			if cur, ok := item[attr].(*types.AttributeValueMemberN); ok {
				n, _ = strconv.Atoi(cur.Value)
			}
			item[attr] = &types.AttributeValueMemberN{Value: strconv.Itoa(n + 1)}
			continue
		}
		item[attr] = in.ExpressionAttributeValues[expr]
	}
	t[pk] = item
	return &dyn.UpdateItemOutput{}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range in.TransactItems {
		pk, err := keyOf(it.Put.Item)
		if err != nil {
			return nil, err
		}
		if _, exists := m.table(*it.Put.TableName)[pk]; exists {
			return nil, &types.TransactionCanceledException{}
		}
	}
	for _, it := range in.TransactItems {
		pk, _ := keyOf(it.Put.Item)
		m.table(*it.Put.TableName)[pk] = it.Put.Item
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

type mockSQS struct {
	mu     sync.Mutex
	bodies []string
}

func (m *mockSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, *in.MessageBody)
	return &sqs.SendMessageOutput{}, nil
}

type mockCloudWatch struct {
	mu    sync.Mutex
	names []string
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range in.MetricData {
		m.names = append(m.names, *d.MetricName)
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (m *mockCloudWatch) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.names...)
}

// fakeGateway answers pay calls with payBody and status calls with statusBody.
type fakeGateway struct {
	payCalls    atomic.Int32
	statusCalls atomic.Int32
	payStatus   int
	payBody     string
	statusCode  int
	statusBody  string
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if strings.HasPrefix(r.URL.Path, "/pg/v1/status/") {
		g.statusCalls.Add(1)
		w.WriteHeader(g.statusCode)
		_, _ = w.Write([]byte(g.statusBody))
		return
	}
	g.payCalls.Add(1)
	w.WriteHeader(g.payStatus)
	_, _ = w.Write([]byte(g.payBody))
}
