package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imrishuroy/go-storefront/internal/aws"
)

var (
	// ErrNotFound is returned by updates on an order id that is not in the table.
	ErrNotFound = errors.New("order not found")
	// ErrExists is returned when an order id is written twice.
	ErrExists = errors.New("order already exists")
	// ErrIdempotencyKeyExists means the checkout was already submitted with this key.
	ErrIdempotencyKeyExists = errors.New("idempotency key already used")
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Put stores a new order record. Writing an existing order id fails with ErrExists.
func (s *Store) Put(ctx context.Context, rec Record) error {
	item, err := s.marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrExists
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// PutWithIdempotency atomically creates the idempotency record (only if its key is new) and
// the order record. A reused key fails with ErrIdempotencyKeyExists.
func (s *Store) PutWithIdempotency(ctx context.Context, idempotencyTable string, idempotencyItem interface{}, rec Record, ttlWindow time.Duration) error {
	idempMap, err := attributevalue.MarshalMap(idempotencyItem)
	if err != nil {
		return fmt.Errorf("marshal idempotency item: %w", err)
	}
	if _, ok := idempMap["expires_at"]; !ok && ttlWindow > 0 {
		expires := s.nowFunc().Add(ttlWindow).Unix()
		idempMap["expires_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expires)}
	}

	orderMap, err := s.marshal(rec)
	if err != nil {
		return err
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &idempotencyTable,
					Item:                idempMap,
					ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                orderMap,
					ConditionExpression: awsString("attribute_not_exists(order_id)"),
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("%w: %v", ErrIdempotencyKeyExists, err)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches a record by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       orderKey(orderID),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &rec, nil
}

// SetStatus replaces the status with any value; the previous status is not checked.
// Returns ErrNotFound when the order does not exist.
func (s *Store) SetStatus(ctx context.Context, orderID string, status Status) error {
	return s.update(ctx, orderID, "SET #s = :new, updated_at = :ua",
		map[string]string{"#s": "status"},
		map[string]types.AttributeValue{":new": &types.AttributeValueMemberS{Value: string(status)}})
}

// RecordPayment remembers the latest payment attempt for the order.
func (s *Store) RecordPayment(ctx context.Context, orderID, merchantTransactionID string) error {
	return s.update(ctx, orderID, "SET last_transaction_id = :txn, updated_at = :ua", nil,
		map[string]types.AttributeValue{":txn": &types.AttributeValueMemberS{Value: merchantTransactionID}})
}

// IncrementAttempts increases the failed payment attempt counter by 1.
func (s *Store) IncrementAttempts(ctx context.Context, orderID string) error {
	return s.update(ctx, orderID, "SET attempts = if_not_exists(attempts, :zero) + :inc, updated_at = :ua", nil,
		map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
		})
}

func (s *Store) update(ctx context.Context, orderID, expr string, names map[string]string, values map[string]types.AttributeValue) error {
	values[":ua"] = &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)}
	input := &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       orderKey(orderID),
		UpdateExpression:          &expr,
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("attribute_exists(order_id)"),
		ReturnValues:              types.ReturnValueUpdatedNew,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrNotFound
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (s *Store) marshal(rec Record) (map[string]types.AttributeValue, error) {
	now := s.nowFunc().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal order item: %w", err)
	}
	return item, nil
}

func orderKey(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
}

func awsString(s string) *string { return &s }
