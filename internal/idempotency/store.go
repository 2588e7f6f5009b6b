package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-storefront/internal/aws"
)

// DefaultTTL is how long a key is remembered.
const DefaultTTL = 48 * time.Hour

// Store encapsulates idempotency operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a configured Store. A zero ttlWindow means DefaultTTL.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	if ttlWindow <= 0 {
		ttlWindow = DefaultTTL
	}
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Table is the DynamoDB table the store writes to.
func (s *Store) Table() string { return s.tableName }

// NewRecord builds a fresh IN_PROGRESS record for key, expiring after the store's TTL window.
func (s *Store) NewRecord(key, orderID, requestHash string) Record {
	now := s.nowFunc()
	return Record{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		OrderID:        orderID,
		RequestHash:    requestHash,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}
}

// Fingerprint hashes a request body so a reused key with a different body can be told apart.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Begin claims key for a new request. created is true when the caller owns the key and must
// finish with MarkDone or MarkFailed. Otherwise the existing record is returned for the caller
// to inspect. A FAILED record is reclaimed so the client can retry with the same key.
func (s *Store) Begin(ctx context.Context, key, orderID, requestHash string) (rec *Record, created bool, err error) {
	created, err = s.CreateIfNotExists(ctx, key, orderID, requestHash)
	if err != nil || created {
		return nil, created, err
	}

	rec, err = s.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		// expired between the conditional put and the read
		return nil, false, fmt.Errorf("idempotency record %q vanished", key)
	}
	if rec.Status == StatusFailed && rec.SameRequest(requestHash) {
		reclaimed, err := s.reclaim(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if reclaimed {
			return nil, true, nil
		}
	}
	return rec, false, nil
}

// CreateIfNotExists creates an idempotency record with status IN_PROGRESS if the key does not exist.
// Returns (true, nil) if created, (false, nil) if the record already exists.
func (s *Store) CreateIfNotExists(ctx context.Context, key, orderID, requestHash string) (bool, error) {
	item, err := attributevalue.MarshalMap(s.NewRecord(key, orderID, requestHash))
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

// Get retrieves an idempotency record by key. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       recordKey(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkDone sets status to DONE and stores the response replayed to later requests with the key.
func (s *Store) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              recordKey(key),
		UpdateExpression: awsString("SET #s = :done, response_body = :rb, response_status = :rs, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":done": &types.AttributeValueMemberS{Value: StatusDone},
			":rb":   &types.AttributeValueMemberS{Value: responseBody},
			":rs":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", responseStatus)},
			":ua":   s.stamp(),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("update item (mark done): %w", err)
	}
	return nil
}

// MarkFailed marks the record FAILED with a note; the key can then be retried.
func (s *Store) MarkFailed(ctx context.Context, key, note string) error {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              recordKey(key),
		UpdateExpression: awsString("SET #s = :failed, note = :n, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed": &types.AttributeValueMemberS{Value: StatusFailed},
			":n":      &types.AttributeValueMemberS{Value: note},
			":ua":     s.stamp(),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("update item (mark failed): %w", err)
	}
	return nil
}

// reclaim moves a FAILED record back to IN_PROGRESS. Only one concurrent caller wins.
func (s *Store) reclaim(ctx context.Context, key string) (bool, error) {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:           &s.tableName,
		Key:                 recordKey(key),
		UpdateExpression:    awsString("SET #s = :inprogress, updated_at = :ua"),
		ConditionExpression: awsString("#s = :failed"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inprogress": &types.AttributeValueMemberS{Value: StatusInProgress},
			":failed":     &types.AttributeValueMemberS{Value: StatusFailed},
			":ua":         s.stamp(),
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("update item (reclaim): %w", err)
	}
	return true, nil
}

func (s *Store) stamp() types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)}
}

func isConditionFailed(err error) bool {
	var sc smithy.APIError
	return errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException"
}

func recordKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: key},
	}
}

func awsString(s string) *string { return &s }
