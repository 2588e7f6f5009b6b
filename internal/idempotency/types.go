package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Record is the shape persisted in the idempotency DynamoDB table. One record guards one
// Idempotency-Key sent by a client for a payment initiation.
type Record struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	Status         string    `dynamodbav:"status"`
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	RequestHash    string    `dynamodbav:"request_hash,omitempty"`
	ResponseBody   string    `dynamodbav:"response_body,omitempty"`
	ResponseStatus int       `dynamodbav:"response_status,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}

// SameRequest reports whether hash fingerprints the request that created the record. Records
// written without a hash match anything.
func (r *Record) SameRequest(hash string) bool {
	return r.RequestHash == "" || r.RequestHash == hash
}
