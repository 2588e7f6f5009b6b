package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// PaymentEvent is the payload sent from the status receiver -> SQS -> worker.
type PaymentEvent struct {
	OrderID               string `json:"order_id"`
	MerchantTransactionID string `json:"merchant_transaction_id"`
	Success               bool   `json:"success"`
	State                 string `json:"state,omitempty"`
	Code                  string `json:"code,omitempty"`
	ProviderTransactionID string `json:"provider_transaction_id,omitempty"`
	// AmountMinor is what the gateway reports as paid, in paise.
	AmountMinor int64 `json:"amount_minor,omitempty"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishPaymentEvent sends ev as a JSON message; attributes carry the ids for filtering.
func (p *Publisher) PublishPaymentEvent(ctx context.Context, ev PaymentEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}
	return p.Send(ctx, string(body), map[string]string{
		"order_id":                ev.OrderID,
		"merchant_transaction_id": ev.MerchantTransactionID,
	})
}

// Send sends a raw message body. Empty attribute values are skipped (SQS rejects them).
func (p *Publisher) Send(ctx context.Context, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
	}
	msgAttrs := map[string]sqstypes.MessageAttributeValue{}
	for k, v := range attributes {
		if v == "" {
			continue
		}
		msgAttrs[k] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: awsString(v),
		}
	}
	if len(msgAttrs) > 0 {
		input.MessageAttributes = msgAttrs
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
