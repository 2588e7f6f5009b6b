package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/orders"
)

// Metric names emitted by the worker.
const (
	MetricOrderConfirmed       = "OrderConfirmed"
	MetricPaymentAttemptFailed = "PaymentAttemptFailed"
	MetricPaymentMismatch      = "PaymentMismatch"
)

// Processor applies payment events from the status receiver to the durable order records.
type Processor struct {
	orderStore *orders.Store
	metrics    *aws.Metrics
}

// NewProcessor creates a processor writing to ordersTable. metrics may be nil.
func NewProcessor(clients *aws.AWSClients, ordersTable string, metrics *aws.Metrics) *Processor {
	return &Processor{
		orderStore: orders.NewStore(clients.DynamoDB, ordersTable),
		metrics:    metrics,
	}
}

// Handle processes an SQS batch. Messages that fail transiently are reported back so only
// they are redelivered; malformed messages and unknown orders are logged and dropped.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			log.Printf("[worker] message=%s: %v", rec.MessageId, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg aws.PaymentEvent
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		log.Printf("[worker] dropping malformed message=%s: %v", rec.MessageId, err)
		return nil
	}
	if msg.OrderID == "" {
		log.Printf("[worker] dropping message=%s without order id", rec.MessageId)
		return nil
	}

	log.Printf("[worker] received order=%s txn=%s success=%t state=%s",
		msg.OrderID, msg.MerchantTransactionID, msg.Success, msg.State)

	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("fetch order: %w", err)
	}
	if order == nil {
		log.Printf("[worker] unknown order=%s, skipping", msg.OrderID)
		return nil
	}

	if order.LastTransactionID == "" || order.LastTransactionID != msg.MerchantTransactionID {
		log.Printf("[worker] order=%s txn=%s is not its latest attempt (%q), skipping",
			msg.OrderID, msg.MerchantTransactionID, order.LastTransactionID)
		p.count(ctx, MetricPaymentMismatch)
		return nil
	}

	if err := p.apply(ctx, order, msg); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			log.Printf("[worker] order=%s vanished, skipping", msg.OrderID)
			return nil
		}
		return err
	}
	return nil
}

// apply moves a Placed order to Confirmed when the full amount was paid and counts the
// attempt on failure. Orders already past Placed are left alone, so a late or redelivered
// event never moves an order backwards.
func (p *Processor) apply(ctx context.Context, order *orders.Record, msg aws.PaymentEvent) error {
	if current := orders.Status(order.Status); current != orders.StatusPlaced {
		log.Printf("[worker] order=%s already %s, status left unchanged", msg.OrderID, current)
		return nil
	}

	if msg.Success && msg.AmountMinor != order.AmountMinor {
		log.Printf("[worker] order=%s paid %d paise, expected %d, left Placed",
			msg.OrderID, msg.AmountMinor, order.AmountMinor)
		p.count(ctx, MetricPaymentMismatch)
		return nil
	}
	if msg.Success {
		if err := p.orderStore.SetStatus(ctx, msg.OrderID, orders.StatusConfirmed); err != nil {
			return fmt.Errorf("confirm order: %w", err)
		}
		p.count(ctx, MetricOrderConfirmed)
		log.Printf("[worker] confirmed order=%s", msg.OrderID)
		return nil
	}

	if err := p.orderStore.IncrementAttempts(ctx, msg.OrderID); err != nil {
		return fmt.Errorf("count failed attempt: %w", err)
	}
	p.count(ctx, MetricPaymentAttemptFailed)
	log.Printf("[worker] payment failed for order=%s, left Placed", msg.OrderID)
	return nil
}

func (p *Processor) count(ctx context.Context, name string) {
	if err := p.metrics.Count(ctx, name, 1, nil); err != nil {
		log.Printf("[metrics] %s: %v", name, err)
	}
}
