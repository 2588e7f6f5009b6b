package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/config"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.OrdersTable == "" {
		log.Fatalf("ORDERS_TABLE is required")
	}

	clients, err := aws.NewAWSClients(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}
	p := NewProcessor(clients, cfg.OrdersTable, aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace))

	// RUN_LOCAL=true feeds one message from LOCAL_SQS_BODY through the processor and exits.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"order_id":"local-order-1","merchant_transaction_id":"local-order-1-1700000000000","success":true}`
		}
		event := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local-1", Body: body}}}
		resp, err := p.Handle(ctx, event)
		if err != nil || len(resp.BatchItemFailures) > 0 {
			log.Fatalf("local handler failed: err=%v failures=%d", err, len(resp.BatchItemFailures))
		}
		return
	}

	lambda.Start(p.Handle)
}
