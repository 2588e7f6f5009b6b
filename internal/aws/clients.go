package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// AWSClients bundles the service clients used by the API and the worker.
type AWSClients struct {
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
}

// NewAWSClients loads AWS config for region and returns concrete service clients.
func NewAWSClients(ctx context.Context, region string) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}

	return &AWSClients{
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
	}, nil
}
