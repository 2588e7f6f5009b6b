package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics publishes counters to CloudWatch. A nil *Metrics is valid and records nothing.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{client: client, namespace: namespace, nowFunc: time.Now}
}

// Count records value for the named metric with optional dimensions.
func (m *Metrics) Count(ctx context.Context, name string, value float64, dims map[string]string) error {
	if m == nil || m.client == nil {
		return nil
	}
	datum := cwtypes.MetricDatum{
		MetricName: sdkaws.String(name),
		Unit:       cwtypes.StandardUnitCount,
		Value:      sdkaws.Float64(value),
		Timestamp:  sdkaws.Time(m.nowFunc()),
	}
	for k, v := range dims {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(v)})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("put metric %s: %w", name, err)
	}
	return nil
}
