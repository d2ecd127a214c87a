// Package cloudwatch ships metric batches to AWS CloudWatch.
package cloudwatch

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
)

// Sink submits metric batches via PutMetricData. The upstream batch ceiling
// keeps every call within the API's record limit.
type Sink struct {
	client *cloudwatch.Client
}

// New builds a sink from the ambient AWS configuration (env, shared config,
// instance role).
func New(ctx context.Context) (*Sink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Sink{client: cloudwatch.NewFromConfig(cfg)}, nil
}

func (s *Sink) Submit(ctx context.Context, namespace string, batch []domain.MetricRecord) error {
	data := make([]types.MetricDatum, 0, len(batch))
	for _, m := range batch {
		data = append(data, types.MetricDatum{
			MetricName: aws.String(m.Dimension),
			Dimensions: []types.Dimension{
				{Name: aws.String("Target"), Value: aws.String(m.Name)},
			},
			Value:     aws.Float64(m.Value),
			Unit:      types.StandardUnit(m.Unit),
			Timestamp: aws.Time(m.Timestamp),
		})
	}
	if _, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(namespace),
		MetricData: data,
	}); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
