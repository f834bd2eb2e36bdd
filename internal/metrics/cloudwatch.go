package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "StoryAssistant/API"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// MetricPutter is the subset of the CloudWatch API used here
type MetricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatch publishes request and generation metrics to AWS CloudWatch
type CloudWatch struct {
	client      MetricPutter
	enabled     bool
	environment string
	async       bool
}

// NewCloudWatch creates a CloudWatch metrics client. A disabled client
// is returned when enabled is false or AWS config cannot be loaded.
func NewCloudWatch(ctx context.Context, enabled bool, environment string) *CloudWatch {
	if !enabled {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &CloudWatch{environment: environment}
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &CloudWatch{environment: environment}
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)
	return newCloudWatch(cloudwatch.NewFromConfig(cfg), environment, true)
}

func newCloudWatch(client MetricPutter, environment string, async bool) *CloudWatch {
	return &CloudWatch{
		client:      client,
		enabled:     true,
		environment: environment,
		async:       async,
	}
}

// Enabled reports whether metrics are published
func (m *CloudWatch) Enabled() bool {
	return m.enabled
}

// RecordAPIRequest records an API request metric
func (m *CloudWatch) RecordAPIRequest(_ context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	m.run(func(ctx context.Context) {
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := m.dimensions("Endpoint", endpoint)
		m.put(ctx, metricName, 1, types.StandardUnitCount, dimensions)
		m.put(ctx, "APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
	})
}

// RecordGeneration records generation count, latency and tokens
func (m *CloudWatch) RecordGeneration(_ context.Context, sample GenerationSample) {
	if !m.enabled {
		return
	}

	m.run(func(ctx context.Context) {
		dimensions := append(m.dimensions("Model", sample.Model), types.Dimension{
			Name:  aws.String("Outcome"),
			Value: aws.String(sample.Outcome),
		})

		m.put(ctx, "Generations", 1, types.StandardUnitCount, dimensions)
		m.put(ctx, "GenerationDuration", float64(sample.Duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)

		if total := sample.InputTokens + sample.OutputTokens; total > 0 {
			m.put(ctx, "Tokens/Input", float64(sample.InputTokens), types.StandardUnitCount, dimensions)
			m.put(ctx, "Tokens/Output", float64(sample.OutputTokens), types.StandardUnitCount, dimensions)
		}
	})
}

func (m *CloudWatch) run(fn func(ctx context.Context)) {
	if m.async {
		go fn(context.Background())
		return
	}
	fn(context.Background())
}

func (m *CloudWatch) dimensions(name, value string) []types.Dimension {
	return []types.Dimension{
		{
			Name:  aws.String(name),
			Value: aws.String(value),
		},
		{
			Name:  aws.String("Environment"),
			Value: aws.String(m.environment),
		},
	}
}

func (m *CloudWatch) put(ctx context.Context, metricName string, value float64, unit types.StandardUnit, dimensions []types.Dimension) {
	if err := m.putMetric(ctx, metricName, value, unit, dimensions); err != nil {
		log.Printf("Failed to record %s metric: %v", metricName, err)
	}
}

// putMetric sends a metric to CloudWatch
func (m *CloudWatch) putMetric(
	ctx context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	cwCtx, cancel := context.WithTimeout(ctx, cloudwatchTimeoutSeconds*time.Second)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}
