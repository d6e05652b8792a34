// Package metrics exposes the pipeline's OpenTelemetry instruments through a
// Prometheus registry.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

const meterName = "logocluster"

// Outcome labels used with Pipeline.Done.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// NewMeterProvider returns a MeterProvider whose readings are exported to reg.
func NewMeterProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// Pipeline holds the instruments recorded by a pipeline run.
type Pipeline struct {
	domains  metric.Int64Counter
	duration metric.Float64Histogram
	success  metric.Float64Gauge
	clusters metric.Int64Gauge
}

// NewPipeline creates the pipeline instruments on mp. A nil mp records nothing.
func NewPipeline(mp metric.MeterProvider) (*Pipeline, error) {
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter(meterName)

	domains, err := meter.Int64Counter("logocluster_domains",
		metric.WithDescription("Domains processed per stage and outcome."))
	if err != nil {
		return nil, fmt.Errorf("could not create domains counter: %w", err)
	}
	duration, err := meter.Float64Histogram("logocluster_stage_duration",
		metric.WithDescription("Time spent on one domain in one stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create duration histogram: %w", err)
	}
	success, err := meter.Float64Gauge("logocluster_success_rate",
		metric.WithDescription("Fraction of input domains that produced a fingerprint in the last run."))
	if err != nil {
		return nil, fmt.Errorf("could not create success gauge: %w", err)
	}
	clusters, err := meter.Int64Gauge("logocluster_clusters",
		metric.WithDescription("Clusters produced by the last run."))
	if err != nil {
		return nil, fmt.Errorf("could not create clusters gauge: %w", err)
	}

	return &Pipeline{domains: domains, duration: duration, success: success, clusters: clusters}, nil
}

// Done records one domain leaving stage with the given outcome. failure is the
// error kind and is empty on success.
func (p *Pipeline) Done(ctx context.Context, stage, outcome, failure string, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	}
	if failure != "" {
		attrs = append(attrs, attribute.String("failure", failure))
	}
	p.domains.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RunFinished records the aggregate results of a run.
func (p *Pipeline) RunFinished(ctx context.Context, successRate float64, clusters int) {
	p.success.Record(ctx, successRate)
	p.clusters.Record(ctx, int64(clusters))
}
