package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records completion write outcomes.
type Metrics struct {
	aggregateLatency   metric.Float64Histogram
	aggregateConflicts metric.Int64Counter
	aggregateRetries   metric.Int64Counter
	submissions        metric.Int64Counter
	httpLatency        metric.Float64Histogram
}

// NewMetrics creates the instruments on the global meter provider, so InitOTel
// must run first for them to be exported.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithProvider(otel.GetMeterProvider())
}

func NewMetricsWithProvider(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	latency, err := meter.Float64Histogram(
		"completion.aggregate.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration of aggregate write transactions."),
	)
	if err != nil {
		return nil, err
	}
	conflicts, err := meter.Int64Counter("completion.aggregate.conflicts")
	if err != nil {
		return nil, err
	}
	retries, err := meter.Int64Counter("completion.aggregate.retries")
	if err != nil {
		return nil, err
	}
	submissions, err := meter.Int64Counter(
		"completion.submissions",
		metric.WithDescription("Completion submissions by kind and outcome."),
	)
	if err != nil {
		return nil, err
	}
	httpLatency, err := meter.Float64Histogram(
		"completion.http.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("HTTP request latency by route and status."),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{
		httpLatency:        httpLatency,
		aggregateLatency:   latency,
		aggregateConflicts: conflicts,
		aggregateRetries:   retries,
		submissions:        submissions,
	}, nil
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateLatency.Record(context.Background(), float64(dur)/float64(time.Millisecond),
		metric.WithAttributes(attribute.String("operation", name), attribute.String("status", status)))
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Add(context.Background(), 1, metric.WithAttributes(attribute.String("operation", name)))
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Add(context.Background(), 1, metric.WithAttributes(attribute.String("operation", name)))
}

// IncSubmission counts one submission. kind is "single" or "batch"; outcome is
// created, updated, unchanged, or an error code.
func (m *Metrics) IncSubmission(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind), attribute.String("outcome", outcome)))
}

func (m *Metrics) ObserveHTTP(ctx context.Context, method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpLatency.Record(ctx, float64(dur)/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	))
}
