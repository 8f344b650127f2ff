package api

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/five82/invoicer/internal/api"

// instruments records request counts and latencies. Attributes are kept to
// operation, method and status class so cardinality stays bounded.
type instruments struct {
	requests metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments(provider metric.MeterProvider) (*instruments, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	requests, err := meter.Int64Counter(
		"invoicer_api_requests_total",
		metric.WithDescription("Backend requests issued by the client"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}
	failures, err := meter.Int64Counter(
		"invoicer_api_failures_total",
		metric.WithDescription("Backend requests that failed in transport or returned an error status"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create failure counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		"invoicer_api_request_duration_seconds",
		metric.WithDescription("Latency of backend requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	return &instruments{requests: requests, failures: failures, duration: duration}, nil
}

func (in *instruments) record(ctx context.Context, op, method string, status int, elapsed time.Duration, failed bool) {
	if in == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("method", method),
		attribute.String("status_class", statusClass(status)),
	)
	in.requests.Add(ctx, 1, attrs)
	in.duration.Record(ctx, elapsed.Seconds(), attrs)
	if failed {
		in.failures.Add(ctx, 1, attrs)
	}
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "transport"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
