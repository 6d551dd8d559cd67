// Package observe holds the OpenTelemetry instrumentation for the client:
// request and error counters, latency histograms, and token usage counters,
// all labeled by provider and operation.
package observe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dautroc/synapse-ai"

// Metrics bundles the instruments recorded around provider calls.
type Metrics struct {
	// Requests counts provider calls, labeled by provider and operation.
	Requests metric.Int64Counter

	// Errors counts calls that produced a failure response.
	Errors metric.Int64Counter

	// RequestDuration measures call latency in seconds.
	RequestDuration metric.Float64Histogram

	// PromptTokens counts prompt tokens reported by providers.
	PromptTokens metric.Int64Counter

	// CompletionTokens counts completion tokens reported by providers.
	CompletionTokens metric.Int64Counter
}

// NewMetrics creates the instrument set on the given meter provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	requests, err := meter.Int64Counter("ai.client.requests",
		metric.WithDescription("Number of provider calls"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, fmt.Errorf("create requests counter: %w", err)
	}

	errs, err := meter.Int64Counter("ai.client.errors",
		metric.WithDescription("Number of provider calls that returned a failure"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, fmt.Errorf("create errors counter: %w", err)
	}

	duration, err := meter.Float64Histogram("ai.client.request.duration",
		metric.WithDescription("Provider call latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	promptTokens, err := meter.Int64Counter("ai.client.tokens.prompt",
		metric.WithDescription("Prompt tokens reported by providers"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, fmt.Errorf("create prompt tokens counter: %w", err)
	}

	completionTokens, err := meter.Int64Counter("ai.client.tokens.completion",
		metric.WithDescription("Completion tokens reported by providers"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, fmt.Errorf("create completion tokens counter: %w", err)
	}

	return &Metrics{
		Requests:         requests,
		Errors:           errs,
		RequestDuration:  duration,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// DefaultMetrics returns the process-wide Metrics backed by the global OTel
// meter provider. Instrument creation on the global provider cannot fail.
func DefaultMetrics() *Metrics {
	defaultOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic(fmt.Sprintf("observe: create default metrics: %v", err))
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordRequest records one provider call: the request counter, latency, and
// the error counter when the call failed.
func (m *Metrics) RecordRequest(ctx context.Context, providerName, op string, d time.Duration, failed bool) {
	attrs := metric.WithAttributes(
		attribute.String("provider", providerName),
		attribute.String("operation", op),
	)
	m.Requests.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, d.Seconds(), attrs)
	if failed {
		m.Errors.Add(ctx, 1, attrs)
	}
}

// RecordTokens records provider-reported token usage. Nil counts are counts
// the vendor did not report and are skipped.
func (m *Metrics) RecordTokens(ctx context.Context, providerName, op string, prompt, completion *int64) {
	attrs := metric.WithAttributes(
		attribute.String("provider", providerName),
		attribute.String("operation", op),
	)
	if prompt != nil {
		m.PromptTokens.Add(ctx, *prompt, attrs)
	}
	if completion != nil {
		m.CompletionTokens.Add(ctx, *completion, attrs)
	}
}
