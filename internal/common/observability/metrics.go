package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	commandCounter  otelmetric.Int64Counter
	commandDuration otelmetric.Float64Histogram
	synthesisErrors otelmetric.Int64Counter
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	commandCounter, _ := meter.Int64Counter(
		"commands.processed",
		otelmetric.WithDescription("Number of commands processed"),
	)

	commandDuration, _ := meter.Float64Histogram(
		"commands.duration",
		otelmetric.WithDescription("Command processing duration"),
		otelmetric.WithUnit("ms"),
	)

	synthesisErrors, _ := meter.Int64Counter(
		"synthesis.errors",
		otelmetric.WithDescription("Speech synthesis failures, degraded to text-only"),
	)

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		commandCounter:  commandCounter,
		commandDuration: commandDuration,
		synthesisErrors: synthesisErrors,
	}
}

// RecordCommandProcessed counts one processed command by category and outcome.
func (o *Observability) RecordCommandProcessed(ctx context.Context, category, status string) {
	if o.commandCounter != nil {
		o.commandCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("category", category),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordCommandDuration(ctx context.Context, duration time.Duration, status string) {
	if o.commandDuration != nil {
		o.commandDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordSynthesisError(ctx context.Context) {
	if o.synthesisErrors != nil {
		o.synthesisErrors.Add(ctx, 1)
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
