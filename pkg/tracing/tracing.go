// Package tracing wires OpenTelemetry spans around pipeline operations.
package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fraud_simulator"

// Init installs a global tracer provider exporting to otlpEndpoint. With an
// empty endpoint the default no-op provider stays in place. The returned
// function flushes and stops the provider.
func Init(ctx context.Context, otlpEndpoint, serviceName string, logger *slog.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if otlpEndpoint == "" {
		logger.Info("Tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("Tracing enabled", slog.String("endpoint", otlpEndpoint))
	return tp.Shutdown, nil
}

func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

func TraceID(id string) attribute.KeyValue {
	return attribute.String("fraud.trace_id", id)
}

func TransactionID(id string) attribute.KeyValue {
	return attribute.String("fraud.transaction_id", id)
}

func Decision(d string) attribute.KeyValue {
	return attribute.String("fraud.decision", d)
}

func Score(s float64) attribute.KeyValue {
	return attribute.Float64("fraud.score", s)
}

func Status(code int) attribute.KeyValue {
	return attribute.Int("http.response.status_code", code)
}

func ClientKey(key string) attribute.KeyValue {
	return attribute.String("client.address", key)
}
