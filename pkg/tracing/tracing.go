package tracing

import (
	"context"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "crypto-live-sheet"
	serviceVersion = "1.0.0"

	defaultEndpoint = "localhost:4317"
)

var newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	return otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
}

// InitTracer installs the global tracer provider. Spans are only exported when
// TRACING_ENABLED=true, to OTEL_EXPORTER_OTLP_ENDPOINT, sampled at TRACING_SAMPLE_RATIO.
func InitTracer(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
	opts, err := providerOptions(ctx)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, tp.Tracer(ServiceName), nil
}

// providerOptions is empty when export is disabled; spans are then recorded and dropped.
func providerOptions(ctx context.Context) ([]sdktrace.TracerProviderOption, error) {
	if os.Getenv("TRACING_ENABLED") != "true" {
		return nil, nil
	}

	exporter, err := newTraceExporter(ctx, envOr("OTEL_EXPORTER_OTLP_ENDPOINT", defaultEndpoint))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, err
	}

	return []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio()))),
	}, nil
}

func sampleRatio() float64 {
	ratio, err := strconv.ParseFloat(os.Getenv("TRACING_SAMPLE_RATIO"), 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1
	}
	return ratio
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
