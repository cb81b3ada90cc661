package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ServiceName identifies this service in trace output
	ServiceName = "dataspool"
	// ServiceVersion is stamped onto every span resource
	ServiceVersion = "1.0.0"
)

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled     bool
	Exporter    string // "stdout" or "none"
	SampleRatio float64
}

// DefaultTracingConfig returns the development defaults: stdout export,
// full sampling.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:     true,
		Exporter:    "stdout",
		SampleRatio: 1.0,
	}
}

// InitializeTracing sets up the global tracer provider and returns a
// tracer plus a shutdown function for graceful termination.
func InitializeTracing(cfg TracingConfig, logger *slog.Logger) (trace.Tracer, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if !cfg.Enabled || cfg.Exporter == "none" {
		return otel.Tracer(ServiceName), noop, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing initialized",
		slog.String("exporter", cfg.Exporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return tp.Tracer(ServiceName), tp.Shutdown, nil
}
