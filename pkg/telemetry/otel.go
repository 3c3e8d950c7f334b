// Package telemetry wires optional OpenTelemetry tracing for the SDK and CLI.
package telemetry

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// EndpointEnv names the OTLP/HTTP collector URL. Empty disables tracing.
	EndpointEnv = "FUNDME_OTEL_ENDPOINT"
	// EnabledEnv set to "false" disables tracing even with an endpoint.
	EnabledEnv = "FUNDME_OTEL_ENABLED"
)

// Setup installs a global tracer provider exporting to $FUNDME_OTEL_ENDPOINT.
// Without an endpoint it returns a no-op shutdown and leaves the global
// provider untouched. Callers defer the returned shutdown to flush spans.
func Setup(ctx context.Context, serviceName, version string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if strings.EqualFold(os.Getenv(EnabledEnv), "false") {
		return noop, nil
	}
	endpoint := os.Getenv(EndpointEnv)
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, err
	}

	attrs := resource.WithAttributes(semconv.ServiceName(serviceName))
	if version != "" {
		attrs = resource.WithAttributes(semconv.ServiceName(serviceName), semconv.ServiceVersion(version))
	}
	res, err := resource.New(ctx, attrs)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
