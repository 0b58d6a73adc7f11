package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/oshokin/recall-lens/internal/config"
	"github.com/oshokin/recall-lens/internal/logger"
	"github.com/oshokin/recall-lens/internal/version"
)

// ShutdownFunc flushes pending spans and stops the exporter.
type ShutdownFunc func(ctx context.Context) error

// noop is returned when tracing stays off.
func noop(context.Context) error { return nil }

// Setup exports spans of serviceName to the configured OTLP/HTTP collector and
// registers the W3C trace context propagator. When no endpoint is configured or
// tracing is disabled, nothing is registered and the shutdown is a no-op.
//
// The returned shutdown function must be called before the process exits.
func Setup(ctx context.Context, serviceName string, settings config.Tracing) (ShutdownFunc, error) {
	if settings.Disabled || settings.Endpoint == "" {
		logger.Debug(ctx, "Tracing is disabled")

		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(settings.Endpoint))
	if err != nil {
		return noop, fmt.Errorf("create trace exporter: %w", err)
	}

	shutdown, err := install(ctx, serviceName, sdktrace.WithBatcher(exporter))
	if err != nil {
		return noop, err
	}

	logger.InfoKV(ctx, "Tracing enabled", "endpoint", settings.Endpoint, "service", serviceName)

	return shutdown, nil
}

// install registers a tracer provider built from opts as the global one.
func install(ctx context.Context, serviceName string, opts ...sdktrace.TracerProviderOption) (ShutdownFunc, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Short()),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("describe trace resource: %w", err)
	}

	opts = append(opts,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	provider := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}
