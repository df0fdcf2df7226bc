// Package telemetry installs the global OpenTelemetry tracer provider.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// Options selects where spans go. An empty Endpoint disables export.
type Options struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
}

// Setup returns the provider's shutdown func. Without an endpoint, or when the exporter
// cannot be built, tracing stays on the global no-op provider.
func Setup(ctx context.Context, opts Options, log *zap.Logger) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if opts.Endpoint == "" {
		log.Info("tracing disabled: no OTLP endpoint configured")
		return noop
	}

	exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		log.Warn("otel exporter error, tracing disabled", zap.Error(err))
		return noop
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(opts.ServiceName)))
	if err != nil {
		log.Warn("otel resource error", zap.Error(err))
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	log.Info("tracing enabled", zap.String("endpoint", opts.Endpoint), zap.String("service", opts.ServiceName))
	return provider.Shutdown
}
