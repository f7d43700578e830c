package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"phishcheck/internal/config"

	"github.com/rs/zerolog/log"
)

var (
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *metric.MeterProvider
)

// Shutdown flushes and stops the providers installed by InitTelemetry.
type Shutdown func(context.Context) error

// InitTelemetry installs global OpenTelemetry tracer and meter providers.
// Spans go to the OTLP gRPC endpoint; metrics are exported through the
// default Prometheus registry and served at /otel-metrics. When disabled
// it returns a no-op shutdown and the global no-op providers stay in place.
func InitTelemetry(ctx context.Context, cfg config.TelemetryConfig, serviceVersion string) (Shutdown, error) {
	if !cfg.Enabled {
		log.Debug().Msg("OpenTelemetry disabled")
		return func(context.Context) error { return nil }, nil
	}
	serviceName := cfg.ServiceName

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
		resource.WithHost(),
		resource.WithOS(),
		resource.WithProcess(),
		resource.WithContainer(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tracerShutdown, err := initTracing(ctx, res, endpoint(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	metricsShutdown, err := initMetrics(ctx, res)
	if err != nil {
		_ = tracerShutdown(ctx)
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	log.Info().
		Str("service", serviceName).
		Str("version", serviceVersion).
		Msg("OpenTelemetry initialized")

	return func(ctx context.Context) error {
		var errs []error
		if err := tracerShutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown tracer")
			errs = append(errs, err)
		}
		if err := metricsShutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown metrics")
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}, nil
}

// endpoint prefers OTEL_EXPORTER_OTLP_ENDPOINT over the configured value.
func endpoint(cfg config.TelemetryConfig) string {
	if env := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); env != "" {
		return env
	}
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	return "localhost:4317"
}

func initTracing(ctx context.Context, res *resource.Resource, otlpEndpoint string) (func(context.Context) error, error) {
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter,
			sdktrace.WithBatchTimeout(time.Second),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tracerProvider)

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	log.Info().
		Str("endpoint", otlpEndpoint).
		Msg("OTLP trace exporter configured")

	return tracerProvider.Shutdown, nil
}

func initMetrics(ctx context.Context, res *resource.Resource) (func(context.Context) error, error) {
	prometheusExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	meterProvider = metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(prometheusExporter),
	)

	otel.SetMeterProvider(meterProvider)

	log.Info().Msg("Prometheus metrics exporter configured")

	return meterProvider.Shutdown, nil
}

func GetTracerProvider() *sdktrace.TracerProvider {
	return tracerProvider
}

func GetMeterProvider() *metric.MeterProvider {
	return meterProvider
}
