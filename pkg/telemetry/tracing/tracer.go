// Package tracing wires the OpenTelemetry SDK to the OTLP gRPC exporter.
//
// New installs a trace provider as the process-global otel provider, so
// instrumented code reaches it through otel.Tracer without holding a
// reference. The orchestrator emits a span per generation with a child
// span per provider attempt; those land here. When tracing is disabled
// nothing is installed and the otel globals stay no-op.
//
// Shutdown flushes buffered spans and must run before process exit:
//
//	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing, logger)
//	if err != nil { ... }
//	defer tracer.Shutdown(context.Background())
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aurora-ml/relay/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials/insecure"
)

// exporterStartTimeout bounds OTLP exporter construction.
const exporterStartTimeout = 10 * time.Second

// Tracer owns the SDK trace provider lifecycle. A disabled tracer is
// inert; Start and Shutdown remain safe to call.
type Tracer struct {
	provider *sdktrace.TracerProvider
	logger   *slog.Logger
	enabled  bool
}

// New configures trace export from cfg. When cfg.Enabled, the returned
// tracer has installed itself as the global otel provider with a
// parent-based trace ID ratio sampler and W3C context propagation.
func New(ctx context.Context, cfg config.TracingConfig, logger *slog.Logger) (*Tracer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "telemetry.tracing")

	if !cfg.Enabled {
		return &Tracer{logger: logger}, nil
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service_name", cfg.ServiceName,
		"sample_ratio", cfg.SampleRatio)

	return &Tracer{
		provider: provider,
		logger:   logger,
		enabled:  true,
	}, nil
}

// Start begins a span under this tracer's provider. Disabled tracers
// return a non-recording span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t.provider == nil {
		return otel.GetTracerProvider().Tracer("relay").Start(ctx, name, opts...)
	}
	return t.provider.Tracer("relay").Start(ctx, name, opts...)
}

// Enabled reports whether spans are exported.
func (t *Tracer) Enabled() bool {
	return t.enabled
}

// Shutdown flushes pending spans and releases the exporter. A no-op for
// disabled tracers.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.enabled || t.provider == nil {
		return nil
	}
	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracing shutdown: %w", err)
	}
	t.logger.Info("tracing stopped")
	return nil
}

func newExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}

	ctx, cancel := context.WithTimeout(ctx, exporterStartTimeout)
	defer cancel()

	client := otlptracegrpc.NewClient(opts...)
	return otlptrace.New(ctx, client)
}

// TraceID returns the active trace ID in ctx, or "" when the span
// context is not valid.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
