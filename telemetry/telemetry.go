// Package telemetry installs the OpenTelemetry tracer provider used by the
// retriever spans.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Exporter names accepted by Setup.
const (
	ExporterNone   = ""
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type Config struct {
	// Exporter selects where spans go; empty disables tracing.
	Exporter string
	// Endpoint is the OTLP/HTTP collector URL. Empty falls back to the
	// OTEL_EXPORTER_OTLP_* environment variables.
	Endpoint string
	// Writer receives stdout exporter output.
	Writer io.Writer
}

type Telemetry struct {
	TracerProvider *trace.TracerProvider
}

// Shutdown flushes pending spans. It is a no-op when tracing is disabled.
func (t Telemetry) Shutdown(ctx context.Context) error {
	if t.TracerProvider == nil {
		return nil
	}
	return t.TracerProvider.Shutdown(ctx)
}

// Setup builds a tracer provider for cfg and installs it globally.
func Setup(ctx context.Context, serviceName string, cfg Config) (Telemetry, error) {
	if cfg.Exporter == ExporterNone {
		return Telemetry{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return Telemetry{}, err
	}

	opt, err := exporterOption(ctx, cfg)
	if err != nil {
		return Telemetry{}, err
	}

	tp := trace.NewTracerProvider(opt, trace.WithResource(r))
	otel.SetTracerProvider(tp)
	return Telemetry{TracerProvider: tp}, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func exporterOption(ctx context.Context, cfg Config) (trace.TracerProviderOption, error) {
	switch cfg.Exporter {
	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = io.Discard
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		return trace.WithSyncer(exporter), nil
	case ExporterOTLP:
		var opts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		return trace.WithBatcher(exporter), nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.Exporter)
	}
}
