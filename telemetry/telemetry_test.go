package telemetry

import (
	"bytes"
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetupDisabled(t *testing.T) {
	tel, err := Setup(context.Background(), "tse-id", Config{})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if tel.TracerProvider != nil {
		t.Fatalf("no provider expected when tracing is disabled")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tel, err := Setup(context.Background(), "tse-id", Config{Exporter: ExporterStdout, Writer: &buf})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if otel.GetTracerProvider() != tel.TracerProvider {
		t.Fatalf("provider was not installed globally")
	}

	_, span := otel.Tracer("test").Start(context.Background(), "FetchPage")
	span.End()
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte(`"Name":"FetchPage"`)) {
		t.Fatalf("span not exported:\n%s", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"Value":"tse-id"`)) {
		t.Fatalf("service name missing from resource:\n%s", out)
	}
}

func TestSetupRejectsUnknownExporter(t *testing.T) {
	if _, err := Setup(context.Background(), "tse-id", Config{Exporter: "zipkin"}); err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}
