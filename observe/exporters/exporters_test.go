package exporters

import (
	"context"
	"strings"
	"testing"
)

func TestNewTracingExporter_UnknownName(t *testing.T) {
	_, err := NewTracingExporter(context.Background(), "carrier-pigeon")
	if err == nil {
		t.Fatal("NewTracingExporter() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "unknown exporter") {
		t.Errorf("error = %v, want mention of unknown exporter", err)
	}
}

func TestNewTracingExporter_Stdout(t *testing.T) {
	exp, err := NewTracingExporter(context.Background(), "stdout")
	if err != nil {
		t.Fatalf("NewTracingExporter() error = %v", err)
	}
	if exp == nil {
		t.Fatal("exporter is nil")
	}
}

func TestNewTracingExporter_NoneDiscards(t *testing.T) {
	exp, err := NewTracingExporter(context.Background(), "none")
	if err != nil {
		t.Fatalf("NewTracingExporter() error = %v", err)
	}
	if exp == nil {
		t.Fatal("exporter is nil; none must still satisfy the interface")
	}
}

func TestNewTracingExporter_EmptyNameIsNone(t *testing.T) {
	exp, err := NewTracingExporter(context.Background(), "")
	if err != nil {
		t.Fatalf("NewTracingExporter() error = %v", err)
	}
	if exp == nil {
		t.Fatal("exporter is nil")
	}
}

func TestNewTracingExporter_OtlpRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	_, err := NewTracingExporter(context.Background(), "otlp")
	if err == nil {
		t.Fatal("NewTracingExporter() error = nil, want missing-endpoint error")
	}
	if !strings.Contains(err.Error(), "endpoint") {
		t.Errorf("error = %v, want mention of endpoint", err)
	}
}

func TestNewTracingExporter_OtlpWithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")

	exp, err := NewTracingExporter(context.Background(), "otlp")
	if err != nil {
		t.Fatalf("NewTracingExporter() error = %v", err)
	}
	if exp == nil {
		t.Fatal("exporter is nil")
	}
}

func TestNewTracingExporter_SignalSpecificEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "http://localhost:4317")

	if _, err := NewTracingExporter(context.Background(), "otlp"); err != nil {
		t.Fatalf("NewTracingExporter() error = %v", err)
	}
}

func TestNewTracingExporter_JaegerRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	if _, err := NewTracingExporter(context.Background(), "jaeger"); err == nil {
		t.Fatal("NewTracingExporter() error = nil, want missing-endpoint error")
	}
}

func TestNewMetricsReader_Stdout(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "stdout")
	if err != nil {
		t.Fatalf("NewMetricsReader() error = %v", err)
	}
	if reader == nil {
		t.Fatal("reader is nil")
	}
}

func TestNewMetricsReader_Prometheus(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "prometheus")
	if err != nil {
		t.Fatalf("NewMetricsReader() error = %v", err)
	}
	if reader == nil {
		t.Fatal("reader is nil")
	}
}

func TestNewMetricsReader_None(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "none")
	if err != nil {
		t.Fatalf("NewMetricsReader() error = %v", err)
	}
	if reader == nil {
		t.Fatal("reader is nil")
	}
}

func TestNewMetricsReader_OtlpRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	if _, err := NewMetricsReader(context.Background(), "otlp"); err == nil {
		t.Fatal("NewMetricsReader() error = nil, want missing-endpoint error")
	}
}

func TestNewMetricsReader_UnknownName(t *testing.T) {
	_, err := NewMetricsReader(context.Background(), "carrier-pigeon")
	if err == nil {
		t.Fatal("NewMetricsReader() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "unknown") {
		t.Errorf("error = %v, want mention of unknown exporter", err)
	}
}
