package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta identifies a single supplier call for telemetry purposes.
type CallMeta struct {
	Service       string // Supplier service, e.g. "availability" or "booking" (required)
	Operation     string // Operation within the service, e.g. "search" (optional)
	CorrelationID string // Request correlation id (optional)
	Priority      string // Scheduling priority label (optional)
}

// SpanName returns the deterministic span name for this call.
// Format: supplier.call.<service>.<operation> or supplier.call.<service>
func (m CallMeta) SpanName() string {
	if m.Operation != "" {
		return "supplier.call." + m.Service + "." + m.Operation
	}
	return "supplier.call." + m.Service
}

// Validate checks that the metadata identifies a service.
func (m CallMeta) Validate() error {
	if m.Service == "" {
		return ErrMissingService
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with supplier-call span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a supplier call.
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with call metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	spanName := meta.SpanName()

	// Build attributes
	attrs := []attribute.KeyValue{
		attribute.String("call.service", meta.Service),
		attribute.Bool("call.error", false), // Will be updated in EndSpan if error
	}

	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("call.operation", meta.Operation))
	}
	if meta.CorrelationID != "" {
		attrs = append(attrs, attribute.String("call.correlation_id", meta.CorrelationID))
	}
	if meta.Priority != "" {
		attrs = append(attrs, attribute.String("call.priority", meta.Priority))
	}

	ctx, span := t.tracer.Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("call.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
