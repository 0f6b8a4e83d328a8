package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTracer_NoEndpoint(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{ServiceVersion: "test"})
	defer func() { _ = shutdown(context.Background()) }()

	if tracer == nil {
		t.Fatal("NewTracer() returned nil")
	}
	if tracer.config.ServiceName != "promptbot" {
		t.Errorf("default service name = %q", tracer.config.ServiceName)
	}

	_, span := tracer.Start(context.Background(), "noop")
	span.End()
}

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewTracerFromProvider(tp, "test"), recorder
}

func TestTraceEvent(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.TraceEvent(context.Background(), "command", "req-1")
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "event.command" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v", spans[0].SpanKind())
	}
}

func TestTraceAIRequest_RecordError(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.TraceAIRequest(context.Background(), "openai", "image", "dall-e-2")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name() != "ai.openai.image" {
		t.Errorf("span name = %q", got.Name())
	}
	if got.Status().Code != codes.Error {
		t.Errorf("span status = %v, want error", got.Status().Code)
	}
	if len(got.Events()) != 1 {
		t.Errorf("expected one recorded error event, got %d", len(got.Events()))
	}
}

func TestNilTracerStart(t *testing.T) {
	var tracer *Tracer
	_, span := tracer.Start(context.Background(), "nil")
	span.End()
}
