package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func traceSetup(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })
	return exp
}

func TestStartSpan_RecordsSpan(t *testing.T) {
	exp := traceSetup(t)

	ctx, span := StartSpan(context.Background(), "resolve question")
	if CorrelationID(ctx) == "" {
		t.Error("expected a trace ID inside the span")
	}
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "resolve question" {
		t.Errorf("unexpected spans: %+v", spans)
	}
}

func TestCorrelationID_NoSpan(t *testing.T) {
	if cid := CorrelationID(context.Background()); cid != "" {
		t.Errorf("expected empty correlation ID, got %q", cid)
	}
}

func TestLogger_WithAndWithoutSpan(t *testing.T) {
	traceSetup(t)

	if Logger(context.Background()) == nil {
		t.Fatal("Logger must never return nil")
	}

	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()
	if Logger(ctx) == nil {
		t.Fatal("Logger must never return nil inside a span")
	}
}
