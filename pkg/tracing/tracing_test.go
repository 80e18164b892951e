package tracing

import (
	"context"
	"os"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestInitTracing_NoEndpoint(t *testing.T) {
	oldEndpoint := os.Getenv("OTLP_ENDPOINT")
	os.Unsetenv("OTLP_ENDPOINT")
	defer func() {
		if oldEndpoint != "" {
			os.Setenv("OTLP_ENDPOINT", oldEndpoint)
		}
	}()

	ctx := context.Background()
	shutdown, err := InitTracing(ctx, "test-version")
	if err != nil {
		t.Fatalf("InitTracing failed: %v", err)
	}
	defer shutdown(ctx)

	if Tracer == nil {
		t.Fatal("Tracer is nil")
	}

	// Operations must work as no-ops without an exporter.
	ctx, span := StartSpan(ctx, "test-span")
	if span == nil {
		t.Fatal("StartSpan returned nil span")
	}
	span.SetAttributes(attribute.String("test", "value"))
	span.SetStatus(codes.Ok, "test")
	span.End()

	RecordError(ctx, nil)
	AddEvent(ctx, "test-event")
	SetAttributes(ctx, attribute.Int("n", 1))
}
