package boon

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// newTracer returns a tracer for per-tick spans, tagged with instanceID so
// concurrently-held engines in one process (e.g. a test suite) are
// distinguishable in exported traces. With no OTLP endpoint configured, it
// uses an SDK provider with no exporter wired (spans are created and ended
// but never shipped anywhere), which keeps the instrumentation live without
// forcing every embedder to stand up a collector.
func newTracer(name, otlpEndpoint, instanceID string) trace.Tracer {
	res := resource.NewSchemaless(
		attribute.String("service.name", name),
		attribute.String("boon.instance_id", instanceID),
	)

	var opts []sdktrace.TracerProviderOption
	opts = append(opts, sdktrace.WithResource(res))
	if otlpEndpoint != "" {
		exp, err := otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(otlpEndpoint),
		)
		if err != nil {
			log.Printf("boon: otlp exporter init failed, falling back to no-op tracing: %v", err)
		} else {
			opts = append(opts, sdktrace.WithBatcher(exp))
		}
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	return provider.Tracer(name)
}

// startTickSpan opens a span for one Engine.Tick call, annotated with the
// dirty-set size observed at tick start.
func startTickSpan(ctx context.Context, tracer trace.Tracer, dirtyCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "boon.tick", trace.WithAttributes(
		attribute.Int("boon.dirty_slots", dirtyCount),
	))
}
