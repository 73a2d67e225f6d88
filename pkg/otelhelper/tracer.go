// Package otelhelper provides distributed tracing helpers for pipeline
// monitoring.
package otelhelper

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Common attribute keys.
	PlanNameKey    = "maestro.plan.name"
	ExecutionIDKey = "maestro.execution.id"
	NodeIDKey      = "maestro.node.id"
	StepNameKey    = "maestro.step.name"
	RoleKey        = "maestro.worker.role"
	AttemptKey     = "maestro.node.attempt"
	ProjectIDKey   = "maestro.project.id"
	PhaseKey       = "maestro.project.phase"
)

// NewTracer builds an OTLP-exporting tracer. An empty endpoint falls back
// to the OTEL_EXPORTER_OTLP_ENDPOINT environment variable.
//
// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func NewTracer(ctx context.Context, serviceName, endpoint string) (trace.Tracer, error) {
	provider, err := newTracerProvider(ctx, serviceName, endpoint)
	if err != nil {
		return nil, err
	}

	return provider.Tracer(serviceName), nil
}

// nolint:ireturn,spancheck // Returning interface is intentional for OpenTelemetry tracing
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// SetError marks a span failed: it records err, sets the error status, and
// attaches an event carrying node or plan attributes for the trace viewer.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("attempt_sequence_failed", trace.WithAttributes(attrs...))
}

func newTracerProvider(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	var exporterOpts []otlptracehttp.Option
	if endpoint != "" {
		exporterOpts = append(exporterOpts, otlptracehttp.WithEndpointURL(endpoint))
	}

	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}))

	return tp, nil
}
