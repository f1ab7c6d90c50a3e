package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// DatabaseSpanAttributes describes one SQL statement
func DatabaseSpanAttributes(system, database, operation, table string) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.DBSystemKey.String(system),
		semconv.DBNameKey.String(database),
		semconv.DBOperationKey.String(operation),
		semconv.DBSQLTableKey.String(table),
	}
}

// MessagingSpanAttributes describes a publish or receive on a topic
func MessagingSpanAttributes(system, topic, operation string) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.MessagingSystemKey.String(system),
		semconv.MessagingDestinationNameKey.String(topic),
		semconv.MessagingOperationKey.String(operation),
	}
}

// Traced runs fn inside a child span named name. A returned error is recorded
// on the span and marks it failed.
func Traced[T any](ctx context.Context, tracer trace.Tracer, name string, fn func(context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	result, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}
