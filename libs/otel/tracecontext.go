package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContextStrings flattens the current span context to the W3C
// traceparent/tracestate pair, the form the outbox stores alongside each
// event row.
func TraceContextStrings(ctx context.Context) (traceparent, tracestate string) {
	mc := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, mc)
	return mc.Get("traceparent"), mc.Get("tracestate")
}

// ContextWithTraceContext rehydrates a context from stored strings when the
// outbox publisher picks a row back up.
func ContextWithTraceContext(ctx context.Context, traceparent, tracestate string) context.Context {
	if traceparent == "" && tracestate == "" {
		return ctx
	}
	mc := propagation.MapCarrier{}
	if traceparent != "" {
		mc.Set("traceparent", traceparent)
	}
	if tracestate != "" {
		mc.Set("tracestate", tracestate)
	}
	return otel.GetTextMapPropagator().Extract(ctx, mc)
}
