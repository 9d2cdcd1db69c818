package tracing

import (
	"context"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for the trace ID
	TraceIDKey ContextKey = "trace_id"
	// CallIDKey is the context key for the invocation call ID
	CallIDKey ContextKey = "call_id"
)

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID extracts the trace ID from the context
func GetTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(TraceIDKey).(string); ok {
		return v
	}
	return ""
}

// WithCallID adds a call ID to the context
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, CallIDKey, callID)
}

// GetCallID extracts the call ID from the context
func GetCallID(ctx context.Context) string {
	if v, ok := ctx.Value(CallIDKey).(string); ok {
		return v
	}
	return ""
}
