package logging

import "context"

// Context keys for trace/span IDs and the tenant a request is scoped to.
type contextKey string

const (
	traceIDKey  contextKey = "trace_id"
	spanIDKey   contextKey = "span_id"
	tenantIDKey contextKey = "tenant_id"
)

// TraceIDKey returns the context key for trace ID.
// Use this to add a trace ID to a context:
//
//	ctx := context.WithValue(ctx, logging.TraceIDKey(), "trace-123")
func TraceIDKey() interface{} {
	return traceIDKey
}

// SpanIDKey returns the context key for span ID.
// Use this to add a span ID to a context:
//
//	ctx := context.WithValue(ctx, logging.SpanIDKey(), "span-456")
func SpanIDKey() interface{} {
	return spanIDKey
}

// TenantIDKey returns the context key for the tenant a query or ingest call
// is scoped to. Every request path that accepts a tenant ID should stash it
// on the context with this key so loggers attached via WithContext surface
// which tenant a log line belongs to without the caller threading it
// through every Field/WithField call by hand.
//
//	ctx := context.WithValue(ctx, logging.TenantIDKey(), tenantID)
func TenantIDKey() interface{} {
	return tenantIDKey
}

// extractContextFields extracts trace_id, span_id, and tenant_id from ctx
// if present. Returns nil if ctx is nil or none of the three are set.
func extractContextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	fields := make(map[string]interface{})

	if traceID := ctx.Value(traceIDKey); traceID != nil {
		fields["trace_id"] = traceID
	}

	if spanID := ctx.Value(spanIDKey); spanID != nil {
		fields["span_id"] = spanID
	}

	if tenantID := ctx.Value(tenantIDKey); tenantID != nil {
		fields["tenant_id"] = tenantID
	}

	if len(fields) == 0 {
		return nil
	}

	return fields
}
