package lifecycle

import "context"

// Component defines the lifecycle interface that all managed components must
// implement. causengine's serve command registers three: tracing.TracingProvider
// (OpenTelemetry exporter, no dependencies), durable.StoreComponent (replays
// persisted events into the engine once the tracer is up), and the stdio
// mcpserver adapter (depends on both, so it only starts accepting tool calls
// once state has been rebuilt). The Manager orchestrates their startup and
// shutdown in dependency order.
type Component interface {
	// Start initializes and starts the component.
	// The provided context can be used to signal shutdown or set deadlines.
	// Must be idempotent - safe to call multiple times.
	// Should log startup activity with component name.
	// Returns error if initialization fails.
	Start(ctx context.Context) error

	// Stop gracefully stops the component.
	// Must handle in-flight operations completion within the context deadline.
	// Should respect context deadline for graceful shutdown timeout.
	// Should log shutdown activity with component name.
	// Returns error if shutdown fails (but shouldn't prevent other components from stopping).
	Stop(ctx context.Context) error

	// Name returns the human-readable name of the component.
	// Used for logging, error reporting, and dependency declarations.
	// Must return a non-empty string.
	Name() string
}
