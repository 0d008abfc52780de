// Package durable defines the engine's pluggable durable-store contract
// and provides two implementations: an in-memory fake (default, and used
// by tests) and a FalkorDB-backed adapter grounded on the teacher's
// graph.Client Cypher-building conventions. Persistence is optional — the
// engine is fully functional as a pure in-memory library without it.
package durable

import (
	"context"

	"github.com/traversion/causengine/internal/models"
)

// Store is the durable persistence contract: every ingested node and
// edge is optionally mirrored here so a restarted engine can rebuild its
// in-memory graph via Replay.
type Store interface {
	// Persist durably records a node's event.
	Persist(ctx context.Context, node *models.Node) error

	// PersistEdge durably records an edge.
	PersistEdge(ctx context.Context, edge *models.Edge) error

	// Replay streams every persisted event with timestamp >= sinceMs, in
	// timestamp-ascending order, closing the channel when exhausted or on
	// ctx cancellation.
	Replay(ctx context.Context, sinceMs int64) (<-chan models.Event, error)

	// Close releases any underlying connection.
	Close() error
}
