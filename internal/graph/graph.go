// Package graph holds the causality engine's core mutable state: the Event
// Graph (nodes + directed confidence-weighted edges), a Temporal Index for
// correlation-window lookups, and a Service Index for per-service
// last-event pointers (spec §4.B-D). A single RWMutex gives ingest
// exclusive access across insert+detect+score+publish while queries run
// concurrently with each other, per §5.
package graph

import (
	"sync"

	"github.com/traversion/causengine/internal/apperrors"
	"github.com/traversion/causengine/internal/models"
)

// Graph is the Event Graph plus its two secondary indexes. All three are
// protected by the same lock because detectors read across indexes while
// holding the ingest write lock (§5).
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*models.Node

	temporal *TemporalIndex
	services *ServiceIndex
}

func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*models.Node),
		temporal: NewTemporalIndex(),
		services: NewServiceIndex(),
	}
}

// Lock/Unlock/RLock/RUnlock expose the graph's single-writer/many-reader
// lock to the engine, which holds it across the full ingest pipeline
// (insert, detect, score, pattern update, publish) as spec §5 requires.
func (g *Graph) Lock()    { g.mu.Lock() }
func (g *Graph) Unlock()  { g.mu.Unlock() }
func (g *Graph) RLock()   { g.mu.RLock() }
func (g *Graph) RUnlock() { g.mu.RUnlock() }

// Insert adds a new node for ev, failing with InvalidEvent if the id is
// already present. Callers must hold the write lock. Also updates the
// temporal and service indexes.
func (g *Graph) Insert(ev models.Event) (*models.Node, error) {
	if _, exists := g.nodes[ev.EventID]; exists {
		return nil, apperrors.InvalidEvent("duplicate event_id", "event_id")
	}
	node := models.NewNode(ev)
	g.nodes[ev.EventID] = node
	g.temporal.Put(ev.Timestamp, ev.EventID)
	g.services.Put(ev.ServiceID, ev.EventType, ev.EventID)
	return node, nil
}

// Get returns the node for id, or nil if absent. Callers must hold at
// least a read lock.
func (g *Graph) Get(id string) *models.Node {
	return g.nodes[id]
}

// Len reports the number of nodes currently in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Temporal exposes the temporal index for detector lookups.
func (g *Graph) Temporal() *TemporalIndex { return g.temporal }

// Services exposes the service index for detector/scorer lookups.
func (g *Graph) Services() *ServiceIndex { return g.services }

// AddEdge creates or upgrades an edge from → to per the keep-max-confidence
// rule (§3). It never creates a self-edge. It reports whether the edge was
// newly created (first creation only — callers publish causality:detected
// on true, never on a confidence upgrade).
func (g *Graph) AddEdge(from, to string, confidence float64, edgeType models.EdgeType, targetTimestamp int64) (created bool) {
	if from == to {
		return false
	}
	src := g.nodes[from]
	dst := g.nodes[to]
	if src == nil || dst == nil {
		return false
	}

	candidate := &models.Edge{From: from, To: to, Confidence: confidence, Type: edgeType, TargetTimestamp: targetTimestamp}
	existing := src.Causes[to]
	if !candidate.Outranks(existing) {
		return false
	}

	wasNew := existing == nil
	src.Causes[to] = candidate
	dst.CausedBy[from] = candidate
	return wasNew
}

// AllNodes returns every node currently in the graph. Callers must hold at
// least a read lock. The returned slice is a fresh copy of the map values;
// mutating the slice does not affect the graph.
func (g *Graph) AllNodes() []*models.Node {
	out := make([]*models.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// EvictBefore removes every node with timestamp < lo, along with all edges
// incident to it and its index entries. Callers must hold the write lock.
func (g *Graph) EvictBefore(lo int64) int {
	evicted := 0
	for id, n := range g.nodes {
		if n.Event.Timestamp >= lo {
			continue
		}
		for peer := range n.Causes {
			if peerNode := g.nodes[peer]; peerNode != nil {
				delete(peerNode.CausedBy, id)
			}
		}
		for peer := range n.CausedBy {
			if peerNode := g.nodes[peer]; peerNode != nil {
				delete(peerNode.Causes, id)
			}
		}
		delete(g.nodes, id)
		g.temporal.Remove(n.Event.Timestamp, id)
		g.services.Remove(n.Event.ServiceID, n.Event.EventType, id)
		evicted++
	}
	return evicted
}
