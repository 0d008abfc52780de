// Package detect runs the four relation detectors over a freshly ingested
// node — trace, temporal, service trigger, data flow — in the fixed order
// spec §4.E requires, since later detectors must see the edges earlier
// ones already added (the keep-max-confidence upgrade rule in
// graph.AddEdge makes the order safe to re-run or extend).
package detect

import (
	"math"

	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
)

// Run executes all four detectors against n, which must already be
// inserted into g. Callers must hold g's write lock. It returns the
// edges newly created (first creation only) so the caller can publish
// causality:detected for each.
func Run(g *graph.Graph, n *models.Node, cfg config.Config) []models.Edge {
	var created []models.Edge

	if e := detectTrace(g, n); e != nil {
		created = append(created, *e)
	}
	created = append(created, detectTemporal(g, n, cfg)...)
	if e := detectServiceTrigger(g, n); e != nil {
		created = append(created, *e)
	}
	created = append(created, detectDataFlow(g, n)...)

	return created
}

// detectTrace implements §4.E.1: if parent_span_id is set, find the most
// recent node with matching span_id and trace_id and link parent → n with
// confidence 1.0.
func detectTrace(g *graph.Graph, n *models.Node) *models.Edge {
	if n.Event.ParentSpanID == "" {
		return nil
	}
	var parent *models.Node
	for _, candidate := range g.AllNodes() {
		if candidate.ID() == n.ID() {
			continue
		}
		if candidate.Event.SpanID != n.Event.ParentSpanID {
			continue
		}
		if candidate.Event.TraceID != n.Event.TraceID {
			continue
		}
		if parent == nil || candidate.Event.Timestamp > parent.Event.Timestamp {
			parent = candidate
		}
	}
	if parent == nil {
		return nil
	}
	if created := g.AddEdge(parent.ID(), n.ID(), 1.0, models.EdgeTrace, n.Event.Timestamp); created {
		return &models.Edge{From: parent.ID(), To: n.ID(), Confidence: 1.0, Type: models.EdgeTrace, TargetTimestamp: n.Event.Timestamp}
	}
	return nil
}

// detectTemporal implements §4.E.2: exponential confidence decay over the
// correlation window, boosted for same-service/same-trace candidates.
func detectTemporal(g *graph.Graph, n *models.Node, cfg config.Config) []models.Edge {
	w := float64(cfg.CorrelationWindowMs)
	lo := n.Event.Timestamp - cfg.CorrelationWindowMs
	hi := n.Event.Timestamp

	var created []models.Edge
	for _, cid := range g.Temporal().Range(lo, hi) {
		if cid == n.ID() {
			continue
		}
		c := g.Get(cid)
		if c == nil {
			continue
		}
		dt := math.Abs(float64(n.Event.Timestamp - c.Event.Timestamp))
		confidence := math.Exp(-dt / (w / 3))
		if c.Event.ServiceID == n.Event.ServiceID {
			confidence *= 1.2
		}
		if c.Event.TraceID != "" && c.Event.TraceID == n.Event.TraceID {
			confidence *= 1.5
		}
		if confidence > 1.0 {
			confidence = 1.0
		}
		if confidence < cfg.ConfidenceThreshold {
			continue
		}
		if g.AddEdge(cid, n.ID(), confidence, models.EdgeTemporal, n.Event.Timestamp) {
			created = append(created, models.Edge{From: cid, To: n.ID(), Confidence: confidence, Type: models.EdgeTemporal, TargetTimestamp: n.Event.Timestamp})
		}
	}
	return created
}

// detectServiceTrigger implements §4.E.3: metadata.triggered_by names an
// existing node directly.
func detectServiceTrigger(g *graph.Graph, n *models.Node) *models.Edge {
	triggerID, ok := n.Event.TriggeredBy()
	if !ok {
		return nil
	}
	if g.Get(triggerID) == nil {
		return nil
	}
	if created := g.AddEdge(triggerID, n.ID(), 0.9, models.EdgeService, n.Event.Timestamp); created {
		return &models.Edge{From: triggerID, To: n.ID(), Confidence: 0.9, Type: models.EdgeService, TargetTimestamp: n.Event.Timestamp}
	}
	return nil
}

// detectDataFlow implements §4.E.4: key-overlap similarity between data
// payloads of recent nodes, using canonical value equality.
func detectDataFlow(g *graph.Graph, n *models.Node) []models.Edge {
	if len(n.Event.Data) == 0 {
		return nil
	}
	lo := n.Event.Timestamp - 1000
	hi := n.Event.Timestamp

	var created []models.Edge
	for _, rid := range g.Temporal().Range(lo, hi) {
		if rid == n.ID() {
			continue
		}
		r := g.Get(rid)
		if r == nil || len(r.Event.Data) == 0 {
			continue
		}
		sim := keyOverlap(r.Event.Data, n.Event.Data)
		if sim <= 0.8 {
			continue
		}
		if g.AddEdge(rid, n.ID(), sim, models.EdgeDataflow, n.Event.Timestamp) {
			created = append(created, models.Edge{From: rid, To: n.ID(), Confidence: sim, Type: models.EdgeDataflow, TargetTimestamp: n.Event.Timestamp})
		}
	}
	return created
}

func keyOverlap(a, b map[string]interface{}) float64 {
	matches := 0
	for k, av := range a {
		if bv, ok := b[k]; ok && models.Equal(av, bv) {
			matches++
		}
	}
	maxKeys := len(a)
	if len(b) > maxKeys {
		maxKeys = len(b)
	}
	if maxKeys == 0 {
		return 0
	}
	return float64(matches) / float64(maxKeys)
}
