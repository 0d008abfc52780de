// Package anomaly scores a freshly ingested node by combining three
// independent signals — data-rule, temporal-interval deviation, and
// causality-shape — taking their maximum, per spec §4.F.
package anomaly

import (
	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
)

// Classification is the anomaly severity published alongside a score that
// exceeds the configured threshold.
type Classification string

const (
	ClassError    Classification = "error"
	ClassCritical Classification = "critical"
	ClassWarning  Classification = "warning"
	ClassInfo     Classification = "info"
)

// Result is the outcome of scoring one node.
type Result struct {
	Score     float64
	Exceeded  bool
	Class     Classification
}

// Score computes n's anomaly score. Callers must hold at least a read
// lock on g (temporalIntervalScore and causalityShapeScore read the
// service index and n's own edges).
func Score(g *graph.Graph, n *models.Node, cfg config.Config) Result {
	data := dataScore(n)
	temporal := temporalIntervalScore(g, n, cfg)
	shape := causalityShapeScore(n)

	score := data
	if temporal > score {
		score = temporal
	}
	if shape > score {
		score = shape
	}

	n.AnomalyScore = score

	result := Result{Score: score}
	if score > cfg.AnomalyThreshold {
		result.Exceeded = true
		result.Class = classify(n, score)
	}
	return result
}

func classify(n *models.Node, score float64) Classification {
	switch {
	case n.Event.HasError():
		return ClassError
	case score > 0.95:
		return ClassCritical
	case score > 0.9:
		return ClassWarning
	default:
		return ClassInfo
	}
}

// dataScore implements the predefined-rule component of §4.F.
func dataScore(n *models.Node) float64 {
	if n.Event.Data == nil {
		return 0
	}
	if n.Event.HasError() {
		return 0.8
	}
	if status, ok := numeric(n.Event.Data["status"]); ok && status >= 500 {
		return 0.9
	}
	if latency, ok := numeric(n.Event.Data["latency"]); ok && latency > 1000 {
		return 0.7
	}
	return 0
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

// temporalIntervalScore implements §4.F's second component: deviation of
// the observed inter-arrival time from the configured expectation. The
// previous event is the latest other event of n's (service, event_type)
// in the service index; n is usually already last_of after Insert.
func temporalIntervalScore(g *graph.Graph, n *models.Node, cfg config.Config) float64 {
	var prev *models.Node
	ids := g.Services().ByService(n.Event.ServiceID)
	for i := len(ids) - 1; i >= 0 && prev == nil; i-- {
		if ids[i] == n.ID() {
			continue
		}
		if c := g.Get(ids[i]); c != nil && c.Event.EventType == n.Event.EventType {
			prev = c
		}
	}
	if prev == nil {
		return 0
	}
	expected := float64(cfg.ExpectedInterval(n.Event.ServiceID, n.Event.EventType).Milliseconds())
	if expected <= 0 {
		return 0
	}
	observed := float64(n.Event.Timestamp - prev.Event.Timestamp)
	d := abs(observed-expected) / expected
	if d > 1 {
		return 1
	}
	return d
}

// causalityShapeScore implements §4.F's third component: deviation of the
// observed cause count from the expected count (default 1).
func causalityShapeScore(n *models.Node) float64 {
	const expectedCauses = 1.0
	a := float64(len(n.CausedBy))
	d := abs(a-expectedCauses) / expectedCauses
	if d > 1 {
		return 1
	}
	return d
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
