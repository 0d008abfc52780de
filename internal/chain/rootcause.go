package chain

import (
	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
)

// DefaultMaxDepth and DefaultConfidenceThreshold are the "default
// thresholds" spec §4.I calls for when root-cause search traces backward.
const (
	DefaultMaxDepth           = 100
	DefaultConfidenceThreshold = 0.7
)

// FindRoot implements §4.I: trace backward from event_id, prefer a true
// root (no incoming causes) by highest path_confidence (ties broken by
// earliest timestamp), otherwise rank every chain event by weighted score
// and return the maximum. Returns nil if event_id is unknown.
func FindRoot(g *graph.Graph, eventID string, maxDepth int, confidenceThreshold float64) *models.ChainStep {
	c := Trace(g, eventID, Backward, maxDepth, confidenceThreshold)
	if c == nil || len(c.Steps) == 0 {
		return nil
	}

	var roots []models.ChainStep
	for _, s := range c.Steps {
		n := g.Get(s.EventID)
		if n != nil && len(n.CausedBy) == 0 {
			roots = append(roots, s)
		}
	}
	if len(roots) > 0 {
		best := roots[0]
		for _, r := range roots[1:] {
			if r.PathConfidence > best.PathConfidence ||
				(r.PathConfidence == best.PathConfidence && r.Timestamp < best.Timestamp) {
				best = r
			}
		}
		return &best
	}

	chainLen := float64(len(c.Steps))
	var best *models.ChainStep
	var bestScore float64
	for i := range c.Steps {
		s := c.Steps[i]
		n := g.Get(s.EventID)
		if n == nil {
			continue
		}
		errorMultiplier := 1.0
		if n.Event.EventType == "error" || n.Event.HasError() {
			errorMultiplier = 1.5
		}
		score := s.PathConfidence * errorMultiplier * (1 + n.AnomalyScore) * (1 - 0.5*(float64(s.Depth)/chainLen))
		if best == nil || score > bestScore {
			best = &c.Steps[i]
			bestScore = score
		}
	}
	return best
}
