// Package predict implements the Predictor (spec §4.J): short-horizon
// candidate generation from recognized patterns and from a node's own
// outgoing edge history.
package predict

import (
	"sort"

	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
	"github.com/traversion/causengine/internal/pattern"
)

// Source identifies which signal produced a candidate.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceHistory Source = "history"
)

// Candidate is one predicted future event.
type Candidate struct {
	EventType  string  `json:"event_type"`
	ServiceID  string  `json:"service_id"`
	Timestamp  int64   `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// Predict implements §4.J: generate candidates from both sources,
// deduplicate, filter by min_confidence, and sort descending by
// confidence. Callers must hold at least a read lock on g.
func Predict(g *graph.Graph, patterns *pattern.Store, eventID string, horizonMs int64, minConfidence float64) []Candidate {
	node := g.Get(eventID)
	if node == nil {
		return nil
	}

	var candidates []Candidate
	candidates = append(candidates, patternCandidates(patterns, node)...)
	candidates = append(candidates, historyCandidates(g, node, horizonMs)...)

	deduped := dedupe(candidates)

	var filtered []Candidate
	for _, c := range deduped {
		if c.Confidence >= minConfidence {
			filtered = append(filtered, c)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Confidence > filtered[j].Confidence })
	return filtered
}

// patternCandidates implements §4.J's pattern source: for each pattern
// whose signature includes node.event_type, predict the next event type
// in the sequence.
func patternCandidates(patterns *pattern.Store, node *models.Node) []Candidate {
	var out []Candidate
	for _, p := range patterns.All() {
		idx := indexOf(p.Signature.EventTypes, node.Event.EventType)
		if idx < 0 || idx >= len(p.Signature.EventTypes)-1 {
			continue
		}
		length := len(p.Signature.EventTypes)
		if length == 0 {
			continue
		}
		out = append(out, Candidate{
			EventType:  p.Signature.EventTypes[idx+1],
			ServiceID:  node.Event.ServiceID,
			Timestamp:  node.Event.Timestamp + p.Signature.DurationMs/int64(length),
			Confidence: 0.7,
			Source:     SourcePattern,
		})
	}
	return out
}

// historyCandidates implements §4.J's history source: for each outgoing
// edge within the horizon, emit the observed target directly.
func historyCandidates(g *graph.Graph, node *models.Node, horizonMs int64) []Candidate {
	var out []Candidate
	for targetID, edge := range node.Causes {
		target := g.Get(targetID)
		if target == nil {
			continue
		}
		delta := target.Event.Timestamp - node.Event.Timestamp
		if delta > horizonMs {
			continue
		}
		out = append(out, Candidate{
			EventType:  target.Event.EventType,
			ServiceID:  target.Event.ServiceID,
			Timestamp:  node.Event.Timestamp + delta,
			Confidence: edge.Confidence * 0.8,
			Source:     SourceHistory,
		})
	}
	return out
}

func indexOf(slice []string, v string) int {
	for i, s := range slice {
		if s == v {
			return i
		}
	}
	return -1
}

// dedupe implements §4.J's dedup key (event_type, service_id,
// floor(timestamp/100)), keeping the max-confidence candidate.
func dedupe(candidates []Candidate) []Candidate {
	best := make(map[[3]interface{}]Candidate)
	var order [][3]interface{}
	for _, c := range candidates {
		key := [3]interface{}{c.EventType, c.ServiceID, c.Timestamp / 100}
		existing, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = c
			continue
		}
		if c.Confidence > existing.Confidence {
			best[key] = c
		}
	}
	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}
