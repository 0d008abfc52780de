// Package chain implements the Chain Tracer (BFS traversal with
// confidence/depth thresholds) and the Root-Cause Search built on top of
// it (spec §4.H, §4.I).
package chain

import (
	"sort"

	"github.com/google/uuid"

	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
)

// Direction controls which edge set a trace follows.
type Direction string

const (
	Backward Direction = "backward"
	Forward  Direction = "forward"
	Both     Direction = "both"
)

type frontierItem struct {
	node           *models.Node
	depth          int
	pathConfidence float64
}

// Trace runs a breadth-first traversal from root following caused_by
// (backward), causes (forward), or both, stopping expansion past
// max_depth and never following an edge below confidence_threshold.
// Callers must hold at least a read lock on g.
func Trace(g *graph.Graph, root string, direction Direction, maxDepth int, confidenceThreshold float64) *models.Chain {
	rootNode := g.Get(root)
	if rootNode == nil {
		return nil
	}

	visited := map[string]bool{root: true}
	steps := []models.ChainStep{stepFor(rootNode, 0, 1.0)}
	var edges []models.Edge

	queue := []frontierItem{{node: rootNode, depth: 0, pathConfidence: 1.0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > maxDepth {
			continue
		}

		var candidates map[string]*models.Edge
		if direction == Backward || direction == Both {
			candidates = cur.node.CausedBy
			for peerID, edge := range candidates {
				visitEdge(g, peerID, edge, cur, confidenceThreshold, visited, &steps, &edges, &queue)
			}
		}
		if direction == Forward || direction == Both {
			candidates = cur.node.Causes
			for peerID, edge := range candidates {
				visitEdge(g, peerID, edge, cur, confidenceThreshold, visited, &steps, &edges, &queue)
			}
		}
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].Timestamp < steps[j].Timestamp })

	chain := &models.Chain{
		ChainID:   uuid.NewString(),
		RootEvent: root,
		Steps:     steps,
		Edges:     edges,
	}
	if len(steps) > 0 {
		chain.StartTime = steps[0].Timestamp
		chain.EndTime = steps[len(steps)-1].Timestamp
	}
	chain.Confidence = aggregateConfidence(edges)
	return chain
}

func visitEdge(
	g *graph.Graph,
	peerID string,
	edge *models.Edge,
	cur frontierItem,
	confidenceThreshold float64,
	visited map[string]bool,
	steps *[]models.ChainStep,
	edges *[]models.Edge,
	queue *[]frontierItem,
) {
	if edge.Confidence < confidenceThreshold {
		return
	}
	if visited[peerID] {
		return
	}
	peer := g.Get(peerID)
	if peer == nil {
		return
	}
	visited[peerID] = true
	pathConfidence := cur.pathConfidence * edge.Confidence
	*steps = append(*steps, stepFor(peer, cur.depth+1, pathConfidence))
	*edges = append(*edges, *edge)
	*queue = append(*queue, frontierItem{node: peer, depth: cur.depth + 1, pathConfidence: pathConfidence})
}

func stepFor(n *models.Node, depth int, pathConfidence float64) models.ChainStep {
	return models.ChainStep{
		EventID:        n.ID(),
		Timestamp:      n.Event.Timestamp,
		ServiceID:      n.Event.ServiceID,
		EventType:      n.Event.EventType,
		Depth:          depth,
		PathConfidence: pathConfidence,
	}
}

// aggregateConfidence implements §4.H's chain-level confidence formula:
// 0.7*mean(edge confidences) + 0.3*min(edge confidences), or 1.0 with no
// edges.
func aggregateConfidence(edges []models.Edge) float64 {
	if len(edges) == 0 {
		return 1.0
	}
	sum := 0.0
	min := edges[0].Confidence
	for _, e := range edges {
		sum += e.Confidence
		if e.Confidence < min {
			min = e.Confidence
		}
	}
	mean := sum / float64(len(edges))
	return 0.7*mean + 0.3*min
}
