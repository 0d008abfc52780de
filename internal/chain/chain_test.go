package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
)

// buildCascade mirrors spec §8's E1 -> E2 -> E3 example: E1 causes E2
// causes E3, each edge with a distinct confidence.
func buildCascade(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	_, err := g.Insert(models.Event{EventID: "E1", Timestamp: 100, ServiceID: "svc-a", EventType: "error"})
	require.NoError(t, err)
	_, err = g.Insert(models.Event{EventID: "E2", Timestamp: 200, ServiceID: "svc-b", EventType: "retry"})
	require.NoError(t, err)
	_, err = g.Insert(models.Event{EventID: "E3", Timestamp: 300, ServiceID: "svc-c", EventType: "timeout"})
	require.NoError(t, err)

	g.AddEdge("E1", "E2", 0.9, models.EdgeService, 200)
	g.AddEdge("E2", "E3", 0.8, models.EdgeService, 300)
	return g
}

func TestTraceBackwardFromLeaf(t *testing.T) {
	g := buildCascade(t)
	c := Trace(g, "E3", Backward, DefaultMaxDepth, DefaultConfidenceThreshold)
	require.NotNil(t, c)
	require.Len(t, c.Steps, 3)
	assert.Equal(t, "E1", c.Steps[0].EventID, "sorted ascending by timestamp")
	assert.Equal(t, "E3", c.Steps[2].EventID)
}

func TestTraceNoCycle(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "a", Timestamp: 100, ServiceID: "svc", EventType: "x"})
	g.Insert(models.Event{EventID: "b", Timestamp: 200, ServiceID: "svc", EventType: "y"})
	g.AddEdge("a", "b", 0.9, models.EdgeService, 200)
	g.AddEdge("b", "a", 0.9, models.EdgeService, 100) // cycle

	c := Trace(g, "a", Both, DefaultMaxDepth, DefaultConfidenceThreshold)
	require.NotNil(t, c)
	assert.Len(t, c.Steps, 2, "visited set must prevent infinite cycle expansion")
}

func TestTraceRespectsConfidenceThreshold(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "a", Timestamp: 100, ServiceID: "svc", EventType: "x"})
	g.Insert(models.Event{EventID: "b", Timestamp: 200, ServiceID: "svc", EventType: "y"})
	g.AddEdge("a", "b", 0.5, models.EdgeService, 200)

	c := Trace(g, "b", Backward, DefaultMaxDepth, 0.7)
	require.NotNil(t, c)
	assert.Len(t, c.Steps, 1, "edge below threshold must not be followed")
}

func TestAggregateConfidenceFormula(t *testing.T) {
	edges := []models.Edge{{Confidence: 0.9}, {Confidence: 0.5}}
	got := aggregateConfidence(edges)
	want := 0.7*0.7 + 0.3*0.5
	assert.InDelta(t, want, got, 1e-9)
}

func TestFindRootReturnsTrueRoot(t *testing.T) {
	g := buildCascade(t)
	root := FindRoot(g, "E3", DefaultMaxDepth, DefaultConfidenceThreshold)
	require.NotNil(t, root)
	assert.Equal(t, "E1", root.EventID, "E1 has no caused_by edges, so it's the true root")
}

func TestFindRootFallsBackToWeightedScore(t *testing.T) {
	// No node in the chain has zero caused_by (everything loops back),
	// so FindRoot must fall back to the weighted-score ranking.
	g := graph.New()
	g.Insert(models.Event{EventID: "a", Timestamp: 100, ServiceID: "svc", EventType: "x"})
	g.Insert(models.Event{EventID: "b", Timestamp: 200, ServiceID: "svc", EventType: "error"})
	g.AddEdge("a", "b", 0.9, models.EdgeService, 200)
	g.AddEdge("b", "a", 0.9, models.EdgeService, 100)

	root := FindRoot(g, "b", DefaultMaxDepth, DefaultConfidenceThreshold)
	require.NotNil(t, root)
}
