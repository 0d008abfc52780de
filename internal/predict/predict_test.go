package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
	"github.com/traversion/causengine/internal/pattern"
)

func TestHistoryCandidateWithinHorizon(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "a", Timestamp: 1000, ServiceID: "svc-a", EventType: "order:created"})
	g.Insert(models.Event{EventID: "b", Timestamp: 1500, ServiceID: "svc-b", EventType: "payment:charged"})
	g.AddEdge("a", "b", 0.8, models.EdgeDataflow, 1500)

	store := pattern.NewStore(10)
	candidates := Predict(g, store, "a", 1000, 0.1)
	require.Len(t, candidates, 1)
	assert.Equal(t, SourceHistory, candidates[0].Source)
	assert.InDelta(t, 0.64, candidates[0].Confidence, 1e-9)
}

func TestHistoryCandidateBeyondHorizonExcluded(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "a", Timestamp: 1000, ServiceID: "svc-a", EventType: "order:created"})
	g.Insert(models.Event{EventID: "b", Timestamp: 10_000, ServiceID: "svc-b", EventType: "payment:charged"})
	g.AddEdge("a", "b", 0.8, models.EdgeDataflow, 10_000)

	store := pattern.NewStore(10)
	candidates := Predict(g, store, "a", 1000, 0.1)
	assert.Empty(t, candidates)
}

func TestPatternCandidatePredictsNextInSequence(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "a", Timestamp: 1000, ServiceID: "svc-a", EventType: "order:created"})

	store := pattern.NewStore(10)
	sig := models.Signature{
		EventTypes: []string{"order:created", "payment:charged", "order:shipped"},
		Services:   map[string]bool{"svc-a": true},
		DurationMs: 900,
	}
	store.Ingest(sig, 0, "svc-a", "order:created")

	candidates := Predict(g, store, "a", 5000, 0.1)
	require.Len(t, candidates, 1)
	assert.Equal(t, "payment:charged", candidates[0].EventType)
	assert.Equal(t, SourcePattern, candidates[0].Source)
}

func TestPredictFiltersByMinConfidence(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "a", Timestamp: 1000, ServiceID: "svc-a", EventType: "order:created"})
	g.Insert(models.Event{EventID: "b", Timestamp: 1100, ServiceID: "svc-b", EventType: "payment:charged"})
	g.AddEdge("a", "b", 0.1, models.EdgeDataflow, 1100)

	store := pattern.NewStore(10)
	candidates := Predict(g, store, "a", 5000, 0.5)
	assert.Empty(t, candidates, "0.1*0.8=0.08 confidence must be filtered below min_confidence 0.5")
}
