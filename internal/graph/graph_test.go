package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/apperrors"
	"github.com/traversion/causengine/internal/models"
)

func ev(id string, ts int64, service, eventType string) models.Event {
	return models.Event{EventID: id, Timestamp: ts, ServiceID: service, EventType: eventType}
}

func TestInsertDuplicateFails(t *testing.T) {
	g := New()
	_, err := g.Insert(ev("e1", 100, "svc-a", "http:request"))
	require.NoError(t, err)

	_, err = g.Insert(ev("e1", 200, "svc-a", "http:request"))
	require.Error(t, err)
	var engErr *apperrors.EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, apperrors.CodeInvalidEvent, engErr.Code)
}

func TestAddEdgeNoSelfEdge(t *testing.T) {
	g := New()
	g.Insert(ev("e1", 100, "svc-a", "http:request"))
	created := g.AddEdge("e1", "e1", 1.0, models.EdgeTrace, 100)
	assert.False(t, created)
	assert.Empty(t, g.Get("e1").Causes)
}

func TestAddEdgeKeepsMaxConfidence(t *testing.T) {
	g := New()
	g.Insert(ev("e1", 100, "svc-a", "http:request"))
	g.Insert(ev("e2", 200, "svc-a", "http:response"))

	created := g.AddEdge("e1", "e2", 0.6, models.EdgeTemporal, 200)
	assert.True(t, created)

	created = g.AddEdge("e1", "e2", 0.5, models.EdgeDataflow, 200)
	assert.False(t, created, "lower confidence must not overwrite")
	assert.Equal(t, 0.6, g.Get("e1").Causes["e2"].Confidence)

	created = g.AddEdge("e1", "e2", 0.95, models.EdgeDataflow, 200)
	assert.False(t, created, "upgrade is not a fresh creation")
	assert.Equal(t, 0.95, g.Get("e1").Causes["e2"].Confidence)
	assert.Equal(t, 0.95, g.Get("e2").CausedBy["e1"].Confidence, "mirror edge must match")
}

func TestAddEdgeTiePrecedence(t *testing.T) {
	g := New()
	g.Insert(ev("e1", 100, "svc-a", "http:request"))
	g.Insert(ev("e2", 200, "svc-a", "http:response"))

	g.AddEdge("e1", "e2", 0.8, models.EdgeTemporal, 200)
	created := g.AddEdge("e1", "e2", 0.8, models.EdgeTrace, 200)
	assert.False(t, created)
	assert.Equal(t, models.EdgeTrace, g.Get("e1").Causes["e2"].Type, "higher-precedence type wins an exact tie")
}

func TestEvictBeforeCascadesEdgesAndIndexes(t *testing.T) {
	g := New()
	g.Insert(ev("e1", 100, "svc-a", "http:request"))
	g.Insert(ev("e2", 200, "svc-a", "http:response"))
	g.AddEdge("e1", "e2", 0.9, models.EdgeTemporal, 200)

	evicted := g.EvictBefore(150)
	assert.Equal(t, 1, evicted)
	assert.Nil(t, g.Get("e1"))
	assert.NotNil(t, g.Get("e2"))
	assert.Empty(t, g.Get("e2").CausedBy, "edge from evicted node must be removed")
	assert.Empty(t, g.Temporal().Range(0, 1000))
}

func TestTemporalIndexRangeOrdering(t *testing.T) {
	idx := NewTemporalIndex()
	idx.Put(300, "c")
	idx.Put(100, "a")
	idx.Put(200, "b")
	idx.Put(200, "b2")

	got := idx.Range(100, 200)
	assert.Equal(t, []string{"a", "b", "b2"}, got)

	idx.Remove(200, "b")
	got = idx.Range(100, 300)
	assert.Equal(t, []string{"a", "b2", "c"}, got)
}

func TestServiceIndexLastOf(t *testing.T) {
	idx := NewServiceIndex()
	idx.Put("svc-a", "http:request", "e1")
	idx.Put("svc-a", "http:request", "e2")

	last, ok := idx.LastOf("svc-a", "http:request")
	require.True(t, ok)
	assert.Equal(t, "e2", last)

	assert.Equal(t, []string{"e1", "e2"}, idx.ByService("svc-a"))

	idx.Remove("svc-a", "http:request", "e2")
	_, ok = idx.LastOf("svc-a", "http:request")
	assert.False(t, ok)
}
