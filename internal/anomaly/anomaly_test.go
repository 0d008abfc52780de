package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
)

func TestDataScoreError(t *testing.T) {
	g := graph.New()
	cfg := config.Default()
	cfg.AnomalyThreshold = 0.5
	n, err := g.Insert(models.Event{
		EventID: "e1", Timestamp: 100, ServiceID: "svc", EventType: "x",
		Data: map[string]interface{}{"error": "boom"},
	})
	require.NoError(t, err)
	n.CausedBy["parent"] = &models.Edge{}

	result := Score(g, n, cfg)
	assert.Equal(t, 0.8, result.Score)
	assert.Equal(t, ClassError, result.Class)
}

func TestDataScoreStatus5xx(t *testing.T) {
	g := graph.New()
	cfg := config.Default()
	cfg.AnomalyThreshold = 0.5
	n, _ := g.Insert(models.Event{
		EventID: "e1", Timestamp: 100, ServiceID: "svc", EventType: "x",
		Data: map[string]interface{}{"status": 503.0},
	})
	n.CausedBy["parent"] = &models.Edge{}
	result := Score(g, n, cfg)
	assert.Equal(t, 0.9, result.Score)
	assert.Equal(t, ClassInfo, result.Class, "0.9 is not above the 0.9 warning boundary")
}

func TestTemporalIntervalDeviation(t *testing.T) {
	g := graph.New()
	cfg := config.Default()
	cfg.DefaultExpectedIntervalMs = 1000

	n1, _ := g.Insert(models.Event{EventID: "e1", Timestamp: 0, ServiceID: "svc", EventType: "heartbeat"})
	Score(g, n1, cfg)

	n2, _ := g.Insert(models.Event{EventID: "e2", Timestamp: 5000, ServiceID: "svc", EventType: "heartbeat"})
	result := Score(g, n2, cfg)
	assert.Equal(t, 1.0, result.Score, "5000ms vs expected 1000ms deviates far beyond 1.0 clamp")
}

func TestCausalityShapeNoCauses(t *testing.T) {
	g := graph.New()
	cfg := config.Default()
	n, _ := g.Insert(models.Event{EventID: "e1", Timestamp: 100, ServiceID: "svc", EventType: "x"})
	result := Score(g, n, cfg)
	assert.Equal(t, 1.0, result.Score, "0 causes vs expected 1 deviates by the full amount")
}

func TestScoreBelowThresholdNotExceeded(t *testing.T) {
	g := graph.New()
	cfg := config.Default()
	n, _ := g.Insert(models.Event{EventID: "e1", Timestamp: 100, ServiceID: "svc", EventType: "x"})
	n.CausedBy["parent"] = &models.Edge{}
	result := Score(g, n, cfg)
	assert.False(t, result.Exceeded)
}
