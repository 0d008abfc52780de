package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
)

func insert(t *testing.T, g *graph.Graph, e models.Event) *models.Node {
	t.Helper()
	n, err := g.Insert(e)
	require.NoError(t, err)
	return n
}

func TestDetectTraceLinksParentSpan(t *testing.T) {
	g := graph.New()
	cfg := config.Default()

	parent := insert(t, g, models.Event{EventID: "p1", Timestamp: 100, ServiceID: "svc", EventType: "span:start", TraceID: "t1", SpanID: "s1"})
	Run(g, parent, cfg)

	child := insert(t, g, models.Event{EventID: "c1", Timestamp: 150, ServiceID: "svc", EventType: "span:start", TraceID: "t1", SpanID: "s2", ParentSpanID: "s1"})
	created := Run(g, child, cfg)

	require.Len(t, created, 1)
	assert.Equal(t, models.EdgeTrace, created[0].Type)
	assert.Equal(t, 1.0, created[0].Confidence)
	assert.Equal(t, "p1", created[0].From)
}

func TestDetectTemporalWithinWindow(t *testing.T) {
	g := graph.New()
	cfg := config.Default()

	a := insert(t, g, models.Event{EventID: "a", Timestamp: 1000, ServiceID: "svc", EventType: "x"})
	Run(g, a, cfg)

	b := insert(t, g, models.Event{EventID: "b", Timestamp: 1100, ServiceID: "svc", EventType: "y"})
	created := Run(g, b, cfg)

	require.Len(t, created, 1)
	assert.Equal(t, models.EdgeTemporal, created[0].Type)
	assert.Greater(t, created[0].Confidence, cfg.ConfidenceThreshold)
}

func TestDetectTemporalOutsideWindowNoEdge(t *testing.T) {
	g := graph.New()
	cfg := config.Default()

	a := insert(t, g, models.Event{EventID: "a", Timestamp: 0, ServiceID: "svc", EventType: "x"})
	Run(g, a, cfg)

	b := insert(t, g, models.Event{EventID: "b", Timestamp: cfg.CorrelationWindowMs + 10_000, ServiceID: "svc", EventType: "y"})
	created := Run(g, b, cfg)
	assert.Empty(t, created)
}

func TestDetectServiceTrigger(t *testing.T) {
	g := graph.New()
	cfg := config.Default()

	a := insert(t, g, models.Event{EventID: "a", Timestamp: 100, ServiceID: "svc-a", EventType: "job:start"})
	Run(g, a, cfg)

	b := insert(t, g, models.Event{
		EventID: "b", Timestamp: 50_000, ServiceID: "svc-b", EventType: "job:triggered",
		Metadata: map[string]interface{}{"triggered_by": "a"},
	})
	created := Run(g, b, cfg)

	require.Len(t, created, 1)
	assert.Equal(t, models.EdgeService, created[0].Type)
	assert.Equal(t, 0.9, created[0].Confidence)
}

func TestDetectDataFlowHighOverlap(t *testing.T) {
	g := graph.New()
	cfg := config.Default()

	a := insert(t, g, models.Event{
		EventID: "a", Timestamp: 100, ServiceID: "svc-a", EventType: "order:created",
		Data: map[string]interface{}{"order_id": "o1", "user_id": "u1", "amount": 10.0},
	})
	Run(g, a, cfg)

	b := insert(t, g, models.Event{
		EventID: "b", Timestamp: 800, ServiceID: "svc-b", EventType: "payment:charged",
		Data: map[string]interface{}{"order_id": "o1", "user_id": "u1", "amount": 10.0},
	})
	created := Run(g, b, cfg)

	require.NotEmpty(t, created)
	var found bool
	for _, e := range created {
		if e.Type == models.EdgeDataflow {
			found = true
			assert.Equal(t, 1.0, e.Confidence)
		}
	}
	assert.True(t, found)
}

func TestDetectDataFlowLowOverlapNoEdge(t *testing.T) {
	g := graph.New()
	cfg := config.Default()

	a := insert(t, g, models.Event{
		EventID: "a", Timestamp: 100, ServiceID: "svc-a", EventType: "order:created",
		Data: map[string]interface{}{"order_id": "o1", "user_id": "u1", "region": "eu", "channel": "web"},
	})
	Run(g, a, cfg)

	b := insert(t, g, models.Event{
		EventID: "b", Timestamp: 500, ServiceID: "svc-b", EventType: "payment:charged",
		Data: map[string]interface{}{"order_id": "o2"},
	})
	created := Run(g, b, cfg)
	for _, e := range created {
		assert.NotEqual(t, models.EdgeDataflow, e.Type)
	}
}

func TestDetectDoesNotDowngradeExistingEdge(t *testing.T) {
	g := graph.New()
	cfg := config.Default()

	a := insert(t, g, models.Event{EventID: "a", Timestamp: 100, ServiceID: "svc", EventType: "x", TraceID: "t1", SpanID: "s1"})
	Run(g, a, cfg)
	b := insert(t, g, models.Event{EventID: "b", Timestamp: 150, ServiceID: "svc", EventType: "y", TraceID: "t1", SpanID: "s2", ParentSpanID: "s1"})
	Run(g, b, cfg)

	edge := g.Get("a").Causes["b"]
	require.NotNil(t, edge)
	assert.Equal(t, models.EdgeTrace, edge.Type, "trace edge (added by a separate detector run) must survive a lower-precedence attempt")
}
