package timeql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/graph"
	"github.com/traversion/causengine/internal/models"
	"github.com/traversion/causengine/internal/pattern"
)

func TestStateAtHealthyWithNoErrors(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "e1", Timestamp: 100, ServiceID: "svc-a", EventType: "http:request"})

	ex := NewExecutor(g, pattern.NewStore(10))
	stmt, err := Parse("STATE AT 'now'")
	require.NoError(t, err)

	result, err := ex.Execute(context.Background(), stmt, "", 1000)
	require.NoError(t, err)
	state := result.(*StateResult)
	assert.Equal(t, "healthy", state.Health)
}

func TestStateAtDegradedWithErrors(t *testing.T) {
	g := graph.New()
	for i := 0; i < 2; i++ {
		g.Insert(models.Event{
			EventID: "err" + string(rune('a'+i)), Timestamp: int64(100 + i), ServiceID: "svc-a", EventType: "error",
		})
	}
	ex := NewExecutor(g, pattern.NewStore(10))
	stmt, err := Parse("STATE AT 'now'")
	require.NoError(t, err)

	result, err := ex.Execute(context.Background(), stmt, "", 1000)
	require.NoError(t, err)
	state := result.(*StateResult)
	assert.Equal(t, "degraded", state.Health)
	assert.Len(t, state.Errors, 2)
}

func TestStateAtTenantIsolation(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "e1", Timestamp: 100, ServiceID: "svc-a", EventType: "x", TenantID: "t1"})
	g.Insert(models.Event{EventID: "e2", Timestamp: 100, ServiceID: "svc-b", EventType: "x", TenantID: "t2"})

	ex := NewExecutor(g, pattern.NewStore(10))
	stmt, _ := Parse("STATE AT 'now'")

	result, err := ex.Execute(context.Background(), stmt, "t1", 1000)
	require.NoError(t, err)
	state := result.(*StateResult)
	assert.Contains(t, state.Services, "svc-a")
	assert.NotContains(t, state.Services, "svc-b")
}

func TestTimelineDerivedFields(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "e1", Timestamp: 0, ServiceID: "svc-a", EventType: "x"})
	g.Insert(models.Event{EventID: "e2", Timestamp: 50, ServiceID: "svc-a", EventType: "y"})
	g.Insert(models.Event{EventID: "e3", Timestamp: 100, ServiceID: "svc-a", EventType: "z"})

	ex := NewExecutor(g, pattern.NewStore(10))
	stmt, err := Parse("TIMELINE FROM '0' TO '100'")
	require.NoError(t, err)

	result, err := ex.Execute(context.Background(), stmt, "", 1000)
	require.NoError(t, err)
	timeline := result.([]TimelineEvent)
	require.Len(t, timeline, 3)
	assert.Equal(t, int64(50), timeline[1].RelativeTime)
	assert.InDelta(t, 50.0, timeline[1].TimePercent, 1e-9)
}

func TestTimelineFilterWithCamelCaseField(t *testing.T) {
	g := graph.New()
	for i := 0; i < 5; i++ {
		g.Insert(models.Event{EventID: "req" + string(rune('a'+i)), Timestamp: int64(i * 100), ServiceID: "svc-a", EventType: "http:request"})
	}
	for i := 0; i < 5; i++ {
		g.Insert(models.Event{EventID: "resp" + string(rune('a'+i)), Timestamp: int64(i*100 + 10), ServiceID: "svc-a", EventType: "http:response"})
	}

	ex := NewExecutor(g, pattern.NewStore(10))
	stmt, err := Parse("TIMELINE FROM '0' TO '5000' WHERE eventType = 'http:request'")
	require.NoError(t, err)

	result, err := ex.Execute(context.Background(), stmt, "", 5000)
	require.NoError(t, err)
	timeline := result.([]TimelineEvent)
	assert.Len(t, timeline, 5)
}

func TestTraverseFindsChain(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "E1", Timestamp: 100, ServiceID: "svc-a", EventType: "error"})
	g.Insert(models.Event{EventID: "E2", Timestamp: 200, ServiceID: "svc-b", EventType: "retry"})
	g.AddEdge("E1", "E2", 0.9, models.EdgeService, 200)

	ex := NewExecutor(g, pattern.NewStore(10))
	stmt, err := Parse("TRAVERSE FROM E2 FOLLOWING backward")
	require.NoError(t, err)

	result, err := ex.Execute(context.Background(), stmt, "", 1000)
	require.NoError(t, err)
	c := result.(*models.Chain)
	assert.Len(t, c.Steps, 2)
}

func TestCompareDetectsNewError(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "e1", Timestamp: 50, ServiceID: "svc-a", EventType: "error", Data: map[string]interface{}{"error": "boom"}})

	ex := NewExecutor(g, pattern.NewStore(10))
	stmt, err := Parse("COMPARE '0' WITH '100'")
	require.NoError(t, err)

	result, err := ex.Execute(context.Background(), stmt, "", 1000)
	require.NoError(t, err)
	cmp := result.(*CompareResult)
	assert.Contains(t, cmp.ErrorsAdded, "boom")
}

func TestPredictReturnsEmptyWithNoAnchor(t *testing.T) {
	g := graph.New()
	ex := NewExecutor(g, pattern.NewStore(10))
	stmt, err := Parse("PREDICT NEXT 10 m")
	require.NoError(t, err)

	result, err := ex.Execute(context.Background(), stmt, "", 1000)
	require.NoError(t, err)
	pred := result.(*PredictResult)
	assert.Empty(t, pred.Predictions)
}

func TestPredictDeterministicForSameInput(t *testing.T) {
	g := graph.New()
	g.Insert(models.Event{EventID: "a", Timestamp: 100, ServiceID: "svc-a", EventType: "order:created"})
	g.Insert(models.Event{EventID: "b", Timestamp: 200, ServiceID: "svc-b", EventType: "payment:charged"})
	g.AddEdge("a", "b", 0.8, models.EdgeDataflow, 200)

	store := pattern.NewStore(10)
	ex := NewExecutor(g, store)
	stmt, err := Parse("PREDICT NEXT 10 m")
	require.NoError(t, err)

	result1, err := ex.Execute(context.Background(), stmt, "", 1000)
	require.NoError(t, err)
	result2, err := ex.Execute(context.Background(), stmt, "", 1000)
	require.NoError(t, err)
	assert.Equal(t, result1, result2)
}
