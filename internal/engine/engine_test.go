package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/durable"
	"github.com/traversion/causengine/internal/eventbus"
	"github.com/traversion/causengine/internal/models"
)

func TestIngestRejectsInvalidEvent(t *testing.T) {
	e := New(config.Default())
	_, err := e.Ingest(context.Background(), models.Event{})
	assert.Error(t, err)
}

func TestIngestAndQueryRoundTrip(t *testing.T) {
	e := New(config.Default())
	ctx := context.Background()

	_, err := e.Ingest(ctx, models.Event{
		EventID: "e1", Timestamp: 1000, ServiceID: "checkout", EventType: "http:request", TenantID: "t1",
	})
	require.NoError(t, err)

	result, err := e.Query(context.Background(), "t1", "STATE AT 'now'", 2000, 0)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "state_at", result.Type)
	assert.Equal(t, "t1", result.TenantID)
	assert.NotNil(t, result.Result)
}

func TestIngestPublishesEventProcessed(t *testing.T) {
	e := New(config.Default())
	received := make(chan interface{}, 1)
	e.Bus().Subscribe(eventbus.TopicEventProcessed, func(payload interface{}) {
		received <- payload
	})

	_, err := e.Ingest(context.Background(), models.Event{
		EventID: "e1", Timestamp: 1000, ServiceID: "svc", EventType: "http:request", TenantID: "t1",
	})
	require.NoError(t, err)

	select {
	case payload := <-received:
		node, ok := payload.(*models.Node)
		require.True(t, ok)
		assert.Equal(t, "e1", node.ID())
	default:
		t.Fatal("expected event:processed to be published")
	}
}

func TestIngestDetectsTraceEdgeAndPublishesCausality(t *testing.T) {
	e := New(config.Default())
	ctx := context.Background()

	_, err := e.Ingest(ctx, models.Event{
		EventID: "p1", Timestamp: 100, ServiceID: "svc", EventType: "span:start", TraceID: "trace1", SpanID: "s1", TenantID: "t1",
	})
	require.NoError(t, err)

	var detected []models.Edge
	e.Bus().Subscribe(eventbus.TopicCausalityDetected, func(payload interface{}) {
		edge, ok := payload.(models.Edge)
		require.True(t, ok)
		detected = append(detected, edge)
	})

	_, err = e.Ingest(ctx, models.Event{
		EventID: "c1", Timestamp: 150, ServiceID: "svc", EventType: "span:start", TraceID: "trace1", SpanID: "s2", ParentSpanID: "s1", TenantID: "t1",
	})
	require.NoError(t, err)

	require.Len(t, detected, 1)
	assert.Equal(t, models.EdgeTrace, detected[0].Type)
}

func TestFindRootCauseOfCascade(t *testing.T) {
	e := New(config.Default())
	ctx := context.Background()

	_, err := e.Ingest(ctx, models.Event{
		EventID: "e1", Timestamp: 1000, ServiceID: "db", EventType: "error", TenantID: "t1",
		Data: map[string]interface{}{"error": "connection timeout"},
	})
	require.NoError(t, err)
	_, err = e.Ingest(ctx, models.Event{
		EventID: "e2", Timestamp: 1100, ServiceID: "api", EventType: "error", TenantID: "t1",
		Data:     map[string]interface{}{"error": "upstream failure"},
		Metadata: map[string]interface{}{"triggered_by": "e1"},
	})
	require.NoError(t, err)
	_, err = e.Ingest(ctx, models.Event{
		EventID: "e3", Timestamp: 1200, ServiceID: "gateway", EventType: "error", TenantID: "t1",
		Data:     map[string]interface{}{"error": "request failed"},
		Metadata: map[string]interface{}{"triggered_by": "e2"},
	})
	require.NoError(t, err)

	root := e.FindRootCause("e3")
	require.NotNil(t, root)
	assert.Equal(t, "e1", root.EventID)
}

func TestReplayRehydratesGraphFromDurableStore(t *testing.T) {
	store := durable.NewMemoryStore()
	ctx := context.Background()
	_ = store.Persist(ctx, &models.Node{Event: models.Event{
		EventID: "e1", Timestamp: 1000, ServiceID: "svc", EventType: "http:request", TenantID: "t1",
	}})

	e := New(config.Default(), WithStore(store))
	n, err := e.Replay(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, e.Graph().Len())
}

func TestCloseWithNoStoreIsNoop(t *testing.T) {
	e := New(config.Default())
	assert.NoError(t, e.Close())
}

func TestQueryCachesAcrossIdenticalCalls(t *testing.T) {
	e := New(config.Default())
	ctx := context.Background()

	_, err := e.Ingest(ctx, models.Event{
		EventID: "e1", Timestamp: 1000, ServiceID: "svc", EventType: "http:request", TenantID: "t1",
	})
	require.NoError(t, err)

	first, err := e.Query(ctx, "t1", "TIMELINE FROM '0' TO '5000'", 2000, 0)
	require.NoError(t, err)
	second, err := e.Query(ctx, "t1", "TIMELINE FROM '0' TO '5000'", 2000, 0)
	require.NoError(t, err)

	assert.Equal(t, first.Result, second.Result)
}

func TestQueryRejectsCancelledContext(t *testing.T) {
	e := New(config.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Query(ctx, "t1", "STATE AT 'now'", 2000, 0)
	assert.Error(t, err)
}
