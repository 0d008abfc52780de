package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/engine"
	"github.com/traversion/causengine/internal/models"
)

func TestIngestEventToolExecute(t *testing.T) {
	e := engine.New(config.Default())
	tool := newIngestEventTool(e)

	input := json.RawMessage(`{"event_id":"e1","timestamp":1000,"service_id":"svc","event_type":"http:request","tenant_id":"t1"}`)
	result, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestIngestEventToolRejectsBadJSON(t *testing.T) {
	e := engine.New(config.Default())
	tool := newIngestEventTool(e)

	_, err := tool.Execute(context.Background(), json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestRunTimeQLToolExecute(t *testing.T) {
	e := engine.New(config.Default())
	_, err := e.Ingest(context.Background(), testEvent())
	require.NoError(t, err)

	tool := newRunTimeQLTool(e)
	input := json.RawMessage(`{"tenant_id":"t1","query":"STATE AT 'now'","now_ms":2000}`)
	result, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestFindRootCauseToolExecuteUnknownEvent(t *testing.T) {
	e := engine.New(config.Default())
	tool := newFindRootCauseTool(e)

	input := json.RawMessage(`{"event_id":"missing"}`)
	_, err := tool.Execute(context.Background(), input)
	assert.Error(t, err)
}

func testEvent() models.Event {
	return models.Event{
		EventID: "e1", Timestamp: 1000, ServiceID: "svc", EventType: "http:request", TenantID: "t1",
	}
}
