// Package mcpserver exposes the engine over the Model Context Protocol,
// adapted from the teacher's internal/mcp server (mark3labs/mcp-go):
// same Tool interface, same registerTool/createToolHandler dispatch, the
// tools are just thin wrappers around *engine.Engine instead of an HTTP
// client to a separate API process.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/traversion/causengine/internal/engine"
	"github.com/traversion/causengine/internal/models"
)

// Tool mirrors the teacher's mcp.Tool interface: execute with raw JSON
// arguments, return a JSON-serializable result.
type Tool interface {
	Execute(ctx context.Context, input json.RawMessage) (interface{}, error)
}

// ingestEventTool wraps Engine.Ingest.
type ingestEventTool struct {
	engine *engine.Engine
}

func newIngestEventTool(e *engine.Engine) *ingestEventTool {
	return &ingestEventTool{engine: e}
}

func (t *ingestEventTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var ev models.Event
	if err := json.Unmarshal(input, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	result, err := t.engine.Ingest(ctx, ev)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runTimeQLTool wraps Engine.Query.
type runTimeQLTool struct {
	engine *engine.Engine
}

func newRunTimeQLTool(e *engine.Engine) *runTimeQLTool {
	return &runTimeQLTool{engine: e}
}

type runTimeQLInput struct {
	TenantID  string `json:"tenant_id"`
	Query     string `json:"query"`
	NowMs     int64  `json:"now_ms,omitempty"`
	TimeoutMs int64  `json:"timeout_ms,omitempty"`
}

func (t *runTimeQLTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params runTimeQLInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	now := params.NowMs
	if now == 0 {
		now = nowMsFunc()
	}
	return t.engine.Query(ctx, params.TenantID, params.Query, now, time.Duration(params.TimeoutMs)*time.Millisecond)
}

// findRootCauseTool wraps Engine.FindRootCause.
type findRootCauseTool struct {
	engine *engine.Engine
}

func newFindRootCauseTool(e *engine.Engine) *findRootCauseTool {
	return &findRootCauseTool{engine: e}
}

type findRootCauseInput struct {
	EventID string `json:"event_id"`
}

func (t *findRootCauseTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params findRootCauseInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	step := t.engine.FindRootCause(params.EventID)
	if step == nil {
		return nil, fmt.Errorf("no root cause found for event %q", params.EventID)
	}
	return step, nil
}

// nowMsFunc supplies the wall clock whenever a run_timeql call omits
// now_ms; it is overridable in tests.
var nowMsFunc = defaultNowMs
