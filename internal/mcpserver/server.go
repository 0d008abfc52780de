package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/traversion/causengine/internal/engine"
	"github.com/traversion/causengine/internal/logging"
)

func defaultNowMs() int64 { return time.Now().UnixMilli() }

// Server wraps an mcp-go server exposing the engine's ingest_event,
// run_timeql, and find_root_cause tools, adapted from the teacher's
// SpectreServer registration idiom.
type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
	tools     map[string]Tool
	logger    *logging.Logger
}

// New constructs a Server wired to e. version is surfaced to MCP clients
// during capability negotiation.
func New(e *engine.Engine, version string) *Server {
	mcpServer := server.NewMCPServer(
		"Causality Engine MCP Server",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		engine:    e,
		tools:     make(map[string]Tool),
		logger:    logging.GetLogger("mcpserver"),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.registerTool(
		"ingest_event",
		"Ingest one event into the causality graph and return the detected edges, anomaly score, and any matched pattern",
		newIngestEventTool(s.engine),
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"event_id":       map[string]interface{}{"type": "string"},
				"timestamp":      map[string]interface{}{"type": "integer", "description": "ms since epoch"},
				"service_id":     map[string]interface{}{"type": "string"},
				"service_name":   map[string]interface{}{"type": "string"},
				"trace_id":       map[string]interface{}{"type": "string"},
				"span_id":        map[string]interface{}{"type": "string"},
				"parent_span_id": map[string]interface{}{"type": "string"},
				"event_type":     map[string]interface{}{"type": "string"},
				"tenant_id":      map[string]interface{}{"type": "string"},
				"data":           map[string]interface{}{"type": "object"},
				"metadata":       map[string]interface{}{"type": "object"},
			},
			"required": []string{"event_id", "timestamp", "service_id", "event_type"},
		},
	)

	s.registerTool(
		"run_timeql",
		"Run a TimeQL statement (STATE AT / TRAVERSE / MATCH PATTERN / TIMELINE / COMPARE / PREDICT NEXT) against the causality graph",
		newRunTimeQLTool(s.engine),
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"tenant_id":  map[string]interface{}{"type": "string"},
				"query":      map[string]interface{}{"type": "string", "description": "a single TimeQL statement"},
				"now_ms":     map[string]interface{}{"type": "integer", "description": "optional wall clock override, ms since epoch"},
				"timeout_ms": map[string]interface{}{"type": "integer", "description": "optional per-call deadline override, ms"},
			},
			"required": []string{"tenant_id", "query"},
		},
	)

	s.registerTool(
		"find_root_cause",
		"Trace backward from an event and return its root cause",
		newFindRootCauseTool(s.engine),
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"event_id": map[string]interface{}{"type": "string"},
			},
			"required": []string{"event_id"},
		},
	)
}

func (s *Server) registerTool(name, description string, tool Tool, inputSchema map[string]interface{}) {
	s.tools[name] = tool

	schemaJSON, err := json.Marshal(inputSchema)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal schema for tool %s: %v", name, err))
	}

	mcpTool := mcp.NewToolWithRawSchema(name, description, schemaJSON)
	s.mcpServer.AddTool(mcpTool, s.createToolHandler(tool))
}

func (s *Server) createToolHandler(tool Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		result, err := tool.Execute(ctx, args)
		if err != nil {
			s.logger.Warn("tool execution failed: %v", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		resultJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

// GetMCPServer returns the underlying mcp-go server, for transport setup
// (stdio or HTTP) by the CLI layer.
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
