package commands

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/engine"
	"github.com/traversion/causengine/internal/logging"
	"github.com/traversion/causengine/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server over stdio",
	Long:  `Start the Model Context Protocol server exposing ingest_event, run_timeql, and find_root_cause as tools for AI assistants.`,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	if err := setupLog(); err != nil {
		return err
	}
	logger := logging.GetLogger("cmd.mcp")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	e := engine.New(cfg)

	srv := mcpserver.New(e, Version)
	logger.Info("starting MCP server over stdio")
	return server.ServeStdio(srv.GetMCPServer())
}
