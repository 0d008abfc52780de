package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpsdk "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/durable"
	"github.com/traversion/causengine/internal/engine"
	"github.com/traversion/causengine/internal/lifecycle"
	"github.com/traversion/causengine/internal/logging"
	"github.com/traversion/causengine/internal/mcpserver"
	"github.com/traversion/causengine/internal/tracing"
)

var (
	durableStoreKind string
	falkorHost       string
	falkorPort       int
	falkorPassword   string
	falkorGraphName  string
	tracingEnabled   bool
	tracingEndpoint  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine as a long-lived MCP server, replaying from the durable store first",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&durableStoreKind, "durable-store", "memory", "durable store backend: memory|falkordb")
	serveCmd.Flags().StringVar(&falkorHost, "falkordb-host", getEnv("FALKORDB_HOST", "localhost"), "FalkorDB host")
	serveCmd.Flags().IntVar(&falkorPort, "falkordb-port", 6379, "FalkorDB port")
	serveCmd.Flags().StringVar(&falkorPassword, "falkordb-password", os.Getenv("FALKORDB_PASSWORD"), "FalkorDB password")
	serveCmd.Flags().StringVar(&falkorGraphName, "falkordb-graph", "causengine", "FalkorDB graph name")
	serveCmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false, "enable OpenTelemetry tracing")
	serveCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC collector endpoint")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := setupLog(); err != nil {
		return err
	}
	logger := logging.GetLogger("cmd.serve")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var store durable.Store
	switch durableStoreKind {
	case "falkordb":
		fcfg := durable.DefaultFalkorDBConfig()
		fcfg.Host, fcfg.Port, fcfg.Password, fcfg.GraphName = falkorHost, falkorPort, falkorPassword, falkorGraphName
		fs, err := durable.NewFalkorStore(fcfg)
		if err != nil {
			return err
		}
		store = fs
	case "memory":
		store = durable.NewMemoryStore()
	default:
		return fmt.Errorf("unknown --durable-store: %s", durableStoreKind)
	}

	e := engine.New(cfg, engine.WithStore(store))

	manager := lifecycle.NewManager()

	tracingProvider, err := tracing.NewTracingProvider(tracing.Config{
		Enabled:  tracingEnabled,
		Endpoint: tracingEndpoint,
	})
	if err != nil {
		return err
	}
	if err := manager.Register(tracingProvider); err != nil {
		return err
	}

	storeComponent := durable.NewStoreComponent(store, func(ctx context.Context) error {
		_, err := e.Replay(ctx, 0)
		return err
	})
	if err := manager.Register(storeComponent); err != nil {
		return err
	}

	mcpComponent := newMCPComponent(e)
	if err := manager.Register(mcpComponent, tracingProvider, storeComponent); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Start(ctx); err != nil {
		return err
	}
	logger.Info("causengine serving; press ctrl-c to stop")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return manager.Stop(shutdownCtx)
}

// mcpComponent adapts the stdio-served MCP server to lifecycle.Component.
type mcpComponent struct {
	srv *mcpserver.Server
}

func newMCPComponent(e *engine.Engine) *mcpComponent {
	return &mcpComponent{srv: mcpserver.New(e, Version)}
}

func (c *mcpComponent) Name() string { return "mcp-server" }

func (c *mcpComponent) Start(ctx context.Context) error {
	go func() {
		_ = mcpsdk.ServeStdio(c.srv.GetMCPServer())
	}()
	return nil
}

func (c *mcpComponent) Stop(ctx context.Context) error { return nil }
