package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/engine"
)

var (
	queryTenant    string
	queryNowMs     int64
	queryTimeoutMs int64
)

var queryCmd = &cobra.Command{
	Use:   "query <timeql statement>",
	Short: "Run one TimeQL statement against a freshly started engine and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryTenant, "tenant", "", "tenant id to scope the query to")
	queryCmd.Flags().Int64Var(&queryNowMs, "now-ms", 0, "wall clock override, ms since epoch (default: current time)")
	queryCmd.Flags().Int64Var(&queryTimeoutMs, "timeout-ms", 0, "per-call query deadline override, ms (default: query_default_timeout_ms)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := setupLog(); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	e := engine.New(cfg)

	now := queryNowMs
	if now == 0 {
		now = time.Now().UnixMilli()
	}

	result, err := e.Query(context.Background(), queryTenant, args[0], now, time.Duration(queryTimeoutMs)*time.Millisecond)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
