package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/engine"
	"github.com/traversion/causengine/internal/logging"
	"github.com/traversion/causengine/internal/models"
)

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest newline-delimited JSON events from a file or stdin",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "path to an NDJSON file of events (default: stdin)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := setupLog(); err != nil {
		return err
	}
	logger := logging.GetLogger("cmd.ingest")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	e := engine.New(cfg)

	var in *os.File
	if ingestFile == "" {
		in = os.Stdin
	} else {
		in, err = os.Open(ingestFile)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", ingestFile, err)
		}
		defer in.Close()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	ctx := context.Background()
	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev models.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			logger.Warn("skipping malformed line: %v", err)
			continue
		}
		result, err := e.Ingest(ctx, ev)
		if err != nil {
			logger.Warn("ingest failed for %s: %v", ev.EventID, err)
			continue
		}
		count++
		out, _ := json.Marshal(result)
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	logger.Info("ingested %d event(s)", count)
	return nil
}
