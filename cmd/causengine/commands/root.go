package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/traversion/causengine/internal/logging"
)

const Version = "0.1.0"

var (
	logLevelFlags []string
	configPath    string
)

var rootCmd = &cobra.Command{
	Use:     "causengine",
	Short:   "Causality Engine - real-time event causality graph and TimeQL",
	Long:    `causengine ingests events into a confidence-weighted causality graph, detects relations between them, scores anomalies, and answers TimeQL queries over the result.`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&logLevelFlags, "log-level", []string{"info"},
		"Log level for packages. Use 'default=level' for default, or 'package.name=level' for per-package.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (optional)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)
}

func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}

func setupLog() error {
	defaultLevel, packageLevels, err := parseLogLevelFlags(logLevelFlags)
	if err != nil {
		return err
	}
	return logging.Initialize(defaultLevel, packageLevels)
}

func parseLogLevelFlags(flags []string) (string, map[string]string, error) {
	result := make(map[string]string)
	for _, flag := range flags {
		if !strings.Contains(flag, "=") {
			result["default"] = flag
			continue
		}
		parts := strings.SplitN(flag, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	defaultLevel := "info"
	if level, ok := result["default"]; ok {
		defaultLevel = level
		delete(result, "default")
	}
	return defaultLevel, result, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
