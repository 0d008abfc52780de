package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/traversion/causengine/internal/config"
	"github.com/traversion/causengine/internal/engine"
	"github.com/traversion/causengine/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the live causality monitor",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	if err := setupLog(); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	e := engine.New(cfg)

	app := tui.NewApp(e.Bus())
	return app.Run(context.Background())
}
