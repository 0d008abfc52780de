package main

import (
	"os"

	"github.com/traversion/causengine/cmd/causengine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
