package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/traversion/causengine/internal/eventbus"
)

// App runs the monitor Model as a full-screen Bubble Tea program, wired
// to an engine's event bus, mirroring the teacher's App/program wrapper.
type App struct {
	program *tea.Program
}

// NewApp constructs an App subscribed to bus.
func NewApp(bus *eventbus.Bus) *App {
	ch := make(chan interface{}, 256)
	Bridge(bus, ch)
	model := NewModel(ch)
	return &App{program: tea.NewProgram(model, tea.WithAltScreen())}
}

// Run blocks until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		a.program.Quit()
	}()
	_, err := a.program.Run()
	return err
}
