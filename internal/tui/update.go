package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/traversion/causengine/internal/anomaly"
	"github.com/traversion/causengine/internal/eventbus"
	"github.com/traversion/causengine/internal/models"
	"github.com/traversion/causengine/internal/pattern"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case EventProcessedMsg:
		ev := msg.Node.Event
		m.pushFeedLine(fmt.Sprintf("%s %s/%s", ev.EventID, ev.ServiceID, ev.EventType), "")
		m.syncViewport()
		return m, waitForUIEvent(m.eventCh)

	case AnomalyDetectedMsg:
		m.pushFeedLine(fmt.Sprintf("anomaly score=%.2f class=%s", msg.Result.Score, msg.Result.Class), string(msg.Result.Class))
		m.syncViewport()
		return m, waitForUIEvent(m.eventCh)

	case PatternMatchedMsg:
		verb := "matched"
		if msg.Created {
			verb = "new"
		}
		m.pushFeedLine(fmt.Sprintf("pattern %s %s", verb, msg.PatternID), "")
		m.syncViewport()
		return m, waitForUIEvent(m.eventCh)

	case *models.Chain:
		m.chain = msg
		m.syncViewport()
		return m, waitForUIEvent(m.eventCh)

	case RootCauseMsg:
		m.rootCauseMD = msg.Markdown
		m.syncViewport()
		return m, waitForUIEvent(m.eventCh)

	case nil:
		return m, nil
	}
	return m, waitForUIEvent(m.eventCh)
}

func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderFeed() + m.renderChain() + m.renderRootCause())
	m.viewport.GotoBottom()
}

// Bridge subscribes m's source channel to an engine event bus, translating
// bus payloads into tea.Msg values the Update loop understands.
func Bridge(bus *eventbus.Bus, ch chan<- interface{}) {
	bus.Subscribe(eventbus.TopicEventProcessed, func(payload interface{}) {
		if node, ok := payload.(*models.Node); ok {
			ch <- EventProcessedMsg{Node: node}
		}
	})
	bus.Subscribe(eventbus.TopicAnomalyDetected, func(payload interface{}) {
		if result, ok := payload.(anomaly.Result); ok {
			ch <- AnomalyDetectedMsg{Result: result}
		}
	})
	bus.Subscribe(eventbus.TopicPatternMatched, func(payload interface{}) {
		if mr, ok := payload.(pattern.MatchResult); ok {
			ch <- PatternMatchedMsg{PatternID: mr.Pattern.PatternID, Created: mr.Created}
		}
	})
}
