// Package tui is a live causality monitor built on bubbletea/bubbles/
// lipgloss/glamour, adapted from the teacher's internal/agent/tui chat
// screen: the same viewport-plus-event-channel architecture, repurposed
// to show an event feed, a chain viewer, and a markdown-rendered
// root-cause pane instead of an agent conversation.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/traversion/causengine/internal/anomaly"
	"github.com/traversion/causengine/internal/models"
)

// FeedLine is one rendered entry in the live event feed.
type FeedLine struct {
	At      time.Time
	Text    string
	Class   string // "", "warning", "error", "critical" — drives color
}

// EventProcessedMsg wraps a node published on event:processed.
type EventProcessedMsg struct{ Node *models.Node }

// AnomalyDetectedMsg wraps a result published on anomaly:detected.
type AnomalyDetectedMsg struct{ Result anomaly.Result }

// PatternMatchedMsg wraps a pattern match published on pattern:matched.
type PatternMatchedMsg struct{ PatternID string; Created bool }

// RootCauseMsg carries a root-cause explanation to render as markdown.
type RootCauseMsg struct{ Markdown string }

// Model is the Bubble Tea model driving the monitor screen.
type Model struct {
	width, height int
	ready         bool

	feed     []FeedLine
	viewport viewport.Model

	chain        *models.Chain
	rootCauseMD  string
	mdRenderer   *glamour.TermRenderer

	eventCh <-chan interface{}
}

// NewModel constructs a Model that reads UI events from ch (fed by a
// bridge subscribed to the engine's event bus).
func NewModel(ch <-chan interface{}) Model {
	renderer, _ := glamour.NewTermRenderer(glamour.WithAutoStyle())
	return Model{
		eventCh:    ch,
		mdRenderer: renderer,
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUIEvent(m.eventCh)
}

func waitForUIEvent(ch <-chan interface{}) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) pushFeedLine(text, class string) {
	m.feed = append(m.feed, FeedLine{At: time.Now(), Text: text, Class: class})
	if len(m.feed) > 500 {
		m.feed = m.feed[len(m.feed)-500:]
	}
}

func (m *Model) renderFeed() string {
	var b strings.Builder
	b.WriteString(feedHeaderStyle.Render("EVENT FEED"))
	b.WriteString("\n")
	for _, line := range m.feed {
		style := severityStyle(line.Class)
		fmt.Fprintf(&b, "%s %s\n", line.At.Format("15:04:05.000"), style.Render(line.Text))
	}
	return b.String()
}

func (m *Model) renderChain() string {
	if m.chain == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", feedHeaderStyle.Render(fmt.Sprintf("CHAIN %s (confidence %.2f)", m.chain.ChainID, m.chain.Confidence)))
	for _, step := range m.chain.Steps {
		fmt.Fprintf(&b, "%s%s [%s] depth=%d conf=%.2f\n",
			strings.Repeat("  ", step.Depth), edgeStyle.Render(step.EventID), step.EventType, step.Depth, step.PathConfidence)
	}
	return b.String()
}

func (m *Model) renderRootCause() string {
	if m.rootCauseMD == "" {
		return ""
	}
	rendered := m.rootCauseMD
	if m.mdRenderer != nil {
		if out, err := m.mdRenderer.Render(m.rootCauseMD); err == nil {
			rendered = out
		}
	}
	return "\n" + feedHeaderStyle.Render("ROOT CAUSE") + "\n" + rendered
}
