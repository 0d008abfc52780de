package tui

func (m Model) View() string {
	if !m.ready {
		return "Initializing...\n"
	}
	return titleStyle.Render("causengine monitor") + "\n" +
		m.viewport.View() + "\n" +
		helpStyle.Render("q: quit")
}
