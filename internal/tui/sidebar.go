package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.topicRows()

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(rows) {
			m.engine.SwitchTopic(rows[m.cursor].ID)
			m.scroll = 0
			m.status = ""
			m.focus = focusComposer
		}
	case "n":
		m.prompt = promptNewTopic
		m.promptInput = ""
	case "d":
		if m.cursor < len(rows) {
			m.prompt = promptDeleteTopic
			m.promptTarget = rows[m.cursor].ID
		}
	}
	return m, nil
}

func (m *Model) renderSidebar(width, height int) string {
	pane := m.theme.PaneStyle(m.focus == focusSidebar).Width(width).Height(height)
	innerWidth := width - 2

	rows := m.topicRows()
	if len(rows) == 0 {
		empty := m.theme.MutedStyle().Render("no topics yet\npress n to start one")
		return pane.Render(empty)
	}

	selected := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Chrome.SelectedItem)).
		Bold(true)

	var b strings.Builder
	lastCategory := ""
	for i, row := range rows {
		if row.Category != lastCategory {
			if lastCategory != "" {
				b.WriteString("\n")
			}
			b.WriteString(m.theme.MutedStyle().Render(truncate(row.Category, innerWidth)))
			b.WriteString("\n")
			lastCategory = row.Category
		}

		label := fmt.Sprintf("%s (%d)", row.ID, row.MessageCount)
		line := truncate(label, innerWidth-2)
		switch {
		case i == m.cursor:
			b.WriteString(selected.Render("> " + line))
		case row.Active:
			b.WriteString(m.theme.AccentStyle().Render("  " + line))
		default:
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	return pane.Render(strings.TrimRight(b.String(), "\n"))
}
