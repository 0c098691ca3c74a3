package tui

import (
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/attach"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/sync"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/view"
)

func (m *Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusSidebar
		return m, nil
	case "ctrl+a":
		m.prompt = promptAttach
		m.promptInput = ""
		return m, nil
	case "enter":
		return m.submit()
	case "backspace":
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
		return m, nil
	case "up", "pgup":
		m.scroll++
		return m, nil
	case "down", "pgdown":
		if m.scroll > 0 {
			m.scroll--
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	if m.sending {
		m.status = "still waiting for the previous answer"
		return m, nil
	}
	if m.engine.ActiveTopic() == "" {
		m.status = "select or create a topic first"
		return m, nil
	}
	text := strings.TrimSpace(m.input)
	if text == "" && m.pending == "" {
		return m, nil
	}

	input := sync.SendInput{Text: text, FilePath: m.pending}
	m.input = ""
	m.pending = ""
	m.sending = true
	m.status = ""
	m.scroll = 0
	return m, sendCmd(m.engine, input)
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.prompt {
	case promptDeleteTopic:
		switch msg.String() {
		case "y", "Y":
			target := m.promptTarget
			m.prompt = promptNone
			m.promptTarget = ""
			return m, deleteTopicCmd(m.engine, target)
		case "n", "N", "esc":
			m.prompt = promptNone
			m.promptTarget = ""
		}
		return m, nil

	case promptNewTopic, promptAttach:
		switch msg.String() {
		case "esc":
			m.prompt = promptNone
			m.promptInput = ""
			return m, nil
		case "enter":
			return m.submitPrompt()
		case "backspace":
			if len(m.promptInput) > 0 {
				runes := []rune(m.promptInput)
				m.promptInput = string(runes[:len(runes)-1])
			}
			return m, nil
		}
		switch msg.Type {
		case tea.KeySpace:
			m.promptInput += " "
		case tea.KeyRunes:
			m.promptInput += string(msg.Runes)
		}
	}
	return m, nil
}

func (m *Model) submitPrompt() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.promptInput)
	kind := m.prompt
	m.prompt = promptNone
	m.promptInput = ""

	switch kind {
	case promptNewTopic:
		if err := m.engine.CreateTopic(value); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.syncCursorToActive()
		m.focus = focusComposer
		m.status = ""
	case promptAttach:
		if value == "" {
			return m, nil
		}
		m.pending = value
		m.status = "attached " + filepath.Base(value)
	}
	return m, nil
}

func (m *Model) renderMain(width, height int) string {
	composer := m.renderComposer(width)
	conversationHeight := height - lipgloss.Height(composer)
	if conversationHeight < 0 {
		conversationHeight = 0
	}
	conversation := m.renderConversation(width, conversationHeight)
	return lipgloss.JoinVertical(lipgloss.Left, conversation, composer)
}

func (m *Model) renderConversation(width, height int) string {
	pane := m.theme.PaneStyle(false).Width(width).Height(height)
	innerWidth := width - 4
	if innerWidth < 10 {
		innerWidth = 10
	}

	messages := view.Conversation(m.engine)
	if len(messages) == 0 {
		return pane.Render(m.theme.MutedStyle().Render("no conversation selected"))
	}

	var lines []string
	for _, message := range messages {
		lines = append(lines, m.renderMessage(message, innerWidth)...)
		lines = append(lines, "")
	}

	// Anchor to the bottom, offset by the scroll distance.
	visible := height - 2
	if visible < 1 {
		visible = 1
	}
	end := len(lines) - m.scroll
	if end > len(lines) {
		end = len(lines)
	}
	if end < 0 {
		end = 0
	}
	start := end - visible
	if start < 0 {
		start = 0
	}
	return pane.Render(strings.Join(lines[start:end], "\n"))
}

func (m *Model) renderMessage(message chat.Message, width int) []string {
	own := message.Role == chat.RoleUser
	label := "assistant"
	if own {
		label = "you"
	}

	header := m.msgView.RenderHeader(label, own, message.CreatedAt, m.showTimestamps)
	switch message.State {
	case chat.DeliveryPending:
		header += " " + m.msgView.Pending.Render("…")
	case chat.DeliveryFailed:
		header += " " + m.msgView.Failed.Render("✗ not delivered")
	}

	lines := []string{header}

	if message.Loading {
		lines = append(lines, m.msgView.Pending.Render("thinking..."))
		return lines
	}

	if message.Body != "" {
		lines = append(lines, strings.Split(m.msgView.RenderBody(message.Body, width), "\n")...)
	}
	if ref := m.attachmentRef(message); ref != "" {
		label := string(attach.KindFor(ref)) + ": " + ref
		lines = append(lines, m.theme.AccentStyle().Render(truncate("["+label+"]", width)))
	}
	return lines
}

// attachmentRef shows the confirmed URL when the server has one, and
// the local preview path while the upload is still in flight.
func (m *Model) attachmentRef(message chat.Message) string {
	if message.AttachmentURL != "" {
		return message.AttachmentURL
	}
	if message.PreviewHandle != "" {
		if path, ok := m.engine.Previews().Resolve(message.PreviewHandle); ok {
			return filepath.Base(path)
		}
	}
	return ""
}

func (m *Model) renderComposer(width int) string {
	pane := m.theme.PaneStyle(m.focus == focusComposer).Width(width)
	innerWidth := width - 4
	if innerWidth < 10 {
		innerWidth = 10
	}

	switch m.prompt {
	case promptNewTopic:
		return pane.Render(m.theme.AccentStyle().Render("new topic: ") + m.promptInput + "▌")
	case promptAttach:
		return pane.Render(m.theme.AccentStyle().Render("attach file: ") + m.promptInput + "▌")
	case promptDeleteTopic:
		return pane.Render(m.msgView.Failed.Render("delete "+m.promptTarget+"? (y/n)"))
	}

	line := m.input
	if m.focus == focusComposer {
		line += "▌"
	}
	if m.pending != "" {
		line = m.theme.MutedStyle().Render("["+filepath.Base(m.pending)+"] ") + line
	}
	if m.sending {
		line = m.msgView.Pending.Render("sending... ") + line
	}
	return pane.Render(truncate(line, innerWidth))
}
