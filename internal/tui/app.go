// Package tui is the interactive chat client: a topic sidebar, the
// active conversation and a composer line, all driven by a single
// bubbletea model around the sync engine.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/sync"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/view"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/config"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/tui/styles"
)

type focusArea int

const (
	focusSidebar focusArea = iota
	focusComposer
)

type promptKind int

const (
	promptNone promptKind = iota
	promptNewTopic
	promptDeleteTopic
	promptAttach
)

// Config carries the pieces the chat screen needs.
type Config struct {
	Engine         *sync.Engine
	Session        *config.SessionStore
	Role           string
	Theme          string
	ShowTimestamps bool
}

// Model is the root bubbletea model.
type Model struct {
	engine  *sync.Engine
	session *config.SessionStore
	role    string
	theme   styles.Theme
	msgView styles.MessageStyles

	showTimestamps bool

	width  int
	height int

	focus   focusArea
	cursor  int
	scroll  int
	input   string
	pending string // staged attachment path for the next send

	prompt       promptKind
	promptInput  string
	promptTarget string // topic under deletion

	sending bool
	status  string
	loaded  bool
}

// NewModel builds the chat screen around an engine that has not yet
// loaded remote state; Init kicks off the fetch.
func NewModel(cfg Config) (*Model, error) {
	themeName := strings.TrimSpace(cfg.Theme)
	if themeName == "" {
		themeName = styles.DefaultTheme.Name
	}
	theme, ok := styles.Themes[themeName]
	if !ok {
		return nil, fmt.Errorf("invalid theme %q", themeName)
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	return &Model{
		engine:         cfg.Engine,
		session:        cfg.Session,
		role:           cfg.Role,
		theme:          theme,
		msgView:        styles.NewMessageStyles(theme),
		showTimestamps: cfg.ShowTimestamps,
		focus:          focusSidebar,
	}, nil
}

// Run drives the chat screen until the user quits.
func Run(cfg Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Close persists the session so the next launch restores the selection.
func (m *Model) Close() {
	if m.session == nil {
		return
	}
	session := &config.Session{Role: m.role}
	session.SetActiveTopic(m.engine.ActiveTopic())
	_ = m.session.Save(session)
}

func (m *Model) Init() tea.Cmd {
	return loadCmd(m.engine)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil

	case loadedMsg:
		if typed.err != nil {
			m.status = "load failed: " + typed.err.Error()
			return m, nil
		}
		m.loaded = true
		m.restoreSession()
		return m, nil

	case sendResultMsg:
		m.sending = false
		if typed.err != nil {
			m.status = "send failed: " + typed.err.Error()
		}
		m.scroll = 0
		return m, nil

	case topicDeletedMsg:
		if typed.err != nil {
			m.status = "delete failed: " + typed.err.Error()
			return m, nil
		}
		m.status = "deleted " + typed.topicID
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(typed)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case "tab":
		if m.focus == focusSidebar {
			m.focus = focusComposer
		} else {
			m.focus = focusSidebar
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleComposerKey(msg)
}

// restoreSession reselects the topic that was active on last exit, if
// it still exists remotely.
func (m *Model) restoreSession() {
	if m.session == nil {
		return
	}
	session, err := m.session.Load()
	if err != nil || session.IsEmpty() {
		return
	}
	if m.engine.Topics().Contains(session.ActiveTopic) {
		m.engine.SwitchTopic(session.ActiveTopic)
		m.syncCursorToActive()
	}
}

func (m *Model) topicRows() []view.TopicInfo {
	return view.TopicList(m.engine)
}

func (m *Model) clampCursor() {
	rows := m.topicRows()
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) syncCursorToActive() {
	active := m.engine.ActiveTopic()
	for i, row := range m.topicRows() {
		if row.ID == active {
			m.cursor = i
			return
		}
	}
}

func (m *Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	sidebarWidth := m.width / 4
	if sidebarWidth < 20 {
		sidebarWidth = 20
	}
	if sidebarWidth > 36 {
		sidebarWidth = 36
	}
	mainWidth := m.width - sidebarWidth - 1
	if mainWidth < 0 {
		mainWidth = 0
	}

	sidebar := m.renderSidebar(sidebarWidth, contentHeight)
	main := m.renderMain(mainWidth, contentHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", main)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) renderHeader() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "classroom"
	if topic := m.engine.ActiveTopic(); topic != "" {
		left += "  " + topic
	}
	right := m.role
	if !m.loaded {
		right = "loading..."
	}

	space := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if space < 1 {
		space = 1
	}
	return style.Width(maxInt(0, m.width)).Render(left + strings.Repeat(" ", space) + right)
}

func (m *Model) renderFooter() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Footer)).
		Padding(0, 1)

	line := "[tab] focus  [n]ew topic  [d]elete  [enter] open/send  [ctrl+a] attach  [q] quit"
	if m.status != "" {
		line = m.status
	}
	return style.Width(maxInt(0, m.width)).Render(truncate(line, maxInt(0, m.width-2)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
