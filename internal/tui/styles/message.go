package styles

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// MessageStyles contains pre-built styles for chat bubbles.
type MessageStyles struct {
	Theme Theme

	Own       lipgloss.Style
	Other     lipgloss.Style
	Timestamp lipgloss.Style
	Pending   lipgloss.Style
	Failed    lipgloss.Style
	Body      lipgloss.Style
}

// NewMessageStyles builds a reusable style set for chat rendering.
func NewMessageStyles(theme Theme) MessageStyles {
	return MessageStyles{
		Theme:     theme,
		Own:       lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Own)).Bold(true),
		Other:     lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Other)).Bold(true),
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Muted)),
		Pending:   lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Pending)).Faint(true),
		Failed:    lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Failed)).Bold(true),
		Body:      lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Foreground)),
	}
}

// RenderHeader renders a speaker label with optional timestamp.
func (s MessageStyles) RenderHeader(label string, own bool, ts time.Time, showTime bool) string {
	style := s.Other
	if own {
		style = s.Own
	}
	header := style.Render(label)
	if showTime && !ts.IsZero() {
		header += " " + s.Timestamp.Render(ts.Format("15:04:05"))
	}
	return header
}

// RenderBody renders wrapped body text.
func (s MessageStyles) RenderBody(body string, width int) string {
	return s.Body.Render(WrapBody(body, width))
}

// WrapBody word-wraps body text to width, keeping at least one column.
func WrapBody(body string, width int) string {
	if width < 1 {
		width = 1
	}
	return strings.TrimRight(wordwrap.String(body, width), "\n")
}
