// Package styles holds the TUI theme tokens and prebuilt lipgloss
// styles for chat rendering.
package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// MessageColors defines colors per message origin and delivery state.
type MessageColors struct {
	Own     string
	Other   string
	Pending string
	Failed  string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
}

// BorderColors defines border colors for pane state.
type BorderColors struct {
	ActivePane   string
	InactivePane string
}

// Theme defines the classroom TUI style tokens.
type Theme struct {
	Name string

	Base    BaseColors
	Message MessageColors
	Chrome  ChromeColors
	Borders BorderColors
}

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Message: MessageColors{
		Own:     "81",
		Other:   "147",
		Pending: "245",
		Failed:  "203",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		SelectedItem: "75",
	},
	Borders: BorderColors{
		ActivePane:   "75",
		InactivePane: "240",
	},
}

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
	},
	Message: MessageColors{
		Own:     "87",
		Other:   "225",
		Pending: "250",
		Failed:  "196",
	},
	Chrome: ChromeColors{
		Header:       "117",
		Footer:       "159",
		SelectedItem: "51",
	},
	Borders: BorderColors{
		ActivePane:   "231",
		InactivePane: "250",
	},
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// AccentStyle highlights interactive or selected text.
func (t Theme) AccentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent))
}

// MutedStyle renders secondary text.
func (t Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

// PaneStyle frames a panel, accent-bordered when focused.
func (t Theme) PaneStyle(focused bool) lipgloss.Style {
	border := t.Borders.InactivePane
	if focused {
		border = t.Borders.ActivePane
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1)
}
