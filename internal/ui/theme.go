package ui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the UI.
type Theme struct {
	Name string

	Surface string
	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
}

// Styles contains pre-built lipgloss styles for a theme.
type Styles struct {
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Logo    lipgloss.Style
	Text    lipgloss.Style
	Muted   lipgloss.Style
	Faint   lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
}

// Styles builds the lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		Text:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		Faint:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
	}
}

var themes = map[string]Theme{
	"dark": {
		Name:    "dark",
		Surface: "#1f2430",
		Text:    "#cbccc6",
		Muted:   "#707a8c",
		Faint:   "#4d5566",
		Accent:  "#73d0ff",
		Success: "#bae67e",
		Warning: "#ffd580",
		Danger:  "#ff3333",
	},
	"light": {
		Name:    "light",
		Surface: "#e7eaed",
		Text:    "#5c6166",
		Muted:   "#8a9199",
		Faint:   "#b5bcc4",
		Accent:  "#399ee6",
		Success: "#6cbf43",
		Warning: "#f2ae49",
		Danger:  "#e65050",
	},
}

// ThemeByName returns the named theme, falling back to dark.
func ThemeByName(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["dark"]
}
