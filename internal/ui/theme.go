package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a named color palette.
type Theme struct {
	Name string

	Background string // behind overlays
	Surface    string // header and command bar
	Selection  string // focused button

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Warning string
	Danger  string

	// StatusColors is keyed by "idle", "running" or an outcome kind.
	StatusColors map[string]string
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header lipgloss.Style
	Logo   lipgloss.Style

	// Form controls
	Label         lipgloss.Style
	LabelFocused  lipgloss.Style
	Option        lipgloss.Style
	OptionFocused lipgloss.Style
	Disabled      lipgloss.Style
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style

	status     map[string]string
	background string
	muted      string
}

// Styles builds the style set for t.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }

	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Logo: fg(t.Warning).Bold(true),

		Label:         fg(t.Muted).Width(LayoutFormLabelWidth),
		LabelFocused:  fg(t.Accent).Width(LayoutFormLabelWidth),
		Option:        fg(t.Text),
		OptionFocused: fg(t.Accent).Bold(true),
		Disabled:      fg(t.Faint),
		Button:        fg(t.Muted).Padding(0, 1),
		ButtonFocused: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Selection)).
			Foreground(lipgloss.Color(t.Text)).
			Bold(true).
			Padding(0, 1),

		status:     t.StatusColors,
		background: t.Background,
		muted:      t.Muted,
	}
}

// StateColor is the foreground color for a job state or outcome kind.
func (s Styles) StateColor(state string) lipgloss.Color {
	if c := s.status[state]; c != "" {
		return lipgloss.Color(c)
	}
	return lipgloss.Color(s.muted)
}

// StatusStyle renders an outcome badge.
func (s Styles) StatusStyle(state string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(s.StateColor(state)).
		Padding(0, 1)
}

// WithBackground returns a copy where every text style paints bgColor.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.WarningText, &out.DangerText, &out.Header, &out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

var themes = map[string]Theme{
	"Nightfox": {
		// https://github.com/EdenEast/nightfox.nvim
		Name:       "Nightfox",
		Background: "#131a24",
		Surface:    "#192330",
		Selection:  "#2b3b51",
		Text:       "#cdcecf",
		Muted:      "#738091",
		Faint:      "#71839b",
		Accent:     "#719cd6",
		Warning:    "#dbc074",
		Danger:     "#c94f6d",
		StatusColors: map[string]string{
			"idle":      "#738091",
			"running":   "#719cd6",
			"success":   "#81b29a",
			"failure":   "#c94f6d",
			"cancelled": "#dbc074",
		},
	},
	"Kanagawa": {
		// https://github.com/rebelot/kanagawa.nvim
		Name:       "Kanagawa",
		Background: "#16161D",
		Surface:    "#1F1F28",
		Selection:  "#2D4F67",
		Text:       "#DCD7BA",
		Muted:      "#C8C093",
		Faint:      "#727169",
		Accent:     "#7E9CD8",
		Warning:    "#E6C384",
		Danger:     "#E46876",
		StatusColors: map[string]string{
			"idle":      "#727169",
			"running":   "#7E9CD8",
			"success":   "#98BB6C",
			"failure":   "#E46876",
			"cancelled": "#E6C384",
		},
	},
	"Slate": {
		// Tailwind slate and sky
		Name:       "Slate",
		Background: "#020617",
		Surface:    "#0f172a",
		Selection:  "#0284c7",
		Text:       "#f1f5f9",
		Muted:      "#94a3b8",
		Faint:      "#64748b",
		Accent:     "#38bdf8",
		Warning:    "#f59e0b",
		Danger:     "#ef4444",
		StatusColors: map[string]string{
			"idle":      "#64748b",
			"running":   "#0ea5e9",
			"success":   "#16a34a",
			"failure":   "#dc2626",
			"cancelled": "#f59e0b",
		},
	},
}

// GetTheme returns the named theme, falling back to the first one.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	return themeOrder
}
