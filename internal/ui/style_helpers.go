package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle paints every cell of a bar, including the gaps between styled
// words, with one background color. Without it the ANSI resets between
// segments leave holes in the header background.
type BgStyle struct {
	bg    lipgloss.Style
	space string
}

// NewBgStyle returns a painter for bgColor.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.NewStyle().Background(lipgloss.Color(bgColor))
	return BgStyle{bg: bg, space: bg.Render(" ")}
}

// Render styles text word by word so the spaces keep the background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	style = style.Background(b.bg.GetBackground())
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space is one painted blank.
func (b BgStyle) Space() string { return b.space }

// Spaces is n painted blanks.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(b.space, n)
}

// Sep paints a literal separator.
func (b BgStyle) Sep(sep string) string { return b.bg.Render(sep) }

// Join joins rendered parts with a painted separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}
