package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// chromeHeight counts the rows around the output viewport: header, command
// bar, form, output title and status line.
const chromeHeight = 2 + formHeight + 1 + 1

func (m *Model) initOutputViewport() {
	m.output = viewport.New(m.width, m.outputHeight())
	m.follow = true
}

func (m Model) outputHeight() int {
	return maxInt(m.height-chromeHeight, 3)
}

// syncOutput styles the lines added since the last call and keeps the view
// pinned to the newest line while following.
func (m *Model) syncOutput() {
	if !m.ready || !m.console.takeDirty() {
		return
	}
	m.renderNewLines()
	m.output.SetContent(strings.Join(m.console.rendered, "\n"))
	if m.follow {
		m.output.GotoBottom()
	}
}

// outputFrameMsg moves styled output into the viewport.
type outputFrameMsg struct{}

// scheduleOutput styles new lines right away. While a job streams, the
// viewport itself is refreshed at most once per frame.
func (m *Model) scheduleOutput() tea.Cmd {
	if !m.ready {
		return nil
	}
	m.renderNewLines()
	if !m.console.running {
		m.syncOutput()
		return nil
	}
	if m.framePending || !m.console.dirty {
		return nil
	}
	m.framePending = true
	return tea.Tick(OutputFrameInterval, func(time.Time) tea.Msg { return outputFrameMsg{} })
}

func (m *Model) resizeOutput() {
	if maxInt(m.output.Width, 10) != maxInt(m.width, 10) {
		m.console.invalidate()
	}
	m.output.Width = m.width
	m.output.Height = m.outputHeight()
	m.console.dirty = true
	m.syncOutput()
}

func (m *Model) renderNewLines() {
	c := m.console
	if len(c.rendered) == len(c.lines) {
		return
	}
	styles := m.theme.Styles()
	wrap := lipgloss.NewStyle().Width(maxInt(m.output.Width, 10))
	for _, line := range c.lines[len(c.rendered):] {
		style := styles.Text
		if line.isErr {
			style = styles.DangerText
		}
		c.rendered = append(c.rendered, wrap.Render(style.Render(line.text)))
	}
}

func (m *Model) scrollOutput(up bool) {
	if up {
		m.output.PageUp()
	} else {
		m.output.PageDown()
	}
	m.follow = m.output.AtBottom()
}

func (m *Model) followOutput() {
	m.follow = true
	m.output.GotoBottom()
}

// renderMainView renders the form above the job output.
func (m Model) renderMainView() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Tagger Output:")
	if !m.follow {
		title += " " + styles.WarningText.Render("(paused, ctrl+end to follow)")
	}
	return strings.Join([]string{
		m.renderForm(),
		title,
		m.output.View(),
		m.renderStatusLine(),
	}, "\n")
}
