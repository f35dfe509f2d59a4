package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/divisio/stag/internal/logtail"
)

// logState holds the application log view.
type logState struct {
	lines  []string
	levels []string
	err    error
	follow bool
}

type logLinesMsg struct {
	lines  []string
	levels []string
	err    error
}

func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(m.width, m.logHeight())
	m.logState.follow = true
}

func (m Model) logHeight() int {
	return maxInt(m.height-3, 3)
}

func (m *Model) resizeLogs() {
	m.logViewport.Width = m.width
	m.logViewport.Height = m.logHeight()
	m.updateLogViewport()
}

// refreshLogs reads the tail of the application log in the background.
func (m Model) refreshLogs() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		raw, err := logtail.Read(path, LogFetchLimit)
		levels := make([]string, len(raw))
		for i, line := range raw {
			levels[i] = logtail.Level(line)
		}
		return logLinesMsg{lines: logtail.FormatLines(raw), levels: levels, err: err}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.lines = msg.lines
		m.logState.levels = msg.levels
	}
	m.updateLogViewport()
}

func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	m.logViewport.SetContent(m.renderLogContent())
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) renderLogContent() string {
	styles := m.theme.Styles()
	if m.logPath == "" {
		return styles.MutedText.Render("Logging to a file is disabled.")
	}
	if m.logState.err != nil {
		return styles.DangerText.Render("Unable to read log: " + m.logState.err.Error())
	}
	if len(m.logState.lines) == 0 {
		return styles.MutedText.Render("No log entries yet.")
	}

	var b strings.Builder
	for i, line := range m.logState.lines {
		level := ""
		if i < len(m.logState.levels) {
			level = m.logState.levels[i]
		}
		b.WriteString(m.getLevelStyle(level, styles).Render(line))
		if i < len(m.logState.lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) getLevelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.Text
	}
}

func (m *Model) scrollLogs(up bool) {
	if up {
		m.logViewport.PageUp()
	} else {
		m.logViewport.PageDown()
	}
	m.logState.follow = m.logViewport.AtBottom()
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Application Log")
	if m.logPath != "" {
		title += " " + styles.FaintText.Render(truncateMiddle(m.logPath, maxInt(m.width-20, 10)))
	}
	if !m.logState.follow {
		title += " " + styles.WarningText.Render("(paused)")
	}
	return title + "\n" + m.logViewport.View()
}
