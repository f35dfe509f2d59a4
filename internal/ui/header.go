package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/divisio/stag/internal/jobs"
)

// renderHeader renders the status bar: logo, version, job state, last
// outcome and history counters.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	var parts []string
	parts = append(parts, bg.Render("stag", styles.Logo))
	if !compact && m.version != "" {
		parts = append(parts, bg.Render("v"+strings.TrimPrefix(m.version, "v"), styles.FaintText))
	}

	parts = append(parts, m.renderJobState(styles, bg, compact))

	if m.snapshot.HasLast {
		last := m.snapshot.Last
		badge := m.theme.Styles().StatusStyle(string(last.Outcome.Kind)).Render(strings.ToUpper(string(last.Outcome.Kind)))
		parts = append(parts,
			bg.Render("Last:", styles.MutedText)+bg.Space()+badge+bg.Space()+
				bg.Render(humanizeDuration(last.Elapsed()), styles.MutedText),
		)
	}

	parts = append(parts, m.renderCounters(styles, bg, compact))

	// Transient error display (prefs, browser, start failures)
	if m.errorMsg != "" {
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render("!", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(truncate(m.errorMsg, maxErr), styles.WarningText),
		)
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderJobState shows the spinner and elapsed time while running.
func (m Model) renderJobState(styles Styles, bg BgStyle, compact bool) string {
	if !m.console.running {
		return bg.Render("● IDLE", lipgloss.NewStyle().Foreground(styles.StateColor("idle")))
	}
	runningStyle := lipgloss.NewStyle().Foreground(styles.StateColor("running")).Bold(true)
	state := bg.Render(m.spinner.View(), runningStyle) + bg.Space() + bg.Render("RUNNING", runningStyle)
	if m.quitting {
		state += bg.Space() + bg.Render("(quitting)", styles.WarningText)
	}
	if started := m.console.job.StartedAt; !started.IsZero() {
		state += bg.Space() + bg.Render(humanizeDuration(m.now.Sub(started)), styles.MutedText)
	}
	if !compact && m.console.job.Config.TargetPath != "" {
		state += bg.Space() + bg.Render(truncateMiddle(m.console.job.Config.TargetPath, 40), styles.Text)
	}
	return state
}

// renderCounters shows how many jobs ended in each outcome.
func (m Model) renderCounters(styles Styles, bg BgStyle, compact bool) string {
	c := m.snapshot.Counters
	doneStyle := styles.MutedText
	if c.Succeeded > 0 {
		doneStyle = lipgloss.NewStyle().Foreground(styles.StateColor(string(jobs.OutcomeSuccess))).Bold(true)
	}
	failedStyle := styles.MutedText
	if c.Failed > 0 {
		failedStyle = styles.DangerText
	}
	cancelledStyle := styles.MutedText
	if c.Cancelled > 0 {
		cancelledStyle = styles.WarningText
	}

	labels := [3]string{"Done:", "Failed:", "Cancelled:"}
	if compact {
		labels = [3]string{"D:", "F:", "C:"}
	}
	dot := bg.Spaces(1) + bg.Render("•", styles.FaintText) + bg.Spaces(1)
	return bg.Render(labels[0], styles.MutedText) + bg.Space() + bg.Render(fmt.Sprintf("%d", c.Succeeded), doneStyle) +
		dot + bg.Render(labels[1], styles.MutedText) + bg.Space() + bg.Render(fmt.Sprintf("%d", c.Failed), failedStyle) +
		dot + bg.Render(labels[2], styles.MutedText) + bg.Space() + bg.Render(fmt.Sprintf("%d", c.Cancelled), cancelledStyle)
}

// outcomeLabel names an outcome for the status line.
func outcomeLabel(o jobs.Outcome) string {
	switch o.Kind {
	case jobs.OutcomeSuccess:
		return "Finished"
	case jobs.OutcomeCancelled:
		return "Cancelled"
	default:
		return "Failed"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.currentView == ViewLogs:
		commands = []cmd{
			{"pgup/pgdn", "Scroll"},
			{"ctrl+g", "Back"},
			{"?", "More"},
		}
	case m.console.running:
		commands = []cmd{
			{"ctrl+x", "Cancel"},
			{"pgup/pgdn", "Scroll"},
			{"ctrl+g", "Log"},
			{"ctrl+c", "Quit"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"ctrl+r", "Run"},
			{"tab", "Next"},
			{"space", "Toggle"},
			{"ctrl+l", "Clear"},
			{"ctrl+g", "Log"},
			{"ctrl+c", "Quit"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Add theme indicator
	segments = append(segments,
		bg.Render("ctrl+t", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// renderStatusLine renders the line under the output: the running job or
// how the last one ended.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	switch {
	case m.console.running:
		return styles.AccentText.Render(m.spinner.View()) + " " + styles.Text.Render("Tagging "+truncateMiddle(m.console.job.Config.TargetPath, maxInt(m.width-20, 10)))
	case m.console.hasLast:
		color := styles.StateColor(string(m.console.last.Kind))
		text := outcomeLabel(m.console.last)
		if !m.console.job.FinishedAt.IsZero() {
			text += " at " + m.console.job.FinishedAt.Format(time.TimeOnly)
		}
		return lipgloss.NewStyle().Foreground(color).Render(text)
	default:
		return styles.MutedText.Render("Ready")
	}
}
