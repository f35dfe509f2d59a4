package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/divisio/stag/internal/jobs"
)

// field identifies a focusable form element.
type field int

const (
	fieldDir field = iota
	fieldPrefix
	fieldSkip
	fieldSimulate
	fieldExact
	fieldRun
	fieldCancel
	fieldCount
)

// formHeight is the number of rows renderForm produces.
const formHeight = 7

// form holds the job parameters the user edits between runs.
type form struct {
	dir        textinput.Model
	prefix     textinput.Model
	skipTagged bool
	simulate   bool
	exact      bool
	focus      field
}

func newForm(cfg jobs.Config) form {
	dir := textinput.New()
	dir.Prompt = ""
	dir.Placeholder = "/path/to/images"
	dir.SetValue(cfg.TargetPath)

	prefix := textinput.New()
	prefix.Prompt = ""
	prefix.Placeholder = jobs.DefaultTagPrefix
	prefix.CharLimit = 64
	prefix.SetValue(cfg.TagPrefix)

	f := form{
		dir:        dir,
		prefix:     prefix,
		skipTagged: cfg.SkipTagged,
		simulate:   cfg.Simulate,
		exact:      cfg.ExactFilenames,
	}
	f.setFocus(fieldDir)
	return f
}

// config captures the form as an immutable job configuration.
func (f form) config() jobs.Config {
	return jobs.NewConfig(strings.TrimSpace(f.dir.Value()), f.prefix.Value(), f.skipTagged, f.simulate, f.exact)
}

// enabled reports whether fd accepts input in the given controller state.
// While a job runs only Cancel is live.
func (f form) enabled(fd field, running bool) bool {
	if fd == fieldCancel {
		return running
	}
	return !running
}

func (f *form) setFocus(fd field) tea.Cmd {
	f.focus = fd
	f.dir.Blur()
	f.prefix.Blur()
	switch fd {
	case fieldDir:
		return f.dir.Focus()
	case fieldPrefix:
		return f.prefix.Focus()
	}
	return nil
}

// move shifts focus by delta, skipping disabled elements.
func (f *form) move(delta int, running bool) tea.Cmd {
	next := f.focus
	for range fieldCount {
		next = field((int(next) + delta + int(fieldCount)) % int(fieldCount))
		if f.enabled(next, running) {
			return f.setFocus(next)
		}
	}
	return nil
}

// sync puts focus on a live element after a state change.
func (f *form) sync(running bool) tea.Cmd {
	switch {
	case running && f.focus != fieldCancel:
		return f.setFocus(fieldCancel)
	case !running && f.focus == fieldCancel:
		return f.setFocus(fieldRun)
	}
	return nil
}

// toggle flips the focused option and reports whether focus was on one.
func (f *form) toggle() bool {
	switch f.focus {
	case fieldSkip:
		f.skipTagged = !f.skipTagged
	case fieldSimulate:
		f.simulate = !f.simulate
	case fieldExact:
		f.exact = !f.exact
	default:
		return false
	}
	return true
}

func (f form) editing() bool {
	return f.focus == fieldDir || f.focus == fieldPrefix
}

// updateInput forwards msg to the focused text input.
func (f *form) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldDir:
		f.dir, cmd = f.dir.Update(msg)
	case fieldPrefix:
		f.prefix, cmd = f.prefix.Update(msg)
	}
	return cmd
}

func (f *form) setWidth(width int) {
	w := maxInt(width-LayoutFormLabelWidth-4, 10)
	f.dir.Width = w
	f.prefix.Width = w
}

// renderForm renders the input rows and the button row.
func (m Model) renderForm() string {
	styles := m.theme.Styles()
	running := m.console.running
	f := m.form

	label := func(text string, fd field) string {
		if f.focus == fd {
			return styles.LabelFocused.Render(text)
		}
		return styles.Label.Render(text)
	}
	input := func(in textinput.Model) string {
		if running {
			return styles.Disabled.Render(ternary(in.Value() == "", in.Placeholder, in.Value()))
		}
		return in.View()
	}
	check := func(on bool, text string, fd field) string {
		box := "[ ]"
		if on {
			box = "[x]"
		}
		style := styles.Option
		switch {
		case running:
			style = styles.Disabled
		case f.focus == fd:
			style = styles.OptionFocused
		}
		return lipgloss.NewStyle().PaddingLeft(2).Render(style.Render(box + " " + text))
	}
	button := func(text string, fd field) string {
		switch {
		case !f.enabled(fd, running):
			return styles.Disabled.Padding(0, 1).Render(text)
		case f.focus == fd:
			return styles.ButtonFocused.Render(text)
		}
		return styles.Button.Render(text)
	}

	rows := []string{
		label("Image Directory:", fieldDir) + input(f.dir),
		label("Prefix:", fieldPrefix) + input(f.prefix),
		check(f.skipTagged, "Skip images already tagged by STAG", fieldSkip),
		check(f.simulate, "Simulate tagging only", fieldSimulate),
		check(f.exact, "Use darktable-compatible filenames", fieldExact),
		"",
		lipgloss.NewStyle().PaddingLeft(2).Render(button("Run STAG", fieldRun) + "  " + button("Cancel", fieldCancel)),
	}
	return strings.Join(rows, "\n")
}

// ternary returns a if cond is true, otherwise b.
func ternary(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
