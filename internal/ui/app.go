package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"

	"github.com/divisio/stag/internal/jobs"
	"github.com/divisio/stag/internal/prefs"
	"github.com/divisio/stag/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewMain View = iota
	ViewLogs
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller *jobs.Controller
	Store      *state.Store
	Defaults   jobs.Config // form values before prefs are applied
	Prefs      prefs.Prefs
	PrefsPath  string
	LogPath    string
	Version    string
	Notice     string // shown in a dialog at startup when set
	OpenURL    func(url string) error
}

// Model is the root application state for Bubble Tea. Update is the only
// place the controller is driven from, so every observer callback runs on
// the Bubble Tea event loop.
type Model struct {
	// Configuration
	ctx        context.Context
	controller *jobs.Controller
	store      *state.Store
	console    *console
	keys       keyMap
	prefs      prefs.Prefs
	prefsPath  string
	logPath    string
	version    string
	openURL    func(string) error

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	now         time.Time

	// Form and job output
	form         form
	output       viewport.Model
	follow       bool
	framePending bool
	spinner      spinner.Model

	// Data state
	snapshot state.Snapshot

	// Log state
	logViewport viewport.Model
	logState    logState

	// Overlays
	showHelp bool
	modal    Modal

	quitting bool
	errorMsg string
}

// New creates a new Bubble Tea model and subscribes it to the controller.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	p := opts.Prefs
	if p.Theme == "" {
		p.Theme = prefs.Defaults().Theme
	}

	openURL := opts.OpenURL
	if openURL == nil {
		openURL = browser.OpenURL
	}

	c := newConsole(OutputBufferLimit)
	if opts.Controller != nil {
		opts.Controller.SetObserver(c)
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:         ctx,
		controller:  opts.Controller,
		store:       opts.Store,
		console:     c,
		keys:        DefaultKeyMap(),
		prefs:       p,
		prefsPath:   opts.PrefsPath,
		logPath:     opts.LogPath,
		version:     opts.Version,
		openURL:     openURL,
		theme:       GetTheme(p.Theme),
		currentView: ViewMain,
		now:         time.Now(),
		form:        newForm(p.Overlay(opts.Defaults)),
		spinner:     sp,
	}
	if notice := strings.TrimSpace(opts.Notice); notice != "" {
		m.modal = newNotice("Welcome to STAG", notice)
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		tickCmd(DefaultUIInterval),
	}
	if m.controller != nil {
		cmds = append(cmds, waitForEvent(m.ctx, m.controller.Events()))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initOutputViewport()
			m.initLogViewport()
		}
		m.ready = true
		m.form.setWidth(m.width)
		m.resizeOutput()
		m.resizeLogs()
		return m, nil

	case eventMsg:
		m.controller.Handle(jobs.Event(msg))
		m.drainEvents()
		cmd := m.afterControllerChange()
		if m.quitting && !m.console.running {
			return m, tea.Quit
		}
		return m, tea.Batch(cmd, waitForEvent(m.ctx, m.controller.Events()))

	case outputFrameMsg:
		m.framePending = false
		m.syncOutput()
		return m, nil

	case spinner.TickMsg:
		if !m.console.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.errorMsg = "open website: " + msg.err.Error()
		}
		return m, nil
	}

	if m.form.editing() && !m.console.running {
		return m, m.form.updateInput(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	// Show help overlay if active
	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		m.modal = modal
		if closed {
			m.modal = nil
		}
		return m, cmd
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help) && !m.form.editing():
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.console.invalidate()
		m.syncOutput()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Website):
		return m, openURLCmd(m.openURL, Website)

	case key.Matches(msg, m.keys.ToggleLogs):
		if m.currentView == ViewLogs {
			m.currentView = ViewMain
			return m, nil
		}
		m.currentView = ViewLogs
		m.logState.follow = true
		return m, m.refreshLogs()
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}
	return m.handleMainKey(msg)
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewMain
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.Prev):
		m.scrollLogs(true)
	case key.Matches(msg, m.keys.PageDown), key.Matches(msg, m.keys.Next):
		m.scrollLogs(false)
	case key.Matches(msg, m.keys.Bottom):
		m.logState.follow = true
		m.logViewport.GotoBottom()
	}
	return m, nil
}

// handleMainKey processes keyboard input for the form and output.
func (m Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	running := m.console.running

	switch {
	case key.Matches(msg, m.keys.Run):
		return m.startJob()

	case key.Matches(msg, m.keys.Cancel):
		m.cancelJob()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if running {
			m.cancelJob()
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if !running {
			m.console.clear()
			m.followOutput()
			m.syncOutput()
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.scrollOutput(true)
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.scrollOutput(false)
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.followOutput()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		return m, m.form.move(1, running)

	case key.Matches(msg, m.keys.Prev):
		return m, m.form.move(-1, running)

	case key.Matches(msg, m.keys.Confirm):
		switch m.form.focus {
		case fieldRun:
			return m.startJob()
		case fieldCancel:
			m.cancelJob()
			return m, nil
		case fieldDir, fieldPrefix:
			return m, m.form.move(1, running)
		}
		m.form.toggle()
		return m, nil

	case key.Matches(msg, m.keys.Toggle) && !m.form.editing():
		if !running {
			m.form.toggle()
		}
		return m, nil
	}

	if running || !m.form.editing() {
		return m, nil
	}
	return m, m.form.updateInput(msg)
}

// startJob hands the form to the controller. The controller rejects the
// request while a job is running.
func (m Model) startJob() (tea.Model, tea.Cmd) {
	if m.controller == nil || m.console.running {
		return m, nil
	}
	cfg := m.form.config()
	if _, err := m.controller.Start(cfg); err != nil {
		if !errors.Is(err, jobs.ErrJobAlreadyRunning) {
			m.errorMsg = err.Error()
		}
		return m, nil
	}
	m.errorMsg = ""
	m.prefs.Remember(cfg)
	m.savePrefs()
	m.followOutput()
	cmd := m.afterControllerChange()
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) cancelJob() {
	if m.controller == nil {
		return
	}
	if m.controller.Cancel() {
		m.syncOutput()
	}
}

// quit asks a running job to stop and exits once it has; a second request
// exits immediately.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.quitting || m.controller == nil || !m.console.running {
		return m, tea.Quit
	}
	m.quitting = true
	m.modal = nil
	m.showHelp = false
	m.cancelJob()
	return m, nil
}

// drainEvents applies the events already buffered behind the one just
// handled, so a burst of output costs one redraw instead of one per line.
func (m *Model) drainEvents() {
	events := m.controller.Events()
	for i := 0; i < maxEventsPerUpdate; i++ {
		select {
		case ev := <-events:
			m.controller.Handle(ev)
		default:
			return
		}
	}
}

// afterControllerChange refreshes everything that follows the observer.
func (m *Model) afterControllerChange() tea.Cmd {
	frame := m.scheduleOutput()
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	return tea.Batch(frame, m.form.sync(m.console.running))
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.errorMsg = "save preferences: " + err.Error()
		m.console.note(m.errorMsg, true)
	}
}

// handleTick processes the refresh tick.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.now = now
	cmds := []tea.Cmd{tickCmd(DefaultUIInterval)}

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderMainView())
	}

	return lipgloss.NewStyle().MaxHeight(m.height).Render(b.String())
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type eventMsg jobs.Event

type openedMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// waitForEvent delivers the next controller event. It is re-armed after
// every event so the event loop handles exactly one at a time.
func waitForEvent(ctx context.Context, events <-chan jobs.Event) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-events:
			return eventMsg(ev)
		case <-ctx.Done():
			return nil
		}
	}
}

func openURLCmd(open func(string) error, url string) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: open(url)}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is done.
func Run(opts Options) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context.Err() != nil {
		return nil
	}
	return err
}
