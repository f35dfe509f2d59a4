package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/divisio/stag/internal/jobs"
	"github.com/divisio/stag/internal/prefs"
	"github.com/divisio/stag/internal/state"
)

func newTestModel(t *testing.T, exec jobs.Executor, opts Options) Model {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := state.NewStore(0)
	opts.Context = ctx
	opts.Store = store
	opts.Controller = jobs.NewController(ctx, exec, jobs.Options{Recorder: store})
	if opts.OpenURL == nil {
		opts.OpenURL = func(string) error { return nil }
	}
	m := New(opts)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

// pumpUntilIdle feeds controller events to the model the way waitForEvent does.
func pumpUntilIdle(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	var cmd tea.Cmd
	for m.console.running {
		select {
		case ev := <-m.controller.Events():
			var next tea.Model
			next, cmd = m.Update(eventMsg(ev))
			m = next.(Model)
		case <-deadline:
			t.Fatalf("job did not finish")
		}
	}
	return m, cmd
}

func outputTexts(m Model) []string {
	texts := make([]string, 0, len(m.console.lines))
	for _, line := range m.console.lines {
		texts = append(texts, line.text)
	}
	return texts
}

func waitForCancel(ctx context.Context, token *jobs.Token) {
	for !token.Requested() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Millisecond):
		}
	}
}

func TestRunStreamsOutputAndReturnsToIdle(t *testing.T) {
	exec := jobs.ExecutorFunc(func(_ context.Context, cfg jobs.Config, _ *jobs.Token, sink jobs.Sink) jobs.Outcome {
		sink.Emit(jobs.Fragment{Text: "tagging " + cfg.TargetPath})
		sink.Emit(jobs.Fragment{Text: "bad image", Origin: jobs.OriginError})
		return jobs.Success()
	})
	m := newTestModel(t, exec, Options{Defaults: jobs.NewConfig("/photos", "", true, false, false)})

	m, cmd := press(t, m, tea.KeyCtrlR)
	if cmd == nil {
		t.Fatalf("expected spinner command after start")
	}
	if !m.console.running {
		t.Fatalf("expected running after ctrl+r")
	}
	if m.form.focus != fieldCancel {
		t.Fatalf("focus = %v, want Cancel while running", m.form.focus)
	}

	m, _ = pumpUntilIdle(t, m)

	got := outputTexts(m)
	want := []string{"tagging /photos", "bad image", "The mighty STAG has done its work. Have a nice day."}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("output = %q, want %q", got, want)
	}
	if !m.console.lines[1].isErr {
		t.Fatalf("expected error-origin line to be marked")
	}
	if m.form.focus != fieldRun {
		t.Fatalf("focus = %v, want Run after finish", m.form.focus)
	}
	if m.snapshot.Counters.Succeeded != 1 {
		t.Fatalf("succeeded = %d, want 1", m.snapshot.Counters.Succeeded)
	}
	if m.controller.Dispatched() != 1 {
		t.Fatalf("dispatched = %d, want 1", m.controller.Dispatched())
	}
}

func TestRunIgnoredWhileRunning(t *testing.T) {
	exec := jobs.ExecutorFunc(func(ctx context.Context, _ jobs.Config, token *jobs.Token, _ jobs.Sink) jobs.Outcome {
		waitForCancel(ctx, token)
		return jobs.Cancelled()
	})
	m := newTestModel(t, exec, Options{})

	m, _ = press(t, m, tea.KeyCtrlR)
	m, _ = press(t, m, tea.KeyCtrlR)
	if got := m.controller.Dispatched(); got != 1 {
		t.Fatalf("dispatched = %d, want 1", got)
	}

	m, _ = press(t, m, tea.KeyCtrlX)
	m, _ = pumpUntilIdle(t, m)

	got := outputTexts(m)
	if len(got) != 2 || got[0] != "Cancelling tagger..." || got[1] != "Tagging cancelled." {
		t.Fatalf("output = %q", got)
	}
}

func TestEscapeCancelsRunningJob(t *testing.T) {
	exec := jobs.ExecutorFunc(func(ctx context.Context, _ jobs.Config, token *jobs.Token, _ jobs.Sink) jobs.Outcome {
		waitForCancel(ctx, token)
		return jobs.Cancelled()
	})
	m := newTestModel(t, exec, Options{})

	m, _ = press(t, m, tea.KeyCtrlR)
	m, _ = press(t, m, tea.KeyEsc)
	m, _ = press(t, m, tea.KeyEsc)
	m, _ = pumpUntilIdle(t, m)

	if m.snapshot.Counters.Cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1", m.snapshot.Counters.Cancelled)
	}
	notices := 0
	for _, text := range outputTexts(m) {
		if text == "Cancelling tagger..." {
			notices++
		}
	}
	if notices != 1 {
		t.Fatalf("cancel notice shown %d times, want 1", notices)
	}
}

func TestQuitCancelsRunningJobFirst(t *testing.T) {
	exec := jobs.ExecutorFunc(func(ctx context.Context, _ jobs.Config, token *jobs.Token, _ jobs.Sink) jobs.Outcome {
		waitForCancel(ctx, token)
		return jobs.Cancelled()
	})
	m := newTestModel(t, exec, Options{})

	m, _ = press(t, m, tea.KeyCtrlR)
	m, cmd := press(t, m, tea.KeyCtrlC)
	if cmd != nil {
		t.Fatalf("expected no quit while the job is running")
	}
	if !m.quitting {
		t.Fatalf("expected quitting flag")
	}

	_, cmd = pumpUntilIdle(t, m)
	if cmd == nil {
		t.Fatalf("expected quit command after job finished")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestQuitWhenIdle(t *testing.T) {
	m := newTestModel(t, jobs.ExecutorFunc(func(context.Context, jobs.Config, *jobs.Token, jobs.Sink) jobs.Outcome {
		return jobs.Success()
	}), Options{})

	_, cmd := press(t, m, tea.KeyCtrlC)
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestClearOnlyWhenIdle(t *testing.T) {
	release := make(chan struct{})
	exec := jobs.ExecutorFunc(func(_ context.Context, _ jobs.Config, _ *jobs.Token, sink jobs.Sink) jobs.Outcome {
		sink.Emit(jobs.Fragment{Text: "working"})
		<-release
		return jobs.Success()
	})
	m := newTestModel(t, exec, Options{})

	m, _ = press(t, m, tea.KeyCtrlR)
	ev := <-m.controller.Events()
	m = update(t, m, eventMsg(ev))

	m, _ = press(t, m, tea.KeyCtrlL)
	if len(m.console.lines) != 1 {
		t.Fatalf("output cleared while running")
	}

	close(release)
	m, _ = pumpUntilIdle(t, m)
	m, _ = press(t, m, tea.KeyCtrlL)
	if len(m.console.lines) != 0 {
		t.Fatalf("expected output cleared when idle, got %d lines", len(m.console.lines))
	}
}

func TestStartRemembersPreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	exec := jobs.ExecutorFunc(func(context.Context, jobs.Config, *jobs.Token, jobs.Sink) jobs.Outcome {
		return jobs.Success()
	})
	m := newTestModel(t, exec, Options{
		PrefsPath: path,
		Defaults:  jobs.NewConfig("/photos/2024", "trip", false, true, true),
	})

	m, _ = press(t, m, tea.KeyCtrlR)
	_, _ = pumpUntilIdle(t, m)

	p, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.LastDir != "/photos/2024" || p.TagPrefix != "trip" {
		t.Fatalf("prefs = %+v", p)
	}
	if p.Simulate == nil || !*p.Simulate || p.SkipTagged == nil || *p.SkipTagged {
		t.Fatalf("toggles not remembered: %+v", p)
	}
}

func TestThemeCyclePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m := newTestModel(t, jobs.ExecutorFunc(func(context.Context, jobs.Config, *jobs.Token, jobs.Sink) jobs.Outcome {
		return jobs.Success()
	}), Options{PrefsPath: path})

	m, _ = press(t, m, tea.KeyCtrlT)
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %s, want Kanagawa", m.theme.Name)
	}
	p, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %s, want Kanagawa", p.Theme)
	}
}

func TestNoticeBlocksInputUntilDismissed(t *testing.T) {
	exec := jobs.ExecutorFunc(func(context.Context, jobs.Config, *jobs.Token, jobs.Sink) jobs.Outcome {
		return jobs.Success()
	})
	m := newTestModel(t, exec, Options{Notice: "first run"})
	if m.modal == nil {
		t.Fatalf("expected notice modal")
	}
	if !strings.Contains(m.View(), "first run") {
		t.Fatalf("notice not rendered")
	}

	m, _ = press(t, m, tea.KeyCtrlR)
	if m.controller.Dispatched() != 0 {
		t.Fatalf("job started behind the notice")
	}

	m, _ = press(t, m, tea.KeyEnter)
	if m.modal != nil {
		t.Fatalf("expected notice dismissed")
	}
}

func TestWebsiteShortcutOpensURL(t *testing.T) {
	var opened string
	m := newTestModel(t, jobs.ExecutorFunc(func(context.Context, jobs.Config, *jobs.Token, jobs.Sink) jobs.Outcome {
		return jobs.Success()
	}), Options{OpenURL: func(url string) error {
		opened = url
		return nil
	}})

	_, cmd := press(t, m, tea.KeyCtrlW)
	if cmd == nil {
		t.Fatalf("expected open command")
	}
	if msg, ok := cmd().(openedMsg); !ok || msg.err != nil {
		t.Fatalf("unexpected message %#v", msg)
	}
	if opened != Website {
		t.Fatalf("opened %q, want %q", opened, Website)
	}
}

func TestLogViewToggle(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "stag.log")
	m := newTestModel(t, jobs.ExecutorFunc(func(context.Context, jobs.Config, *jobs.Token, jobs.Sink) jobs.Outcome {
		return jobs.Success()
	}), Options{LogPath: logPath})

	m, cmd := press(t, m, tea.KeyCtrlG)
	if m.currentView != ViewLogs {
		t.Fatalf("expected log view")
	}
	if cmd == nil {
		t.Fatalf("expected log refresh command")
	}
	msg, ok := cmd().(logLinesMsg)
	if !ok {
		t.Fatalf("expected logLinesMsg")
	}
	m = update(t, m, msg)
	if !strings.Contains(m.renderLogContent(), "No log entries yet.") {
		t.Fatalf("unexpected log content %q", m.renderLogContent())
	}

	m, _ = press(t, m, tea.KeyCtrlG)
	if m.currentView != ViewMain {
		t.Fatalf("expected main view")
	}
}

func TestEventBurstAppliedInOneUpdate(t *testing.T) {
	const burst = 200
	exec := jobs.ExecutorFunc(func(ctx context.Context, _ jobs.Config, token *jobs.Token, sink jobs.Sink) jobs.Outcome {
		out := jobs.NewOutput(sink)
		for i := 0; i < burst; i++ {
			out.Printf("line %d", i)
		}
		waitForCancel(ctx, token)
		return jobs.Cancelled()
	})
	m := newTestModel(t, exec, Options{Defaults: jobs.NewConfig("/photos", "", true, false, false)})
	m, _ = press(t, m, tea.KeyCtrlR)

	events := m.controller.Events()
	deadline := time.Now().Add(5 * time.Second)
	for len(events) < burst {
		if time.Now().After(deadline) {
			t.Fatalf("worker buffered %d events, want %d", len(events), burst)
		}
		time.Sleep(time.Millisecond)
	}

	m = update(t, m, eventMsg(<-events))
	if len(m.console.lines) != burst {
		t.Fatalf("lines after one update = %d, want %d", len(m.console.lines), burst)
	}
	if len(m.console.rendered) != burst {
		t.Fatalf("rendered = %d, want %d", len(m.console.rendered), burst)
	}

	m, _ = press(t, m, tea.KeyCtrlX)
	pumpUntilIdle(t, m)
}

func TestLargeOutputDrainsQuickly(t *testing.T) {
	const total = 3 * OutputBufferLimit
	exec := jobs.ExecutorFunc(func(_ context.Context, _ jobs.Config, _ *jobs.Token, sink jobs.Sink) jobs.Outcome {
		out := jobs.NewOutput(sink)
		for i := 0; i < total; i++ {
			out.Printf("/photos/2024/IMG_%05d.jpg: dog, grass, sky", i)
		}
		return jobs.Success()
	})
	m := newTestModel(t, exec, Options{Defaults: jobs.NewConfig("/photos", "", true, false, false)})
	m, _ = press(t, m, tea.KeyCtrlR)

	started := time.Now()
	var slowest time.Duration
	updates := 0
	for m.console.running {
		select {
		case ev := <-m.controller.Events():
			t0 := time.Now()
			m = update(t, m, eventMsg(ev))
			if d := time.Since(t0); d > slowest {
				slowest = d
			}
			updates++
		case <-time.After(10 * time.Second):
			t.Fatalf("job did not finish after %d updates", updates)
		}
	}
	elapsed := time.Since(started)

	if len(m.console.lines) != OutputBufferLimit || len(m.console.rendered) != OutputBufferLimit {
		t.Fatalf("lines = %d rendered = %d, want %d", len(m.console.lines), len(m.console.rendered), OutputBufferLimit)
	}
	if got := m.console.lines[len(m.console.lines)-1].text; got != jobs.TerminalFragment("", jobs.Success()).Text {
		t.Fatalf("last line = %q", got)
	}
	// Restyling the whole buffer per event took tens of milliseconds each.
	if elapsed > 15*time.Second || slowest > time.Second {
		t.Fatalf("drain took %s (slowest update %s) over %d updates", elapsed, slowest, updates)
	}
}

func TestPrefsSaveFailureIsShownInOutput(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := newTestModel(t, jobs.ExecutorFunc(func(context.Context, jobs.Config, *jobs.Token, jobs.Sink) jobs.Outcome {
		return jobs.Success()
	}), Options{PrefsPath: filepath.Join(blocker, "prefs.toml")})

	m, _ = press(t, m, tea.KeyCtrlT)

	if !strings.HasPrefix(m.errorMsg, "save preferences: ") {
		t.Fatalf("errorMsg = %q", m.errorMsg)
	}
	if len(m.console.lines) != 1 || !m.console.lines[0].isErr || m.console.lines[0].text != m.errorMsg {
		t.Fatalf("output = %+v, want one error line", m.console.lines)
	}
	if len(m.console.rendered) != 1 {
		t.Fatalf("rendered = %d, want 1", len(m.console.rendered))
	}
}
