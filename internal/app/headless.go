package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/divisio/stag/internal/jobs"
)

// Process exit codes of the headless front-end.
const (
	ExitSuccess   = 0
	ExitFailure   = 1
	ExitCancelled = 130
)

// ErrAborted is returned when a second interrupt arrives before the job
// has wound down.
var ErrAborted = errors.New("aborted")

// Request describes one headless run.
type Request struct {
	Dir            string
	Prefix         string // empty uses the configured prefix
	NoSkip         bool
	Simulate       bool
	ExactFilenames bool

	Stdout io.Writer
	Stderr io.Writer
}

// RunHeadless tags req.Dir without the TUI and returns the process exit
// code. SIGINT requests cancellation; a second SIGINT aborts immediately.
func RunHeadless(ctx context.Context, opts Options, req Request) (int, error) {
	svc, err := build(opts)
	if err != nil {
		return ExitFailure, err
	}
	defer svc.close()

	cfg := svc.defaults(req.Dir)
	if strings.TrimSpace(req.Prefix) != "" {
		cfg = jobs.NewConfig(req.Dir, req.Prefix, cfg.SkipTagged, cfg.Simulate, cfg.ExactFilenames)
	}
	if req.NoSkip {
		cfg.SkipTagged = false
	}
	if req.Simulate {
		cfg.Simulate = true
	}
	if req.ExactFilenames {
		cfg.ExactFilenames = true
	}

	return runOnce(ctx, svc, svc.runner, cfg, req.Stdout, req.Stderr)
}

// Provision downloads the recognition model if it is not cached yet.
func Provision(ctx context.Context, opts Options, stdout, stderr io.Writer) (int, error) {
	svc, err := build(opts)
	if err != nil {
		return ExitFailure, err
	}
	defer svc.close()

	exec := jobs.ExecutorFunc(func(ctx context.Context, _ jobs.Config, token *jobs.Token, sink jobs.Sink) jobs.Outcome {
		out := jobs.NewOutput(sink)
		path, err := svc.provisioner.Ensure(ctx, out, token.Poll())
		if err != nil {
			return jobs.OutcomeFromError(err)
		}
		out.Printf("Model available at %s", path)
		return jobs.Success()
	})
	return runOnce(ctx, svc, exec, jobs.Config{}, stdout, stderr)
}

func runOnce(ctx context.Context, svc *services, exec jobs.Executor, cfg jobs.Config, stdout, stderr io.Writer) (int, error) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	interrupts := make(chan os.Signal, 2)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	ctrl := svc.controller(ctx, exec)
	p := &printer{stdout: stdout, stderr: stderr}
	ctrl.SetObserver(p)

	if _, err := ctrl.Start(cfg); err != nil {
		return ExitFailure, err
	}
	if err := drive(ctx, ctrl, interrupts, stderr, svc.logger); err != nil {
		return ExitCancelled, err
	}
	return exitCode(p.outcome), nil
}

// drive is the headless presentation loop: it applies controller events one
// at a time until the job is idle again.
func drive(ctx context.Context, ctrl *jobs.Controller, interrupts <-chan os.Signal, stderr io.Writer, logger *zap.Logger) error {
	interrupted := false
	for ctrl.Running() {
		select {
		case ev := <-ctrl.Events():
			ctrl.Handle(ev)
		case sig := <-interrupts:
			if interrupted {
				logger.Warn("second interrupt, aborting",
					zap.String("signal", sig.String()),
					zap.String("job_id", ctrl.Current().ID),
				)
				fmt.Fprintln(stderr, "Interrupted again, aborting.")
				return ErrAborted
			}
			interrupted = true
			logger.Info("interrupt received",
				zap.String("signal", sig.String()),
				zap.String("job_id", ctrl.Current().ID),
			)
			ctrl.Cancel()
		case <-ctx.Done():
			ctrl.Cancel()
			return ctx.Err()
		}
	}
	return nil
}

// printer writes job output to the terminal: normal fragments to stdout,
// error fragments to stderr.
type printer struct {
	stdout  io.Writer
	stderr  io.Writer
	outcome jobs.Outcome
}

var _ jobs.Observer = (*printer)(nil)

func (p *printer) OnRunning(jobs.Job) {}

func (p *printer) OnFragment(fr jobs.Fragment) {
	w := p.stdout
	if fr.Origin == jobs.OriginError {
		w = p.stderr
	}
	fmt.Fprintln(w, fr.Text)
}

func (p *printer) OnIdle(_ jobs.Job, outcome jobs.Outcome) {
	p.outcome = outcome
}

func exitCode(o jobs.Outcome) int {
	switch o.Kind {
	case jobs.OutcomeSuccess:
		return ExitSuccess
	case jobs.OutcomeCancelled:
		return ExitCancelled
	default:
		return ExitFailure
	}
}
