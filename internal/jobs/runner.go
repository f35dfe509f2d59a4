package jobs

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
)

// Provisioner makes the recognition model available before tagging starts.
// It may download on first use; it should poll canceled while doing so.
type Provisioner interface {
	Ensure(ctx context.Context, out *Output, canceled Poll) (string, error)
}

// Workflow tags the images below cfg.TargetPath. It must call canceled before
// each unit of work and return ErrCancelled once it observes a request.
type Workflow interface {
	Process(ctx context.Context, modelPath string, cfg Config, out *Output, canceled Poll) error
}

// Executor runs one job to completion on the calling goroutine.
type Executor interface {
	Run(ctx context.Context, cfg Config, token *Token, sink Sink) Outcome
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, cfg Config, token *Token, sink Sink) Outcome

// Run calls f.
func (f ExecutorFunc) Run(ctx context.Context, cfg Config, token *Token, sink Sink) Outcome {
	return f(ctx, cfg, token, sink)
}

// Runner is the production Executor: provision the model, then run the workflow.
type Runner struct {
	provisioner Provisioner
	workflow    Workflow
	logger      *zap.Logger
}

var _ Executor = (*Runner)(nil)

// NewRunner wires a Runner. A nil logger is replaced with a no-op logger.
func NewRunner(provisioner Provisioner, workflow Workflow, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{provisioner: provisioner, workflow: workflow, logger: logger}
}

// Run executes the job. It never panics and never returns an error: every
// failure, including a panic inside a collaborator, becomes a Failure outcome.
func (r *Runner) Run(ctx context.Context, cfg Config, token *Token, sink Sink) (outcome Outcome) {
	out := NewOutput(sink)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("job panicked",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			outcome = Failure(fmt.Sprintf("panic: %v", rec))
		}
	}()

	out.Println("Starting tagger...")

	modelPath := ""
	if r.provisioner != nil {
		path, err := r.provisioner.Ensure(ctx, out, token.Poll())
		if err != nil {
			r.logger.Warn("model provisioning ended", zap.Error(err))
			return OutcomeFromError(err)
		}
		modelPath = path
	}

	if token.Requested() {
		return Cancelled()
	}

	if r.workflow == nil {
		return Failure("no tagging workflow configured")
	}
	err := r.workflow.Process(ctx, modelPath, cfg, out, token.Poll())
	if err != nil {
		r.logger.Info("workflow ended with error", zap.Error(err))
	}
	return OutcomeFromError(err)
}
