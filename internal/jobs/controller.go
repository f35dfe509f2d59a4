package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrJobAlreadyRunning is returned when a start is requested while a job is active.
var ErrJobAlreadyRunning = errors.New("job already running")

const defaultEventBuffer = 256

// State is the controller's view of the interactive surface.
type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Job identifies one dispatched run.
type Job struct {
	ID         string
	Config     Config
	StartedAt  time.Time
	FinishedAt time.Time
}

// Observer receives controller notifications. All methods are called on the
// presentation context: from Start, Cancel and Handle.
type Observer interface {
	OnRunning(job Job)
	OnFragment(fr Fragment)
	OnIdle(job Job, outcome Outcome)
}

// Recorder keeps a history of jobs.
type Recorder interface {
	Begin(job Job)
	Finish(job Job, outcome Outcome)
}

// Options configure a Controller.
type Options struct {
	Buffer   int // event channel capacity; zero uses 256
	Logger   *zap.Logger
	Observer Observer
	Recorder Recorder
	NewID    func() string
}

// Controller coordinates the presentation context with at most one worker.
//
// Start, Cancel and Handle belong to the presentation context. The worker only
// writes to the event channel; it never touches controller state. The
// presentation context drains Events and passes every event to Handle, which
// is where the terminal transition back to idle happens.
type Controller struct {
	ctx      context.Context
	executor Executor
	events   chan Event
	logger   *zap.Logger
	recorder Recorder
	newID    func() string
	token    Token
	seq      atomic.Int64

	mu         sync.Mutex
	observer   Observer
	state      State
	current    Job
	dispatched int
}

// NewController builds an idle controller. ctx bounds the application
// lifetime: once it is done, workers stop blocking on a full event channel.
func NewController(ctx context.Context, executor Executor, opts Options) *Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Controller{
		ctx:      ctx,
		executor: executor,
		events:   make(chan Event, buffer),
		logger:   logger,
		recorder: recorder,
		newID:    newID,
		observer: observer,
	}
}

// SetObserver replaces the observer. A nil observer discards notifications.
func (c *Controller) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	c.mu.Lock()
	c.observer = o
	c.mu.Unlock()
}

// Events is the ordered hand-off from the worker. The presentation context
// must pass every received event to Handle.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Start dispatches a worker for cfg. While a job is running it returns
// ErrJobAlreadyRunning and dispatches nothing.
func (c *Controller) Start(cfg Config) (Job, error) {
	c.mu.Lock()
	if c.state == StateRunning {
		running := c.current.ID
		c.mu.Unlock()
		c.logger.Debug("start ignored, job already running", zap.String("job_id", running))
		return Job{}, ErrJobAlreadyRunning
	}

	c.token.Reset()
	job := Job{ID: c.newID(), Config: cfg, StartedAt: time.Now()}
	c.state = StateRunning
	c.current = job
	c.dispatched++
	observer := c.observer
	c.mu.Unlock()

	c.logger.Info("job started",
		zap.String("job_id", job.ID),
		zap.String("target", cfg.TargetPath),
		zap.String("prefix", cfg.TagPrefix),
		zap.Bool("skip_tagged", cfg.SkipTagged),
		zap.Bool("simulate", cfg.Simulate),
		zap.Bool("exact_filenames", cfg.ExactFilenames),
	)
	c.recorder.Begin(job)
	observer.OnRunning(job)

	go c.work(job)
	return job, nil
}

// Cancel requests cooperative cancellation of the running job. It reports
// whether a job was running. Repeated calls have no further effect.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return false
	}
	if c.token.Requested() {
		c.mu.Unlock()
		return true
	}
	c.token.Request()
	job := c.current
	observer := c.observer
	c.mu.Unlock()

	c.logger.Info("cancellation requested", zap.String("job_id", job.ID))
	observer.OnFragment(c.stamp(Fragment{JobID: job.ID, Text: "Cancelling tagger...", Origin: OriginNormal}))
	return true
}

// Handle applies one event from Events on the presentation context.
func (c *Controller) Handle(ev Event) {
	switch ev.Type {
	case EventFragment:
		c.mu.Lock()
		observer := c.observer
		c.mu.Unlock()
		observer.OnFragment(c.stamp(ev.Fragment))
	case EventFinished:
		c.finish(ev)
	}
}

// Step waits for the next event, applies it and returns it.
func (c *Controller) Step(ctx context.Context) (Event, error) {
	select {
	case ev := <-c.events:
		c.Handle(ev)
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Running reports whether a job is active.
func (c *Controller) Running() bool {
	return c.State() == StateRunning
}

// Current returns the running job, or the zero Job when idle.
func (c *Controller) Current() Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Dispatched returns how many workers have been started.
func (c *Controller) Dispatched() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatched
}

func (c *Controller) work(job Job) {
	outcome := Failure("worker exited without an outcome")
	defer func() {
		if rec := recover(); rec != nil {
			outcome = Failure(fmt.Sprintf("panic: %v", rec))
		}
		c.send(Event{Type: EventFinished, JobID: job.ID, Outcome: outcome})
	}()

	sink := SinkFunc(func(fr Fragment) {
		fr.JobID = job.ID
		if fr.Time.IsZero() {
			fr.Time = time.Now()
		}
		c.send(Event{Type: EventFragment, JobID: job.ID, Fragment: fr})
	})
	outcome = c.executor.Run(c.ctx, job.Config, &c.token, sink)
}

func (c *Controller) send(ev Event) {
	select {
	case c.events <- ev:
	case <-c.ctx.Done():
	}
}

// stamp numbers a fragment as it reaches the observer, so Seq follows display
// order even for notices that skip the event channel.
func (c *Controller) stamp(fr Fragment) Fragment {
	fr.Seq = c.seq.Add(1)
	if fr.Time.IsZero() {
		fr.Time = time.Now()
	}
	return fr
}

func (c *Controller) finish(ev Event) {
	c.mu.Lock()
	if c.state != StateRunning || c.current.ID != ev.JobID {
		c.mu.Unlock()
		c.logger.Debug("stale terminal event ignored", zap.String("job_id", ev.JobID))
		return
	}
	job := c.current
	job.FinishedAt = time.Now()
	c.state = StateIdle
	c.current = Job{}
	observer := c.observer
	c.mu.Unlock()

	c.logger.Info("job finished",
		zap.String("job_id", job.ID),
		zap.String("outcome", string(ev.Outcome.Kind)),
		zap.String("message", ev.Outcome.Message),
		zap.Duration("elapsed", job.FinishedAt.Sub(job.StartedAt)),
	)
	observer.OnFragment(c.stamp(TerminalFragment(job.ID, ev.Outcome)))
	c.recorder.Finish(job, ev.Outcome)
	observer.OnIdle(job, ev.Outcome)
}

// TerminalFragment is the line shown when a job ends.
func TerminalFragment(jobID string, outcome Outcome) Fragment {
	fr := Fragment{JobID: jobID, Origin: OriginNormal}
	switch outcome.Kind {
	case OutcomeSuccess:
		fr.Text = "The mighty STAG has done its work. Have a nice day."
	case OutcomeCancelled:
		fr.Text = "Tagging cancelled."
	default:
		fr.Text = "Error during tagging: " + outcome.Message
		fr.Origin = OriginError
	}
	return fr
}

type nopObserver struct{}

func (nopObserver) OnRunning(Job)       {}
func (nopObserver) OnFragment(Fragment) {}
func (nopObserver) OnIdle(Job, Outcome) {}

type nopRecorder struct{}

func (nopRecorder) Begin(Job)           {}
func (nopRecorder) Finish(Job, Outcome) {}
