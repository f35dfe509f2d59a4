// Package jobs runs one tagging job at a time behind an interactive surface.
//
// # Overview
//
// Two execution contexts take part in every job:
//
//   - The presentation context: a single goroutine that owns all interactive
//     state. In the TUI this is the Bubble Tea Update loop; in headless mode it
//     is the main goroutine.
//   - The worker: a goroutine created by Controller.Start for one job and
//     discarded when the job ends.
//
// # Components
//
//   - token.go: Token, the cooperative cancellation flag
//   - sink.go: Sink and Output, the worker's only way to produce text
//   - runner.go: Runner, provisioning followed by the tagging workflow
//   - controller.go: Controller, the idle/running state machine
//
// # Data Flow
//
//	Start(cfg) ──> go worker ──> Runner.Run ──> Output ──┐
//	                                                     │ Events() (ordered)
//	Handle(ev) <── presentation context drains <─────────┘
//	    ├─> Observer.OnFragment
//	    └─> terminal event: Observer.OnIdle (exactly once per job)
//
// Cancel sets the Token; the workflow notices on its next poll. There is no
// preemption and no timeout, so callers must not assume bounded cancellation
// latency.
package jobs
