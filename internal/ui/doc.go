// Package ui provides the Bubble Tea terminal front-end for STAG.
//
// # Architecture Overview
//
// The Model is the presentation context for jobs.Controller. Every
// controller call (Start, Cancel, Handle) happens inside Update, so observer
// callbacks never race with rendering. A single waitForEvent command reads
// one event from Controller.Events, Update passes it to Controller.Handle
// along with any events already buffered behind it, and the command is
// re-armed. The terminal transition back to idle is applied on the event
// loop.
//
// Output lines are styled once when they arrive. While a job runs the
// viewport content is replaced at most once per OutputFrameInterval.
//
// # Package Structure
//
//   - app.go: Model, Update/View and the Run entry point
//   - console.go: controller observer holding output lines and job state
//   - form.go: directory, prefix, option toggles and Run/Cancel buttons
//   - output.go: job output viewport that follows the newest line, redrawn per frame
//   - logs.go: tail of the application log file
//   - header.go: status bar, command bar and status line
//   - help.go, modal.go: help overlay and notice dialog
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Key Bindings
//
//   - ctrl+r: Run STAG with the current form
//   - ctrl+x or esc: Cancel the running job
//   - tab/shift+tab: Move between form fields
//   - space: Toggle the focused option
//   - ctrl+l: Clear output (idle only)
//   - pgup/pgdown, ctrl+end: Scroll output, resume following
//   - ctrl+g: Application log
//   - ctrl+t: Cycle theme
//   - ctrl+w: Open the DIVISIO website
//   - ?: Help
//   - ctrl+c: Quit; a running job is cancelled first, press again to force
package ui
