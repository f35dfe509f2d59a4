// Package state keeps the in-memory history of tagging jobs.
//
// # Overview
//
// Store implements jobs.Recorder. The controller calls Begin when it
// dispatches a worker and Finish when the terminal transition has been
// applied; the UI reads Snapshot to draw the header counters and the
// outcome of the last run.
//
//	Controller:                    UI:
//	┌──────────────────┐          ┌──────────────────┐
//	│ Start()          │          │                  │
//	│   store.Begin()  │─────────→│ store.Snapshot() │
//	│ Handle(finished) │ (mutex)  │      ↓           │
//	│   store.Finish() │          │  render header   │
//	└──────────────────┘          └──────────────────┘
//
// # Thread Safety
//
// All methods are safe for concurrent use. Snapshot returns a copy whose
// History slice is not shared with the store.
//
// # Retention
//
// Only the most recent finished jobs are kept (50 unless NewStore is given
// another limit). Nothing is written to disk; the history starts empty with
// every launch.
package state
