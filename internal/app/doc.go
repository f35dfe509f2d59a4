// Package app wires configuration, logging, model provisioning, the tagging
// workflow and the job controller together and hands them to a front-end.
//
// # Overview
//
// build is the composition root shared by every entry point:
//
//	config.Load()        Read ~/.config/stag/config.toml and STAG_* env
//	logging.New()        Rotating JSON log file
//	hub.NewClient()      Hugging Face hub client for the model download
//	provision.New()      Model cache in the hub layout
//	tagger.New()         Workflow driving the external recognizer
//	jobs.NewRunner()     Provision, then tag
//	state.NewStore()     Job history for the header counters
//
// # Front-ends
//
//   - Run: the Bubble Tea UI. The UI model is the presentation context and
//     drives the controller from its Update loop.
//   - RunHeadless: one job in the terminal. The calling goroutine drains the
//     controller events; SIGINT requests cancellation and a second SIGINT
//     aborts. Exit codes are 0 (success), 1 (failure) and 130 (cancelled).
//   - Provision: download the model without tagging anything.
package app
