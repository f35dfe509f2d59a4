package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/divisio/stag/internal/cmd"
)

// Set through -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)

	// SIGINT is handled by the TUI key bindings and by the headless loop.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	code := cmd.Execute(ctx)
	cancel()
	os.Exit(code)
}
