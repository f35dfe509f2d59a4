// Package cmd holds the stag command line: the TUI on the root command and
// the headless subcommands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/divisio/stag/internal/app"
)

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "unknown",
	BuildDate: "unknown",
}

var (
	configPath string
	prefsPath  string
)

var rootCmd = &cobra.Command{
	Use:   "stag",
	Short: "Tag images with a local recognition model",
	Long: `stag writes keyword tags for the images in a directory into XMP sidecars.

Without a subcommand it opens the terminal UI. Use "stag run" to tag a
directory from scripts.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/stag/config.toml)")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "Preferences file (default from prefs_file)")
}

// SetVersionInfo records build metadata injected through ldflags.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

func appOptions() app.Options {
	return app.Options{
		ConfigPath: configPath,
		PrefsPath:  prefsPath,
		Version:    versionInfo.Version,
	}
}

func runUI(cmd *cobra.Command, _ []string) error {
	return app.Run(cmd.Context(), appOptions())
}

// exitCodeError carries a process exit code out of a RunE.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error { return e.err }

func exitError(code int, err error) error {
	if code == app.ExitSuccess && err == nil {
		return nil
	}
	if code == app.ExitSuccess {
		code = app.ExitFailure
	}
	return &exitCodeError{code: code, err: err}
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	return execute(ctx, rootCmd.ErrOrStderr())
}

func execute(ctx context.Context, stderr io.Writer) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return app.ExitSuccess
	}
	var ec *exitCodeError
	if errors.As(err, &ec) {
		if ec.err != nil {
			fmt.Fprintf(stderr, "stag: %v\n", ec.err)
		}
		return ec.code
	}
	fmt.Fprintf(stderr, "stag: %v\n", err)
	return app.ExitFailure
}
