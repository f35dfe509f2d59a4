package cmd

import (
	"github.com/spf13/cobra"

	"github.com/divisio/stag/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tag a directory without the terminal UI",
	Long: `Tag every image under --dir and exit.

Output from the tagger goes to stdout, errors to stderr. Ctrl+C cancels the
job and waits for it to wind down; a second Ctrl+C aborts.

Exit codes: 0 success, 1 failure, 130 cancelled.

Examples:
  stag run --dir ~/Pictures/trip
  stag run --dir ~/Pictures/trip --prefix holiday --simulate
  stag run --dir ~/Pictures/trip --no-skip --exact-filenames`,
	Args: cobra.NoArgs,
	RunE: runHeadless,
}

var (
	runDir            string
	runPrefix         string
	runNoSkip         bool
	runSimulate       bool
	runExactFilenames bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runDir, "dir", "d", "", "Image directory to tag")
	runCmd.Flags().StringVarP(&runPrefix, "prefix", "p", "", "Tag prefix (default from tag_prefix)")
	runCmd.Flags().BoolVar(&runNoSkip, "no-skip", false, "Retag images that already carry the prefix")
	runCmd.Flags().BoolVar(&runSimulate, "simulate", false, "Recognize images but write no sidecars")
	runCmd.Flags().BoolVar(&runExactFilenames, "exact-filenames", false, "Name sidecars image.ext.xmp (darktable)")
	_ = runCmd.MarkFlagRequired("dir")
}

func runHeadless(cmd *cobra.Command, _ []string) error {
	code, err := app.RunHeadless(cmd.Context(), appOptions(), app.Request{
		Dir:            runDir,
		Prefix:         runPrefix,
		NoSkip:         runNoSkip,
		Simulate:       runSimulate,
		ExactFilenames: runExactFilenames,
		Stdout:         cmd.OutOrStdout(),
		Stderr:         cmd.ErrOrStderr(),
	})
	return exitError(code, err)
}
