package cmd

import (
	"github.com/spf13/cobra"

	"github.com/divisio/stag/internal/app"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Download the recognition model into the cache",
	Long: `Fetch the configured model from the Hugging Face hub if it is not cached
yet and print its location. Ctrl+C cancels the download.`,
	Args: cobra.NoArgs,
	RunE: runModel,
}

func init() {
	rootCmd.AddCommand(modelCmd)
}

func runModel(cmd *cobra.Command, _ []string) error {
	code, err := app.Provision(cmd.Context(), appOptions(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	return exitError(code, err)
}
