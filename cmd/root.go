// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "copilot-velocity",
	Short: "A CLI tool to correlate Copilot adoption with sprint velocity.",
	Long: `copilot-velocity combines Jira sprint results with GitHub Copilot usage
and reports velocity trends, adoption trends and per-developer comparisons as JSON.
Live data is used when configured; otherwise a bundled sample data set is shown.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags are available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a TOML config file")
}
