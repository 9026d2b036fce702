// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "org-watch",
	Short: "A CLI tool to watch an organization's repository metrics.",
	Long: `org-watch polls all public repositories of a GitHub organization,
diffs their stargazers, forkers, watchers and dependents against the
previously stored snapshot, and notifies a Matrix webhook for every new
entry. It is meant to be invoked by a scheduler (cron, CI) every few minutes.`,
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
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
