// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netresearch/org-watch/internal/store"
	"github.com/netresearch/org-watch/internal/usecase"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarizes the persisted snapshot and outputs as JSON",
	Long: `Reads the snapshot written by the check command and prints org-wide
totals plus the star-count distribution (mean, median, p90) across
repositories.`,
	Run: func(cmd *cobra.Command, args []string) {
		stateFile, _ := cmd.Flags().GetString("state")

		snapshot, err := store.NewFileStore(stateFile).Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load snapshot: %v\n", err)
			os.Exit(1)
		}
		if snapshot == nil {
			fmt.Fprintf(os.Stderr, "No snapshot found at %s; run `org-watch check` first.\n", stateFile)
			os.Exit(1)
		}

		summary, err := usecase.Summarize(snapshot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to summarize snapshot: %v\n", err)
			os.Exit(1)
		}

		jsonData, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal summary to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("state", "state/org-watch.json", "Path to the snapshot state file")
}
