// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/netresearch/org-watch/internal/config"
	"github.com/netresearch/org-watch/internal/gateway"
	"github.com/netresearch/org-watch/internal/notify"
	"github.com/netresearch/org-watch/internal/store"
	"github.com/netresearch/org-watch/internal/usecase"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Runs one fetch-diff-notify-persist cycle",
	Long: `Fetches the current stargazers, forkers, watchers and dependents of every
public repository in the organization, notifies the Matrix webhook about
entries not present in the stored snapshot, and persists the replacement
snapshot. The first run only records the snapshot and stays silent.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		}

		cfg, err := config.Load(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		// Flags override the environment where given.
		if org, _ := cmd.Flags().GetString("org"); org != "" {
			cfg.Org = org
		}
		if state, _ := cmd.Flags().GetString("state"); state != "" {
			cfg.StateFile = state
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if cfg.MatrixWebhookURL == "" && !dryRun {
			fmt.Fprintln(os.Stderr, "Error: MATRIX_WEBHOOK_URL environment variable is not set.")
			os.Exit(1)
		}

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(cfg.GitHubToken, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		snapshotStore := store.NewFileStore(cfg.StateFile)
		notifier := notify.NewMatrixNotifier(cfg.MatrixWebhookURL, logger)

		differ := usecase.NewDiffer(githubGateway, snapshotStore, notifier, cfg.FetchConcurrency, logger)
		differ.DryRun = dryRun

		report, err := differ.Run(ctx, cfg.Org)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
			os.Exit(1)
		}

		// Marshal the run report into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal report to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("org", "o", "", "Target GitHub organization name (overrides ORG_NAME)")
	checkCmd.Flags().String("state", "", "Path to the snapshot state file (overrides STATE_FILE)")
	checkCmd.Flags().Bool("dry-run", false, "Compute the diff without notifying or persisting")
}
