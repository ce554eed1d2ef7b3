package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/loi-watcher/internal/config"
	"github.com/jonathan/loi-watcher/internal/pipeline"
)

var syncCommand = &cobra.Command{
	Use:   "sync",
	Short: "Run one fetch, diff and publish cycle",
	Long: `Fetches the locations-of-interest page, builds the current snapshot, diffs it against the stored baseline,
publishes every change and then replaces the baseline.

Nothing is published or saved if any step fails. With --dry-run the changes are computed and logged only.`,
	RunE: runSyncCmd,
}

var (
	syncURL        string
	syncDryRun     bool
	syncUseBrowser bool
)

func init() {
	syncCommand.Flags().StringVar(&syncURL, "url", "", "Page URL (defaults to source_url or LOI_PAGE_URL)")
	syncCommand.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute changes without publishing or saving")
	syncCommand.Flags().BoolVar(&syncUseBrowser, "use-browser", false, "Render the page with headless Chrome")

	rootCmd.AddCommand(syncCommand)
}

func syncOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		if cmd.Flags().Changed("url") {
			cfg.SourceURL = syncURL
		}
		if cmd.Flags().Changed("dry-run") {
			cfg.DryRun = syncDryRun
		}
		if cmd.Flags().Changed("use-browser") {
			cfg.UseBrowser = syncUseBrowser
		}
	}
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, syncOverrides(cmd), true)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := pipeline.Run(ctx, rt.options(), rt.deps)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d added, %d updated, %d removed (%d records, %s)\n",
		result.RunID, result.Summary.Added, result.Summary.Updated, result.Summary.Removed,
		result.Snapshot.Len(), result.Duration.Round(time.Millisecond))
	if cfg.DryRun {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Dry run: nothing published, snapshot unchanged")
	}
	return nil
}
