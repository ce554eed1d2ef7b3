package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/loi-watcher/internal/diff"
	"github.com/jonathan/loi-watcher/internal/index"
	"github.com/jonathan/loi-watcher/internal/parsing"
	"github.com/jonathan/loi-watcher/internal/snapshot"
	"github.com/jonathan/loi-watcher/internal/types"
)

var diffCommand = &cobra.Command{
	Use:   "diff",
	Short: "Diff a saved HTML page against a snapshot file",
	Long: `Parses a locally saved copy of the page, diffs it against a snapshot file and prints the change events as JSON.
Nothing is fetched, published or written.`,
	RunE: runDiffCmd,
}

var (
	diffHTMLPath     string
	diffSnapshotPath string
	diffSelector     string
	diffWriteCurrent string
)

func init() {
	diffCommand.Flags().StringVar(&diffHTMLPath, "html", "", "Path to the saved page HTML")
	diffCommand.Flags().StringVar(&diffSnapshotPath, "snapshot", "", "Path to the baseline snapshot JSON (empty baseline if omitted or missing)")
	diffCommand.Flags().StringVar(&diffSelector, "selector", parsing.DefaultMainSelector, "CSS selector of the main content region")
	diffCommand.Flags().StringVar(&diffWriteCurrent, "write-current", "", "Also write the parsed current snapshot to this path")

	_ = diffCommand.MarkFlagRequired("html")

	rootCmd.AddCommand(diffCommand)
}

type diffOutput struct {
	Summary diff.Summary        `json:"summary"`
	Changes []types.ChangeEvent `json:"changes"`
}

func runDiffCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	html, err := os.ReadFile(diffHTMLPath)
	if err != nil {
		return fmt.Errorf("failed to read HTML: %w", err)
	}

	groups, err := parsing.ParsePage(string(html), diffSelector)
	if err != nil {
		return err
	}
	current := index.Build(groups)

	baseline := types.NewIndex()
	if diffSnapshotPath != "" {
		baseline, err = snapshot.NewFileStore(diffSnapshotPath).Load(ctx)
		if err != nil {
			return err
		}
	}

	changes := diff.Diff(baseline, current)
	if changes == nil {
		changes = []types.ChangeEvent{}
	}

	if verbose {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Parsed %d groups, %d records\n", len(current), current.Len())
	}

	if diffWriteCurrent != "" {
		if err := snapshot.NewFileStore(diffWriteCurrent).Save(ctx, current); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(diffOutput{Summary: diff.Summarize(changes), Changes: changes})
}
