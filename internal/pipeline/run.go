// Package pipeline provides the high-level orchestration for one watch run:
// fetch, parse, index, diff, publish and snapshot.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/loi-watcher/internal/diff"
	"github.com/jonathan/loi-watcher/internal/events"
	"github.com/jonathan/loi-watcher/internal/index"
	"github.com/jonathan/loi-watcher/internal/logger"
	"github.com/jonathan/loi-watcher/internal/parsing"
	"github.com/jonathan/loi-watcher/internal/snapshot"
	"github.com/jonathan/loi-watcher/internal/types"
)

// Step names reported in progress events and StepError.
const (
	StepFetch        = "fetch"
	StepParse        = "parse"
	StepIndex        = "index"
	StepLoadBaseline = "load_baseline"
	StepDiff         = "diff"
	StepPublish      = "publish"
	StepSave         = "save"
)

// defaultPublishConcurrency bounds in-flight publishes when Options leaves it unset.
const defaultPublishConcurrency = 8

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Fetcher retrieves the page HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Printer renders verbose output.
type Printer interface {
	PrintIndexSummary(idx types.Index)
	PrintChanges(changes []types.ChangeEvent)
}

// Options holds configuration for one run
type Options struct {
	SourceURL          string
	MainSelector       string
	DryRun             bool
	Verbose            bool
	PublishConcurrency int
	OnProgress         ProgressCallback
}

// Dependencies are the collaborators a run talks to. Publisher may be nil
// for dry runs, where it should be one that only reports (events.LogPublisher);
// Logger and Printer are optional.
type Dependencies struct {
	Fetcher   Fetcher
	Store     snapshot.Store
	Publisher events.Publisher
	Logger    logger.Logger
	Printer   Printer
}

// Result describes a completed run.
type Result struct {
	RunID     uuid.UUID
	Changes   []types.ChangeEvent
	Snapshot  types.Index
	Summary   diff.Summary
	Published bool
	Saved     bool
	Duration  time.Duration
}

// Run executes one watch cycle. Every change is published and accepted
// before the new snapshot is saved; any failure before that point leaves
// the stored baseline untouched. A dry run hands the changes to the
// publisher, if one is set, and never saves.
func Run(ctx context.Context, opts Options, deps Dependencies) (*Result, error) {
	if err := deps.validate(opts); err != nil {
		return nil, err
	}
	if opts.MainSelector == "" {
		opts.MainSelector = parsing.DefaultMainSelector
	}
	if opts.PublishConcurrency < 1 {
		opts.PublishConcurrency = defaultPublishConcurrency
	}

	start := time.Now()
	runID := uuid.New()
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(logger.String("run_id", runID.String()))
	emit := func(step, message string, content any) {
		if opts.OnProgress != nil {
			opts.OnProgress(ProgressEvent{Step: step, Message: message, RunID: runID.String(), Content: content})
		}
	}

	log.Info("fetching page", logger.String("url", opts.SourceURL), logger.Bool("dry_run", opts.DryRun))
	html, err := deps.Fetcher.Fetch(ctx, opts.SourceURL)
	if err != nil {
		return nil, &StepError{Step: StepFetch, Cause: err}
	}
	emit(StepFetch, fmt.Sprintf("Fetched %d bytes", len(html)), nil)

	groups, err := parsing.ParsePage(html, opts.MainSelector)
	if err != nil {
		return nil, &StepError{Step: StepParse, Cause: err}
	}
	emit(StepParse, fmt.Sprintf("Parsed %d groups", len(groups)), nil)

	current := index.Build(groups)
	log.Info("built current snapshot",
		logger.Int("groups", len(current)),
		logger.Int("records", current.Len()),
	)
	emit(StepIndex, fmt.Sprintf("Indexed %d records", current.Len()), current)
	if opts.Verbose && deps.Printer != nil {
		deps.Printer.PrintIndexSummary(current)
	}

	baseline, err := deps.Store.Load(ctx)
	if err != nil {
		return nil, &StepError{Step: StepLoadBaseline, Cause: err}
	}
	emit(StepLoadBaseline, fmt.Sprintf("Loaded baseline with %d records", baseline.Len()), nil)

	changes := diff.Diff(baseline, current)
	summary := diff.Summarize(changes)
	log.Info("computed changes",
		logger.Int("added", summary.Added),
		logger.Int("updated", summary.Updated),
		logger.Int("removed", summary.Removed),
	)
	emit(StepDiff, fmt.Sprintf("%d changes", summary.Total()), changes)
	if opts.Verbose && deps.Printer != nil {
		deps.Printer.PrintChanges(changes)
	}

	result := &Result{
		RunID:    runID,
		Changes:  changes,
		Snapshot: current,
		Summary:  summary,
	}

	if opts.DryRun {
		// Dry-run publishers only report; the baseline is never replaced.
		if deps.Publisher != nil {
			if err := events.PublishAll(ctx, deps.Publisher, changes, opts.PublishConcurrency); err != nil {
				return nil, &StepError{Step: StepPublish, Cause: err}
			}
		}
		result.Duration = time.Since(start)
		log.Info("dry run, snapshot not saved", logger.Duration("duration", result.Duration))
		return result, nil
	}

	if err := events.PublishAll(ctx, deps.Publisher, changes, opts.PublishConcurrency); err != nil {
		return nil, &StepError{Step: StepPublish, Cause: err}
	}
	result.Published = true
	emit(StepPublish, fmt.Sprintf("Published %d changes", len(changes)), nil)

	if err := deps.Store.Save(ctx, current); err != nil {
		return nil, &StepError{Step: StepSave, Cause: err}
	}
	result.Saved = true
	emit(StepSave, "Saved snapshot", nil)

	result.Duration = time.Since(start)
	log.Info("run complete", logger.Duration("duration", result.Duration))
	return result, nil
}

func (d Dependencies) validate(opts Options) error {
	if d.Fetcher == nil {
		return fmt.Errorf("pipeline: fetcher is required")
	}
	if d.Store == nil {
		return fmt.Errorf("pipeline: snapshot store is required")
	}
	if d.Publisher == nil && !opts.DryRun {
		return fmt.Errorf("pipeline: publisher is required unless dry run")
	}
	if opts.SourceURL == "" {
		return fmt.Errorf("pipeline: source URL is required")
	}
	return nil
}
