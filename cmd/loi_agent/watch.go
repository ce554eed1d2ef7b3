package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/loi-watcher/internal/config"
	"github.com/jonathan/loi-watcher/internal/logger"
	"github.com/jonathan/loi-watcher/internal/pipeline"
)

var watchCommand = &cobra.Command{
	Use:   "watch",
	Short: "Run sync cycles on a cron schedule until interrupted",
	Long: `Runs the sync cycle on a 5-field cron schedule (minute hour day month weekday).
A cycle that is still running when the next one is due causes that tick to be skipped.`,
	RunE: runWatchCmd,
}

var (
	watchSchedule string
	watchRunNow   bool
)

func init() {
	watchCommand.Flags().StringVar(&watchSchedule, "schedule", "", "Cron expression (defaults to schedule or LOI_SCHEDULE)")
	watchCommand.Flags().BoolVar(&watchRunNow, "run-now", true, "Run one cycle immediately on start")
	watchCommand.Flags().StringVar(&syncURL, "url", "", "Page URL (defaults to source_url or LOI_PAGE_URL)")
	watchCommand.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute changes without publishing or saving")
	watchCommand.Flags().BoolVar(&syncUseBrowser, "use-browser", false, "Render the page with headless Chrome")

	rootCmd.AddCommand(watchCommand)
}

func runWatchCmd(cmd *cobra.Command, _ []string) error {
	overrides := syncOverrides(cmd)
	cfg, err := loadConfig(cmd, func(c *config.Config) {
		overrides(c)
		if cmd.Flags().Changed("schedule") {
			c.Schedule = watchSchedule
		}
	}, true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	scheduler, err := pipeline.NewScheduler(cfg.Schedule, func(jobCtx context.Context) error {
		result, err := pipeline.Run(jobCtx, rt.options(), rt.deps)
		if err != nil {
			return err
		}
		rt.log.Info("cycle complete",
			logger.String("run_id", result.RunID.String()),
			logger.Int("changes", result.Summary.Total()),
		)
		return nil
	}, rt.log)
	if err != nil {
		return err
	}

	rt.log.Info("watching", logger.String("url", cfg.SourceURL), logger.String("schedule", cfg.Schedule))
	scheduler.Start(watchRunNow)
	<-ctx.Done()
	rt.log.Info("shutting down")
	scheduler.Stop()
	return nil
}
