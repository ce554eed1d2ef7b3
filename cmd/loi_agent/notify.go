package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/loi-watcher/internal/compose"
	"github.com/jonathan/loi-watcher/internal/config"
	"github.com/jonathan/loi-watcher/internal/events"
	"github.com/jonathan/loi-watcher/internal/logger"
	"github.com/jonathan/loi-watcher/internal/redisconn"
	"github.com/jonathan/loi-watcher/internal/types"
)

var notifyCommand = &cobra.Command{
	Use:   "notify",
	Short: "Consume the change stream and print composed posts",
	Long: `Reads change events from the change stream and prints each one as a short post, ready for
a social media account or chat channel.`,
	RunE: runNotifyCmd,
}

var (
	notifyFrom     string
	notifyInterval time.Duration
	notifyOnce     bool
	notifyLink     string
)

func init() {
	notifyCommand.Flags().StringVar(&notifyFrom, "from", events.CursorLatest, "Stream entry id to start after (0 for the beginning, $ for new entries only)")
	notifyCommand.Flags().DurationVar(&notifyInterval, "interval", 5*time.Second, "Poll interval")
	notifyCommand.Flags().BoolVar(&notifyOnce, "once", false, "Read available entries once and exit")
	notifyCommand.Flags().StringVar(&notifyLink, "link", "", "Link appended to every post (defaults to post.link or POST_LINK)")

	rootCmd.AddCommand(notifyCommand)
}

func runNotifyCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, func(c *config.Config) {
		if cmd.Flags().Changed("link") {
			c.Post.Link = notifyLink
		}
	}, false)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redisconn.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	opts := compose.Options{Link: cfg.Post.Link, MaxLength: cfg.Post.MaxLength}
	out := cmd.OutOrStdout()
	handle := func(_ context.Context, entryID string, event types.ChangeEvent) error {
		if verbose {
			_, _ = fmt.Fprintf(out, "# %s\n", entryID)
		}
		_, err := fmt.Fprintf(out, "%s\n\n", compose.Compose(event, opts))
		return err
	}

	consumer := events.NewStreamConsumer(rdb, cfg.Publish.Stream, notifyFrom, log)
	if notifyOnce {
		n, err := consumer.Poll(ctx, handle)
		if err != nil {
			return err
		}
		log.Info("notify complete", logger.Int("posts", n), logger.String("cursor", consumer.Cursor()))
		return nil
	}

	log.Info("consuming change stream", logger.String("stream", cfg.Publish.Stream))
	return consumer.Run(ctx, notifyInterval, handle)
}
