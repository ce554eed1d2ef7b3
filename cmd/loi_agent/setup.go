package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jonathan/loi-watcher/internal/config"
	"github.com/jonathan/loi-watcher/internal/events"
	"github.com/jonathan/loi-watcher/internal/fetch"
	"github.com/jonathan/loi-watcher/internal/logger"
	"github.com/jonathan/loi-watcher/internal/observability"
	"github.com/jonathan/loi-watcher/internal/pipeline"
	"github.com/jonathan/loi-watcher/internal/redisconn"
	"github.com/jonathan/loi-watcher/internal/snapshot"
)

// loadConfig builds the effective configuration. Precedence, lowest first:
// defaults, config file, environment, flags. override applies the
// command's own flags.
func loadConfig(cmd *cobra.Command, override func(*config.Config), validate bool) (*config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if override != nil {
		override(&cfg)
	}

	cfg = cfg.MergeWithDefaults(config.Default())

	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// runtime holds the collaborators built from a Config.
type runtime struct {
	cfg   *config.Config
	log   logger.Logger
	redis *redis.Client
	deps  pipeline.Dependencies
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	rt := &runtime{cfg: cfg, log: log}

	if !cfg.DryRun || cfg.Storage.Driver == config.DriverRedis {
		rt.redis, err = redisconn.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
	}

	store, err := snapshot.Open(ctx, cfg.Storage, rt.redis)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	var publisher events.Publisher
	if cfg.DryRun {
		publisher = &events.LogPublisher{Logger: log}
	} else {
		publisher = events.NewStreamPublisher(rt.redis, cfg.Publish.Stream, cfg.Publish.MaxLen)
	}

	rt.deps = pipeline.Dependencies{
		Fetcher:   fetch.NewFetcher(cfg.FetchTimeout(), cfg.MainSelector, cfg.UseBrowser, log),
		Store:     store,
		Publisher: publisher,
		Logger:    log,
		Printer:   observability.NewPrinter(os.Stdout),
	}
	return rt, nil
}

func (rt *runtime) options() pipeline.Options {
	return pipeline.Options{
		SourceURL:          rt.cfg.SourceURL,
		MainSelector:       rt.cfg.MainSelector,
		DryRun:             rt.cfg.DryRun,
		Verbose:            rt.cfg.Verbose,
		PublishConcurrency: rt.cfg.Publish.Concurrency,
	}
}

func (rt *runtime) Close() {
	if rt.deps.Store != nil {
		_ = rt.deps.Store.Close()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	_ = rt.log.Sync()
}
