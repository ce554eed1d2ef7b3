package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/loi-watcher/internal/logger"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron schedule. A tick that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	entry   cron.EntryID
	job     Job
	log     logger.Logger
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler parses schedule as a standard 5-field cron expression
// (minute hour day month weekday).
func NewScheduler(schedule string, job Job, log logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{job: job, log: log, ctx: ctx, cancel: cancel}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cronLogger{log})))
	entry, err := s.cron.AddFunc(schedule, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	s.entry = entry
	return s, nil
}

// Start begins scheduling. When runNow is set a run is started immediately
// through the same recovering job chain as scheduled ticks.
func (s *Scheduler) Start(runNow bool) {
	s.cron.Start()
	s.log.Info("scheduler started")
	if runNow {
		job := s.cron.Entry(s.entry).WrappedJob
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			job.Run()
		}()
	}
}

// Stop cancels the in-flight run, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("previous run still in progress, skipping")
		return
	}
	defer s.running.Store(false)

	if err := s.job(s.ctx); err != nil {
		s.log.Error("scheduled run failed", logger.Error(err))
	}
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return fields
}
