package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bcnelson/apikey-console/internal/logging"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs a job on a fixed interval until stopped or until the
// context given to Start is cancelled. Runs may overlap if a job outlasts
// the interval.
type Scheduler struct {
	interval time.Duration
	job      func(ctx context.Context)
	logger   zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(interval time.Duration, job func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		interval: interval,
		job:      job,
		logger:   logging.NewLogger("scheduler"),
	}
}

// Start schedules the job. The job's context is cancelled by Stop or when
// ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if s.interval < time.Second {
		return fmt.Errorf("interval must be at least 1s, got %s", s.interval)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	logger := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() { s.job(jobCtx) }); err != nil {
		cancel()
		return fmt.Errorf("scheduling job: %w", err)
	}

	c.Start()
	s.cron = c
	s.cancel = cancel
	s.running = true

	go func() {
		<-jobCtx.Done()
		s.stop(c)
	}()

	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")
	return nil
}

// Stop cancels the job context and waits for running jobs to return.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stop(nil)
}

// stop halts the current run. A non-nil only limits it to that cron instance.
func (s *Scheduler) stop(only *cron.Cron) {
	s.mu.Lock()
	if !s.running || (only != nil && s.cron != only) {
		s.mu.Unlock()
		return
	}
	s.running = false
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// Running reports whether the scheduler is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
