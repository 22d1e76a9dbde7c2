package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultInterval is the weekly refresh period.
const DefaultInterval = 7 * 24 * time.Hour

// Job is one pipeline invocation. It must handle and log its own errors.
type Job func(ctx context.Context)

// Service runs Job once right after Start and then every interval. Runs are not
// serialized: a run that outlasts the interval overlaps with the next one.
type Service struct {
	job      Job
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	c       *cron.Cron
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New returns a stopped Service. interval <= 0 uses DefaultInterval.
func New(job Job, interval time.Duration, logger *slog.Logger) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		job:      job,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start kicks off the first run in the background and registers the recurring one.
// It returns immediately.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return fmt.Errorf("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	logger := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	s.entryID = c.Schedule(cron.Every(s.interval), cron.FuncJob(s.runOnce))
	c.Start()
	s.c = c

	s.spawn()
	s.logger.Info("scheduler started", "interval", s.interval.String(), "first_run", "immediate")
	return nil
}

// TriggerNow runs the job once more in the background, outside the recurring schedule.
func (s *Service) TriggerNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return false
	}
	s.spawn()
	return true
}

// NextRun reports when the recurring job fires next. ok is false before Start.
func (s *Service) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return time.Time{}, false
	}
	return s.c.Entry(s.entryID).Next, true
}

// Stop halts the schedule and waits for running jobs until ctx is done.
// Running jobs see their context canceled.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	cronDone := c.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn runs the job on its own goroutine. Callers hold s.mu.
func (s *Service) spawn() {
	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("job panicked", "panic", rec)
			}
		}()
		s.job(ctx)
	}()
}

// runOnce is the cron entry point; cron's own goroutine already isolates it.
func (s *Service) runOnce() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	s.job(ctx)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
