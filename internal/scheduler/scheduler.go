// Package scheduler triggers pipeline runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Octave-byte/cube-ranking/pkg/logger"
)

// Sentinel errors for scheduler state.
var (
	ErrAlreadyRunning = errors.New("scheduler is already running")
	ErrNoJob          = errors.New("no job scheduled")
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron expression in UTC. A tick that fires while
// the previous run is still executing is skipped.
type Scheduler struct {
	mu      sync.RWMutex
	cron    *cron.Cron
	job     Job
	entry   cron.EntryID
	running bool
	timeout time.Duration
	logger  logger.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds a single run.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Scheduler for job.
func New(job Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		job:     job,
		timeout: time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	cl := cronLogger{l: s.logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s
}

// Schedule registers the job under a standard five-field expression or a
// descriptor such as "@daily". It replaces any earlier registration.
func (s *Scheduler) Schedule(expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
		s.entry = 0
	}
	id, err := s.cron.AddFunc(expr, s.tick)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", expr, err)
	}
	s.entry = id
	s.logger.Info(context.Background(), "pipeline run scheduled", logger.String("schedule", expr))
	return nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error(ctx, "scheduled run failed", logger.Error(err), logger.Duration("took", time.Since(start)))
		return
	}
	s.logger.Info(ctx, "scheduled run completed", logger.Duration("took", time.Since(start)))
}

// Start begins firing the job.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if s.entry == 0 {
		return ErrNoJob
	}
	s.cron.Start()
	s.running = true
	return nil
}

// Stop halts the schedule and waits for an in-flight run or ctx, whichever
// ends first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the next fire time, or the zero time when stopped.
func (s *Scheduler) Next() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running || s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// cronLogger routes cron's own messages through the structured logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(context.Background(), "cron: "+msg, pairs(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(context.Background(), "cron: "+msg, append(pairs(keysAndValues), logger.Error(err))...)
}

func pairs(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
