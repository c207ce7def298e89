// Package scheduler fires autopilot cycles at fixed UTC times of day.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/job-autopilot/internal/logger"
)

// DefaultTimes are the daily UTC fire times used when none are configured.
var DefaultTimes = []string{"00:01", "09:00", "14:00", "18:00"}

// Job is one scheduled cycle. firedAt is the UTC time the cycle started.
type Job func(ctx context.Context, firedAt time.Time)

// parser accepts standard 5-field cron expressions and descriptors like @every.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSpec converts "HH:MM" into a daily cron expression. Anything else must be a
// valid cron expression and is returned unchanged.
func ParseSpec(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", errors.New("empty schedule entry")
	}

	if hh, mm, ok := strings.Cut(spec, ":"); ok && !strings.ContainsAny(spec, " @*") {
		hour, err := strconv.Atoi(hh)
		if err != nil || hour < 0 || hour > 23 {
			return "", fmt.Errorf("invalid hour in %q", spec)
		}
		minute, err := strconv.Atoi(mm)
		if err != nil || minute < 0 || minute > 59 {
			return "", fmt.Errorf("invalid minute in %q", spec)
		}
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	}

	if _, err := parser.Parse(spec); err != nil {
		return "", fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return spec, nil
}

// Scheduler runs a Job on a set of UTC schedules. Cycles never overlap: a fire time
// reached while the previous cycle is still running is skipped.
type Scheduler struct {
	cron      *cron.Cron
	schedules []cron.Schedule
	specs     []string
	job       Job
	log       logger.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the structured logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates a scheduler firing job at every entry of times. Entries are "HH:MM"
// in UTC or cron expressions. An empty list uses DefaultTimes.
func New(times []string, job Job, opts ...Option) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduler: job is required")
	}
	if len(times) == 0 {
		times = DefaultTimes
	}

	s := &Scheduler{job: job, log: logger.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	cl := cronLogger{log: s.log}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
	)

	for _, t := range times {
		spec, err := ParseSpec(t)
		if err != nil {
			return nil, err
		}
		schedule, err := parser.Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
		}
		s.schedules = append(s.schedules, schedule)
		s.specs = append(s.specs, spec)
	}
	return s, nil
}

// Specs returns the cron expressions in use.
func (s *Scheduler) Specs() []string {
	return append([]string(nil), s.specs...)
}

// Next returns the first fire time strictly after now, in UTC.
func (s *Scheduler) Next(now time.Time) time.Time {
	now = now.UTC()
	var next time.Time
	for _, schedule := range s.schedules {
		t := schedule.Next(now)
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next.UTC()
}

// Fire runs one cycle immediately on the calling goroutine.
func (s *Scheduler) Fire(ctx context.Context) {
	firedAt := time.Now().UTC()
	s.log.Info("autopilot cycle started", logger.Time("fired_at", firedAt))
	start := time.Now()
	s.job(ctx, firedAt)
	s.log.Info("autopilot cycle finished", logger.Duration("duration", time.Since(start)))
}

// Run registers the schedules and blocks until ctx is canceled, then waits for a
// running cycle to finish. Cycles receive a context canceled together with ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.ctx != nil {
		s.mu.Unlock()
		return errors.New("scheduler: already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	s.mu.Unlock()

	// One wrapped job shared by every schedule so cycles cannot overlap.
	cl := cronLogger{log: s.log}
	cycle := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).
		Then(cron.FuncJob(func() { s.Fire(runCtx) }))
	for _, schedule := range s.schedules {
		s.cron.Schedule(schedule, cycle)
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		logger.Strings("schedule", s.specs),
		logger.Time("next_run", s.Next(time.Now())))

	<-runCtx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.log.Info("scheduler stopped")
	return nil
}

// Stop cancels a running scheduler. Run returns once the current cycle ends.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
