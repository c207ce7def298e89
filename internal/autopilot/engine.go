// Package autopilot sequences the per-job decision pipeline: hard gates, scoring,
// content generation and submission with a single retry, under a daily quota.
package autopilot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/content"
	"github.com/jonathan/job-autopilot/internal/gate"
	"github.com/jonathan/job-autopilot/internal/logger"
	"github.com/jonathan/job-autopilot/internal/metrics"
	"github.com/jonathan/job-autopilot/internal/quota"
	"github.com/jonathan/job-autopilot/internal/ranking"
	"github.com/jonathan/job-autopilot/internal/tracker"
	"github.com/jonathan/job-autopilot/internal/types"
)

// MaxSubmitAttempts is the number of times a job is offered to the submission channel.
const MaxSubmitAttempts = 2

// ErrNoSubmitter is returned by New when no submission channel is given.
var ErrNoSubmitter = errors.New("autopilot: submitter is required")

// Submitter delivers an application. Every failure is reported in the result.
type Submitter interface {
	Submit(ctx context.Context, jobID string, payload types.ApplicationPayload) types.SubmitResult
}

// SubmitterFunc adapts a plain function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, jobID string, payload types.ApplicationPayload) types.SubmitResult

// Submit calls f(ctx, jobID, payload).
func (f SubmitterFunc) Submit(ctx context.Context, jobID string, payload types.ApplicationPayload) types.SubmitResult {
	return f(ctx, jobID, payload)
}

// Recorder is the event sink used by a run. *tracker.Tracker satisfies it.
type Recorder interface {
	Track(e tracker.Entry) (types.ApplicationEvent, error)
}

// QuotaProbe counts the profile's applications inside w according to an
// authoritative store. It must not include submissions made by the current run.
// *db.DB and *pipeline.MemoryStore satisfy it.
type QuotaProbe interface {
	CountApplied(ctx context.Context, profileID string, w quota.Window) (int, error)
}

// Engine runs profiles against job lists. It holds no per-run state and may be
// shared by concurrent runs.
type Engine struct {
	submitter Submitter
	scorer    ranking.Scorer
	generator content.Generator
	probe     QuotaProbe
	metrics   *metrics.Metrics
	log       logger.Logger
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the default weighted scorer.
func WithScorer(s ranking.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithGenerator replaces the default template generator.
func WithGenerator(g content.Generator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithQuotaProbe consults p before each submission is committed.
func WithQuotaProbe(p QuotaProbe) Option {
	return func(e *Engine) { e.probe = p }
}

// WithMetrics records submission attempts, run durations and remaining quota in m.
// Event counts come from the tracker; see tracker.WithObserver.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides the time source for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine submitting through s.
func New(s Submitter, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, ErrNoSubmitter
	}
	e := &Engine{
		submitter: s,
		scorer:    ranking.NewWeightedScorer(),
		generator: content.NewTemplateGenerator(),
		log:       logger.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Report is the detailed outcome of one run.
type Report struct {
	RunID      string                   `json:"run_id"`
	ProfileID  string                   `json:"profile_id"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Summary    types.RunSummary         `json:"summary"`
	Events     []types.ApplicationEvent `json:"events"`
	// QuotaReached is set when the loop stopped because the daily limit was hit.
	QuotaReached bool `json:"quota_reached"`
	// AppsToday is the quota counter at the end of the run.
	AppsToday int `json:"apps_today"`
}

// Run processes jobs in order and returns the aggregated summary.
// See RunDetailed for error semantics.
func (e *Engine) Run(ctx context.Context, profile *types.Profile, jobs []types.JobListing, rec Recorder, appsToday int) (types.RunSummary, error) {
	report, err := e.RunDetailed(ctx, profile, jobs, rec, appsToday)
	if report == nil {
		return types.RunSummary{}, err
	}
	return report.Summary, err
}

// RunDetailed processes jobs in order, recording every decision through rec.
//
// Invalid input aborts the run before anything is recorded and returns a nil report
// with an error matching types.ErrInvalidInput. Cancellation is observed between jobs
// only; the partial report is returned with ctx.Err(). A failed audit append stops the
// run and returns the partial report with the *tracker.AuditError.
func (e *Engine) RunDetailed(ctx context.Context, profile *types.Profile, jobs []types.JobListing, rec Recorder, appsToday int) (*Report, error) {
	if err := types.ValidateRunInputs(profile, jobs); err != nil {
		return nil, err
	}
	if err := types.ValidateAppsToday(appsToday); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("autopilot: recorder is required")
	}

	r := &run{
		engine:    e,
		ctx:       ctx,
		profile:   profile,
		rec:       rec,
		appsToday: appsToday,
		report: &Report{
			RunID:     uuid.New().String(),
			ProfileID: profile.StudentID,
			StartedAt: e.now().UTC(),
		},
		log: e.log.With(logger.ProfileID(profile.StudentID)),
	}
	r.day = quota.Day(r.report.StartedAt)
	r.log = r.log.With(logger.RunID(r.report.RunID))
	r.log.Info("autopilot run started",
		logger.Int("jobs", len(jobs)),
		logger.Int("apps_today", appsToday),
		logger.Int("max_apps_per_day", profile.Constraints.MaxAppsPerDay))

	err := r.loop(jobs)

	r.report.AppsToday = r.appsToday
	r.report.FinishedAt = e.now().UTC()
	if e.metrics != nil {
		e.metrics.ObserveRun(r.report.FinishedAt.Sub(r.report.StartedAt))
		e.metrics.SetQuotaRemaining(profile.StudentID, quota.Remaining(profile.Constraints.MaxAppsPerDay, r.appsToday))
	}

	s := r.report.Summary
	fields := []logger.Field{
		logger.Int("queued", s.Queued),
		logger.Int("skipped", s.Skipped),
		logger.Int("submitted", s.Submitted),
		logger.Int("retried", s.Retried),
		logger.Int("failed", s.Failed),
		logger.Bool("quota_reached", r.report.QuotaReached),
	}
	if err != nil {
		r.log.Warn("autopilot run stopped early", append(fields, logger.Error(err))...)
		return r.report, err
	}
	r.log.Info("autopilot run completed", fields...)
	return r.report, nil
}

// run holds the mutable state of a single invocation.
type run struct {
	engine    *Engine
	ctx       context.Context
	profile   *types.Profile
	rec       Recorder
	appsToday int
	applied   int
	day       quota.Window
	report    *Report
	log       logger.Logger
}

func (r *run) loop(jobs []types.JobListing) error {
	maxPerDay := r.profile.Constraints.MaxAppsPerDay
	processed := make(map[string]struct{}, len(jobs))

	for i := range jobs {
		if err := r.ctx.Err(); err != nil {
			return fmt.Errorf("autopilot run canceled: %w", err)
		}

		job := &jobs[i]
		if _, seen := processed[job.JobID]; seen {
			r.log.Debug("duplicate job ignored", logger.JobID(job.JobID))
			continue
		}
		processed[job.JobID] = struct{}{}

		if quota.Exhausted(maxPerDay, r.appsToday) {
			r.report.QuotaReached = true
			r.log.Info("daily limit reached, leaving remaining jobs for a later run",
				logger.Int("remaining_jobs", len(jobs)-i))
			return nil
		}

		stop, err := r.process(job)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// process carries one job from queued to a terminal event. stop reports that the
// quota was exhausted at the moment of commitment.
func (r *run) process(job *types.JobListing) (stop bool, err error) {
	e := r.engine
	constraints := r.profile.Constraints

	if err := r.record(job, types.StatusQueued, "", ""); err != nil {
		return false, err
	}

	if d := gate.Evaluate(r.profile, job, r.appsToday); !d.Allowed {
		return false, r.record(job, types.StatusSkipped, d.Reason, "")
	}

	score := e.scorer.Score(r.profile, job)
	if score < constraints.MinMatchScore {
		reason := fmt.Sprintf("Score %.2f < required %.2f", score, constraints.MinMatchScore)
		return false, r.record(job, types.StatusSkipped, reason, "")
	}

	generated, reason := e.generator.Generate(r.profile, job)
	if generated == nil {
		if reason == "" {
			reason = "content generation returned no content"
		}
		return false, r.record(job, types.StatusSkipped, reason, "")
	}

	if quota.Exhausted(constraints.MaxAppsPerDay, r.committedToday()) {
		r.report.QuotaReached = true
		reason := fmt.Sprintf("Daily limit of %d applications reached", constraints.MaxAppsPerDay)
		return true, r.record(job, types.StatusSkipped, reason, "")
	}

	r.appsToday++
	r.applied++
	return false, r.submit(job, content.BuildPayload(r.profile, generated))
}

// committedToday is the quota counter at commitment time. When a probe is configured
// the larger of the local counter and the probed count plus this run's submissions wins.
// The probe counts the UTC day the run started in, matching the caller's count.
func (r *run) committedToday() int {
	e := r.engine
	if e.probe == nil {
		return r.appsToday
	}
	probed, err := e.probe.CountApplied(r.ctx, r.profile.StudentID, r.day)
	if err != nil {
		r.log.Warn("quota probe failed, using local count", logger.Error(err))
		return r.appsToday
	}
	return max(r.appsToday, probed+r.applied)
}

func (r *run) submit(job *types.JobListing, payload types.ApplicationPayload) error {
	ctx := context.WithoutCancel(r.ctx)
	var failures []string

	for attempt := 1; attempt <= MaxSubmitAttempts; attempt++ {
		res := r.engine.submitter.Submit(ctx, job.JobID, payload)
		if r.engine.metrics != nil {
			r.engine.metrics.ObserveAttempt(res.Success)
		}
		if res.Success {
			status := types.StatusSubmitted
			if attempt > 1 {
				status = types.StatusRetried
			}
			return r.record(job, status, "", res.ReceiptID)
		}

		detail := res.Error
		if detail == "" {
			detail = "unknown error"
		}
		r.log.Warn("submission attempt failed",
			logger.JobID(job.JobID),
			logger.Int("attempt", attempt),
			logger.String("error", detail))
		failures = append(failures, fmt.Sprintf("attempt %d: %s", attempt, detail))
	}

	return r.record(job, types.StatusFailed, failureReason(failures), "")
}

func failureReason(failures []string) string {
	return "Submission failed twice: " + strings.Join(failures, "; ")
}

// record writes one event and folds it into the report. Events the recorder kept
// despite an audit failure are still counted.
func (r *run) record(job *types.JobListing, status types.Status, reason, receipt string) error {
	event, err := r.rec.Track(tracker.Entry{
		JobID:     job.JobID,
		Status:    status,
		Reason:    reason,
		ReceiptID: receipt,
		Company:   job.Company,
		Role:      job.Role,
		Timestamp: r.engine.now().UTC(),
	})

	var auditErr *tracker.AuditError
	if err != nil && !errors.As(err, &auditErr) {
		return fmt.Errorf("failed to record %s event for job %s: %w", status, job.JobID, err)
	}

	r.report.Events = append(r.report.Events, event)
	r.report.Summary.Add(event.Status)
	r.log.Debug("event recorded",
		logger.JobID(job.JobID),
		logger.String("status", string(status)),
		logger.String("reason", event.ReasonText()))

	return err
}
