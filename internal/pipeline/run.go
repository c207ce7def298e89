// Package pipeline runs the autopilot end to end for one or many profiles:
// serialize per profile, count today's applications, fetch and filter jobs,
// run the engine and persist what happened.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/autopilot"
	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/logger"
	"github.com/jonathan/job-autopilot/internal/portal"
	"github.com/jonathan/job-autopilot/internal/quota"
	"github.com/jonathan/job-autopilot/internal/ranking"
	"github.com/jonathan/job-autopilot/internal/tracker"
	"github.com/jonathan/job-autopilot/internal/types"
)

// Store is the persistence the pipeline needs. *db.DB satisfies it.
type Store interface {
	LockProfile(ctx context.Context, profileID string) (func(context.Context) error, error)
	CountApplied(ctx context.Context, profileID string, w quota.Window) (int, error)
	ProcessedJobIDs(ctx context.Context, profileID string) (map[string]struct{}, error)
	SaveRun(ctx context.Context, run *db.Run, events []types.ApplicationEvent) error
}

// JobSource supplies candidate jobs. *portal.Client satisfies it.
type JobSource interface {
	Active(ctx context.Context) bool
	FetchJobs(ctx context.Context, f portal.Filters) ([]types.JobListing, error)
}

// StaticJobs is a JobSource over a fixed list, e.g. jobs loaded from a file.
type StaticJobs []types.JobListing

// Active always reports true.
func (StaticJobs) Active(context.Context) bool { return true }

// FetchJobs returns a copy of the list. Filters are ignored.
func (s StaticJobs) FetchJobs(context.Context, portal.Filters) ([]types.JobListing, error) {
	out := make([]types.JobListing, len(s))
	copy(out, s)
	return out, nil
}

// Progress steps
const (
	StepLock    = "lock"
	StepQuota   = "quota"
	StepFetch   = "fetch"
	StepDedupe  = "dedupe"
	StepRank    = "rank"
	StepEngine  = "engine"
	StepPersist = "persist"
)

// ProgressEvent represents a progress update during a profile run
type ProgressEvent struct {
	ProfileID string `json:"profile_id"`
	Step      string `json:"step"`
	Message   string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Skip reasons reported in Result.SkipReason.
const (
	SkipQuotaFull      = "daily limit already reached"
	SkipPortalInactive = "job portal is not active"
	SkipNoJobs         = "no new jobs to process"
)

// Result is the outcome of one profile run.
type Result struct {
	ProfileID string            `json:"profile_id"`
	Report    *autopilot.Report `json:"report,omitempty"`
	AppsToday int               `json:"apps_today"`
	Fetched   int               `json:"fetched"`
	Excluded  int               `json:"excluded"`
	// SkipReason is set when the engine was not started.
	SkipReason string `json:"skip_reason,omitempty"`
	Err        error  `json:"-"`
}

// Runner wires the engine to its inputs and outputs. It is safe for concurrent use
// across different profiles.
type Runner struct {
	engine     *autopilot.Engine
	tracker    *tracker.Tracker
	source     JobSource
	store      Store
	scorer     ranking.Scorer
	filters    portal.Filters
	parallel   int
	log        logger.Logger
	now        func() time.Time
	onProgress ProgressCallback
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore replaces the default in-memory store.
func WithStore(s Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithScorer sets the scorer used to order jobs before the run.
func WithScorer(s ranking.Scorer) Option {
	return func(r *Runner) { r.scorer = s }
}

// WithFilters sets the job query sent to the source.
func WithFilters(f portal.Filters) Option {
	return func(r *Runner) { r.filters = f }
}

// WithParallelism bounds how many profiles RunAll processes at once.
func WithParallelism(n int) Option {
	return func(r *Runner) { r.parallel = n }
}

// WithLogger sets the structured logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithClock overrides the time source used to pick the quota day.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithProgress registers a progress callback.
func WithProgress(cb ProgressCallback) Option {
	return func(r *Runner) { r.onProgress = cb }
}

// DefaultParallelism is the RunAll concurrency when none is configured.
const DefaultParallelism = 4

// NewRunner creates a Runner. The tracker receives every event of every run.
func NewRunner(engine *autopilot.Engine, t *tracker.Tracker, source JobSource, opts ...Option) *Runner {
	r := &Runner{
		engine:   engine,
		tracker:  t,
		source:   source,
		store:    NewMemoryStore(),
		scorer:   ranking.NewWeightedScorer(),
		parallel: DefaultParallelism,
		log:      logger.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithProgressFunc returns a copy of r that reports progress to cb instead of the
// configured callback. The copy shares the engine, store and tracker.
func (r *Runner) WithProgressFunc(cb ProgressCallback) *Runner {
	clone := *r
	clone.onProgress = cb
	return &clone
}

// emitProgress calls the progress callback if configured
func (r *Runner) emitProgress(profileID, step, format string, args ...any) {
	if r.onProgress != nil {
		r.onProgress(ProgressEvent{
			ProfileID: profileID,
			Step:      step,
			Message:   fmt.Sprintf(format, args...),
		})
	}
}

// RunProfile runs the autopilot once for profile. The returned Result is never nil.
// A concurrent run for the same profile fails with db.ErrProfileLocked. Every run
// that reaches the engine is persisted, including failed ones.
func (r *Runner) RunProfile(ctx context.Context, profile *types.Profile, trigger string) (*Result, error) {
	if profile == nil {
		return &Result{}, errors.New("pipeline: profile is nil")
	}
	res := &Result{ProfileID: profile.StudentID}
	log := r.log.With(logger.ProfileID(profile.StudentID), logger.String("trigger", trigger))
	startedAt := r.now().UTC()

	// Step 1: serialize runs for this profile
	unlock, err := r.store.LockProfile(ctx, profile.StudentID)
	if err != nil {
		return res, fmt.Errorf("failed to lock profile %s: %w", profile.StudentID, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to release profile lock", logger.Error(err))
		}
	}()
	r.emitProgress(profile.StudentID, StepLock, "acquired run lock")

	// Step 2: today's applications
	appsToday, err := r.store.CountApplied(ctx, profile.StudentID, quota.Day(r.now()))
	if err != nil {
		return res, fmt.Errorf("failed to count today's applications: %w", err)
	}
	res.AppsToday = appsToday
	if profile.Constraints != nil && quota.Exhausted(profile.Constraints.MaxAppsPerDay, appsToday) {
		res.SkipReason = SkipQuotaFull
		log.Info("skipping profile", logger.String("reason", res.SkipReason), logger.Int("apps_today", appsToday))
		return res, nil
	}
	r.emitProgress(profile.StudentID, StepQuota, "%d applications already today", appsToday)

	// Step 3: fetch jobs
	if !r.source.Active(ctx) {
		res.SkipReason = SkipPortalInactive
		log.Warn("skipping profile", logger.String("reason", res.SkipReason))
		return res, nil
	}
	jobs, err := r.source.FetchJobs(ctx, r.filters)
	if err != nil {
		return res, fmt.Errorf("failed to fetch jobs: %w", err)
	}
	res.Fetched = len(jobs)
	r.emitProgress(profile.StudentID, StepFetch, "fetched %d jobs", len(jobs))

	// Step 4: drop jobs the profile already has history for
	jobs, res.Excluded, err = r.excludeProcessed(ctx, profile.StudentID, jobs)
	if err != nil {
		return res, err
	}
	if len(jobs) == 0 {
		res.SkipReason = SkipNoJobs
		log.Info("skipping profile", logger.String("reason", res.SkipReason), logger.Int("excluded", res.Excluded))
		return res, nil
	}
	r.emitProgress(profile.StudentID, StepDedupe, "%d new jobs, %d already processed", len(jobs), res.Excluded)

	// Step 5: best matches first
	jobs = ranking.Jobs(ranking.RankJobs(r.scorer, profile, jobs))
	r.emitProgress(profile.StudentID, StepRank, "ranked %d jobs", len(jobs))

	// Step 6: run the engine
	report, runErr := r.engine.RunDetailed(ctx, profile, jobs, r.tracker, appsToday)
	res.Report = report
	if report != nil {
		s := report.Summary
		r.emitProgress(profile.StudentID, StepEngine, "submitted %d, retried %d, failed %d, skipped %d",
			s.Submitted, s.Retried, s.Failed, s.Skipped)
	}

	// Step 7: persist
	if err := r.persist(context.WithoutCancel(ctx), profile.StudentID, trigger, startedAt, report, runErr); err != nil {
		log.Error("failed to persist run", logger.Error(err))
		return res, errors.Join(runErr, err)
	}
	r.emitProgress(profile.StudentID, StepPersist, "saved run")

	if runErr != nil {
		return res, fmt.Errorf("autopilot run for %s: %w", profile.StudentID, runErr)
	}
	return res, nil
}

func (r *Runner) excludeProcessed(ctx context.Context, profileID string, jobs []types.JobListing) ([]types.JobListing, int, error) {
	seen, err := r.store.ProcessedJobIDs(ctx, profileID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load job history: %w", err)
	}
	kept := jobs[:0:0]
	for _, j := range jobs {
		if _, ok := seen[j.JobID]; ok {
			continue
		}
		kept = append(kept, j)
	}
	return kept, len(jobs) - len(kept), nil
}

func (r *Runner) persist(ctx context.Context, profileID, trigger string, startedAt time.Time, report *autopilot.Report, runErr error) error {
	run := &db.Run{
		ProfileID:   profileID,
		Trigger:     trigger,
		Status:      db.RunStatusCompleted,
		StartedAt:   startedAt,
		CompletedAt: r.now().UTC(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
		run.Status = db.RunStatusFailed
	}

	var events []types.ApplicationEvent
	if report != nil {
		if id, err := uuid.Parse(report.RunID); err == nil {
			run.ID = id
		}
		run.Summary = report.Summary
		run.StartedAt = report.StartedAt
		run.CompletedAt = report.FinishedAt
		events = report.Events
		if runErr != nil {
			run.Status = db.RunStatusPartial
		}
	}
	return r.store.SaveRun(ctx, run, events)
}
