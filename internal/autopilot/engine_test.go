package autopilot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-autopilot/internal/content"
	"github.com/jonathan/job-autopilot/internal/metrics"
	"github.com/jonathan/job-autopilot/internal/quota"
	"github.com/jonathan/job-autopilot/internal/ranking"
	"github.com/jonathan/job-autopilot/internal/tracker"
	"github.com/jonathan/job-autopilot/internal/types"
)

var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func testProfile(maxPerDay int) *types.Profile {
	return &types.Profile{
		StudentID:  "student-1",
		ResumeHash: "abc123",
		SkillVocab: []string{"Go", "SQL", "Docker", "Python"},
		Constraints: &types.Constraints{
			MaxAppsPerDay:    maxPerDay,
			MinMatchScore:    0.5,
			BlockedCompanies: []string{"Evil Corp"},
		},
		BasicInfo: types.BasicInfo{Name: "Ada Student", Email: "ada@example.com"},
	}
}

func testJob(id string) types.JobListing {
	return types.JobListing{
		JobID:          id,
		Company:        "Acme " + id,
		Role:           "Backend Intern",
		Location:       "Remote",
		RequiredSkills: []string{"Go", "SQL"},
	}
}

// scriptedSubmitter returns queued results per job and records every call.
type scriptedSubmitter struct {
	mu      sync.Mutex
	results map[string][]types.SubmitResult
	calls   map[string]int
	ctxErrs []error
}

func newScriptedSubmitter() *scriptedSubmitter {
	return &scriptedSubmitter{
		results: map[string][]types.SubmitResult{},
		calls:   map[string]int{},
	}
}

func (s *scriptedSubmitter) script(jobID string, results ...types.SubmitResult) {
	s.results[jobID] = results
}

func (s *scriptedSubmitter) Submit(ctx context.Context, jobID string, _ types.ApplicationPayload) types.SubmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.calls[jobID]
	s.calls[jobID] = n + 1
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	if queued := s.results[jobID]; n < len(queued) {
		return queued[n]
	}
	return types.SubmitResult{Success: true, ReceiptID: fmt.Sprintf("RCP-%s-%d", jobID, n+1)}
}

func fixedScore(v float64) ranking.Scorer {
	return ranking.ScorerFunc(func(*types.Profile, *types.JobListing) float64 { return v })
}

func newTestEngine(t *testing.T, sub Submitter, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(testClock), WithScorer(fixedScore(0.9))}, opts...)
	e, err := New(sub, opts...)
	require.NoError(t, err)
	return e
}

func statuses(events []types.ApplicationEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.JobID + ":" + string(e.Status)
	}
	return out
}

func TestNew_RequiresSubmitter(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoSubmitter)
}

func TestRun_QuotaStopsLoopWithoutEvent(t *testing.T) {
	sub := newScriptedSubmitter()
	engine := newTestEngine(t, sub)
	tr := tracker.New(nil)

	jobs := []types.JobListing{testJob("j1"), testJob("j2"), testJob("j3")}
	report, err := engine.RunDetailed(context.Background(), testProfile(2), jobs, tr, 0)
	require.NoError(t, err)

	assert.Equal(t, types.RunSummary{Queued: 2, Submitted: 2}, report.Summary)
	assert.Equal(t, []string{"j1:queued", "j1:submitted", "j2:queued", "j2:submitted"}, statuses(tr.Applications()))
	assert.True(t, report.QuotaReached)
	assert.Equal(t, 2, report.AppsToday)
	assert.Zero(t, sub.calls["j3"])
}

func TestRun_BlockedCompanySkipped(t *testing.T) {
	engine := newTestEngine(t, newScriptedSubmitter())
	tr := tracker.New(nil)

	job := testJob("j1")
	job.Company = "Evil Corp"
	summary, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{job}, tr, 0)
	require.NoError(t, err)

	assert.Equal(t, types.RunSummary{Queued: 1, Skipped: 1}, summary)
	events := tr.Applications()
	require.Len(t, events, 2)
	assert.Equal(t, types.StatusQueued, events[0].Status)
	assert.Equal(t, types.StatusSkipped, events[1].Status)
	assert.Contains(t, events[1].ReasonText(), "Evil Corp")
}

func TestRun_MinimumCoverageIsAllowed(t *testing.T) {
	sub := newScriptedSubmitter()
	engine := newTestEngine(t, sub)
	tr := tracker.New(nil)

	job := testJob("j1")
	job.RequiredSkills = []string{"Go", "Rust", "Haskell", "Elixir", "Scala"}
	summary, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{job}, tr, 0)
	require.NoError(t, err)

	assert.Equal(t, types.RunSummary{Queued: 1, Submitted: 1}, summary)
}

func TestRun_RetryAfterOneFailure(t *testing.T) {
	sub := newScriptedSubmitter()
	sub.script("j1",
		types.SubmitResult{Error: "portal timeout"},
		types.SubmitResult{Success: true, ReceiptID: "RCP-second"},
	)
	engine := newTestEngine(t, sub)
	tr := tracker.New(nil)

	summary, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{testJob("j1")}, tr, 0)
	require.NoError(t, err)

	assert.Equal(t, types.RunSummary{Queued: 1, Retried: 1}, summary)
	assert.Equal(t, 2, sub.calls["j1"])

	last := tr.Applications()[1]
	assert.Equal(t, types.StatusRetried, last.Status)
	assert.Nil(t, last.ReceiptID, "retried events drop the receipt")
	assert.Nil(t, last.Reason)
}

func TestRun_FailsAfterTwoAttempts(t *testing.T) {
	sub := newScriptedSubmitter()
	sub.script("j1",
		types.SubmitResult{Error: "HTTP 500"},
		types.SubmitResult{Error: "connection reset"},
	)
	engine := newTestEngine(t, sub)
	tr := tracker.New(nil)

	summary, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{testJob("j1")}, tr, 0)
	require.NoError(t, err)

	assert.Equal(t, types.RunSummary{Queued: 1, Failed: 1}, summary)
	assert.Equal(t, MaxSubmitAttempts, sub.calls["j1"])

	last := tr.Applications()[1]
	assert.Equal(t, types.StatusFailed, last.Status)
	assert.Equal(t, "Submission failed twice: attempt 1: HTTP 500; attempt 2: connection reset", last.ReasonText())
}

func TestRun_FailureWithoutDetail(t *testing.T) {
	sub := newScriptedSubmitter()
	sub.script("j1", types.SubmitResult{}, types.SubmitResult{})
	engine := newTestEngine(t, sub)
	tr := tracker.New(nil)

	_, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{testJob("j1")}, tr, 0)
	require.NoError(t, err)
	assert.Equal(t, "Submission failed twice: attempt 1: unknown error; attempt 2: unknown error", tr.Applications()[1].ReasonText())
}

func TestRun_DuplicateJobProcessedOnce(t *testing.T) {
	sub := newScriptedSubmitter()
	engine := newTestEngine(t, sub)
	tr := tracker.New(nil)

	jobs := []types.JobListing{testJob("j1"), testJob("j1"), testJob("j2")}
	summary, err := engine.Run(context.Background(), testProfile(5), jobs, tr, 0)
	require.NoError(t, err)

	assert.Equal(t, types.RunSummary{Queued: 2, Submitted: 2}, summary)
	assert.Equal(t, 1, sub.calls["j1"])
	assert.Equal(t, []string{"j1:queued", "j1:submitted", "j2:queued", "j2:submitted"}, statuses(tr.Applications()))
}

func TestRun_CarriedInQuota(t *testing.T) {
	tests := []struct {
		name      string
		maxPerDay int
		appsToday int
		wantSub   int
	}{
		{name: "room for one", maxPerDay: 3, appsToday: 2, wantSub: 1},
		{name: "already at limit", maxPerDay: 3, appsToday: 3, wantSub: 0},
		{name: "over limit", maxPerDay: 3, appsToday: 7, wantSub: 0},
		{name: "plenty of room", maxPerDay: 10, appsToday: 0, wantSub: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, newScriptedSubmitter())
			tr := tracker.New(nil)
			jobs := []types.JobListing{testJob("a"), testJob("b"), testJob("c"), testJob("d")}

			summary, err := engine.Run(context.Background(), testProfile(tt.maxPerDay), jobs, tr, tt.appsToday)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSub, summary.Submitted)
			assert.Equal(t, tt.wantSub, summary.Queued, "no job is queued once the limit is reached")
			assert.LessOrEqual(t, tt.appsToday+quota.CountApplied(tr.Applications(), quota.Day(testNow)), max(tt.maxPerDay, tt.appsToday))
		})
	}
}

func TestRun_QuotaHoldsAcrossRuns(t *testing.T) {
	engine := newTestEngine(t, newScriptedSubmitter())
	tr := tracker.New(nil, tracker.WithClock(testClock))
	profile := testProfile(3)
	window := quota.Day(testNow)

	first := []types.JobListing{testJob("a"), testJob("b")}
	_, err := engine.Run(context.Background(), profile, first, tr, quota.CountApplied(tr.Applications(), window))
	require.NoError(t, err)

	second := []types.JobListing{testJob("c"), testJob("d"), testJob("e")}
	summary, err := engine.Run(context.Background(), profile, second, tr, quota.CountApplied(tr.Applications(), window))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Submitted)
	assert.Equal(t, 3, quota.CountApplied(tr.Applications(), window))
}

func TestRun_SkipsBelowThreshold(t *testing.T) {
	sub := newScriptedSubmitter()
	engine := newTestEngine(t, sub, WithScorer(fixedScore(0.3)))
	tr := tracker.New(nil)

	summary, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{testJob("j1")}, tr, 0)
	require.NoError(t, err)

	assert.Equal(t, types.RunSummary{Queued: 1, Skipped: 1}, summary)
	assert.Equal(t, "Score 0.30 < required 0.50", tr.Applications()[1].ReasonText())
	assert.Zero(t, sub.calls["j1"])
}

func TestRun_ScoreEqualToThresholdProceeds(t *testing.T) {
	engine := newTestEngine(t, newScriptedSubmitter(), WithScorer(fixedScore(0.5)))
	summary, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{testJob("j1")}, tracker.New(nil), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Submitted)
}

func TestRun_ContentSkip(t *testing.T) {
	tests := []struct {
		name       string
		reason     string
		wantReason string
	}{
		{name: "with reason", reason: "nothing to say", wantReason: "nothing to say"},
		{name: "without reason", reason: "", wantReason: "content generation returned no content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := newScriptedSubmitter()
			gen := content.GeneratorFunc(func(*types.Profile, *types.JobListing) (*types.Content, string) {
				return nil, tt.reason
			})
			engine := newTestEngine(t, sub, WithGenerator(gen))
			tr := tracker.New(nil)

			summary, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{testJob("j1")}, tr, 0)
			require.NoError(t, err)

			assert.Equal(t, types.RunSummary{Queued: 1, Skipped: 1}, summary)
			assert.Equal(t, tt.wantReason, tr.Applications()[1].ReasonText())
			assert.Zero(t, sub.calls["j1"])
		})
	}
}

type stubProbe struct {
	counts  []int
	err     error
	calls   int
	windows []quota.Window
}

func (p *stubProbe) CountApplied(_ context.Context, _ string, w quota.Window) (int, error) {
	p.calls++
	p.windows = append(p.windows, w)
	if p.err != nil {
		return 0, p.err
	}
	n := p.counts[len(p.counts)-1]
	if p.calls <= len(p.counts) {
		n = p.counts[p.calls-1]
	}
	return n, nil
}

func TestRun_ProbeExhaustsQuotaAtCommit(t *testing.T) {
	sub := newScriptedSubmitter()
	// Another writer records two applications while j1 is being prepared.
	probe := &stubProbe{counts: []int{0, 2}}
	engine := newTestEngine(t, sub, WithQuotaProbe(probe))
	tr := tracker.New(nil)

	jobs := []types.JobListing{testJob("j1"), testJob("j2"), testJob("j3")}
	report, err := engine.RunDetailed(context.Background(), testProfile(3), jobs, tr, 0)
	require.NoError(t, err)

	assert.Equal(t, types.RunSummary{Queued: 2, Submitted: 1, Skipped: 1}, report.Summary)
	assert.True(t, report.QuotaReached)
	assert.Equal(t, []string{"j1:queued", "j1:submitted", "j2:queued", "j2:skipped"}, statuses(tr.Applications()))
	assert.Equal(t, "Daily limit of 3 applications reached", tr.Applications()[3].ReasonText())
	assert.Zero(t, sub.calls["j2"])
	assert.Zero(t, sub.calls["j3"])
}

func TestRun_ProbeCountsRunStartDay(t *testing.T) {
	beforeMidnight := time.Date(2026, 10, 15, 23, 59, 59, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		if calls == 1 {
			return beforeMidnight
		}
		return beforeMidnight.Add(time.Minute)
	}

	probe := &stubProbe{counts: []int{0}}
	engine, err := New(newScriptedSubmitter(), WithClock(clock), WithScorer(fixedScore(0.9)), WithQuotaProbe(probe))
	require.NoError(t, err)

	jobs := []types.JobListing{testJob("j1"), testJob("j2")}
	summary, err := engine.Run(context.Background(), testProfile(5), jobs, tracker.New(nil), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Submitted)
	require.Len(t, probe.windows, 2)
	for _, w := range probe.windows {
		assert.Equal(t, quota.Day(beforeMidnight), w)
	}
}

func TestRun_ProbeErrorFallsBackToLocalCount(t *testing.T) {
	engine := newTestEngine(t, newScriptedSubmitter(), WithQuotaProbe(&stubProbe{err: errors.New("db down")}))
	summary, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{testJob("j1")}, tracker.New(nil), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Submitted)
}

func TestRun_InvalidInputAbortsBeforeAnyEvent(t *testing.T) {
	engine := newTestEngine(t, newScriptedSubmitter())

	t.Run("profile", func(t *testing.T) {
		tr := tracker.New(nil)
		profile := testProfile(5)
		profile.Constraints = nil

		report, err := engine.RunDetailed(context.Background(), profile, []types.JobListing{testJob("j1")}, tr, 0)
		require.Error(t, err)
		assert.Nil(t, report)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
		assert.Contains(t, err.Error(), "student profile")
		assert.Zero(t, tr.Len())
	})

	t.Run("second job", func(t *testing.T) {
		tr := tracker.New(nil)
		bad := testJob("j2")
		bad.Company = ""

		summary, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{testJob("j1"), bad, testJob("j3")}, tr, 0)
		require.Error(t, err)

		var inputErr *types.InputError
		require.ErrorAs(t, err, &inputErr)
		assert.Equal(t, 2, inputErr.Index)
		assert.Contains(t, err.Error(), "job entry #2")
		assert.Equal(t, types.RunSummary{}, summary)
		assert.Zero(t, tr.Len())
	})

	t.Run("negative apps today", func(t *testing.T) {
		sub := newScriptedSubmitter()
		engine := newTestEngine(t, sub)
		tr := tracker.New(nil)
		jobs := []types.JobListing{testJob("j1"), testJob("j2"), testJob("j3")}

		report, err := engine.RunDetailed(context.Background(), testProfile(2), jobs, tr, -3)
		require.Error(t, err)
		assert.Nil(t, report)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
		assert.Contains(t, err.Error(), "apps today count")
		assert.Zero(t, tr.Len())
		assert.Empty(t, sub.calls)
	})
}

// cancelingSubmitter cancels the run while the first submission is in flight.
type cancelingSubmitter struct {
	cancel context.CancelFunc
	inner  *scriptedSubmitter
}

func (c *cancelingSubmitter) Submit(ctx context.Context, jobID string, payload types.ApplicationPayload) types.SubmitResult {
	c.cancel()
	return c.inner.Submit(ctx, jobID, payload)
}

func TestRun_CancellationBetweenJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inner := newScriptedSubmitter()
	inner.script("j1", types.SubmitResult{Error: "busy"}, types.SubmitResult{Success: true, ReceiptID: "R"})
	engine := newTestEngine(t, &cancelingSubmitter{cancel: cancel, inner: inner})
	tr := tracker.New(nil)

	report, err := engine.RunDetailed(ctx, testProfile(5), []types.JobListing{testJob("j1"), testJob("j2")}, tr, 0)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)

	assert.Equal(t, types.RunSummary{Queued: 1, Retried: 1}, report.Summary, "in-flight job reaches a terminal event")
	assert.Equal(t, []string{"j1:queued", "j1:retried"}, statuses(tr.Applications()))
	for _, ctxErr := range inner.ctxErrs {
		assert.NoError(t, ctxErr, "submission context must not be canceled")
	}
}

func TestRun_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := newTestEngine(t, newScriptedSubmitter())
	tr := tracker.New(nil)
	report, err := engine.RunDetailed(ctx, testProfile(5), []types.JobListing{testJob("j1")}, tr, 0)

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Events)
	assert.Zero(t, tr.Len())
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("read-only file system") }

func TestRun_AuditFailureStopsRun(t *testing.T) {
	sub := newScriptedSubmitter()
	engine := newTestEngine(t, sub)
	tr := tracker.New(brokenWriter{})

	report, err := engine.RunDetailed(context.Background(), testProfile(5), []types.JobListing{testJob("j1"), testJob("j2")}, tr, 0)

	var auditErr *tracker.AuditError
	require.ErrorAs(t, err, &auditErr)
	assert.Equal(t, "j1", auditErr.JobID)
	assert.Equal(t, types.RunSummary{Queued: 1}, report.Summary)
	assert.Equal(t, 1, tr.Len(), "event is kept in memory")
	assert.Zero(t, sub.calls["j1"])
}

func TestRunDetailed_ReportMatchesTracker(t *testing.T) {
	sub := newScriptedSubmitter()
	sub.script("c", types.SubmitResult{Error: "x"}, types.SubmitResult{Error: "y"})
	engine := newTestEngine(t, sub)
	tr := tracker.New(nil)

	blocked := testJob("b")
	blocked.Company = "Evil Corp"
	jobs := []types.JobListing{testJob("a"), blocked, testJob("c")}

	report, err := engine.RunDetailed(context.Background(), testProfile(5), jobs, tr, 0)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "student-1", report.ProfileID)
	assert.Equal(t, tr.Applications(), report.Events)
	assert.Equal(t, types.SummarizeEvents(report.Events), report.Summary)
	assert.Equal(t, types.RunSummary{Queued: 3, Skipped: 1, Submitted: 1, Failed: 1}, report.Summary)
	assert.Equal(t, 2, report.AppsToday, "failed submissions still consume quota")
}

func TestRun_FieldPresence(t *testing.T) {
	sub := newScriptedSubmitter()
	sub.script("r", types.SubmitResult{Error: "x"}, types.SubmitResult{Success: true, ReceiptID: "R2"})
	sub.script("f", types.SubmitResult{Error: "x"}, types.SubmitResult{Error: "y"})
	engine := newTestEngine(t, sub)
	tr := tracker.New(nil)

	blocked := testJob("s")
	blocked.Company = "Evil Corp"
	jobs := []types.JobListing{testJob("ok"), testJob("r"), testJob("f"), blocked}

	_, err := engine.Run(context.Background(), testProfile(10), jobs, tr, 0)
	require.NoError(t, err)

	for _, e := range tr.Applications() {
		assert.Equal(t, e.Status == types.StatusSkipped || e.Status == types.StatusFailed, e.Reason != nil, "%s reason", e.Status)
		assert.Equal(t, e.Status == types.StatusSubmitted, e.ReceiptID != nil, "%s receipt", e.Status)
	}
}

func TestRun_SharedTrackerConcurrentRuns(t *testing.T) {
	engine := newTestEngine(t, newScriptedSubmitter())
	tr := tracker.New(nil)

	var wg sync.WaitGroup
	reports := make([]*Report, 4)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			profile := testProfile(2)
			profile.StudentID = fmt.Sprintf("student-%d", i)
			jobs := []types.JobListing{testJob(fmt.Sprintf("p%d-a", i)), testJob(fmt.Sprintf("p%d-b", i))}
			r, err := engine.RunDetailed(context.Background(), profile, jobs, tr, 0)
			assert.NoError(t, err)
			reports[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, tr.Len())
	for i, r := range reports {
		require.NotNil(t, r)
		assert.Len(t, r.Events, 4)
		for _, e := range r.Events {
			assert.True(t, strings.HasPrefix(e.JobID, fmt.Sprintf("p%d-", i)))
		}
	}
}

func TestRun_MetricsAndAuditLog(t *testing.T) {
	sub := newScriptedSubmitter()
	sub.script("j2", types.SubmitResult{Error: "x"}, types.SubmitResult{Success: true, ReceiptID: "R"})
	m := metrics.New()
	engine := newTestEngine(t, sub, WithMetrics(m))

	var buf bytes.Buffer
	tr := tracker.New(&buf, tracker.WithObserver(m.ObserveEvent))

	_, err := engine.Run(context.Background(), testProfile(5), []types.JobListing{testJob("j1"), testJob("j2")}, tr, 0)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("queued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("retried")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SubmissionAttempts.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionAttempts.WithLabelValues(metrics.OutcomeFailure)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.QuotaRemaining.WithLabelValues("student-1")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "job_id=j1\tstatus=submitted\ttime='2026-10-15 09:00:00 UTC'\treceipt_id='RCP-j1-1'", lines[1])
}

func TestRun_DefaultCollaborators(t *testing.T) {
	var payloads []types.ApplicationPayload
	sub := SubmitterFunc(func(_ context.Context, _ string, p types.ApplicationPayload) types.SubmitResult {
		payloads = append(payloads, p)
		return types.SubmitResult{Success: true, ReceiptID: "R"}
	})
	e, err := New(sub, WithClock(testClock))
	require.NoError(t, err)

	job := testJob("j1")
	job.RequiredSkills = []string{"Go", "SQL", "Docker"}
	summary, err := e.Run(context.Background(), testProfile(5), []types.JobListing{job}, tracker.New(nil), 0)
	require.NoError(t, err)

	require.Equal(t, 1, summary.Submitted)
	require.Len(t, payloads, 1)
	assert.Equal(t, "Ada Student", payloads[0].ApplicantName)
	assert.Contains(t, payloads[0].CoverLetter, "Backend Intern")
}
