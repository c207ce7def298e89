package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-autopilot/internal/autopilot"
	"github.com/jonathan/job-autopilot/internal/config"
	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/logger"
	"github.com/jonathan/job-autopilot/internal/metrics"
	"github.com/jonathan/job-autopilot/internal/pipeline"
	"github.com/jonathan/job-autopilot/internal/portal"
	"github.com/jonathan/job-autopilot/internal/schemas"
	"github.com/jonathan/job-autopilot/internal/server"
	"github.com/jonathan/job-autopilot/internal/tracker"
	"github.com/jonathan/job-autopilot/internal/types"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath  string
	portalURL   string
	databaseURL string
	logLevel    string
	auditDir    string
	profiles    string
	jobs        string
}

// resolve builds the effective config: file, then environment, then flags that
// were explicitly set, then defaults.
func (o *rootOptions) resolve(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("portal-url") {
		cfg.PortalURL = o.portalURL
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = o.databaseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("audit-dir") {
		cfg.AuditDir = o.auditDir
	}
	if flags.Changed("profiles") {
		cfg.Profiles = o.profiles
	}
	if flags.Changed("jobs") {
		cfg.Jobs = o.jobs
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// app is the wired object graph shared by run, serve and schedule.
type app struct {
	cfg     config.Config
	log     logger.Logger
	metrics *metrics.Metrics
	tracker *tracker.Tracker
	portal  *portal.Client
	source  pipeline.JobSource
	db      *db.DB
	history server.History
	runner  *pipeline.Runner
}

func newApp(ctx context.Context, cfg config.Config) (a *app, err error) {
	if cfg.Profiles == "" {
		return nil, errors.New("a profiles file is required (--profiles or \"profiles\" in the config file)")
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a = &app{cfg: cfg, log: log, metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.portal, err = portal.NewClient(cfg.PortalURL,
		portal.WithTimeout(cfg.SubmitTimeout.Std()),
		portal.WithRateLimit(cfg.PortalRPS, 1),
		portal.WithLogger(log))
	if err != nil {
		return nil, err
	}

	a.source = a.portal
	if cfg.Jobs != "" {
		jobs, err := schemas.LoadJobs(cfg.Jobs)
		if err != nil {
			return nil, err
		}
		a.source = pipeline.StaticJobs(jobs)
	}

	var (
		store pipeline.Store
		probe autopilot.QuotaProbe
	)
	if cfg.DatabaseURL != "" {
		a.db, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := a.db.Migrate(ctx); err != nil {
			return nil, err
		}
		store, probe, a.history = a.db, a.db, a.db
	} else {
		log.Warn("no database configured; application history is kept in memory")
		mem := pipeline.NewMemoryStore()
		store, probe, a.history = mem, mem, mem
	}

	a.tracker, err = tracker.Open(cfg.AuditDir,
		tracker.WithObserver(a.metrics.ObserveEvent),
		tracker.WithLogger(log))
	if err != nil {
		return nil, err
	}

	engine, err := autopilot.New(a.portal,
		autopilot.WithQuotaProbe(probe),
		autopilot.WithMetrics(a.metrics),
		autopilot.WithLogger(log))
	if err != nil {
		return nil, err
	}

	a.runner = pipeline.NewRunner(engine, a.tracker, a.source,
		pipeline.WithStore(store),
		pipeline.WithFilters(cfg.Filters),
		pipeline.WithParallelism(cfg.MaxParallel),
		pipeline.WithLogger(log))
	return a, nil
}

// loadProfiles reads the profiles file on every call so edits apply to the next run.
func (a *app) loadProfiles(context.Context) ([]*types.Profile, error) {
	return schemas.LoadProfiles(a.cfg.Profiles)
}

// selectProfiles narrows the loaded profiles to id when set.
func (a *app) selectProfiles(ctx context.Context, id string) ([]*types.Profile, error) {
	profiles, err := a.loadProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return profiles, nil
	}
	for _, p := range profiles {
		if p.StudentID == id {
			return []*types.Profile{p}, nil
		}
	}
	return nil, fmt.Errorf("profile %q not found in %s", id, a.cfg.Profiles)
}

func (a *app) Close() {
	if a.tracker != nil {
		if err := a.tracker.Close(); err != nil {
			a.log.Warn("failed to close audit log", logger.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.log.Sync()
}
