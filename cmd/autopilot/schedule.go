package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/logger"
	"github.com/jonathan/job-autopilot/internal/scheduler"
)

func newScheduleCmd(root *rootOptions) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run autopilot cycles at the configured UTC times",
		Long: `Runs every profile at each configured time of day (UTC, default 00:01, 09:00,
14:00 and 18:00). A cycle is skipped when the portal is not active.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.resolve(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			sched, err := scheduler.New(cfg.Schedule, a.cycle, scheduler.WithLogger(a.log))
			if err != nil {
				return err
			}
			if once {
				sched.Fire(ctx)
				return nil
			}
			if next := sched.Next(time.Now()); !next.IsZero() {
				a.log.Info("scheduler started",
					logger.Strings("schedule", sched.Specs()),
					logger.Time("next_run", next))
			}
			return sched.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run a single cycle now and exit")
	return cmd
}

// cycle runs every profile once. Per-profile failures are logged, not returned.
func (a *app) cycle(ctx context.Context, firedAt time.Time) {
	log := a.log.With(logger.Time("fired_at", firedAt))
	if !a.source.Active(ctx) {
		log.Warn("job portal is not active; skipping cycle")
		return
	}

	profiles, err := a.loadProfiles(ctx)
	if err != nil {
		log.Error("failed to load profiles", logger.Error(err))
		return
	}

	results, err := a.runner.RunAll(ctx, profiles, db.TriggerScheduled)
	applied := 0
	for _, res := range results {
		if res != nil && res.Report != nil {
			applied += res.Report.Summary.Applied()
		}
	}
	fields := []logger.Field{logger.Int("profiles", len(results)), logger.Int("applied", applied)}
	if err != nil {
		log.Warn("cycle finished with errors", append(fields, logger.Error(err))...)
		return
	}
	log.Info("cycle finished", fields...)
}
