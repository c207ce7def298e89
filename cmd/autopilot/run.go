package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-autopilot/internal/db"
	"github.com/jonathan/job-autopilot/internal/pipeline"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		profileID string
		asJSON    bool
		verbose   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the autopilot once for one or all profiles",
		Long: `Runs one autopilot cycle: for each profile, count today's applications, fetch
jobs, drop jobs already processed, rank the rest and apply within the daily quota.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.resolve(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			profiles, err := a.selectProfiles(ctx, profileID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			runner := a.runner
			if verbose {
				runner = runner.WithProgressFunc(func(e pipeline.ProgressEvent) {
					_, _ = fmt.Fprintf(out, "[%s] %s: %s\n", e.ProfileID, e.Step, e.Message)
				})
			}

			results, runErr := runner.RunAll(ctx, profiles, db.TriggerManual)
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printResults(out, results)
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&profileID, "profile", "", "Only run this profile ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print pipeline progress")
	return cmd
}

func printResults(w io.Writer, results []*pipeline.Result) {
	for _, res := range results {
		switch {
		case res.Err != nil:
			_, _ = fmt.Fprintf(w, "profile %s: error: %v\n", res.ProfileID, res.Err)
		case res.SkipReason != "":
			_, _ = fmt.Fprintf(w, "profile %s: skipped (%s)\n", res.ProfileID, res.SkipReason)
		case res.Report != nil:
			s := res.Report.Summary
			_, _ = fmt.Fprintf(w, "profile %s: queued=%d skipped=%d submitted=%d retried=%d failed=%d apps_today=%d\n",
				res.ProfileID, s.Queued, s.Skipped, s.Submitted, s.Retried, s.Failed, res.Report.AppsToday)
		}
	}
}
