package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-autopilot/internal/schemas"
	"github.com/jonathan/job-autopilot/internal/types"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate profile and job input files",
		Long:  "Checks input files against the embedded JSON Schemas and the run input rules.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profilesPath, jobsPath := root.profiles, root.jobs
			if profilesPath == "" && jobsPath == "" {
				return errors.New("at least one of --profiles or --jobs must be provided")
			}
			out := cmd.OutOrStdout()

			var jobs []types.JobListing
			if jobsPath != "" {
				loaded, err := schemas.LoadJobs(jobsPath)
				if err != nil {
					return err
				}
				jobs = loaded
				_, _ = fmt.Fprintf(out, "Validation passed: %s (%d jobs)\n", jobsPath, len(jobs))
			}

			if profilesPath != "" {
				profiles, err := schemas.LoadProfiles(profilesPath)
				if err != nil {
					return err
				}
				for _, p := range profiles {
					if err := types.ValidateRunInputs(p, jobs); err != nil {
						return fmt.Errorf("profile %s: %w", p.StudentID, err)
					}
				}
				_, _ = fmt.Fprintf(out, "Validation passed: %s (%d profiles)\n", profilesPath, len(profiles))
			}
			return nil
		},
	}
}
