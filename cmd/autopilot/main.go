// Package main provides the entry point for the job application autopilot.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "autopilot",
		Short: "Job application autopilot",
		Long: `Autopilot screens job listings against each applicant's constraints, scores the
remaining matches, and submits applications to the job portal within a daily quota.

Configuration is read from --config (JSON or YAML), then the environment
(PORTAL_URL, SANDBOX_URL, DATABASE_URL, LOG_LEVEL), then command-line flags.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (.json, .yaml or .yml)")
	flags.StringVar(&opts.portalURL, "portal-url", "", "Job portal base URL")
	flags.StringVar(&opts.databaseURL, "db-url", "", "PostgreSQL connection URL (optional; history is kept in memory without it)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.auditDir, "audit-dir", "", "Directory for the applications audit log")
	flags.StringVarP(&opts.profiles, "profiles", "p", "", "Path to profiles JSON file")
	flags.StringVarP(&opts.jobs, "jobs", "j", "", "Path to jobs JSON file (jobs are fetched from the portal when omitted)")

	root.AddCommand(
		newRunCmd(opts),
		newValidateCmd(opts),
		newServeCmd(opts),
		newScheduleCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
