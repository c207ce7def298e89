package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-autopilot/internal/server"
	"github.com/jonathan/job-autopilot/internal/server/ratelimit"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  `Start an HTTP server exposing /run, /run/stream, /applications, /health and /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.resolve(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srvCfg := server.Config{
				Port:      cfg.Port,
				Runner:    a.runner,
				Profiles:  a.loadProfiles,
				History:   a.history,
				Portal:    a.portal,
				Metrics:   a.metrics,
				RateLimit: ratelimit.LoadConfig(),
				Logger:    a.log,
			}
			if a.db != nil {
				srvCfg.Database = a.db
			}

			srv, err := server.New(srvCfg)
			if err != nil {
				return err
			}
			return srv.Start(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	return cmd
}
