package main

import (
	"github.com/spf13/cobra"

	"github.com/randalmurphal/resumeflow/auth"
	rferrors "github.com/randalmurphal/resumeflow/errors"
	"github.com/randalmurphal/resumeflow/retrieval"
	"github.com/randalmurphal/resumeflow/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve workflow runs over HTTP",
		Long: `Serve starts an HTTP server that runs the workflow for each POST /runs.
Requests need a bearer token with the runs:create scope; create one with
'resumeflow token'. Sources must be "text:<content>", "gdoc:<id>" or a URL on
a host listed in source_hosts; local files are never read for API callers.
Prometheus metrics are served on /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			if s.JWTSecret == "" {
				return rferrors.NewMissingCredentialError("jwt_secret", "The HTTP server")
			}

			logger := a.logger(s.LogLevel)
			ctx := cmd.Context()
			c, err := build(ctx, s, a.projectDir, logger, true)
			if err != nil {
				return err
			}
			defer c.Close()

			opts := []server.Option{
				server.WithRegistry(c.registry),
				server.WithLogger(logger),
				server.WithSourcePolicy(retrieval.SourcePolicy{AllowedHosts: s.SourceHosts}),
			}
			if c.history != nil {
				opts = append(opts, server.WithRunStore(c.history))
			}
			srv := server.New(c.runner, auth.Config{Secret: []byte(s.JWTSecret)}, opts...)
			return srv.ListenAndServe(ctx, s.ListenAddr)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from listen_addr)")
	return cmd
}
